package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/seobrand/staffdesk/internal/staffdesk/domain"
	"github.com/seobrand/staffdesk/internal/staffdesk/service"
	"github.com/seobrand/staffdesk/pkg/httpx"
	"github.com/seobrand/staffdesk/pkg/slogx"
)

type UsersHandler struct {
	Provisioner *service.Provisioner
	Users       *service.Users
}

// HandleCreate provisions an account with admin-issued temporary
// credentials. The credentials appear only in this response.
func (h *UsersHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	result, err := h.Provisioner.CreateUserWithCredentials(ctx, actorProfile(ctx), service.CreateUserInput{
		Email:    req.Email,
		FullName: req.FullName,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRequest):
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		case errors.Is(err, service.ErrAlreadyRegistered):
			httpx.WriteError(w, http.StatusConflict, "already_registered", err.Error())
		default:
			log.Error("user creation failed", slog.Any("error", err))
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to create user")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, createUserResponse{
		Success: true,
		Message: result.Message,
		User:    toProfilePayload(result.Profile),
		Credentials: credentialsPayload{
			Email:             result.Credentials.Email,
			TemporaryPassword: result.Credentials.TemporaryPassword,
		},
		EmailSent: result.EmailSent,
	})
}

func (h *UsersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	profiles, err := h.Users.List(ctx)
	if err != nil {
		slogx.FromContext(ctx).Error("user listing failed", slog.Any("error", err))
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to list users")
		return
	}

	payload := make([]profilePayload, 0, len(profiles))
	for _, p := range profiles {
		payload = append(payload, toProfilePayload(p))
	}
	httpx.WriteJSON(w, http.StatusOK, listUsersResponse{Users: payload})
}

func (h *UsersHandler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	id := r.PathValue("id")
	if id == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "User id is required")
		return
	}

	profile, err := h.Users.Deactivate(ctx, actorProfile(ctx), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSelfDeactivation):
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Cannot deactivate your own account")
		case errors.Is(err, service.ErrProfileNotFound):
			httpx.WriteError(w, http.StatusNotFound, "not_found", "User not found")
		default:
			log.Error("user deactivation failed", slog.String("user_id", id), slog.Any("error", err))
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to deactivate user")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toProfilePayload(profile))
}

func toProfilePayload(p domain.Profile) profilePayload {
	return profilePayload{
		ID:        p.ID,
		Email:     p.Email,
		FullName:  p.FullName,
		Role:      string(p.Role),
		Active:    p.Active,
		InvitedBy: p.InvitedBy,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
