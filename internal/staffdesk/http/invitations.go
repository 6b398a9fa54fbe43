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

type InvitationsHandler struct {
	Invitations *service.Invitations
}

func (h *InvitationsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req createInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	result, err := h.Invitations.CreateInvitation(ctx, actorProfile(ctx), req.Email, domain.Role(req.Role))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRequest):
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		case errors.Is(err, service.ErrAlreadyRegistered):
			httpx.WriteError(w, http.StatusConflict, "already_registered", err.Error())
		case errors.Is(err, service.ErrInvitationPending):
			httpx.WriteError(w, http.StatusConflict, "invitation_pending", err.Error())
		default:
			log.Error("invitation creation failed", slog.Any("error", err))
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to create invitation")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, createInvitationResponse{
		Success:       true,
		InvitationID:  result.Invitation.ID,
		Email:         result.Invitation.Email,
		Role:          string(result.Invitation.Role),
		InvitationURL: result.InvitationURL,
		ExpiresAt:     result.Invitation.ExpiresAt,
		EmailSent:     result.EmailSent,
	})
}

func (h *InvitationsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	invitations, err := h.Invitations.List(ctx)
	if err != nil {
		slogx.FromContext(ctx).Error("invitation listing failed", slog.Any("error", err))
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to list invitations")
		return
	}

	payload := make([]invitationPayload, 0, len(invitations))
	for _, inv := range invitations {
		payload = append(payload, invitationPayload{
			ID:              inv.ID,
			Email:           inv.Email,
			Role:            string(inv.Role),
			Status:          string(inv.Status),
			InvitedBy:       inv.InvitedBy,
			InviterEmail:    inv.InviterEmail,
			InviterFullName: inv.InviterFullName,
			AcceptedBy:      inv.AcceptedBy,
			ExpiresAt:       inv.ExpiresAt,
			CreatedAt:       inv.CreatedAt,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, listInvitationsResponse{Invitations: payload})
}

// HandleGetByToken is the public preview behind the acceptance form. It
// reveals nothing about why a token is unusable.
func (h *InvitationsHandler) HandleGetByToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	inv, err := h.Invitations.GetByToken(ctx, r.PathValue("token"))
	if err != nil {
		if errors.Is(err, service.ErrInvitationNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "not_found", "Invitation not found or expired")
			return
		}
		slogx.FromContext(ctx).Error("invitation lookup failed", slog.Any("error", err))
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to look up invitation")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, invitationPreview{
		Email:     inv.Email,
		Role:      string(inv.Role),
		ExpiresAt: inv.ExpiresAt,
	})
}

func (h *InvitationsHandler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req acceptInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	profile, err := h.Invitations.Accept(ctx, service.AcceptInvitationInput{
		Token:    req.Token,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWeakPassword):
			httpx.WriteError(w, http.StatusBadRequest, "weak_password", err.Error())
		case errors.Is(err, service.ErrInvalidRequest):
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		case errors.Is(err, service.ErrInvitationNotFound):
			httpx.WriteError(w, http.StatusNotFound, "not_found", "Invitation not found or expired")
		case errors.Is(err, service.ErrAlreadyRegistered):
			httpx.WriteError(w, http.StatusConflict, "already_registered", err.Error())
		default:
			log.Error("invitation acceptance failed", slog.Any("error", err))
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to accept invitation")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, acceptInvitationResponse{
		Success: true,
		User:    toProfilePayload(profile),
	})
}
