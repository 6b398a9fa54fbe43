package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/seobrand/staffdesk/internal/staffdesk/service"
	"github.com/seobrand/staffdesk/pkg/httpx"
	"github.com/seobrand/staffdesk/pkg/slogx"
)

type AuditHandler struct {
	Audit *service.AuditService
}

func (h *AuditHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := h.Audit.List(ctx, limit)
	if err != nil {
		slogx.FromContext(ctx).Error("audit listing failed", slog.Any("error", err))
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to list audit entries")
		return
	}

	payload := make([]auditEntryPayload, 0, len(entries))
	for _, e := range entries {
		payload = append(payload, auditEntryPayload{
			ID:           e.ID,
			ActorID:      e.ActorID,
			Action:       e.Action,
			ResourceType: e.ResourceType,
			ResourceID:   e.ResourceID,
			Details:      e.Details,
			CreatedAt:    e.CreatedAt,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, listAuditResponse{Entries: payload})
}
