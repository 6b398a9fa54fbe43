package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/seobrand/staffdesk/internal/staffdesk/domain"
	"github.com/seobrand/staffdesk/internal/staffdesk/service"
	"github.com/seobrand/staffdesk/internal/staffdesk/store"
	"github.com/seobrand/staffdesk/pkg/httpx"
	"github.com/seobrand/staffdesk/pkg/jwtx"
	"github.com/seobrand/staffdesk/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store
	guard *service.Guard

	Provisioner *service.Provisioner
	Invitations *service.Invitations
	Users       *service.Users
	Audit       *service.AuditService
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		guard:        &service.Guard{Store: st},
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerUsers()
	r.registerInvitations()
	r.registerAudit()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// adminChain authenticates the session token, then requires an active
// admin profile before the handler runs.
func (r *Router) adminChain(h http.Handler, limit httpx.RateLimitConfig) http.Handler {
	return httpx.Chain(h,
		httpx.AuthnMiddleware(r.verifier),
		r.requireAdmin(),
		httpx.RateLimitByAccount(limit),
	)
}

func (r *Router) registerUsers() {
	h := &UsersHandler{Provisioner: r.Provisioner, Users: r.Users}

	// POST /v1/users - create with credentials (privileged write)
	r.Mux.Handle("POST /v1/users",
		r.adminChain(http.HandlerFunc(h.HandleCreate), httpx.ModerateLimit))

	// GET /v1/users - directory listing
	r.Mux.Handle("GET /v1/users",
		r.adminChain(http.HandlerFunc(h.HandleList), httpx.LenientLimit))

	// POST /v1/users/{id}/deactivate
	r.Mux.Handle("POST /v1/users/{id}/deactivate",
		r.adminChain(http.HandlerFunc(h.HandleDeactivate), httpx.ModerateLimit))
}

func (r *Router) registerInvitations() {
	h := &InvitationsHandler{Invitations: r.Invitations}

	// POST /v1/invitations - mint an invitation (privileged write)
	r.Mux.Handle("POST /v1/invitations",
		r.adminChain(http.HandlerFunc(h.HandleCreate), httpx.ModerateLimit))

	// GET /v1/invitations - listing for the dashboard
	r.Mux.Handle("GET /v1/invitations",
		r.adminChain(http.HandlerFunc(h.HandleList), httpx.LenientLimit))

	// GET /v1/invitations/{token} - public token preview, strict by IP
	// to slow token guessing
	r.Mux.Handle("GET /v1/invitations/{token}",
		httpx.Chain(http.HandlerFunc(h.HandleGetByToken),
			httpx.RateLimitByIP(httpx.StrictLimit),
		))

	// POST /v1/invitations/accept - public signup endpoint
	r.Mux.Handle("POST /v1/invitations/accept",
		httpx.Chain(http.HandlerFunc(h.HandleAccept),
			httpx.RateLimitByIP(httpx.StrictLimit),
		))
}

func (r *Router) registerAudit() {
	h := &AuditHandler{Audit: r.Audit}

	r.Mux.Handle("GET /v1/audit",
		r.adminChain(h, httpx.LenientLimit))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		))
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		))
}

type ctxKey string

const ctxKeyActorProfile ctxKey = "actor_profile"

// requireAdmin resolves the authenticated account to its profile and
// rejects anything but an active admin. The profile lands in the
// request context for handlers that need the acting admin.
func (r *Router) requireAdmin() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := req.Context()

			profile, err := r.guard.RequireAdmin(ctx, httpx.AccountID(ctx))
			if err != nil {
				switch {
				case errors.Is(err, service.ErrUnauthenticated):
					httpx.WriteError(w, http.StatusUnauthorized, "unauthenticated", "Authentication required")
				case errors.Is(err, service.ErrForbidden):
					httpx.WriteError(w, http.StatusForbidden, "forbidden", "Admin access required")
				default:
					slogx.FromContext(ctx).Error("admin guard failed", slog.Any("error", err))
					httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Authorization check failed")
				}
				return
			}

			next.ServeHTTP(w, req.WithContext(
				context.WithValue(ctx, ctxKeyActorProfile, profile)))
		})
	}
}

// actorProfile returns the acting admin stashed by requireAdmin.
func actorProfile(ctx context.Context) domain.Profile {
	profile, _ := ctx.Value(ctxKeyActorProfile).(domain.Profile)
	return profile
}
