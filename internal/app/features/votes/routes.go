// internal/app/features/votes/routes.go
package votes

import (
	"github.com/decisionjar/decisionjar/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// RegisterJarRoutes attaches the jar-scoped session endpoints to the
// jar router, which already requires a signed-in user.
func RegisterJarRoutes(r chi.Router, h *Handler) {
	r.Post("/{jarID}/vote-sessions", h.Start)
	r.Get("/{jarID}/vote-sessions", h.ListByJar)
}

// Routes returns the router for session-scoped endpoints. Mounted under
// /vote-sessions.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/{sessionID}", h.Get)
	r.Post("/{sessionID}/votes", h.Cast)
	r.Post("/{sessionID}/resolve", h.Resolve)

	return r
}
