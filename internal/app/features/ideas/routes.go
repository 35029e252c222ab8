// internal/app/features/ideas/routes.go
package ideas

import (
	"github.com/decisionjar/decisionjar/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// RegisterJarRoutes attaches the jar-scoped idea endpoints to the jar
// router, which already requires a signed-in user.
func RegisterJarRoutes(r chi.Router, h *Handler) {
	r.Post("/{jarID}/ideas", h.Create)
	r.Get("/{jarID}/ideas", h.ListEligible)
}

// Routes returns the router for idea-scoped endpoints. Mounted under
// /ideas.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Put("/{ideaID}/status", h.Review)
	r.Post("/{ideaID}/reset", h.Reset)

	return r
}
