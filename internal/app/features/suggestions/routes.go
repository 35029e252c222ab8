// internal/app/features/suggestions/routes.go
package suggestions

import (
	"github.com/decisionjar/decisionjar/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router for the suggestion proxy. Mounted under
// /suggestions.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.List)
	return r
}
