// internal/app/features/profile/routes.go
package profile

import (
	"github.com/decisionjar/decisionjar/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router for the current user's profile. Mounted
// under /me.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.Me)
	return r
}
