// internal/app/features/subscriptions/routes.go
package subscriptions

import (
	"github.com/decisionjar/decisionjar/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router for push-subscription management. Mounted
// under /push-subscriptions.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Post("/", h.Register)
	r.Delete("/", h.Unregister)
	r.Put("/preferences", h.SetPreferences)

	return r
}
