// internal/app/features/jars/routes.go
package jars

import (
	"github.com/decisionjar/decisionjar/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns the router for jar and roster management. Mounted
// under /jars.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Post("/", h.Create)
	r.Get("/{jarID}", h.Get)
	r.Put("/{jarID}/mode", h.SetMode)

	r.Get("/{jarID}/members", h.ListMembers)
	r.Post("/{jarID}/members", h.AddMember)
	r.Put("/{jarID}/members/{userID}/status", h.SetMemberStatus)

	return r
}
