// internal/app/features/rounds/routes.go
package rounds

import "github.com/go-chi/chi/v5"

// Register attaches the round endpoints to the jar router, which
// already requires a signed-in user.
func Register(r chi.Router, h *Handler) {
	r.Post("/{jarID}/spin", h.Spin)
	r.Post("/{jarID}/pick", h.Pick)
	r.Post("/{jarID}/allocate", h.Allocate)
}
