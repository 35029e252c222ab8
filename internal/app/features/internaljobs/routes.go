// internal/app/features/internaljobs/routes.go
package internaljobs

import (
	"github.com/decisionjar/decisionjar/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Routes returns the router for internal job triggers. Mounted under
// /internal/jobs. An empty token hash disables the routes entirely.
func Routes(h *Handler, serviceTokenHash string, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireServiceToken(serviceTokenHash, logger))

	r.Get("/", h.List)
	r.Post("/{name}/run", h.Run)

	return r
}
