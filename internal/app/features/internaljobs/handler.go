// internal/app/features/internaljobs/handler.go

// Package internaljobs exposes the maintenance jobs to trusted internal
// callers (cron, operators). Routes are guarded by the service token.
package internaljobs

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/decisionjar/decisionjar/internal/app/system/tasks"
	"github.com/decisionjar/decisionjar/internal/app/system/timeouts"
	"github.com/decisionjar/decisionjar/internal/app/system/webjson"
)

// Handler triggers registered jobs by name.
type Handler struct {
	jobs map[string]tasks.Job
	Log  *zap.Logger
}

func NewHandler(jobs []tasks.Job, logger *zap.Logger) *Handler {
	byName := make(map[string]tasks.Job, len(jobs))
	for _, j := range jobs {
		byName[j.Name] = j
	}
	return &Handler{jobs: byName, Log: logger}
}

// Run handles POST /internal/jobs/{name}/run.
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	job, ok := h.jobs[name]
	if !ok {
		webjson.Error(w, http.StatusNotFound, "unknown job")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "job "+name)
	defer cancel()

	if err := job.Run(ctx); err != nil {
		h.Log.Error("job run failed", zap.String("job", name), zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "job failed")
		return
	}
	h.Log.Info("job run finished", zap.String("job", name))
	webjson.Respond(w, http.StatusOK, map[string]string{"job": name, "status": "ok"})
}

// List handles GET /internal/jobs.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(h.jobs))
	for name := range h.jobs {
		names = append(names, name)
	}
	webjson.Respond(w, http.StatusOK, map[string]any{"jobs": names})
}
