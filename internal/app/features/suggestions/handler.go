// internal/app/features/suggestions/handler.go

// Package suggestions proxies the external recommendation provider.
package suggestions

import (
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/decisionjar/decisionjar/internal/app/system/authz"
	"github.com/decisionjar/decisionjar/internal/app/system/recommend"
	"github.com/decisionjar/decisionjar/internal/app/system/timeouts"
	"github.com/decisionjar/decisionjar/internal/app/system/webjson"
)

const defaultLimit = 10

// Handler fetches idea suggestions on a member's behalf.
type Handler struct {
	Provider recommend.Provider
	Log      *zap.Logger
}

func NewHandler(provider recommend.Provider, logger *zap.Logger) *Handler {
	return &Handler{Provider: provider, Log: logger}
}

// List handles GET /suggestions?category=…&limit=…. Suggestions are
// best-effort: a degraded provider yields an empty list, not a failed
// request.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := authz.UserCtx(r); !ok {
		webjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}
	if h.Provider == nil {
		webjson.Respond(w, http.StatusOK, map[string]any{"suggestions": []recommend.Suggestion{}})
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 50 {
		limit = defaultLimit
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "fetch suggestions")
	defer cancel()

	list, err := h.Provider.Suggest(ctx, r.URL.Query().Get("category"), limit)
	if err != nil {
		if errors.Is(err, recommend.ErrUnavailable) {
			h.Log.Warn("recommendation provider degraded", zap.Error(err))
			webjson.Respond(w, http.StatusOK, map[string]any{"suggestions": []recommend.Suggestion{}})
			return
		}
		h.Log.Error("fetch suggestions failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "could not fetch suggestions")
		return
	}
	if list == nil {
		list = []recommend.Suggestion{}
	}
	webjson.Respond(w, http.StatusOK, map[string]any{"suggestions": list})
}
