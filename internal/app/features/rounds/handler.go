// internal/app/features/rounds/handler.go

// Package rounds serves the decision-round endpoints: spin, admin pick,
// and allocation.
package rounds

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	ideastore "github.com/decisionjar/decisionjar/internal/app/store/ideas"
	userstore "github.com/decisionjar/decisionjar/internal/app/store/users"
	"github.com/decisionjar/decisionjar/internal/app/system/authz"
	"github.com/decisionjar/decisionjar/internal/app/system/selection"
	"github.com/decisionjar/decisionjar/internal/app/system/timeouts"
	"github.com/decisionjar/decisionjar/internal/app/system/webjson"
)

// Handler runs decision rounds through the selection resolver.
type Handler struct {
	Resolver *selection.Resolver
	Users    *userstore.Store
	Log      *zap.Logger
}

func NewHandler(resolver *selection.Resolver, users *userstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Resolver: resolver, Users: users, Log: logger}
}

type spinRequest struct {
	MaxDurationMinutes int    `json:"max_duration_minutes,omitempty"`
	MaxCost            string `json:"max_cost,omitempty"`
	MaxActivityLevel   string `json:"max_activity_level,omitempty"`
	TimeOfDay          string `json:"time_of_day,omitempty"`
	Category           string `json:"category,omitempty"`
	Weather            string `json:"weather,omitempty"`
	LocalOnly          bool   `json:"local_only,omitempty"`
}

// Spin handles POST /jars/{jarID}/spin. Any active member; the jar's
// configured strategy decides what happens. An empty body means an
// unfiltered draw.
func (h *Handler) Spin(w http.ResponseWriter, r *http.Request) {
	jarID, ok := pathID(w, r, "jarID")
	if !ok {
		return
	}
	_, userID, ok := authz.UserCtx(r)
	if !ok {
		webjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	var req spinRequest
	if r.ContentLength > 0 {
		if err := webjson.Decode(r, &req); err != nil {
			webjson.Error(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "spin")
	defer cancel()

	winner, err := h.Resolver.Resolve(ctx, jarID, userID, ideastore.Filter{
		MaxDurationMinutes: req.MaxDurationMinutes,
		MaxCost:            req.MaxCost,
		MaxActivityLevel:   req.MaxActivityLevel,
		TimeOfDay:          req.TimeOfDay,
		Category:           req.Category,
		Weather:            req.Weather,
		LocalOnly:          req.LocalOnly,
	})
	if err != nil {
		h.writeRoundError(w, err, "spin")
		return
	}

	h.touchActivity(r, userID)
	webjson.Respond(w, http.StatusOK, winner)
}

type pickRequest struct {
	IdeaID string `json:"idea_id"`
}

// Pick handles POST /jars/{jarID}/pick. Admin only; commits the named
// idea directly.
func (h *Handler) Pick(w http.ResponseWriter, r *http.Request) {
	jarID, ok := pathID(w, r, "jarID")
	if !ok {
		return
	}
	_, userID, ok := authz.UserCtx(r)
	if !ok {
		webjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	var req pickRequest
	if err := webjson.Decode(r, &req); err != nil {
		webjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ideaID, err := primitive.ObjectIDFromHex(req.IdeaID)
	if err != nil {
		webjson.Error(w, http.StatusBadRequest, "invalid idea id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "admin pick")
	defer cancel()

	winner, err := h.Resolver.AdminPick(ctx, jarID, ideaID, userID)
	if err != nil {
		h.writeRoundError(w, err, "admin pick")
		return
	}

	h.touchActivity(r, userID)
	webjson.Respond(w, http.StatusOK, winner)
}

// Allocate handles POST /jars/{jarID}/allocate. Admin only; runs one
// task-distribution round and returns the member-to-idea assignments.
func (h *Handler) Allocate(w http.ResponseWriter, r *http.Request) {
	jarID, ok := pathID(w, r, "jarID")
	if !ok {
		return
	}
	_, userID, ok := authz.UserCtx(r)
	if !ok {
		webjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "allocation round")
	defer cancel()

	assignments, err := h.Resolver.Allocate(ctx, jarID, userID)
	if err != nil {
		h.writeRoundError(w, err, "allocation")
		return
	}

	h.touchActivity(r, userID)
	webjson.Respond(w, http.StatusOK, map[string]any{"assignments": assignments})
}

// writeRoundError maps resolver and commit errors onto the API's status
// codes. Contention surfaces as 409 so clients re-fetch instead of
// retrying blind.
func (h *Handler) writeRoundError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, selection.ErrNotAuthorized):
		webjson.Error(w, http.StatusForbidden, err.Error())
	case errors.Is(err, selection.ErrUseVoteSession),
		errors.Is(err, selection.ErrUseAdminPick),
		errors.Is(err, selection.ErrUseAllocation):
		webjson.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, selection.ErrNoEligibleCandidates):
		webjson.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, ideastore.ErrAlreadyCommitted):
		webjson.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, ideastore.ErrNotEligible):
		webjson.Error(w, http.StatusConflict, err.Error())
	default:
		h.Log.Error(op+" failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "round failed")
	}
}

// touchActivity marks streak-worthy activity. Best-effort; a failed
// touch never fails the round that triggered it.
func (h *Handler) touchActivity(r *http.Request, userID primitive.ObjectID) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "touch activity")
	defer cancel()
	if err := h.Users.TouchActivity(ctx, userID); err != nil {
		h.Log.Warn("touch activity failed",
			zap.String("user_id", userID.Hex()), zap.Error(err))
	}
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		webjson.Error(w, http.StatusBadRequest, "invalid "+name)
		return primitive.NilObjectID, false
	}
	return id, true
}
