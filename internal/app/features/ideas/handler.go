// internal/app/features/ideas/handler.go

// Package ideas serves idea submission, review, listing, and reset.
package ideas

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/decisionjar/decisionjar/internal/app/policy/jarpolicy"
	ideastore "github.com/decisionjar/decisionjar/internal/app/store/ideas"
	memberstore "github.com/decisionjar/decisionjar/internal/app/store/members"
	"github.com/decisionjar/decisionjar/internal/app/system/authz"
	"github.com/decisionjar/decisionjar/internal/app/system/htmlsanitize"
	"github.com/decisionjar/decisionjar/internal/app/system/timeouts"
	"github.com/decisionjar/decisionjar/internal/app/system/webjson"
	"github.com/decisionjar/decisionjar/internal/domain/models"
)

// Handler serves the idea lifecycle around the jar's candidate pool.
type Handler struct {
	Ideas   *ideastore.Store
	Members *memberstore.Store
	Log     *zap.Logger
}

func NewHandler(ideas *ideastore.Store, members *memberstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Ideas: ideas, Members: members, Log: logger}
}

type createIdeaRequest struct {
	Title           string `json:"title"`
	Description     string `json:"description,omitempty"`
	Category        string `json:"category,omitempty"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
	CostTier        string `json:"cost_tier,omitempty"`
	ActivityLevel   string `json:"activity_level,omitempty"`
	TimeOfDay       string `json:"time_of_day,omitempty"`
	Weather         string `json:"weather,omitempty"`
	Indoor          bool   `json:"indoor,omitempty"`
	RequiresTravel  bool   `json:"requires_travel,omitempty"`
	Private         bool   `json:"private,omitempty"`
}

// Create handles POST /jars/{jarID}/ideas. Any active member; the idea
// starts pending until an admin approves it. Title and description are
// sanitized before storage.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	jarID, ok := pathID(w, r, "jarID")
	if !ok {
		return
	}
	_, userID, ok := authz.UserCtx(r)
	if !ok {
		webjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	var req createIdeaRequest
	if err := webjson.Decode(r, &req); err != nil {
		webjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	title := strings.TrimSpace(htmlsanitize.SanitizeStrict(req.Title))
	if title == "" {
		webjson.Error(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.CostTier != "" && models.CostRank(req.CostTier) < 0 {
		webjson.Error(w, http.StatusBadRequest, "unknown cost tier")
		return
	}
	if req.ActivityLevel != "" && models.ActivityRank(req.ActivityLevel) < 0 {
		webjson.Error(w, http.StatusBadRequest, "unknown activity level")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create idea")
	defer cancel()

	active, err := jarpolicy.CanParticipate(ctx, h.Members, jarID, userID)
	if err != nil {
		h.Log.Error("membership check failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "could not create idea")
		return
	}
	if !active {
		webjson.Error(w, http.StatusForbidden, "not a member of this jar")
		return
	}

	idea, err := h.Ideas.Create(ctx, models.Idea{
		JarID:           jarID,
		CreatedBy:       userID,
		Title:           title,
		Description:     htmlsanitize.Sanitize(req.Description),
		Category:        strings.TrimSpace(req.Category),
		DurationMinutes: req.DurationMinutes,
		CostTier:        req.CostTier,
		ActivityLevel:   req.ActivityLevel,
		TimeOfDay:       req.TimeOfDay,
		Weather:         req.Weather,
		Indoor:          req.Indoor,
		RequiresTravel:  req.RequiresTravel,
		Private:         req.Private,
	})
	if err != nil {
		h.Log.Error("create idea failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "could not create idea")
		return
	}
	webjson.Respond(w, http.StatusCreated, idea)
}

// ListEligible handles GET /jars/{jarID}/ideas. Members only; returns
// the current candidate pool under the query-string filters.
func (h *Handler) ListEligible(w http.ResponseWriter, r *http.Request) {
	jarID, ok := pathID(w, r, "jarID")
	if !ok {
		return
	}
	_, userID, ok := authz.UserCtx(r)
	if !ok {
		webjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list eligible ideas")
	defer cancel()

	active, err := jarpolicy.CanParticipate(ctx, h.Members, jarID, userID)
	if err != nil {
		h.Log.Error("membership check failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "could not list ideas")
		return
	}
	if !active {
		webjson.Error(w, http.StatusForbidden, "not a member of this jar")
		return
	}

	q := r.URL.Query()
	maxDuration, _ := strconv.Atoi(q.Get("max_duration_minutes"))
	pool, err := h.Ideas.Eligible(ctx, jarID, ideastore.Filter{
		MaxDurationMinutes: maxDuration,
		MaxCost:            q.Get("max_cost"),
		MaxActivityLevel:   q.Get("max_activity_level"),
		TimeOfDay:          q.Get("time_of_day"),
		Category:           q.Get("category"),
		Weather:            q.Get("weather"),
		LocalOnly:          q.Get("local_only") == "true",
	})
	if err != nil {
		h.Log.Error("list eligible ideas failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "could not list ideas")
		return
	}
	webjson.Respond(w, http.StatusOK, pool)
}

type reviewRequest struct {
	Status string `json:"status"`
}

// Review handles PUT /ideas/{ideaID}/status. Admin of the idea's jar;
// moves the idea between pending, approved, and rejected.
func (h *Handler) Review(w http.ResponseWriter, r *http.Request) {
	ideaID, ok := pathID(w, r, "ideaID")
	if !ok {
		return
	}
	_, userID, ok := authz.UserCtx(r)
	if !ok {
		webjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	var req reviewRequest
	if err := webjson.Decode(r, &req); err != nil {
		webjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	switch req.Status {
	case models.IdeaStatusPending, models.IdeaStatusApproved, models.IdeaStatusRejected:
	default:
		webjson.Error(w, http.StatusBadRequest, "unknown idea status")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "review idea")
	defer cancel()

	idea, err := h.Ideas.GetByID(ctx, ideaID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			webjson.Error(w, http.StatusNotFound, "idea not found")
			return
		}
		h.Log.Error("get idea failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "could not review idea")
		return
	}

	isAdmin, err := jarpolicy.CanManageJar(ctx, h.Members, idea.JarID, userID)
	if err != nil {
		h.Log.Error("admin check failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "could not review idea")
		return
	}
	if !isAdmin {
		webjson.Error(w, http.StatusForbidden, "admin role required")
		return
	}

	if err := h.Ideas.SetStatus(ctx, ideaID, req.Status); err != nil {
		h.Log.Error("set idea status failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "could not review idea")
		return
	}
	webjson.Respond(w, http.StatusOK, map[string]string{"status": req.Status})
}

// Reset handles POST /ideas/{ideaID}/reset. Admin of the idea's jar;
// clears the consumption marker so the idea re-enters the pool.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	ideaID, ok := pathID(w, r, "ideaID")
	if !ok {
		return
	}
	_, userID, ok := authz.UserCtx(r)
	if !ok {
		webjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "reset idea")
	defer cancel()

	idea, err := h.Ideas.GetByID(ctx, ideaID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			webjson.Error(w, http.StatusNotFound, "idea not found")
			return
		}
		h.Log.Error("get idea failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "could not reset idea")
		return
	}

	isAdmin, err := jarpolicy.CanManageJar(ctx, h.Members, idea.JarID, userID)
	if err != nil {
		h.Log.Error("admin check failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "could not reset idea")
		return
	}
	if !isAdmin {
		webjson.Error(w, http.StatusForbidden, "admin role required")
		return
	}

	if err := h.Ideas.Reset(ctx, idea.JarID, ideaID); err != nil {
		if errors.Is(err, ideastore.ErrNotSelected) {
			webjson.Error(w, http.StatusConflict, err.Error())
			return
		}
		h.Log.Error("reset idea failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "could not reset idea")
		return
	}
	webjson.Respond(w, http.StatusOK, map[string]string{"status": "reset"})
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		webjson.Error(w, http.StatusBadRequest, "invalid "+name)
		return primitive.NilObjectID, false
	}
	return id, true
}
