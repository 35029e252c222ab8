// internal/app/features/jars/handler.go
package jars

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/decisionjar/decisionjar/internal/app/policy/jarpolicy"
	jarstore "github.com/decisionjar/decisionjar/internal/app/store/jars"
	memberstore "github.com/decisionjar/decisionjar/internal/app/store/members"
	"github.com/decisionjar/decisionjar/internal/app/system/authz"
	"github.com/decisionjar/decisionjar/internal/app/system/timeouts"
	"github.com/decisionjar/decisionjar/internal/app/system/webjson"
	"github.com/decisionjar/decisionjar/internal/domain/models"
)

// Handler serves jar creation, configuration, and roster management.
type Handler struct {
	Jars    *jarstore.Store
	Members *memberstore.Store
	Log     *zap.Logger
}

func NewHandler(jars *jarstore.Store, members *memberstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Jars: jars, Members: members, Log: logger}
}

type createJarRequest struct {
	Name                string `json:"name"`
	SelectionMode       string `json:"selection_mode"`
	VoteCandidatesCount int    `json:"vote_candidates_count"`
}

// Create handles POST /jars. The creator becomes the jar's first active
// admin.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := authz.UserCtx(r)
	if !ok {
		webjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	var req createJarRequest
	if err := webjson.Decode(r, &req); err != nil {
		webjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		webjson.Error(w, http.StatusBadRequest, "name is required")
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create jar")
	defer cancel()

	jar, err := h.Jars.Create(ctx, models.Jar{
		Name:                req.Name,
		SelectionMode:       req.SelectionMode,
		VoteCandidatesCount: req.VoteCandidatesCount,
	})
	if err != nil {
		if errors.Is(err, jarstore.ErrDuplicateJarName) {
			webjson.Error(w, http.StatusConflict, "a jar with that name already exists")
			return
		}
		if errors.Is(err, jarstore.ErrBadSelectionMode) {
			webjson.Error(w, http.StatusBadRequest, "unknown selection mode")
			return
		}
		h.Log.Error("create jar failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "could not create jar")
		return
	}

	if _, err := h.Members.Add(ctx, jar.ID, userID, models.RoleAdmin, models.MemberStatusActive); err != nil {
		h.Log.Error("seed jar admin failed",
			zap.String("jar_id", jar.ID.Hex()), zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "could not create jar")
		return
	}

	webjson.Respond(w, http.StatusCreated, jar)
}

// Get handles GET /jars/{jarID}. Members only.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	jarID, ok := pathID(w, r, "jarID")
	if !ok {
		return
	}
	_, userID, ok := authz.UserCtx(r)
	if !ok {
		webjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get jar")
	defer cancel()

	active, err := jarpolicy.CanParticipate(ctx, h.Members, jarID, userID)
	if err != nil {
		h.Log.Error("membership check failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "could not load jar")
		return
	}
	if !active {
		webjson.Error(w, http.StatusForbidden, "not a member of this jar")
		return
	}

	jar, err := h.Jars.GetByID(ctx, jarID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			webjson.Error(w, http.StatusNotFound, "jar not found")
			return
		}
		h.Log.Error("get jar failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "could not load jar")
		return
	}
	webjson.Respond(w, http.StatusOK, jar)
}

type setModeRequest struct {
	SelectionMode       string `json:"selection_mode"`
	VoteCandidatesCount int    `json:"vote_candidates_count"`
}

// SetMode handles PUT /jars/{jarID}/mode. Admin only. A mode change
// never interrupts a round already in flight; in-flight resolutions
// finish under the mode they read at their start.
func (h *Handler) SetMode(w http.ResponseWriter, r *http.Request) {
	jarID, ok := pathID(w, r, "jarID")
	if !ok {
		return
	}
	_, userID, ok := authz.UserCtx(r)
	if !ok {
		webjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	var req setModeRequest
	if err := webjson.Decode(r, &req); err != nil {
		webjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "set jar mode")
	defer cancel()

	isAdmin, err := jarpolicy.CanManageJar(ctx, h.Members, jarID, userID)
	if err != nil {
		h.Log.Error("admin check failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "could not update jar")
		return
	}
	if !isAdmin {
		webjson.Error(w, http.StatusForbidden, "admin role required")
		return
	}

	if err := h.Jars.SetSelectionMode(ctx, jarID, req.SelectionMode, req.VoteCandidatesCount); err != nil {
		if errors.Is(err, jarstore.ErrBadSelectionMode) {
			webjson.Error(w, http.StatusBadRequest, "unknown selection mode")
			return
		}
		h.Log.Error("set selection mode failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "could not update jar")
		return
	}
	webjson.Respond(w, http.StatusOK, map[string]string{"selection_mode": req.SelectionMode})
}

type addMemberRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	Status string `json:"status"`
}

// AddMember handles POST /jars/{jarID}/members. Admin only.
func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	jarID, ok := pathID(w, r, "jarID")
	if !ok {
		return
	}
	_, actorID, ok := authz.UserCtx(r)
	if !ok {
		webjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	var req addMemberRequest
	if err := webjson.Decode(r, &req); err != nil {
		webjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	userID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		webjson.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}
	if req.Role == "" {
		req.Role = models.RoleMember
	}
	if req.Status == "" {
		req.Status = models.MemberStatusPending
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "add jar member")
	defer cancel()

	isAdmin, err := jarpolicy.CanManageJar(ctx, h.Members, jarID, actorID)
	if err != nil {
		h.Log.Error("admin check failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "could not add member")
		return
	}
	if !isAdmin {
		webjson.Error(w, http.StatusForbidden, "admin role required")
		return
	}

	member, err := h.Members.Add(ctx, jarID, userID, req.Role, req.Status)
	if err != nil {
		if errors.Is(err, memberstore.ErrDuplicateMember) {
			webjson.Error(w, http.StatusConflict, "user is already a member")
			return
		}
		h.Log.Error("add member failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "could not add member")
		return
	}
	webjson.Respond(w, http.StatusCreated, member)
}

type setMemberStatusRequest struct {
	Status string `json:"status"`
}

// SetMemberStatus handles PUT /jars/{jarID}/members/{userID}/status.
// Admin only. Moves members between pending, waitlisted, and active.
func (h *Handler) SetMemberStatus(w http.ResponseWriter, r *http.Request) {
	jarID, ok := pathID(w, r, "jarID")
	if !ok {
		return
	}
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}
	_, actorID, ok := authz.UserCtx(r)
	if !ok {
		webjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	var req setMemberStatusRequest
	if err := webjson.Decode(r, &req); err != nil {
		webjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "set member status")
	defer cancel()

	isAdmin, err := jarpolicy.CanManageJar(ctx, h.Members, jarID, actorID)
	if err != nil {
		h.Log.Error("admin check failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "could not update member")
		return
	}
	if !isAdmin {
		webjson.Error(w, http.StatusForbidden, "admin role required")
		return
	}

	if err := h.Members.SetStatus(ctx, jarID, userID, req.Status); err != nil {
		if errors.Is(err, memberstore.ErrBadMemberStatus) {
			webjson.Error(w, http.StatusBadRequest, "unknown member status")
			return
		}
		if errors.Is(err, mongo.ErrNoDocuments) {
			webjson.Error(w, http.StatusNotFound, "member not found")
			return
		}
		h.Log.Error("set member status failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "could not update member")
		return
	}
	webjson.Respond(w, http.StatusOK, map[string]string{"status": req.Status})
}

// ListMembers handles GET /jars/{jarID}/members. Members only; returns
// the active roster.
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	jarID, ok := pathID(w, r, "jarID")
	if !ok {
		return
	}
	_, userID, ok := authz.UserCtx(r)
	if !ok {
		webjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list jar members")
	defer cancel()

	active, err := jarpolicy.CanParticipate(ctx, h.Members, jarID, userID)
	if err != nil {
		h.Log.Error("membership check failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "could not list members")
		return
	}
	if !active {
		webjson.Error(w, http.StatusForbidden, "not a member of this jar")
		return
	}

	roster, err := h.Members.ListActive(ctx, jarID)
	if err != nil {
		h.Log.Error("list members failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "could not list members")
		return
	}
	webjson.Respond(w, http.StatusOK, roster)
}

// pathID parses a chi URL parameter as an ObjectID, writing the 400
// itself so callers just bail on !ok.
func pathID(w http.ResponseWriter, r *http.Request, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		webjson.Error(w, http.StatusBadRequest, "invalid "+name)
		return primitive.NilObjectID, false
	}
	return id, true
}
