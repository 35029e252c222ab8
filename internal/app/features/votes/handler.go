// internal/app/features/votes/handler.go

// Package votes serves the vote-session endpoints: starting a session,
// casting ballots, forcing resolution, and reading session state.
package votes

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	userstore "github.com/decisionjar/decisionjar/internal/app/store/users"
	sessionstore "github.com/decisionjar/decisionjar/internal/app/store/votesessions"
	"github.com/decisionjar/decisionjar/internal/app/system/authz"
	"github.com/decisionjar/decisionjar/internal/app/system/selection"
	"github.com/decisionjar/decisionjar/internal/app/system/timeouts"
	"github.com/decisionjar/decisionjar/internal/app/system/voteflow"
	"github.com/decisionjar/decisionjar/internal/app/system/webjson"
)

// Handler drives vote sessions through the voteflow state machine.
type Handler struct {
	Flow     *voteflow.Flow
	Sessions *sessionstore.Store
	Users    *userstore.Store
	Log      *zap.Logger
}

func NewHandler(flow *voteflow.Flow, sessions *sessionstore.Store, users *userstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Flow: flow, Sessions: sessions, Users: users, Log: logger}
}

// Start handles POST /jars/{jarID}/vote-sessions. Admin only; freezes
// the candidate set and opens the session.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	jarID, ok := pathID(w, r, "jarID")
	if !ok {
		return
	}
	_, userID, ok := authz.UserCtx(r)
	if !ok {
		webjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "start vote session")
	defer cancel()

	sess, err := h.Flow.Start(ctx, jarID, userID)
	if err != nil {
		h.writeVoteError(w, err, "start vote session")
		return
	}
	webjson.Respond(w, http.StatusCreated, sess)
}

// ListByJar handles GET /jars/{jarID}/vote-sessions.
func (h *Handler) ListByJar(w http.ResponseWriter, r *http.Request) {
	jarID, ok := pathID(w, r, "jarID")
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list vote sessions")
	defer cancel()

	list, err := h.Sessions.ListByJar(ctx, jarID)
	if err != nil {
		h.Log.Error("list vote sessions failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "could not list sessions")
		return
	}
	webjson.Respond(w, http.StatusOK, list)
}

// Get handles GET /vote-sessions/{sessionID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := pathID(w, r, "sessionID")
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get vote session")
	defer cancel()

	sess, err := h.Flow.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			webjson.Error(w, http.StatusNotFound, "session not found")
			return
		}
		h.Log.Error("get vote session failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "could not load session")
		return
	}
	webjson.Respond(w, http.StatusOK, sess)
}

type castRequest struct {
	IdeaID string `json:"idea_id"`
}

// Cast handles POST /vote-sessions/{sessionID}/votes. Active members
// only; a repeat cast replaces the earlier ballot. The returned session
// reflects an auto-resolution when this ballot completed the quorum.
func (h *Handler) Cast(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := pathID(w, r, "sessionID")
	if !ok {
		return
	}
	_, userID, ok := authz.UserCtx(r)
	if !ok {
		webjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	var req castRequest
	if err := webjson.Decode(r, &req); err != nil {
		webjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ideaID, err := primitive.ObjectIDFromHex(req.IdeaID)
	if err != nil {
		webjson.Error(w, http.StatusBadRequest, "invalid idea id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "cast vote")
	defer cancel()

	sess, err := h.Flow.CastVote(ctx, sessionID, userID, ideaID)
	if err != nil {
		h.writeVoteError(w, err, "cast vote")
		return
	}

	h.touchActivity(r, userID)
	webjson.Respond(w, http.StatusOK, sess)
}

// Resolve handles POST /vote-sessions/{sessionID}/resolve. Admin only;
// closes the session early on whatever ballots exist.
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := pathID(w, r, "sessionID")
	if !ok {
		return
	}
	_, userID, ok := authz.UserCtx(r)
	if !ok {
		webjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "force resolve")
	defer cancel()

	sess, err := h.Flow.ForceResolve(ctx, sessionID, userID)
	if err != nil {
		h.writeVoteError(w, err, "force resolve")
		return
	}
	webjson.Respond(w, http.StatusOK, sess)
}

func (h *Handler) writeVoteError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, selection.ErrNotAuthorized):
		webjson.Error(w, http.StatusForbidden, err.Error())
	case errors.Is(err, selection.ErrInvalidMode):
		webjson.Error(w, http.StatusConflict, "jar does not resolve by vote")
	case errors.Is(err, selection.ErrNoEligibleCandidates),
		errors.Is(err, sessionstore.ErrSessionAlreadyActive),
		errors.Is(err, voteflow.ErrSessionNotActive),
		errors.Is(err, voteflow.ErrNoVotesCast):
		webjson.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, voteflow.ErrInvalidCandidate):
		webjson.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, mongo.ErrNoDocuments):
		webjson.Error(w, http.StatusNotFound, "session not found")
	default:
		h.Log.Error(op+" failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "vote operation failed")
	}
}

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
