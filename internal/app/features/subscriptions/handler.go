// internal/app/features/subscriptions/handler.go

// Package subscriptions serves push-subscription registration and the
// user's notification preferences.
package subscriptions

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	substore "github.com/decisionjar/decisionjar/internal/app/store/subscriptions"
	userstore "github.com/decisionjar/decisionjar/internal/app/store/users"
	"github.com/decisionjar/decisionjar/internal/app/system/authz"
	"github.com/decisionjar/decisionjar/internal/app/system/timeouts"
	"github.com/decisionjar/decisionjar/internal/app/system/webjson"
)

// Handler manages a user's push endpoints and delivery preferences.
type Handler struct {
	Subs  *substore.Store
	Users *userstore.Store
	Log   *zap.Logger
}

func NewHandler(subs *substore.Store, users *userstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Subs: subs, Users: users, Log: logger}
}

type registerRequest struct {
	Endpoint string `json:"endpoint"`
	P256dh   string `json:"p256dh"`
	Auth     string `json:"auth"`
}

// Register handles POST /push-subscriptions. Re-registering an endpoint
// refreshes its keys instead of duplicating the row.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := authz.UserCtx(r)
	if !ok {
		webjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	var req registerRequest
	if err := webjson.Decode(r, &req); err != nil {
		webjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Endpoint = strings.TrimSpace(req.Endpoint)
	if req.Endpoint == "" || req.P256dh == "" || req.Auth == "" {
		webjson.Error(w, http.StatusBadRequest, "endpoint, p256dh, and auth are required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "register subscription")
	defer cancel()

	sub, err := h.Subs.Register(ctx, userID, req.Endpoint, req.P256dh, req.Auth)
	if err != nil {
		h.Log.Error("register subscription failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "could not register subscription")
		return
	}
	webjson.Respond(w, http.StatusCreated, sub)
}

type unregisterRequest struct {
	Endpoint string `json:"endpoint"`
}

// Unregister handles DELETE /push-subscriptions. Removing an endpoint
// that is already gone is not an error.
func (h *Handler) Unregister(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := authz.UserCtx(r)
	if !ok {
		webjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	var req unregisterRequest
	if err := webjson.Decode(r, &req); err != nil {
		webjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "unregister subscription")
	defer cancel()

	n, err := h.Subs.DeleteByEndpoint(ctx, userID, req.Endpoint)
	if err != nil {
		h.Log.Error("unregister subscription failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "could not unregister subscription")
		return
	}
	webjson.Respond(w, http.StatusOK, map[string]int64{"deleted": n})
}

type prefsRequest struct {
	StreakReminders bool `json:"streak_reminders"`
	WinnerAlerts    bool `json:"winner_alerts"`
}

// SetPreferences handles PUT /push-subscriptions/preferences. These
// flags gate dispatcher delivery per message kind.
func (h *Handler) SetPreferences(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := authz.UserCtx(r)
	if !ok {
		webjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	var req prefsRequest
	if err := webjson.Decode(r, &req); err != nil {
		webjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "set notification prefs")
	defer cancel()

	if err := h.Users.SetNotificationPrefs(ctx, userID, req.StreakReminders, req.WinnerAlerts); err != nil {
		h.Log.Error("set notification prefs failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "could not update preferences")
		return
	}
	webjson.Respond(w, http.StatusOK, req)
}
