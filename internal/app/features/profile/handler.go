// internal/app/features/profile/handler.go

// Package profile serves the signed-in user's own record.
package profile

import (
	"errors"
	"net/http"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	userstore "github.com/decisionjar/decisionjar/internal/app/store/users"
	"github.com/decisionjar/decisionjar/internal/app/system/auth"
	"github.com/decisionjar/decisionjar/internal/app/system/authz"
	"github.com/decisionjar/decisionjar/internal/app/system/timeouts"
	"github.com/decisionjar/decisionjar/internal/app/system/webjson"
	"github.com/decisionjar/decisionjar/internal/domain/models"
)

// Handler serves the current user's profile.
type Handler struct {
	Users *userstore.Store
	Log   *zap.Logger
}

func NewHandler(users *userstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Users: users, Log: logger}
}

// Me handles GET /me. The identity service owns sign-in; the first
// request from a fresh identity materializes the local user record,
// with both notification kinds enabled.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)
	_, userID, ok := authz.UserCtx(r)
	if !ok {
		webjson.Error(w, http.StatusUnauthorized, "sign in required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "load profile")
	defer cancel()

	user, err := h.Users.GetByID(ctx, userID)
	if err == nil {
		webjson.Respond(w, http.StatusOK, user)
		return
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		h.Log.Error("load profile failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "could not load profile")
		return
	}

	user, err = h.Users.Create(ctx, models.User{
		ID:                     userID,
		FullName:               su.Name,
		Email:                  su.Email,
		StreakRemindersEnabled: true,
		WinnerAlertsEnabled:    true,
	})
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			// Another request materialized the record first.
			if user, err = h.Users.GetByID(ctx, userID); err == nil {
				webjson.Respond(w, http.StatusOK, user)
				return
			}
		}
		h.Log.Error("materialize profile failed", zap.Error(err))
		webjson.Error(w, http.StatusInternalServerError, "could not load profile")
		return
	}
	webjson.Respond(w, http.StatusOK, user)
}
