// internal/app/system/announce/announce.go

// Package announce turns a committed winner into a push fan-out to the
// jar's active members. The fan-out runs on a detached context so commit
// success never blocks on, or fails because of, notification delivery.
package announce

import (
	"context"
	"time"

	memberstore "github.com/decisionjar/decisionjar/internal/app/store/members"
	"github.com/decisionjar/decisionjar/internal/app/system/notify"
	"github.com/decisionjar/decisionjar/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Service fans winner announcements out in the background.
type Service struct {
	members    *memberstore.Store
	dispatcher *notify.Dispatcher
	log        *zap.Logger
	timeout    time.Duration
}

func New(members *memberstore.Store, dispatcher *notify.Dispatcher, logger *zap.Logger, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Service{
		members:    members,
		dispatcher: dispatcher,
		log:        logger,
		timeout:    timeout,
	}
}

// WinnerSelected announces idea as the round's winner to every active
// member of the jar. Fire-and-forget: the caller's commit has already
// succeeded and is never unwound by a delivery problem.
func (s *Service) WinnerSelected(jarID primitive.ObjectID, idea models.Idea) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		audience, err := s.members.ActiveUserIDs(ctx, jarID)
		if err != nil {
			s.log.Error("winner announcement: audience lookup failed",
				zap.String("jar_id", jarID.Hex()),
				zap.Error(err))
			return
		}

		res, err := s.dispatcher.Dispatch(ctx, audience, notify.Message{
			Kind:  notify.KindWinnerAnnouncement,
			Title: "We have a winner!",
			Body:  idea.Title,
			Data: map[string]string{
				"jar_id":  jarID.Hex(),
				"idea_id": idea.ID.Hex(),
			},
		})
		if err != nil {
			s.log.Error("winner announcement: dispatch failed",
				zap.String("jar_id", jarID.Hex()),
				zap.Error(err))
			return
		}
		if len(res.Errors) > 0 {
			s.log.Warn("winner announcement: partial delivery",
				zap.String("jar_id", jarID.Hex()),
				zap.Int("delivered", res.Delivered),
				zap.Int("errors", len(res.Errors)))
		}
	}()
}
