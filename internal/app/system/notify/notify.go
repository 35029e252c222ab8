// internal/app/system/notify/notify.go

// Package notify delivers one logical message to every push endpoint of
// an audience, isolating per-endpoint failures. A bad subscription never
// aborts the batch: failures come back as data in the Result, and the
// only error a Dispatch call can return is total inability to reach the
// audience store.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/decisionjar/decisionjar/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ErrEndpointGone is returned by a Pusher when the delivery channel
// reports the endpoint permanently invalid (HTTP 404/410). The
// dispatcher deletes the subscription and moves on.
var ErrEndpointGone = errors.New("push endpoint gone")

// Message kinds. The kind selects which per-user preference flag is
// consulted before delivery.
const (
	KindWinnerAnnouncement = "winner_announcement"
	KindStreakReminder     = "streak_reminder"
)

// Message is one logical notification addressed to an audience.
type Message struct {
	Kind  string            `json:"kind"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// DeliveryError records one non-fatal per-recipient failure.
type DeliveryError struct {
	UserID primitive.ObjectID `json:"user_id"`
	Detail string             `json:"detail"`
}

// Result is the aggregate outcome of one fan-out.
type Result struct {
	Audience  int             `json:"audience"`
	Delivered int             `json:"delivered"`
	Skipped   int             `json:"skipped"`
	Errors    []DeliveryError `json:"errors,omitempty"`
}

// SubscriptionSource is the slice of the subscriptions store the
// dispatcher needs.
type SubscriptionSource interface {
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.PushSubscription, error)
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)
}

// PreferenceSource resolves audience user records for preference checks.
type PreferenceSource interface {
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
}

// Pusher sends one payload to one endpoint. Implementations map a
// permanently-invalid endpoint to ErrEndpointGone (possibly wrapped);
// every other failure, timeouts included, is an ordinary error.
type Pusher interface {
	Send(ctx context.Context, sub models.PushSubscription, payload []byte) error
}

// Dispatcher fans one message out to an audience.
type Dispatcher struct {
	subs   SubscriptionSource
	users  PreferenceSource
	pusher Pusher
	log    *zap.Logger

	// maxInFlight bounds concurrent sends across the whole batch.
	maxInFlight int
}

// NewDispatcher wires a dispatcher. maxInFlight <= 0 selects a default of 8.
func NewDispatcher(subs SubscriptionSource, users PreferenceSource, pusher Pusher, logger *zap.Logger, maxInFlight int) *Dispatcher {
	if maxInFlight <= 0 {
		maxInFlight = 8
	}
	return &Dispatcher{
		subs:        subs,
		users:       users,
		pusher:      pusher,
		log:         logger,
		maxInFlight: maxInFlight,
	}
}

// Dispatch delivers msg to every subscription of every user in audience.
//
// Per user: preference flags are checked first and simply skip the user
// (not an error). Every subscription is attempted independently; a
// failure is recorded and the batch continues. An endpoint-gone failure
// additionally deletes that subscription. Deliveries to distinct
// endpoints run concurrently with no ordering guarantee.
func (d *Dispatcher) Dispatch(ctx context.Context, audience []primitive.ObjectID, msg Message) (Result, error) {
	batchID := uuid.NewString()
	res := Result{Audience: len(audience)}
	if len(audience) == 0 {
		return res, nil
	}

	users, err := d.users.GetByIDs(ctx, audience)
	if err != nil {
		// The one fatal case: the audience store itself is unreachable.
		return Result{}, err
	}
	byID := make(map[primitive.ObjectID]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return Result{}, err
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, d.maxInFlight)
	)

	for _, userID := range audience {
		user, known := byID[userID]
		if !known || !wantsKind(user, msg.Kind) {
			res.Skipped++
			continue
		}

		subs, err := d.subs.ListByUser(ctx, userID)
		if err != nil {
			mu.Lock()
			res.Errors = append(res.Errors, DeliveryError{UserID: userID, Detail: "subscription lookup failed: " + err.Error()})
			mu.Unlock()
			continue
		}
		if len(subs) == 0 {
			res.Skipped++
			continue
		}

		for _, sub := range subs {
			wg.Add(1)
			sem <- struct{}{}
			go func(userID primitive.ObjectID, sub models.PushSubscription) {
				defer wg.Done()
				defer func() { <-sem }()

				err := d.pusher.Send(ctx, sub, payload)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					res.Delivered++
					deliveredTotal.Inc()
				case errors.Is(err, ErrEndpointGone):
					res.Errors = append(res.Errors, DeliveryError{UserID: userID, Detail: "endpoint gone"})
					prunedTotal.Inc()
					// Prune inline so the next fan-out no longer sees it.
					if _, delErr := d.subs.Delete(ctx, sub.ID); delErr != nil {
						d.log.Warn("failed to prune gone subscription",
							zap.String("batch_id", batchID),
							zap.String("subscription_id", sub.ID.Hex()),
							zap.Error(delErr))
					}
				default:
					res.Errors = append(res.Errors, DeliveryError{UserID: userID, Detail: err.Error()})
					failedTotal.Inc()
				}
			}(userID, sub)
		}
	}

	wg.Wait()
	skippedTotal.Add(float64(res.Skipped))

	d.log.Info("notification fan-out finished",
		zap.String("batch_id", batchID),
		zap.String("kind", msg.Kind),
		zap.Int("audience", res.Audience),
		zap.Int("delivered", res.Delivered),
		zap.Int("skipped", res.Skipped),
		zap.Int("errors", len(res.Errors)))

	return res, nil
}

func wantsKind(u models.User, kind string) bool {
	switch kind {
	case KindStreakReminder:
		return u.StreakRemindersEnabled
	case KindWinnerAnnouncement:
		return u.WinnerAlertsEnabled
	default:
		return true
	}
}
