package notify_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/decisionjar/decisionjar/internal/app/system/notify"
	"github.com/decisionjar/decisionjar/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeSubs struct {
	mu      sync.Mutex
	byUser  map[primitive.ObjectID][]models.PushSubscription
	deleted []primitive.ObjectID
	listErr error
}

func (f *fakeSubs) ListByUser(_ context.Context, userID primitive.ObjectID) ([]models.PushSubscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.byUser[userID], nil
}

func (f *fakeSubs) Delete(_ context.Context, id primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return 1, nil
}

type fakeUsers struct {
	users []models.User
	err   error
}

func (f *fakeUsers) GetByIDs(_ context.Context, _ []primitive.ObjectID) ([]models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.users, nil
}

// fakePusher fails any endpoint listed in failWith and succeeds otherwise.
type fakePusher struct {
	mu       sync.Mutex
	sent     []string
	failWith map[string]error
}

func (f *fakePusher) Send(_ context.Context, sub models.PushSubscription, _ []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failWith[sub.Endpoint]; ok {
		return err
	}
	f.sent = append(f.sent, sub.Endpoint)
	return nil
}

func subFor(userID primitive.ObjectID, endpoint string) models.PushSubscription {
	return models.PushSubscription{
		ID:       primitive.NewObjectID(),
		UserID:   userID,
		Endpoint: endpoint,
		P256dh:   "key",
		Auth:     "auth",
	}
}

func enabledUser(id primitive.ObjectID) models.User {
	return models.User{ID: id, StreakRemindersEnabled: true, WinnerAlertsEnabled: true}
}

func TestDispatch_PartialFailureIsolation(t *testing.T) {
	// Five recipients, one of them behind an endpoint that is permanently
	// gone. The other four deliveries must land, the bad subscription must
	// be pruned, and Dispatch itself must not error.
	audience := make([]primitive.ObjectID, 5)
	users := make([]models.User, 5)
	subs := &fakeSubs{byUser: map[primitive.ObjectID][]models.PushSubscription{}}
	for i := range audience {
		audience[i] = primitive.NewObjectID()
		users[i] = enabledUser(audience[i])
		subs.byUser[audience[i]] = []models.PushSubscription{
			subFor(audience[i], fmt.Sprintf("https://push.test/%d", i)),
		}
	}
	goneSub := subs.byUser[audience[2]][0]

	pusher := &fakePusher{failWith: map[string]error{
		goneSub.Endpoint: fmt.Errorf("push: %w", notify.ErrEndpointGone),
	}}

	d := notify.NewDispatcher(subs, &fakeUsers{users: users}, pusher, zap.NewNop(), 4)
	res, err := d.Dispatch(context.Background(), audience, notify.Message{
		Kind:  notify.KindWinnerAnnouncement,
		Title: "Winner picked",
	})
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	if res.Audience != 5 {
		t.Errorf("Audience: got %d, want 5", res.Audience)
	}
	if res.Delivered != 4 {
		t.Errorf("Delivered: got %d, want 4", res.Delivered)
	}
	if len(res.Errors) != 1 {
		t.Fatalf("Errors: got %d, want 1", len(res.Errors))
	}
	if res.Errors[0].UserID != audience[2] {
		t.Errorf("error attributed to %v, want %v", res.Errors[0].UserID, audience[2])
	}
	if len(subs.deleted) != 1 || subs.deleted[0] != goneSub.ID {
		t.Errorf("expected gone subscription %v pruned, got %v", goneSub.ID, subs.deleted)
	}
}

func TestDispatch_TransientFailureKeepsSubscription(t *testing.T) {
	userID := primitive.NewObjectID()
	subs := &fakeSubs{byUser: map[primitive.ObjectID][]models.PushSubscription{
		userID: {subFor(userID, "https://push.test/slow")},
	}}
	pusher := &fakePusher{failWith: map[string]error{
		"https://push.test/slow": errors.New("context deadline exceeded"),
	}}

	d := notify.NewDispatcher(subs, &fakeUsers{users: []models.User{enabledUser(userID)}}, pusher, zap.NewNop(), 0)
	res, err := d.Dispatch(context.Background(), []primitive.ObjectID{userID}, notify.Message{
		Kind: notify.KindWinnerAnnouncement,
	})
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if len(res.Errors) != 1 {
		t.Fatalf("Errors: got %d, want 1", len(res.Errors))
	}
	// Only gone endpoints are pruned; a timeout keeps the subscription.
	if len(subs.deleted) != 0 {
		t.Errorf("transient failure pruned subscription: %v", subs.deleted)
	}
}

func TestDispatch_PreferenceSkip(t *testing.T) {
	optedOut := primitive.NewObjectID()
	optedIn := primitive.NewObjectID()
	subs := &fakeSubs{byUser: map[primitive.ObjectID][]models.PushSubscription{
		optedOut: {subFor(optedOut, "https://push.test/out")},
		optedIn:  {subFor(optedIn, "https://push.test/in")},
	}}
	users := &fakeUsers{users: []models.User{
		{ID: optedOut, StreakRemindersEnabled: false, WinnerAlertsEnabled: true},
		{ID: optedIn, StreakRemindersEnabled: true, WinnerAlertsEnabled: true},
	}}
	pusher := &fakePusher{}

	d := notify.NewDispatcher(subs, users, pusher, zap.NewNop(), 0)
	res, err := d.Dispatch(context.Background(), []primitive.ObjectID{optedOut, optedIn}, notify.Message{
		Kind: notify.KindStreakReminder,
	})
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if res.Skipped != 1 {
		t.Errorf("Skipped: got %d, want 1", res.Skipped)
	}
	if res.Delivered != 1 {
		t.Errorf("Delivered: got %d, want 1", res.Delivered)
	}
	if len(pusher.sent) != 1 || pusher.sent[0] != "https://push.test/in" {
		t.Errorf("unexpected deliveries: %v", pusher.sent)
	}
}

func TestDispatch_MultipleEndpointsPerUser(t *testing.T) {
	userID := primitive.NewObjectID()
	subs := &fakeSubs{byUser: map[primitive.ObjectID][]models.PushSubscription{
		userID: {
			subFor(userID, "https://push.test/phone"),
			subFor(userID, "https://push.test/laptop"),
		},
	}}
	pusher := &fakePusher{}

	d := notify.NewDispatcher(subs, &fakeUsers{users: []models.User{enabledUser(userID)}}, pusher, zap.NewNop(), 0)
	res, err := d.Dispatch(context.Background(), []primitive.ObjectID{userID}, notify.Message{
		Kind: notify.KindWinnerAnnouncement,
	})
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if res.Delivered != 2 {
		t.Errorf("Delivered: got %d, want 2", res.Delivered)
	}
}

func TestDispatch_NoSubscriptionsSkips(t *testing.T) {
	userID := primitive.NewObjectID()
	subs := &fakeSubs{byUser: map[primitive.ObjectID][]models.PushSubscription{}}
	pusher := &fakePusher{}

	d := notify.NewDispatcher(subs, &fakeUsers{users: []models.User{enabledUser(userID)}}, pusher, zap.NewNop(), 0)
	res, err := d.Dispatch(context.Background(), []primitive.ObjectID{userID}, notify.Message{
		Kind: notify.KindWinnerAnnouncement,
	})
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if res.Skipped != 1 || res.Delivered != 0 {
		t.Errorf("got skipped=%d delivered=%d, want 1/0", res.Skipped, res.Delivered)
	}
}

func TestDispatch_AudienceStoreFailureIsFatal(t *testing.T) {
	d := notify.NewDispatcher(
		&fakeSubs{},
		&fakeUsers{err: errors.New("connection reset")},
		&fakePusher{},
		zap.NewNop(), 0)

	_, err := d.Dispatch(context.Background(), []primitive.ObjectID{primitive.NewObjectID()}, notify.Message{
		Kind: notify.KindWinnerAnnouncement,
	})
	if err == nil {
		t.Fatal("expected error when the audience store is unreachable")
	}
}

func TestDispatch_EmptyAudience(t *testing.T) {
	d := notify.NewDispatcher(&fakeSubs{}, &fakeUsers{}, &fakePusher{}, zap.NewNop(), 0)
	res, err := d.Dispatch(context.Background(), nil, notify.Message{Kind: notify.KindWinnerAnnouncement})
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if res.Audience != 0 || res.Delivered != 0 {
		t.Errorf("expected empty result, got %+v", res)
	}
}
