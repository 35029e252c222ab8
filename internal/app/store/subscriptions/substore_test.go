package substore_test

import (
	"testing"

	substore "github.com/decisionjar/decisionjar/internal/app/store/subscriptions"
	"github.com/decisionjar/decisionjar/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Register_RefreshesOnReRegister(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := substore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	endpoint := "https://push.test/endpoint/1"

	first, err := store.Register(ctx, userID, endpoint, "key-a", "auth-a")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	// Browsers resend the subscription on activation; keys refresh in
	// place rather than producing a second row.
	second, err := store.Register(ctx, userID, endpoint, "key-b", "auth-b")
	if err != nil {
		t.Fatalf("re-Register failed: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("expected same subscription row, got %v and %v", first.ID, second.ID)
	}
	if second.P256dh != "key-b" || second.Auth != "auth-b" {
		t.Errorf("expected refreshed keys, got p256dh=%q auth=%q", second.P256dh, second.Auth)
	}

	count, err := store.CountByUser(ctx, userID)
	if err != nil {
		t.Fatalf("CountByUser failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 subscription, got %d", count)
	}
}

func TestStore_ListByUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := substore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	other := primitive.NewObjectID()

	if _, err := store.Register(ctx, userID, "https://push.test/a", "k", "a"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := store.Register(ctx, userID, "https://push.test/b", "k", "a"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := store.Register(ctx, other, "https://push.test/c", "k", "a"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	subs, err := store.ListByUser(ctx, userID)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("expected 2 subscriptions, got %d", len(subs))
	}
}

func TestStore_DeleteByEndpoint(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := substore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	if _, err := store.Register(ctx, userID, "https://push.test/a", "k", "a"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	deleted, err := store.DeleteByEndpoint(ctx, userID, "https://push.test/a")
	if err != nil {
		t.Fatalf("DeleteByEndpoint failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deletion, got %d", deleted)
	}

	// Unregistering an unknown endpoint is a no-op, not an error.
	deleted, err = store.DeleteByEndpoint(ctx, userID, "https://push.test/a")
	if err != nil {
		t.Fatalf("DeleteByEndpoint failed: %v", err)
	}
	if deleted != 0 {
		t.Errorf("expected 0 deletions, got %d", deleted)
	}
}
