package userstore_test

import (
	"errors"
	"testing"
	"time"

	userstore "github.com/decisionjar/decisionjar/internal/app/store/users"
	"github.com/decisionjar/decisionjar/internal/domain/models"
	"github.com/decisionjar/decisionjar/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{
		FullName: "Alice Example",
		Email:    "alice@test.com",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.FullNameCI == "" {
		t.Error("expected FullNameCI to be set")
	}

	_, err = store.Create(ctx, models.User{FullName: "Other Alice", Email: "alice@test.com"})
	if !errors.Is(err, userstore.ErrDuplicateEmail) {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestStore_Create_KeepsProvidedID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	id := primitive.NewObjectID()
	created, err := store.Create(ctx, models.User{
		ID:       id,
		FullName: "Alice Example",
		Email:    "alice@test.com",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID != id {
		t.Errorf("expected provided ID to be kept, got %v", created.ID)
	}
}

func TestStore_TouchActivity(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := fixtures.CreateUser(ctx, "Alice")
	if user.LastActivityAt != nil {
		t.Fatal("expected new user to have no activity")
	}

	if err := store.TouchActivity(ctx, user.ID); err != nil {
		t.Fatalf("TouchActivity failed: %v", err)
	}
	got, err := store.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.LastActivityAt == nil {
		t.Fatal("expected LastActivityAt to be set")
	}

	if err := store.TouchActivity(ctx, primitive.NewObjectID()); err == nil {
		t.Error("expected error for unknown user")
	}
}

func TestStore_SetNotificationPrefs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := fixtures.CreateUser(ctx, "Alice")

	if err := store.SetNotificationPrefs(ctx, user.ID, false, true); err != nil {
		t.Fatalf("SetNotificationPrefs failed: %v", err)
	}
	got, err := store.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.StreakRemindersEnabled {
		t.Error("expected streak reminders disabled")
	}
	if !got.WinnerAlertsEnabled {
		t.Error("expected winner alerts still enabled")
	}
}

func TestStore_StaleStreakUserIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	stale := fixtures.CreateUser(ctx, "Stale")
	fresh := fixtures.CreateUser(ctx, "Fresh")
	optedOut := fixtures.CreateUser(ctx, "Opted Out")
	// Never-active users have no streak to protect and are excluded.
	fixtures.CreateUser(ctx, "Never Active")

	old := time.Now().UTC().Add(-48 * time.Hour)
	setActivity := func(id primitive.ObjectID, at time.Time) {
		if _, err := db.Collection("users").UpdateByID(ctx, id,
			bson.M{"$set": bson.M{"last_activity_at": at}}); err != nil {
			t.Fatalf("set last_activity_at: %v", err)
		}
	}
	setActivity(stale.ID, old)
	setActivity(optedOut.ID, old)
	if err := store.TouchActivity(ctx, fresh.ID); err != nil {
		t.Fatalf("TouchActivity failed: %v", err)
	}
	if err := store.SetNotificationPrefs(ctx, optedOut.ID, false, true); err != nil {
		t.Fatalf("SetNotificationPrefs failed: %v", err)
	}

	ids, err := store.StaleStreakUserIDs(ctx, 20*time.Hour)
	if err != nil {
		t.Fatalf("StaleStreakUserIDs failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != stale.ID {
		t.Fatalf("expected only the stale, opted-in user, got %v", ids)
	}
}
