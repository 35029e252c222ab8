package memberstore_test

import (
	"errors"
	"testing"

	memberstore "github.com/decisionjar/decisionjar/internal/app/store/members"
	"github.com/decisionjar/decisionjar/internal/domain/models"
	"github.com/decisionjar/decisionjar/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Add(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := memberstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := fixtures.CreateUser(ctx, "Alice")
	jar := fixtures.CreateJar(ctx, "Date Night", models.ModeRandom)

	m, err := store.Add(ctx, jar.ID, user.ID, models.RoleMember, models.MemberStatusActive)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if m.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if m.Role != models.RoleMember || m.Status != models.MemberStatusActive {
		t.Errorf("unexpected membership: role=%q status=%q", m.Role, m.Status)
	}

	// One membership per (jar, user).
	_, err = store.Add(ctx, jar.ID, user.ID, models.RoleMember, models.MemberStatusActive)
	if !errors.Is(err, memberstore.ErrDuplicateMember) {
		t.Errorf("expected ErrDuplicateMember, got %v", err)
	}

	if _, err := store.Add(ctx, jar.ID, primitive.NewObjectID(), "owner", models.MemberStatusActive); !errors.Is(err, memberstore.ErrBadRole) {
		t.Errorf("expected ErrBadRole, got %v", err)
	}
	if _, err := store.Add(ctx, jar.ID, primitive.NewObjectID(), models.RoleMember, "banned"); !errors.Is(err, memberstore.ErrBadMemberStatus) {
		t.Errorf("expected ErrBadMemberStatus, got %v", err)
	}
}

func TestStore_SetStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := memberstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := fixtures.CreateUser(ctx, "Alice")
	jar := fixtures.CreateJar(ctx, "Date Night", models.ModeRandom)
	if _, err := store.Add(ctx, jar.ID, user.ID, models.RoleMember, models.MemberStatusPending); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if err := store.SetStatus(ctx, jar.ID, user.ID, models.MemberStatusActive); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	got, err := store.Get(ctx, jar.ID, user.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != models.MemberStatusActive {
		t.Errorf("expected status %q, got %q", models.MemberStatusActive, got.Status)
	}

	if err := store.SetStatus(ctx, jar.ID, user.ID, "banned"); !errors.Is(err, memberstore.ErrBadMemberStatus) {
		t.Errorf("expected ErrBadMemberStatus, got %v", err)
	}
	if err := store.SetStatus(ctx, jar.ID, primitive.NewObjectID(), models.MemberStatusActive); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("expected ErrNoDocuments for unknown member, got %v", err)
	}
}

func TestStore_ActiveQueries(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := memberstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	jar := fixtures.CreateJar(ctx, "Date Night", models.ModeRandom)
	admin := fixtures.CreateUser(ctx, "Admin")
	member := fixtures.CreateUser(ctx, "Member")
	pending := fixtures.CreateUser(ctx, "Pending")

	if _, err := store.Add(ctx, jar.ID, admin.ID, models.RoleAdmin, models.MemberStatusActive); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if _, err := store.Add(ctx, jar.ID, member.ID, models.RoleMember, models.MemberStatusActive); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if _, err := store.Add(ctx, jar.ID, pending.ID, models.RoleMember, models.MemberStatusPending); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	active, err := store.ListActive(ctx, jar.ID)
	if err != nil {
		t.Fatalf("ListActive failed: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("expected 2 active members, got %d", len(active))
	}

	ids, err := store.ActiveUserIDs(ctx, jar.ID)
	if err != nil {
		t.Fatalf("ActiveUserIDs failed: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 active user IDs, got %d", len(ids))
	}

	checks := []struct {
		name   string
		userID primitive.ObjectID
		admin  bool
		member bool
	}{
		{"admin", admin.ID, true, true},
		{"member", member.ID, false, true},
		{"pending member", pending.ID, false, false},
		{"stranger", primitive.NewObjectID(), false, false},
	}
	for _, c := range checks {
		isAdmin, err := store.IsActiveAdmin(ctx, jar.ID, c.userID)
		if err != nil {
			t.Fatalf("IsActiveAdmin(%s) failed: %v", c.name, err)
		}
		if isAdmin != c.admin {
			t.Errorf("IsActiveAdmin(%s): got %v, want %v", c.name, isAdmin, c.admin)
		}
		isMember, err := store.IsActiveMember(ctx, jar.ID, c.userID)
		if err != nil {
			t.Fatalf("IsActiveMember(%s) failed: %v", c.name, err)
		}
		if isMember != c.member {
			t.Errorf("IsActiveMember(%s): got %v, want %v", c.name, isMember, c.member)
		}
	}
}

func TestStore_Remove(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := memberstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := fixtures.CreateUser(ctx, "Alice")
	jar := fixtures.CreateJar(ctx, "Date Night", models.ModeRandom)
	if _, err := store.Add(ctx, jar.ID, user.ID, models.RoleMember, models.MemberStatusActive); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if err := store.Remove(ctx, jar.ID, user.ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := store.Get(ctx, jar.ID, user.ID); !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("expected ErrNoDocuments after Remove, got %v", err)
	}
}
