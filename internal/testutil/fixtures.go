package testutil

import (
	"context"
	"fmt"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	ideastore "github.com/decisionjar/decisionjar/internal/app/store/ideas"
	jarstore "github.com/decisionjar/decisionjar/internal/app/store/jars"
	memberstore "github.com/decisionjar/decisionjar/internal/app/store/members"
	substore "github.com/decisionjar/decisionjar/internal/app/store/subscriptions"
	userstore "github.com/decisionjar/decisionjar/internal/app/store/users"
	"github.com/decisionjar/decisionjar/internal/domain/models"
)

// Fixtures creates test data through the real stores, so fixture rows
// satisfy the same invariants production writes do.
type Fixtures struct {
	t       *testing.T
	db      *mongo.Database
	seq     int
	Jars    *jarstore.Store
	Ideas   *ideastore.Store
	Members *memberstore.Store

	users *userstore.Store
	subs  *substore.Store
}

func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{
		t:       t,
		db:      db,
		Jars:    jarstore.New(db),
		Ideas:   ideastore.New(db),
		users:   userstore.New(db),
		Members: memberstore.New(db),
		subs:    substore.New(db),
	}
}

func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

func (f *Fixtures) next() int {
	f.seq++
	return f.seq
}

// CreateUser inserts a user with both notification kinds enabled.
func (f *Fixtures) CreateUser(ctx context.Context, fullName string) models.User {
	f.t.Helper()
	u, err := f.users.Create(ctx, models.User{
		FullName:               fullName,
		Email:                  fmt.Sprintf("user%d@test.com", f.next()),
		StreakRemindersEnabled: true,
		WinnerAlertsEnabled:    true,
	})
	if err != nil {
		f.t.Fatalf("create user: %v", err)
	}
	return u
}

// CreateJar inserts a jar in the given selection mode.
func (f *Fixtures) CreateJar(ctx context.Context, name, mode string) models.Jar {
	f.t.Helper()
	j, err := f.Jars.Create(ctx, models.Jar{Name: name, SelectionMode: mode})
	if err != nil {
		f.t.Fatalf("create jar: %v", err)
	}
	return j
}

// AddMember attaches a user to a jar as an active member.
func (f *Fixtures) AddMember(ctx context.Context, jarID, userID primitive.ObjectID, role string) models.JarMember {
	f.t.Helper()
	m, err := f.Members.Add(ctx, jarID, userID, role, models.MemberStatusActive)
	if err != nil {
		f.t.Fatalf("add member: %v", err)
	}
	return m
}

// CreateIdea inserts an approved, unselected idea.
func (f *Fixtures) CreateIdea(ctx context.Context, jarID, createdBy primitive.ObjectID, title string) models.Idea {
	f.t.Helper()
	return f.CreateIdeaWith(ctx, models.Idea{
		JarID:     jarID,
		CreatedBy: createdBy,
		Title:     title,
		Status:    models.IdeaStatusApproved,
	})
}

// CreateIdeaWith inserts an idea exactly as given (after store defaults).
func (f *Fixtures) CreateIdeaWith(ctx context.Context, idea models.Idea) models.Idea {
	f.t.Helper()
	created, err := f.Ideas.Create(ctx, idea)
	if err != nil {
		f.t.Fatalf("create idea: %v", err)
	}
	return created
}

// CreateSubscription registers a push endpoint for the user.
func (f *Fixtures) CreateSubscription(ctx context.Context, userID primitive.ObjectID) models.PushSubscription {
	f.t.Helper()
	sub, err := f.subs.Register(ctx, userID,
		fmt.Sprintf("https://push.test/endpoint/%d", f.next()),
		"p256dh-key", "auth-secret")
	if err != nil {
		f.t.Fatalf("register subscription: %v", err)
	}
	return sub
}
