// internal/app/store/members/memberstore.go
package memberstore

import (
	"context"
	"errors"
	"time"

	"github.com/decisionjar/decisionjar/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrBadRole         = errors.New(`role must be "admin" or "member"`)
	ErrBadMemberStatus = errors.New(`status must be "pending", "waitlisted", or "active"`)

	ErrDuplicateMember = errors.New("user is already a member of this jar")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("jar_members")}
}

// Add creates a membership after validating role and status.
func (s *Store) Add(ctx context.Context, jarID, userID primitive.ObjectID, role, status string) (models.JarMember, error) {
	if role != models.RoleAdmin && role != models.RoleMember {
		return models.JarMember{}, ErrBadRole
	}
	if status == "" {
		status = models.MemberStatusPending
	}
	switch status {
	case models.MemberStatusPending, models.MemberStatusWaitlisted, models.MemberStatusActive:
	default:
		return models.JarMember{}, ErrBadMemberStatus
	}

	m := models.JarMember{
		ID:        primitive.NewObjectID(),
		JarID:     jarID,
		UserID:    userID,
		Role:      role,
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		if wafflemongo.IsDup(err) {
			return models.JarMember{}, ErrDuplicateMember
		}
		return models.JarMember{}, err
	}
	return m, nil
}

// Get returns the membership for (jarID, userID), or mongo.ErrNoDocuments.
func (s *Store) Get(ctx context.Context, jarID, userID primitive.ObjectID) (models.JarMember, error) {
	var m models.JarMember
	if err := s.c.FindOne(ctx, bson.M{"jar_id": jarID, "user_id": userID}).Decode(&m); err != nil {
		return models.JarMember{}, err
	}
	return m, nil
}

// SetStatus moves a member through pending/waitlisted/active.
func (s *Store) SetStatus(ctx context.Context, jarID, userID primitive.ObjectID, status string) error {
	switch status {
	case models.MemberStatusPending, models.MemberStatusWaitlisted, models.MemberStatusActive:
	default:
		return ErrBadMemberStatus
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"jar_id": jarID, "user_id": userID},
		bson.M{"$set": bson.M{"status": status}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Remove deletes the membership document for (jarID, userID).
func (s *Store) Remove(ctx context.Context, jarID, userID primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"jar_id": jarID, "user_id": userID})
	return err
}

// ListActive returns the jar's active members, the only ones that vote,
// count toward quorum, or receive winner announcements.
func (s *Store) ListActive(ctx context.Context, jarID primitive.ObjectID) ([]models.JarMember, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := s.c.Find(ctx, bson.M{
		"jar_id": jarID,
		"status": models.MemberStatusActive,
	}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	members := []models.JarMember{}
	if err := cursor.All(ctx, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// ActiveUserIDs returns just the user ids of a jar's active members,
// in membership order. Used as the audience for winner announcements.
func (s *Store) ActiveUserIDs(ctx context.Context, jarID primitive.ObjectID) ([]primitive.ObjectID, error) {
	members, err := s.ListActive(ctx, jarID)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	return ids, nil
}

// IsActiveAdmin reports whether userID is an active admin of the jar.
func (s *Store) IsActiveAdmin(ctx context.Context, jarID, userID primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{
		"jar_id":  jarID,
		"user_id": userID,
		"role":    models.RoleAdmin,
		"status":  models.MemberStatusActive,
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// IsActiveMember reports whether userID is an active member (any role).
func (s *Store) IsActiveMember(ctx context.Context, jarID, userID primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{
		"jar_id":  jarID,
		"user_id": userID,
		"status":  models.MemberStatusActive,
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
