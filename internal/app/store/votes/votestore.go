// internal/app/store/votes/votestore.go
package votestore

import (
	"context"
	"time"

	"github.com/decisionjar/decisionjar/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("votes")}
}

// Cast records a member's ballot. Keyed by (session_id, user_id): a
// second cast by the same user replaces the first, never appends. The
// unique index backs the upsert against concurrent casts by one user.
func (s *Store) Cast(ctx context.Context, sessionID, userID, ideaID primitive.ObjectID) error {
	now := time.Now().UTC()
	_, err := s.c.UpdateOne(ctx,
		bson.M{"session_id": sessionID, "user_id": userID},
		bson.M{
			"$set": bson.M{
				"idea_id": ideaID,
				"cast_at": now,
			},
			"$setOnInsert": bson.M{
				"_id":        primitive.NewObjectID(),
				"session_id": sessionID,
				"user_id":    userID,
			},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

// ListBySession returns all ballots for a session.
func (s *Store) ListBySession(ctx context.Context, sessionID primitive.ObjectID) ([]models.Vote, error) {
	cursor, err := s.c.Find(ctx, bson.M{"session_id": sessionID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	votes := []models.Vote{}
	if err := cursor.All(ctx, &votes); err != nil {
		return nil, err
	}
	return votes, nil
}

// CountBySession returns the number of distinct ballots in a session.
func (s *Store) CountBySession(ctx context.Context, sessionID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"session_id": sessionID})
}

// Tally returns vote counts per candidate idea.
func (s *Store) Tally(ctx context.Context, sessionID primitive.ObjectID) (map[primitive.ObjectID]int, error) {
	votes, err := s.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	counts := make(map[primitive.ObjectID]int, len(votes))
	for _, v := range votes {
		counts[v.IdeaID]++
	}
	return counts, nil
}
