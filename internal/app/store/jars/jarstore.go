// internal/app/store/jars/jarstore.go
package jarstore

import (
	"context"
	"errors"
	"time"

	"github.com/decisionjar/decisionjar/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrDuplicateJarName = errors.New("a jar with this name already exists")
	ErrBadSelectionMode = errors.New(`selection mode must be "random", "admin_pick", "vote", or "allocation"`)
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("jars")}
}

func validMode(mode string) bool {
	switch mode {
	case models.ModeRandom, models.ModeAdminPick, models.ModeVote, models.ModeAllocation:
		return true
	}
	return false
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Jar, error) {
	var j models.Jar
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&j); err != nil {
		return models.Jar{}, err
	}
	return j, nil
}

func (s *Store) Create(ctx context.Context, j models.Jar) (models.Jar, error) {
	if j.SelectionMode == "" {
		j.SelectionMode = models.ModeRandom
	}
	if !validMode(j.SelectionMode) {
		return models.Jar{}, ErrBadSelectionMode
	}
	now := time.Now().UTC()
	j.ID = primitive.NewObjectID()
	j.NameCI = text.Fold(j.Name)
	j.CreatedAt = now
	j.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, j); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Jar{}, ErrDuplicateJarName
		}
		return models.Jar{}, err
	}
	return j, nil
}

// SetSelectionMode changes the jar's strategy for future rounds.
// In-flight rounds are unaffected: strategies read the mode once when the
// round starts, and an active vote session keeps its frozen candidates.
func (s *Store) SetSelectionMode(ctx context.Context, id primitive.ObjectID, mode string, candidatesCount int) error {
	if !validMode(mode) {
		return ErrBadSelectionMode
	}
	if candidatesCount < 0 {
		candidatesCount = 0
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"selection_mode":        mode,
		"vote_candidates_count": candidatesCount,
		"updated_at":            time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes a jar by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
