// internal/app/store/subscriptions/substore.go
package substore

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
	return &Store{c: db.Collection("push_subscriptions")}
}

// Register stores a delivery endpoint for a user. Re-registering the
// same endpoint refreshes its keys instead of erroring; browsers resend
// the subscription on every service-worker activation.
func (s *Store) Register(ctx context.Context, userID primitive.ObjectID, endpoint, p256dh, auth string) (models.PushSubscription, error) {
	now := time.Now().UTC()
	_, err := s.c.UpdateOne(ctx,
		bson.M{"user_id": userID, "endpoint": endpoint},
		bson.M{
			"$set": bson.M{
				"p256dh": p256dh,
				"auth":   auth,
			},
			"$setOnInsert": bson.M{
				"_id":        primitive.NewObjectID(),
				"user_id":    userID,
				"endpoint":   endpoint,
				"created_at": now,
			},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return models.PushSubscription{}, err
	}

	var sub models.PushSubscription
	if err := s.c.FindOne(ctx, bson.M{"user_id": userID, "endpoint": endpoint}).Decode(&sub); err != nil {
		return models.PushSubscription{}, err
	}
	return sub, nil
}

// ListByUser returns every endpoint registered for a user.
func (s *Store) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.PushSubscription, error) {
	cursor, err := s.c.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	subs := []models.PushSubscription{}
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

// Delete removes one subscription by id. The dispatcher calls this when
// an endpoint reports itself permanently gone.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByEndpoint removes a user's subscription by endpoint URL, used
// when a client explicitly unsubscribes.
func (s *Store) DeleteByEndpoint(ctx context.Context, userID primitive.ObjectID, endpoint string) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"user_id": userID, "endpoint": endpoint})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// CountByUser returns the number of endpoints a user has registered.
func (s *Store) CountByUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"user_id": userID})
}
