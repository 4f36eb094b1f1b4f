package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/tidemarkhq/ripple/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ReactionRepository defines the interface for engagement record operations
type ReactionRepository interface {
	Get(ctx context.Context, userID, targetID primitive.ObjectID) (*models.Reaction, error)
	Upsert(ctx context.Context, reaction *models.Reaction) error
	Delete(ctx context.Context, userID, targetID primitive.ObjectID) (bool, error)
	TypesForTargets(ctx context.Context, userID primitive.ObjectID, targetIDs []primitive.ObjectID) (map[primitive.ObjectID]string, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]models.Reaction, error)
	DeleteByIDs(ctx context.Context, ids []primitive.ObjectID) error
}

// MongoReactionRepository implements ReactionRepository for MongoDB
type MongoReactionRepository struct {
	collection *mongo.Collection
}

// NewMongoReactionRepository creates a new MongoReactionRepository
func NewMongoReactionRepository(db *mongo.Database) *MongoReactionRepository {
	return &MongoReactionRepository{collection: db.Collection("reactions")}
}

// EnsureIndexes creates the unique (user_id, target_id) index: a user holds at
// most one reaction per target, switching type overwrites in place.
func (r *MongoReactionRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "target_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "target_id", Value: 1}, {Key: "type", Value: 1}}},
	})
	return err
}

// Get retrieves the user's reaction against the target, or nil when none exists
func (r *MongoReactionRepository) Get(ctx context.Context, userID, targetID primitive.ObjectID) (*models.Reaction, error) {
	var reaction models.Reaction
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID, "target_id": targetID}).Decode(&reaction)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &reaction, nil
}

// Upsert writes the reaction keyed on (user_id, target_id), overwriting a
// previous reaction of a different type in place.
func (r *MongoReactionRepository) Upsert(ctx context.Context, reaction *models.Reaction) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"user_id": reaction.UserID, "target_id": reaction.TargetID},
		bson.M{
			"$set": bson.M{
				"type":        reaction.Type,
				"target_type": reaction.TargetType,
			},
			"$setOnInsert": bson.M{"created_at": time.Now()},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

// Delete removes the user's reaction against the target, reporting whether a
// record existed. Un-reacting something never reacted to is not an error.
func (r *MongoReactionRepository) Delete(ctx context.Context, userID, targetID primitive.ObjectID) (bool, error) {
	res, err := r.collection.DeleteOne(ctx, bson.M{"user_id": userID, "target_id": targetID})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

// TypesForTargets returns the user's reaction type per target id, for
// enriching a page of posts or comments in one query.
func (r *MongoReactionRepository) TypesForTargets(ctx context.Context, userID primitive.ObjectID, targetIDs []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	result := make(map[primitive.ObjectID]string)
	if len(targetIDs) == 0 {
		return result, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID, "target_id": bson.M{"$in": targetIDs}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var reactions []models.Reaction
	if err = cursor.All(ctx, &reactions); err != nil {
		return nil, err
	}
	for _, re := range reactions {
		result[re.TargetID] = re.Type
	}
	return result, nil
}

// ListByUser returns up to limit of the user's reactions, for cleanup batches
func (r *MongoReactionRepository) ListByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]models.Reaction, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, options.Find().SetLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var reactions []models.Reaction
	if err = cursor.All(ctx, &reactions); err != nil {
		return nil, err
	}
	return reactions, nil
}

// DeleteByIDs removes the given reaction records; missing ids are ignored
func (r *MongoReactionRepository) DeleteByIDs(ctx context.Context, ids []primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	return err
}
