package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/tidemarkhq/ripple/backend/internal/apperr"
	"github.com/tidemarkhq/ripple/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RelationshipRepository defines the interface for follow/block edge operations
type RelationshipRepository interface {
	Get(ctx context.Context, followerID, followingID primitive.ObjectID) (*models.Relationship, error)
	Create(ctx context.Context, rel *models.Relationship) error
	UpdateStatus(ctx context.Context, followerID, followingID primitive.ObjectID, from, to string) error
	Delete(ctx context.Context, followerID, followingID primitive.ObjectID, statuses ...string) error
	UpsertBlocked(ctx context.Context, blockerID, blockeeID primitive.ObjectID) (string, error)
	FollowerIDs(ctx context.Context, userID primitive.ObjectID, status string) ([]primitive.ObjectID, error)
	FollowingIDs(ctx context.Context, userID primitive.ObjectID, status string) ([]primitive.ObjectID, error)
	IsAccepted(ctx context.Context, followerID, followingID primitive.ObjectID) (bool, error)
	BlockedPeers(ctx context.Context, userID primitive.ObjectID, candidates []primitive.ObjectID) (map[primitive.ObjectID]bool, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]models.Relationship, error)
	DeleteByIDs(ctx context.Context, ids []primitive.ObjectID) error
}

// MongoRelationshipRepository implements RelationshipRepository for MongoDB
type MongoRelationshipRepository struct {
	collection *mongo.Collection
}

// NewMongoRelationshipRepository creates a new MongoRelationshipRepository
func NewMongoRelationshipRepository(db *mongo.Database) *MongoRelationshipRepository {
	return &MongoRelationshipRepository{collection: db.Collection("relationships")}
}

// EnsureIndexes creates the unique (follower_id, following_id) index that
// keeps at most one relationship record per ordered pair, plus the lookup
// indexes used by list queries.
func (r *MongoRelationshipRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "follower_id", Value: 1}, {Key: "following_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "following_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "follower_id", Value: 1}, {Key: "status", Value: 1}}},
	})
	return err
}

// Get retrieves the edge followerID -> followingID, or nil when none exists
func (r *MongoRelationshipRepository) Get(ctx context.Context, followerID, followingID primitive.ObjectID) (*models.Relationship, error) {
	var rel models.Relationship
	err := r.collection.FindOne(ctx, bson.M{"follower_id": followerID, "following_id": followingID}).Decode(&rel)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &rel, nil
}

// Create inserts a new edge. The unique index turns a concurrent duplicate
// into a Conflict rather than a second record.
func (r *MongoRelationshipRepository) Create(ctx context.Context, rel *models.Relationship) error {
	rel.ID = primitive.NewObjectID()
	rel.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, rel)
	if mongo.IsDuplicateKeyError(err) {
		return apperr.Conflict("relationship already exists")
	}
	return err
}

// UpdateStatus transitions the edge from one status to another. It fails with
// NotFound when no edge currently holds the expected status, so the caller
// never double-applies a transition.
func (r *MongoRelationshipRepository) UpdateStatus(ctx context.Context, followerID, followingID primitive.ObjectID, from, to string) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"follower_id": followerID, "following_id": followingID, "status": from},
		bson.M{"$set": bson.M{"status": to}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("no matching relationship to update")
	}
	return nil
}

// Delete removes the edge if it currently holds one of the given statuses
// (any status when none are given). Fails with NotFound when nothing matched.
func (r *MongoRelationshipRepository) Delete(ctx context.Context, followerID, followingID primitive.ObjectID, statuses ...string) error {
	filter := bson.M{"follower_id": followerID, "following_id": followingID}
	if len(statuses) > 0 {
		filter["status"] = bson.M{"$in": statuses}
	}
	res, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("relationship not found")
	}
	return nil
}

// UpsertBlocked forces the blocker -> blockee edge to blocked, creating it if
// absent, and returns the status the edge held before the write ("" when the
// edge did not exist).
func (r *MongoRelationshipRepository) UpsertBlocked(ctx context.Context, blockerID, blockeeID primitive.ObjectID) (string, error) {
	var before models.Relationship
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"follower_id": blockerID, "following_id": blockeeID},
		bson.M{
			"$set":         bson.M{"status": models.RelationBlocked},
			"$setOnInsert": bson.M{"created_at": time.Now()},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.Before),
	).Decode(&before)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", nil
		}
		return "", err
	}
	return before.Status, nil
}

// FollowerIDs returns the ids of users holding an edge of the given status
// toward userID
func (r *MongoRelationshipRepository) FollowerIDs(ctx context.Context, userID primitive.ObjectID, status string) ([]primitive.ObjectID, error) {
	return r.edgeIDs(ctx, bson.M{"following_id": userID, "status": status}, "follower_id")
}

// FollowingIDs returns the ids of users userID holds an edge of the given
// status toward
func (r *MongoRelationshipRepository) FollowingIDs(ctx context.Context, userID primitive.ObjectID, status string) ([]primitive.ObjectID, error) {
	return r.edgeIDs(ctx, bson.M{"follower_id": userID, "status": status}, "following_id")
}

func (r *MongoRelationshipRepository) edgeIDs(ctx context.Context, filter bson.M, field string) ([]primitive.ObjectID, error) {
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetProjection(bson.M{field: 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var edges []models.Relationship
	if err = cursor.All(ctx, &edges); err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, len(edges))
	for i, e := range edges {
		if field == "follower_id" {
			ids[i] = e.FollowerID
		} else {
			ids[i] = e.FollowingID
		}
	}
	return ids, nil
}

// IsAccepted reports whether followerID holds an accepted edge toward
// followingID
func (r *MongoRelationshipRepository) IsAccepted(ctx context.Context, followerID, followingID primitive.ObjectID) (bool, error) {
	rel, err := r.Get(ctx, followerID, followingID)
	if err != nil {
		return false, err
	}
	return rel != nil && rel.Status == models.RelationAccepted, nil
}

// BlockedPeers returns the subset of candidates with a blocked edge between
// them and userID in either direction, as a membership set. One query serves
// a whole list page.
func (r *MongoRelationshipRepository) BlockedPeers(ctx context.Context, userID primitive.ObjectID, candidates []primitive.ObjectID) (map[primitive.ObjectID]bool, error) {
	blocked := make(map[primitive.ObjectID]bool)
	if len(candidates) == 0 {
		return blocked, nil
	}

	filter := bson.M{
		"status": models.RelationBlocked,
		"$or": bson.A{
			bson.M{"follower_id": userID, "following_id": bson.M{"$in": candidates}},
			bson.M{"follower_id": bson.M{"$in": candidates}, "following_id": userID},
		},
	}
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var edges []models.Relationship
	if err = cursor.All(ctx, &edges); err != nil {
		return nil, err
	}
	for _, e := range edges {
		if e.FollowerID == userID {
			blocked[e.FollowingID] = true
		} else {
			blocked[e.FollowerID] = true
		}
	}
	return blocked, nil
}

// ListByUser returns up to limit edges touching userID in either direction,
// used by the account cleanup job to work in bounded batches.
func (r *MongoRelationshipRepository) ListByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]models.Relationship, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"follower_id": userID},
		bson.M{"following_id": userID},
	}}
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var edges []models.Relationship
	if err = cursor.All(ctx, &edges); err != nil {
		return nil, err
	}
	return edges, nil
}

// DeleteByIDs removes the given edges. Missing ids are not an error: the
// cleanup job re-runs after partial failure and must be idempotent.
func (r *MongoRelationshipRepository) DeleteByIDs(ctx context.Context, ids []primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	return err
}
