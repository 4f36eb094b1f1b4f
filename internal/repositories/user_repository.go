package repositories

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/tidemarkhq/ripple/backend/internal/apperr"
	"github.com/tidemarkhq/ripple/backend/internal/models"
	"github.com/tidemarkhq/ripple/backend/internal/pagination"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, fields bson.M) error
	AdjustFollowCounts(ctx context.Context, id primitive.ObjectID, followersDelta, followingDelta int64) error
	IncrementPostsCount(ctx context.Context, id primitive.ObjectID, delta int64) error
	UsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	ListPage(ctx context.Context, ids []primitive.ObjectID, cursor *pagination.Cursor, limit int) ([]models.User, error)
	SearchUsers(ctx context.Context, query string, limit int64) ([]models.User, error)
	MarkDeleted(ctx context.Context, id primitive.ObjectID) error
}

// MongoUserRepository implements UserRepository for MongoDB
type MongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a new MongoUserRepository
func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{collection: db.Collection("users")}
}

// EnsureIndexes creates the uniqueness and list-ordering indexes
func (r *MongoUserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "firebase_uid", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "fullname", Value: 1}, {Key: "_id", Value: 1}}},
	})
	return err
}

// CreateUser creates a new user document
func (r *MongoUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	if user.Visibility == "" {
		user.Visibility = models.VisibilityPublic
	}
	_, err := r.collection.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return apperr.Conflict("user already exists")
	}
	return err
}

// GetUserByID retrieves a user by document id
func (r *MongoUserRepository) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByFirebaseUID retrieves a user by Firebase UID
func (r *MongoUserRepository) GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"firebase_uid": firebaseUID}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, err
	}
	return &user, nil
}

// UpdateProfile applies a partial profile update
func (r *MongoUserRepository) UpdateProfile(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	fields["updated_at"] = time.Now()
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("user not found")
	}
	return nil
}

// AdjustFollowCounts applies signed deltas to the cached follower/following
// counters as one atomic increment. Counter corrections for missing users
// (mid-cleanup) are silently skipped.
func (r *MongoUserRepository) AdjustFollowCounts(ctx context.Context, id primitive.ObjectID, followersDelta, followingDelta int64) error {
	inc := bson.M{}
	if followersDelta != 0 {
		inc["counts.followers"] = followersDelta
	}
	if followingDelta != 0 {
		inc["counts.following"] = followingDelta
	}
	if len(inc) == 0 {
		return nil
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": inc})
	return err
}

// IncrementPostsCount adjusts the cached post counter
func (r *MongoUserRepository) IncrementPostsCount(ctx context.Context, id primitive.ObjectID, delta int64) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"counts.posts": delta}})
	return err
}

// UsersByIDs fetches the given users in one query
func (r *MongoUserRepository) UsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ListPage returns one page of the given users ordered ascending by
// (fullname, _id), the user-list flavor of the cursor contract.
func (r *MongoUserRepository) ListPage(ctx context.Context, ids []primitive.ObjectID, cursor *pagination.Cursor, limit int) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	filter := bson.M{"_id": bson.M{"$in": ids}, "deleted_at": bson.M{"$exists": false}}
	if cursor != nil {
		cursorID, err := cursor.ObjectID()
		if err != nil {
			return nil, apperr.InvalidInput("malformed cursor")
		}
		filter = bson.M{"$and": bson.A{
			filter,
			pagination.MongoBoundary("fullname", cursor.Value, cursorID, true),
		}}
	}

	opts := options.Find().
		SetSort(pagination.MongoSort("fullname", true)).
		SetLimit(int64(limit))
	c, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer c.Close(ctx)

	var users []models.User
	if err = c.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// SearchUsers searches for users by fullname prefix (case-insensitive)
func (r *MongoUserRepository) SearchUsers(ctx context.Context, query string, limit int64) ([]models.User, error) {
	filter := bson.M{
		"fullname":   bson.M{"$regex": "^" + regexp.QuoteMeta(query), "$options": "i"},
		"deleted_at": bson.M{"$exists": false},
	}
	opts := options.Find().SetSort(pagination.MongoSort("fullname", true)).SetLimit(limit)
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// MarkDeleted soft-deletes the account; record cleanup is handled by the
// background job.
func (r *MongoUserRepository) MarkDeleted(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now()
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"deleted_at": now}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("user not found")
	}
	return nil
}
