package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/tidemarkhq/ripple/backend/internal/apperr"
	"github.com/tidemarkhq/ripple/backend/internal/models"
	"github.com/tidemarkhq/ripple/backend/internal/pagination"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	ApplyReactionDelta(ctx context.Context, id primitive.ObjectID, like, dislike int64) error
	IncrementCommentsCount(ctx context.Context, id primitive.ObjectID, delta int64) error
	UpdateMediaStatus(ctx context.Context, id primitive.ObjectID, url, status string) error
	SoftDelete(ctx context.Context, id, authorID primitive.ObjectID) error
	ListByAuthors(ctx context.Context, authorIDs []primitive.ObjectID, cursor *pagination.Cursor, limit int) ([]models.Post, error)
	PostsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Post, error)
}

// MongoPostRepository implements PostRepository for MongoDB
type MongoPostRepository struct {
	collection *mongo.Collection
}

// NewMongoPostRepository creates a new MongoPostRepository
func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{collection: db.Collection("posts")}
}

// EnsureIndexes creates the feed-ordering index
func (r *MongoPostRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}},
	})
	return err
}

// CreatePost creates a new post document
func (r *MongoPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	post.ID = primitive.NewObjectID()
	post.CreatedAt = time.Now()
	post.UpdatedAt = post.CreatedAt
	_, err := r.collection.InsertOne(ctx, post)
	return err
}

// GetPostByID retrieves a post by id, including soft-deleted ones. Callers
// redact deleted posts rather than hiding them.
func (r *MongoPostRepository) GetPostByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	var post models.Post
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("post not found")
		}
		return nil, err
	}
	return &post, nil
}

// ApplyReactionDelta applies signed deltas to the cached reaction tallies as
// one atomic increment, so concurrent toggles from different users commute.
func (r *MongoPostRepository) ApplyReactionDelta(ctx context.Context, id primitive.ObjectID, like, dislike int64) error {
	inc := bson.M{}
	if like != 0 {
		inc["counts.reactions.like"] = like
	}
	if dislike != 0 {
		inc["counts.reactions.dislike"] = dislike
	}
	if len(inc) == 0 {
		return nil
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": inc})
	return err
}

// IncrementCommentsCount adjusts the cached comment counter
func (r *MongoPostRepository) IncrementCommentsCount(ctx context.Context, id primitive.ObjectID, delta int64) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"counts.comments": delta}})
	return err
}

// UpdateMediaStatus records the outcome reported by the media pipeline for
// one of the post's asset references.
func (r *MongoPostRepository) UpdateMediaStatus(ctx context.Context, id primitive.ObjectID, url, status string) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "media.url": url},
		bson.M{"$set": bson.M{"media.$.status": status, "updated_at": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("post or media reference not found")
	}
	return nil
}

// SoftDelete marks the post deleted without removing it, preserving comment
// and counter shape. Only the author may delete.
func (r *MongoPostRepository) SoftDelete(ctx context.Context, id, authorID primitive.ObjectID) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "user_id": authorID, "deleted_at": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"deleted_at": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("post not found")
	}
	return nil
}

// ListByAuthors returns one page of non-deleted posts by the given authors,
// newest first, bounded by the cursor.
func (r *MongoPostRepository) ListByAuthors(ctx context.Context, authorIDs []primitive.ObjectID, cursor *pagination.Cursor, limit int) ([]models.Post, error) {
	if len(authorIDs) == 0 {
		return nil, nil
	}
	filter := bson.M{"user_id": bson.M{"$in": authorIDs}, "deleted_at": bson.M{"$exists": false}}
	if cursor != nil {
		ts, err := cursor.TimeValue()
		if err != nil {
			return nil, apperr.InvalidInput("malformed cursor")
		}
		cursorID, err := cursor.ObjectID()
		if err != nil {
			return nil, apperr.InvalidInput("malformed cursor")
		}
		filter = bson.M{"$and": bson.A{
			filter,
			pagination.MongoBoundary("created_at", ts, cursorID, false),
		}}
	}

	opts := options.Find().
		SetSort(pagination.MongoSort("created_at", false)).
		SetLimit(int64(limit))
	c, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer c.Close(ctx)

	var posts []models.Post
	if err = c.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// PostsByIDs fetches the given posts in one query, including soft-deleted ones
func (r *MongoPostRepository) PostsByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Post, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var posts []models.Post
	if err = cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}
