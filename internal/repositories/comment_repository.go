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

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetCommentByID(ctx context.Context, id primitive.ObjectID) (*models.Comment, error)
	ApplyReactionDelta(ctx context.Context, id primitive.ObjectID, like, dislike int64) error
	IncrementRepliesCount(ctx context.Context, id primitive.ObjectID, delta int64) error
	SoftDelete(ctx context.Context, id, authorID primitive.ObjectID) error
	ListByPost(ctx context.Context, postID primitive.ObjectID, cursor *pagination.Cursor, limit int) ([]models.Comment, error)
	ListReplies(ctx context.Context, parentID primitive.ObjectID, cursor *pagination.Cursor, limit int) ([]models.Comment, error)
}

// MongoCommentRepository implements CommentRepository for MongoDB
type MongoCommentRepository struct {
	collection *mongo.Collection
}

// NewMongoCommentRepository creates a new MongoCommentRepository
func NewMongoCommentRepository(db *mongo.Database) *MongoCommentRepository {
	return &MongoCommentRepository{collection: db.Collection("comments")}
}

// EnsureIndexes creates the thread-listing indexes
func (r *MongoCommentRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "post_id", Value: 1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}},
		{Keys: bson.D{{Key: "parent_id", Value: 1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}},
	})
	return err
}

// CreateComment creates a new comment document
func (r *MongoCommentRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	comment.ID = primitive.NewObjectID()
	comment.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, comment)
	return err
}

// GetCommentByID retrieves a comment by id, including soft-deleted ones
func (r *MongoCommentRepository) GetCommentByID(ctx context.Context, id primitive.ObjectID) (*models.Comment, error) {
	var comment models.Comment
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&comment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.NotFound("comment not found")
		}
		return nil, err
	}
	return &comment, nil
}

// ApplyReactionDelta applies signed deltas to the cached reaction tallies as
// one atomic increment.
func (r *MongoCommentRepository) ApplyReactionDelta(ctx context.Context, id primitive.ObjectID, like, dislike int64) error {
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

// IncrementRepliesCount adjusts the cached reply counter
func (r *MongoCommentRepository) IncrementRepliesCount(ctx context.Context, id primitive.ObjectID, delta int64) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"counts.replies": delta}})
	return err
}

// SoftDelete marks the comment deleted without removing it, preserving the
// reply-thread shape. Only the commentor may delete.
func (r *MongoCommentRepository) SoftDelete(ctx context.Context, id, authorID primitive.ObjectID) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "user_id": authorID, "deleted_at": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"deleted_at": time.Now()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("comment not found")
	}
	return nil
}

// ListByPost returns one page of top-level comments on the post, newest first.
// Soft-deleted comments are included and redacted downstream.
func (r *MongoCommentRepository) ListByPost(ctx context.Context, postID primitive.ObjectID, cursor *pagination.Cursor, limit int) ([]models.Comment, error) {
	filter := bson.M{"post_id": postID, "parent_id": bson.M{"$exists": false}}
	return r.listPage(ctx, filter, cursor, limit)
}

// ListReplies returns one page of direct replies to the parent comment,
// newest first.
func (r *MongoCommentRepository) ListReplies(ctx context.Context, parentID primitive.ObjectID, cursor *pagination.Cursor, limit int) ([]models.Comment, error) {
	return r.listPage(ctx, bson.M{"parent_id": parentID}, cursor, limit)
}

func (r *MongoCommentRepository) listPage(ctx context.Context, filter bson.M, cursor *pagination.Cursor, limit int) ([]models.Comment, error) {
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

	var comments []models.Comment
	if err = c.All(ctx, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}
