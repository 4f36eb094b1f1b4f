package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CommentCounts holds the denormalized engagement counters of a comment
type CommentCounts struct {
	Reactions ReactionCounts `json:"reactions" bson:"reactions"`
	Replies   int64          `json:"replies" bson:"replies"`
}

// Comment represents a comment or reply stored in MongoDB. Replies carry the
// parent comment's id; top-level comments have no parent.
type Comment struct {
	ID        primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	PostID    primitive.ObjectID  `json:"post_id" bson:"post_id"`
	ParentID  *primitive.ObjectID `json:"parent_id,omitempty" bson:"parent_id,omitempty"`
	UserID    primitive.ObjectID  `json:"user_id" bson:"user_id"`
	Content   string              `json:"content" bson:"content"`
	Counts    CommentCounts       `json:"counts" bson:"counts"`
	CreatedAt time.Time           `json:"created_at" bson:"created_at"`
	DeletedAt *time.Time          `json:"deleted_at,omitempty" bson:"deleted_at,omitempty"`
}

// Redact nulls the content and commentor of a soft-deleted comment while
// keeping the record itself, preserving the reply-thread shape.
func (c *Comment) Redact() {
	if c.DeletedAt == nil {
		return
	}
	c.Content = ""
	c.UserID = primitive.NilObjectID
}

// CreateCommentRequest defines the request body for creating a comment or reply
type CreateCommentRequest struct {
	Content  string `json:"content" validate:"required,min=1,max=500"`
	ParentID string `json:"parent_id,omitempty" validate:"omitempty,len=24,hexadecimal"`
}
