package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Reaction types
const (
	ReactionLike    = "like"
	ReactionDislike = "dislike"
)

// Reaction target types
const (
	TargetPost    = "post"
	TargetComment = "comment"
)

// Reaction is a user's reaction against a target item, stored in MongoDB.
// Unique on (user_id, target_id): switching type overwrites the record in
// place rather than inserting a second one.
type Reaction struct {
	ID         primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID     primitive.ObjectID `json:"user_id" bson:"user_id"`
	TargetID   primitive.ObjectID `json:"target_id" bson:"target_id"`
	TargetType string             `json:"target_type" bson:"target_type"`
	Type       string             `json:"type" bson:"type"`
	CreatedAt  time.Time          `json:"created_at" bson:"created_at"`
}

// ReactRequest defines the request body for setting a reaction
type ReactRequest struct {
	Type string `json:"type" validate:"required,oneof=like dislike"`
}

// ReactionCounts holds the per-type reaction tallies embedded in a target
// document, maintained by atomic increments only.
type ReactionCounts struct {
	Like    int64 `json:"like" bson:"like"`
	Dislike int64 `json:"dislike" bson:"dislike"`
}
