package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Media reference lifecycle states, reported by the external media pipeline
const (
	MediaProcessing = "processing"
	MediaPublished  = "published"
	MediaFailed     = "failed"
)

// MediaRef points at an externally managed media asset
type MediaRef struct {
	URL    string `json:"url" bson:"url"`
	Status string `json:"status" bson:"status"`
}

// PostCounts holds the denormalized engagement counters of a post
type PostCounts struct {
	Reactions ReactionCounts `json:"reactions" bson:"reactions"`
	Comments  int64          `json:"comments" bson:"comments"`
}

// Post represents a social media post stored in MongoDB
type Post struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID    primitive.ObjectID `json:"user_id" bson:"user_id"`
	Content   string             `json:"content" bson:"content"`
	Media     []MediaRef         `json:"media,omitempty" bson:"media,omitempty"`
	Counts    PostCounts         `json:"counts" bson:"counts"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
	DeletedAt *time.Time         `json:"deleted_at,omitempty" bson:"deleted_at,omitempty"`
}

// Redact nulls the content and media of a soft-deleted post while keeping its
// id, counters and timestamps, so thread and counter shape survive deletion.
func (p *Post) Redact() {
	if p.DeletedAt == nil {
		return
	}
	p.Content = ""
	p.Media = nil
	p.UserID = primitive.NilObjectID
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	Content   string   `json:"content" validate:"required,min=1,max=2200"`
	MediaURLs []string `json:"media_urls,omitempty" validate:"omitempty,max=10,dive,url"`
}

// UpdateMediaStatusRequest is sent by the media pipeline once an asset's
// transcoding resolves
type UpdateMediaStatusRequest struct {
	URL    string `json:"url" validate:"required,url"`
	Status string `json:"status" validate:"required,oneof=processing published failed"`
}
