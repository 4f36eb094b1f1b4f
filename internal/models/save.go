package models

import "time"

// SavedPost represents a bookmarked post (PostgreSQL). Unique per
// (user_id, post_id, collection_id); the quick-save path uses a null
// collection id.
type SavedPost struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	UserID       string    `json:"user_id" gorm:"size:24;index;uniqueIndex:idx_user_post_collection"`
	PostID       string    `json:"post_id" gorm:"size:24;index;uniqueIndex:idx_user_post_collection"`
	CollectionID *string   `json:"collection_id,omitempty" gorm:"type:uuid;uniqueIndex:idx_user_post_collection"`
	CreatedAt    time.Time `json:"created_at" gorm:"index"`
}

// SavePostRequest defines the request body for saving a post. An absent
// collection id means quick save.
type SavePostRequest struct {
	CollectionID string `json:"collection_id,omitempty" validate:"omitempty,uuid4"`
}
