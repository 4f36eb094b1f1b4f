package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Relationship lifecycle states. A record exists only while one of these
// holds; "none" is represented by the absence of a record.
const (
	RelationRequested = "requested"
	RelationAccepted  = "accepted"
	RelationBlocked   = "blocked"
)

// Relationship is a directed follow/block edge stored in MongoDB. At most one
// record exists per ordered (follower_id, following_id) pair; the reverse
// direction is an independent record.
type Relationship struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	FollowerID  primitive.ObjectID `json:"follower_id" bson:"follower_id"`
	FollowingID primitive.ObjectID `json:"following_id" bson:"following_id"`
	Status      string             `json:"status" bson:"status"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	SeenAt      *time.Time         `json:"seen_at,omitempty" bson:"seen_at,omitempty"`
}
