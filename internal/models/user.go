package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Account visibility settings
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// UserCounts holds the denormalized engagement counters embedded in the user
// document. They are a cached projection of relationship/post records and are
// only ever adjusted via atomic increments inside the transactional scope of
// the write that changes the authoritative record.
type UserCounts struct {
	Followers int64 `json:"followers" bson:"followers"`
	Following int64 `json:"following" bson:"following"`
	Posts     int64 `json:"posts" bson:"posts"`
}

// User represents an account stored in MongoDB
type User struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	FirebaseUID string             `json:"-" bson:"firebase_uid,omitempty"`
	Fullname    string             `json:"fullname" bson:"fullname"`
	Email       string             `json:"email" bson:"email"`
	Bio         string             `json:"bio,omitempty" bson:"bio,omitempty"`
	AvatarURL   string             `json:"avatar_url,omitempty" bson:"avatar_url,omitempty"`
	Visibility  string             `json:"visibility" bson:"visibility"`
	Counts      UserCounts         `json:"counts" bson:"counts"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at"`
	DeletedAt   *time.Time         `json:"-" bson:"deleted_at,omitempty"`
}

// IsPrivate reports whether the account requires an accepted follow to view.
func (u *User) IsPrivate() bool {
	return u.Visibility == VisibilityPrivate
}

// UserCompact is the reduced author/actor shape embedded in list responses
type UserCompact struct {
	ID        string `json:"id"`
	Fullname  string `json:"fullname"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// ToCompact converts a User to its compact representation
func (u *User) ToCompact() UserCompact {
	return UserCompact{
		ID:        u.ID.Hex(),
		Fullname:  u.Fullname,
		AvatarURL: u.AvatarURL,
	}
}

// CreateUserRequest defines the request body for provisioning a profile after
// external authentication
type CreateUserRequest struct {
	Fullname   string `json:"fullname" validate:"required,min=2,max=50"`
	Email      string `json:"email" validate:"required,email"`
	Visibility string `json:"visibility" validate:"omitempty,oneof=public private"`
}

// UpdateUserRequest defines the request body for editing the own profile
type UpdateUserRequest struct {
	Fullname   string `json:"fullname,omitempty" validate:"omitempty,min=2,max=50"`
	Bio        string `json:"bio,omitempty" validate:"omitempty,max=160"`
	AvatarURL  string `json:"avatar_url,omitempty" validate:"omitempty,url"`
	Visibility string `json:"visibility,omitempty" validate:"omitempty,oneof=public private"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims,
// used by the local-JWT fallback middleware.
type JwtCustomClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
