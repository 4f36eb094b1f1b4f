package services

import (
	"context"
	"strings"

	"github.com/tidemarkhq/ripple/backend/internal/apperr"
	"github.com/tidemarkhq/ripple/backend/internal/models"
	"github.com/tidemarkhq/ripple/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const searchPageSize = 25

// UserService handles profile provisioning, profile views and account
// deletion. The delete path only flips the tombstone; the cascade over
// relationships, reactions, saves and notifications runs afterwards and is
// safe to retry.
type UserService struct {
	users         repositories.UserRepository
	relationships repositories.RelationshipRepository
	visibility    *VisibilityService
	cleanup       *CleanupService
}

// NewUserService creates a new UserService
func NewUserService(
	users repositories.UserRepository,
	relationships repositories.RelationshipRepository,
	visibility *VisibilityService,
	cleanup *CleanupService,
) *UserService {
	return &UserService{
		users:         users,
		relationships: relationships,
		visibility:    visibility,
		cleanup:       cleanup,
	}
}

// CreateProfile provisions the application profile for an externally
// authenticated identity.
func (s *UserService) CreateProfile(ctx context.Context, firebaseUID string, req models.CreateUserRequest) (*models.User, error) {
	user := &models.User{
		FirebaseUID: firebaseUID,
		Fullname:    req.Fullname,
		Email:       req.Email,
		Visibility:  req.Visibility,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Me returns the caller's own profile
func (s *UserService) Me(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	return s.users.GetUserByID(ctx, userID)
}

// UpdateMe edits the caller's own profile. Only fields present in the
// request are touched.
func (s *UserService) UpdateMe(ctx context.Context, userID primitive.ObjectID, req models.UpdateUserRequest) (*models.User, error) {
	fields := bson.M{}
	if req.Fullname != "" {
		fields["fullname"] = req.Fullname
	}
	if req.Bio != "" {
		fields["bio"] = req.Bio
	}
	if req.AvatarURL != "" {
		fields["avatar_url"] = req.AvatarURL
	}
	if req.Visibility != "" {
		fields["visibility"] = req.Visibility
	}
	if len(fields) > 0 {
		if err := s.users.UpdateProfile(ctx, userID, fields); err != nil {
			return nil, err
		}
	}
	return s.users.GetUserByID(ctx, userID)
}

// Profile returns another user's profile together with the viewer's relation
// to them ("", "requested", "accepted" or "blocked"). Profile metadata is
// visible to any non-blocked viewer; a private setting gates content lists,
// not the profile document itself.
func (s *UserService) Profile(ctx context.Context, viewerID, targetID primitive.ObjectID) (*models.User, string, error) {
	user, err := s.users.GetUserByID(ctx, targetID)
	if err != nil {
		return nil, "", err
	}
	if user.DeletedAt != nil {
		return nil, "", apperr.NotFound("user not found")
	}

	relation := ""
	if !viewerID.IsZero() && viewerID != targetID {
		blocked, err := s.relationships.BlockedPeers(ctx, viewerID, []primitive.ObjectID{targetID})
		if err != nil {
			return nil, "", apperr.Classify(err, "block lookup failed")
		}
		if blocked[targetID] {
			return nil, "", apperr.Forbidden(apperr.ReasonBlockedUser, "profile not available")
		}
		rel, err := s.relationships.Get(ctx, viewerID, targetID)
		if err != nil {
			return nil, "", apperr.Classify(err, "relationship lookup failed")
		}
		if rel != nil {
			relation = rel.Status
		}
	}
	return user, relation, nil
}

// Search finds users by fullname prefix, hiding blocked peers from the
// results. Matching is case-insensitive.
func (s *UserService) Search(ctx context.Context, viewerID primitive.ObjectID, query string) ([]models.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.InvalidInput("search query must not be empty")
	}
	matches, err := s.users.SearchUsers(ctx, query, searchPageSize)
	if err != nil {
		return nil, err
	}
	if viewerID.IsZero() || len(matches) == 0 {
		return matches, nil
	}

	ids := make([]primitive.ObjectID, 0, len(matches))
	for _, u := range matches {
		ids = append(ids, u.ID)
	}
	blocked, err := s.relationships.BlockedPeers(ctx, viewerID, ids)
	if err != nil {
		return nil, apperr.Classify(err, "block lookup failed")
	}
	visible := matches[:0]
	for _, u := range matches {
		if !blocked[u.ID] {
			visible = append(visible, u)
		}
	}
	return visible, nil
}

// DeleteAccount tombstones the account and cascades over everything that
// references it. The tombstone lands first so the account disappears even if
// the cascade is interrupted; a retry picks up the remaining records.
func (s *UserService) DeleteAccount(ctx context.Context, userID primitive.ObjectID) error {
	if err := s.users.MarkDeleted(ctx, userID); err != nil {
		return err
	}
	return s.cleanup.Run(ctx, userID)
}
