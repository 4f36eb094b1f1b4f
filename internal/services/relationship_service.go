package services

import (
	"context"

	"github.com/tidemarkhq/ripple/backend/internal/apperr"
	"github.com/tidemarkhq/ripple/backend/internal/models"
	"github.com/tidemarkhq/ripple/backend/internal/pagination"
	"github.com/tidemarkhq/ripple/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const userPageSize = 25

// RelationshipService runs the follow/block state machine. Every transition
// that changes an accepted edge adjusts both parties' cached follow counters
// inside the same transactional scope as the edge write; notifications are
// emitted only after the scope commits.
type RelationshipService struct {
	relationships repositories.RelationshipRepository
	users         repositories.UserRepository
	visibility    *VisibilityService
	notifications *NotificationService
	tx            repositories.TxRunner
}

// NewRelationshipService creates a new RelationshipService
func NewRelationshipService(
	relationships repositories.RelationshipRepository,
	users repositories.UserRepository,
	visibility *VisibilityService,
	notifications *NotificationService,
	tx repositories.TxRunner,
) *RelationshipService {
	return &RelationshipService{
		relationships: relationships,
		users:         users,
		visibility:    visibility,
		notifications: notifications,
		tx:            tx,
	}
}

// Follow transitions none -> accepted for public targets (counters on both
// sides, newFollower notification) or none -> requested for private targets
// (no counter change, no notification until acceptance). Returns the
// resulting status.
func (s *RelationshipService) Follow(ctx context.Context, followerID, followingID primitive.ObjectID) (string, error) {
	if followerID == followingID {
		return "", apperr.InvalidInput("cannot follow yourself")
	}

	target, err := s.users.GetUserByID(ctx, followingID)
	if err != nil {
		return "", err
	}
	if target.DeletedAt != nil {
		return "", apperr.NotFound("user not found")
	}

	blocked, err := s.relationships.BlockedPeers(ctx, followerID, []primitive.ObjectID{followingID})
	if err != nil {
		return "", apperr.Internal("block check failed", err)
	}
	if blocked[followingID] {
		return "", apperr.Forbidden(apperr.ReasonBlockedUser, "user is blocked")
	}

	existing, err := s.relationships.Get(ctx, followerID, followingID)
	if err != nil {
		return "", apperr.Internal("relationship lookup failed", err)
	}
	if existing != nil {
		switch existing.Status {
		case models.RelationRequested:
			return "", apperr.Conflict("follow request already pending")
		case models.RelationAccepted:
			return "", apperr.Conflict("already following this user")
		default:
			return "", apperr.Forbidden(apperr.ReasonBlockedUser, "user is blocked")
		}
	}

	if target.IsPrivate() {
		rel := &models.Relationship{FollowerID: followerID, FollowingID: followingID, Status: models.RelationRequested}
		if err := s.relationships.Create(ctx, rel); err != nil {
			return "", err
		}
		return models.RelationRequested, nil
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		rel := &models.Relationship{FollowerID: followerID, FollowingID: followingID, Status: models.RelationAccepted}
		if err := s.relationships.Create(ctx, rel); err != nil {
			return err
		}
		if err := s.users.AdjustFollowCounts(ctx, followerID, 0, 1); err != nil {
			return err
		}
		return s.users.AdjustFollowCounts(ctx, followingID, 1, 0)
	})
	if err != nil {
		return "", apperr.Classify(err, "follow transition failed")
	}

	s.notifications.Notify(followerID.Hex(), followingID.Hex(), models.NotifNewFollower, followerID.Hex(), "user")
	return models.RelationAccepted, nil
}

// Accept transitions requested -> accepted, incrementing both parties'
// counters. Fails with NotFound when no matching requested edge exists, so a
// double accept never double-counts.
func (s *RelationshipService) Accept(ctx context.Context, ownerID, requesterID primitive.ObjectID) error {
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.relationships.UpdateStatus(ctx, requesterID, ownerID, models.RelationRequested, models.RelationAccepted); err != nil {
			return err
		}
		if err := s.users.AdjustFollowCounts(ctx, requesterID, 0, 1); err != nil {
			return err
		}
		return s.users.AdjustFollowCounts(ctx, ownerID, 1, 0)
	})
	if err != nil {
		return apperr.Classify(err, "accept transition failed")
	}

	s.notifications.Notify(ownerID.Hex(), requesterID.Hex(), models.NotifFollowAccepted, ownerID.Hex(), "user")
	return nil
}

// Reject deletes a pending request aimed at the owner. No counter change.
func (s *RelationshipService) Reject(ctx context.Context, ownerID, requesterID primitive.ObjectID) error {
	return s.relationships.Delete(ctx, requesterID, ownerID, models.RelationRequested)
}

// Withdraw deletes the caller's own pending request. No counter change.
func (s *RelationshipService) Withdraw(ctx context.Context, followerID, targetID primitive.ObjectID) error {
	return s.relationships.Delete(ctx, followerID, targetID, models.RelationRequested)
}

// Unfollow deletes an accepted edge and decrements both parties' counters.
// A newFollower notification still unseen within the grace window is
// retracted best-effort after commit.
func (s *RelationshipService) Unfollow(ctx context.Context, followerID, targetID primitive.ObjectID) error {
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.relationships.Delete(ctx, followerID, targetID, models.RelationAccepted); err != nil {
			return err
		}
		if err := s.users.AdjustFollowCounts(ctx, followerID, 0, -1); err != nil {
			return err
		}
		return s.users.AdjustFollowCounts(ctx, targetID, -1, 0)
	})
	if err != nil {
		return apperr.Classify(err, "unfollow transition failed")
	}

	s.notifications.RetractFollow(followerID.Hex(), targetID.Hex())
	return nil
}

// Block forces the blocker -> blockee edge to blocked and deletes any
// blockee -> blocker edge that is not itself blocked. The two directions are
// evaluated independently: each removed or overwritten accepted edge
// decrements the counters of both users for that edge. Blocking is
// one-directional; the reverse block, if any, is untouched.
func (s *RelationshipService) Block(ctx context.Context, blockerID, blockeeID primitive.ObjectID) error {
	if blockerID == blockeeID {
		return apperr.InvalidInput("cannot block yourself")
	}
	if _, err := s.users.GetUserByID(ctx, blockeeID); err != nil {
		return err
	}

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		previous, err := s.relationships.UpsertBlocked(ctx, blockerID, blockeeID)
		if err != nil {
			return err
		}
		if previous == models.RelationBlocked {
			return apperr.Conflict("user already blocked")
		}
		if previous == models.RelationAccepted {
			if err := s.users.AdjustFollowCounts(ctx, blockerID, 0, -1); err != nil {
				return err
			}
			if err := s.users.AdjustFollowCounts(ctx, blockeeID, -1, 0); err != nil {
				return err
			}
		}

		reverse, err := s.relationships.Get(ctx, blockeeID, blockerID)
		if err != nil {
			return err
		}
		if reverse == nil || reverse.Status == models.RelationBlocked {
			return nil
		}
		if err := s.relationships.Delete(ctx, blockeeID, blockerID); err != nil {
			return err
		}
		if reverse.Status == models.RelationAccepted {
			if err := s.users.AdjustFollowCounts(ctx, blockeeID, 0, -1); err != nil {
				return err
			}
			return s.users.AdjustFollowCounts(ctx, blockerID, -1, 0)
		}
		return nil
	})
	return apperr.Classify(err, "block transition failed")
}

// Unblock deletes the blocker -> blockee blocked edge only. It never restores
// the other direction.
func (s *RelationshipService) Unblock(ctx context.Context, blockerID, blockeeID primitive.ObjectID) error {
	return s.relationships.Delete(ctx, blockerID, blockeeID, models.RelationBlocked)
}

// RelationTo returns the status of the viewer's edge toward the target, or
// "" when none exists.
func (s *RelationshipService) RelationTo(ctx context.Context, viewerID, targetID primitive.ObjectID) (string, error) {
	rel, err := s.relationships.Get(ctx, viewerID, targetID)
	if err != nil {
		return "", apperr.Internal("relationship lookup failed", err)
	}
	if rel == nil {
		return "", nil
	}
	return rel.Status, nil
}

// Followers lists the accepted followers of a user, visibility-gated against
// the viewer, block-filtered, ordered ascending by (fullname, id).
func (s *RelationshipService) Followers(ctx context.Context, viewerID, ownerID primitive.ObjectID, cursor *pagination.Cursor, limit int) ([]models.User, *pagination.Cursor, error) {
	if _, err := s.visibility.CanViewUserID(ctx, viewerID, ownerID); err != nil {
		return nil, nil, err
	}
	ids, err := s.relationships.FollowerIDs(ctx, ownerID, models.RelationAccepted)
	if err != nil {
		return nil, nil, apperr.Internal("follower lookup failed", err)
	}
	return s.userPage(ctx, viewerID, ids, cursor, limit)
}

// Following lists the accepted followings of a user, with the same gating as
// Followers.
func (s *RelationshipService) Following(ctx context.Context, viewerID, ownerID primitive.ObjectID, cursor *pagination.Cursor, limit int) ([]models.User, *pagination.Cursor, error) {
	if _, err := s.visibility.CanViewUserID(ctx, viewerID, ownerID); err != nil {
		return nil, nil, err
	}
	ids, err := s.relationships.FollowingIDs(ctx, ownerID, models.RelationAccepted)
	if err != nil {
		return nil, nil, apperr.Internal("following lookup failed", err)
	}
	return s.userPage(ctx, viewerID, ids, cursor, limit)
}

// PendingRequests lists the users whose follow requests await the owner's
// decision. Owner-only; the handler passes the authenticated user.
func (s *RelationshipService) PendingRequests(ctx context.Context, ownerID primitive.ObjectID, cursor *pagination.Cursor, limit int) ([]models.User, *pagination.Cursor, error) {
	ids, err := s.relationships.FollowerIDs(ctx, ownerID, models.RelationRequested)
	if err != nil {
		return nil, nil, apperr.Internal("request lookup failed", err)
	}
	return s.userPage(ctx, ownerID, ids, cursor, limit)
}

func (s *RelationshipService) userPage(ctx context.Context, viewerID primitive.ObjectID, ids []primitive.ObjectID, cursor *pagination.Cursor, limit int) ([]models.User, *pagination.Cursor, error) {
	limit = pagination.Limit(limit, userPageSize, maxListLimit)
	ids, err := s.visibility.FilterBlocked(ctx, viewerID, ids)
	if err != nil {
		return nil, nil, apperr.Internal("block filter failed", err)
	}
	users, err := s.users.ListPage(ctx, ids, cursor, limit)
	if err != nil {
		return nil, nil, err
	}
	var next *pagination.Cursor
	if len(users) > 0 {
		last := users[len(users)-1]
		next = pagination.NextStringCursor(len(users), limit, last.Fullname, last.ID.Hex())
	}
	return users, next, nil
}
