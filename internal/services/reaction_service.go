package services

import (
	"context"

	"github.com/tidemarkhq/ripple/backend/internal/apperr"
	"github.com/tidemarkhq/ripple/backend/internal/models"
	"github.com/tidemarkhq/ripple/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReactionService runs the reaction toggle: read the previous reaction for
// (user, target), derive the counter delta, and apply record write plus
// counter increment in one transactional scope. Toggles from different users
// on the same target commute because each is keyed by its own engagement
// record and the shared tally is an atomic add.
type ReactionService struct {
	reactions     repositories.ReactionRepository
	posts         repositories.PostRepository
	comments      repositories.CommentRepository
	visibility    *VisibilityService
	notifications *NotificationService
	tx            repositories.TxRunner
}

// NewReactionService creates a new ReactionService
func NewReactionService(
	reactions repositories.ReactionRepository,
	posts repositories.PostRepository,
	comments repositories.CommentRepository,
	visibility *VisibilityService,
	notifications *NotificationService,
	tx repositories.TxRunner,
) *ReactionService {
	return &ReactionService{
		reactions:     reactions,
		posts:         posts,
		comments:      comments,
		visibility:    visibility,
		notifications: notifications,
		tx:            tx,
	}
}

// React sets the user's reaction on the target, overwriting a previous
// reaction of a different type. Repeating the current type is a successful
// no-op with no counter write.
func (s *ReactionService) React(ctx context.Context, userID primitive.ObjectID, targetType string, targetID primitive.ObjectID, reactionType string) error {
	ownerID, err := s.authorizeTarget(ctx, userID, targetType, targetID)
	if err != nil {
		return err
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		previous, err := s.reactions.Get(ctx, userID, targetID)
		if err != nil {
			return err
		}
		previousType := ""
		if previous != nil {
			previousType = previous.Type
		}
		delta := ComputeReactionDelta(previousType, reactionType)
		if delta.IsZero() {
			return nil
		}
		reaction := &models.Reaction{
			UserID:     userID,
			TargetID:   targetID,
			TargetType: targetType,
			Type:       reactionType,
		}
		if err := s.reactions.Upsert(ctx, reaction); err != nil {
			return err
		}
		return s.applyDelta(ctx, targetType, targetID, delta)
	})
	if err != nil {
		return apperr.Classify(err, "reaction write failed")
	}

	if reactionType == models.ReactionLike {
		notifType := models.NotifPostLike
		if targetType == models.TargetComment {
			notifType = models.NotifCommentLike
		}
		s.notifications.Notify(userID.Hex(), ownerID.Hex(), notifType, targetID.Hex(), targetType)
	}
	return nil
}

// Unreact removes the user's reaction from the target, decrementing the
// matching tally. Removing a reaction that does not exist is a successful
// no-op.
func (s *ReactionService) Unreact(ctx context.Context, userID primitive.ObjectID, targetType string, targetID primitive.ObjectID) error {
	if _, err := s.loadTarget(ctx, targetType, targetID); err != nil {
		return err
	}

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		previous, err := s.reactions.Get(ctx, userID, targetID)
		if err != nil {
			return err
		}
		if previous == nil {
			return nil
		}
		if _, err := s.reactions.Delete(ctx, userID, targetID); err != nil {
			return err
		}
		return s.applyDelta(ctx, targetType, targetID, ComputeReactionDelta(previous.Type, ""))
	})
	if err != nil {
		return apperr.Classify(err, "reaction delete failed")
	}
	return nil
}

// authorizeTarget resolves the target's owning account and applies the
// visibility rules to the acting user, including the ancestor-chain rule for
// comment targets.
func (s *ReactionService) authorizeTarget(ctx context.Context, userID primitive.ObjectID, targetType string, targetID primitive.ObjectID) (primitive.ObjectID, error) {
	switch targetType {
	case models.TargetPost:
		post, err := s.posts.GetPostByID(ctx, targetID)
		if err != nil {
			return primitive.NilObjectID, err
		}
		if post.DeletedAt != nil {
			return primitive.NilObjectID, apperr.NotFound("post has been removed")
		}
		if _, err := s.visibility.CanViewUserID(ctx, userID, post.UserID); err != nil {
			return primitive.NilObjectID, err
		}
		return post.UserID, nil

	case models.TargetComment:
		comment, err := s.comments.GetCommentByID(ctx, targetID)
		if err != nil {
			return primitive.NilObjectID, err
		}
		if comment.DeletedAt != nil {
			return primitive.NilObjectID, apperr.NotFound("comment has been removed")
		}
		post, err := s.posts.GetPostByID(ctx, comment.PostID)
		if err != nil {
			return primitive.NilObjectID, err
		}
		if !post.UserID.IsZero() {
			if _, err := s.visibility.CanViewUserID(ctx, userID, post.UserID); err != nil {
				return primitive.NilObjectID, err
			}
		}
		if err := s.visibility.CanViewComment(ctx, userID, comment); err != nil {
			return primitive.NilObjectID, err
		}
		return comment.UserID, nil

	default:
		return primitive.NilObjectID, apperr.InvalidInput("unknown target type")
	}
}

func (s *ReactionService) loadTarget(ctx context.Context, targetType string, targetID primitive.ObjectID) (primitive.ObjectID, error) {
	switch targetType {
	case models.TargetPost:
		post, err := s.posts.GetPostByID(ctx, targetID)
		if err != nil {
			return primitive.NilObjectID, err
		}
		return post.UserID, nil
	case models.TargetComment:
		comment, err := s.comments.GetCommentByID(ctx, targetID)
		if err != nil {
			return primitive.NilObjectID, err
		}
		return comment.UserID, nil
	default:
		return primitive.NilObjectID, apperr.InvalidInput("unknown target type")
	}
}

func (s *ReactionService) applyDelta(ctx context.Context, targetType string, targetID primitive.ObjectID, delta ReactionDelta) error {
	if targetType == models.TargetComment {
		return s.comments.ApplyReactionDelta(ctx, targetID, delta.Like, delta.Dislike)
	}
	return s.posts.ApplyReactionDelta(ctx, targetID, delta.Like, delta.Dislike)
}
