package services

import (
	"context"
	"log/slog"

	"github.com/tidemarkhq/ripple/backend/internal/apperr"
	"github.com/tidemarkhq/ripple/backend/internal/models"
	"github.com/tidemarkhq/ripple/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// cleanupBatchSize bounds memory and transaction length for the cascade
const cleanupBatchSize = 500

// CleanupService removes every relationship, reaction, save and notification
// referencing a deleted account, correcting the counters of surviving parties
// as it goes. Work happens in bounded batches; each batch deletes the records
// it corrected for inside one transactional scope, so a re-run after partial
// failure finds nothing left to decrement and is a no-op.
type CleanupService struct {
	relationships repositories.RelationshipRepository
	reactions     repositories.ReactionRepository
	users         repositories.UserRepository
	posts         repositories.PostRepository
	comments      repositories.CommentRepository
	notifications repositories.NotificationRepository
	saves         repositories.SavedPostRepository
	tx            repositories.TxRunner
	log           *slog.Logger
}

// NewCleanupService creates a new CleanupService
func NewCleanupService(
	relationships repositories.RelationshipRepository,
	reactions repositories.ReactionRepository,
	users repositories.UserRepository,
	posts repositories.PostRepository,
	comments repositories.CommentRepository,
	notifications repositories.NotificationRepository,
	saves repositories.SavedPostRepository,
	tx repositories.TxRunner,
	log *slog.Logger,
) *CleanupService {
	return &CleanupService{
		relationships: relationships,
		reactions:     reactions,
		users:         users,
		posts:         posts,
		comments:      comments,
		notifications: notifications,
		saves:         saves,
		tx:            tx,
		log:           log,
	}
}

// Run performs the full cascade for one deleted account. It is retryable:
// callers may invoke it again after any error with no double-counting.
func (s *CleanupService) Run(ctx context.Context, userID primitive.ObjectID) error {
	if err := s.cleanRelationships(ctx, userID); err != nil {
		return apperr.Classify(err, "relationship cleanup failed")
	}
	if err := s.cleanReactions(ctx, userID); err != nil {
		return apperr.Classify(err, "reaction cleanup failed")
	}
	for {
		n, err := s.notifications.DeleteBatchByUser(userID.Hex(), cleanupBatchSize)
		if err != nil {
			return apperr.Classify(err, "notification cleanup failed")
		}
		if n == 0 {
			break
		}
	}
	for {
		n, err := s.saves.DeleteBatchByUser(userID.Hex(), cleanupBatchSize)
		if err != nil {
			return apperr.Classify(err, "save cleanup failed")
		}
		if n == 0 {
			break
		}
	}
	s.log.Info("account cleanup completed", "user_id", userID.Hex())
	return nil
}

func (s *CleanupService) cleanRelationships(ctx context.Context, userID primitive.ObjectID) error {
	for {
		edges, err := s.relationships.ListByUser(ctx, userID, cleanupBatchSize)
		if err != nil {
			return err
		}
		if len(edges) == 0 {
			return nil
		}

		err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
			ids := make([]primitive.ObjectID, 0, len(edges))
			for _, edge := range edges {
				ids = append(ids, edge.ID)
				if edge.Status != models.RelationAccepted {
					continue
				}
				// correct the surviving party only; the deleted
				// account's own counters no longer matter
				if edge.FollowerID == userID {
					if err := s.users.AdjustFollowCounts(ctx, edge.FollowingID, -1, 0); err != nil {
						return err
					}
				} else {
					if err := s.users.AdjustFollowCounts(ctx, edge.FollowerID, 0, -1); err != nil {
						return err
					}
				}
			}
			return s.relationships.DeleteByIDs(ctx, ids)
		})
		if err != nil {
			return err
		}
	}
}

func (s *CleanupService) cleanReactions(ctx context.Context, userID primitive.ObjectID) error {
	for {
		batch, err := s.reactions.ListByUser(ctx, userID, cleanupBatchSize)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}

		err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
			ids := make([]primitive.ObjectID, 0, len(batch))
			for _, re := range batch {
				ids = append(ids, re.ID)
				delta := ComputeReactionDelta(re.Type, "")
				if re.TargetType == models.TargetComment {
					if err := s.comments.ApplyReactionDelta(ctx, re.TargetID, delta.Like, delta.Dislike); err != nil {
						return err
					}
				} else {
					if err := s.posts.ApplyReactionDelta(ctx, re.TargetID, delta.Like, delta.Dislike); err != nil {
						return err
					}
				}
			}
			return s.reactions.DeleteByIDs(ctx, ids)
		})
		if err != nil {
			return err
		}
	}
}
