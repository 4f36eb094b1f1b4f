package services

import (
	"context"

	"github.com/tidemarkhq/ripple/backend/internal/apperr"
	"github.com/tidemarkhq/ripple/backend/internal/models"
	"github.com/tidemarkhq/ripple/backend/internal/pagination"
	"github.com/tidemarkhq/ripple/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const commentPageSize = 20

// CommentService handles comment and reply creation, deletion and listing.
// A comment insert and its post/parent counter increment share one
// transactional scope; soft deletion redacts without touching counters so the
// thread shape survives.
type CommentService struct {
	comments      repositories.CommentRepository
	posts         repositories.PostRepository
	visibility    *VisibilityService
	notifications *NotificationService
	tx            repositories.TxRunner
}

// NewCommentService creates a new CommentService
func NewCommentService(
	comments repositories.CommentRepository,
	posts repositories.PostRepository,
	visibility *VisibilityService,
	notifications *NotificationService,
	tx repositories.TxRunner,
) *CommentService {
	return &CommentService{
		comments:      comments,
		posts:         posts,
		visibility:    visibility,
		notifications: notifications,
		tx:            tx,
	}
}

// Create adds a comment to a post, or a reply to a parent comment. The acting
// user must pass the post owner's visibility rules and, for replies, the
// ancestor-chain block rule.
func (s *CommentService) Create(ctx context.Context, userID, postID primitive.ObjectID, req models.CreateCommentRequest) (*models.Comment, error) {
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.DeletedAt != nil {
		return nil, apperr.NotFound("post has been removed")
	}
	if _, err := s.visibility.CanViewUserID(ctx, userID, post.UserID); err != nil {
		return nil, err
	}

	var parent *models.Comment
	if req.ParentID != "" {
		parentID, err := primitive.ObjectIDFromHex(req.ParentID)
		if err != nil {
			return nil, apperr.InvalidInput("malformed parent comment id")
		}
		parent, err = s.comments.GetCommentByID(ctx, parentID)
		if err != nil {
			return nil, err
		}
		if parent.PostID != postID {
			return nil, apperr.InvalidInput("parent comment belongs to a different post")
		}
		if err := s.visibility.CanViewComment(ctx, userID, parent); err != nil {
			return nil, err
		}
		_, depth, err := s.visibility.AncestorAuthors(ctx, parent)
		if err != nil {
			return nil, apperr.Internal("thread depth check failed", err)
		}
		if depth+1 >= maxReplyDepth {
			return nil, apperr.InvalidInput("reply thread is too deep")
		}
	}

	comment := &models.Comment{
		PostID:  postID,
		UserID:  userID,
		Content: req.Content,
	}
	if parent != nil {
		comment.ParentID = &parent.ID
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.comments.CreateComment(ctx, comment); err != nil {
			return err
		}
		if parent != nil {
			return s.comments.IncrementRepliesCount(ctx, parent.ID, 1)
		}
		return s.posts.IncrementCommentsCount(ctx, postID, 1)
	})
	if err != nil {
		return nil, apperr.Classify(err, "comment write failed")
	}

	if parent != nil {
		s.notifications.Notify(userID.Hex(), parent.UserID.Hex(), models.NotifNewReply, comment.ID.Hex(), models.TargetComment)
	} else {
		s.notifications.Notify(userID.Hex(), post.UserID.Hex(), models.NotifNewComment, comment.ID.Hex(), models.TargetComment)
	}
	return comment, nil
}

// Delete soft-deletes the user's own comment. No counter change: the record
// stays, redacted, so replies and tallies keep their shape.
func (s *CommentService) Delete(ctx context.Context, userID, commentID primitive.ObjectID) error {
	return s.comments.SoftDelete(ctx, commentID, userID)
}

// ListByPost returns one page of a post's top-level comments, newest first.
// Soft-deleted comments appear redacted; comments whose author is blocked
// from or blocking the viewer are omitted, never an error.
func (s *CommentService) ListByPost(ctx context.Context, viewerID, postID primitive.ObjectID, cursor *pagination.Cursor, limit int) ([]models.Comment, *pagination.Cursor, error) {
	limit = pagination.Limit(limit, commentPageSize, maxListLimit)
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.visibility.CanViewUserID(ctx, viewerID, post.UserID); err != nil {
		return nil, nil, err
	}

	page, err := s.comments.ListByPost(ctx, postID, cursor, limit)
	if err != nil {
		return nil, nil, apperr.Classify(err, "comment listing failed")
	}
	return s.finishPage(ctx, viewerID, page, limit)
}

// ListReplies returns one page of direct replies to a comment. The parent's
// full ancestor chain is checked once for the whole page; individual replies
// are then filtered by their own author only.
func (s *CommentService) ListReplies(ctx context.Context, viewerID, parentID primitive.ObjectID, cursor *pagination.Cursor, limit int) ([]models.Comment, *pagination.Cursor, error) {
	limit = pagination.Limit(limit, commentPageSize, maxListLimit)
	parent, err := s.comments.GetCommentByID(ctx, parentID)
	if err != nil {
		return nil, nil, err
	}
	post, err := s.posts.GetPostByID(ctx, parent.PostID)
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.visibility.CanViewUserID(ctx, viewerID, post.UserID); err != nil {
		return nil, nil, err
	}
	if err := s.visibility.CanViewComment(ctx, viewerID, parent); err != nil {
		return nil, nil, err
	}

	page, err := s.comments.ListReplies(ctx, parentID, cursor, limit)
	if err != nil {
		return nil, nil, apperr.Classify(err, "reply listing failed")
	}
	return s.finishPage(ctx, viewerID, page, limit)
}

// finishPage derives the next cursor from the unfiltered page (so boundaries
// stay stable regardless of what the viewer may see), then redacts deleted
// comments and drops block-hidden authors.
func (s *CommentService) finishPage(ctx context.Context, viewerID primitive.ObjectID, page []models.Comment, limit int) ([]models.Comment, *pagination.Cursor, error) {
	var next *pagination.Cursor
	if len(page) > 0 {
		last := page[len(page)-1]
		next = pagination.NextTimeCursor(len(page), limit, last.CreatedAt, last.ID.Hex())
	}

	authorSet := make(map[primitive.ObjectID]bool)
	authors := make([]primitive.ObjectID, 0, len(page))
	for i := range page {
		page[i].Redact()
		id := page[i].UserID
		if !id.IsZero() && !authorSet[id] {
			authorSet[id] = true
			authors = append(authors, id)
		}
	}

	visible, err := s.visibility.FilterBlocked(ctx, viewerID, authors)
	if err != nil {
		return nil, nil, apperr.Internal("block filter failed", err)
	}
	visibleSet := make(map[primitive.ObjectID]bool, len(visible))
	for _, id := range visible {
		visibleSet[id] = true
	}

	out := make([]models.Comment, 0, len(page))
	for _, c := range page {
		if c.UserID.IsZero() || visibleSet[c.UserID] {
			out = append(out, c)
		}
	}
	return out, next, nil
}
