package services

import (
	"context"

	"github.com/tidemarkhq/ripple/backend/internal/apperr"
	"github.com/tidemarkhq/ripple/backend/internal/models"
	"github.com/tidemarkhq/ripple/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// maxReplyDepth bounds the ancestor walk; thread depth is enforced at comment
// creation so the cap is never reached on the read path.
const maxReplyDepth = 32

// VisibilityService is the single predicate deciding whether a viewer may see
// a subject. Every list and detail operation delegates here instead of
// re-deriving the privacy and block rules.
type VisibilityService struct {
	users         repositories.UserRepository
	relationships repositories.RelationshipRepository
	comments      repositories.CommentRepository
}

// NewVisibilityService creates a new VisibilityService
func NewVisibilityService(users repositories.UserRepository, relationships repositories.RelationshipRepository, comments repositories.CommentRepository) *VisibilityService {
	return &VisibilityService{users: users, relationships: relationships, comments: comments}
}

// CanViewUser decides whether the viewer may see content owned by owner.
// A zero viewer id is an unauthenticated viewer: no accepted follows, no
// block edges. Rules apply in order: private account first, then the
// symmetric block check. A blocked edge in either direction hides both
// parties from each other.
func (s *VisibilityService) CanViewUser(ctx context.Context, viewerID primitive.ObjectID, owner *models.User) error {
	if viewerID == owner.ID {
		return nil
	}

	if owner.IsPrivate() {
		following := false
		if !viewerID.IsZero() {
			var err error
			following, err = s.relationships.IsAccepted(ctx, viewerID, owner.ID)
			if err != nil {
				return apperr.Internal("visibility check failed", err)
			}
		}
		if !following {
			return apperr.Forbidden(apperr.ReasonPrivateUser, "account is private")
		}
	}

	if !viewerID.IsZero() {
		blocked, err := s.relationships.BlockedPeers(ctx, viewerID, []primitive.ObjectID{owner.ID})
		if err != nil {
			return apperr.Internal("visibility check failed", err)
		}
		if blocked[owner.ID] {
			return apperr.Forbidden(apperr.ReasonBlockedUser, "user is blocked")
		}
	}

	return nil
}

// CanViewUserID loads the owning account and applies CanViewUser
func (s *VisibilityService) CanViewUserID(ctx context.Context, viewerID, ownerID primitive.ObjectID) (*models.User, error) {
	owner, err := s.users.GetUserByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if err := s.CanViewUser(ctx, viewerID, owner); err != nil {
		return nil, err
	}
	return owner, nil
}

// FilterBlocked removes candidates with a blocked relationship toward the
// viewer in either direction, preserving order. The batch form used inside
// list pipelines: invisible items are omitted, never an error.
func (s *VisibilityService) FilterBlocked(ctx context.Context, viewerID primitive.ObjectID, candidates []primitive.ObjectID) ([]primitive.ObjectID, error) {
	if viewerID.IsZero() || len(candidates) == 0 {
		return candidates, nil
	}
	blocked, err := s.relationships.BlockedPeers(ctx, viewerID, candidates)
	if err != nil {
		return nil, err
	}
	if len(blocked) == 0 {
		return candidates, nil
	}
	out := make([]primitive.ObjectID, 0, len(candidates))
	for _, id := range candidates {
		if !blocked[id] {
			out = append(out, id)
		}
	}
	return out, nil
}

// AncestorAuthors walks the reply-ancestor chain of a comment and returns the
// authors encountered, starting with the comment's own, plus the chain depth.
// Redacted (deleted) authors are skipped. The walk is bounded by
// maxReplyDepth.
func (s *VisibilityService) AncestorAuthors(ctx context.Context, comment *models.Comment) ([]primitive.ObjectID, int, error) {
	var authors []primitive.ObjectID
	if comment.DeletedAt == nil && !comment.UserID.IsZero() {
		authors = append(authors, comment.UserID)
	}

	depth := 0
	current := comment
	for current.ParentID != nil && depth < maxReplyDepth {
		parent, err := s.comments.GetCommentByID(ctx, *current.ParentID)
		if err != nil {
			if apperr.IsKind(err, apperr.KindNotFound) {
				break
			}
			return nil, 0, err
		}
		depth++
		if parent.DeletedAt == nil && !parent.UserID.IsZero() {
			authors = append(authors, parent.UserID)
		}
		current = parent
	}
	return authors, depth, nil
}

// CanViewComment applies the thread rule: a reply is hidden from the viewer
// if any ancestor comment's author blocks (or is blocked by) the viewer, not
// just the immediate one. One batch membership check covers the whole chain.
func (s *VisibilityService) CanViewComment(ctx context.Context, viewerID primitive.ObjectID, comment *models.Comment) error {
	if viewerID.IsZero() {
		return nil
	}
	authors, _, err := s.AncestorAuthors(ctx, comment)
	if err != nil {
		return apperr.Internal("visibility check failed", err)
	}
	visible, err := s.FilterBlocked(ctx, viewerID, authors)
	if err != nil {
		return apperr.Internal("visibility check failed", err)
	}
	if len(visible) != len(authors) {
		return apperr.Forbidden(apperr.ReasonBlockedUser, "comment thread includes a blocked user")
	}
	return nil
}
