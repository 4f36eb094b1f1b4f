package services

import (
	"context"
	"strconv"

	"github.com/tidemarkhq/ripple/backend/internal/apperr"
	"github.com/tidemarkhq/ripple/backend/internal/models"
	"github.com/tidemarkhq/ripple/backend/internal/pagination"
	"github.com/tidemarkhq/ripple/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Default and maximum page sizes for the list surfaces in this package.
const (
	postPageSize  = 20
	savedPageSize = 20
	maxListLimit  = 50
)

// EnrichedPost is a post with author info and viewer-specific flags. The
// flags come from separate queries and may trail the viewer's own latest
// action by one increment; the client heals that with its own optimistic
// delta.
type EnrichedPost struct {
	models.Post
	Author         models.UserCompact `json:"author"`
	ViewerReaction string             `json:"viewer_reaction,omitempty"`
	IsSaved        bool               `json:"is_saved"`
}

// PostService handles post creation, retrieval, deletion, author listings,
// the home feed and saved-post listings.
type PostService struct {
	posts         repositories.PostRepository
	users         repositories.UserRepository
	relationships repositories.RelationshipRepository
	reactions     repositories.ReactionRepository
	saves         repositories.SavedPostRepository
	visibility    *VisibilityService
	tx            repositories.TxRunner
}

// NewPostService creates a new PostService
func NewPostService(
	posts repositories.PostRepository,
	users repositories.UserRepository,
	relationships repositories.RelationshipRepository,
	reactions repositories.ReactionRepository,
	saves repositories.SavedPostRepository,
	visibility *VisibilityService,
	tx repositories.TxRunner,
) *PostService {
	return &PostService{
		posts:         posts,
		users:         users,
		relationships: relationships,
		reactions:     reactions,
		saves:         saves,
		visibility:    visibility,
		tx:            tx,
	}
}

// Create inserts the post and bumps the author's cached post counter in one
// transactional scope. Media references start in processing state; the
// pipeline reports their outcome later.
func (s *PostService) Create(ctx context.Context, userID primitive.ObjectID, req models.CreatePostRequest) (*models.Post, error) {
	post := &models.Post{UserID: userID, Content: req.Content}
	for _, url := range req.MediaURLs {
		post.Media = append(post.Media, models.MediaRef{URL: url, Status: models.MediaProcessing})
	}

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.posts.CreatePost(ctx, post); err != nil {
			return err
		}
		return s.users.IncrementPostsCount(ctx, userID, 1)
	})
	if err != nil {
		return nil, apperr.Classify(err, "post write failed")
	}
	return post, nil
}

// Get returns a single post. Soft-deleted posts come back redacted rather
// than hidden; live posts are gated by the owner's visibility rules.
func (s *PostService) Get(ctx context.Context, viewerID, postID primitive.ObjectID) (*EnrichedPost, error) {
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.DeletedAt == nil {
		if _, err := s.visibility.CanViewUserID(ctx, viewerID, post.UserID); err != nil {
			return nil, err
		}
	}
	enriched, err := s.enrich(ctx, viewerID, []models.Post{*post})
	if err != nil {
		return nil, err
	}
	return &enriched[0], nil
}

// Delete soft-deletes the user's own post and decrements their cached post
// counter in the same scope. Comments and reaction tallies stay intact.
func (s *PostService) Delete(ctx context.Context, userID, postID primitive.ObjectID) error {
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.posts.SoftDelete(ctx, postID, userID); err != nil {
			return err
		}
		return s.users.IncrementPostsCount(ctx, userID, -1)
	})
	return apperr.Classify(err, "post delete failed")
}

// UpdateMediaStatus records the media pipeline's outcome for one asset
func (s *PostService) UpdateMediaStatus(ctx context.Context, postID primitive.ObjectID, url, status string) error {
	return s.posts.UpdateMediaStatus(ctx, postID, url, status)
}

// ListByAuthor returns one page of an author's posts, newest first,
// visibility-gated against the viewer.
func (s *PostService) ListByAuthor(ctx context.Context, viewerID, authorID primitive.ObjectID, cursor *pagination.Cursor, limit int) ([]EnrichedPost, *pagination.Cursor, error) {
	limit = pagination.Limit(limit, postPageSize, maxListLimit)
	if _, err := s.visibility.CanViewUserID(ctx, viewerID, authorID); err != nil {
		return nil, nil, err
	}
	page, err := s.posts.ListByAuthors(ctx, []primitive.ObjectID{authorID}, cursor, limit)
	if err != nil {
		return nil, nil, apperr.Classify(err, "post listing failed")
	}
	return s.finishPage(ctx, viewerID, page, limit)
}

// Feed returns one page of the home feed: posts by the viewer and their
// accepted followings, newest first, block-filtered at the author level.
func (s *PostService) Feed(ctx context.Context, viewerID primitive.ObjectID, cursor *pagination.Cursor, limit int) ([]EnrichedPost, *pagination.Cursor, error) {
	limit = pagination.Limit(limit, postPageSize, maxListLimit)
	ids, err := s.relationships.FollowingIDs(ctx, viewerID, models.RelationAccepted)
	if err != nil {
		return nil, nil, apperr.Internal("following lookup failed", err)
	}
	ids, err = s.visibility.FilterBlocked(ctx, viewerID, ids)
	if err != nil {
		return nil, nil, apperr.Internal("block filter failed", err)
	}
	ids = append(ids, viewerID)

	page, err := s.posts.ListByAuthors(ctx, ids, cursor, limit)
	if err != nil {
		return nil, nil, apperr.Classify(err, "feed listing failed")
	}
	return s.finishPage(ctx, viewerID, page, limit)
}

// ListSaved returns one page of the user's saved posts, newest save first.
// Saves of posts whose author has since blocked the viewer are omitted;
// saves of deleted posts appear redacted.
func (s *PostService) ListSaved(ctx context.Context, userID primitive.ObjectID, cursor *pagination.Cursor, limit int) ([]EnrichedPost, *pagination.Cursor, error) {
	limit = pagination.Limit(limit, savedPageSize, maxListLimit)
	saved, err := s.saves.ListByUser(userID.Hex(), cursor, limit)
	if err != nil {
		return nil, nil, apperr.Classify(err, "saved listing failed")
	}

	var next *pagination.Cursor
	if len(saved) > 0 {
		last := saved[len(saved)-1]
		next = pagination.NextTimeCursor(len(saved), limit, last.CreatedAt, strconv.FormatUint(uint64(last.ID), 10))
	}

	ids := make([]primitive.ObjectID, 0, len(saved))
	for _, sp := range saved {
		id, err := primitive.ObjectIDFromHex(sp.PostID)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	posts, err := s.posts.PostsByIDs(ctx, ids)
	if err != nil {
		return nil, nil, apperr.Internal("saved post fetch failed", err)
	}

	// keep the save ordering
	byID := make(map[primitive.ObjectID]models.Post, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
	}
	ordered := make([]models.Post, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}

	// Deleted posts are kept (they come back redacted); live posts drop out
	// when a block now stands between viewer and author.
	authorSet := make(map[primitive.ObjectID]bool)
	authors := make([]primitive.ObjectID, 0, len(ordered))
	for _, p := range ordered {
		if p.DeletedAt != nil || authorSet[p.UserID] {
			continue
		}
		authorSet[p.UserID] = true
		authors = append(authors, p.UserID)
	}
	visible, err := s.visibility.FilterBlocked(ctx, userID, authors)
	if err != nil {
		return nil, nil, apperr.Internal("block filter failed", err)
	}
	visibleSet := make(map[primitive.ObjectID]bool, len(visible))
	for _, id := range visible {
		visibleSet[id] = true
	}
	kept := make([]models.Post, 0, len(ordered))
	for _, p := range ordered {
		if p.DeletedAt != nil || visibleSet[p.UserID] {
			kept = append(kept, p)
		}
	}

	enriched, err := s.enrich(ctx, userID, kept)
	if err != nil {
		return nil, nil, err
	}
	return enriched, next, nil
}

// finishPage derives the next cursor from the unfiltered page, then redacts
// and enriches what the viewer may see.
func (s *PostService) finishPage(ctx context.Context, viewerID primitive.ObjectID, page []models.Post, limit int) ([]EnrichedPost, *pagination.Cursor, error) {
	var next *pagination.Cursor
	if len(page) > 0 {
		last := page[len(page)-1]
		next = pagination.NextTimeCursor(len(page), limit, last.CreatedAt, last.ID.Hex())
	}
	enriched, err := s.enrich(ctx, viewerID, page)
	if err != nil {
		return nil, nil, err
	}
	return enriched, next, nil
}

func (s *PostService) enrich(ctx context.Context, viewerID primitive.ObjectID, page []models.Post) ([]EnrichedPost, error) {
	authorSet := make(map[primitive.ObjectID]bool)
	authors := make([]primitive.ObjectID, 0, len(page))
	postIDs := make([]primitive.ObjectID, 0, len(page))
	hexIDs := make([]string, 0, len(page))
	for i := range page {
		page[i].Redact()
		postIDs = append(postIDs, page[i].ID)
		hexIDs = append(hexIDs, page[i].ID.Hex())
		if id := page[i].UserID; !id.IsZero() && !authorSet[id] {
			authorSet[id] = true
			authors = append(authors, id)
		}
	}

	users, err := s.users.UsersByIDs(ctx, authors)
	if err != nil {
		return nil, apperr.Internal("author fetch failed", err)
	}
	userMap := make(map[primitive.ObjectID]models.UserCompact, len(users))
	for _, u := range users {
		userMap[u.ID] = u.ToCompact()
	}

	reactionTypes := map[primitive.ObjectID]string{}
	savedSet := map[string]bool{}
	if !viewerID.IsZero() {
		reactionTypes, err = s.reactions.TypesForTargets(ctx, viewerID, postIDs)
		if err != nil {
			return nil, apperr.Internal("reaction fetch failed", err)
		}
		savedSet, err = s.saves.SavedSet(viewerID.Hex(), hexIDs)
		if err != nil {
			return nil, apperr.Internal("saved fetch failed", err)
		}
	}

	enriched := make([]EnrichedPost, len(page))
	for i, p := range page {
		enriched[i] = EnrichedPost{
			Post:           p,
			Author:         userMap[p.UserID],
			ViewerReaction: reactionTypes[p.ID],
			IsSaved:        savedSet[p.ID.Hex()],
		}
	}
	return enriched, nil
}
