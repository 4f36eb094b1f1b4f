package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tidemarkhq/ripple/backend/internal/models"
	"github.com/tidemarkhq/ripple/backend/internal/repositories"
	"github.com/tidemarkhq/ripple/backend/internal/services"
)

// SavedPostHandler handles HTTP requests for bookmarking posts
type SavedPostHandler struct {
	saves repositories.SavedPostRepository
	posts *services.PostService
}

// NewSavedPostHandler creates a new SavedPostHandler
func NewSavedPostHandler(saves repositories.SavedPostRepository, posts *services.PostService) *SavedPostHandler {
	return &SavedPostHandler{saves: saves, posts: posts}
}

// RegisterSavedPostRoutes registers save routes
func (h *SavedPostHandler) RegisterSavedPostRoutes(g *echo.Group) {
	g.PUT("/posts/:id/save", h.SavePost)
	g.DELETE("/posts/:id/save", h.UnsavePost)
	g.GET("/saved-posts", h.ListSavedPosts)
}

// SavePost bookmarks a post, optionally into a collection. Saving the same
// post twice into the same collection is a conflict.
func (h *SavedPostHandler) SavePost(c echo.Context) error {
	userID, err := requireViewer(c)
	if err != nil {
		return err
	}
	postID, err := parseObjectID(c, "id")
	if err != nil {
		return err
	}

	var req models.SavePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	// the visibility gate also rejects posts of private or blocking authors
	post, err := h.posts.Get(c.Request().Context(), userID, postID)
	if err != nil {
		return httpError(err)
	}
	if post.DeletedAt != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}

	saved := &models.SavedPost{
		UserID: userID.Hex(),
		PostID: postID.Hex(),
	}
	if req.CollectionID != "" {
		saved.CollectionID = &req.CollectionID
	}
	if err := h.saves.SavePost(saved); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, saved)
}

// UnsavePost removes a bookmark. The collection_id query param selects which
// copy; absent means the quick save.
func (h *SavedPostHandler) UnsavePost(c echo.Context) error {
	userID, err := requireViewer(c)
	if err != nil {
		return err
	}
	postID, err := parseObjectID(c, "id")
	if err != nil {
		return err
	}

	var collectionID *string
	if v := c.QueryParam("collection_id"); v != "" {
		collectionID = &v
	}
	if err := h.saves.UnsavePost(userID.Hex(), postID.Hex(), collectionID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListSavedPosts lists the caller's saved posts, most recently saved first
func (h *SavedPostHandler) ListSavedPosts(c echo.Context) error {
	userID, err := requireViewer(c)
	if err != nil {
		return err
	}
	cursor, limit, err := pageQuery(c)
	if err != nil {
		return err
	}

	page, next, err := h.posts.ListSaved(c.Request().Context(), userID, cursor, limit)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, newPage(page, next))
}
