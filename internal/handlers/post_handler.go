package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tidemarkhq/ripple/backend/internal/models"
	"github.com/tidemarkhq/ripple/backend/internal/services"
)

// PostHandler handles HTTP requests related to posts and the home feed
type PostHandler struct {
	posts *services.PostService
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(posts *services.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

// RegisterPostRoutes registers post routes on the authenticated group
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.DELETE("/posts/:id", h.DeletePost)
	g.GET("/feed", h.Feed)
}

// RegisterPublicPostRoutes registers post routes readable by anonymous
// viewers of public accounts
func (h *PostHandler) RegisterPublicPostRoutes(g *echo.Group) {
	g.GET("/posts/:id", h.GetPost)
	g.GET("/users/:id/posts", h.ListByAuthor)
}

// RegisterMediaRoutes registers the callback the media pipeline invokes once
// an asset's processing resolves
func (h *PostHandler) RegisterMediaRoutes(g *echo.Group) {
	g.PUT("/posts/:id/media", h.UpdateMediaStatus)
}

// CreatePost creates a new post
func (h *PostHandler) CreatePost(c echo.Context) error {
	userID, err := requireViewer(c)
	if err != nil {
		return err
	}

	var req models.CreatePostRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	post, err := h.posts.Create(c.Request().Context(), userID, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, post)
}

// GetPost retrieves a post by ID. Soft-deleted posts come back redacted so
// their comment threads keep a stable anchor.
func (h *PostHandler) GetPost(c echo.Context) error {
	postID, err := parseObjectID(c, "id")
	if err != nil {
		return err
	}

	post, err := h.posts.Get(c.Request().Context(), viewerID(c), postID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, post)
}

// DeletePost soft-deletes the caller's own post
func (h *PostHandler) DeletePost(c echo.Context) error {
	userID, err := requireViewer(c)
	if err != nil {
		return err
	}
	postID, err := parseObjectID(c, "id")
	if err != nil {
		return err
	}

	if err := h.posts.Delete(c.Request().Context(), userID, postID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListByAuthor lists a user's posts, newest first
func (h *PostHandler) ListByAuthor(c echo.Context) error {
	authorID, err := parseObjectID(c, "id")
	if err != nil {
		return err
	}
	cursor, limit, err := pageQuery(c)
	if err != nil {
		return err
	}

	page, next, err := h.posts.ListByAuthor(c.Request().Context(), viewerID(c), authorID, cursor, limit)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, newPage(page, next))
}

// Feed returns the caller's home feed: posts from accepted followings plus
// their own, newest first
func (h *PostHandler) Feed(c echo.Context) error {
	userID, err := requireViewer(c)
	if err != nil {
		return err
	}
	cursor, limit, err := pageQuery(c)
	if err != nil {
		return err
	}

	page, next, err := h.posts.Feed(c.Request().Context(), userID, cursor, limit)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, newPage(page, next))
}

// UpdateMediaStatus records the outcome of media processing for one asset
func (h *PostHandler) UpdateMediaStatus(c echo.Context) error {
	postID, err := parseObjectID(c, "id")
	if err != nil {
		return err
	}

	var req models.UpdateMediaStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.posts.UpdateMediaStatus(c.Request().Context(), postID, req.URL, req.Status); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
