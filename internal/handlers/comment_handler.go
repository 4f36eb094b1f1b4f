package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tidemarkhq/ripple/backend/internal/models"
	"github.com/tidemarkhq/ripple/backend/internal/services"
)

// CommentHandler handles HTTP requests related to comments and replies
type CommentHandler struct {
	comments *services.CommentService
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(comments *services.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

// RegisterCommentRoutes registers comment routes on the authenticated group
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/posts/:id/comments", h.CreateComment)
	g.DELETE("/comments/:id", h.DeleteComment)
}

// RegisterPublicCommentRoutes registers comment listing routes
func (h *CommentHandler) RegisterPublicCommentRoutes(g *echo.Group) {
	g.GET("/posts/:id/comments", h.ListComments)
	g.GET("/comments/:id/replies", h.ListReplies)
}

// CreateComment creates a comment on a post, or a reply when the payload
// carries a parent_id
func (h *CommentHandler) CreateComment(c echo.Context) error {
	userID, err := requireViewer(c)
	if err != nil {
		return err
	}
	postID, err := parseObjectID(c, "id")
	if err != nil {
		return err
	}

	var req models.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	comment, err := h.comments.Create(c.Request().Context(), userID, postID, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, comment)
}

// DeleteComment soft-deletes the caller's own comment. The thread keeps the
// redacted placeholder so replies stay anchored.
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	userID, err := requireViewer(c)
	if err != nil {
		return err
	}
	commentID, err := parseObjectID(c, "id")
	if err != nil {
		return err
	}

	if err := h.comments.Delete(c.Request().Context(), userID, commentID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListComments lists the top-level comments of a post, newest first
func (h *CommentHandler) ListComments(c echo.Context) error {
	postID, err := parseObjectID(c, "id")
	if err != nil {
		return err
	}
	cursor, limit, err := pageQuery(c)
	if err != nil {
		return err
	}

	page, next, err := h.comments.ListByPost(c.Request().Context(), viewerID(c), postID, cursor, limit)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, newPage(page, next))
}

// ListReplies lists the direct replies of a comment, newest first
func (h *CommentHandler) ListReplies(c echo.Context) error {
	parentID, err := parseObjectID(c, "id")
	if err != nil {
		return err
	}
	cursor, limit, err := pageQuery(c)
	if err != nil {
		return err
	}

	page, next, err := h.comments.ListReplies(c.Request().Context(), viewerID(c), parentID, cursor, limit)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, newPage(page, next))
}
