package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tidemarkhq/ripple/backend/internal/models"
	"github.com/tidemarkhq/ripple/backend/internal/services"
)

// ReactionHandler handles HTTP requests for post and comment reactions
type ReactionHandler struct {
	reactions *services.ReactionService
}

// NewReactionHandler creates a new ReactionHandler
func NewReactionHandler(reactions *services.ReactionService) *ReactionHandler {
	return &ReactionHandler{reactions: reactions}
}

// RegisterReactionRoutes registers reaction routes
func (h *ReactionHandler) RegisterReactionRoutes(g *echo.Group) {
	g.PUT("/posts/:id/reaction", h.ReactToPost)
	g.DELETE("/posts/:id/reaction", h.UnreactToPost)
	g.PUT("/comments/:id/reaction", h.ReactToComment)
	g.DELETE("/comments/:id/reaction", h.UnreactToComment)
}

// ReactToPost sets the caller's reaction on a post. Re-sending the same
// reaction is a no-op; sending the other kind swaps it.
func (h *ReactionHandler) ReactToPost(c echo.Context) error {
	return h.react(c, models.TargetPost)
}

// UnreactToPost removes the caller's reaction from a post
func (h *ReactionHandler) UnreactToPost(c echo.Context) error {
	return h.unreact(c, models.TargetPost)
}

// ReactToComment sets the caller's reaction on a comment
func (h *ReactionHandler) ReactToComment(c echo.Context) error {
	return h.react(c, models.TargetComment)
}

// UnreactToComment removes the caller's reaction from a comment
func (h *ReactionHandler) UnreactToComment(c echo.Context) error {
	return h.unreact(c, models.TargetComment)
}

func (h *ReactionHandler) react(c echo.Context, targetType string) error {
	userID, err := requireViewer(c)
	if err != nil {
		return err
	}
	targetID, err := parseObjectID(c, "id")
	if err != nil {
		return err
	}

	var req models.ReactRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.reactions.React(c.Request().Context(), userID, targetType, targetID, req.Type); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"type": req.Type})
}

func (h *ReactionHandler) unreact(c echo.Context, targetType string) error {
	userID, err := requireViewer(c)
	if err != nil {
		return err
	}
	var targetID primitive.ObjectID
	if targetID, err = parseObjectID(c, "id"); err != nil {
		return err
	}

	if err := h.reactions.Unreact(c.Request().Context(), userID, targetType, targetID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
