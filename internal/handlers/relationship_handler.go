package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tidemarkhq/ripple/backend/internal/models"
	"github.com/tidemarkhq/ripple/backend/internal/services"
)

// RelationshipHandler handles HTTP requests for follow and block edges
type RelationshipHandler struct {
	relationships *services.RelationshipService
}

// NewRelationshipHandler creates a new RelationshipHandler
func NewRelationshipHandler(relationships *services.RelationshipService) *RelationshipHandler {
	return &RelationshipHandler{relationships: relationships}
}

// RegisterRelationshipRoutes registers follow and block routes
func (h *RelationshipHandler) RegisterRelationshipRoutes(g *echo.Group) {
	g.POST("/users/:id/follow", h.Follow)
	g.DELETE("/users/:id/follow", h.Unfollow)
	g.DELETE("/users/:id/follow-request", h.Withdraw)
	g.POST("/users/:id/block", h.Block)
	g.DELETE("/users/:id/block", h.Unblock)
	g.GET("/users/:id/followers", h.Followers)
	g.GET("/users/:id/following", h.Following)
	g.GET("/follow-requests", h.PendingRequests)
	g.POST("/follow-requests/:id/accept", h.Accept)
	g.POST("/follow-requests/:id/reject", h.Reject)
}

// Follow creates a follow edge toward the target user. The response status is
// "accepted" for public targets and "requested" for private ones.
func (h *RelationshipHandler) Follow(c echo.Context) error {
	userID, err := requireViewer(c)
	if err != nil {
		return err
	}
	targetID, err := parseObjectID(c, "id")
	if err != nil {
		return err
	}

	status, err := h.relationships.Follow(c.Request().Context(), userID, targetID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, map[string]string{"status": status})
}

// Unfollow removes an accepted follow edge
func (h *RelationshipHandler) Unfollow(c echo.Context) error {
	userID, err := requireViewer(c)
	if err != nil {
		return err
	}
	targetID, err := parseObjectID(c, "id")
	if err != nil {
		return err
	}

	if err := h.relationships.Unfollow(c.Request().Context(), userID, targetID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Withdraw cancels the caller's own pending follow request
func (h *RelationshipHandler) Withdraw(c echo.Context) error {
	userID, err := requireViewer(c)
	if err != nil {
		return err
	}
	targetID, err := parseObjectID(c, "id")
	if err != nil {
		return err
	}

	if err := h.relationships.Withdraw(c.Request().Context(), userID, targetID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Accept approves a pending follow request addressed to the caller
func (h *RelationshipHandler) Accept(c echo.Context) error {
	userID, err := requireViewer(c)
	if err != nil {
		return err
	}
	requesterID, err := parseObjectID(c, "id")
	if err != nil {
		return err
	}

	if err := h.relationships.Accept(c.Request().Context(), userID, requesterID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Reject declines a pending follow request addressed to the caller
func (h *RelationshipHandler) Reject(c echo.Context) error {
	userID, err := requireViewer(c)
	if err != nil {
		return err
	}
	requesterID, err := parseObjectID(c, "id")
	if err != nil {
		return err
	}

	if err := h.relationships.Reject(c.Request().Context(), userID, requesterID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Block blocks the target user, severing any follow edges between the two
func (h *RelationshipHandler) Block(c echo.Context) error {
	userID, err := requireViewer(c)
	if err != nil {
		return err
	}
	targetID, err := parseObjectID(c, "id")
	if err != nil {
		return err
	}

	if err := h.relationships.Block(c.Request().Context(), userID, targetID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Unblock removes the caller's block on the target user
func (h *RelationshipHandler) Unblock(c echo.Context) error {
	userID, err := requireViewer(c)
	if err != nil {
		return err
	}
	targetID, err := parseObjectID(c, "id")
	if err != nil {
		return err
	}

	if err := h.relationships.Unblock(c.Request().Context(), userID, targetID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Followers lists the accepted followers of a user
func (h *RelationshipHandler) Followers(c echo.Context) error {
	ownerID, err := parseObjectID(c, "id")
	if err != nil {
		return err
	}
	cursor, limit, err := pageQuery(c)
	if err != nil {
		return err
	}

	users, next, err := h.relationships.Followers(c.Request().Context(), viewerID(c), ownerID, cursor, limit)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, newPage(compactUsers(users), next))
}

// Following lists the users a user has an accepted follow toward
func (h *RelationshipHandler) Following(c echo.Context) error {
	ownerID, err := parseObjectID(c, "id")
	if err != nil {
		return err
	}
	cursor, limit, err := pageQuery(c)
	if err != nil {
		return err
	}

	users, next, err := h.relationships.Following(c.Request().Context(), viewerID(c), ownerID, cursor, limit)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, newPage(compactUsers(users), next))
}

// PendingRequests lists the follow requests awaiting the caller's decision
func (h *RelationshipHandler) PendingRequests(c echo.Context) error {
	userID, err := requireViewer(c)
	if err != nil {
		return err
	}
	cursor, limit, err := pageQuery(c)
	if err != nil {
		return err
	}

	users, next, err := h.relationships.PendingRequests(c.Request().Context(), userID, cursor, limit)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, newPage(compactUsers(users), next))
}

func compactUsers(users []models.User) []models.UserCompact {
	out := make([]models.UserCompact, 0, len(users))
	for i := range users {
		out = append(out, users[i].ToCompact())
	}
	return out
}
