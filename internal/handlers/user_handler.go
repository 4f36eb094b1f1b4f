package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tidemarkhq/ripple/backend/internal/models"
	"github.com/tidemarkhq/ripple/backend/internal/services"
)

// UserHandler handles HTTP requests related to user profiles
type UserHandler struct {
	users *services.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// RegisterUserRoutes registers profile routes on the authenticated group
func (h *UserHandler) RegisterUserRoutes(g *echo.Group) {
	g.POST("/users", h.CreateProfile)
	g.GET("/users/me", h.Me)
	g.PUT("/users/me", h.UpdateMe)
	g.DELETE("/users/me", h.DeleteAccount)
}

// RegisterPublicUserRoutes registers profile routes readable without
// authentication
func (h *UserHandler) RegisterPublicUserRoutes(g *echo.Group) {
	g.GET("/users/:id", h.Profile)
	g.GET("/users", h.Search)
}

// CreateProfile provisions a profile for the authenticated identity. Unlike
// the other authenticated routes it only needs the verified token, since the
// profile document does not exist yet.
func (h *UserHandler) CreateProfile(c echo.Context) error {
	firebaseUID, ok := c.Get("firebaseUID").(string)
	if !ok || firebaseUID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}

	var req models.CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.users.CreateProfile(c.Request().Context(), firebaseUID, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, user)
}

// Me returns the caller's own profile
func (h *UserHandler) Me(c echo.Context) error {
	userID, err := requireViewer(c)
	if err != nil {
		return err
	}

	user, err := h.users.Me(c.Request().Context(), userID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateMe edits the caller's own profile
func (h *UserHandler) UpdateMe(c echo.Context) error {
	userID, err := requireViewer(c)
	if err != nil {
		return err
	}

	var req models.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.users.UpdateMe(c.Request().Context(), userID, req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// Profile returns another user's profile with the caller's relation to them
func (h *UserHandler) Profile(c echo.Context) error {
	targetID, err := parseObjectID(c, "id")
	if err != nil {
		return err
	}

	user, relation, err := h.users.Profile(c.Request().Context(), viewerID(c), targetID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"user":     user,
		"relation": relation,
	})
}

// Search finds users by name prefix
func (h *UserHandler) Search(c echo.Context) error {
	users, err := h.users.Search(c.Request().Context(), viewerID(c), c.QueryParam("q"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, compactUsers(users))
}

// DeleteAccount tombstones the caller's account and cascades the cleanup
func (h *UserHandler) DeleteAccount(c echo.Context) error {
	userID, err := requireViewer(c)
	if err != nil {
		return err
	}

	if err := h.users.DeleteAccount(c.Request().Context(), userID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
