package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/tidemarkhq/ripple/backend/internal/pagination"
	"github.com/tidemarkhq/ripple/backend/internal/repositories"
)

const (
	notificationPageSize = 30
	maxPageSize          = 50
)

// NotificationHandler handles HTTP requests for the notification inbox
type NotificationHandler struct {
	notifications repositories.NotificationRepository
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifications repositories.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.ListNotifications)
	g.GET("/notifications/unseen-count", h.UnseenCount)
	g.PUT("/notifications/:id/seen", h.MarkSeen)
	g.PUT("/notifications/seen", h.MarkAllSeen)
}

// ListNotifications lists the caller's notifications, newest first
func (h *NotificationHandler) ListNotifications(c echo.Context) error {
	userID, err := requireViewer(c)
	if err != nil {
		return err
	}
	cursor, requested, err := pageQuery(c)
	if err != nil {
		return err
	}
	limit := pagination.Limit(requested, notificationPageSize, maxPageSize)

	page, err := h.notifications.List(userID.Hex(), cursor, limit)
	if err != nil {
		return httpError(err)
	}
	var next *pagination.Cursor
	if len(page) == limit {
		last := page[len(page)-1]
		next = pagination.NextTimeCursor(len(page), limit, last.CreatedAt, strconv.FormatUint(uint64(last.ID), 10))
	}
	return c.JSON(http.StatusOK, newPage(page, next))
}

// UnseenCount returns the number of unseen notifications
func (h *NotificationHandler) UnseenCount(c echo.Context) error {
	userID, err := requireViewer(c)
	if err != nil {
		return err
	}

	count, err := h.notifications.UnseenCount(userID.Hex())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]int64{"unseen": count})
}

// MarkSeen marks one notification as seen
func (h *NotificationHandler) MarkSeen(c echo.Context) error {
	userID, err := requireViewer(c)
	if err != nil {
		return err
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid id")
	}

	if err := h.notifications.MarkSeen(uint(id), userID.Hex()); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// MarkAllSeen marks every unseen notification of the caller as seen
func (h *NotificationHandler) MarkAllSeen(c echo.Context) error {
	userID, err := requireViewer(c)
	if err != nil {
		return err
	}

	if err := h.notifications.MarkAllSeen(userID.Hex()); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
