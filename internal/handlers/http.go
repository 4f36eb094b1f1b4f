package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tidemarkhq/ripple/backend/internal/apperr"
	"github.com/tidemarkhq/ripple/backend/internal/pagination"
)

// contextUserID is the key under which the auth middleware stores the
// resolved viewer id.
const contextUserID = "userID"

// viewerID returns the authenticated viewer's id, or the zero ObjectID for
// anonymous requests on optionally-authenticated routes.
func viewerID(c echo.Context) primitive.ObjectID {
	id, ok := c.Get(contextUserID).(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID
	}
	return id
}

func requireViewer(c echo.Context) (primitive.ObjectID, error) {
	id := viewerID(c)
	if id.IsZero() {
		return primitive.NilObjectID, echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}
	return id, nil
}

func parseObjectID(c echo.Context, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		return primitive.NilObjectID, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+name)
	}
	return id, nil
}

// pageQuery reads the cursor token and requested page size from the query
// string. Limit clamping happens in the services.
func pageQuery(c echo.Context) (*pagination.Cursor, int, error) {
	cursor, err := pagination.Decode(c.QueryParam("cursor"))
	if err != nil {
		return nil, 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid cursor")
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	return cursor, limit, nil
}

// pageResponse is the envelope every list endpoint returns. NextCursor is
// empty when the listing is terminal.
type pageResponse struct {
	Items      interface{} `json:"items"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

func newPage(items interface{}, next *pagination.Cursor) pageResponse {
	return pageResponse{Items: items, NextCursor: next.Encode()}
}

// httpError converts a service error to the HTTP response it maps to.
// Forbidden errors carry their reason code so clients can distinguish a
// private account from a block without leaking which applied at which step.
func httpError(err error) error {
	kind := apperr.KindOf(err)
	switch kind {
	case apperr.KindNotFound:
		return echo.NewHTTPError(http.StatusNotFound, apperr.Message(err))
	case apperr.KindConflict:
		return echo.NewHTTPError(http.StatusConflict, apperr.Message(err))
	case apperr.KindInvalidInput:
		return echo.NewHTTPError(http.StatusBadRequest, apperr.Message(err))
	case apperr.KindForbidden:
		return echo.NewHTTPError(http.StatusForbidden, map[string]string{
			"message": apperr.Message(err),
			"reason":  apperr.ReasonOf(err),
		})
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}
}
