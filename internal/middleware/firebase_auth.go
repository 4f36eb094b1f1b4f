package middleware

import (
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"

	"github.com/tidemarkhq/ripple/backend/internal/apperr"
	"github.com/tidemarkhq/ripple/backend/internal/repositories"
)

// FirebaseAuthMiddleware verifies a Firebase ID token and resolves the
// caller's profile document, storing its id under "userID". A verified
// identity whose profile does not exist yet (or was deleted) passes through
// with only "firebaseUID" set, which is exactly what the profile-provisioning
// route needs; every other route rejects such callers downstream.
func FirebaseAuthMiddleware(authClient *auth.Client, users repositories.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			idToken, err := bearerToken(c)
			if err != nil {
				return err
			}

			token, err := authClient.VerifyIDToken(c.Request().Context(), idToken)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired ID token")
			}
			c.Set("firebaseUID", token.UID)

			user, err := users.GetUserByFirebaseUID(c.Request().Context(), token.UID)
			if err != nil {
				if apperr.IsKind(err, apperr.KindNotFound) {
					return next(c)
				}
				return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
			}
			if user.DeletedAt == nil {
				c.Set("userID", user.ID)
			}
			return next(c)
		}
	}
}

// OptionalFirebaseAuthMiddleware is the anonymous-friendly variant for read
// routes: no Authorization header means an anonymous viewer, a present header
// must still verify.
func OptionalFirebaseAuthMiddleware(authClient *auth.Client, users repositories.UserRepository) echo.MiddlewareFunc {
	required := FirebaseAuthMiddleware(authClient, users)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get("Authorization") == "" {
				return next(c)
			}
			return required(next)(c)
		}
	}
}

func bearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Authorization header is missing")
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Authorization header must be in Bearer format")
	}
	return parts[1], nil
}
