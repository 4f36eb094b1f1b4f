package middleware

import (
	"net/http"
	"os"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tidemarkhq/ripple/backend/internal/models"
)

// JWTAuthMiddleware is the local-token fallback used when Firebase is not
// configured (development and tests). Tokens carry the profile id directly,
// so no store lookup happens here.
func JWTAuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, err := bearerToken(c)
			if err != nil {
				return err
			}

			jwtSecret := os.Getenv("JWT_SECRET")
			if jwtSecret == "" {
				return echo.NewHTTPError(http.StatusInternalServerError, "JWT secret not configured")
			}

			claims := &models.JwtCustomClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.NewHTTPError(http.StatusUnauthorized, "Unexpected signing method")
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			userID, err := primitive.ObjectIDFromHex(claims.UserID)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token subject")
			}
			c.Set("userID", userID)
			return next(c)
		}
	}
}

// OptionalJWTAuthMiddleware mirrors OptionalFirebaseAuthMiddleware for the
// local-token fallback.
func OptionalJWTAuthMiddleware() echo.MiddlewareFunc {
	required := JWTAuthMiddleware()
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get("Authorization") == "" {
				return next(c)
			}
			return required(next)(c)
		}
	}
}
