package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/anonto42/farmfeed/backend/internal/models"
	"github.com/anonto42/farmfeed/backend/internal/repositories"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

// ContextUserKey is the echo context key holding *models.JwtCustomClaims
const ContextUserKey = "user"

// JWTAuthMiddleware checks for a valid JWT from a live session and extracts user claims.
func JWTAuthMiddleware(secret string, users repositories.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, err := bearerToken(c)
			if err != nil {
				return err
			}

			claims, err := ParseToken(tokenString, secret)
			if err != nil {
				if errors.Is(err, jwt.ErrSignatureInvalid) {
					return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token signature")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}
			if err := checkSession(c.Request().Context(), users, claims); err != nil {
				return err
			}

			c.Set(ContextUserKey, claims)
			return next(c)
		}
	}
}

// checkSession rejects tokens of deleted users and tokens issued before the user's last logout
func checkSession(ctx context.Context, users repositories.UserRepository, claims *models.JwtCustomClaims) error {
	user, err := users.GetUserByID(ctx, claims.UserID)
	if errors.Is(err, repositories.ErrUserNotFound) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Session has ended")
	}
	if err != nil {
		return err
	}
	if user.SessionVersion != claims.SessionVersion {
		return echo.NewHTTPError(http.StatusUnauthorized, "Session has ended")
	}
	return nil
}

// ParseToken validates an HS256 token signed with secret and returns its claims
func ParseToken(tokenString, secret string) (*models.JwtCustomClaims, error) {
	claims := &models.JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == 0 {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// Expecting "Bearer <token>"
func bearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Missing Authorization header")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization header format")
	}
	return parts[1], nil
}
