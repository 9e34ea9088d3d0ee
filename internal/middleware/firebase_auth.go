package middleware

import (
	"net/http"

	"github.com/anonto42/farmfeed/backend/internal/models"
	"github.com/anonto42/farmfeed/backend/internal/repositories"
	"github.com/anonto42/farmfeed/backend/pkg/firebase"
	"github.com/labstack/echo/v4"
)

// FirebaseAuthMiddleware accepts either a local JWT or a Firebase ID token.
// A Firebase token must belong to a user already linked through
// /auth/firebase-login; its claims are then stored like a local token's.
func FirebaseAuthMiddleware(secret string, verifier firebase.TokenVerifier, users repositories.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, err := bearerToken(c)
			if err != nil {
				return err
			}

			if claims, err := ParseToken(tokenString, secret); err == nil {
				if err := checkSession(c.Request().Context(), users, claims); err != nil {
					return err
				}
				c.Set(ContextUserKey, claims)
				return next(c)
			}

			ctx := c.Request().Context()
			token, err := verifier.VerifyIDToken(ctx, tokenString)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
			}

			user, err := users.GetUserByFirebaseUID(ctx, token.UID)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Firebase account is not linked")
			}

			c.Set("firebaseUID", token.UID)
			c.Set(ContextUserKey, &models.JwtCustomClaims{UserID: user.ID, Username: user.Username, SessionVersion: user.SessionVersion})
			return next(c)
		}
	}
}
