package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/anonto42/farmfeed/backend/internal/models"
	"github.com/anonto42/farmfeed/backend/internal/repositories"
	"github.com/anonto42/farmfeed/backend/pkg/firebase"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	userRepository repositories.UserRepository
	firebaseAuth   firebase.TokenVerifier // nil when Firebase is not configured
	jwtSecret      string
	jwtTTL         time.Duration
	logger         *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(userRepo repositories.UserRepository, firebaseAuth firebase.TokenVerifier, jwtSecret string, jwtTTL time.Duration, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		userRepository: userRepo,
		firebaseAuth:   firebaseAuth,
		jwtSecret:      jwtSecret,
		jwtTTL:         jwtTTL,
		logger:         logger,
	}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
	g.POST("/firebase-login", h.FirebaseLogin)
}

// RegisterSessionRoutes registers routes that need an authenticated caller
func (h *AuthHandler) RegisterSessionRoutes(g *echo.Group) {
	g.POST("/auth/logout", h.Logout)
}

type authPayload struct {
	Token string             `json:"token"`
	User  models.UserCompact `json:"user"`
}

// Register handles local registration
func (h *AuthHandler) Register(c echo.Context) error {
	var req models.RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	email := strings.ToLower(req.Email)

	// the unique indexes still decide concurrent registrations; CreateUser maps them to ErrUserExists
	taken, err := h.userRepository.IdentityTaken(ctx, req.Username, email, req.PhoneNo, req.ICNo)
	if err != nil {
		return serviceError(err)
	}
	if taken {
		return echo.NewHTTPError(http.StatusConflict, identityTakenMessage)
	}

	dob, err := time.Parse("2006-01-02", req.DOB)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "ent_dob must match 2006-01-02")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return serviceError(err)
	}

	user := &models.User{
		FullName:      req.FullName,
		Username:      req.Username,
		Email:         email,
		PhoneNo:       &req.PhoneNo,
		ICNo:          &req.ICNo,
		DOB:           &dob,
		BusinessName:  optional(req.BusinessName),
		BusinessSSMNo: optional(req.BusinessSSMNo),
		Password:      string(hashedPassword),
	}
	if err := h.userRepository.CreateUser(ctx, user); err != nil {
		return serviceError(err)
	}

	return h.issue(c, http.StatusCreated, "Registration successful", user)
}

// Login handles username/password authentication
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.userRepository.GetUserByUsername(c.Request().Context(), req.Username)
	if errors.Is(err, repositories.ErrUserNotFound) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid username or password")
	}
	if err != nil {
		return serviceError(err)
	}

	if user.Password == "" || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid username or password")
	}

	return h.issue(c, http.StatusOK, "Login successful", user)
}

// FirebaseLogin verifies a Firebase ID token, links or creates the user and issues a local JWT
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	if h.firebaseAuth == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Firebase login is not configured")
	}

	var req models.FirebaseLoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	token, err := h.firebaseAuth.VerifyIDToken(ctx, req.IDToken)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Firebase ID token")
	}

	firebaseUID := token.UID
	email, _ := token.Claims["email"].(string)
	name, _ := token.Claims["name"].(string)
	emailVerified, _ := token.Claims["email_verified"].(bool)
	if email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Firebase account has no email")
	}
	email = strings.ToLower(email)

	user, err := h.userRepository.GetUserByFirebaseUID(ctx, firebaseUID)
	switch {
	case err == nil:
		// known account
	case errors.Is(err, repositories.ErrUserNotFound):
		// linking or creating by email requires a verified address
		if !emailVerified {
			return echo.NewHTTPError(http.StatusUnauthorized, "Firebase email is not verified")
		}
		user, err = h.userRepository.GetUserByEmail(ctx, email)
		switch {
		case err == nil:
			if user.FirebaseUID != nil {
				return echo.NewHTTPError(http.StatusConflict, "Account is already linked to another Firebase user")
			}
			user.FirebaseUID = &firebaseUID
			if err := h.userRepository.UpdateUser(ctx, user); err != nil {
				return serviceError(err)
			}
		case errors.Is(err, repositories.ErrUserNotFound):
			if name == "" {
				name = strings.SplitN(email, "@", 2)[0]
			}
			user = &models.User{
				FullName:    name,
				Username:    "fb_" + firebaseUID,
				Email:       email,
				FirebaseUID: &firebaseUID,
			}
			if err := h.userRepository.CreateUser(ctx, user); err != nil {
				return serviceError(err)
			}
			h.logger.Info("created user from firebase login", zap.Uint("user_id", user.ID))
		default:
			return serviceError(err)
		}
	default:
		return serviceError(err)
	}

	return h.issue(c, http.StatusOK, "Login successful", user)
}

// Logout ends every session of the caller. Firebase ID tokens are not
// revoked here; they expire on Firebase's own schedule.
func (h *AuthHandler) Logout(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	if err := h.userRepository.BumpSessionVersion(c.Request().Context(), userID); err != nil {
		return serviceError(err)
	}
	return respond(c, http.StatusOK, "Logged out successfully", nil)
}

func (h *AuthHandler) issue(c echo.Context, code int, message string, user *models.User) error {
	token, err := h.generateJWT(user)
	if err != nil {
		return serviceError(err)
	}
	return respond(c, code, message, authPayload{Token: token, User: user.ToCompact()})
}

// generateJWT generates a JWT token for a given user
func (h *AuthHandler) generateJWT(user *models.User) (string, error) {
	now := time.Now()
	claims := &models.JwtCustomClaims{
		UserID:         user.ID,
		Username:       user.Username,
		SessionVersion: user.SessionVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(h.jwtTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.jwtSecret))
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
