package handlers

import (
	"net/http"
	"strconv"

	"github.com/anonto42/farmfeed/backend/internal/models"
	"github.com/anonto42/farmfeed/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// UserHandler handles HTTP requests related to user profiles
type UserHandler struct {
	userRepository repositories.UserRepository
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo repositories.UserRepository) *UserHandler {
	return &UserHandler{userRepository: userRepo}
}

// RegisterProfileRoutes registers user profile-related routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)
	g.PUT("/profile", h.UpdateProfile)
	g.GET("/users/:id", h.GetUser)
}

// GetUser returns the public summary of another user
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}
	user, err := h.userRepository.GetUserByID(c.Request().Context(), uint(id))
	if err != nil {
		return serviceError(err)
	}
	return respond(c, http.StatusOK, "User retrieved successfully", user.ToCompact())
}

// GetProfile retrieves the authenticated user's profile
func (h *UserHandler) GetProfile(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	user, err := h.userRepository.GetUserByID(c.Request().Context(), userID)
	if err != nil {
		return serviceError(err)
	}
	return respond(c, http.StatusOK, "Profile retrieved successfully", user)
}

// UpdateProfile updates the editable fields of the authenticated user's profile
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}

	var req models.UpdateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	user, err := h.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		return serviceError(err)
	}

	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Bio != nil {
		user.Bio = optional(*req.Bio)
	}
	if req.ProfilePhoto != nil {
		user.ProfilePhoto = optional(*req.ProfilePhoto)
	}
	if req.BusinessName != nil {
		user.BusinessName = optional(*req.BusinessName)
	}
	if req.BusinessSSMNo != nil {
		user.BusinessSSMNo = optional(*req.BusinessSSMNo)
	}

	if err := h.userRepository.UpdateUser(ctx, user); err != nil {
		return serviceError(err)
	}
	return respond(c, http.StatusOK, "Profile updated successfully", user)
}
