package handlers

import (
	"net/http"
	"strconv"

	"github.com/anonto42/farmfeed/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// VerificationHandler exposes post moderation
type VerificationHandler struct {
	verification *services.VerificationService
}

// NewVerificationHandler creates a new VerificationHandler
func NewVerificationHandler(verification *services.VerificationService) *VerificationHandler {
	return &VerificationHandler{verification: verification}
}

// RegisterVerificationRoutes registers moderation routes
func (h *VerificationHandler) RegisterVerificationRoutes(g *echo.Group) {
	g.POST("/posts/verify/:id", h.VerifyPost)
	g.GET("/posts/verify/:id/history", h.History)
}

// VerifyPost runs the caller's post through moderation.
// Verified, Failed and AlreadyReviewed all answer 200.
func (h *VerificationHandler) VerifyPost(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	postID, err := postIDParam(c)
	if err != nil {
		return err
	}

	res, err := h.verification.Verify(c.Request().Context(), postID, userID)
	if err != nil {
		return serviceError(err)
	}
	return respond(c, http.StatusOK, res.Message, res)
}

// History lists past moderation reviews of the caller's post, newest first
func (h *VerificationHandler) History(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	postID, err := postIDParam(c)
	if err != nil {
		return err
	}

	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	if limit <= 0 || limit > 100 {
		limit = 20 // Default limit
	}

	reviews, err := h.verification.History(c.Request().Context(), postID, userID, limit)
	if err != nil {
		return serviceError(err)
	}
	return respond(c, http.StatusOK, "Review history retrieved successfully", reviews)
}
