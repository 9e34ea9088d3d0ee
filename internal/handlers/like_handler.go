package handlers

import (
	"net/http"

	"github.com/anonto42/farmfeed/backend/internal/models"
	"github.com/anonto42/farmfeed/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// LikeHandler handles likes and views
type LikeHandler struct {
	engagement *services.EngagementService
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(engagement *services.EngagementService) *LikeHandler {
	return &LikeHandler{engagement: engagement}
}

// RegisterLikeRoutes registers engagement routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/posts/like", h.LikePost)
	g.POST("/posts/view", h.ViewPost)
}

// LikePost sets the caller's like state; repeating the current state succeeds
func (h *LikeHandler) LikePost(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}

	var req models.LikePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	out, err := h.engagement.SetLiked(c.Request().Context(), req.PostID, userID, *req.IsLiked)
	if err != nil {
		return serviceError(err)
	}
	return respond(c, http.StatusOK, out.Message, out)
}

// ViewPost counts one view of a post
func (h *LikeHandler) ViewPost(c echo.Context) error {
	if _, err := getUserIDFromContext(c); err != nil {
		return err
	}

	var req models.ViewPostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.engagement.RecordView(c.Request().Context(), req.PostID); err != nil {
		return serviceError(err)
	}
	return respond(c, http.StatusOK, "View count incremented", nil)
}
