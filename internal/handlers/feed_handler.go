package handlers

import (
	"net/http"

	"github.com/anonto42/farmfeed/backend/internal/models"
	"github.com/anonto42/farmfeed/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// FeedHandler serves the post feed and the new-post notification
type FeedHandler struct {
	feed *services.FeedService
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(feed *services.FeedService) *FeedHandler {
	return &FeedHandler{feed: feed}
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.POST("/posts/list", h.ListPosts)
	g.GET("/posts/new-count", h.NewPostsCount)
}

// ListPosts returns the feed for the caller
func (h *FeedHandler) ListPosts(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}

	var req models.ListPostsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	posts, err := h.feed.ListPosts(c.Request().Context(), services.FeedQuery{
		ViewerID:     userID,
		PostType:     models.PostType(req.PostType),
		SpecificUser: req.SpecificUser,
		TargetUserID: req.TargetUserID,
		Page:         req.Page,
		Limit:        req.Limit,
	})
	if err != nil {
		return serviceError(err)
	}
	return respond(c, http.StatusOK, "Posts retrieved successfully", posts)
}

// NewPostsCount reports posts verified since the caller last loaded the feed
func (h *FeedHandler) NewPostsCount(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}

	notice, err := h.feed.CountNewPosts(c.Request().Context(), userID)
	if err != nil {
		return serviceError(err)
	}
	if !notice.HasNotification {
		return respond(c, http.StatusOK, notice.Message, nil)
	}
	return respond(c, http.StatusOK, notice.Message, notice)
}
