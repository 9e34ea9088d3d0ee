package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/anonto42/farmfeed/backend/internal/models"
	"github.com/anonto42/farmfeed/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// MaxImageSize is the upload limit per image
const MaxImageSize = 10 << 20

// PostHandler handles HTTP requests related to authoring posts
type PostHandler struct {
	postService *services.PostService
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(postService *services.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.GET("/posts/:id", h.GetPost)
	g.PUT("/posts/:id", h.UpdatePost)
	g.DELETE("/posts/:id", h.DeletePost)
}

// CreatePost creates a new post from a multipart form with up to four images
func (h *PostHandler) CreatePost(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}

	var req models.CreatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	files, err := postImages(c)
	if err != nil {
		return err
	}
	if len(files) > models.MaxPostImages {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, fmt.Sprintf("post_images accepts at most %d files", models.MaxPostImages))
	}

	uploads := make([]services.ImageUpload, 0, len(files))
	for _, fh := range files {
		if fh.Size > MaxImageSize {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, fmt.Sprintf("%s is larger than 10 MB", fh.Filename))
		}
		f, err := fh.Open()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Unreadable image upload")
		}
		defer f.Close()

		upload, err := sniffImage(f)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Unreadable image upload")
		}
		if !services.AllowedImageType(upload.ContentType) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, fmt.Sprintf("%s must be a jpeg, png or gif image", fh.Filename))
		}
		uploads = append(uploads, upload)
	}

	post, err := h.postService.Create(c.Request().Context(), services.CreatePostInput{
		OwnerID:  userID,
		Caption:  req.Caption,
		Location: optional(req.Location),
		Type:     models.PostType(req.Type),
		Images:   uploads,
	})
	if err != nil {
		return serviceError(err)
	}
	return respond(c, http.StatusCreated, "Post created successfully", post)
}

// GetPost retrieves an active post by ID
func (h *PostHandler) GetPost(c echo.Context) error {
	postID, err := postIDParam(c)
	if err != nil {
		return err
	}

	post, err := h.postService.Get(c.Request().Context(), postID)
	if err != nil {
		return serviceError(err)
	}
	return respond(c, http.StatusOK, "Post retrieved successfully", post)
}

// UpdatePost edits the caption and location of the caller's post
func (h *PostHandler) UpdatePost(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	postID, err := postIDParam(c)
	if err != nil {
		return err
	}

	var req models.UpdatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	post, err := h.postService.Update(c.Request().Context(), postID, userID, req.Caption, req.Location)
	if err != nil {
		return serviceError(err)
	}
	return respond(c, http.StatusOK, "Post updated successfully", post)
}

// DeletePost soft-deletes the caller's post
func (h *PostHandler) DeletePost(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}
	postID, err := postIDParam(c)
	if err != nil {
		return err
	}

	if err := h.postService.Delete(c.Request().Context(), postID, userID); err != nil {
		return serviceError(err)
	}
	return respond(c, http.StatusOK, "Post deleted successfully", nil)
}

func postImages(c echo.Context) ([]*multipart.FileHeader, error) {
	form, err := c.MultipartForm()
	if errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid multipart form")
	}
	return append(form.File["post_images[]"], form.File["post_images"]...), nil
}

// sniffImage detects the content type from the first bytes and returns a
// reader that still yields the whole file
func sniffImage(f io.Reader) (services.ImageUpload, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return services.ImageUpload{}, err
	}
	head = head[:n]
	return services.ImageUpload{
		ContentType: http.DetectContentType(head),
		Body:        io.MultiReader(bytes.NewReader(head), f),
	}, nil
}
