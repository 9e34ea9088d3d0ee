package validators

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	PostType string `json:"post_type" validate:"required,oneof=All Announcement Community"`
	PostID   uint   `json:"postID" validate:"required"`
	Limit    int    `json:"limit" validate:"omitempty,max=100"`
}

func TestValidate(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.Validate(&sample{PostType: "All", PostID: 1}))

	err := v.Validate(&sample{PostType: "Everything", Limit: 500})
	require.Error(t, err)

	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnprocessableEntity, he.Code)
	assert.Contains(t, he.Message, "post_type must be one of [All Announcement Community]")
	assert.Contains(t, he.Message, "postID is required")
	assert.Contains(t, he.Message, "limit must satisfy max=100")
}
