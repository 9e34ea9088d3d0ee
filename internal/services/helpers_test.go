package services

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/anonto42/farmfeed/backend/internal/models"
	"github.com/anonto42/farmfeed/backend/internal/moderation"
	"github.com/stretchr/testify/mock"
)

type mockModerator struct {
	mock.Mock
}

func (m *mockModerator) Classify(ctx context.Context, content string) (*moderation.Verdict, error) {
	args := m.Called(ctx, content)
	v, _ := args.Get(0).(*moderation.Verdict)
	return v, args.Error(1)
}

func verdict(image, text float64) *moderation.Verdict {
	return &moderation.Verdict{
		DangerousImage: image,
		DangerousText:  text,
		Raw: map[string]interface{}{
			"dangerous_image": image,
			"dangerous_text":  text,
			"reason":          "test",
		},
	}
}

type cdnResolver struct{}

func (cdnResolver) PublicURL(path string) string { return "https://cdn.test/" + path }

type memReviews struct {
	mu    sync.Mutex
	items []models.ModerationReview
}

func (r *memReviews) Record(_ context.Context, review *models.ModerationReview) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, *review)
	return nil
}

func (r *memReviews) ListByPost(_ context.Context, postID uint, _ int64) ([]models.ModerationReview, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.ModerationReview{}
	for i := len(r.items) - 1; i >= 0; i-- {
		if r.items[i].PostID == postID {
			out = append(out, r.items[i])
		}
	}
	return out, nil
}

func (r *memReviews) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

type memImages struct {
	mu        sync.Mutex
	objects   map[string][]byte
	failAfter int // uploads allowed before failing; -1 never fails
}

func newMemImages() *memImages {
	return &memImages{objects: map[string][]byte{}, failAfter: -1}
}

func (s *memImages) Upload(_ context.Context, path, _ string, body io.Reader) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAfter == 0 {
		return "", errors.New("bucket unavailable")
	}
	if s.failAfter > 0 {
		s.failAfter--
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	s.objects[path] = b
	return path, nil
}

func (s *memImages) PublicURL(path string) string { return "https://cdn.test/" + path }

func (s *memImages) Delete(_ context.Context, paths ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range paths {
		delete(s.objects, p)
	}
	return nil
}

func (s *memImages) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
