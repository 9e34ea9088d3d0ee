package moderation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestClient(t *testing.T, url string, retries int) *Client {
	t.Helper()
	return newBreakerTestClient(t, url, retries, time.Minute)
}

func newBreakerTestClient(t *testing.T, url string, retries int, open time.Duration) *Client {
	t.Helper()
	c := NewClient(Config{
		URL:             url,
		APIKey:          "secret",
		Model:           "classifier-small",
		Timeout:         2 * time.Second,
		MaxRetries:      retries,
		BreakerFailures: 2,
		BreakerOpen:     open,
	}, zaptest.NewLogger(t))
	c.http.RetryWaitMin = time.Millisecond
	c.http.RetryWaitMax = 5 * time.Millisecond
	return c
}

func reply(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"outputs": []map[string]string{{"content": content}},
	})
}

func TestClassify_SendsRequestAndParsesVerdict(t *testing.T) {
	var got classifyRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		reply(w, "```json\n{\"dangerous_image\":0.05,\"dangerous_text\":0.1,\"reason\":\"farm photo\"}\n```")
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 0)
	v, err := c.Classify(context.Background(), BuildContent("rice field", []string{"https://cdn/x.jpg"}))
	require.NoError(t, err)

	assert.Equal(t, 0.05, v.DangerousImage)
	assert.Equal(t, 0.1, v.DangerousText)
	assert.Equal(t, "farm photo", v.Raw["reason"])

	assert.Equal(t, "classifier-small", got.Model)
	require.Len(t, got.Inputs, 1)
	assert.Equal(t, "user", got.Inputs[0].Role)
	assert.Equal(t, "<text>rice field</text><image>https://cdn/x.jpg</image>", got.Inputs[0].Content)
	assert.Equal(t, DefaultInstructions, got.Instructions)
	assert.Equal(t, completionArgs{Temperature: 0, MaxTokens: 256, TopP: 1}, got.CompletionArgs)
}

func TestClassify_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		reply(w, `{"dangerous_image":0,"dangerous_text":0}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 3)
	_, err := c.Classify(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClassify_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad api key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 3)
	_, err := c.Classify(context.Background(), "x")
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Contains(t, err.Error(), "bad api key")
	assert.Equal(t, int32(1), calls.Load())
}

func TestClassify_MalformedReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"outputs":[]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, 0).Classify(context.Background(), "x")
	assert.ErrorIs(t, err, ErrMalformedVerdict)
}

const breakerOpen = 50 * time.Millisecond

func waitHalfOpen(t *testing.T, c *Client) {
	t.Helper()
	require.Eventually(t, func() bool { return c.CircuitState() == "half-open" },
		time.Second, 5*time.Millisecond)
}

func TestClassify_CircuitOpensAndRecovers(t *testing.T) {
	var healthy atomic.Bool
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if !healthy.Load() {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		reply(w, `{"dangerous_image":0,"dangerous_text":0}`)
	}))
	defer srv.Close()

	c := newBreakerTestClient(t, srv.URL, 0, breakerOpen)

	for i := 0; i < 2; i++ {
		_, err := c.Classify(context.Background(), "x")
		assert.ErrorIs(t, err, ErrUnexpectedStatus)
	}
	assert.Equal(t, "open", c.CircuitState())

	_, err := c.Classify(context.Background(), "x")
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(2), calls.Load(), "open circuit must not reach the service")

	healthy.Store(true)
	waitHalfOpen(t, c)

	_, err = c.Classify(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "closed", c.CircuitState())
}

func TestClassify_HalfOpenFailureReopens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newBreakerTestClient(t, srv.URL, 0, breakerOpen)
	for i := 0; i < 2; i++ {
		_, _ = c.Classify(context.Background(), "x")
	}
	waitHalfOpen(t, c)

	_, err := c.Classify(context.Background(), "x")
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Equal(t, "open", c.CircuitState())

	_, err = c.Classify(context.Background(), "x")
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestClassify_HalfOpenAdmitsOneTrialCall(t *testing.T) {
	var healthy atomic.Bool
	var calls atomic.Int32
	arrived := make(chan struct{}, 1)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if !healthy.Load() {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		arrived <- struct{}{}
		<-release
		reply(w, `{"dangerous_image":0,"dangerous_text":0}`)
	}))
	defer srv.Close()

	c := newBreakerTestClient(t, srv.URL, 0, breakerOpen)
	for i := 0; i < 2; i++ {
		_, _ = c.Classify(context.Background(), "x")
	}
	healthy.Store(true)
	waitHalfOpen(t, c)

	trial := make(chan error, 1)
	go func() {
		_, err := c.Classify(context.Background(), "x")
		trial <- err
	}()
	<-arrived

	_, err := c.Classify(context.Background(), "x")
	assert.ErrorIs(t, err, ErrCircuitOpen, "second caller must wait for the trial call")
	assert.Equal(t, int32(3), calls.Load())

	close(release)
	require.NoError(t, <-trial)
	assert.Equal(t, "closed", c.CircuitState())
}

func TestClassify_CanceledCallDoesNotTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for i := 0; i < 3; i++ {
		_, err := c.Classify(ctx, "x")
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, "closed", c.CircuitState())
}
