// Package moderation talks to the external content-safety classifier that
// decides whether a post passes verification.
package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// DefaultInstructions tells the classifier to answer with a bare JSON object
const DefaultInstructions = `You are a content safety classifier for an agricultural community app.
The user message contains a post caption inside <text></text> and public image URLs inside <image></image>.
Respond with a single JSON object and nothing else:
{"dangerous_text": <0..1>, "dangerous_image": <0..1>, "categories": [<strings>], "reason": "<short explanation>"}
Scores are the probability that the text or images are violent, sexual, hateful, illegal or otherwise unsafe.`

// Config configures Client
type Config struct {
	URL          string
	APIKey       string
	Model        string
	Instructions string
	Timeout      time.Duration // per attempt
	MaxRetries   int

	BreakerFailures int
	BreakerOpen     time.Duration
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionArgs struct {
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	TopP        float64 `json:"top_p"`
}

type classifyRequest struct {
	Model          string         `json:"model"`
	Inputs         []message      `json:"inputs"`
	Instructions   string         `json:"instructions"`
	CompletionArgs completionArgs `json:"completion_args"`
}

type classifyResponse struct {
	Outputs []struct {
		Content string `json:"content"`
	} `json:"outputs"`
}

// Client calls the classifier over HTTPS with bounded retries and a circuit breaker
type Client struct {
	cfg     Config
	http    *retryablehttp.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewClient creates a moderation Client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.Instructions == "" {
		cfg.Instructions = DefaultInstructions
	}
	logger = logger.Named("moderation")

	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.MaxRetries
	rc.RetryWaitMin = 250 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.HTTPClient.Timeout = cfg.Timeout
	rc.Logger = leveledLogger{logger.Sugar()}

	return &Client{
		cfg:     cfg,
		http:    rc,
		breaker: newCircuitBreaker(cfg.BreakerFailures, cfg.BreakerOpen, logger),
		logger:  logger,
	}
}

// Classify sends content to the classifier and parses its verdict
func (c *Client) Classify(ctx context.Context, content string) (*Verdict, error) {
	res, err := c.breaker.Execute(func() (interface{}, error) {
		return c.classify(ctx, content)
	})
	if err != nil {
		return nil, breakerError(err)
	}
	return res.(*Verdict), nil
}

// CircuitState reports the breaker state for health checks
func (c *Client) CircuitState() string {
	return c.breaker.State().String()
}

func (c *Client) classify(ctx context.Context, content string) (*Verdict, error) {
	payload, err := json.Marshal(classifyRequest{
		Model:        c.cfg.Model,
		Inputs:       []message{{Role: "user", Content: content}},
		Instructions: c.cfg.Instructions,
		CompletionArgs: completionArgs{
			Temperature: 0,
			MaxTokens:   256,
			TopP:        1,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode moderation request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to create moderation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("moderation request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w: %d: %s", ErrUnexpectedStatus, resp.StatusCode, bytes.TrimSpace(body))
	}

	var decoded classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedVerdict, err)
	}
	if len(decoded.Outputs) == 0 {
		return nil, fmt.Errorf("%w: no outputs", ErrMalformedVerdict)
	}

	return ParseVerdict(decoded.Outputs[0].Content)
}

// leveledLogger routes retryablehttp's logging into zap
type leveledLogger struct {
	s *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.s.Infow(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
