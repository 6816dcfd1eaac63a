// Package ai wraps the external language-model provider behind per-group
// rate limiting, a global in-flight cap, and bounded retry with backoff.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"strings"
	"time"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Config holds the provider endpoint and request bounds.
type Config struct {
	BaseURL        string
	APIKey         string
	Model          string
	MaxTokens      int           // response token budget per call
	MaxPromptChars int           // reject larger prompts before dispatch
	RequestTimeout time.Duration // per-attempt HTTP timeout
}

// Request is one completion call.
type Request struct {
	GroupID     string // rate-limit scope; empty skips the limiter
	System      string
	History     []ChatMessage
	Question    string
	Temperature float64
	MaxTokens   int // 0 falls back to Config.MaxTokens
}

// Result is a successful completion with provider-reported usage.
type Result struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	LatencyMS        int64
}

// Limiter admits or rejects a request for a scope. A limit override of zero
// or less means the limiter's default.
type Limiter interface {
	Allow(scope string, limit int) bool
}

const (
	defaultMaxTokens      = 1024
	defaultMaxPromptChars = 24000
	defaultMaxConcurrent  = 5
	defaultMaxRetries     = 3
	defaultBackoffBase    = 500 * time.Millisecond
)

// Client calls an OpenAI-compatible chat-completions endpoint.
type Client struct {
	httpClient  *http.Client
	cfg         Config
	limiter     Limiter
	slots       chan struct{}
	maxRetries  int
	backoffBase time.Duration

	// sleep is swapped out in tests to avoid real backoff waits.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewClient(cfg Config, limiter Limiter, maxConcurrent, maxRetries int) *Client {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.MaxPromptChars <= 0 {
		cfg.MaxPromptChars = defaultMaxPromptChars
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}
	if maxRetries < 0 {
		maxRetries = defaultMaxRetries
	}
	return &Client{
		httpClient:  &http.Client{Timeout: cfg.RequestTimeout},
		cfg:         cfg,
		limiter:     limiter,
		slots:       make(chan struct{}, maxConcurrent),
		maxRetries:  maxRetries,
		backoffBase: defaultBackoffBase,
		sleep:       sleepCtx,
	}
}

// Complete runs one rate-limited, retry-safe provider call. quotaPerMinute
// overrides the limiter default for the request's group; zero or less keeps
// the default.
//
// Failure modes, in check order: ErrPromptTooLarge (before dispatch),
// ErrRateLimited (fail fast, no retry), ErrTimeout (no free slot before the
// caller's context expired), *ProviderError (non-retryable rejection or
// exhausted retries, last cause attached).
func (c *Client) Complete(ctx context.Context, req Request, quotaPerMinute int) (*Result, error) {
	messages := buildMessages(req)
	if promptChars(messages) > c.cfg.MaxPromptChars {
		return nil, ErrPromptTooLarge
	}

	if req.GroupID != "" && c.limiter != nil && !c.limiter.Allow(req.GroupID, quotaPerMinute) {
		return nil, ErrRateLimited
	}

	select {
	case c.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ErrTimeout
	}
	defer func() { <-c.slots }()

	maxTokens := req.MaxTokens
	if maxTokens <= 0 || maxTokens > c.cfg.MaxTokens {
		maxTokens = c.cfg.MaxTokens
	}

	start := time.Now()
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, c.backoff(attempt)); err != nil {
				break
			}
		}

		result, err := c.dispatch(ctx, messages, req.Temperature, maxTokens)
		if err == nil {
			result.LatencyMS = time.Since(start).Milliseconds()
			return result, nil
		}

		var transient *transientError
		if !errors.As(err, &transient) {
			return nil, &ProviderError{Detail: "request rejected", Err: err}
		}
		lastErr = transient.err
		log.Printf("provider call failed (attempt %d/%d): %v", attempt+1, c.maxRetries+1, lastErr)

		if ctx.Err() != nil {
			break
		}
	}
	return nil, &ProviderError{Detail: "retry budget exhausted", Err: lastErr}
}

// dispatch performs a single HTTP attempt. Transient failures come back as
// *transientError, everything else is final.
func (c *Client) dispatch(ctx context.Context, messages []ChatMessage, temperature float64, maxTokens int) (*Result, error) {
	reqBody := map[string]interface{}{
		"model":       c.cfg.Model,
		"messages":    messages,
		"temperature": temperature,
		"max_tokens":  maxTokens,
		"stream":      false,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal provider request failed: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("build provider request failed: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &transientError{err: fmt.Errorf("provider request failed: %w", err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &transientError{err: fmt.Errorf("read provider response failed: %w", err)}
	}

	if resp.StatusCode >= 300 {
		err := fmt.Errorf("provider status %d: %s", resp.StatusCode, truncate(string(raw), 200))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, &transientError{err: err}
		}
		return nil, err
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse provider response failed: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("provider returned no choices")
	}

	return &Result{
		Content:          parsed.Choices[0].Message.Content,
		PromptTokens:     parsed.Usage.PromptTokens,
		CompletionTokens: parsed.Usage.CompletionTokens,
		TotalTokens:      parsed.Usage.TotalTokens,
	}, nil
}

// backoff doubles the base delay per attempt with up to 50% random jitter.
func (c *Client) backoff(attempt int) time.Duration {
	d := c.backoffBase << (attempt - 1)
	return d + time.Duration(rand.Int63n(int64(d)/2+1))
}

func buildMessages(req Request) []ChatMessage {
	messages := make([]ChatMessage, 0, len(req.History)+2)
	if req.System != "" {
		messages = append(messages, ChatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, req.History...)
	messages = append(messages, ChatMessage{Role: "user", Content: req.Question})
	return messages
}

func promptChars(messages []ChatMessage) int {
	total := 0
	for _, m := range messages {
		total += len([]rune(m.Content))
	}
	return total
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
