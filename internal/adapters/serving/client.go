// Package serving talks to a managed model-serving API: it lists the
// available endpoints and sends chat conversations to one of them.
package serving

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"yelp_advisor/internal/adapters/observability"
	"yelp_advisor/internal/domain"
)

const (
	DefaultTimeout = 120 * time.Second
	DefaultRPS     = 2.0
	serviceLabel   = "serving"
)

type Config struct {
	Host        string // workspace base URL, e.g. https://example.cloud.databricks.com
	Token       string
	RPS         float64 // may be fractional, e.g. 0.5 for one call every two seconds
	MaxAttempts int     // 1 (the default) disables retries
	Timeout     time.Duration
}

type Client struct {
	host     string
	token    string
	hc       *http.Client
	rl       *rate.Limiter
	attempts int
}

var (
	_ domain.LLMClient      = (*Client)(nil)
	_ domain.EndpointLister = (*Client)(nil)
)

func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, fmt.Errorf("serving host is required")
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("serving token is required")
	}
	if cfg.RPS <= 0 {
		cfg.RPS = DefaultRPS
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		host:     strings.TrimRight(cfg.Host, "/"),
		token:    cfg.Token,
		hc:       &http.Client{Timeout: cfg.Timeout},
		rl:       rate.NewLimiter(rate.Limit(cfg.RPS), max(1, int(math.Ceil(cfg.RPS)))),
		attempts: cfg.MaxAttempts,
	}, nil
}

// ---- wire formats ----

type queryRequest struct {
	Messages []domain.ChatMessage `json:"messages"`
}

type queryResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

type listResponse struct {
	Endpoints []struct {
		Name string `json:"name"`
	} `json:"endpoints"`
}

// ---- Public API ----

// Query sends messages to endpoint and returns the content of the first
// choice.
func (c *Client) Query(ctx context.Context, endpoint string, messages []domain.ChatMessage) (string, error) {
	body, err := json.Marshal(queryRequest{Messages: messages})
	if err != nil {
		return "", fmt.Errorf("marshal query: %w", err)
	}
	u := fmt.Sprintf("%s/serving-endpoints/%s/invocations", c.host, url.PathEscape(endpoint))

	var out queryResponse
	if err := c.do(ctx, http.MethodPost, u, "query", body, &out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", ErrNoChoices
	}
	ch := out.Choices[0]
	log.Debug().
		Str("endpoint", endpoint).
		Str("finish_reason", ch.FinishReason).
		Int("prompt_tokens", out.Usage.PromptTokens).
		Int("completion_tokens", out.Usage.CompletionTokens).
		Msg("serving query done")
	return ch.Message.Content, nil
}

// ListEndpoints returns endpoint names in the order the API lists them.
func (c *Client) ListEndpoints(ctx context.Context) ([]string, error) {
	var out listResponse
	if err := c.do(ctx, http.MethodGet, c.host+"/api/2.0/serving-endpoints", "list", nil, &out); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(out.Endpoints))
	for _, e := range out.Endpoints {
		if e.Name != "" {
			names = append(names, e.Name)
		}
	}
	return names, nil
}

// ---- Internals ----

var (
	ErrNotFound     = fmt.Errorf("serving: %w", domain.ErrNotFound)
	ErrUnauthorized = errors.New("serving: unauthorized")
	ErrForbidden    = errors.New("serving: forbidden")
	ErrNoChoices    = errors.New("serving: reply has no choices")
)

// do performs one request with client-side rate limiting and JSON decode
// into out. Up to c.attempts tries are made on 429, transient 5xx and
// network errors, honoring Retry-After when provided. Every attempt,
// retries included, waits for the limiter.
func (c *Client) do(ctx context.Context, method, u, label string, body []byte, out any) error {
	var lastErr error
	for i := 0; i < c.attempts; i++ {
		last := i == c.attempts-1
		if err := c.rl.Wait(ctx); err != nil {
			if lastErr != nil {
				return fmt.Errorf("%w (rate limit wait: %v)", lastErr, err)
			}
			return err
		}

		// build a fresh request each attempt
		var rd io.Reader
		if body != nil {
			rd = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, u, rd)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("User-Agent", "yelp-advisor/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal(serviceLabel, label, 0, time.Since(start))
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn().Str("call", label).Str("err_type", observability.LabelErr(err)).Int("attempt", i+1).Msg("serving request failed")
			lastErr = err
			if !last && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		observability.ObserveExternal(serviceLabel, label, resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			if err != nil {
				return fmt.Errorf("decode %s response: %w", label, err)
			}
			return nil

		case http.StatusNotFound:
			resp.Body.Close()
			return ErrNotFound

		case http.StatusUnauthorized:
			resp.Body.Close()
			return ErrUnauthorized

		case http.StatusForbidden:
			resp.Body.Close()
			return ErrForbidden

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("serving: remote %d", resp.StatusCode)
			if !last && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			// read a small error body for diagnostics
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("serving: bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}
	return lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles from 200ms per attempt with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
