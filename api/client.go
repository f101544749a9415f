// Package api is the gateway to the remote question service: question search,
// free-response grading, explanations and removal reports.
package api

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
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultBaseURL is the public question service.
	DefaultBaseURL = "https://scio.ly/api"

	defaultTimeout = 30 * time.Second
	defaultBackoff = time.Second
	maxAttempts    = 3
	maxLoggedBody  = 300
)

var tracer = otel.Tracer("github.com/korjavin/quizbot/api")

// Config carries everything the gateway needs; nothing is read from the environment here.
type Config struct {
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	RetryBackoff   time.Duration
	ExplainBackoff time.Duration
	HTTPClient     *http.Client
	Verbose        bool
}

// Client talks to the question service.
type Client struct {
	baseURL        string
	apiKey         string
	http           *http.Client
	backoff        time.Duration
	explainBackoff time.Duration
	verbose        bool
	sleep          func(ctx context.Context, d time.Duration) error
	intn           func(n int) int
}

// NewClient builds a gateway client from explicit configuration.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("api: API key is required")
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	explainBackoff := cfg.ExplainBackoff
	if explainBackoff <= 0 {
		explainBackoff = defaultBackoff
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport,
				otelhttp.WithSpanOptions(trace.WithSpanKind(trace.SpanKindClient)),
			),
		}
	}

	return &Client{
		baseURL:        baseURL,
		apiKey:         cfg.APIKey,
		http:           httpClient,
		backoff:        backoff,
		explainBackoff: explainBackoff,
		verbose:        cfg.Verbose,
		sleep:          sleepContext,
		intn:           rand.Intn,
	}, nil
}

// do performs one request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s body: %w", path, err)
		}
		c.verboseLog("api: %s %s payload: %s", method, path, truncate(string(encoded), maxLoggedBody))
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", path, err)
	}
	c.verboseLog("api: %s %s -> %d in %v: %s", method, path, resp.StatusCode, time.Since(started), truncate(string(data), maxLoggedBody))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(data), maxLoggedBody)}
	}
	return data, nil
}

// withRetry retries transient failures with linearly growing backoff.
func (c *Client) withRetry(ctx context.Context, op string, call func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "api."+op)
	defer span.End()

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		span.SetAttributes(attribute.Int("api.attempts", attempt))
		body, err := call(ctx)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if ctx.Err() != nil || !IsTransient(err) || attempt == maxAttempts {
			break
		}
		log.Printf("api: %s attempt %d/%d failed, retrying: %v", op, attempt, maxAttempts, err)
		if err := c.sleep(ctx, time.Duration(attempt)*c.backoff); err != nil {
			break
		}
	}
	span.RecordError(lastErr)
	span.SetStatus(codes.Error, lastErr.Error())
	return nil, lastErr
}

func (c *Client) verboseLog(format string, v ...any) {
	if c.verbose {
		log.Printf(format, v...)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
