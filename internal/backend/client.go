package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nhle/privypulse/internal/logging"
	"github.com/nhle/privypulse/internal/model"
)

// Client is a thin HTTP client for the multi-agent query service.
// It does not retry: every error is terminal for the submission.
type Client struct {
	baseURL    string
	queryPath  string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a backend client. baseURL is the service root
// (e.g., http://localhost:8000) and queryPath the submission route.
// Requests are bounded only by the caller's context.
func NewClient(
	baseURL string,
	queryPath string,
	logger *slog.Logger,
) *Client {
	if queryPath == "" {
		queryPath = model.DefaultQueryPath
	}
	if !strings.HasPrefix(queryPath, "/") {
		queryPath = "/" + queryPath
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		queryPath:  queryPath,
		httpClient: &http.Client{},
		logger:     logging.Component(logger, "backend"),
	}
}

// NewClientFromConfig builds a client from the backend section of the
// application config. The request timeout is not part of the client;
// callers apply cfg.Timeout() to the submission context.
func NewClientFromConfig(cfg model.BackendConfig, logger *slog.Logger) *Client {
	return NewClient(cfg.BaseURL, cfg.QueryPath, logger)
}

// BaseURL returns the normalized service root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Query posts req and decodes the reply into an outcome. The HTTP status
// is not interpreted: any body that decodes is returned as-is. Transport
// and decode failures are returned as errors.
func (c *Client) Query(
	ctx context.Context,
	requestID string,
	req model.QueryRequest,
) (model.Outcome, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.baseURL+c.queryPath, bytes.NewReader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if requestID != "" {
		httpReq.Header.Set(RequestIDHeader, requestID)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("executing request POST %s: %w", c.queryPath, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	c.logger.Debug("query response",
		"request_id", requestID,
		"status", resp.StatusCode,
		"bytes", len(body),
		"duration", time.Since(start),
	)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("non-success status on query",
			"request_id", requestID,
			"status", resp.StatusCode,
		)
	}

	outcome, err := model.DecodeOutcome(body)
	if err != nil {
		return nil, fmt.Errorf(
			"unmarshaling response from POST %s (status %d): %w",
			c.queryPath, resp.StatusCode, err,
		)
	}

	return outcome, nil
}

// Health probes GET / and returns the decoded status.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	httpReq, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.baseURL+"/", nil,
	)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf(
			"unexpected status %d on GET /: %s",
			resp.StatusCode, strings.TrimSpace(string(body)),
		)
	}

	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, fmt.Errorf("decode health: %w", err)
	}
	if !health.OK() {
		return &health, fmt.Errorf("backend reported status %q", health.Status)
	}

	return &health, nil
}
