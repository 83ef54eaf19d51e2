package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/claude/liftlog/internal/workout"
)

// HTTPClient implements DataSource by calling the LiftLog REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server. The server must run in api_key mode;
// each call names the user it acts for in X-User-ID.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) get(ctx context.Context, path, userID string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	req.Header.Set("X-User-ID", userID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	return body, nil
}

// GetActive returns the user's in-progress session, or nil if there is none.
func (c *HTTPClient) GetActive(ctx context.Context, userID string) (*workout.Session, error) {
	body, err := c.get(ctx, "/api/v1/workouts/active", userID)
	if err != nil {
		return nil, err
	}

	var sess *workout.Session
	if err := json.Unmarshal(body, &sess); err != nil {
		return nil, fmt.Errorf("httpclient: decode active workout: %w", err)
	}
	return sess, nil
}

func (c *HTTPClient) ListHistory(ctx context.Context, userID string) ([]workout.Session, error) {
	return c.sessions(ctx, "/api/v1/workouts/history", userID, "workout history")
}

func (c *HTTPClient) ListRoutines(ctx context.Context, userID string) ([]workout.Session, error) {
	return c.sessions(ctx, "/api/v1/routines", userID, "routines")
}

func (c *HTTPClient) sessions(ctx context.Context, path, userID, what string) ([]workout.Session, error) {
	body, err := c.get(ctx, path, userID)
	if err != nil {
		return nil, err
	}

	sessions := []workout.Session{}
	if err := json.Unmarshal(body, &sessions); err != nil {
		return nil, fmt.Errorf("httpclient: decode %s: %w", what, err)
	}
	return sessions, nil
}
