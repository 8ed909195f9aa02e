package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/api"
	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/pkg/log"
	"github.com/vriveraPeersyst/NEARM-TG-Scam-Detector-Bot/internal/service"
)

// Client is the HTTP client for the operator API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client.
// Connection errors and 5xx responses are retried.
func NewClient(baseURL string) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 200 * time.Millisecond
	retryClient.RetryWaitMax = 2 * time.Second
	retryClient.Logger = retryablehttp.LeveledLogger(leveledZap{log.Named("mcp.http")})
	retryClient.CheckRetry = checkRetry

	client := retryClient.StandardClient()
	client.Timeout = 60 * time.Second

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

// checkRetry skips statuses the API uses for deterministic failures
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if err == nil && resp != nil {
		switch resp.StatusCode {
		case http.StatusBadGateway, http.StatusServiceUnavailable:
			return false, nil
		}
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// leveledZap adapts zap to retryablehttp, logging retries as warnings
type leveledZap struct {
	inner *zap.SugaredLogger
}

func (l leveledZap) Error(msg string, keysAndValues ...interface{}) {
	l.inner.Warnw(msg, keysAndValues...)
}

func (l leveledZap) Warn(msg string, keysAndValues ...interface{}) {
	l.inner.Warnw(msg, keysAndValues...)
}

func (l leveledZap) Info(msg string, keysAndValues ...interface{}) {
	l.inner.Infow(msg, keysAndValues...)
}

func (l leveledZap) Debug(msg string, keysAndValues ...interface{}) {
	l.inner.Debugw(msg, keysAndValues...)
}

// RecentActions lists the newest ledger entries
func (c *Client) RecentActions(ctx context.Context, limit int) ([]api.Action, error) {
	var result struct {
		Actions []api.Action `json:"actions"`
	}
	if err := c.get(ctx, fmt.Sprintf("/api/actions?limit=%d", limit), &result); err != nil {
		return nil, err
	}
	return result.Actions, nil
}

// UserActions lists ledger entries for one user
func (c *Client) UserActions(ctx context.Context, userID int64, limit int) ([]api.Action, error) {
	var result struct {
		Actions []api.Action `json:"actions"`
	}
	if err := c.get(ctx, fmt.Sprintf("/api/actions/user/%d?limit=%d", userID, limit), &result); err != nil {
		return nil, err
	}
	return result.Actions, nil
}

// UserHistory returns a user's buffered messages, oldest first
func (c *Client) UserHistory(ctx context.Context, userID int64, limit int) ([]string, error) {
	var result struct {
		Messages []string `json:"messages"`
	}
	if err := c.get(ctx, fmt.Sprintf("/api/history/%d?limit=%d", userID, limit), &result); err != nil {
		return nil, err
	}
	return result.Messages, nil
}

// Classify asks the bot for a verdict without taking action
func (c *Client) Classify(ctx context.Context, messages []string, displayName string) (*service.ClassifyResult, error) {
	var result service.ClassifyResult
	body := api.ClassifyRequest{Messages: messages, DisplayName: displayName}
	if err := c.post(ctx, "/api/classify", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, result)
}

func (c *Client) post(ctx context.Context, path string, body interface{}, result interface{}) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, result)
}

func (c *Client) do(req *http.Request, result interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP %s failed: %w", req.Method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("HTTP %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
