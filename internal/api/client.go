package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client handles communication with the research agent backend.
// Every method makes exactly one attempt; retrying is the caller's call.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// NewClient creates a new backend client. A zero timeout leaves requests
// bounded only by the caller's context.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
		logger:  logger.Named("api"),
		now:     time.Now,
	}
}

// BaseURL returns the backend root the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CheckHealth calls GET /api/health
func (c *Client) CheckHealth(ctx context.Context) (*HealthStatus, error) {
	var health HealthStatus
	if err := c.doJSON(ctx, http.MethodGet, "/api/health", nil, &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// SubmitResearch sends a query to POST /api/research and waits for the
// synthesized answer. sessionID may be empty, in which case the backend
// assigns one.
func (c *Client) SubmitResearch(ctx context.Context, query, sessionID string) (*ResearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &ValidationError{Field: "query", Message: "query cannot be empty"}
	}

	c.logger.Info("submitting research query",
		zap.String("session_id", sessionID),
		zap.Int("query_length", len(query)))

	start := c.now()
	var result ResearchResult
	err := c.doJSON(ctx, http.MethodPost, "/api/research", ResearchRequest{
		Query:     query,
		SessionID: sessionID,
	}, &result)
	if err != nil {
		c.logger.Warn("research query failed",
			zap.String("session_id", sessionID),
			zap.Duration("elapsed", c.now().Sub(start)),
			zap.Error(err))
		return nil, err
	}

	c.logger.Info("research query completed",
		zap.String("session_id", result.SessionID),
		zap.Strings("tools_used", result.ToolsUsed),
		zap.Float64("processing_time", result.ProcessingTime))
	return &result, nil
}

// GetLogs calls GET /api/logs?lines=N
func (c *Client) GetLogs(ctx context.Context, lines int) (*LogsResponse, error) {
	params := url.Values{}
	params.Set("lines", strconv.Itoa(lines))

	var logs LogsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/logs?"+params.Encode(), nil, &logs); err != nil {
		return nil, err
	}
	return &logs, nil
}

// GetAnalytics calls GET /api/analytics
func (c *Client) GetAnalytics(ctx context.Context) (*AnalyticsSnapshot, error) {
	var analytics AnalyticsSnapshot
	if err := c.doJSON(ctx, http.MethodGet, "/api/analytics", nil, &analytics); err != nil {
		return nil, err
	}
	return &analytics, nil
}

// DownloadLogs fetches the raw backend log file
func (c *Client) DownloadLogs(ctx context.Context) (*LogDownload, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/download-logs", nil)
	if err != nil {
		return nil, fmt.Errorf("download logs: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("download logs: failed to read body: %w", err)
	}

	filename := filenameFromDisposition(resp.Header.Get("Content-Disposition"))
	if filename == "" {
		filename = fmt.Sprintf("research_agent_logs_%s.log", c.now().Format("20060102_150405"))
	}

	return &LogDownload{Filename: filename, Body: body}, nil
}

// ClearLogs calls DELETE /api/clear-logs. The backend keeps a backup copy
// but there is no undo from this side.
func (c *Client) ClearLogs(ctx context.Context) (*ClearLogsResult, error) {
	var result ClearLogsResult
	if err := c.doJSON(ctx, http.MethodDelete, "/api/clear-logs", nil, &result); err != nil {
		return nil, err
	}
	c.logger.Info("backend logs cleared", zap.String("backup_file", result.BackupFile))
	return &result, nil
}

// doJSON performs a request and decodes a 2xx JSON body into out
func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response from %s: %w", path, err)
	}
	return nil
}

// do executes a request and returns the response only for 2xx statuses.
// Transport failures become *ConnectionError and non-2xx become *HTTPError.
func (c *Client) do(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	fullURL := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("backend request", zap.String("method", method), zap.String("url", fullURL))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, fmt.Errorf("request canceled: %w", ctx.Err())
		}
		var netErr net.Error
		timeout := errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout())
		return nil, &ConnectionError{URL: c.baseURL, Timeout: timeout, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		httpErr := &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
		}
		data, _ := io.ReadAll(resp.Body)
		var eb errorBody
		if json.Unmarshal(data, &eb) == nil {
			httpErr.Detail = eb.Detail
		}
		c.logger.Debug("backend returned error status",
			zap.Int("status", resp.StatusCode),
			zap.String("detail", httpErr.Detail))
		return nil, httpErr
	}

	return resp, nil
}

// filenameFromDisposition extracts the filename parameter of a
// Content-Disposition header, or "" when absent.
func filenameFromDisposition(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	name := params["filename"]
	// Never let the server pick a directory.
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	return name
}
