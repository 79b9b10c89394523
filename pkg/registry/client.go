package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/getmockd/apireg/pkg/logging"
)

const (
	// RequestIDHeader carries the per-call correlation ID.
	RequestIDHeader = "X-Request-ID"

	// DefaultTimeout bounds every call unless overridden with WithTimeout.
	DefaultTimeout = 30 * time.Second

	collectionPath = "/api/urls"
)

// Client is an HTTP client for the registry API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	log        *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the HTTP timeout. Zero disables it.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// New creates a registry client for the API rooted at baseURL
// (e.g. "http://localhost:8000").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		userAgent: "apireg",
		log:       logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the normalised API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SchemaURL returns the absolute URL of the raw schema proxy for a record.
// It is used as a link target by the schema viewer.
func (c *Client) SchemaURL(id int) string {
	return c.baseURL + RecordPath(id) + "/fetch"
}

// ListRecords returns the full collection.
func (c *Client) ListRecords(ctx context.Context) ([]Record, error) {
	var records []Record
	if err := c.doJSON(ctx, http.MethodGet, collectionPath, nil, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

// ListEndpoints returns the endpoint names discovered for a record.
// A record with no endpoints yields an empty, non-nil slice.
func (c *Client) ListEndpoints(ctx context.Context, id int) ([]string, error) {
	var result EndpointsResponse
	if err := c.doJSON(ctx, http.MethodGet, RecordPath(id)+"/endpoints", nil, &result); err != nil {
		if IsNotFound(err) {
			return nil, notFound("record", id, requestIDOf(err))
		}
		return nil, err
	}
	if result.Endpoints == nil {
		result.Endpoints = []string{}
	}
	return result.Endpoints, nil
}

// CreateRecord registers a new record. The server assigns the ID and the
// returned Record is the canonical copy.
func (c *Client) CreateRecord(ctx context.Context, draft Draft) (*Record, error) {
	var created Record
	if err := c.doJSON(ctx, http.MethodPost, collectionPath, draft, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateRecord replaces the fields of an existing record and returns the
// server's canonical copy.
func (c *Client) UpdateRecord(ctx context.Context, id int, draft Draft) (*Record, error) {
	var updated Record
	if err := c.doJSON(ctx, http.MethodPut, RecordPath(id), draft, &updated); err != nil {
		if IsNotFound(err) {
			return nil, notFound("record", id, requestIDOf(err))
		}
		return nil, err
	}
	return &updated, nil
}

// DeleteRecord removes a record.
func (c *Client) DeleteRecord(ctx context.Context, id int) error {
	resp, reqID, err := c.do(ctx, http.MethodDelete, RecordPath(id), nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode == http.StatusNotFound {
		return notFound("record", id, reqID)
	}
	if !isSuccess(resp.StatusCode) {
		return c.parseError(resp, reqID)
	}
	return nil
}

// FetchSchema downloads the raw schema document for a record. The body is
// returned as-is.
func (c *Client) FetchSchema(ctx context.Context, id int) (*Schema, error) {
	resp, reqID, err := c.do(ctx, http.MethodGet, RecordPath(id)+"/fetch", nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, notFound("record", id, reqID)
	}
	if !isSuccess(resp.StatusCode) {
		return nil, c.parseError(resp, reqID)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	return &Schema{ContentType: resp.Header.Get("Content-Type"), Body: body}, nil
}

// doJSON sends an optional JSON body and decodes a JSON success response into out.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	resp, reqID, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if !isSuccess(resp.StatusCode) {
		return c.parseError(resp, reqID)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{
			StatusCode: resp.StatusCode,
			ErrorCode:  ErrCodeDecode,
			Message:    fmt.Sprintf("failed to parse response: %v", err),
			RequestID:  reqID,
		}
	}
	return nil
}

// do performs an HTTP request and returns the response with its request ID.
func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, string, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	reqID := uuid.New().String()
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, reqID)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			c.log.Debug("request cancelled", "method", method, "path", path, "requestId", reqID)
			return nil, reqID, ctxErr
		}
		c.log.Debug("request failed", "method", method, "path", path, "requestId", reqID, "error", err)
		return nil, reqID, &APIError{
			ErrorCode: ErrCodeConnection,
			Message:   fmt.Sprintf("cannot connect to registry API at %s: %v", c.baseURL, err),
			RequestID: reqID,
		}
	}

	c.log.Debug("request completed",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
		"requestId", reqID,
	)
	return resp, reqID, nil
}

// parseError turns a non-success response into an *APIError.
func (c *Client) parseError(resp *http.Response, reqID string) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Message != "" {
		return &APIError{
			StatusCode: resp.StatusCode,
			ErrorCode:  errResp.Error,
			Message:    errResp.Message,
			RequestID:  reqID,
		}
	}

	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &APIError{
		StatusCode: resp.StatusCode,
		ErrorCode:  ErrCodeUnknown,
		Message:    fmt.Sprintf("server returned status %d: %s", resp.StatusCode, msg),
		RequestID:  reqID,
	}
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}

func requestIDOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.RequestID
	}
	return ""
}
