package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/failsafe-go/failsafe-go"
	"github.com/tidwall/gjson"
)

// Client executes calls against the Graph API. It is safe for concurrent use;
// no mutable state is shared between calls beyond the pooled transport.
type Client struct {
	cfg      Config
	http     *http.Client
	executor failsafe.Executor[json.RawMessage]
	logger   *slog.Logger
}

// New creates a Graph API client from the given configuration.
// Returns an error if the configuration is invalid.
func New(cfg Config) (*Client, error) {
	if cfg.ErrorCodes == nil {
		cfg.ErrorCodes = DefaultCodeTable()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		cfg:      cfg,
		http:     httpClient,
		executor: newExecutor(cfg),
		logger:   logger,
	}, nil
}

// Get issues a GET against the given relative path (e.g.
// "act_1234567890/campaigns") with the given query parameters. The credential
// is attached by the client. Returns the parsed JSON response.
func (c *Client) Get(ctx context.Context, path string, params url.Values) (any, error) {
	raw, err := c.getRaw(ctx, path, params)
	if err != nil {
		return nil, err
	}
	return decodeResponse(raw)
}

// Post issues a POST with a form-encoded body against the given relative
// path. Contract is identical to Get.
func (c *Client) Post(ctx context.Context, path string, data url.Values) (any, error) {
	raw, err := c.postRaw(ctx, path, data)
	if err != nil {
		return nil, err
	}
	return decodeResponse(raw)
}

// Delete issues a DELETE against the given relative path. Parameters travel
// in the query string, as with Get.
func (c *Client) Delete(ctx context.Context, path string, params url.Values) (any, error) {
	raw, err := c.executor.WithContext(ctx).Get(func() (json.RawMessage, error) {
		return c.do(ctx, http.MethodDelete, path, params)
	})
	if err != nil {
		return nil, err
	}
	return decodeResponse(raw)
}

// Upload issues a multipart POST carrying a single file plus any extra form
// fields. Used for ad image and ad video uploads, which the Graph API only
// accepts as multipart bodies. Retries follow the same policy as Get/Post;
// the body is rebuilt from the in-memory payload on every attempt.
func (c *Client) Upload(ctx context.Context, path string, params url.Values, fileField, filename string, data []byte) (any, error) {
	raw, err := c.executor.WithContext(ctx).Get(func() (json.RawMessage, error) {
		return c.doUpload(ctx, path, params, fileField, filename, data)
	})
	if err != nil {
		return nil, err
	}
	return decodeResponse(raw)
}

// getRaw executes a GET through the retry policy and returns the raw body.
func (c *Client) getRaw(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	return c.executor.WithContext(ctx).Get(func() (json.RawMessage, error) {
		return c.do(ctx, http.MethodGet, path, params)
	})
}

// postRaw executes a POST through the retry policy and returns the raw body.
func (c *Client) postRaw(ctx context.Context, path string, data url.Values) (json.RawMessage, error) {
	return c.executor.WithContext(ctx).Get(func() (json.RawMessage, error) {
		return c.do(ctx, http.MethodPost, path, data)
	})
}

// do performs a single HTTP attempt and turns any non-success response into a
// classified failure.
func (c *Client) do(ctx context.Context, method, path string, params url.Values) (json.RawMessage, error) {
	vals := cloneValues(params)
	vals.Set("access_token", c.cfg.AccessToken)

	endpoint := c.endpoint(path)

	var req *http.Request
	var err error

	switch method {
	case http.MethodGet, http.MethodDelete:
		req, err = http.NewRequestWithContext(ctx, method, endpoint+"?"+vals.Encode(), nil)
	case http.MethodPost:
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(vals.Encode()))
		if req != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	default:
		return nil, fmt.Errorf("unsupported method %q", method)
	}
	if err != nil {
		return nil, fmt.Errorf("building graph API request: %w", err)
	}

	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("graph API request",
		slog.String("method", method),
		slog.String("path", path),
		slog.String("params", sanitizeValues(params)))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling graph API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading graph API response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.handleErrorStatus(resp.StatusCode, body)
	}

	return json.RawMessage(body), nil
}

// doUpload performs a single multipart POST attempt.
func (c *Client) doUpload(ctx context.Context, path string, params url.Values, fileField, filename string, data []byte) (json.RawMessage, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile(fileField, filename)
	if err != nil {
		return nil, fmt.Errorf("building multipart body: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("building multipart body: %w", err)
	}

	if err := mw.WriteField("access_token", c.cfg.AccessToken); err != nil {
		return nil, fmt.Errorf("building multipart body: %w", err)
	}
	for key, values := range params {
		for _, v := range values {
			if err := mw.WriteField(key, v); err != nil {
				return nil, fmt.Errorf("building multipart body: %w", err)
			}
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("building multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), &buf)
	if err != nil {
		return nil, fmt.Errorf("building graph API request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("graph API upload",
		slog.String("path", path),
		slog.String("file", filename),
		slog.Int("bytes", len(data)))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling graph API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading graph API response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.handleErrorStatus(resp.StatusCode, body)
	}

	return json.RawMessage(body), nil
}

// handleErrorStatus classifies a non-2xx response. A body that is not valid
// JSON fails immediately as a generic failure. A JSON body without an "error"
// object passes through as a logical success; the transport flagged an error
// status but the provider did not, and callers get the body as-is.
func (c *Client) handleErrorStatus(status int, body []byte) (json.RawMessage, error) {
	if !gjson.ValidBytes(body) {
		return nil, &Error{
			Kind:       KindGeneric,
			Message:    fmt.Sprintf("HTTP %d with non-JSON response", status),
			StatusCode: status,
		}
	}

	if !gjson.GetBytes(body, "error").Exists() {
		c.logger.Warn("graph API error status without error body",
			slog.Int("status", status))
		return json.RawMessage(body), nil
	}

	apiErr := classifyBody(status, body, c.cfg.ErrorCodes)

	c.logger.Debug("graph API failure",
		slog.Int("status", status),
		slog.Int("code", apiErr.Code),
		slog.String("kind", apiErr.Kind.String()),
		slog.Bool("retryable", apiErr.Retryable()))

	return nil, apiErr
}

// endpoint joins the base URL, API version, and relative path.
func (c *Client) endpoint(path string) string {
	base := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/" + c.cfg.APIVersion
	if path == "" {
		return base
	}
	return base + "/" + strings.TrimPrefix(path, "/")
}

// decodeResponse parses the raw body into language-native JSON.
func decodeResponse(raw json.RawMessage) (any, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decoding graph API response: %w", err)
	}
	return v, nil
}

// cloneValues copies params so the caller's map is never mutated.
func cloneValues(params url.Values) url.Values {
	vals := make(url.Values, len(params)+1)
	for k, vs := range params {
		vals[k] = append([]string(nil), vs...)
	}
	return vals
}

// sanitizeValues renders params for logging with the credential redacted.
func sanitizeValues(params url.Values) string {
	vals := cloneValues(params)
	if vals.Has("access_token") {
		vals.Set("access_token", "REDACTED")
	}
	return vals.Encode()
}
