package graph

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Config configures the Graph API client with endpoint, credential, retry,
// and error-classification settings.
type Config struct {
	// BaseURL is the Graph API host, without a trailing slash.
	// Default: https://graph.facebook.com. Must be non-empty.
	BaseURL string

	// APIVersion is the version path segment (e.g., "v22.0").
	// Default: v22.0. Must be non-empty.
	APIVersion string

	// AccessToken is the long-lived Marketing API credential. The client
	// attaches it to every outbound call; callers never pass it in params.
	// Required. Must be non-empty.
	AccessToken string

	// Timeout is the per-request HTTP timeout.
	// Default: 30s. Must be > 0.
	Timeout time.Duration

	// MaxAttempts is the total number of attempts for a logical call,
	// including the initial try. Only transient failures are retried.
	// Default: 5. Must be >= 1.
	MaxAttempts int

	// BackoffFloor is the minimum wait between attempts.
	// Default: 4s. Must be > 0 when MaxAttempts > 1.
	BackoffFloor time.Duration

	// BackoffCeil is the maximum wait between attempts.
	// Default: 10s. Must be >= BackoffFloor.
	BackoffCeil time.Duration

	// ErrorCodes maps upstream numeric error codes to failure kinds.
	// Codes absent from the table classify as KindGeneric.
	// Default: DefaultCodeTable(). Upstream adds codes over time, so the
	// table is configuration rather than hard-coded law.
	ErrorCodes CodeTable

	// UserAgent is the User-Agent header value.
	// Required. Must be non-empty.
	UserAgent string

	// Logger receives request-level debug logging with the credential
	// redacted. Default: slog.Default().
	Logger *slog.Logger

	// HTTPClient overrides the underlying transport. Default: a fresh
	// http.Client with Timeout applied.
	HTTPClient *http.Client
}

// DefaultConfig returns a Config with sensible defaults. AccessToken must
// still be supplied by the caller.
func DefaultConfig() Config {
	return Config{
		BaseURL:      "https://graph.facebook.com",
		APIVersion:   "v22.0",
		Timeout:      30 * time.Second,
		MaxAttempts:  5,
		BackoffFloor: 4 * time.Second,
		BackoffCeil:  10 * time.Second,
		UserAgent:    "meta-ads-mcp/1.0",
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required and must be non-empty")
	}

	if c.APIVersion == "" {
		return fmt.Errorf("api_version is required and must be non-empty")
	}

	if c.AccessToken == "" {
		return fmt.Errorf("access_token is required and must be non-empty")
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0, got %v", c.Timeout)
	}

	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be >= 1, got %d", c.MaxAttempts)
	}

	if c.MaxAttempts > 1 {
		if c.BackoffFloor <= 0 {
			return fmt.Errorf("backoff_floor must be > 0 when max_attempts > 1, got %v", c.BackoffFloor)
		}

		if c.BackoffCeil < c.BackoffFloor {
			return fmt.Errorf("backoff_ceil (%v) must be >= backoff_floor (%v)", c.BackoffCeil, c.BackoffFloor)
		}
	}

	if c.UserAgent == "" {
		return fmt.Errorf("user_agent is required and must be non-empty")
	}

	return nil
}
