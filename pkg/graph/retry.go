package graph

import (
	"encoding/json"
	"errors"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
)

// IsRetryable reports whether err is a classified failure worth retrying.
// Only *Error values with a transient kind qualify; transport errors, decode
// errors, and non-transient failures propagate on first occurrence.
func IsRetryable(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Retryable()
}

// newRetryPolicy builds the retry policy wrapped around every Graph call.
// Backoff doubles from BackoffFloor and is capped at BackoffCeil. The last
// failure is surfaced to the caller unchanged.
func newRetryPolicy(cfg Config) retrypolicy.RetryPolicy[json.RawMessage] {
	builder := retrypolicy.NewBuilder[json.RawMessage]().
		WithMaxAttempts(cfg.MaxAttempts).
		HandleIf(func(_ json.RawMessage, err error) bool {
			return IsRetryable(err)
		})

	if cfg.MaxAttempts > 1 {
		builder = builder.WithBackoff(cfg.BackoffFloor, cfg.BackoffCeil)
	}

	return builder.Build()
}

// newExecutor wires the retry policy into a failsafe executor shared by all
// calls on one client.
func newExecutor(cfg Config) failsafe.Executor[json.RawMessage] {
	return failsafe.With(newRetryPolicy(cfg))
}
