package graph

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"server error", &Error{Kind: KindServer}, true},
		{"rate limited", &Error{Kind: KindRateLimited}, true},
		{"auth error", &Error{Kind: KindAuth}, false},
		{"not found", &Error{Kind: KindNotFound}, false},
		{"generic", &Error{Kind: KindGeneric}, false},
		{"plain error", errors.New("connection refused"), false},
		{"wrapped transient failure", fmt.Errorf("outer: %w", &Error{Kind: KindRateLimited}), true},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
