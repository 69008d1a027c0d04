package graph

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyBody_TableTotality(t *testing.T) {
	tests := []struct {
		code int
		want Kind
	}{
		{4, KindRateLimited},
		{17, KindRateLimited},
		{1, KindServer},
		{2, KindServer},
		{3, KindServer},
		{100, KindServer},
		{190, KindAuth},
		{102, KindAuth},
		{104, KindAuth},
		{803, KindNotFound},
		// Anything absent from the table falls back to generic.
		{0, KindGeneric},
		{613, KindGeneric},
		{99999, KindGeneric},
	}

	table := DefaultCodeTable()

	for _, tt := range tests {
		t.Run(fmt.Sprintf("code_%d", tt.code), func(t *testing.T) {
			body := fmt.Appendf(nil, `{"error":{"message":"boom","code":%d}}`, tt.code)

			apiErr := classifyBody(400, body, table)

			assert.Equal(t, tt.want, apiErr.Kind)
			assert.Equal(t, tt.code, apiErr.Code)
			assert.Equal(t, "boom", apiErr.Message)
		})
	}
}

func TestClassifyBody_OverriddenTable(t *testing.T) {
	// The narrow revision of the table drops the server-error codes; they
	// must then classify as generic and stop being retryable.
	table := CodeTable{
		4:   KindRateLimited,
		17:  KindRateLimited,
		190: KindAuth,
		102: KindAuth,
		104: KindAuth,
		803: KindNotFound,
	}

	apiErr := classifyBody(500, []byte(`{"error":{"message":"fault","code":1}}`), table)

	assert.Equal(t, KindGeneric, apiErr.Kind)
	assert.False(t, apiErr.Retryable())
}

func TestClassifyBody_CarriesUpstreamPayload(t *testing.T) {
	body := []byte(`{"error":{
		"message":"Invalid OAuth access token",
		"code":190,
		"error_subcode":463,
		"error_user_title":"Session Expired",
		"error_user_msg":"Please log in again",
		"fbtrace_id":"AbCdEf123"
	}}`)

	apiErr := classifyBody(401, body, DefaultCodeTable())

	require.NotNil(t, apiErr)
	assert.Equal(t, KindAuth, apiErr.Kind)
	assert.Equal(t, 190, apiErr.Code)
	assert.Equal(t, 463, apiErr.Subcode)
	assert.Equal(t, "Session Expired", apiErr.UserTitle)
	assert.Equal(t, "Please log in again", apiErr.UserMsg)
	assert.Equal(t, "AbCdEf123", apiErr.TraceID)
	assert.Equal(t, 401, apiErr.StatusCode)

	// The raw body stays attached for callers.
	require.NotNil(t, apiErr.Body)
	errObj, ok := apiErr.Body["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Invalid OAuth access token", errObj["message"])
}

func TestErrorRetryable(t *testing.T) {
	tests := []struct {
		kind Kind
		want bool
	}{
		{KindServer, true},
		{KindRateLimited, true},
		{KindAuth, false},
		{KindNotFound, false},
		{KindGeneric, false},
	}

	for _, tt := range tests {
		e := &Error{Kind: tt.kind}
		assert.Equal(t, tt.want, e.Retryable(), "kind %v", tt.kind)
	}
}

func TestErrorString(t *testing.T) {
	e := &Error{
		Kind:       KindRateLimited,
		Message:    "User request limit reached",
		Code:       17,
		StatusCode: 400,
		TraceID:    "Xyz",
	}

	msg := e.Error()
	assert.Contains(t, msg, "rate limited")
	assert.Contains(t, msg, "code 17")
	assert.Contains(t, msg, "HTTP 400")
	assert.Contains(t, msg, "User request limit reached")
	assert.Contains(t, msg, "fbtrace_id: Xyz")
}

func TestKindOf_DefaultsToGeneric(t *testing.T) {
	var empty CodeTable
	assert.Equal(t, KindGeneric, empty.KindOf(190))
	assert.Equal(t, KindGeneric, DefaultCodeTable().KindOf(42))
}
