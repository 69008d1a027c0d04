package graph

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// Kind classifies an upstream Graph API failure.
type Kind int

const (
	// KindGeneric is any structured upstream error the code table does not
	// recognize, or a non-JSON error body. Never retried.
	KindGeneric Kind = iota

	// KindServer is a transient upstream server-side fault. Retried.
	KindServer

	// KindRateLimited is an upstream throttling signal. Retried.
	KindRateLimited

	// KindAuth is an invalid or expired credential, or a permission fault.
	// Never retried.
	KindAuth

	// KindNotFound means the referenced object does not exist upstream.
	// Never retried.
	KindNotFound
)

// String returns the short label for the failure kind.
func (k Kind) String() string {
	switch k {
	case KindServer:
		return "server error"
	case KindRateLimited:
		return "rate limited"
	case KindAuth:
		return "authentication error"
	case KindNotFound:
		return "not found"
	default:
		return "api error"
	}
}

// CodeTable maps upstream numeric error codes to failure kinds. Codes absent
// from the table classify as KindGeneric.
type CodeTable map[int]Kind

// DefaultCodeTable returns the standard classification table for Marketing
// API error codes. Codes 1, 2, 3 and 100 are treated as transient server
// faults; pass a narrower table via Config.ErrorCodes to classify them as
// generic instead.
func DefaultCodeTable() CodeTable {
	return CodeTable{
		1:   KindServer,
		2:   KindServer,
		3:   KindServer,
		100: KindServer,
		4:   KindRateLimited,
		17:  KindRateLimited,
		190: KindAuth,
		102: KindAuth,
		104: KindAuth,
		803: KindNotFound,
	}
}

// KindOf looks up the kind for an upstream code, falling back to KindGeneric
// for codes the table does not list.
func (t CodeTable) KindOf(code int) Kind {
	if k, ok := t[code]; ok {
		return k
	}
	return KindGeneric
}

// Error is a classified Graph API failure carrying the raw upstream payload.
type Error struct {
	// Kind is the failure classification.
	Kind Kind

	// Message is the upstream error message, or a transport-error
	// description when the body was not valid JSON.
	Message string

	// Code is the upstream numeric error code (0 if none was parsed).
	Code int

	// Subcode is the upstream error_subcode, if present.
	Subcode int

	// UserTitle and UserMsg are the upstream user-facing strings.
	UserTitle string
	UserMsg   string

	// TraceID is the upstream fbtrace_id for support correlation.
	TraceID string

	// StatusCode is the HTTP status the failure arrived with.
	StatusCode int

	// Body is the full upstream response body, when it parsed as JSON.
	Body map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Kind.String()

	if e.Code > 0 {
		msg = fmt.Sprintf("%s (code %d)", msg, e.Code)
	}

	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s [HTTP %d]", msg, e.StatusCode)
	}

	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}

	if e.TraceID != "" {
		msg = fmt.Sprintf("%s (fbtrace_id: %s)", msg, e.TraceID)
	}

	return msg
}

// Retryable reports whether the failure is plausibly transient. Only server
// errors and rate limits qualify.
func (e *Error) Retryable() bool {
	return e.Kind == KindServer || e.Kind == KindRateLimited
}

// classifyBody builds a typed failure from an upstream error body. The body
// must be valid JSON containing an "error" object; callers handle the
// non-JSON and no-error-key cases before reaching here.
func classifyBody(status int, raw []byte, table CodeTable) *Error {
	errInfo := gjson.GetBytes(raw, "error")
	code := int(errInfo.Get("code").Int())

	apiErr := &Error{
		Kind:       table.KindOf(code),
		Message:    errInfo.Get("message").String(),
		Code:       code,
		Subcode:    int(errInfo.Get("error_subcode").Int()),
		UserTitle:  errInfo.Get("error_user_title").String(),
		UserMsg:    errInfo.Get("error_user_msg").String(),
		TraceID:    errInfo.Get("fbtrace_id").String(),
		StatusCode: status,
	}

	var body map[string]any
	if err := json.Unmarshal(raw, &body); err == nil {
		apiErr.Body = body
	}

	return apiErr
}
