package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/tidwall/gjson"
)

// maxBatchSize is the provider's ceiling on sub-requests per physical batch
// call.
const maxBatchSize = 50

// BatchItem is one logical sub-request inside a batch call. The credential is
// never part of the relative URL; it travels once per physical call.
type BatchItem struct {
	Method      string `json:"method"`
	RelativeURL string `json:"relative_url"`
}

// BatchHeader is one response header of a batch sub-response.
type BatchHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// BatchResponse is one reassembled sub-response. Body holds structured JSON
// when the provider's string body parsed, otherwise the raw string.
type BatchResponse struct {
	Code    int
	Headers []BatchHeader
	Body    any
}

// batchEntry is the provider's wire shape for one sub-response; the body
// arrives as a JSON-encoded string.
type batchEntry struct {
	Code    int           `json:"code"`
	Headers []BatchHeader `json:"headers"`
	Body    *string       `json:"body"`
}

// BuildRelativePath constructs the relative URL for a batch sub-request:
// "{objectID}/{endpoint}" plus the URL-encoded query built from params. The
// access_token parameter is always excluded so the credential never appears
// in a sub-request path.
func BuildRelativePath(objectID, endpoint string, params url.Values) string {
	path := objectID + "/" + endpoint

	vals := cloneValues(params)
	vals.Del("access_token")

	if encoded := vals.Encode(); encoded != "" {
		path += "?" + encoded
	}

	return path
}

// ExecuteBatch runs the given sub-requests as as few physical calls as the
// provider allows. Items are split into consecutive chunks of at most 50 in
// input order; each chunk is one POST through the retrying executor, with the
// credential supplied once per call. The returned slice has one entry per
// input item, position j answering item j regardless of chunk boundaries.
//
// A sub-response with a non-200 code is returned as an ordinary entry with
// its code and body intact. A failed chunk call, after retries exhaust, fails
// the whole operation; results from earlier chunks are discarded.
func (c *Client) ExecuteBatch(ctx context.Context, items []BatchItem) ([]BatchResponse, error) {
	responses := make([]BatchResponse, 0, len(items))

	for start := 0; start < len(items); start += maxBatchSize {
		end := min(start+maxBatchSize, len(items))
		chunk := items[start:end]

		descriptors, err := json.Marshal(chunk)
		if err != nil {
			return nil, fmt.Errorf("encoding batch descriptors: %w", err)
		}

		raw, err := c.postRaw(ctx, "", url.Values{"batch": {string(descriptors)}})
		if err != nil {
			return nil, err
		}

		var entries []batchEntry
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, fmt.Errorf("decoding batch response: %w", err)
		}

		if len(entries) != len(chunk) {
			return nil, fmt.Errorf("batch returned %d responses for %d requests", len(entries), len(chunk))
		}

		for _, entry := range entries {
			responses = append(responses, BatchResponse{
				Code:    entry.Code,
				Headers: entry.Headers,
				Body:    reparseBody(entry.Body),
			})
		}
	}

	return responses, nil
}

// reparseBody turns a JSON-encoded string body back into structured JSON.
// Parse failure leaves the raw string untouched; this is the one place a
// failure is deliberately swallowed.
func reparseBody(s *string) any {
	if s == nil {
		return nil
	}

	if gjson.Valid(*s) {
		var v any
		if err := json.Unmarshal([]byte(*s), &v); err == nil {
			return v
		}
	}

	return *s
}
