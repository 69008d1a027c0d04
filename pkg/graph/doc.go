// Package graph provides the HTTP client for the Meta Marketing (Graph) API
// with consistent error classification, retry, and batching behavior across
// the meta-ads-mcp codebase.
//
// The client provides:
//   - GET with query parameters and POST with form-encoded bodies
//   - Classification of upstream error bodies into typed failures
//   - Automatic retries with bounded exponential backoff, applied only to
//     transient failures (server errors and rate limits)
//   - Batch execution that splits logical sub-requests into provider-sized
//     chunks while preserving request/response ordering
//
// Example usage:
//
//	cfg := graph.DefaultConfig()
//	cfg.AccessToken = token
//	client, err := graph.New(cfg)
//	if err != nil {
//	    return err
//	}
//
//	data, err := client.Get(ctx, "act_1234567890/campaigns", url.Values{
//	    "fields": {"id,name,effective_status"},
//	})
//
// Failures surface as *graph.Error values carrying the raw upstream body, so
// callers can inspect the failure kind and the provider's error payload:
//
//	var apiErr *graph.Error
//	if errors.As(err, &apiErr) && apiErr.Kind == graph.KindAuth {
//	    // credential problem, do not retry
//	}
package graph
