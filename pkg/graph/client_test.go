package graph

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// newTestClient builds a client against the test server with millisecond
// backoff so retry tests run fast.
func newTestClient(t *testing.T, serverURL string, modify func(*Config)) *Client {
	t.Helper()

	cfg := DefaultConfig()
	cfg.BaseURL = serverURL
	cfg.AccessToken = "test-token"
	cfg.BackoffFloor = time.Millisecond
	cfg.BackoffCeil = 2 * time.Millisecond
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	if modify != nil {
		modify(&cfg)
	}

	client, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return client
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig() // no access token

	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for config without access token")
	}
}

func TestGet_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("access_token"); got != "test-token" {
			t.Errorf("expected injected credential, got %q", got)
		}
		if got := r.URL.Query().Get("fields"); got != "id,name" {
			t.Errorf("expected fields param, got %q", got)
		}
		if !strings.HasPrefix(r.URL.Path, "/v22.0/act_123/campaigns") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"data":[{"id":"1","name":"Summer Sale"}]}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)

	result, err := client.Get(context.Background(), "act_123/campaigns", url.Values{"fields": {"id,name"}})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	body, ok := result.(map[string]any)
	if !ok {
		t.Fatalf("expected map result, got %T", result)
	}
	if _, ok := body["data"]; !ok {
		t.Error("expected data key in response")
	}
}

func TestPost_FormEncodedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("unexpected content type: %s", ct)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parsing form: %v", err)
		}
		if got := r.PostForm.Get("access_token"); got != "test-token" {
			t.Errorf("expected credential in body, got %q", got)
		}
		if got := r.PostForm.Get("name"); got != "New Campaign" {
			t.Errorf("expected name in body, got %q", got)
		}
		io.WriteString(w, `{"id":"12345"}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)

	result, err := client.Post(context.Background(), "act_123/campaigns", url.Values{"name": {"New Campaign"}})
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	body := result.(map[string]any)
	if body["id"] != "12345" {
		t.Errorf("unexpected response: %v", body)
	}
}

func TestGet_RetriesTransientThenSucceeds(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempt := atomic.AddInt32(&attempts, 1)
		if attempt < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			io.WriteString(w, `{"error":{"message":"transient","code":2}}`)
			return
		}
		io.WriteString(w, `{"data":[]}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)

	if _, err := client.Get(context.Background(), "me", nil); err != nil {
		t.Fatalf("request failed: %v", err)
	}

	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestGet_RetriesRateLimit(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempt := atomic.AddInt32(&attempts, 1)
		if attempt < 2 {
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"error":{"message":"User request limit reached","code":17}}`)
			return
		}
		io.WriteString(w, `{"data":[]}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)

	if _, err := client.Get(context.Background(), "me", nil); err != nil {
		t.Fatalf("request failed: %v", err)
	}

	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}

func TestGet_ExhaustionSurfacesLastFailure(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":{"message":"still down","code":1}}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, func(c *Config) { c.MaxAttempts = 3 })

	_, err := client.Get(context.Background(), "me", nil)
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *graph.Error, got %T: %v", err, err)
	}
	if apiErr.Kind != KindServer {
		t.Errorf("expected server error kind, got %v", apiErr.Kind)
	}
	if apiErr.Message != "still down" {
		t.Errorf("last failure not surfaced unchanged: %v", apiErr)
	}

	if attempts != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", attempts)
	}
}

func TestGet_DoesNotRetryAuthError(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":{"message":"Invalid OAuth access token","code":190}}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)

	_, err := client.Get(context.Background(), "me", nil)

	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Kind != KindAuth {
		t.Fatalf("expected auth failure, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("auth errors must not retry: %d attempts", attempts)
	}
}

func TestGet_DoesNotRetryNotFound(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"error":{"message":"Unsupported get request","code":803}}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)

	_, err := client.Get(context.Background(), "bogus_id", nil)

	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Kind != KindNotFound {
		t.Fatalf("expected not-found failure, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("not-found errors must not retry: %d attempts", attempts)
	}
}

func TestGet_NonJSONErrorBody(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, "<html>Bad Gateway</html>")
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)

	_, err := client.Get(context.Background(), "me", nil)

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *graph.Error, got %T: %v", err, err)
	}
	if apiErr.Kind != KindGeneric {
		t.Errorf("expected generic kind, got %v", apiErr.Kind)
	}
	if !strings.Contains(apiErr.Message, "non-JSON response") {
		t.Errorf("message should mention the non-JSON condition: %q", apiErr.Message)
	}
	if attempts != 1 {
		t.Errorf("non-JSON bodies must not retry: %d attempts", attempts)
	}
}

func TestGet_ErrorStatusWithoutErrorKeyPassesThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"warning":"deprecated field"}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)

	result, err := client.Get(context.Background(), "me", nil)
	if err != nil {
		t.Fatalf("pass-through body should not fail: %v", err)
	}

	body := result.(map[string]any)
	if body["warning"] != "deprecated field" {
		t.Errorf("unexpected pass-through body: %v", body)
	}
}

func TestGet_UnknownCodeClassifiesGeneric(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":{"message":"Param fields must be a list","code":613000}}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)

	_, err := client.Get(context.Background(), "me", nil)

	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Kind != KindGeneric {
		t.Fatalf("expected generic failure, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("generic errors must not retry: %d attempts", attempts)
	}
}

func TestGet_CustomCodeTable(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":{"message":"fault","code":1}}`)
	}))
	defer server.Close()

	// Narrow table: code 1 is no longer a retryable server error.
	client := newTestClient(t, server.URL, func(c *Config) {
		c.ErrorCodes = CodeTable{4: KindRateLimited, 190: KindAuth}
	})

	_, err := client.Get(context.Background(), "me", nil)

	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Kind != KindGeneric {
		t.Fatalf("expected generic failure under narrow table, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("narrow table must disable retry for code 1: %d attempts", attempts)
	}
}

func TestDelete_QueryParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("expected DELETE, got %s", r.Method)
		}
		if got := r.URL.Query().Get("access_token"); got != "test-token" {
			t.Errorf("expected injected credential, got %q", got)
		}
		io.WriteString(w, `{"success":true}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)

	result, err := client.Delete(context.Background(), "23851234567890", nil)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	body := result.(map[string]any)
	if body["success"] != true {
		t.Errorf("unexpected response: %v", body)
	}
}

func TestUpload_MultipartBody(t *testing.T) {
	payload := []byte("fake image bytes")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parsing multipart form: %v", err)
		}
		if got := r.MultipartForm.Value["access_token"]; len(got) != 1 || got[0] != "test-token" {
			t.Errorf("expected credential field, got %v", got)
		}

		file, header, err := r.FormFile("filename")
		if err != nil {
			t.Fatalf("reading file field: %v", err)
		}
		defer file.Close()
		if header.Filename != "promo.jpg" {
			t.Errorf("unexpected filename: %q", header.Filename)
		}
		got, _ := io.ReadAll(file)
		if string(got) != string(payload) {
			t.Error("file contents did not survive the round trip")
		}

		io.WriteString(w, `{"images":{"promo.jpg":{"hash":"abc123"}}}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)

	result, err := client.Upload(context.Background(), "act_123/adimages", nil, "filename", "promo.jpg", payload)
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	body := result.(map[string]any)
	if _, ok := body["images"]; !ok {
		t.Errorf("unexpected response: %v", body)
	}
}

func TestUpload_RetriesWithFreshBody(t *testing.T) {
	payload := []byte("video bytes")
	var attempts int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempt := atomic.AddInt32(&attempts, 1)

		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parsing multipart form on attempt %d: %v", attempt, err)
		}
		file, _, err := r.FormFile("source")
		if err != nil {
			t.Fatalf("reading file field on attempt %d: %v", attempt, err)
		}
		got, _ := io.ReadAll(file)
		file.Close()
		if string(got) != string(payload) {
			t.Errorf("attempt %d received a truncated body", attempt)
		}

		if attempt < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			io.WriteString(w, `{"error":{"message":"transient","code":2}}`)
			return
		}
		io.WriteString(w, `{"id":"9876"}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)

	result, err := client.Upload(context.Background(), "act_123/advideos", nil, "source", "promo.mp4", payload)
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}

	body := result.(map[string]any)
	if body["id"] != "9876" {
		t.Errorf("unexpected response: %v", body)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}

func TestGet_DoesNotMutateCallerParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, nil)

	params := url.Values{"fields": {"id"}}
	if _, err := client.Get(context.Background(), "me", params); err != nil {
		t.Fatalf("request failed: %v", err)
	}

	if params.Has("access_token") {
		t.Error("client leaked the credential into the caller's params")
	}
}
