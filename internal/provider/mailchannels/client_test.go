package mailchannels

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/shineum/mda-mailchannels/internal/email"
)

func testClient(t *testing.T, handler http.HandlerFunc) (*Client, *atomic.Int32) {
	t.Helper()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client := New(ClientConfig{
		APIKey:   "test-api-key",
		Selector: "mailer",
		Keys:     &fakeKeyStore{keys: map[string]string{"example.com": "BASE64KEY"}},
		Endpoint: server.URL,
	})
	return client, &calls
}

func TestSend_Accepted(t *testing.T) {
	t.Parallel()

	client, calls := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	if err := client.Send(context.Background(), testMessage()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("requests: got %d, want 1", calls.Load())
	}
}

func TestSend_SandboxOK(t *testing.T) {
	t.Parallel()

	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	if err := client.Send(context.Background(), testMessage()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSend_RequestShape(t *testing.T) {
	t.Parallel()

	var (
		gotMethod  string
		gotHeaders http.Header
		gotBody    map[string]json.RawMessage
	)
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotHeaders = r.Header.Clone()
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	})

	if err := client.Send(context.Background(), testMessage()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotMethod != http.MethodPost {
		t.Errorf("method: got %q, want POST", gotMethod)
	}
	if got := gotHeaders.Get("X-Api-Key"); got != "test-api-key" {
		t.Errorf("X-Api-Key: got %q, want %q", got, "test-api-key")
	}
	if got := gotHeaders.Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type: got %q, want %q", got, "application/json")
	}
	if got := gotHeaders.Get("Accept"); got != "application/json" {
		t.Errorf("Accept: got %q, want %q", got, "application/json")
	}

	for _, field := range []string{"from", "personalizations", "subject", "content", "transactional"} {
		if _, ok := gotBody[field]; !ok {
			t.Errorf("request body missing field %q: %v", field, gotBody)
		}
	}
	if string(gotBody["transactional"]) != "null" {
		t.Errorf("transactional: got %s, want null", gotBody["transactional"])
	}
}

func TestSend_APIError(t *testing.T) {
	t.Parallel()

	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"errors":["invalid api key"]}`))
	})

	err := client.Send(context.Background(), testMessage())
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type: got %T (%v), want *APIError", err, err)
	}
	if apiErr.StatusCode != http.StatusForbidden {
		t.Errorf("status code: got %d, want 403", apiErr.StatusCode)
	}
	if apiErr.Body != `{"errors":["invalid api key"]}` {
		t.Errorf("body: got %q", apiErr.Body)
	}
}

func TestSend_ValidationFailsBeforeNetworkCall(t *testing.T) {
	t.Parallel()

	client, calls := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	msg := testMessage()
	msg.Headers = append(msg.Headers, email.Header{Name: "Reply-To", Value: "a@example.com, b@example.com"})

	err := client.Send(context.Background(), msg)
	if !errors.Is(err, ErrTooManyHeaders) {
		t.Fatalf("error: got %v, want ErrTooManyHeaders", err)
	}
	if calls.Load() != 0 {
		t.Errorf("requests: got %d, want 0", calls.Load())
	}
}

func TestSend_MalformedAPIKey(t *testing.T) {
	t.Parallel()

	client, calls := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	client.apiKey = "bad\nkey"

	err := client.Send(context.Background(), testMessage())
	if !errors.Is(err, ErrMalformedHeaderValue) {
		t.Fatalf("error: got %v, want ErrMalformedHeaderValue", err)
	}
	if calls.Load() != 0 {
		t.Errorf("requests: got %d, want 0", calls.Load())
	}
}

func TestSend_SingleAttemptOnServerError(t *testing.T) {
	t.Parallel()

	client, calls := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := client.Send(context.Background(), testMessage())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type: got %T (%v), want *APIError", err, err)
	}
	if calls.Load() != 1 {
		t.Errorf("requests: got %d, want exactly 1 (no retry)", calls.Load())
	}
}

func TestName(t *testing.T) {
	t.Parallel()

	client := New(ClientConfig{})
	if got := client.Name(); got != "mailchannels" {
		t.Errorf("Name: got %q, want %q", got, "mailchannels")
	}
}

func TestNew_DefaultEndpoint(t *testing.T) {
	t.Parallel()

	client := New(ClientConfig{APIKey: "k"})
	if client.endpoint != DefaultEndpoint {
		t.Errorf("endpoint: got %q, want %q", client.endpoint, DefaultEndpoint)
	}
}
