package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient("", "https://api.test/v1", "model-a"); err == nil {
		t.Fatal("expected error for missing api key")
	}
	if _, err := NewClient("key", "", "model-a"); err == nil {
		t.Fatal("expected error for missing base url")
	}
	if _, err := NewClient("key", "https://api.test/v1", ""); err == nil {
		t.Fatal("expected error for missing model")
	}
}

func TestComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key_test" {
			t.Fatalf("unexpected authorization header %q", got)
		}

		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req["model"] != "model-a" {
			t.Fatalf("unexpected model %v", req["model"])
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"{\"reply\":\"hi\",\"product_ids\":[]}"}}]}`))
	}))
	defer server.Close()

	client, err := NewClient("key_test", server.URL+"/v1", "model-a")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	out, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "hello"}})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if out != `{"reply":"hi","product_ids":[]}` {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestCompleteRejectsEmptyConversation(t *testing.T) {
	client, err := NewClient("key", "https://api.test/v1", "model-a")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.Complete(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty conversation")
	}
}

func TestCompleteUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	client, err := NewClient("key", server.URL, "model-a")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.Complete(context.Background(), []Message{{Role: "user", Content: "hello"}}); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}
