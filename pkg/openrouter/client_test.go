package openrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kartlane/storefront-backend/pkg/config"
	pkgerrors "github.com/kartlane/storefront-backend/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, timeout time.Duration) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(config.OpenRouterConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "test/model",
		Timeout: timeout,
	}, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client, server
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient(config.OpenRouterConfig{}, nil); err == nil {
		t.Fatal("expected missing api key error")
	}
}

func TestCompleteReturnsAssistantContent(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing auth header")
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Messages) == 0 || req.Messages[0].Role != "system" {
			t.Errorf("system prompt not first: %+v", req.Messages)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": `{"type":"text","message":"hi"}`}},
			},
		})
	}, 5*time.Second)

	content, err := client.Complete(context.Background(), "you are a designer", []Message{
		{Role: "user", Content: "make it blue"},
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if content != `{"type":"text","message":"hi"}` {
		t.Fatalf("content = %q", content)
	}
}

func TestCompleteTimeoutIsDependencyError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}, 50*time.Millisecond)

	_, err := client.Complete(context.Background(), "", []Message{{Role: "user", Content: "x"}})
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestCompleteNon2xxIsDependencyError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}, time.Second)

	_, err := client.Complete(context.Background(), "", []Message{{Role: "user", Content: "x"}})
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestCompleteEmptyChoicesIsBadUpstream(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}, time.Second)

	_, err := client.Complete(context.Background(), "", []Message{{Role: "user", Content: "x"}})
	if !pkgerrors.IsCode(err, pkgerrors.CodeBadUpstream) {
		t.Fatalf("expected bad upstream error, got %v", err)
	}
}
