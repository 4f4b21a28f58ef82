package completion

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	contractx "github.com/lenoxhq/lenox/agent/contract"
)

func fakeChatServer(t *testing.T, handler func(body map[string]any) any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(handler(body))
	}))
}

func TestCompleteReturnsModelText(t *testing.T) {
	t.Parallel()

	srv := fakeChatServer(t, func(body map[string]any) any {
		if got := body["model"]; got != "gpt-4o-mini" {
			t.Errorf("model = %v", got)
		}
		msgs, _ := body["messages"].([]any)
		if len(msgs) != 2 {
			t.Errorf("expected system+user messages, got %v", msgs)
		}
		return map[string]any{
			"choices": []any{
				map[string]any{"message": map[string]any{"role": "assistant", "content": "  BTC is volatile.  "}},
			},
		}
	})
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL, APIKey: "test-key", Model: "gpt-4o-mini"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	out, err := client.Complete(context.Background(), "be helpful", "tell me about btc")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != "BTC is volatile." {
		t.Fatalf("unexpected reply: %q", out)
	}
}

func TestCompleteEmptyChoices(t *testing.T) {
	t.Parallel()

	srv := fakeChatServer(t, func(body map[string]any) any {
		return map[string]any{"choices": []any{}}
	})
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL, APIKey: "test-key", Model: "gpt-4o-mini"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = client.Complete(context.Background(), "sys", "input")
	if !errors.Is(err, contractx.ErrCompletionFailed) {
		t.Fatalf("expected ErrCompletionFailed, got %v", err)
	}
}

func TestCompleteUpstreamFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "overloaded"}}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL, APIKey: "test-key", Model: "gpt-4o-mini"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = client.Complete(context.Background(), "sys", "input")
	if !errors.Is(err, contractx.ErrCompletionFailed) {
		t.Fatalf("expected ErrCompletionFailed, got %v", err)
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	t.Parallel()

	_, err := NewClient(Config{APIKey: "  "})
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
