package generation_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/newslens/reframe/pkg/generation"
)

func newClient(t *testing.T, baseURL string) *generation.Client {
	t.Helper()

	cfg := &generation.Config{
		BaseURL: baseURL,
		APIKey:  "test-key",
		Model:   "test-model",
	}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("config finalize: %v", err)
	}
	cfg.BaseURL = baseURL

	return generation.New(cfg, slog.New(slog.DiscardHandler))
}

func chatReply(content string) string {
	body, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	})
	return string(body)
}

func TestClientCall(t *testing.T) {
	messages := []generation.Message{
		generation.System("answer in JSON"),
		generation.User("hello"),
	}
	opts := generation.Options{Model: "test-model", JSONResponse: true}

	t.Run("success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/chat/completions" {
				t.Errorf("path = %q", r.URL.Path)
			}
			if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
				t.Errorf("Authorization = %q", got)
			}

			var req map[string]any
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decode request: %v", err)
			}
			if req["model"] != "test-model" {
				t.Errorf("model = %v", req["model"])
			}
			if rf, ok := req["response_format"].(map[string]any); !ok || rf["type"] != "json_object" {
				t.Errorf("response_format = %v", req["response_format"])
			}

			w.Write([]byte(chatReply(`{"answer":"hi"}`)))
		}))
		defer srv.Close()

		result, fail := newClient(t, srv.URL).Call(context.Background(), messages, opts)
		if fail != nil {
			t.Fatalf("unexpected failure: %v", fail.Error)
		}
		if result["answer"] != "hi" {
			t.Errorf("answer = %v, want hi", result["answer"])
		}
	})

	t.Run("fenced content recovered", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(chatReply("```json\n{\"answer\":\"fenced\"}\n```")))
		}))
		defer srv.Close()

		result, fail := newClient(t, srv.URL).Call(context.Background(), messages, opts)
		if fail != nil {
			t.Fatalf("unexpected failure: %v", fail.Error)
		}
		if result["answer"] != "fenced" {
			t.Errorf("answer = %v, want fenced", result["answer"])
		}
	})

	t.Run("non-success status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		result, fail := newClient(t, srv.URL).Call(context.Background(), messages, opts)
		if result != nil {
			t.Errorf("result = %v, want nil", result)
		}
		if fail == nil {
			t.Fatal("expected failure")
		}
		if !strings.Contains(fail.Error, "503") {
			t.Errorf("failure = %q, want status 503 mention", fail.Error)
		}
	})

	t.Run("unparseable content", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(chatReply("I cannot answer in JSON, sorry.")))
		}))
		defer srv.Close()

		_, fail := newClient(t, srv.URL).Call(context.Background(), messages, opts)
		if fail == nil {
			t.Fatal("expected failure")
		}
		if fail.RawContent != "I cannot answer in JSON, sorry." {
			t.Errorf("RawContent = %q", fail.RawContent)
		}
	})

	t.Run("empty choices", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"choices":[]}`))
		}))
		defer srv.Close()

		_, fail := newClient(t, srv.URL).Call(context.Background(), messages, opts)
		if fail == nil {
			t.Fatal("expected failure")
		}
		if !strings.Contains(fail.Error, "no choices") {
			t.Errorf("failure = %q", fail.Error)
		}
	})

	t.Run("transport failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		srv.Close()

		_, fail := newClient(t, srv.URL).Call(context.Background(), messages, opts)
		if fail == nil {
			t.Fatal("expected failure")
		}
		if !strings.Contains(fail.Error, "transport") {
			t.Errorf("failure = %q, want transport error", fail.Error)
		}
	})
}
