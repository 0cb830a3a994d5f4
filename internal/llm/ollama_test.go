package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestOllamaGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}

		var req ollamaGenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.Model != "llama3.2" {
			t.Errorf("expected model llama3.2, got %s", req.Model)
		}
		if req.Stream {
			t.Error("expected stream=false")
		}
		if !strings.Contains(req.Prompt, "housing") {
			t.Errorf("expected prompt to be forwarded, got %q", req.Prompt)
		}

		json.NewEncoder(w).Encode(ollamaGenerateResponse{
			Response: "FINAL ANSWER: 11,332 NOK per month.",
			Done:     true,
		})
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "llama3.2", 0, zap.NewNop())
	out, err := c.Generate(context.Background(), "How much is housing?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "FINAL ANSWER: 11,332 NOK per month." {
		t.Errorf("unexpected completion: %q", out)
	}
}

func TestOllamaGenerateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "missing", 0, zap.NewNop())
	_, err := c.Generate(context.Background(), "q")
	if err == nil {
		t.Fatal("expected error on non-200 status")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("expected status in error, got %v", err)
	}
}

func TestOllamaGenerateAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ollamaGenerateResponse{Error: "out of memory"})
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "llama3.2", 0, zap.NewNop())
	_, err := c.Generate(context.Background(), "q")
	if err == nil {
		t.Fatal("expected error when the API reports one")
	}
	if !strings.Contains(err.Error(), "out of memory") {
		t.Errorf("expected API error text, got %v", err)
	}
}

func TestOllamaGenerateUnreachable(t *testing.T) {
	c := NewOllamaClient("http://127.0.0.1:1", "llama3.2", 0, zap.NewNop())
	if _, err := c.Generate(context.Background(), "q"); err == nil {
		t.Fatal("expected connection error to propagate")
	}
}

func TestOllamaLabel(t *testing.T) {
	c := NewOllamaClient("", "", 0, zap.NewNop())
	if c.Label() != "ollama (llama3.2)" {
		t.Errorf("unexpected label %q", c.Label())
	}
}
