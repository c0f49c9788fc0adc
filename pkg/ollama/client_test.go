package ollama_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/garnizeh/curator/internal/config"
	"github.com/garnizeh/curator/pkg/ollama"
)

func TestGenerateResult_MarshalMeta(t *testing.T) {
	gr := ollama.GenerateResult{Text: "ok", Raw: json.RawMessage(`{"x":1}`), Meta: map[string]any{"model": "m", "latency_ms": 123}}
	b, err := json.Marshal(gr)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	s := string(b)
	if s == "" || !strings.Contains(s, "latency_ms") || !strings.Contains(s, "model") {
		t.Fatalf("unexpected marshaled result: %s", s)
	}
}

func TestNewClient_BadBaseURL(t *testing.T) {
	cfg := config.OllamaConfig{BaseURL: "not a url", Timeout: time.Second}
	if _, err := ollama.NewClient(cfg, nil); err == nil {
		t.Fatalf("expected error for bad base url")
	}
}

func TestClient_Health_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := config.OllamaConfig{BaseURL: srv.URL, Timeout: 2 * time.Second, Retries: 0}
	client, err := ollama.NewClient(cfg, srv.Client())
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	defer client.Close()

	if err := client.Health(context.Background()); err != nil {
		t.Fatalf("Health failed: %v", err)
	}
}

func TestClient_Health_ServerDown_Fails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := config.OllamaConfig{BaseURL: srv.URL, Timeout: 2 * time.Second, Retries: 0, CircuitFailureThreshold: 10}
	client, err := ollama.NewClient(cfg, srv.Client())
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	defer client.Close()

	if err := client.Health(context.Background()); err == nil {
		t.Fatalf("expected Health to fail when server errors")
	}
}
