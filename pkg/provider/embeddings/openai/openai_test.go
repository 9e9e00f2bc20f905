package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNew_MissingAPIKey(t *testing.T) {
	t.Parallel()

	if _, err := New("", "text-embedding-3-small"); err == nil {
		t.Fatal("expected error for empty API key")
	}
}

func TestNew_DefaultModel(t *testing.T) {
	t.Parallel()

	p, err := New("sk-test", "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.ModelID() != DefaultModel {
		t.Errorf("ModelID() = %q, want %q", p.ModelID(), DefaultModel)
	}
}

func TestDimensions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		model string
		opts  []Option
		want  int
	}{
		{name: "3-small native", model: "text-embedding-3-small", want: 1536},
		{name: "3-large native", model: "text-embedding-3-large", want: 3072},
		{name: "ada-002 native", model: "text-embedding-ada-002", want: 1536},
		{name: "unknown model", model: "some-future-model", want: 0},
		{name: "configured wins over native", model: "text-embedding-3-large", opts: []Option{WithDimensions(768)}, want: 768},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p, err := New("sk-test", tt.model, tt.opts...)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if got := p.Dimensions(); got != tt.want {
				t.Errorf("Dimensions() = %d, want %d", got, tt.want)
			}
		})
	}
}

// newEmbeddingsServer serves POST /embeddings with a canned vector, capturing
// the raw request body for assertions.
func newEmbeddingsServer(t *testing.T, vec []float64, gotBody *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(gotBody); err != nil {
			t.Errorf("decode request: %v", err)
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  (*gotBody)["model"],
			"data": []map[string]any{
				{"object": "embedding", "index": 0, "embedding": vec},
			},
			"usage": map[string]any{"prompt_tokens": 4, "total_tokens": 4},
		})
	}))
}

func TestEmbed_SendsConfiguredDimensions(t *testing.T) {
	t.Parallel()

	var gotBody map[string]any
	srv := newEmbeddingsServer(t, []float64{0.25, -0.5, 0.75}, &gotBody)
	defer srv.Close()

	p, err := New("sk-test", "text-embedding-3-small",
		WithBaseURL(srv.URL),
		WithDimensions(3),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	const flavor = "Ele armazena eletricidade nas bochechas."
	vec, err := p.Embed(context.Background(), flavor)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	if gotBody["input"] != flavor {
		t.Errorf("request input = %v, want %q", gotBody["input"], flavor)
	}
	if dims, ok := gotBody["dimensions"].(float64); !ok || int(dims) != 3 {
		t.Errorf("request dimensions = %v, want 3", gotBody["dimensions"])
	}
	want := []float32{0.25, -0.5, 0.75}
	if len(vec) != len(want) {
		t.Fatalf("vector length = %d, want %d", len(vec), len(want))
	}
	for i := range want {
		if vec[i] != want[i] {
			t.Errorf("vec[%d] = %v, want %v", i, vec[i], want[i])
		}
	}
}

func TestEmbed_OmitsDimensionsWhenUnset(t *testing.T) {
	t.Parallel()

	var gotBody map[string]any
	srv := newEmbeddingsServer(t, []float64{0.1, 0.2}, &gotBody)
	defer srv.Close()

	p, err := New("sk-test", "text-embedding-ada-002", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := p.Embed(context.Background(), "Seu rabo em forma de raio atrai tempestades."); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if _, present := gotBody["dimensions"]; present {
		t.Errorf("request unexpectedly carries dimensions: %v", gotBody["dimensions"])
	}
}

func TestEmbed_EmptyResponse(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  "text-embedding-3-small",
			"data":   []map[string]any{},
			"usage":  map[string]any{"prompt_tokens": 0, "total_tokens": 0},
		})
	}))
	defer srv.Close()

	p, err := New("sk-test", "", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := p.Embed(context.Background(), "hello"); err == nil {
		t.Fatal("expected error for empty response, got nil")
	}
}
