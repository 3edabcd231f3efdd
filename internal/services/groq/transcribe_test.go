package groq_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"subgen/internal/logging"
	"subgen/internal/services"
	"subgen/internal/services/groq"
)

func writeAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audio.wav")
	if err := os.WriteFile(path, []byte("wav"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTranscribeDetailedSegments(t *testing.T) {
	var gotModel, gotFormat string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		gotModel = r.FormValue("model")
		gotFormat = r.FormValue("response_format")
		payload := map[string]any{
			"text":     "hello there general",
			"language": "en",
			"segments": []any{
				map[string]any{"start": 0.0, "end": 1.2, "text": " hello there "},
				map[string]any{"start": 1.2, "end": 2.6, "text": "general"},
			},
		}
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}))
	defer server.Close()

	client := groq.NewClient(groq.Config{
		APIKey:  "test",
		BaseURL: server.URL,
		Model:   "distil-whisper-large-v3-en",
	}, logging.NewNop())

	doc, err := client.Transcribe(context.Background(), writeAudio(t), "en")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if gotModel != "distil-whisper-large-v3-en" {
		t.Fatalf("model = %q", gotModel)
	}
	if gotFormat != "verbose_json" {
		t.Fatalf("response_format = %q", gotFormat)
	}
	if doc.Language != "en" {
		t.Fatalf("language = %q", doc.Language)
	}
	if len(doc.Segments) != 2 {
		t.Fatalf("segments = %d", len(doc.Segments))
	}
	if doc.Segments[0].Text != "hello there" {
		t.Fatalf("text not trimmed: %q", doc.Segments[0].Text)
	}
}

func TestTranscribeSummaryOnlySynthesizesSegment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{"text": " full transcript blob ", "language": "ja"}
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}))
	defer server.Close()

	client := groq.NewClient(groq.Config{APIKey: "test", BaseURL: server.URL, Model: "whisper-large-v3"}, logging.NewNop())
	doc, err := client.Transcribe(context.Background(), writeAudio(t), "")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(doc.Segments) != 1 {
		t.Fatalf("expected synthesized single segment, got %d", len(doc.Segments))
	}
	seg := doc.Segments[0]
	if seg.Start != 0 || seg.End != 0 {
		t.Fatalf("synthesized segment must span [0,0], got [%v,%v]", seg.Start, seg.End)
	}
	if seg.Text != "full transcript blob" {
		t.Fatalf("text = %q", seg.Text)
	}
}

func TestTranscribeHTTPErrorIsBackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid api key"}}`))
	}))
	defer server.Close()

	client := groq.NewClient(groq.Config{APIKey: "bad", BaseURL: server.URL, Model: "whisper-large-v3"}, logging.NewNop())
	_, err := client.Transcribe(context.Background(), writeAudio(t), "")
	if !errors.Is(err, services.ErrBackend) {
		t.Fatalf("expected ErrBackend, got %v", err)
	}
}

func TestTranscribeRequiresAPIKey(t *testing.T) {
	client := groq.NewClient(groq.Config{Model: "whisper-large-v3"}, logging.NewNop())
	_, err := client.Transcribe(context.Background(), writeAudio(t), "")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
