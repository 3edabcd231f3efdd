package whisper_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"subgen/internal/logging"
	"subgen/internal/services"
	"subgen/internal/services/whisper"
)

func TestTranscribeParsesWhisperJSON(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "audio.wav")
	if err := os.WriteFile(audio, []byte("wav"), 0o644); err != nil {
		t.Fatal(err)
	}

	svc := whisper.NewService(whisper.Config{
		Model:                "base",
		Device:               "cpu",
		ComputeType:          "int8",
		BeamSize:             5,
		VADFilter:            true,
		MinSilenceDurationMS: 500,
	}, logging.NewNop())

	var command []string
	svc.WithCommandRunner(func(_ context.Context, name string, args ...string) ([]byte, error) {
		command = append([]string{name}, args...)
		payload := `{"language":"en","segments":[` +
			`{"start":0.0,"end":1.2,"text":" hello there "},` +
			`{"start":1.2,"end":2.6,"text":"general"}]}`
		return nil, os.WriteFile(filepath.Join(dir, "audio.json"), []byte(payload), 0o644)
	})

	doc, err := svc.Transcribe(context.Background(), audio, dir, "en")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
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

	joined := strings.Join(command, " ")
	for _, want := range []string{"uvx", "whisper-ctranslate2", "--model base", "--compute_type int8", "--beam_size 5", "--vad_filter True", "--vad_min_silence_duration_ms 500", "--language en"} {
		if !strings.Contains(joined, want) {
			t.Errorf("command %q missing %q", joined, want)
		}
	}
}

func TestTranscribeMissingOutputFails(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "audio.wav")
	if err := os.WriteFile(audio, []byte("wav"), 0o644); err != nil {
		t.Fatal(err)
	}
	svc := whisper.NewService(whisper.Config{Model: "base"}, logging.NewNop())
	svc.WithCommandRunner(func(_ context.Context, _ string, _ ...string) ([]byte, error) {
		return nil, nil
	})
	_, err := svc.Transcribe(context.Background(), audio, dir, "")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTranscribeCommandFailureIsFatal(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "audio.wav")
	if err := os.WriteFile(audio, []byte("wav"), 0o644); err != nil {
		t.Fatal(err)
	}
	svc := whisper.NewService(whisper.Config{Model: "base"}, logging.NewNop())
	svc.WithCommandRunner(func(_ context.Context, _ string, _ ...string) ([]byte, error) {
		return []byte("model not found"), errors.New("exit status 2")
	})
	_, err := svc.Transcribe(context.Background(), audio, dir, "")
	if !errors.Is(err, services.ErrCommandFailed) {
		t.Fatalf("expected ErrCommandFailed, got %v", err)
	}
}
