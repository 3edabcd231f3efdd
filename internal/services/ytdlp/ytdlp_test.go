package ytdlp_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"subgen/internal/logging"
	"subgen/internal/services"
	"subgen/internal/services/ytdlp"
	"subgen/internal/workdir"
)

func TestFetchSkipsDownloadWhenMediaExists(t *testing.T) {
	mgr := workdir.NewManager(t.TempDir())
	dirs, err := mgr.Resolve("abc123")
	if err != nil {
		t.Fatal(err)
	}
	existing := filepath.Join(dirs.Video, "abc123.mp4")
	if err := os.WriteFile(existing, []byte("mp4"), 0o644); err != nil {
		t.Fatal(err)
	}

	svc := ytdlp.NewService(logging.NewNop(), mgr)
	var downloads int
	svc.WithCommandRunner(func(_ context.Context, name string, args ...string) ([]byte, error) {
		joined := strings.Join(args, " ")
		if strings.Contains(joined, "--dump-json") {
			return []byte(`{"id":"abc123","title":"Sample"}`), nil
		}
		downloads++
		return nil, nil
	})

	info, err := svc.Fetch(context.Background(), "https://example.com/watch?v=abc123", t.TempDir())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if downloads != 0 {
		t.Fatalf("expected no download invocation, got %d", downloads)
	}
	if info.Path != existing {
		t.Fatalf("path = %q, want existing %q", info.Path, existing)
	}
	if info.ID != "abc123" || info.Title != "Sample" {
		t.Fatalf("unexpected info: %+v", info)
	}
}

func TestFetchDownloadsWhenAbsent(t *testing.T) {
	mgr := workdir.NewManager(t.TempDir())
	tmpRoot := t.TempDir()

	svc := ytdlp.NewService(logging.NewNop(), mgr)
	svc.WithCommandRunner(func(_ context.Context, name string, args ...string) ([]byte, error) {
		joined := strings.Join(args, " ")
		if strings.Contains(joined, "--dump-json") {
			return []byte(`{"id":"abc123","title":"Sample"}`), nil
		}
		// Simulate yt-dlp writing the merged mp4.
		if err := os.WriteFile(filepath.Join(tmpRoot, "abc123.mp4"), []byte("mp4"), 0o644); err != nil {
			t.Fatal(err)
		}
		return nil, nil
	})

	info, err := svc.Fetch(context.Background(), "https://example.com/watch?v=abc123", tmpRoot)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if info.Path != filepath.Join(tmpRoot, "abc123.mp4") {
		t.Fatalf("unexpected path: %q", info.Path)
	}
}

func TestFetchRejectsEmptyURL(t *testing.T) {
	svc := ytdlp.NewService(logging.NewNop(), workdir.NewManager(t.TempDir()))
	if _, err := svc.Fetch(context.Background(), "  ", t.TempDir()); err == nil {
		t.Fatal("expected error for empty url")
	}
}

func TestFetchSurfacesProbeParseFailure(t *testing.T) {
	svc := ytdlp.NewService(logging.NewNop(), workdir.NewManager(t.TempDir()))
	svc.WithCommandRunner(func(_ context.Context, _ string, _ ...string) ([]byte, error) {
		return []byte("not json"), nil
	})
	_, err := svc.Fetch(context.Background(), "https://example.com/v", t.TempDir())
	if !errors.Is(err, services.ErrParse) {
		t.Fatalf("expected parse error, got %v", err)
	}
}
