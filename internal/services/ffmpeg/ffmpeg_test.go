package ffmpeg_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"subgen/internal/logging"
	"subgen/internal/segments"
	"subgen/internal/services"
	"subgen/internal/services/ffmpeg"
)

func captureRunner(calls *[][]string, err error) services.CommandRunner {
	return func(_ context.Context, name string, args ...string) ([]byte, error) {
		*calls = append(*calls, append([]string{name}, args...))
		return []byte("tool output"), err
	}
}

func TestExtractAudioBuildsPCMCommand(t *testing.T) {
	var calls [][]string
	svc := ffmpeg.NewService(logging.NewNop())
	svc.WithCommandRunner(captureRunner(&calls, nil))

	if err := svc.ExtractAudio(context.Background(), "in.mp4", "out.wav", 16000, true); err != nil {
		t.Fatalf("ExtractAudio: %v", err)
	}
	if len(calls) != 1 {
		t.Fatalf("expected one invocation, got %d", len(calls))
	}
	got := strings.Join(calls[0], " ")
	for _, want := range []string{"ffmpeg", "-acodec pcm_s16le", "-ar 16000", "-ac 1", "out.wav"} {
		if !strings.Contains(got, want) {
			t.Errorf("command %q missing %q", got, want)
		}
	}
}

func TestExtractAudioStereoOmitsChannelFlag(t *testing.T) {
	var calls [][]string
	svc := ffmpeg.NewService(logging.NewNop())
	svc.WithCommandRunner(captureRunner(&calls, nil))

	if err := svc.ExtractAudio(context.Background(), "in.mp4", "out.wav", 44100, false); err != nil {
		t.Fatal(err)
	}
	for _, arg := range calls[0] {
		if arg == "-ac" {
			t.Fatalf("stereo extraction must not force channel count: %v", calls[0])
		}
	}
}

func TestExtractAudioSurfacesCommandFailure(t *testing.T) {
	var calls [][]string
	svc := ffmpeg.NewService(logging.NewNop())
	svc.WithCommandRunner(captureRunner(&calls, errors.New("exit status 1")))

	err := svc.ExtractAudio(context.Background(), "in.mp4", "out.wav", 16000, true)
	if !errors.Is(err, services.ErrCommandFailed) {
		t.Fatalf("expected ErrCommandFailed, got %v", err)
	}
}

func TestAddSubtitlesSoftUsesMovText(t *testing.T) {
	var calls [][]string
	svc := ffmpeg.NewService(logging.NewNop())
	svc.WithCommandRunner(captureRunner(&calls, nil))

	if err := svc.AddSubtitlesSoft(context.Background(), "in.mp4", "subs.srt", "out.mp4", ""); err != nil {
		t.Fatal(err)
	}
	got := strings.Join(calls[0], " ")
	for _, want := range []string{"-c copy", "-c:s mov_text", "language=eng"} {
		if !strings.Contains(got, want) {
			t.Errorf("command %q missing %q", got, want)
		}
	}
}

func TestBurnSubtitlesAppliesASSFilter(t *testing.T) {
	var calls [][]string
	svc := ffmpeg.NewService(logging.NewNop())
	svc.WithCommandRunner(captureRunner(&calls, nil))

	if err := svc.BurnSubtitles(context.Background(), "in.mp4", "subs.ass", "out.mp4"); err != nil {
		t.Fatal(err)
	}
	got := strings.Join(calls[0], " ")
	if !strings.Contains(got, "-vf ass=subs.ass") {
		t.Fatalf("command %q missing ass filter", got)
	}
	if !strings.Contains(got, "-c:a copy") {
		t.Fatalf("command %q must copy audio", got)
	}
}

func TestBoxAlphaInvertsOpacity(t *testing.T) {
	cases := []struct {
		opacity float64
		want    uint8
	}{
		{0.0, 255},
		{1.0, 0},
		{0.6, 102},
	}
	for _, tc := range cases {
		if got := ffmpeg.BoxAlpha(tc.opacity); got != tc.want {
			t.Errorf("BoxAlpha(%v) = %d, want %d", tc.opacity, got, tc.want)
		}
	}
}

func TestWriteASSUsesCentisecondTimestamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subs.ass")
	segs := []segments.Segment{
		{Start: 3661.5, End: 3663.009, Text: "line one\nline two"},
	}
	if err := ffmpeg.WriteASS(path, segs, 0.6); err != nil {
		t.Fatalf("WriteASS: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if !strings.Contains(content, "Dialogue: 0,1:01:01.50,1:01:03.00,Default") {
		t.Fatalf("expected truncated centisecond timestamps, got:\n%s", content)
	}
	if !strings.Contains(content, `line one\Nline two`) {
		t.Fatalf("expected ASS line break escape, got:\n%s", content)
	}
	if !strings.Contains(content, "&H66000000") {
		t.Fatalf("expected box alpha 0x66 in style, got:\n%s", content)
	}
}
