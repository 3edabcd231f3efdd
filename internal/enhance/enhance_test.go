package enhance_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"subgen/internal/enhance"
	"subgen/internal/logging"
	"subgen/internal/segments"
	"subgen/internal/services"
)

type fakeCompleter struct {
	response   string
	err        error
	lastSystem string
	lastUser   string
}

func (f *fakeCompleter) CompleteJSON(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	f.lastSystem = systemPrompt
	f.lastUser = userPrompt
	return f.response, f.err
}

func (f *fakeCompleter) Model() string { return "fake-model" }

func inputDoc() segments.Document {
	return segments.Document{
		Language: "en",
		Segments: []segments.Segment{
			{Start: 0, End: 1.2, Text: "hello everbody welcome 2 the show"},
			{Start: 1.2, End: 2.6, Text: "im your host"},
		},
	}
}

func TestEnhancePreservesTimingAndOrder(t *testing.T) {
	completer := &fakeCompleter{response: `{"segments":[
		{"start":0,"end":1.2,"text":"Hello everybody, welcome to the show."},
		{"start":1.2,"end":2.6,"text":"I'm your host."}]}`}
	svc := enhance.NewService(completer, logging.NewNop())

	out, err := svc.Enhance(context.Background(), inputDoc())
	if err != nil {
		t.Fatalf("Enhance: %v", err)
	}
	if out.Language != "en" {
		t.Fatalf("language dropped: %q", out.Language)
	}
	if len(out.Segments) != 2 {
		t.Fatalf("segments = %d", len(out.Segments))
	}
	if out.Segments[0].Start != 0 || out.Segments[0].End != 1.2 {
		t.Fatalf("timing changed: %+v", out.Segments[0])
	}
	if out.Segments[1].Text != "I'm your host." {
		t.Fatalf("text = %q", out.Segments[1].Text)
	}
	if !strings.Contains(completer.lastUser, "everbody") {
		t.Fatal("user prompt must carry the raw segment text")
	}
	if !strings.Contains(completer.lastSystem, "single key 'segments'") {
		t.Fatal("system prompt must request the segments envelope")
	}
}

func TestEnhanceAcceptsBareArray(t *testing.T) {
	completer := &fakeCompleter{response: `[{"start":0,"end":1.2,"text":"Hi."}]`}
	svc := enhance.NewService(completer, logging.NewNop())
	out, err := svc.Enhance(context.Background(), inputDoc())
	if err != nil {
		t.Fatalf("Enhance: %v", err)
	}
	if len(out.Segments) != 1 || out.Segments[0].Text != "Hi." {
		t.Fatalf("unexpected segments: %+v", out.Segments)
	}
}

func TestEnhanceToleratesCountDrift(t *testing.T) {
	completer := &fakeCompleter{response: `{"segments":[
		{"start":0,"end":2.6,"text":"Hello everybody, welcome to the show. I'm your host."}]}`}
	svc := enhance.NewService(completer, logging.NewNop())
	out, err := svc.Enhance(context.Background(), inputDoc())
	if err != nil {
		t.Fatalf("Enhance: %v", err)
	}
	if len(out.Segments) != 1 {
		t.Fatalf("segments = %d", len(out.Segments))
	}
}

func TestEnhanceEmptyInputFails(t *testing.T) {
	svc := enhance.NewService(&fakeCompleter{}, logging.NewNop())
	_, err := svc.Enhance(context.Background(), segments.Document{})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestEnhanceUnparsableResponseFails(t *testing.T) {
	completer := &fakeCompleter{response: "sorry, I cannot help with that"}
	svc := enhance.NewService(completer, logging.NewNop())
	_, err := svc.Enhance(context.Background(), inputDoc())
	if !errors.Is(err, services.ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}
