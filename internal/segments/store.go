package segments

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"subgen/internal/services"
	"subgen/internal/timecode"
)

// WriteDocument serializes a transcript document as UTF-8 JSON. HTML escaping
// is disabled so non-Latin scripts round-trip byte-for-byte readable.
func WriteDocument(path string, doc Document) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write transcript %q: %w", path, err)
	}
	return nil
}

// ReadDocument loads a transcript document written by WriteDocument.
func ReadDocument(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Document{}, services.Wrap(services.ErrNotFound, "", "read transcript", path, err)
		}
		return Document{}, fmt.Errorf("read transcript %q: %w", path, err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, services.Wrap(services.ErrParse, "", "read transcript", path, err)
	}
	return doc, nil
}

// WriteSRT renders segments as an SRT file. Cues are numbered from 1 in
// document order. Empty-text segments still produce a cue so the numbering
// stays aligned with the document; players tolerate blank cues, but a
// skipped index breaks strict parsers.
func WriteSRT(path string, segs []Segment) error {
	var b strings.Builder
	for i, seg := range segs {
		start := seg.Start
		end := seg.End
		if end < start {
			end = start
		}
		fmt.Fprintf(&b, "%d\n", i+1)
		fmt.Fprintf(&b, "%s --> %s\n", timecode.SecondsToSRT(start), timecode.SecondsToSRT(end))
		b.WriteString(strings.TrimSpace(seg.Text))
		b.WriteString("\n\n")
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write srt %q: %w", path, err)
	}
	return nil
}
