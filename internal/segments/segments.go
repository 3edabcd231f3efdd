// Package segments defines the transcript document that flows through the
// pipeline and its on-disk JSON and SRT representations.
package segments

import "strings"

// Segment is one timed span of speech.
//
// Invariants:
//   - Start >= 0, End >= Start (seconds)
//   - segments within a Document are ordered by Start and are never
//     reordered by any stage
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Document is the canonical transcript shape produced by transcription and
// re-emitted by enhancement and translation. TargetLanguage is set only on
// translated documents.
type Document struct {
	Language       string    `json:"language,omitempty"`
	TargetLanguage string    `json:"target_language,omitempty"`
	Segments       []Segment `json:"segments"`
}

// Clone returns a deep copy so downstream stages can rewrite text without
// aliasing the prior stage's slice.
func (d Document) Clone() Document {
	out := d
	out.Segments = make([]Segment, len(d.Segments))
	copy(out.Segments, d.Segments)
	return out
}

// PlainText joins the trimmed segment texts with single spaces.
func (d Document) PlainText() string {
	parts := make([]string, 0, len(d.Segments))
	for _, seg := range d.Segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}
