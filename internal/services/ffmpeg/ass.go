package ffmpeg

import (
	"fmt"
	"math"
	"os"
	"strings"

	"subgen/internal/segments"
	"subgen/internal/timecode"
)

// assHeader is the style block for burned-in subtitles. BorderStyle 4 draws a
// background box behind the text; the box color's alpha channel is filled in
// from the configured opacity.
const assHeader = `[Script Info]
ScriptType: v4.00+
WrapStyle: 0
ScaledBorderAndShadow: yes

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Default,Arial,24,&H00FFFFFF,&H000000FF,&H00000000,&H%02X000000,0,0,0,0,100,100,0,0,4,1,0,2,10,10,20,1

[Events]
Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text
`

// BoxAlpha converts a 0.0-1.0 opacity to the renderer's 8-bit alpha channel.
// ASS alpha is inverted: 0x00 is fully opaque, 0xFF fully transparent.
func BoxAlpha(opacity float64) uint8 {
	if opacity < 0 {
		opacity = 0
	}
	if opacity > 1 {
		opacity = 1
	}
	return uint8(math.Round((1 - opacity) * 255))
}

// WriteASS renders segments as an ASS script with a semi-transparent
// background box. Timestamps go through the SRT format before the
// centisecond conversion so the truncation policy matches the rest of the
// pipeline's subtitle artifacts.
func WriteASS(path string, segs []segments.Segment, boxOpacity float64) error {
	var b strings.Builder
	fmt.Fprintf(&b, assHeader, BoxAlpha(boxOpacity))
	for _, seg := range segs {
		start, err := timecode.SRTToASS(timecode.SecondsToSRT(seg.Start))
		if err != nil {
			return fmt.Errorf("ass start timestamp: %w", err)
		}
		endSeconds := seg.End
		if endSeconds < seg.Start {
			endSeconds = seg.Start
		}
		end, err := timecode.SRTToASS(timecode.SecondsToSRT(endSeconds))
		if err != nil {
			return fmt.Errorf("ass end timestamp: %w", err)
		}
		text := strings.ReplaceAll(strings.TrimSpace(seg.Text), "\n", `\N`)
		fmt.Fprintf(&b, "Dialogue: 0,%s,%s,Default,,0,0,0,,%s\n", start, end, text)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write ass %q: %w", path, err)
	}
	return nil
}
