// Package timecode converts between seconds, SRT timestamps, and ASS
// timestamps used by the subtitle renderer.
package timecode

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// SecondsToSRT formats a duration in seconds as an SRT timestamp
// (HH:MM:SS,mmm). Negative input is clamped to zero and the value is
// rounded to the nearest millisecond. Hours are not wrapped, so
// durations of an hour or more render correctly.
func SecondsToSRT(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	totalMillis := int64(math.Round(seconds * 1000))
	hours := totalMillis / 3_600_000
	remainder := totalMillis % 3_600_000
	minutes := remainder / 60_000
	remainder %= 60_000
	secs := remainder / 1000
	millis := remainder % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}

// ParseSRT converts an SRT timestamp (HH:MM:SS,mmm) back to seconds.
func ParseSRT(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	hours, minutes, secs, millis, err := splitSRT(value)
	if err != nil {
		return 0, err
	}
	return float64(hours*3600+minutes*60+secs) + float64(millis)/1000, nil
}

// SRTToASS converts an SRT timestamp (HH:MM:SS,mmm) to the ASS timestamp
// format (H:MM:SS.cc) consumed by the rendering engine. Milliseconds are
// truncated to centiseconds, not rounded; libass compares timestamps
// bit-exactly, so the truncation policy must not change.
func SRTToASS(value string) (string, error) {
	hours, minutes, secs, millis, err := splitSRT(strings.TrimSpace(value))
	if err != nil {
		return "", err
	}
	centis := millis / 10
	return fmt.Sprintf("%d:%02d:%02d.%02d", hours, minutes, secs, centis), nil
}

func splitSRT(value string) (hours, minutes, secs, millis int, err error) {
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, 0, 0, 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, 0, 0, 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	secs, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, 0, 0, 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return hours, minutes, secs, millis, nil
}
