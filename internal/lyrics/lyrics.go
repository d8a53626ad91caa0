package lyrics

import (
	"math"
	"strings"
)

// Line is one timed lyric line. Times are seconds rounded to 2 decimals.
type Line struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Duration float64 `json:"duration"`
}

// Lines returns the non-empty trimmed lines of text.
func Lines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Time spreads the lines of text evenly over duration seconds. A
// non-positive duration or text without lines yields an empty slice.
func Time(text string, duration float64) []Line {
	lines := Lines(text)
	if duration <= 0 || len(lines) == 0 {
		return []Line{}
	}
	n := float64(len(lines))
	slice := duration / n
	timed := make([]Line, 0, len(lines))
	for i, text := range lines {
		start := float64(i) * duration / n
		end := float64(i+1) * duration / n
		timed = append(timed, Line{
			Text:     text,
			Start:    round2(start),
			End:      round2(end),
			Duration: round2(slice),
		})
	}
	return timed
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
