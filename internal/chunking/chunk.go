package chunking

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Chunk is one time window of a parent asset.
type Chunk struct {
	// Source is the parent asset path; the chunk does not own it.
	Source string
	Index  int
	Start  float64
	End    float64
	// Path is the file a provider should read. It equals Source when the
	// asset fits in one window.
	Path string
	// Owned marks Path as a materialized extract removed by Cleanup.
	Owned bool
}

// Duration returns the window length in seconds.
func (c Chunk) Duration() float64 {
	return c.End - c.Start
}

// Plan partitions [0, duration] into ceil(duration/window) contiguous windows of
// length window, the last one truncated. A duration within window yields a single
// window.
func Plan(duration, window float64) []Chunk {
	if duration < 0 {
		duration = 0
	}
	if window <= 0 || duration <= window {
		return []Chunk{{Index: 0, Start: 0, End: duration}}
	}
	count := int(math.Ceil(duration / window))
	chunks := make([]Chunk, 0, count)
	for i := 0; i < count; i++ {
		start := float64(i) * window
		end := math.Min(float64(i+1)*window, duration)
		chunks = append(chunks, Chunk{Index: i, Start: start, End: end})
	}
	chunks[count-1].End = duration
	return chunks
}

// Partial is the outcome for one chunk.
type Partial struct {
	Index   int
	Text    string
	Present bool
}

// Placeholder returns the gap marker for the chunk at index (0-based).
func Placeholder(index int) string {
	return fmt.Sprintf("[chunk %d unavailable]", index+1)
}

// Reassemble orders partials by index and joins their text with a single
// space. Absent chunks, and indices missing below the highest one seen,
// become placeholders.
func Reassemble(partials []Partial) string {
	if len(partials) == 0 {
		return ""
	}
	sorted := append([]Partial(nil), partials...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Index < sorted[j].Index
	})

	byIndex := make(map[int]Partial, len(sorted))
	for _, p := range sorted {
		if existing, ok := byIndex[p.Index]; ok && existing.Present {
			continue
		}
		byIndex[p.Index] = p
	}

	last := sorted[len(sorted)-1].Index
	parts := make([]string, 0, last+1)
	for i := 0; i <= last; i++ {
		p, ok := byIndex[i]
		if !ok || !p.Present {
			parts = append(parts, Placeholder(i))
			continue
		}
		if text := strings.TrimSpace(p.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}
