package chunking

import (
	"math"

	"lyricsmith/internal/media/ffmpeg"
)

// Refine snaps each interior boundary of a fixed plan to the midpoint of the
// nearest silence within half a window. Boundaries stay strictly increasing
// and inside (0, duration); the chunk count never changes. Boundaries with no
// usable silence keep their fixed position.
func Refine(chunks []Chunk, silences []ffmpeg.Silence, window float64) []Chunk {
	if len(chunks) < 2 || len(silences) == 0 || window <= 0 {
		return chunks
	}
	refined := append([]Chunk(nil), chunks...)
	duration := refined[len(refined)-1].End
	tolerance := window / 2

	prev := 0.0
	for i := 1; i < len(refined); i++ {
		fixed := refined[i].Start
		boundary := fixed
		best := math.Inf(1)
		for _, s := range silences {
			mid := s.Midpoint()
			dist := math.Abs(mid - fixed)
			if dist > tolerance || dist >= best {
				continue
			}
			if mid <= prev || mid >= duration {
				continue
			}
			best = dist
			boundary = mid
		}
		if boundary <= prev {
			boundary = fixed
		}
		refined[i-1].End = boundary
		refined[i].Start = boundary
		prev = boundary
	}
	return refined
}
