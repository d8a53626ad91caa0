package chunking

import (
	"testing"

	"lyricsmith/internal/media/ffmpeg"
)

func TestRefineSnapsToNearestSilence(t *testing.T) {
	chunks := Plan(200, 90)
	silences := []ffmpeg.Silence{
		{Start: 80, End: 84},   // midpoint 82, 8s from 90
		{Start: 94, End: 96},   // midpoint 95, 5s from 90
		{Start: 170, End: 174}, // midpoint 172, 8s from 180
	}
	refined := Refine(chunks, silences, 90)
	if len(refined) != len(chunks) {
		t.Fatalf("chunk count changed: %d -> %d", len(chunks), len(refined))
	}
	if !approx(refined[1].Start, 95) || !approx(refined[0].End, 95) {
		t.Fatalf("expected first boundary at 95, got %+v", refined)
	}
	if !approx(refined[2].Start, 172) || !approx(refined[1].End, 172) {
		t.Fatalf("expected second boundary at 172, got %+v", refined)
	}
	if refined[0].Start != 0 || refined[2].End != 200 {
		t.Fatalf("outer bounds moved: %+v", refined)
	}
	if chunks[1].Start != 90 {
		t.Fatal("Refine mutated its input")
	}
}

func TestRefineIgnoresDistantSilence(t *testing.T) {
	chunks := Plan(200, 90)
	refined := Refine(chunks, []ffmpeg.Silence{{Start: 10, End: 12}}, 90)
	if refined[1].Start != 90 || refined[2].Start != 180 {
		t.Fatalf("expected fixed boundaries, got %+v", refined)
	}
}

func TestRefineKeepsBoundariesIncreasing(t *testing.T) {
	chunks := Plan(100, 30) // boundaries 30, 60, 90
	// One silence near both 30 and 60 may only serve the first boundary.
	refined := Refine(chunks, []ffmpeg.Silence{{Start: 44, End: 46}}, 30)
	for i := 1; i < len(refined); i++ {
		if refined[i].Start <= refined[i-1].Start {
			t.Fatalf("boundaries not increasing: %+v", refined)
		}
		if refined[i-1].End != refined[i].Start {
			t.Fatalf("chunks not contiguous: %+v", refined)
		}
	}
	if !approx(refined[1].Start, 45) {
		t.Fatalf("expected first boundary at 45, got %v", refined[1].Start)
	}
	if refined[2].Start != 60 {
		t.Fatalf("expected second boundary fixed at 60, got %v", refined[2].Start)
	}
}

func TestRefineWithoutSilences(t *testing.T) {
	chunks := Plan(200, 90)
	refined := Refine(chunks, nil, 90)
	if len(refined) != 3 || refined[1].Start != 90 {
		t.Fatalf("unexpected refinement %+v", refined)
	}
}
