package chunking

import (
	"math"
	"math/rand"
	"testing"
)

func TestPlanSingleWindow(t *testing.T) {
	for _, duration := range []float64{0, 30, 90} {
		chunks := Plan(duration, 90)
		if len(chunks) != 1 || chunks[0].Start != 0 || chunks[0].End != duration {
			t.Fatalf("Plan(%v) = %+v", duration, chunks)
		}
	}
}

func TestPlanCoverageAndContiguity(t *testing.T) {
	tests := []struct {
		duration float64
		window   float64
		count    int
	}{
		{180, 90, 2},
		{200, 90, 3},
		{90.5, 90, 2},
		{241.37, 60, 5},
		{3600, 90, 40},
	}
	for _, tt := range tests {
		chunks := Plan(tt.duration, tt.window)
		if len(chunks) != tt.count {
			t.Fatalf("Plan(%v, %v): expected %d chunks, got %d", tt.duration, tt.window, tt.count, len(chunks))
		}
		if chunks[0].Start != 0 || chunks[len(chunks)-1].End != tt.duration {
			t.Fatalf("Plan(%v, %v) does not cover the asset: %+v", tt.duration, tt.window, chunks)
		}
		for i, c := range chunks {
			if c.Index != i {
				t.Fatalf("chunk %d has index %d", i, c.Index)
			}
			if c.Duration() <= 0 || c.Duration() > tt.window+1e-9 {
				t.Fatalf("chunk %d has invalid length %v", i, c.Duration())
			}
			if i > 0 && chunks[i-1].End != c.Start {
				t.Fatalf("chunks %d and %d are not contiguous", i-1, i)
			}
		}
	}
}

func TestReassembleIndependentOfOrder(t *testing.T) {
	partials := []Partial{
		{Index: 0, Text: "first", Present: true},
		{Index: 1, Text: "second", Present: true},
		{Index: 2, Text: "third", Present: true},
		{Index: 3, Text: "fourth", Present: true},
	}
	want := "first second third fourth"
	rng := rand.New(rand.NewSource(7))
	for range 20 {
		shuffled := append([]Partial(nil), partials...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		if got := Reassemble(shuffled); got != want {
			t.Fatalf("Reassemble(%v) = %q", shuffled, got)
		}
	}
}

func TestReassemblePlaceholders(t *testing.T) {
	got := Reassemble([]Partial{
		{Index: 2, Text: "third", Present: true},
		{Index: 1, Present: false},
		{Index: 0, Text: " first ", Present: true},
	})
	if got != "first [chunk 2 unavailable] third" {
		t.Fatalf("unexpected reassembly %q", got)
	}

	gap := Reassemble([]Partial{{Index: 0, Text: "a", Present: true}, {Index: 2, Text: "c", Present: true}})
	if gap != "a [chunk 2 unavailable] c" {
		t.Fatalf("missing index not filled: %q", gap)
	}

	if Reassemble(nil) != "" {
		t.Fatal("expected empty reassembly for no partials")
	}
}

func TestPlaceholderIsOneBased(t *testing.T) {
	if Placeholder(0) != "[chunk 1 unavailable]" {
		t.Fatalf("unexpected placeholder %q", Placeholder(0))
	}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
