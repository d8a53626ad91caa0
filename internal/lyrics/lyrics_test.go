package lyrics

import (
	"math"
	"strings"
	"testing"
)

func TestTimeThreeLines(t *testing.T) {
	got := Time("one\ntwo\nthree", 9)
	want := []Line{
		{Text: "one", Start: 0, End: 3, Duration: 3},
		{Text: "two", Start: 3, End: 6, Duration: 3},
		{Text: "three", Start: 6, End: 9, Duration: 3},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d lines, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("line %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestTimeTilesDuration(t *testing.T) {
	for _, tt := range []struct {
		lines    int
		duration float64
	}{
		{1, 12.5},
		{4, 30},
		{7, 213.37},
		{13, 61},
	} {
		text := strings.TrimSuffix(strings.Repeat("la la la\n", tt.lines), "\n")
		got := Time(text, tt.duration)
		if len(got) != tt.lines {
			t.Fatalf("expected %d lines, got %d", tt.lines, len(got))
		}
		if got[0].Start != 0 {
			t.Fatalf("first line starts at %v", got[0].Start)
		}
		if math.Abs(got[len(got)-1].End-tt.duration) > 0.005 {
			t.Fatalf("last line ends at %v, want %v", got[len(got)-1].End, tt.duration)
		}
		for i := 1; i < len(got); i++ {
			if got[i].Start != got[i-1].End {
				t.Fatalf("gap between lines %d and %d: %v vs %v", i-1, i, got[i-1].End, got[i].Start)
			}
		}
		for _, line := range got {
			if math.Abs(line.Duration-tt.duration/float64(tt.lines)) > 0.005 {
				t.Fatalf("unexpected slice %v", line.Duration)
			}
		}
	}
}

func TestTimeSkipsBlankLines(t *testing.T) {
	got := Time("  first  \n\n   \nsecond\n", 10)
	if len(got) != 2 || got[0].Text != "first" || got[1].Start != 5 {
		t.Fatalf("unexpected timing %+v", got)
	}
}

func TestTimeEmptyCases(t *testing.T) {
	for _, tt := range []struct {
		text     string
		duration float64
	}{
		{"", 10},
		{"\n \n", 10},
		{"line", 0},
		{"line", -3},
	} {
		got := Time(tt.text, tt.duration)
		if got == nil || len(got) != 0 {
			t.Fatalf("Time(%q, %v) = %#v, want empty slice", tt.text, tt.duration, got)
		}
	}
}
