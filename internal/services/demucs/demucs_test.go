package demucs

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestDefaultRuns(t *testing.T) {
	runs := DefaultRuns([]string{"htdemucs", " ", "mdx_extra", "mdx_q"}, true)
	labels := make([]string, 0, len(runs))
	for _, run := range runs {
		labels = append(labels, run.Label())
	}
	want := []string{
		"htdemucs/two-stem",
		"mdx_extra/two-stem",
		"mdx_q/two-stem",
		"htdemucs/two-stem/mp3",
		"htdemucs/full",
	}
	if !reflect.DeepEqual(labels, want) {
		t.Fatalf("unexpected runs %v", labels)
	}
	if got := DefaultRuns([]string{"htdemucs"}, false); len(got) != 1 {
		t.Fatalf("expected alternates to be omitted, got %v", got)
	}
}

func TestBuildArgs(t *testing.T) {
	svc := NewService("", "", nil)
	args := svc.BuildArgs(Run{Model: "htdemucs", TwoStems: true, MP3: true}, "/in/song.wav", "/out")
	want := []string{"-n", "htdemucs", "--two-stems=vocals", "--device", "cpu", "--mp3", "/in/song.wav", "-o", "/out"}
	if !reflect.DeepEqual(args, want) {
		t.Fatalf("unexpected args %v", args)
	}
	full := svc.BuildArgs(Run{Model: "htdemucs"}, "/in/song.wav", "/out")
	if strings.Contains(strings.Join(full, " "), "two-stems") {
		t.Fatalf("full separation must not request two stems: %v", full)
	}
}

func TestLocate(t *testing.T) {
	out := Locate(Run{Model: "mdx_q", TwoStems: true}, "/in/My Song.flac", "/out")
	if out.Vocals != filepath.Join("/out", "mdx_q", "My Song", "vocals.wav") {
		t.Fatalf("unexpected vocals %q", out.Vocals)
	}
	if out.Accompaniment != filepath.Join("/out", "mdx_q", "My Song", "no_vocals.wav") {
		t.Fatalf("unexpected accompaniment %q", out.Accompaniment)
	}

	full := Locate(Run{Model: "htdemucs"}, "/in/a.wav", "/out")
	if full.Accompaniment != "" || len(full.Others) != 3 {
		t.Fatalf("unexpected full output %+v", full)
	}
}

func TestSeparateRunsBinary(t *testing.T) {
	var gotName string
	var gotArgs []string
	runner := func(_ context.Context, name string, args ...string) ([]byte, error) {
		gotName, gotArgs = name, args
		return nil, nil
	}
	svc := NewService("/opt/demucs", "cuda", runner)
	out, err := svc.Separate(context.Background(), Run{Model: "htdemucs", TwoStems: true}, "/in/a.wav", t.TempDir())
	if err != nil {
		t.Fatalf("Separate: %v", err)
	}
	if gotName != "/opt/demucs" || gotArgs[4] != "cuda" {
		t.Fatalf("unexpected invocation %s %v", gotName, gotArgs)
	}
	if !strings.HasSuffix(out.Vocals, "vocals.wav") {
		t.Fatalf("unexpected output %+v", out)
	}
}

func TestSeparateReportsFailure(t *testing.T) {
	runner := func(context.Context, string, ...string) ([]byte, error) {
		return []byte("Traceback\nRuntimeError: torchcodec missing"), errors.New("exit status 1")
	}
	svc := NewService("", "", runner)
	_, err := svc.Separate(context.Background(), Run{Model: "htdemucs", TwoStems: true}, "/in/a.wav", t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "torchcodec") {
		t.Fatalf("expected tool output in error, got %v", err)
	}
}
