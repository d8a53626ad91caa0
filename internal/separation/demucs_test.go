package separation

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lyricsmith/internal/services/demucs"
)

type fakeMixer struct {
	dest   string
	inputs []string
}

func (f *fakeMixer) Mix(_ context.Context, dest string, inputs ...string) error {
	f.dest, f.inputs = dest, inputs
	return os.WriteFile(dest, []byte("mixed"), 0o644)
}

func TestDemucsEngineTwoStem(t *testing.T) {
	runner := func(context.Context, string, ...string) ([]byte, error) { return nil, nil }
	engine := NewDemucsEngine(demucs.NewService("", "", runner), demucs.Run{Model: "htdemucs", TwoStems: true}, nil)
	stems, err := engine.Separate(context.Background(), "/in/song.wav", t.TempDir())
	if err != nil {
		t.Fatalf("Separate: %v", err)
	}
	if engine.Name() != "demucs:htdemucs/two-stem" || !strings.HasSuffix(stems.Accompaniment, "no_vocals.wav") {
		t.Fatalf("unexpected stems %+v", stems)
	}
}

func TestDemucsEngineFullSeparationMixesRemainder(t *testing.T) {
	out := t.TempDir()
	runner := func(context.Context, string, ...string) ([]byte, error) {
		return nil, os.MkdirAll(filepath.Join(out, "htdemucs", "song"), 0o755)
	}
	mixer := &fakeMixer{}
	engine := NewDemucsEngine(demucs.NewService("", "", runner), demucs.Run{Model: "htdemucs"}, mixer)
	stems, err := engine.Separate(context.Background(), "/in/song.wav", out)
	if err != nil {
		t.Fatalf("Separate: %v", err)
	}
	if stems.Accompaniment != filepath.Join(out, "htdemucs", "song", "no_vocals.wav") {
		t.Fatalf("unexpected accompaniment %q", stems.Accompaniment)
	}
	if len(mixer.inputs) != 3 || !strings.HasSuffix(mixer.inputs[0], "drums.wav") {
		t.Fatalf("unexpected mix inputs %v", mixer.inputs)
	}
}

func TestDemucsEngineFullSeparationNeedsMixer(t *testing.T) {
	runner := func(context.Context, string, ...string) ([]byte, error) { return nil, nil }
	engine := NewDemucsEngine(demucs.NewService("", "", runner), demucs.Run{Model: "htdemucs"}, nil)
	if _, err := engine.Separate(context.Background(), "/in/song.wav", t.TempDir()); err == nil {
		t.Fatal("expected error without mixer")
	}
}
