package separation

import (
	"context"
	"fmt"
	"path/filepath"

	"lyricsmith/internal/services/demucs"
)

// Mixer sums audio inputs into one file.
type Mixer interface {
	Mix(ctx context.Context, dest string, inputs ...string) error
}

// DemucsEngine runs one demucs configuration.
type DemucsEngine struct {
	service *demucs.Service
	run     demucs.Run
	mixer   Mixer
}

// NewDemucsEngine returns an engine for run. mixer is required for
// full-separation runs, which sum the non-vocal stems into an accompaniment.
func NewDemucsEngine(service *demucs.Service, run demucs.Run, mixer Mixer) *DemucsEngine {
	return &DemucsEngine{service: service, run: run, mixer: mixer}
}

// DemucsEngines returns one engine per run.
func DemucsEngines(service *demucs.Service, runs []demucs.Run, mixer Mixer) []Engine {
	engines := make([]Engine, 0, len(runs))
	for _, run := range runs {
		engines = append(engines, NewDemucsEngine(service, run, mixer))
	}
	return engines
}

// Name identifies the configuration in provenance.
func (e *DemucsEngine) Name() string {
	return "demucs:" + e.run.Label()
}

// Separate runs demucs and returns the stem paths inside outputDir.
func (e *DemucsEngine) Separate(ctx context.Context, audioPath, outputDir string) (Stems, error) {
	out, err := e.service.Separate(ctx, e.run, audioPath, outputDir)
	if err != nil {
		return Stems{}, err
	}
	stems := Stems{Vocals: out.Vocals, Accompaniment: out.Accompaniment, Engine: e.Name()}
	if out.Accompaniment != "" {
		return stems, nil
	}
	if e.mixer == nil {
		return Stems{}, fmt.Errorf("%s: no mixer for full separation", e.Name())
	}
	stems.Accompaniment = filepath.Join(filepath.Dir(out.Vocals), demucs.StemNoVocals+"."+e.run.Ext())
	if err := e.mixer.Mix(ctx, stems.Accompaniment, out.Others...); err != nil {
		return Stems{}, fmt.Errorf("%s: mix accompaniment: %w", e.Name(), err)
	}
	return stems, nil
}
