package spectrogram

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/maastricht-university/fold-predict/config"
	"github.com/maastricht-university/fold-predict/errkind"
)

// Loader reads clips from disk and returns their log-mel spectrograms.
type Loader struct {
	sampleRate int
	extractor  *Extractor
}

// NewLoader prepares a loader for the audio settings of a run.
func NewLoader(cfg config.Audio) (*Loader, error) {
	ex, err := NewExtractor(cfg)
	if err != nil {
		return nil, err
	}
	return &Loader{sampleRate: cfg.SampleRate, extractor: ex}, nil
}

// Load decodes the WAV file at path, resamples it to the configured rate
// and extracts its spectrogram. A missing file is errkind.ErrNotFound.
func (l *Loader) Load(path string) (*Spectrogram, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errkind.NotFound("audio file %s", path)
		}
		return nil, errkind.IO(err, "read %s", path)
	}
	samples, rate, err := DecodeWAV(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if samples, err = Resample(samples, rate, l.sampleRate); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return l.extractor.Extract(samples)
}
