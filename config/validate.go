package config

import (
	"fmt"
	"strings"

	"github.com/maastricht-university/fold-predict/errkind"
)

// Validate checks every section and reports the first problem found as a
// configuration error.
func (r *Root) Validate() error {
	checks := []struct {
		section string
		fn      func() error
	}{
		{"pipeline", r.Pipeline.validate},
		{"paths", r.Paths.validate},
		{"folds", r.validateFolds},
		{"classes", r.validateClasses},
		{"audio", r.Audio.validate},
		{"inference", r.Inference.validate},
		{"services.classifier", r.Services.Classifier.validate},
	}
	for _, c := range checks {
		if err := c.fn(); err != nil {
			return errkind.Configuration("%s: %v", c.section, err)
		}
	}
	return nil
}

func (p *Pipeline) validate() error {
	switch strings.ToLower(p.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", p.LogFormat)
	}
	return nil
}

func (p *Paths) validate() error {
	if p.Experiments == "" {
		return fmt.Errorf("experiments cannot be empty")
	}
	if p.Predictions == "" {
		return fmt.Errorf("predictions cannot be empty")
	}
	if p.TestDir == "" {
		return fmt.Errorf("test_dir cannot be empty")
	}
	if p.SampleSubmission == "" {
		return fmt.Errorf("sample_submission cannot be empty")
	}
	return nil
}

func (r *Root) validateFolds() error {
	if len(r.Folds) == 0 {
		return fmt.Errorf("at least one fold is required")
	}
	seen := make(map[int]bool, len(r.Folds))
	for _, f := range r.Folds {
		if f < 0 {
			return fmt.Errorf("fold index must be non-negative, got %d", f)
		}
		if seen[f] {
			return fmt.Errorf("fold %d listed twice", f)
		}
		seen[f] = true
	}
	return nil
}

func (r *Root) validateClasses() error {
	if len(r.Classes) == 0 {
		return fmt.Errorf("label vocabulary is empty")
	}
	seen := make(map[string]bool, len(r.Classes))
	for _, c := range r.Classes {
		if c == "" {
			return fmt.Errorf("empty label name")
		}
		if seen[c] {
			return fmt.Errorf("label %q listed twice", c)
		}
		seen[c] = true
	}
	return nil
}

func (a *Audio) validate() error {
	if a.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", a.SampleRate)
	}
	if a.NMels <= 0 {
		return fmt.Errorf("n_mels must be positive, got %d", a.NMels)
	}
	if a.WinLength <= 0 || a.WinLength > a.NFFT {
		return fmt.Errorf("win_length must be in [1, n_fft=%d], got %d", a.NFFT, a.WinLength)
	}
	if a.HopLength <= 0 {
		return fmt.Errorf("hop_length must be positive, got %d", a.HopLength)
	}
	if a.FMin < 0 || a.FMax <= a.FMin {
		return fmt.Errorf("need 0 <= fmin < fmax, got fmin=%g fmax=%g", a.FMin, a.FMax)
	}
	if a.FMax > float64(a.SampleRate)/2 {
		return fmt.Errorf("fmax %g above Nyquist %d", a.FMax, a.SampleRate/2)
	}
	if a.TopDB < 0 {
		return fmt.Errorf("top_db must be non-negative, got %g", a.TopDB)
	}
	return nil
}

func (i *Inference) validate() error {
	if i.CropSize < 2 || i.CropSize%2 != 0 {
		return fmt.Errorf("crop_size must be an even number >= 2, got %d", i.CropSize)
	}
	if i.BatchSize < 1 {
		return fmt.Errorf("batch_size must be at least 1, got %d", i.BatchSize)
	}
	if !strings.HasPrefix(i.CheckpointExt, ".") {
		return fmt.Errorf("checkpoint_ext must start with a dot, got %q", i.CheckpointExt)
	}
	return nil
}

func (s *Service) validate() error {
	if s.URL == "" {
		return fmt.Errorf("url cannot be empty")
	}
	if s.TimeoutSeconds < 1 {
		return fmt.Errorf("timeout_seconds must be at least 1, got %d", s.TimeoutSeconds)
	}
	switch s.Encoding {
	case "json", "msgpack":
	default:
		return fmt.Errorf("encoding must be json or msgpack, got %q", s.Encoding)
	}
	return nil
}
