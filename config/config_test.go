package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/maastricht-university/fold-predict/config"
	"github.com/maastricht-university/fold-predict/errkind"
)

const minimalConfig = `
paths:
  experiments: %EXP%
  predictions: %PRED%
  test_dir: %TEST%
  sample_submission: %SUBM%
folds: [0, 1]
classes: ["Bark", "Meow"]
`

type layout struct {
	root, experiments, predictions, test, submission string
}

func newLayout(t *testing.T) layout {
	t.Helper()
	root := t.TempDir()
	l := layout{
		root:        root,
		experiments: filepath.Join(root, "experiments"),
		predictions: filepath.Join(root, "predictions"),
		test:        filepath.Join(root, "test"),
		submission:  filepath.Join(root, "sample_submission.csv"),
	}
	for _, dir := range []string{filepath.Join(l.experiments, "exp1"), l.test} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	if err := os.WriteFile(l.submission, []byte("fname,Bark,Meow\na.wav,0,0\n"), 0o644); err != nil {
		t.Fatalf("write submission: %v", err)
	}
	return l
}

func writeConfig(t *testing.T, l layout, body string) string {
	t.Helper()
	r := strings.NewReplacer("%EXP%", l.experiments, "%PRED%", l.predictions, "%TEST%", l.test, "%SUBM%", l.submission)
	path := filepath.Join(l.root, "config.yaml")
	if err := os.WriteFile(path, []byte(r.Replace(body)), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFileAppliesDefaults(t *testing.T) {
	l := newLayout(t)
	cfg, err := config.LoadFile(writeConfig(t, l, minimalConfig))
	if err != nil {
		t.Fatalf("LoadFile returned error: %v", err)
	}
	if cfg.Inference.CropSize != 128 {
		t.Fatalf("unexpected crop size: %d", cfg.Inference.CropSize)
	}
	if cfg.Inference.BatchSize != 16 {
		t.Fatalf("unexpected batch size: %d", cfg.Inference.BatchSize)
	}
	if cfg.Inference.CheckpointExt != ".pth" {
		t.Fatalf("unexpected checkpoint ext: %q", cfg.Inference.CheckpointExt)
	}
	if cfg.Audio.SampleRate != 44100 || cfg.Audio.NMels != 128 {
		t.Fatalf("unexpected audio defaults: %+v", cfg.Audio)
	}
	if cfg.Services.Classifier.Encoding != "json" {
		t.Fatalf("unexpected encoding: %q", cfg.Services.Classifier.Encoding)
	}
	if cfg.Pipeline.Kernel {
		t.Fatal("expected local mode by default")
	}
	if len(cfg.Folds) != 2 || cfg.Folds[1] != 1 {
		t.Fatalf("unexpected folds: %v", cfg.Folds)
	}
}

func TestLoadFileEnvOverride(t *testing.T) {
	l := newLayout(t)
	t.Setenv("PREDICT_PIPELINE_KERNEL", "true")
	t.Setenv("PREDICT_INFERENCE_BATCH_SIZE", "4")
	cfg, err := config.LoadFile(writeConfig(t, l, minimalConfig))
	if err != nil {
		t.Fatalf("LoadFile returned error: %v", err)
	}
	if !cfg.Pipeline.Kernel {
		t.Fatal("expected kernel mode from environment")
	}
	if cfg.Inference.BatchSize != 4 {
		t.Fatalf("expected batch size 4 from environment, got %d", cfg.Inference.BatchSize)
	}
}

func TestLoadFileRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"odd crop":       minimalConfig + "inference:\n  crop_size: 127\n",
		"empty classes":  strings.Replace(minimalConfig, `classes: ["Bark", "Meow"]`, "classes: []", 1),
		"duplicate fold": strings.Replace(minimalConfig, "folds: [0, 1]", "folds: [0, 0]", 1),
		"bad encoding":   minimalConfig + "services:\n  classifier:\n    encoding: xml\n",
		"fmax":           minimalConfig + "audio:\n  fmax: 30000\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			l := newLayout(t)
			_, err := config.LoadFile(writeConfig(t, l, body))
			if !errors.Is(err, errkind.ErrConfiguration) {
				t.Fatalf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestResolvePaths(t *testing.T) {
	l := newLayout(t)
	cfg, err := config.LoadFile(writeConfig(t, l, minimalConfig))
	if err != nil {
		t.Fatalf("LoadFile returned error: %v", err)
	}
	s, err := config.Resolve(cfg, "exp1")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if s.FoldDir(3) != filepath.Join(l.experiments, "exp1", "fold_3") {
		t.Fatalf("unexpected fold dir: %q", s.FoldDir(3))
	}
	want := filepath.Join(l.predictions, "exp1", "fold_0", "test", "probs.csv")
	if s.FoldTestProbs(0) != want {
		t.Fatalf("unexpected fold probs path: got %q want %q", s.FoldTestProbs(0), want)
	}
	if s.BlendPath() != filepath.Join(l.predictions, "exp1", "probs.csv") {
		t.Fatalf("unexpected local blend path: %q", s.BlendPath())
	}

	cfg.Pipeline.Kernel = true
	ks, err := config.Resolve(cfg, "exp1")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if ks.BlendPath() != "submission.csv" {
		t.Fatalf("unexpected kernel blend path: %q", ks.BlendPath())
	}
}

func TestResolveDoesNotAliasRoot(t *testing.T) {
	l := newLayout(t)
	cfg, err := config.LoadFile(writeConfig(t, l, minimalConfig))
	if err != nil {
		t.Fatalf("LoadFile returned error: %v", err)
	}
	s, err := config.Resolve(cfg, "exp1")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	cfg.Classes[0] = "Changed"
	cfg.Folds[0] = 9
	if s.Classes[0] != "Bark" || s.Folds[0] != 0 {
		t.Fatalf("settings alias the loaded config: %v %v", s.Classes, s.Folds)
	}
}

func TestResolveMissingExperiment(t *testing.T) {
	l := newLayout(t)
	cfg, err := config.LoadFile(writeConfig(t, l, minimalConfig))
	if err != nil {
		t.Fatalf("LoadFile returned error: %v", err)
	}
	for _, name := range []string{"", "missing", "../exp1"} {
		if _, err := config.Resolve(cfg, name); !errors.Is(err, errkind.ErrConfiguration) {
			t.Fatalf("experiment %q: expected configuration error, got %v", name, err)
		}
	}
}

func TestResolveMissingTemplate(t *testing.T) {
	l := newLayout(t)
	cfg, err := config.LoadFile(writeConfig(t, l, minimalConfig))
	if err != nil {
		t.Fatalf("LoadFile returned error: %v", err)
	}
	if err := os.Remove(l.submission); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := config.Resolve(cfg, "exp1"); !errors.Is(err, errkind.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
