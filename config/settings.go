package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/maastricht-university/fold-predict/errkind"
)

// Settings is the resolved, read-only view of a run. It is built once in
// main and handed to every component by pointer; nothing mutates it after
// Resolve returns.
type Settings struct {
	Root

	Experiment    string
	ExperimentDir string
	PredictionDir string
}

// Resolve binds the configuration to one experiment and checks that the
// directories and files a run reads from exist.
func Resolve(r *Root, experiment string) (*Settings, error) {
	if experiment == "" {
		return nil, errkind.Configuration("experiment name is required")
	}
	if filepath.Base(experiment) != experiment {
		return nil, errkind.Configuration("experiment name %q must not contain path separators", experiment)
	}

	s := &Settings{Root: *r, Experiment: experiment}
	s.Folds = slices.Clone(r.Folds)
	s.Classes = slices.Clone(r.Classes)

	var err error
	if s.ExperimentDir, err = filepath.Abs(filepath.Join(r.Paths.Experiments, experiment)); err != nil {
		return nil, errkind.Configuration("resolve experiment dir: %v", err)
	}
	if s.PredictionDir, err = filepath.Abs(filepath.Join(r.Paths.Predictions, experiment)); err != nil {
		return nil, errkind.Configuration("resolve prediction dir: %v", err)
	}

	if err := requireDir(s.ExperimentDir); err != nil {
		return nil, err
	}
	if err := requireDir(r.Paths.TestDir); err != nil {
		return nil, err
	}
	if info, err := os.Stat(r.Paths.SampleSubmission); err != nil || info.IsDir() {
		return nil, errkind.Configuration("template submission %s is not a readable file", r.Paths.SampleSubmission)
	}
	return s, nil
}

func requireDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return errkind.Configuration("directory %s: %v", path, err)
	}
	if !info.IsDir() {
		return errkind.Configuration("%s is not a directory", path)
	}
	return nil
}

// FoldDir is the checkpoint directory of fold k.
func (s *Settings) FoldDir(k int) string {
	return filepath.Join(s.ExperimentDir, fmt.Sprintf("fold_%d", k))
}

// FoldTestProbs is where fold k's test-set table is persisted.
func (s *Settings) FoldTestProbs(k int) string {
	return filepath.Join(s.PredictionDir, fmt.Sprintf("fold_%d", k), "test", "probs.csv")
}

// BlendPath is the single destination of the blended table: submission.csv
// in the working directory in kernel mode, the experiment's prediction
// directory otherwise.
func (s *Settings) BlendPath() string {
	if s.Pipeline.Kernel {
		return "submission.csv"
	}
	return filepath.Join(s.PredictionDir, "probs.csv")
}
