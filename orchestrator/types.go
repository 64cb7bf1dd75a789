package orchestrator

import (
	"context"
	"time"

	"github.com/maastricht-university/fold-predict/config"
	"github.com/maastricht-university/fold-predict/predictor"
	"github.com/maastricht-university/fold-predict/spectrogram"
)

// Model is a classifier loaded from one checkpoint.
type Model interface {
	predictor.Classifier
	Close(ctx context.Context) error
}

// ModelOpener loads the classifier stored in a checkpoint file.
type ModelOpener interface {
	Open(ctx context.Context, checkpoint string) (Model, error)
}

// SpectrogramLoader turns a test clip on disk into a spectrogram.
type SpectrogramLoader interface {
	Load(path string) (*spectrogram.Spectrogram, error)
}

// ValidationScorer scores a fold's held-out validation split. No
// implementation ships with the pipeline; when none is supplied the
// validation step is skipped and no validation metrics exist.
type ValidationScorer interface {
	ScoreValidation(ctx context.Context, s *config.Settings, fold int, p *predictor.Predictor) error
}

// FoldResult describes one completed fold.
type FoldResult struct {
	Fold           int     `yaml:"fold"`
	Checkpoint     string  `yaml:"checkpoint"`
	Score          float64 `yaml:"score"`
	Clips          int     `yaml:"clips"`
	Output         string  `yaml:"output"`
	ElapsedSeconds float64 `yaml:"elapsed_seconds"`
}

// Manifest is written next to the fold tables once a run has blended.
type Manifest struct {
	RunID      string       `yaml:"run_id"`
	Experiment string       `yaml:"experiment"`
	Mode       string       `yaml:"mode"`
	StartedAt  time.Time    `yaml:"started_at"`
	FinishedAt time.Time    `yaml:"finished_at"`
	Folds      []FoldResult `yaml:"folds"`
	Blend      string       `yaml:"blend"`
	Settings   config.Root  `yaml:"settings"`
}
