package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/fold-predict/clients"
	"github.com/maastricht-university/fold-predict/predictor"
	"github.com/maastricht-university/fold-predict/table"
)

// predValFold runs the validation scorer when one is configured. Without
// one it does nothing.
func (p *Pipeline) predValFold(ctx context.Context, foldLog *logrus.Entry, fold int, pred *predictor.Predictor) error {
	if p.validator == nil {
		foldLog.Debug("no validation scorer configured, skipping validation split")
		return nil
	}
	foldLog.Info("scoring validation split")
	if err := p.validator.ScoreValidation(ctx, p.cfg, fold, pred); err != nil {
		return fmt.Errorf("fold %d validation: %w", fold, err)
	}
	return nil
}

// predTestFold fills a fresh table for schema with one prediction per test
// clip, in schema order. A missing clip aborts the fold.
func (p *Pipeline) predTestFold(ctx context.Context, fold int, pred *predictor.Predictor, schema *table.Schema) (*table.Table, error) {
	tbl := table.New(schema)
	bar := p.newBar(schema.Len(), fmt.Sprintf("fold %d", fold))
	defer bar.close()

	for _, fname := range schema.Index {
		spec, err := p.audio.Load(filepath.Join(p.cfg.Paths.TestDir, fname))
		if err != nil {
			return nil, fmt.Errorf("fold %d: %w", fold, err)
		}
		vec, err := pred.Predict(ctx, spec)
		if err != nil {
			return nil, fmt.Errorf("fold %d clip %s: %w", fold, fname, err)
		}
		if err := tbl.Set(fname, vec); err != nil {
			return nil, err
		}
		p.metrics.ObserveClip(fold)
		bar.add()
	}
	return tbl, nil
}

// remoteModels opens checkpoints on the model server.
type remoteModels struct {
	http     *clients.HTTP
	url      string
	encoding string
	device   string
	classes  int
}

func (r *remoteModels) Open(ctx context.Context, checkpoint string) (Model, error) {
	m, err := r.http.Open(ctx, r.url, r.encoding, checkpoint, r.device, r.classes)
	if err != nil {
		return nil, err
	}
	return m, nil
}
