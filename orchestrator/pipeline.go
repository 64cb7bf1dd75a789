package orchestrator

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/maastricht-university/fold-predict/checkpoint"
	"github.com/maastricht-university/fold-predict/clients"
	cfg "github.com/maastricht-university/fold-predict/config"
	"github.com/maastricht-university/fold-predict/metrics"
	"github.com/maastricht-university/fold-predict/predictor"
	"github.com/maastricht-university/fold-predict/spectrogram"
	"github.com/maastricht-university/fold-predict/table"
)

type Pipeline struct {
	cfg       *cfg.Settings
	log       *logrus.Logger
	metrics   *metrics.Metrics
	models    ModelOpener
	audio     SpectrogramLoader
	validator ValidationScorer
	transform predictor.Transform
	progress  io.Writer
	now       func() time.Time
}

type Option func(*Pipeline)

func WithLogger(l *logrus.Logger) Option { return func(p *Pipeline) { p.log = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(p *Pipeline) { p.metrics = m } }

func WithModelOpener(o ModelOpener) Option { return func(p *Pipeline) { p.models = o } }

func WithSpectrogramLoader(l SpectrogramLoader) Option { return func(p *Pipeline) { p.audio = l } }

// WithValidationScorer enables the validation step for local runs.
func WithValidationScorer(v ValidationScorer) Option { return func(p *Pipeline) { p.validator = v } }

func WithTransform(t predictor.Transform) Option { return func(p *Pipeline) { p.transform = t } }

// WithProgress draws a per-fold progress bar on w.
func WithProgress(w io.Writer) Option { return func(p *Pipeline) { p.progress = w } }

// NewPipeline wires the default collaborators: the HTTP model server from
// services.classifier and the WAV log-mel loader from the audio settings.
func NewPipeline(c *cfg.Settings, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{cfg: c, log: logrus.StandardLogger(), metrics: metrics.NewMetrics(), now: time.Now}
	for _, o := range opts {
		o(p)
	}
	if p.models == nil {
		svc := c.Services.Classifier
		p.models = &remoteModels{
			http:     clients.NewHTTPTimeout(cfg.DurSeconds(svc.TimeoutSeconds)),
			url:      svc.URL,
			encoding: svc.Encoding,
			device:   c.Inference.Device,
			classes:  len(c.Classes),
		}
	}
	if p.audio == nil {
		l, err := spectrogram.NewLoader(c.Audio)
		if err != nil {
			return nil, err
		}
		p.audio = l
	}
	return p, nil
}

// Run predicts every configured fold in order and blends the results. The
// first error aborts the run; the blended output is only written when all
// folds succeeded.
func (p *Pipeline) Run(ctx context.Context) (manifest *Manifest, err error) {
	lock, err := acquireLock(p.cfg.PredictionDir)
	if err != nil {
		return nil, err
	}
	defer lock.release()

	defer func() {
		p.metrics.Finish(err == nil, p.now())
		if path := p.cfg.Metrics.Textfile; path != "" {
			if werr := p.metrics.WriteTextfile(path); werr != nil {
				p.log.WithError(werr).WithField("path", path).Warn("failed to write metrics textfile")
			}
		}
	}()

	schema, err := table.LoadTemplate(p.cfg.Paths.SampleSubmission, p.cfg.Classes)
	if err != nil {
		return nil, err
	}

	m := &Manifest{
		RunID:      uuid.NewString(),
		Experiment: p.cfg.Experiment,
		Mode:       mode(p.cfg),
		StartedAt:  p.now(),
		Settings:   p.cfg.Root,
	}
	runLog := p.log.WithFields(logrus.Fields{"run_id": m.RunID, "experiment": m.Experiment, "mode": m.Mode})
	runLog.WithFields(logrus.Fields{"folds": p.cfg.Folds, "clips": schema.Len()}).Info("prediction run started")

	for _, fold := range p.cfg.Folds {
		res, err := p.runFold(ctx, runLog, fold, schema)
		if err != nil {
			return nil, err
		}
		m.Folds = append(m.Folds, res)
	}

	runLog.Info("blending fold predictions")
	out, err := p.blendTestPredictions(schema)
	if err != nil {
		return nil, err
	}
	m.Blend = out
	m.FinishedAt = p.now()

	if err := persist(p.cfg.PredictionDir, m); err != nil {
		return nil, err
	}
	runLog.WithField("output", out).Info("prediction run finished")
	return m, nil
}

func (p *Pipeline) runFold(ctx context.Context, runLog *logrus.Entry, fold int, schema *table.Schema) (FoldResult, error) {
	began := p.now()
	foldLog := runLog.WithField("fold", fold)
	foldLog.Info("predicting fold")

	best, err := checkpoint.Best(p.cfg.FoldDir(fold), p.cfg.Inference.CheckpointExt)
	if err != nil {
		return FoldResult{}, err
	}
	foldLog = foldLog.WithFields(logrus.Fields{"checkpoint": best.Path, "score": best.Score})
	foldLog.Info("selected checkpoint")

	model, err := p.models.Open(ctx, best.Path)
	if err != nil {
		return FoldResult{}, err
	}
	defer func() {
		if cerr := model.Close(ctx); cerr != nil {
			foldLog.WithError(cerr).Warn("failed to release model")
		}
	}()

	pred, err := predictor.New(model, predictor.Options{
		CropSize:   p.cfg.Inference.CropSize,
		BatchSize:  p.cfg.Inference.BatchSize,
		NumClasses: len(p.cfg.Classes),
		Transform:  p.transform,
		Observer:   p.metrics,
	})
	if err != nil {
		return FoldResult{}, err
	}

	if !p.cfg.Pipeline.Kernel {
		if err := p.predValFold(ctx, foldLog, fold, pred); err != nil {
			return FoldResult{}, err
		}
	}

	tbl, err := p.predTestFold(ctx, fold, pred, schema)
	if err != nil {
		return FoldResult{}, err
	}
	out := p.cfg.FoldTestProbs(fold)
	if err := tbl.WriteFile(out); err != nil {
		return FoldResult{}, err
	}

	elapsed := p.now().Sub(began)
	p.metrics.ObserveFold(fold, best.Score, elapsed)
	foldLog.WithFields(logrus.Fields{"output": out, "elapsed": elapsed.Round(time.Millisecond)}).Info("fold finished")
	return FoldResult{
		Fold:           fold,
		Checkpoint:     best.Path,
		Score:          best.Score,
		Clips:          schema.Len(),
		Output:         out,
		ElapsedSeconds: elapsed.Seconds(),
	}, nil
}

func mode(s *cfg.Settings) string {
	if s.Pipeline.Kernel {
		return "kernel"
	}
	return "local"
}
