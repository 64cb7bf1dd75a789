// Package predictor maps one spectrogram to one probability vector by
// scoring overlapping fixed-width crops and averaging the results.
package predictor

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/maastricht-university/fold-predict/spectrogram"
)

// Batch is n crops of Bins × Width values, laid out crop-major then
// bin-major, ready to be sent to a classifier.
type Batch struct {
	Size  int
	Bins  int
	Width int
	Data  []float32
}

// Classifier scores a batch of crops in inference mode. It returns one
// probability vector per crop, already passed through the output
// activation.
type Classifier interface {
	Predict(ctx context.Context, batch Batch) ([][]float64, error)
}

// Observer receives timing for each classifier call. Optional.
type Observer interface {
	ObserveBatch(size int, elapsed time.Duration)
}

type Options struct {
	CropSize   int
	BatchSize  int
	NumClasses int
	Transform  Transform // defaults to Standardize
	Observer   Observer
}

// Predictor runs windowed inference for one classifier. Batches are sent
// one at a time; it is not safe for concurrent use.
type Predictor struct {
	clf  Classifier
	opts Options
}

func New(clf Classifier, opts Options) (*Predictor, error) {
	if clf == nil {
		return nil, fmt.Errorf("predictor: nil classifier")
	}
	if opts.CropSize < 2 || opts.CropSize%2 != 0 {
		return nil, fmt.Errorf("predictor: crop size must be even and >= 2, got %d", opts.CropSize)
	}
	if opts.BatchSize < 1 {
		return nil, fmt.Errorf("predictor: batch size must be positive, got %d", opts.BatchSize)
	}
	if opts.NumClasses < 1 {
		return nil, fmt.Errorf("predictor: number of classes must be positive, got %d", opts.NumClasses)
	}
	if opts.Transform == nil {
		opts.Transform = Standardize{}
	}
	return &Predictor{clf: clf, opts: opts}, nil
}

// Stride is half the crop width.
func (p *Predictor) Stride() int { return p.opts.CropSize / 2 }

// Crops cuts spec into CropSize-wide windows. Clips shorter than one crop
// are centred and padded with their minimum value.
func (p *Predictor) Crops(spec *spectrogram.Spectrogram) []*spectrogram.Spectrogram {
	w := p.opts.CropSize
	pad := spec.Min()
	if spec.Frames < w {
		return []*spectrogram.Spectrogram{spec.Slice(-(w-spec.Frames)/2, w, pad)}
	}
	offsets := Offsets(spec.Frames, w, p.Stride())
	crops := make([]*spectrogram.Spectrogram, len(offsets))
	for i, off := range offsets {
		crops[i] = spec.Slice(off, w, pad)
	}
	return crops
}

// Predict returns the mean of the classifier outputs over every crop of
// spec. Any classifier failure is returned as is; there are no retries.
func (p *Predictor) Predict(ctx context.Context, spec *spectrogram.Spectrogram) ([]float64, error) {
	if spec == nil || spec.Frames == 0 || spec.Bins == 0 {
		return nil, fmt.Errorf("predictor: empty spectrogram")
	}
	crops := p.Crops(spec)
	outputs := make([][]float64, 0, len(crops))

	for start := 0; start < len(crops); start += p.opts.BatchSize {
		end := min(start+p.opts.BatchSize, len(crops))
		batch := p.batch(crops[start:end])

		began := time.Now()
		probs, err := p.clf.Predict(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("predictor: classify crops %d-%d: %w", start, end-1, err)
		}
		if p.opts.Observer != nil {
			p.opts.Observer.ObserveBatch(batch.Size, time.Since(began))
		}
		if err := p.check(probs, batch.Size); err != nil {
			return nil, err
		}
		outputs = append(outputs, probs...)
	}
	return Mean(outputs), nil
}

func (p *Predictor) batch(crops []*spectrogram.Spectrogram) Batch {
	b := Batch{Size: len(crops), Bins: crops[0].Bins, Width: p.opts.CropSize}
	stride := b.Bins * b.Width
	b.Data = make([]float32, 0, b.Size*stride)
	for _, c := range crops {
		b.Data = append(b.Data, p.opts.Transform.Apply(c)...)
	}
	return b
}

func (p *Predictor) check(probs [][]float64, want int) error {
	if len(probs) != want {
		return fmt.Errorf("predictor: classifier returned %d vectors for %d crops", len(probs), want)
	}
	for i, v := range probs {
		if len(v) != p.opts.NumClasses {
			return fmt.Errorf("predictor: vector %d has %d values, want %d", i, len(v), p.opts.NumClasses)
		}
		for j, x := range v {
			if math.IsNaN(x) || x < 0 || x > 1 {
				return fmt.Errorf("predictor: vector %d class %d: %v is not a probability", i, j, x)
			}
		}
	}
	return nil
}
