package predictor

import (
	"math"

	"github.com/maastricht-university/fold-predict/spectrogram"
)

// Transform turns a crop into model input. Implementations must be
// deterministic.
type Transform interface {
	Apply(crop *spectrogram.Spectrogram) []float32
}

// TransformFunc adapts a function to Transform.
type TransformFunc func(crop *spectrogram.Spectrogram) []float32

func (f TransformFunc) Apply(crop *spectrogram.Spectrogram) []float32 { return f(crop) }

// Standardize scales a crop to zero mean and unit variance. Constant crops
// come out as all zeros.
type Standardize struct{}

func (Standardize) Apply(crop *spectrogram.Spectrogram) []float32 {
	out := make([]float32, len(crop.Data))
	if len(out) == 0 {
		return out
	}
	var sum, sq float64
	for _, v := range crop.Data {
		sum += float64(v)
	}
	mean := sum / float64(len(crop.Data))
	for _, v := range crop.Data {
		d := float64(v) - mean
		sq += d * d
	}
	std := math.Sqrt(sq / float64(len(crop.Data)))
	if std < 1e-6 {
		return out
	}
	for i, v := range crop.Data {
		out[i] = float32((float64(v) - mean) / std)
	}
	return out
}
