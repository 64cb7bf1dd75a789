package spectrogram

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-dsp/dsp/window"
	"github.com/cwbudde/algo-vecmath"

	"github.com/maastricht-university/fold-predict/config"
)

// Extractor computes log-mel spectrograms from mono samples. It reuses its
// FFT plan and scratch buffers and is not safe for concurrent use.
type Extractor struct {
	cfg     config.Audio
	window  []float64 // Hann of WinLength, centred in NFFT
	melBank [][]float64
	plan    *algofft.Plan[complex128]

	frame    []float64
	spectrum []complex128
	re, im   []float64
	power    []float64
}

// NewExtractor builds the window, mel filterbank and FFT plan for cfg.
func NewExtractor(cfg config.Audio) (*Extractor, error) {
	if cfg.WinLength > cfg.NFFT {
		return nil, fmt.Errorf("spectrogram: win_length %d exceeds n_fft %d", cfg.WinLength, cfg.NFFT)
	}
	plan, err := algofft.NewPlan64(cfg.NFFT)
	if err != nil {
		return nil, fmt.Errorf("spectrogram: failed to create FFT plan: %w", err)
	}

	hann, err := window.Hann(cfg.WinLength, window.WithPeriodic())
	if err != nil {
		return nil, fmt.Errorf("spectrogram: failed to build analysis window: %w", err)
	}
	frameWindow := make([]float64, cfg.NFFT)
	copy(frameWindow[(cfg.NFFT-cfg.WinLength)/2:], hann)

	half := cfg.NFFT/2 + 1
	return &Extractor{
		cfg:      cfg,
		window:   frameWindow,
		melBank:  melFilterBank(cfg.NMels, cfg.NFFT, cfg.SampleRate, cfg.FMin, cfg.FMax),
		plan:     plan,
		frame:    make([]float64, cfg.NFFT),
		spectrum: make([]complex128, cfg.NFFT),
		re:       make([]float64, half),
		im:       make([]float64, half),
		power:    make([]float64, half),
	}, nil
}

// NumFrames is the frame count produced for n samples: frames are centred
// on multiples of the hop, so a clip of n samples yields 1 + n/hop frames.
func (e *Extractor) NumFrames(n int) int {
	return 1 + n/e.cfg.HopLength
}

// Extract returns the [n_mels × frames] log-mel spectrogram of samples.
func (e *Extractor) Extract(samples []float64) (*Spectrogram, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("spectrogram: empty audio")
	}
	nfft := e.cfg.NFFT
	padded := reflectPad(samples, nfft/2)
	frames := e.NumFrames(len(samples))
	mels := make([]float64, e.cfg.NMels*frames)

	for t := 0; t < frames; t++ {
		start := t * e.cfg.HopLength
		copy(e.frame, padded[start:start+nfft])
		vecmath.MulBlockInPlace(e.frame, e.window)

		for i, v := range e.frame {
			e.spectrum[i] = complex(v, 0)
		}
		if err := e.plan.Forward(e.spectrum, e.spectrum); err != nil {
			return nil, fmt.Errorf("spectrogram: forward FFT failed: %w", err)
		}
		for k := range e.power {
			e.re[k] = real(e.spectrum[k])
			e.im[k] = imag(e.spectrum[k])
		}
		vecmath.Power(e.power, e.re, e.im)

		for m, filter := range e.melBank {
			sum := 0.0
			for k, w := range filter {
				if w != 0 {
					sum += w * e.power[k]
				}
			}
			mels[m*frames+t] = sum
		}
	}

	powerToDB(mels, e.cfg.TopDB)

	out := New(e.cfg.NMels, frames)
	for i, v := range mels {
		out.Data[i] = float32(v)
	}
	return out, nil
}

// reflectPad mirrors pad samples on each side without repeating the edge
// sample. Clips shorter than pad fall back to zero padding.
func reflectPad(x []float64, pad int) []float64 {
	n := len(x)
	out := make([]float64, n+2*pad)
	copy(out[pad:], x)
	if n <= pad {
		return out
	}
	for i := 1; i <= pad; i++ {
		out[pad-i] = x[i]
		out[pad+n-1+i] = x[n-1-i]
	}
	return out
}
