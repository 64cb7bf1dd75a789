// Package spectrogram turns test clips into log-mel spectrograms.
//
// The pipeline is:
//
//  1. Decode: WAV file → mono float64 samples, resampled to the configured rate
//  2. Extract: samples → power spectrogram (Hann window, centred frames)
//  3. Mel: power bins → mel bands (Slaney scale and area normalisation)
//  4. Scale: power → decibels relative to the clip maximum, clipped to top_db
//
// The output is a [bins × frames] matrix whose frame count varies per clip
// and whose bin count is fixed by n_mels.
package spectrogram

import "math"

// Spectrogram is a Bins × Frames matrix stored bin-major:
// Data[b*Frames+t] is bin b of frame t.
type Spectrogram struct {
	Bins   int
	Frames int
	Data   []float32
}

// New allocates a zeroed spectrogram.
func New(bins, frames int) *Spectrogram {
	return &Spectrogram{Bins: bins, Frames: frames, Data: make([]float32, bins*frames)}
}

func (s *Spectrogram) At(b, t int) float32 { return s.Data[b*s.Frames+t] }

func (s *Spectrogram) Set(b, t int, v float32) { s.Data[b*s.Frames+t] = v }

// Min returns the smallest value, or 0 for an empty spectrogram.
func (s *Spectrogram) Min() float32 {
	if len(s.Data) == 0 {
		return 0
	}
	m := float32(math.Inf(1))
	for _, v := range s.Data {
		if v < m {
			m = v
		}
	}
	return m
}

// Slice copies frames [offset, offset+width) into a new Bins × width
// spectrogram. Frames outside the clip are filled with pad.
func (s *Spectrogram) Slice(offset, width int, pad float32) *Spectrogram {
	out := New(s.Bins, width)
	for b := 0; b < s.Bins; b++ {
		row := out.Data[b*width : (b+1)*width]
		for i := range row {
			t := offset + i
			if t < 0 || t >= s.Frames {
				row[i] = pad
				continue
			}
			row[i] = s.At(b, t)
		}
	}
	return out
}
