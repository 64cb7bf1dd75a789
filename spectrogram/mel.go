package spectrogram

import "math"

// Slaney mel scale: linear below 1 kHz, logarithmic above.
const (
	melFSp       = 200.0 / 3
	melMinLogHz  = 1000.0
	melMinLogMel = melMinLogHz / melFSp
)

var melLogStep = math.Log(6.4) / 27.0

func hzToMel(hz float64) float64 {
	if hz < melMinLogHz {
		return hz / melFSp
	}
	return melMinLogMel + math.Log(hz/melMinLogHz)/melLogStep
}

func melToHz(mel float64) float64 {
	if mel < melMinLogMel {
		return mel * melFSp
	}
	return melMinLogHz * math.Exp(melLogStep*(mel-melMinLogMel))
}

// melFilterBank returns [numMels][fftSize/2+1] triangular filters with
// Slaney area normalisation, so each band has constant energy per Hz.
func melFilterBank(numMels, fftSize, sampleRate int, lowFreq, highFreq float64) [][]float64 {
	halfFFT := fftSize/2 + 1
	fftFreqs := make([]float64, halfFFT)
	for k := range fftFreqs {
		fftFreqs[k] = float64(k) * float64(sampleRate) / float64(fftSize)
	}

	lowMel, highMel := hzToMel(lowFreq), hzToMel(highFreq)
	hz := make([]float64, numMels+2)
	step := (highMel - lowMel) / float64(numMels+1)
	for i := range hz {
		hz[i] = melToHz(lowMel + float64(i)*step)
	}

	bank := make([][]float64, numMels)
	for m := 0; m < numMels; m++ {
		filter := make([]float64, halfFFT)
		lower, center, upper := hz[m], hz[m+1], hz[m+2]
		enorm := 2.0 / (upper - lower)
		for k, f := range fftFreqs {
			up := (f - lower) / (center - lower)
			down := (upper - f) / (upper - center)
			if w := math.Min(up, down); w > 0 {
				filter[k] = w * enorm
			}
		}
		bank[m] = filter
	}
	return bank
}

// powerToDB converts power values in place to decibels relative to their
// maximum and clips everything more than topDB below the peak.
func powerToDB(values []float64, topDB float64) {
	const amin = 1e-10
	peak := amin
	for _, v := range values {
		if v > peak {
			peak = v
		}
	}
	ref := 10 * math.Log10(peak)
	floor := math.Inf(-1)
	if topDB > 0 {
		floor = -topDB
	}
	for i, v := range values {
		db := 10*math.Log10(math.Max(v, amin)) - ref
		if db < floor {
			db = floor
		}
		values[i] = db
	}
}
