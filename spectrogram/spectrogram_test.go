package spectrogram

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/maastricht-university/fold-predict/config"
	"github.com/maastricht-university/fold-predict/errkind"
)

func testAudio() config.Audio {
	return config.Audio{
		SampleRate: 16000,
		NMels:      40,
		NFFT:       512,
		WinLength:  400,
		HopLength:  160,
		FMin:       20,
		FMax:       8000,
		TopDB:      80,
	}
}

// encodeWAV writes 16-bit PCM with an optional LIST chunk before the data.
func encodeWAV(t *testing.T, samples []int16, rate, channels int, withList bool) []byte {
	t.Helper()
	var body bytes.Buffer
	body.WriteString("WAVE")
	body.WriteString("fmt ")
	_ = binary.Write(&body, binary.LittleEndian, uint32(16))
	_ = binary.Write(&body, binary.LittleEndian, wavFormat{
		AudioFormat:   formatPCM,
		NumChannels:   uint16(channels),
		SampleRate:    uint32(rate),
		ByteRate:      uint32(rate * channels * 2),
		BlockAlign:    uint16(channels * 2),
		BitsPerSample: 16,
	})
	if withList {
		body.WriteString("LIST")
		_ = binary.Write(&body, binary.LittleEndian, uint32(5))
		body.Write([]byte("INFOx\x00"))
	}
	body.WriteString("data")
	_ = binary.Write(&body, binary.LittleEndian, uint32(len(samples)*2))
	_ = binary.Write(&body, binary.LittleEndian, samples)

	var out bytes.Buffer
	out.WriteString("RIFF")
	_ = binary.Write(&out, binary.LittleEndian, uint32(body.Len()))
	out.Write(body.Bytes())
	return out.Bytes()
}

func TestDecodeWAVMono(t *testing.T) {
	data := encodeWAV(t, []int16{0, 16384, -16384, 32767}, 16000, 1, true)
	samples, rate, err := DecodeWAV(data)
	if err != nil {
		t.Fatalf("DecodeWAV returned error: %v", err)
	}
	if rate != 16000 {
		t.Fatalf("unexpected rate %d", rate)
	}
	want := []float64{0, 0.5, -0.5, 32767.0 / 32768}
	if len(samples) != len(want) {
		t.Fatalf("unexpected sample count %d", len(samples))
	}
	for i := range want {
		if samples[i] != want[i] {
			t.Errorf("sample %d = %v, want %v", i, samples[i], want[i])
		}
	}
}

func TestDecodeWAVDownmixesStereo(t *testing.T) {
	data := encodeWAV(t, []int16{16384, 0, -16384, -16384}, 44100, 2, false)
	samples, _, err := DecodeWAV(data)
	if err != nil {
		t.Fatalf("DecodeWAV returned error: %v", err)
	}
	if len(samples) != 2 || samples[0] != 0.25 || samples[1] != -0.5 {
		t.Fatalf("unexpected downmix %v", samples)
	}
}

func TestDecodeWAVRejectsGarbage(t *testing.T) {
	if _, _, err := DecodeWAV([]byte("not a wav file at all")); err == nil {
		t.Fatal("expected error for non-WAV data")
	}
	noData := encodeWAV(t, nil, 16000, 1, false)
	if _, _, err := DecodeWAV(noData); err == nil {
		t.Fatal("expected error for empty data chunk")
	}
}

func TestResampleSameRate(t *testing.T) {
	in := []float64{0.1, 0.2}
	out, err := Resample(in, 16000, 16000)
	if err != nil {
		t.Fatalf("Resample returned error: %v", err)
	}
	if &out[0] != &in[0] {
		t.Fatal("expected passthrough for equal rates")
	}
}

func TestMelConversionRoundTrip(t *testing.T) {
	for _, hz := range []float64{0, 500, 1000, 4000, 22050} {
		if got := melToHz(hzToMel(hz)); math.Abs(got-hz) > 1e-6 {
			t.Errorf("round trip %v -> %v", hz, got)
		}
	}
	if math.Abs(hzToMel(1000)-15) > 1e-9 {
		t.Fatalf("hzToMel(1000) = %v, want 15", hzToMel(1000))
	}
}

func TestMelFilterBank(t *testing.T) {
	bank := melFilterBank(40, 512, 16000, 20, 8000)
	if len(bank) != 40 {
		t.Fatalf("expected 40 filters, got %d", len(bank))
	}
	for i, f := range bank {
		if len(f) != 257 {
			t.Fatalf("filter %d: expected 257 bins, got %d", i, len(f))
		}
		nonZero := false
		for _, v := range f {
			if v < 0 {
				t.Fatalf("filter %d has negative weight", i)
			}
			nonZero = nonZero || v > 0
		}
		if !nonZero {
			t.Errorf("filter %d is all zeros", i)
		}
	}
}

func TestPowerToDB(t *testing.T) {
	values := []float64{1, 0.1, 1e-12, 0}
	powerToDB(values, 80)
	want := []float64{0, -10, -80, -80}
	for i := range want {
		if math.Abs(values[i]-want[i]) > 1e-9 {
			t.Errorf("value %d = %v, want %v", i, values[i], want[i])
		}
	}
}

func TestExtractShapeAndPeak(t *testing.T) {
	cfg := testAudio()
	ex, err := NewExtractor(cfg)
	if err != nil {
		t.Fatalf("NewExtractor returned error: %v", err)
	}
	const n = 16000
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*1000*float64(i)/float64(cfg.SampleRate))
	}
	spec, err := ex.Extract(samples)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if spec.Bins != cfg.NMels || spec.Frames != 1+n/cfg.HopLength {
		t.Fatalf("unexpected shape %dx%d", spec.Bins, spec.Frames)
	}

	mid := spec.Frames / 2
	best := 0
	for b := 1; b < spec.Bins; b++ {
		if spec.At(b, mid) > spec.At(best, mid) {
			best = b
		}
	}
	lowMel, highMel := hzToMel(cfg.FMin), hzToMel(cfg.FMax)
	center := melToHz(lowMel + float64(best+1)*(highMel-lowMel)/float64(cfg.NMels+1))
	if math.Abs(center-1000) > 150 {
		t.Fatalf("peak band centred at %.0f Hz, want near 1000 Hz", center)
	}
	if spec.At(best, mid) < -1 {
		t.Fatalf("peak band should be near the 0 dB reference, got %v", spec.At(best, mid))
	}
	if spec.Min() < float32(-cfg.TopDB) {
		t.Fatalf("values below top_db floor: %v", spec.Min())
	}
}

func TestExtractEmpty(t *testing.T) {
	ex, err := NewExtractor(testAudio())
	if err != nil {
		t.Fatalf("NewExtractor returned error: %v", err)
	}
	if _, err := ex.Extract(nil); err == nil {
		t.Fatal("expected error for empty audio")
	}
}

func TestSlicePadsOutsideClip(t *testing.T) {
	s := New(2, 3)
	for b := 0; b < 2; b++ {
		for f := 0; f < 3; f++ {
			s.Set(b, f, float32(10*b+f))
		}
	}
	got := s.Slice(-1, 5, -7)
	want := []float32{-7, 0, 1, 2, -7, -7, 10, 11, 12, -7}
	for i := range want {
		if got.Data[i] != want[i] {
			t.Fatalf("slice data %v, want %v", got.Data, want)
		}
	}
	if s.Min() != 0 {
		t.Fatalf("unexpected min %v", s.Min())
	}
}

func TestLoaderMissingFile(t *testing.T) {
	l, err := NewLoader(testAudio())
	if err != nil {
		t.Fatalf("NewLoader returned error: %v", err)
	}
	_, err = l.Load(filepath.Join(t.TempDir(), "missing.wav"))
	if !errors.Is(err, errkind.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestLoaderReadsWAV(t *testing.T) {
	cfg := testAudio()
	l, err := NewLoader(cfg)
	if err != nil {
		t.Fatalf("NewLoader returned error: %v", err)
	}
	samples := make([]int16, 3200)
	for i := range samples {
		samples[i] = int16(8000 * math.Sin(2*math.Pi*440*float64(i)/16000))
	}
	path := filepath.Join(t.TempDir(), "a.wav")
	if err := os.WriteFile(path, encodeWAV(t, samples, 16000, 1, false), 0o644); err != nil {
		t.Fatalf("write wav: %v", err)
	}
	spec, err := l.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if spec.Bins != cfg.NMels || spec.Frames != 21 {
		t.Fatalf("unexpected shape %dx%d", spec.Bins, spec.Frames)
	}
}

func TestExtractorWindowIsCentredPeriodicHann(t *testing.T) {
	cfg := testAudio()
	ex, err := NewExtractor(cfg)
	if err != nil {
		t.Fatalf("NewExtractor returned error: %v", err)
	}
	if len(ex.window) != cfg.NFFT {
		t.Fatalf("window length %d, want %d", len(ex.window), cfg.NFFT)
	}
	left := (cfg.NFFT - cfg.WinLength) / 2
	for i, w := range ex.window {
		inside := i >= left && i < left+cfg.WinLength
		if !inside {
			if w != 0 {
				t.Fatalf("sample %d outside the analysis window is %v", i, w)
			}
			continue
		}
		n := float64(i - left)
		want := 0.5 - 0.5*math.Cos(2*math.Pi*n/float64(cfg.WinLength))
		if math.Abs(w-want) > 1e-12 {
			t.Fatalf("sample %d = %v, want %v", i, w, want)
		}
	}
	if math.Abs(ex.window[left+cfg.WinLength/2]-1) > 1e-12 {
		t.Fatal("periodic Hann should peak at the centre sample")
	}
}

func TestNewExtractorRejectsEmptyWindow(t *testing.T) {
	cfg := testAudio()
	cfg.WinLength = 0
	if _, err := NewExtractor(cfg); err == nil {
		t.Fatal("expected error for a zero-length analysis window")
	}
}
