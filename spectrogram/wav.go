package spectrogram

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	resampling "github.com/tphakala/go-audio-resampling"
)

const (
	formatPCM        = 1
	formatFloat      = 3
	formatExtensible = 0xFFFE
)

// wavFormat is the payload of a WAV "fmt " chunk.
type wavFormat struct {
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// DecodeWAV reads a RIFF/WAVE stream and returns its samples downmixed to
// mono in [-1, 1] along with the sample rate. Integer PCM of 8, 16, 24 and
// 32 bits and 32-bit float are supported; unknown chunks are skipped.
func DecodeWAV(data []byte) ([]float64, int, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, fmt.Errorf("invalid WAV file: missing RIFF/WAVE header")
	}

	var (
		format  *wavFormat
		payload []byte
	)
	r := bytes.NewReader(data[12:])
	for {
		var id [4]byte
		var size uint32
		if err := binary.Read(r, binary.LittleEndian, &id); err != nil {
			if err == io.EOF {
				break
			}
			return nil, 0, fmt.Errorf("failed to read chunk id: %w", err)
		}
		if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
			return nil, 0, fmt.Errorf("failed to read chunk size: %w", err)
		}
		if int64(size) > int64(r.Len()) {
			if string(id[:]) != "data" {
				return nil, 0, fmt.Errorf("truncated %q chunk", string(id[:]))
			}
			// streaming writers leave the data size unset
			size = uint32(r.Len())
		}
		body := make([]byte, size)
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, 0, fmt.Errorf("failed to read %q chunk: %w", string(id[:]), err)
		}
		if size%2 == 1 {
			_, _ = r.ReadByte()
		}

		switch string(id[:]) {
		case "fmt ":
			if len(body) < 16 {
				return nil, 0, fmt.Errorf("fmt chunk too short: %d bytes", len(body))
			}
			var f wavFormat
			if err := binary.Read(bytes.NewReader(body), binary.LittleEndian, &f); err != nil {
				return nil, 0, fmt.Errorf("failed to read fmt chunk: %w", err)
			}
			if f.AudioFormat == formatExtensible && len(body) >= 26 {
				f.AudioFormat = binary.LittleEndian.Uint16(body[24:26])
			}
			format = &f
		case "data":
			payload = body
		}
		if format != nil && payload != nil {
			break
		}
	}

	if format == nil {
		return nil, 0, fmt.Errorf("invalid WAV file: missing fmt chunk")
	}
	if payload == nil {
		return nil, 0, fmt.Errorf("invalid WAV file: missing data chunk")
	}
	samples, err := decodeSamples(*format, payload)
	if err != nil {
		return nil, 0, err
	}
	return samples, int(format.SampleRate), nil
}

func decodeSamples(f wavFormat, payload []byte) ([]float64, error) {
	if f.NumChannels == 0 {
		return nil, fmt.Errorf("invalid channel count: 0")
	}
	width := int(f.BitsPerSample) / 8
	var read func(b []byte) float64
	switch {
	case f.AudioFormat == formatPCM && f.BitsPerSample == 8:
		read = func(b []byte) float64 { return (float64(b[0]) - 128) / 128 }
	case f.AudioFormat == formatPCM && f.BitsPerSample == 16:
		read = func(b []byte) float64 { return float64(int16(binary.LittleEndian.Uint16(b))) / 32768 }
	case f.AudioFormat == formatPCM && f.BitsPerSample == 24:
		read = func(b []byte) float64 {
			v := int32(b[0]) | int32(b[1])<<8 | int32(int8(b[2]))<<16
			return float64(v) / 8388608
		}
	case f.AudioFormat == formatPCM && f.BitsPerSample == 32:
		read = func(b []byte) float64 { return float64(int32(binary.LittleEndian.Uint32(b))) / 2147483648 }
	case f.AudioFormat == formatFloat && f.BitsPerSample == 32:
		read = func(b []byte) float64 { return float64(math.Float32frombits(binary.LittleEndian.Uint32(b))) }
	default:
		return nil, fmt.Errorf("unsupported audio format %d with %d bits per sample", f.AudioFormat, f.BitsPerSample)
	}

	channels := int(f.NumChannels)
	frameBytes := width * channels
	frames := len(payload) / frameBytes
	if frames == 0 {
		return nil, fmt.Errorf("no audio data found")
	}
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		sum := 0.0
		base := i * frameBytes
		for c := 0; c < channels; c++ {
			off := base + c*width
			sum += read(payload[off : off+width])
		}
		out[i] = sum / float64(channels)
	}
	return out, nil
}

// Resample converts mono samples from one rate to another. Equal rates
// return the input unchanged.
func Resample(samples []float64, from, to int) ([]float64, error) {
	if from == to {
		return samples, nil
	}
	if from <= 0 || to <= 0 {
		return nil, fmt.Errorf("invalid sample rates %d -> %d", from, to)
	}
	rs, err := resampling.New(&resampling.Config{
		InputRate:  float64(from),
		OutputRate: float64(to),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create resampler: %w", err)
	}
	out, err := rs.Process(samples)
	if err != nil {
		return nil, fmt.Errorf("resample error: %w", err)
	}
	return out, nil
}
