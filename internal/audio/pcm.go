package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// Output format shared by every engine and the player: 16-bit signed
// little-endian mono.
const (
	BitDepth       = 16
	Channels       = 1
	bytesPerSample = BitDepth / 8 * Channels

	// DefaultSampleRate is the rate the oto context runs at.
	DefaultSampleRate = 44100
)

// PCM is a block of 16-bit little-endian mono audio.
type PCM struct {
	Data       []byte
	SampleRate int
}

// NewPCM wraps raw bytes after checking they hold whole samples.
func NewPCM(data []byte, sampleRate int) (*PCM, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	if len(data)%bytesPerSample != 0 {
		return nil, fmt.Errorf("PCM data length %d is not aligned to %d-byte samples", len(data), bytesPerSample)
	}
	return &PCM{Data: data, SampleRate: sampleRate}, nil
}

// Silence returns d worth of silent audio.
func Silence(d time.Duration, sampleRate int) *PCM {
	samples := int(d.Seconds() * float64(sampleRate))
	return &PCM{Data: make([]byte, samples*bytesPerSample), SampleRate: sampleRate}
}

// Samples returns the number of samples.
func (p *PCM) Samples() int {
	return len(p.Data) / bytesPerSample
}

// Duration returns the playing time of the audio.
func (p *PCM) Duration() time.Duration {
	if p.SampleRate == 0 {
		return 0
	}
	return time.Duration(p.Samples()) * time.Second / time.Duration(p.SampleRate)
}

// Int16s decodes the samples.
func (p *PCM) Int16s() []int16 {
	out := make([]int16, p.Samples())
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(p.Data[i*2:]))
	}
	return out
}

// FromInt16s encodes samples as PCM.
func FromInt16s(samples []int16, sampleRate int) *PCM {
	data := make([]byte, len(samples)*bytesPerSample)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	return &PCM{Data: data, SampleRate: sampleRate}
}

// Resample converts the audio to rate with linear interpolation. It returns p
// itself when the rate already matches.
func (p *PCM) Resample(rate int) (*PCM, error) {
	if rate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", rate)
	}
	if p.SampleRate == rate {
		return p, nil
	}
	if p.SampleRate <= 0 {
		return nil, errors.New("source sample rate unknown")
	}

	in := p.Int16s()
	if len(in) == 0 {
		return &PCM{SampleRate: rate}, nil
	}

	ratio := float64(rate) / float64(p.SampleRate)
	out := make([]int16, int(float64(len(in))*ratio))
	for i := range out {
		pos := float64(i) / ratio
		idx := int(pos)
		if idx >= len(in)-1 {
			out[i] = in[len(in)-1]
			continue
		}
		frac := pos - float64(idx)
		out[i] = int16(float64(in[idx])*(1-frac) + float64(in[idx+1])*frac)
	}
	return FromInt16s(out, rate), nil
}

// Int16sFromFloat32 converts normalized float samples, clipping to [-1,1].
func Int16sFromFloat32(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		switch {
		case s > 1:
			s = 1
		case s < -1:
			s = -1
		}
		out[i] = int16(s * 32767)
	}
	return out
}
