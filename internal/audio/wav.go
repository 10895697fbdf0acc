package audio

import (
	"errors"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrNotWAV is returned when data does not carry a RIFF/WAVE header.
var ErrNotWAV = errors.New("not a WAV file")

// DecodeWAV reads a PCM WAV stream and returns it as 16-bit mono. Stereo
// input is downmixed and other bit depths are rescaled.
func DecodeWAV(r io.ReadSeeker) (*PCM, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrNotWAV
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("unable to decode WAV: %w", err)
	}
	if buf.Format == nil || buf.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: missing format", ErrNotWAV)
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	shift := int(dec.BitDepth) - BitDepth

	frames := len(buf.Data) / channels
	samples := make([]int16, frames)
	for i := 0; i < frames; i++ {
		sum := 0
		for ch := 0; ch < channels; ch++ {
			sum += buf.Data[i*channels+ch]
		}
		v := sum / channels
		switch {
		case shift > 0:
			v >>= shift
		case shift < 0:
			v <<= -shift
		}
		samples[i] = int16(v)
	}
	return FromInt16s(samples, buf.Format.SampleRate), nil
}

// EncodeWAV writes p as a 16-bit mono WAV file.
func EncodeWAV(w io.WriteSeeker, p *PCM) error {
	enc := wav.NewEncoder(w, p.SampleRate, BitDepth, Channels, 1)

	samples := p.Int16s()
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: Channels, SampleRate: p.SampleRate},
		Data:           data,
		SourceBitDepth: BitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("unable to write WAV samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("unable to finish WAV file: %w", err)
	}
	return nil
}
