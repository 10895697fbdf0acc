package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
)

// drainPoll is how often Play checks whether oto finished the buffer.
const drainPoll = 10 * time.Millisecond

// ErrPlayerClosed is returned when the player was closed.
var ErrPlayerClosed = errors.New("player is closed")

// errStopped ends a Play that was interrupted by Stop.
var errStopped = errors.New("playback stopped")

// PlayerState represents the current state of the player.
type PlayerState int32

const (
	StateStopped PlayerState = iota
	StatePlaying
	StatePaused
	StateClosed
)

// String returns the string representation of the state
func (s PlayerState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Output plays PCM audio. Player is the oto-backed implementation.
type Output interface {
	// Play blocks until the audio finished, ctx ended or Stop was called.
	Play(ctx context.Context, pcm *PCM, volume float64) error
	Pause() error
	Resume() error
	Stop() error
	SampleRate() int
}

// Player plays PCM through an oto context. One clip plays at a time.
type Player struct {
	context *oto.Context

	// CRITICAL: the clip bytes must stay referenced while oto reads them
	mu      sync.Mutex
	current *oto.Player
	data    []byte
	stopped chan struct{}

	state      atomic.Int32
	sampleRate int
}

// PlayerConfig contains configuration for the audio player.
type PlayerConfig struct {
	SampleRate int // 44100 or 48000 Hz only
	BufferSize time.Duration
}

// DefaultPlayerConfig returns the default player configuration.
func DefaultPlayerConfig() PlayerConfig {
	return PlayerConfig{
		SampleRate: DefaultSampleRate,
		BufferSize: 100 * time.Millisecond,
	}
}

func validateConfig(config PlayerConfig) error {
	if config.SampleRate != 44100 && config.SampleRate != 48000 {
		return fmt.Errorf("sample rate must be 44100 or 48000 Hz, got %d", config.SampleRate)
	}
	if config.BufferSize <= 0 {
		return errors.New("buffer size must be positive")
	}
	return nil
}

// NewPlayer opens the audio device.
func NewPlayer(config PlayerConfig) (*Player, error) {
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   config.SampleRate,
		ChannelCount: Channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   config.BufferSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-ready

	p := &Player{
		context:    ctx,
		sampleRate: config.SampleRate,
	}
	p.state.Store(int32(StateStopped))
	return p, nil
}

// SampleRate returns the device sample rate.
func (p *Player) SampleRate() int {
	return p.sampleRate
}

// State returns the current player state.
func (p *Player) State() PlayerState {
	return PlayerState(p.state.Load())
}

// Play plays pcm at volume (0..1) and waits for it to finish. It returns
// ctx.Err() when ctx ends first and nil when Stop interrupted it.
func (p *Player) Play(ctx context.Context, pcm *PCM, volume float64) error {
	if pcm == nil || len(pcm.Data) == 0 {
		return errors.New("audio data is empty")
	}
	if volume < 0 || volume > 1 {
		return fmt.Errorf("volume must be between 0.0 and 1.0, got %f", volume)
	}

	pcm, err := pcm.Resample(p.sampleRate)
	if err != nil {
		return fmt.Errorf("failed to resample audio: %w", err)
	}

	player, stopped, err := p.start(pcm.Data, volume)
	if err != nil {
		return err
	}
	log.Debug("Playing clip", "duration", pcm.Duration(), "volume", volume)

	ticker := time.NewTicker(drainPoll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.release(player)
			return ctx.Err()
		case <-stopped:
			return nil
		case <-ticker.C:
			if p.State() == StatePaused {
				continue
			}
			if !player.IsPlaying() {
				p.release(player)
				return nil
			}
		}
	}
}

func (p *Player) start(data []byte, volume float64) (*oto.Player, chan struct{}, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.State() == StateClosed {
		return nil, nil, ErrPlayerClosed
	}
	p.stopLocked()

	// keep our own copy alive for the duration of playback
	clip := make([]byte, len(data))
	copy(clip, data)

	player := p.context.NewPlayer(bytes.NewReader(clip))
	player.SetVolume(volume)

	p.current = player
	p.data = clip
	p.stopped = make(chan struct{})
	player.Play()
	p.state.Store(int32(StatePlaying))

	return player, p.stopped, nil
}

// release tears down player if it is still the current clip.
func (p *Player) release(player *oto.Player) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == player {
		p.stopLocked()
	}
}

// Pause suspends the current clip. Pausing while idle does nothing.
func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.State() != StatePlaying {
		return nil
	}
	p.current.Pause()
	p.state.Store(int32(StatePaused))
	return nil
}

// Resume continues a paused clip.
func (p *Player) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.State() != StatePaused {
		return nil
	}
	p.current.Play()
	p.state.Store(int32(StatePlaying))
	return nil
}

// Stop abandons the current clip; a blocked Play returns.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	return nil
}

func (p *Player) stopLocked() {
	if p.current != nil {
		p.current.Pause()
		if err := p.current.Close(); err != nil {
			log.Debug("Closing oto player failed", "error", err)
		}
		p.current = nil
	}
	p.data = nil
	if p.stopped != nil {
		close(p.stopped)
		p.stopped = nil
	}
	if p.State() != StateClosed {
		p.state.Store(int32(StateStopped))
	}
}

// Close stops playback and marks the player unusable. The oto context
// itself lives for the rest of the process.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	p.state.Store(int32(StateClosed))
	return nil
}

var _ Output = (*Player)(nil)
