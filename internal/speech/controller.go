package speech

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/charmbracelet/log"
)

// Controller plays text through an engine, keeping at most one live session.
// Starting a new playback cancels the previous one and waits for it to end.
type Controller struct {
	engine Engine
	draw   func() float64
	wait   waitFunc

	// playMu serializes Play calls so sessions never overlap.
	playMu sync.Mutex

	mu      sync.Mutex
	session *Session
}

// NewController creates a controller that speaks through engine.
func NewController(engine Engine) (*Controller, error) {
	if engine == nil {
		return nil, errors.New("engine cannot be nil")
	}
	return &Controller{
		engine: engine,
		draw:   rand.Float64,
		wait:   sleep,
	}, nil
}

// Engine returns the engine the controller speaks through.
func (c *Controller) Engine() Engine {
	return c.engine
}

// Play splits text according to the settings and speaks it. The settings are
// a snapshot; changing them later only affects the next Play.
func (c *Controller) Play(ctx context.Context, text string, settings Settings, hooks Hooks) (*Session, error) {
	chunks := Split(text, settings.NaturalPauses)
	if len(chunks) == 0 || (len(chunks) == 1 && chunks[0].Text == "") {
		return nil, ErrEmptyText
	}
	return c.PlayChunks(ctx, chunks, settings, hooks)
}

// PlayChunks speaks a precomputed chunk sequence. Any live session is
// cancelled first.
func (c *Controller) PlayChunks(ctx context.Context, chunks []Chunk, settings Settings, hooks Hooks) (*Session, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	c.playMu.Lock()
	defer c.playMu.Unlock()

	if prev := c.Session(); prev != nil {
		prev.Cancel()
		<-prev.Done()
	}

	s := newSession(ctx, c.engine, chunks, settings, hooks, c.draw, c.wait)

	c.mu.Lock()
	c.session = s
	c.mu.Unlock()

	log.Info("Speaking", "session", s.ID, "chunks", len(chunks), "emotion", settings.Emotion, "voice", settings.Voice.Name)
	go s.run()

	return s, nil
}

// Session returns the most recent session, live or finished, or nil.
func (c *Controller) Session() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Active reports whether a session is still dispatching chunks.
func (c *Controller) Active() bool {
	s := c.Session()
	if s == nil {
		return false
	}
	select {
	case <-s.Done():
		return false
	default:
		return true
	}
}

// Stop cancels the live session, if any.
func (c *Controller) Stop() {
	if s := c.Session(); s != nil {
		s.Cancel()
	}
}

// Pause holds the live session before its next chunk and, when the engine
// supports it, suspends the audio already playing.
func (c *Controller) Pause() error {
	if !c.Active() {
		return ErrNoSession
	}
	c.Session().pause()

	if p, ok := c.engine.(Pauser); ok {
		if err := p.Pause(); err != nil {
			return fmt.Errorf("failed to pause engine: %w", err)
		}
	}
	return nil
}

// Resume continues a paused session.
func (c *Controller) Resume() error {
	if !c.Active() {
		return ErrNoSession
	}
	if p, ok := c.engine.(Pauser); ok {
		if err := p.Resume(); err != nil {
			return fmt.Errorf("failed to resume engine: %w", err)
		}
	}
	c.Session().resume()
	return nil
}

// TogglePause pauses a running session or resumes a paused one and returns
// whether the session is now paused.
func (c *Controller) TogglePause() (bool, error) {
	s := c.Session()
	if s == nil || !c.Active() {
		return false, ErrNoSession
	}
	if s.State() == StatePaused {
		return false, c.Resume()
	}
	return true, c.Pause()
}
