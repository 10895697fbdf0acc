package speech

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// SessionState is the lifecycle position of a playback session.
type SessionState int

const (
	// StateRunning indicates chunks are still being dispatched
	StateRunning SessionState = iota

	// StatePaused indicates dispatch is held until Resume
	StatePaused

	// StateCompleted indicates every chunk was spoken
	StateCompleted

	// StateFailed indicates the engine reported an error
	StateFailed

	// StateCancelled indicates the session was stopped by the caller
	StateCancelled
)

// String returns the string representation of the state
func (s SessionState) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no more chunks will be dispatched.
func (s SessionState) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

// Hooks receive session events. They run on the session goroutine and must
// not call Controller.Play.
type Hooks struct {
	// OnStart fires once, right before the first chunk is dispatched, with
	// the emotion label of the settings.
	OnStart func(emotion string)

	// OnChunk fires before each chunk is dispatched.
	OnChunk func(index, total int, chunk Chunk)

	// OnComplete fires once after the last chunk, unless the session was
	// stopped or failed.
	OnComplete func()

	// OnError fires once when the engine fails; err is an *EngineError.
	OnError func(err error)
}

// waitFunc sleeps for d, returning false if ctx ended first.
type waitFunc func(ctx context.Context, d time.Duration) bool

// Session is one playback run over a fixed chunk sequence.
type Session struct {
	ID string

	chunks   []Chunk
	settings Settings
	engine   Engine
	hooks    Hooks
	draw     func() float64
	wait     waitFunc

	ctx     context.Context
	cancel  context.CancelFunc
	stopped   atomic.Bool
	cancelled atomic.Bool
	done      chan struct{}

	mu      sync.Mutex
	index   int
	state   SessionState
	err     error
	paused  bool
	resumed chan struct{}
}

func newSession(ctx context.Context, engine Engine, chunks []Chunk, settings Settings, hooks Hooks, draw func() float64, wait waitFunc) *Session {
	sctx, cancel := context.WithCancel(ctx)
	return &Session{
		ID:       uuid.NewString(),
		chunks:   chunks,
		settings: settings,
		engine:   engine,
		hooks:    hooks,
		draw:     draw,
		wait:     wait,
		ctx:      sctx,
		cancel:   cancel,
		done:     make(chan struct{}),
		state:    StateRunning,
	}
}

// Cancel stops the session: no further chunks are dispatched and the engine
// is asked to abandon the in-flight utterance. Calling it more than once, or
// after the session ended, does nothing.
func (s *Session) Cancel() {
	select {
	case <-s.done:
		return
	default:
	}
	if !s.cancelled.CompareAndSwap(false, true) {
		return
	}
	s.stopped.Store(true)
	log.Debug("Cancelling playback session", "session", s.ID, "chunk", s.Index())
	s.cancel()
	s.engine.CancelAll()
}

// Done is closed once the session reached a terminal state and its hooks
// have returned.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the session ended and returns its engine error, if any.
func (s *Session) Wait() error {
	<-s.done
	return s.Err()
}

// Err returns the *EngineError that stopped the session, or nil.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// State returns the current session state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paused && !s.state.Terminal() {
		return StatePaused
	}
	return s.state
}

// Index returns the index of the chunk being spoken, or len(Chunks()) once
// all of them were.
func (s *Session) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// Chunks returns the session's chunk sequence.
func (s *Session) Chunks() []Chunk {
	return s.chunks
}

// Settings returns the settings snapshot the session plays with.
func (s *Session) Settings() Settings {
	return s.settings
}

// pause holds dispatch before the next chunk.
func (s *Session) pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paused || s.state.Terminal() {
		return
	}
	s.paused = true
	s.resumed = make(chan struct{})
}

// resume releases a held dispatch.
func (s *Session) resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.paused {
		return
	}
	s.paused = false
	close(s.resumed)
}

// gate blocks while the session is paused. It returns false if the session
// context ended while waiting.
func (s *Session) gate() bool {
	s.mu.Lock()
	if !s.paused {
		s.mu.Unlock()
		return true
	}
	resumed := s.resumed
	s.mu.Unlock()

	select {
	case <-resumed:
		return true
	case <-s.ctx.Done():
		return false
	}
}

// run dispatches the chunks in order, one at a time.
func (s *Session) run() {
	defer close(s.done)
	defer s.cancel()

	total := len(s.chunks)
	logger := log.With("session", s.ID)
	logger.Debug("Playback session started", "chunks", total, "emotion", s.settings.Emotion)

	for {
		if s.halted() {
			s.finish(StateCancelled, nil)
			logger.Debug("Playback session cancelled", "chunk", s.Index())
			return
		}

		i := s.Index()
		if i >= total {
			break
		}

		if !s.gate() {
			continue
		}

		chunk := s.chunks[i]
		u := s.settings.utterance(chunk, s.draw())

		if i == 0 && s.hooks.OnStart != nil {
			s.hooks.OnStart(s.settings.Emotion)
		}
		if s.hooks.OnChunk != nil {
			s.hooks.OnChunk(i, total, chunk)
		}
		if s.halted() {
			continue
		}

		logger.Debug("Dispatching chunk", "index", i, "rate", u.Rate, "pitch", u.Pitch, "volume", u.Volume)
		if err := s.engine.Speak(s.ctx, u); err != nil {
			if s.halted() {
				continue
			}
			s.stopped.Store(true)
			engineErr := &EngineError{Chunk: i, Text: chunk.Text, Reason: err}
			s.finish(StateFailed, engineErr)
			logger.Error("Playback session failed", "chunk", i, "error", err)
			if s.hooks.OnError != nil {
				s.hooks.OnError(engineErr)
			}
			return
		}

		s.advance()

		if chunk.PauseAfter > 0 && !s.halted() {
			s.wait(s.ctx, chunk.PauseAfter)
		}
	}

	s.finish(StateCompleted, nil)
	logger.Debug("Playback session completed", "chunks", total)
	if s.hooks.OnComplete != nil {
		s.hooks.OnComplete()
	}
}

// halted reports whether the session was stopped, either through Cancel or
// because the caller's context ended.
func (s *Session) halted() bool {
	if s.ctx.Err() != nil {
		s.stopped.Store(true)
	}
	return s.stopped.Load()
}

func (s *Session) advance() {
	s.mu.Lock()
	s.index++
	s.mu.Unlock()
}

func (s *Session) finish(state SessionState, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.err = err
	s.paused = false
}

// sleep waits for d or until ctx ends.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
