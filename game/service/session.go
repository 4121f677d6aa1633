package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/wricardo/mcp-training/labyrinth/game/board"
	"github.com/wricardo/mcp-training/labyrinth/game/dispatch"
	"github.com/wricardo/mcp-training/labyrinth/game/engine"
)

// Session represents an active game session. Its engine is owned by a
// dispatcher goroutine that runs until Close.
type Session struct {
	ID        string
	ConfigID  string
	Config    *engine.GameConfig
	CreatedAt time.Time

	dispatcher *dispatch.Dispatcher
	cancel     context.CancelFunc

	mu             sync.RWMutex
	lastAccessedAt time.Time
}

// NewSession starts a dispatcher for e and wraps it in a session
func NewSession(id, configID string, config *engine.GameConfig, e *engine.GameEngine, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := dispatch.New(e, logger.With("session", id))
	go d.Run(ctx)

	now := time.Now()
	return &Session{
		ID:             id,
		ConfigID:       configID,
		Config:         config,
		CreatedAt:      now,
		dispatcher:     d,
		cancel:         cancel,
		lastAccessedAt: now,
	}
}

// LastAccessedAt returns when the session was last used
func (s *Session) LastAccessedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastAccessedAt
}

// SetLastAccessedAt overrides the last access time, used when restoring
func (s *Session) SetLastAccessedAt(t time.Time) {
	s.mu.Lock()
	s.lastAccessedAt = t
	s.mu.Unlock()
}

// Touch marks the session as used now
func (s *Session) Touch() {
	s.SetLastAccessedAt(time.Now())
}

// Execute runs a player command on the session's dispatcher
func (s *Session) Execute(ctx context.Context, sentBy board.Player, cmd dispatch.Command) (*engine.GameState, error) {
	return s.dispatcher.Execute(ctx, sentBy, cmd)
}

// Do runs fn against the engine on the session's dispatcher
func (s *Session) Do(ctx context.Context, fn func(*engine.GameEngine) error) error {
	return s.dispatcher.Do(ctx, fn)
}

// Snapshot returns the complete state, every player's cards included
func (s *Session) Snapshot(ctx context.Context) (*engine.GameState, error) {
	var state *engine.GameState
	err := s.Do(ctx, func(e *engine.GameEngine) error {
		state = e.State()
		return nil
	})
	return state, err
}

// View returns the state as viewer sees it. NoPlayer is a spectator.
func (s *Session) View(ctx context.Context, viewer board.Player) (*engine.GameState, error) {
	var state *engine.GameState
	err := s.Do(ctx, func(e *engine.GameEngine) (err error) {
		state, err = e.StateFor(viewer)
		return err
	})
	return state, err
}

// Close stops the dispatcher and waits for it to exit
func (s *Session) Close() {
	s.cancel()
	<-s.dispatcher.Done()
}
