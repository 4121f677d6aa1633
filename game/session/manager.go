package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/wricardo/mcp-training/labyrinth/game/engine"
	"github.com/wricardo/mcp-training/labyrinth/game/service"
	"github.com/wricardo/mcp-training/labyrinth/metrics"
)

var (
	ErrSessionNotFound      = service.ErrSessionNotFound
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrInvalidSessionID     = errors.New("invalid session ID")
)

// Manager handles game session lifecycle. Every session in memory has a
// running dispatcher; removing a session from memory stops it.
type Manager struct {
	sessions    map[string]*service.Session
	persistence SessionPersistence
	logger      *slog.Logger
	mu          sync.RWMutex
}

// NewManager creates a new session manager
func NewManager(logger *slog.Logger) *Manager {
	return NewManagerWithPersistence(nil, logger)
}

// NewManagerWithPersistence creates a new session manager with persistence
func NewManagerWithPersistence(persistence SessionPersistence, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		sessions:    make(map[string]*service.Session),
		persistence: persistence,
		logger:      logger,
	}
}

// validateID accepts short identifiers that are safe as file names and keys
func validateID(id string) error {
	if id == "" || len(id) > 64 {
		return fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
		}
	}
	return nil
}

// Create creates a new session with the given ID and configuration. An empty
// ID generates one.
func (m *Manager) Create(id, configID string, config *engine.GameConfig) (*service.Session, error) {
	if id == "" {
		id = m.generateSessionID()
	}
	if err := validateID(id); err != nil {
		return nil, err
	}

	eng, err := engine.NewEngine(config, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	m.mu.Lock()
	_, exists := m.sessions[strings.ToLower(id)]
	// A session unloaded from memory still owns its ID
	if exists || (m.persistence != nil && m.persistence.Exists(id)) {
		m.mu.Unlock()
		return nil, ErrSessionAlreadyExists
	}
	sess := service.NewSession(id, configID, config, eng, m.logger)
	m.sessions[strings.ToLower(id)] = sess
	metrics.SessionsActive.Set(float64(len(m.sessions)))
	m.mu.Unlock()

	if err := m.Save(context.Background(), id); err != nil {
		// Log error but don't fail the creation
		m.logger.Warn("failed to persist new session", "session", id, "error", err)
	}
	return sess, nil
}

// Get retrieves a session by ID (case-insensitive), loading it from
// persistence when it is not in memory
func (m *Manager) Get(id string) (*service.Session, error) {
	m.mu.RLock()
	sess, exists := m.sessions[strings.ToLower(id)]
	m.mu.RUnlock()
	if exists {
		return sess, nil
	}

	if m.persistence == nil || !m.persistence.Exists(id) {
		return nil, ErrSessionNotFound
	}

	data, err := m.persistence.Load(id)
	if err != nil {
		return nil, fmt.Errorf("failed to load persisted session: %w", err)
	}
	restored, err := m.restore(data)
	if err != nil {
		return nil, fmt.Errorf("failed to restore persisted session: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Another request may have loaded it meanwhile
	if sess, exists := m.sessions[strings.ToLower(id)]; exists {
		restored.Close()
		return sess, nil
	}
	m.sessions[strings.ToLower(id)] = restored
	metrics.SessionsActive.Set(float64(len(m.sessions)))
	return restored, nil
}

// GetOrCreate gets an existing session or creates a new one
func (m *Manager) GetOrCreate(id, configID string, config *engine.GameConfig) (*service.Session, error) {
	sess, err := m.Get(id)
	if err == nil {
		return sess, nil
	}
	if errors.Is(err, ErrSessionNotFound) {
		return m.Create(id, configID, config)
	}
	return nil, err
}

// List returns all active sessions
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*service.Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		result = append(result, sess)
	}
	return result
}

// Delete removes a session from memory and persistence
func (m *Manager) Delete(id string) error {
	inMemory := m.DeleteFromMemory(id) == nil

	if m.persistence != nil && m.persistence.Exists(id) {
		if err := m.persistence.Delete(id); err != nil {
			return fmt.Errorf("failed to delete persisted session: %w", err)
		}
		return nil
	}

	if !inMemory {
		return ErrSessionNotFound
	}
	return nil
}

// DeleteFromMemory stops a session and removes it from memory only
func (m *Manager) DeleteFromMemory(id string) error {
	m.mu.Lock()
	sess, exists := m.sessions[strings.ToLower(id)]
	if exists {
		delete(m.sessions, strings.ToLower(id))
		metrics.SessionsActive.Set(float64(len(m.sessions)))
	}
	m.mu.Unlock()

	if !exists {
		return ErrSessionNotFound
	}
	sess.Close()
	return nil
}

// UpdateLastAccessed updates the last accessed time for a session
func (m *Manager) UpdateLastAccessed(id string) error {
	m.mu.RLock()
	sess, exists := m.sessions[strings.ToLower(id)]
	m.mu.RUnlock()
	if !exists {
		return ErrSessionNotFound
	}
	sess.Touch()
	return nil
}

// Save persists a session's current snapshot. The snapshot is taken on the
// session's dispatcher, between commands.
func (m *Manager) Save(ctx context.Context, id string) error {
	if m.persistence == nil {
		return nil
	}

	m.mu.RLock()
	sess, exists := m.sessions[strings.ToLower(id)]
	m.mu.RUnlock()
	if !exists {
		return ErrSessionNotFound
	}

	data, err := snapshot(ctx, sess)
	if err != nil {
		return err
	}
	return m.persistence.Save(data)
}

func snapshot(ctx context.Context, sess *service.Session) (*PersistedSessionData, error) {
	state, err := sess.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot session %s: %w", sess.ID, err)
	}
	return &PersistedSessionData{
		ID:             sess.ID,
		ConfigName:     sess.ConfigID,
		Config:         sess.Config,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt(),
		GameState:      state,
	}, nil
}

// restore rebuilds a running session from a snapshot
func (m *Manager) restore(data *PersistedSessionData) (*service.Session, error) {
	if data.Config == nil || data.GameState == nil {
		return nil, fmt.Errorf("session %s has no config or state", data.ID)
	}
	eng, err := engine.RestoreEngine(data.Config, data.GameState)
	if err != nil {
		return nil, err
	}

	sess := service.NewSession(data.ID, data.ConfigName, data.Config, eng, m.logger)
	sess.CreatedAt = data.CreatedAt
	sess.SetLastAccessedAt(data.LastAccessedAt)
	return sess, nil
}

// CleanupExpiredSessions stops and unloads sessions that haven't been
// accessed in the given duration. Persisted copies are kept.
func (m *Manager) CleanupExpiredSessions(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	m.mu.Lock()
	var expired []*service.Session
	for key, sess := range m.sessions {
		if sess.LastAccessedAt().Before(cutoff) {
			delete(m.sessions, key)
			expired = append(expired, sess)
		}
	}
	metrics.SessionsActive.Set(float64(len(m.sessions)))
	m.mu.Unlock()

	for _, sess := range expired {
		if m.persistence != nil {
			if data, err := snapshot(context.Background(), sess); err == nil {
				if err := m.persistence.Save(data); err != nil {
					m.logger.Warn("failed to persist expired session", "session", sess.ID, "error", err)
				}
			}
		}
		sess.Close()
	}
	return len(expired)
}

// Count returns the number of active sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// generateSessionID generates a random 4-character session ID
func (m *Manager) generateSessionID() string {
	bytes := make([]byte, 2)
	for {
		rand.Read(bytes)
		id := hex.EncodeToString(bytes)

		m.mu.RLock()
		_, taken := m.sessions[id]
		m.mu.RUnlock()
		if !taken && (m.persistence == nil || !m.persistence.Exists(id)) {
			return id
		}
	}
}

// LoadPersistedSessions loads all persisted sessions into memory
func (m *Manager) LoadPersistedSessions() error {
	if m.persistence == nil {
		return nil
	}

	sessionIDs, err := m.persistence.ListAll()
	if err != nil {
		return fmt.Errorf("failed to list persisted sessions: %w", err)
	}

	loaded := 0
	for _, id := range sessionIDs {
		m.mu.RLock()
		_, exists := m.sessions[strings.ToLower(id)]
		m.mu.RUnlock()
		if exists {
			continue
		}
		if _, err := m.Get(id); err != nil {
			m.logger.Warn("failed to load persisted session", "session", id, "error", err)
			continue
		}
		loaded++
	}

	if loaded > 0 {
		m.logger.Info("loaded persisted sessions", "count", loaded)
	}
	return nil
}

// SaveAllSessions saves all in-memory sessions to persistence
func (m *Manager) SaveAllSessions(ctx context.Context) error {
	if m.persistence == nil {
		return nil
	}

	errorCount := 0
	for _, sess := range m.List() {
		if err := m.Save(ctx, sess.ID); err != nil {
			m.logger.Warn("failed to save session", "session", sess.ID, "error", err)
			errorCount++
		}
	}
	if errorCount > 0 {
		return fmt.Errorf("failed to save %d sessions", errorCount)
	}
	return nil
}

// Close saves every session and stops their dispatchers
func (m *Manager) Close(ctx context.Context) error {
	err := m.SaveAllSessions(ctx)

	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*service.Session)
	metrics.SessionsActive.Set(0)
	m.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
	}
	return err
}
