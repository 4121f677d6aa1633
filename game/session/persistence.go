package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wricardo/mcp-training/labyrinth/game/engine"
)

// SessionPersistence defines the interface for persisting sessions
type SessionPersistence interface {
	// Save persists a session snapshot to storage
	Save(data *PersistedSessionData) error

	// Load retrieves a session snapshot from storage by ID
	Load(id string) (*PersistedSessionData, error)

	// Delete removes a session from storage
	Delete(id string) error

	// ListAll returns all persisted session IDs
	ListAll() ([]string, error)

	// Exists checks if a session exists in storage
	Exists(id string) bool
}

// PersistedSessionData represents the JSON structure for persisted sessions.
// The config travels with the state so a session survives its preset file
// being edited or removed.
type PersistedSessionData struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	Config         *engine.GameConfig `json:"config"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *engine.GameState  `json:"game_state"`
}

var errNilSession = errors.New("session cannot be nil")

// sessionKey normalizes an ID the way Manager looks sessions up
func sessionKey(id string) string {
	return strings.ToLower(id)
}

func encodeSession(data *PersistedSessionData, indent bool) ([]byte, error) {
	if data == nil {
		return nil, errNilSession
	}
	var raw []byte
	var err error
	if indent {
		raw, err = json.MarshalIndent(data, "", "  ")
	} else {
		raw, err = json.Marshal(data)
	}
	if err != nil {
		return nil, fmt.Errorf("encode session %s: %w", data.ID, err)
	}
	return raw, nil
}

func decodeSession(id string, raw []byte) (*PersistedSessionData, error) {
	var data PersistedSessionData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &data, nil
}
