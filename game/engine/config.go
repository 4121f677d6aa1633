package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wricardo/mcp-training/labyrinth/game/board"
)

// ValidateGameConfig validates a game configuration for correctness and playability
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}

	// Validate required fields
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}

	// Validate players
	if len(config.Players) < MinPlayers || len(config.Players) > MaxPlayers {
		return fmt.Errorf("config validation: players must list between %d and %d players, got %d",
			MinPlayers, MaxPlayers, len(config.Players))
	}
	seen := make(map[board.Player]bool, len(config.Players))
	for _, p := range config.Players {
		if !p.Valid() {
			return fmt.Errorf("config validation: unknown player %d", int(p))
		}
		if seen[p] {
			return fmt.Errorf("config validation: %s listed twice", p)
		}
		seen[p] = true
	}
	if !seen[config.StartingPlayer] {
		return fmt.Errorf("config validation: starting_player %s is not playing", config.StartingPlayer)
	}

	// Validate format strings
	if config.Messages.ItemFound != "" && strings.Count(config.Messages.ItemFound, "%s") != 2 {
		return fmt.Errorf("config validation: messages.item_found must contain %%s for the player and the item")
	}
	if config.Messages.Victory != "" && strings.Count(config.Messages.Victory, "%s") != 1 {
		return fmt.Errorf("config validation: messages.victory must contain %%s for the winner")
	}

	return nil
}

// DefaultConfig returns the four player preset used when no preset is named
func DefaultConfig() *GameConfig {
	config := &GameConfig{
		Name:           "classic",
		Description:    "Four players hunt six treasures each through the shifting maze",
		Players:        board.AllPlayers[:],
		StartingPlayer: board.Player1,
	}
	config.Messages.Welcome = "Welcome to the labyrinth! Slide the spare tile in, then walk the paths to your treasure."
	config.Messages.ItemFound = "%s found the %s!"
	config.Messages.Victory = "%s collected every treasure and made it home!"
	return config
}

// withDefaults fills the optional messages of config
func withDefaults(config *GameConfig) *GameConfig {
	c := *config
	c.Players = append([]board.Player(nil), config.Players...)
	defaults := DefaultConfig()
	if c.Messages.Welcome == "" {
		c.Messages.Welcome = defaults.Messages.Welcome
	}
	if c.Messages.ItemFound == "" {
		c.Messages.ItemFound = defaults.Messages.ItemFound
	}
	if c.Messages.Victory == "" {
		c.Messages.Victory = defaults.Messages.Victory
	}
	return &c
}

// DecodeGameConfig parses a preset. Files ending in .yaml or .yml are read as
// YAML, everything else as JSON.
func DecodeGameConfig(filename string, data []byte) (*GameConfig, error) {
	var config GameConfig
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	}
	return &config, nil
}

// LoadGameConfig loads and validates a game configuration file
func LoadGameConfig(filename string) (*GameConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	config, err := DecodeGameConfig(filename, data)
	if err != nil {
		return nil, err
	}

	// Validate the loaded configuration
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}
