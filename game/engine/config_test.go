package engine

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wricardo/mcp-training/labyrinth/game/board"
)

func createValidConfig() *GameConfig {
	config := &GameConfig{
		Name:           "Test Config",
		Description:    "A valid test configuration",
		Players:        []board.Player{board.Player1, board.Player3},
		StartingPlayer: board.Player3,
	}
	config.Messages.Welcome = "Welcome to the test game!"
	config.Messages.ItemFound = "%s found the %s"
	config.Messages.Victory = "%s wins"
	return config
}

func TestValidateGameConfig(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*GameConfig)
		wantErr string
	}{
		{
			name:   "valid config",
			modify: func(c *GameConfig) {},
		},
		{
			name:    "missing name",
			modify:  func(c *GameConfig) { c.Name = "" },
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			modify:  func(c *GameConfig) { c.Description = "" },
			wantErr: "description is required",
		},
		{
			name:    "no players",
			modify:  func(c *GameConfig) { c.Players = nil },
			wantErr: "players must list between",
		},
		{
			name: "too many players",
			modify: func(c *GameConfig) {
				c.Players = []board.Player{board.Player1, board.Player2, board.Player3, board.Player4, board.Player1}
			},
			wantErr: "players must list between",
		},
		{
			name:    "duplicate player",
			modify:  func(c *GameConfig) { c.Players = []board.Player{board.Player3, board.Player3} },
			wantErr: "listed twice",
		},
		{
			name:    "unknown player",
			modify:  func(c *GameConfig) { c.Players = []board.Player{board.Player3, board.Player(7)} },
			wantErr: "unknown player",
		},
		{
			name:    "starting player not playing",
			modify:  func(c *GameConfig) { c.StartingPlayer = board.Player2 },
			wantErr: "starting_player",
		},
		{
			name:    "item found message without placeholders",
			modify:  func(c *GameConfig) { c.Messages.ItemFound = "found it" },
			wantErr: "messages.item_found",
		},
		{
			name:    "victory message without placeholder",
			modify:  func(c *GameConfig) { c.Messages.Victory = "someone won" },
			wantErr: "messages.victory",
		},
		{
			name: "messages are optional",
			modify: func(c *GameConfig) {
				c.Messages.Welcome = ""
				c.Messages.ItemFound = ""
				c.Messages.Victory = ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := createValidConfig()
			tt.modify(config)

			err := ValidateGameConfig(config)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected no error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestValidateNilConfig(t *testing.T) {
	if err := ValidateGameConfig(nil); err == nil {
		t.Error("Expected error for nil config")
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	if err := ValidateGameConfig(DefaultConfig()); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}
}

func TestLoadGameConfig(t *testing.T) {
	dir := t.TempDir()

	jsonConfig := `{
		"name": "duel",
		"description": "Two players",
		"players": ["player1", "player2"],
		"starting_player": "player2",
		"seed": 7
	}`
	yamlConfig := `
name: trio
description: Three players
players: [player1, player2, "4"]
starting_player: player4
messages:
  victory: "%s escaped the maze"
`
	if err := os.WriteFile(filepath.Join(dir, "duel.json"), []byte(jsonConfig), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "trio.yaml"), []byte(yamlConfig), 0644); err != nil {
		t.Fatal(err)
	}

	duel, err := LoadGameConfig(filepath.Join(dir, "duel.json"))
	if err != nil {
		t.Fatalf("Failed to load JSON config: %v", err)
	}
	if duel.StartingPlayer != board.Player2 || len(duel.Players) != 2 {
		t.Errorf("Unexpected players in duel config: %+v", duel)
	}
	if duel.Seed == nil || *duel.Seed != 7 {
		t.Errorf("Expected seed 7, got %v", duel.Seed)
	}

	trio, err := LoadGameConfig(filepath.Join(dir, "trio.yaml"))
	if err != nil {
		t.Fatalf("Failed to load YAML config: %v", err)
	}
	want := []board.Player{board.Player1, board.Player2, board.Player4}
	if len(trio.Players) != len(want) {
		t.Fatalf("Expected %d players, got %d", len(want), len(trio.Players))
	}
	for i := range want {
		if trio.Players[i] != want[i] {
			t.Errorf("Player %d: expected %s, got %s", i, want[i], trio.Players[i])
		}
	}
	if trio.Messages.Victory != "%s escaped the maze" {
		t.Errorf("Unexpected victory message %q", trio.Messages.Victory)
	}

	if _, err := LoadGameConfig(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestLoadGameConfigRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.json")
	if err := os.WriteFile(path, []byte(`{"name": "broken", "description": "no players"}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadGameConfig(path); err == nil {
		t.Error("Expected validation error")
	}

	if err := os.WriteFile(path, []byte(`{not json`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadGameConfig(path); err == nil {
		t.Error("Expected parse error")
	}
}
