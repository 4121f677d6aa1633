// Package config provides preset management for the labyrinth game.
//
// The config package handles:
//   - Loading game presets from JSON or YAML files
//   - Preset validation
//   - Default preset selection
//   - Preset discovery and listing
//
// Preset Format:
//
// Presets live in the configs directory as .json, .yaml or .yml files. The
// file name without its extension is the preset ID. Each preset defines the
// participating players, who moves first, an optional seed that fixes the
// board layout and card deal, and the messages shown for game events.
//
// Available Presets:
//   - classic: all four players (the default)
//   - duel: two players facing each other from opposite corners
//   - trio: three players, seeded for a reproducible board
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameConfig, err := manager.LoadConfig("duel")
//	if errors.Is(err, config.ErrConfigNotFound) {
//		gameConfig = manager.GetDefault()
//	}
//
// When no classic preset exists the first valid preset becomes the default,
// and an empty directory falls back to engine.DefaultConfig.
package config
