// Command validate checks the game presets (JSON or YAML) in a directory.
// For each preset it checks:
//   - the file parses and the required fields are present
//   - the player list and the starting player are consistent
//   - message templates carry the right placeholders
//   - a game can be dealt from it
//   - a seeded preset deals the same board every time
//
// It also reports how far the starting player can walk on the first board.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/labyrinth/game/board"
	"github.com/wricardo/mcp-training/labyrinth/game/config"
	"github.com/wricardo/mcp-training/labyrinth/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// Info holds what was learned about a valid preset.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
	Info   []string
}

func (r *ValidationResult) fail(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...any) {
	r.Info = append(r.Info, fmt.Sprintf(format, args...))
}

// validateConfig loads and validates a single preset file
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:  filepath.Base(filePath),
		Valid: true,
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	cfg, err := engine.DecodeGameConfig(filePath, data)
	if err != nil {
		result.fail("Invalid preset: %v", err)
		return result
	}

	if err := engine.ValidateGameConfig(cfg); err != nil {
		result.fail("%v", err)
		return result
	}

	if cfg.Messages.Welcome == "" {
		result.info("• No welcome message, the default is used")
	}

	eng, err := engine.NewEngine(cfg, nil)
	if err != nil {
		result.fail("Cannot deal a game: %v", err)
		return result
	}

	if cfg.Seed != nil {
		again, err := engine.NewEngine(cfg, nil)
		if err != nil {
			result.fail("Cannot deal a game: %v", err)
			return result
		}
		if !sameDeal(eng, again) {
			result.fail("Seed %d deals different boards", *cfg.Seed)
			return result
		}
	}

	result.info("✓ Name: %s", cfg.Name)
	result.info("✓ Players: %s, %s starts", joinPlayers(cfg.Players), cfg.StartingPlayer)
	if cfg.Seed != nil {
		result.info("✓ Seed: %d (reproducible)", *cfg.Seed)
	} else {
		result.info("✓ Seed: none (a new board every game)")
	}

	if from, ok := eng.Position(cfg.StartingPlayer); ok {
		reachable, err := eng.Reachable(from)
		if err != nil {
			result.fail("Connectivity check failed: %v", err)
			return result
		}
		result.info("✓ First board: %s can reach %d locations from %s", cfg.StartingPlayer, len(reachable), from)
	}
	return result
}

// sameDeal reports whether two engines dealt the same board and cards
func sameDeal(a, b *engine.GameEngine) bool {
	sa, err := a.StateFor(board.NoPlayer)
	if err != nil {
		return false
	}
	sb, err := b.StateFor(board.NoPlayer)
	if err != nil {
		return false
	}
	return reflect.DeepEqual(sa.Board, sb.Board) && reflect.DeepEqual(sa.Spare, sb.Spare)
}

func joinPlayers(players []board.Player) string {
	names := make([]string, len(players))
	for i, p := range players {
		names[i] = p.String()
	}
	return strings.Join(names, ", ")
}

// presetFiles lists the preset files in dir, sorted
func presetFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if !entry.IsDir() && slices.Contains(config.Extensions, ext) {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	slices.Sort(files)
	return files, nil
}

// validateDir validates every preset in dir and writes a report to w. It
// returns false if any preset is invalid.
func validateDir(w io.Writer, dir string) (bool, error) {
	files, err := presetFiles(dir)
	if err != nil {
		return false, fmt.Errorf("error finding preset files: %w", err)
	}
	if len(files) == 0 {
		return false, fmt.Errorf("no presets found in %s", dir)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)
		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, info := range result.Info {
				fmt.Fprintln(w, "  "+info)
			}
		} else {
			fmt.Fprintln(w, "❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				fmt.Fprintln(w, "  ❌ "+err)
			}
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Fprintln(w, "✅ All presets are valid!")
	} else {
		fmt.Fprintln(w, "❌ Some presets have errors")
	}
	return allValid, nil
}

// main validates the preset directory, exiting with non-zero status if any
// preset is invalid.
func main() {
	cmd := &cli.Command{
		Name:  "validate",
		Usage: "Validate game presets",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				Value:   "../configs",
				Usage:   "directory containing presets",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ok, err := validateDir(os.Stdout, cmd.String("dir"))
			if err != nil {
				return err
			}
			if !ok {
				return cli.Exit("", 1)
			}
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
