// Command autoplay plays every seat of a labyrinth session through the REST
// API until somebody wins. Each turn it tries every insertion on a copy of
// the board and walks the token as close to its target as it can get.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/labyrinth/game/board"
	"github.com/wricardo/mcp-training/labyrinth/game/service"
)

const sessionFile = ".session"

// Options controls a game
type Options struct {
	MaxTurns int
	Delay    time.Duration
}

// Result summarizes a finished or abandoned game
type Result struct {
	Turns      int
	ItemsFound int
	Winner     board.Player
}

func main() {
	cmd := &cli.Command{
		Name:  "autoplay",
		Usage: "Play a labyrinth session against itself",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "game server URL", Sources: cli.EnvVars("API_URL")},
			&cli.StringFlag{Name: "config", Usage: "preset to create the session from (default preset when empty)"},
			&cli.StringFlag{Name: "continue", Usage: "resume playing an existing session by ID"},
			&cli.IntFlag{Name: "max-turns", Value: 500, Usage: "give up after this many turns"},
			&cli.DurationFlag{Name: "delay", Usage: "pause between turns"},
			&cli.BoolFlag{Name: "v", Usage: "verbose output"},
		},
		Action: run,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	level := slog.LevelInfo
	if cmd.Bool("v") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	serverURL := cmd.String("url")
	logger.Info("connecting to game server", "url", serverURL)
	client := NewClient(serverURL)

	sessionID := cmd.String("continue")
	if sessionID == "" {
		if data, err := os.ReadFile(sessionFile); err == nil {
			sessionID = string(bytes.TrimSpace(data))
		}
	}

	var session *service.SessionInfo
	var err error
	if sessionID != "" {
		session, err = client.Resume(ctx, sessionID)
		if err != nil {
			logger.Warn("failed to resume session, creating a new one", "session", sessionID, "error", err)
		} else {
			logger.Info("resuming session", "session", session.ID)
			if _, err := client.Reset(ctx); err != nil {
				return err
			}
		}
	}
	if session == nil {
		session, err = client.CreateSession(ctx, cmd.String("config"))
		if err != nil {
			return err
		}
		logger.Info("session created", "session", session.ID, "config", session.ConfigName)
		if err := os.WriteFile(sessionFile, []byte(session.ID), 0644); err != nil {
			logger.Warn("failed to save session ID", "error", err)
		}
	}

	opts := Options{MaxTurns: cmd.Int("max-turns"), Delay: cmd.Duration("delay")}
	result, err := Play(ctx, client, opts, logger)
	if err != nil {
		return err
	}

	if result.Winner == board.NoPlayer {
		return fmt.Errorf("no winner after %d turns (%d items found), session %s", result.Turns, result.ItemsFound, session.ID)
	}
	logger.Info("victory", "winner", result.Winner, "turns", result.Turns, "items_found", result.ItemsFound, "session", session.ID)
	return nil
}

// Play takes turns for whoever is up until the game ends, ctx is cancelled or
// opts.MaxTurns turns have been played.
func Play(ctx context.Context, client *Client, opts Options, logger *slog.Logger) (Result, error) {
	var result Result
	strategy := &Strategy{}

	session, err := client.Resume(ctx, client.sessionID)
	if err != nil {
		return result, err
	}
	if session.GameState == nil {
		return result, errors.New("session has no game state")
	}
	current := session.GameState.CurrentPlayer
	if session.GameState.GameOver {
		result.Winner = session.GameState.Winner
		return result, nil
	}

	for result.Turns < opts.MaxTurns {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		state, err := client.State(ctx, current)
		if err != nil {
			return result, err
		}
		turn, err := strategy.Plan(state, current)
		if err != nil {
			return result, err
		}

		if _, err := client.Insert(ctx, current, turn.Insert, turn.Orientation); err != nil {
			return result, err
		}
		moved, err := client.Move(ctx, current, turn.MoveTo)
		if err != nil {
			return result, err
		}
		result.Turns++

		for _, event := range moved.Events {
			if event.Type == "item_found" {
				result.ItemsFound++
				logger.Info("item found", "player", current, "message", event.Message)
			}
		}
		logger.Debug("turn", "n", result.Turns, "player", current,
			"insert", turn.Insert, "orientation", turn.Orientation, "move", turn.MoveTo, "distance_left", turn.Distance)

		if moved.GameState.GameOver {
			result.Winner = moved.GameState.Winner
			return result, nil
		}
		current = moved.GameState.CurrentPlayer

		if opts.Delay > 0 {
			time.Sleep(opts.Delay)
		}
	}
	return result, nil
}
