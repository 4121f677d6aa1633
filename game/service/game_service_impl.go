package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/wricardo/mcp-training/labyrinth/game/board"
	"github.com/wricardo/mcp-training/labyrinth/game/dispatch"
	"github.com/wricardo/mcp-training/labyrinth/game/engine"
	"github.com/wricardo/mcp-training/labyrinth/metrics"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrConfigNotFound  = errors.New("configuration not found")
)

// gameServiceImpl implements the GameService interface. Sessions serialize
// their own commands, so the service holds no lock of its own.
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	logger   *slog.Logger
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, logger *slog.Logger) GameService {
	if logger == nil {
		logger = slog.Default()
	}
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		logger:   logger,
	}
}

// getConfigID returns the config_id for a given display name
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

func (s *gameServiceImpl) session(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	if err := s.sessions.UpdateLastAccessed(sessionID); err != nil {
		s.logger.Warn("failed to update session access time", "session", sessionID, "error", err)
	}
	return sess, nil
}

func (s *gameServiceImpl) info(ctx context.Context, sess *Session) (*SessionInfo, error) {
	state, err := sess.View(ctx, board.NoPlayer)
	if err != nil {
		return nil, err
	}
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     sess.ConfigID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt(),
		GameState:      state,
		GameConfig:     sess.Config,
	}, nil
}

// save persists the session after a change. Failures are logged, the change
// itself already happened.
func (s *gameServiceImpl) save(ctx context.Context, sessionID string) {
	if err := s.sessions.Save(ctx, sessionID); err != nil {
		metrics.PersistenceErrors.WithLabelValues("save").Inc()
		s.logger.Warn("failed to persist session", "session", sessionID, "error", err)
	}
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	var config *engine.GameConfig
	configID := configName
	if configName != "" {
		var err error
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			if errors.Is(err, ErrConfigNotFound) {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("config '%s': %w. Available configs: %v", configName, ErrConfigNotFound, configIDs)
				}
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
		configID = s.getConfigID(config.Name)
	}

	sess, err := s.sessions.Create("", configID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	metrics.SessionsCreated.WithLabelValues(configID).Inc()
	s.logger.Info("session created", "session", sess.ID, "config", configID, "players", config.Players)

	return s.info(ctx, sess)
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return s.info(ctx, sess)
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		info, err := s.info(ctx, sess)
		if err != nil {
			// Deleted while listing.
			if errors.Is(err, dispatch.ErrStopped) {
				continue
			}
			return nil, err
		}
		result = append(result, info)
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("session %s: %w", sessionID, err)
	}
	s.logger.Info("session deleted", "session", sessionID)
	return nil
}

// execute runs one player command and records its outcome
func (s *gameServiceImpl) execute(ctx context.Context, sess *Session, player board.Player, cmd dispatch.Command) (*engine.GameState, error) {
	action := string(cmd.Kind)
	start := time.Now()
	state, err := sess.Execute(ctx, player, cmd)
	metrics.CommandDuration.WithLabelValues(action).Observe(time.Since(start).Seconds())
	metrics.Commands.WithLabelValues(action, resultLabel(err)).Inc()

	if err != nil {
		s.logger.Debug("command rejected", "session", sess.ID, "player", player, "command", cmd, "error", err)
		// Rejected commands are still recorded in the history.
		if !errors.Is(err, engine.ErrNotParticipating) {
			s.save(ctx, sess.ID)
		}
		return nil, err
	}
	s.logger.Debug("command applied", "session", sess.ID, "player", player, "command", cmd)
	s.save(ctx, sess.ID)
	return state, nil
}

// InsertTile slides the spare tile in for player
func (s *gameServiceImpl) InsertTile(ctx context.Context, sessionID string, player board.Player, at board.Location, o board.Orientation) (*ActionResult, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	state, err := s.execute(ctx, sess, player, dispatch.Command{
		Kind:        dispatch.InsertTile,
		Location:    at,
		Orientation: o,
	})
	if err != nil {
		return nil, err
	}

	msg := fmt.Sprintf("%s inserted the spare at %s rotated %s", player, at, o)
	if out, err := board.PushOut(at); err == nil {
		msg += fmt.Sprintf(", pushing out the tile at %s", out)
	}
	return &ActionResult{
		Success:   true,
		GameState: state,
		Message:   state.Message,
		Events: []GameEvent{{
			Type:      "tile_inserted",
			Message:   msg,
			Timestamp: time.Now(),
			Player:    player,
			Location:  &at,
		}},
	}, nil
}

// MovePlayer walks player's token to to
func (s *gameServiceImpl) MovePlayer(ctx context.Context, sessionID string, player board.Player, to board.Location) (*ActionResult, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	state, err := s.execute(ctx, sess, player, dispatch.Command{
		Kind:     dispatch.MovePlayer,
		Player:   player,
		Location: to,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	events := []GameEvent{{
		Type:      "player_moved",
		Message:   fmt.Sprintf("%s moved to %s", player, to),
		Timestamp: now,
		Player:    player,
		Location:  &to,
	}}

	if n := len(state.MoveHistory); n > 0 {
		if last := state.MoveHistory[n-1]; last.ItemFound != nil {
			metrics.ItemsFound.Inc()
			events = append(events, GameEvent{
				Type:      "item_found",
				Message:   fmt.Sprintf("%s found the %s", player, *last.ItemFound),
				Timestamp: now,
				Player:    player,
				Location:  &to,
			})
		}
	}
	if state.GameOver {
		metrics.GamesWon.Inc()
		s.logger.Info("game won", "session", sess.ID, "winner", state.Winner, "moves", state.TotalMoves)
		events = append(events, GameEvent{
			Type:      "victory",
			Message:   state.Message,
			Timestamp: now,
			Player:    state.Winner,
		})
	}

	return &ActionResult{
		Success:   true,
		GameState: state,
		Message:   state.Message,
		Events:    events,
	}, nil
}

// Reset deals a new game in the session. The move history is kept.
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	var state *engine.GameState
	err = sess.Do(ctx, func(e *engine.GameEngine) error {
		if err := e.Reset(nil); err != nil {
			return err
		}
		spectator, err := e.StateFor(board.NoPlayer)
		state = spectator
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reset session %s: %w", sessionID, err)
	}

	s.logger.Info("session reset", "session", sessionID)
	s.save(ctx, sessionID)
	return state, nil
}

// GetGameState returns the state as viewer sees it
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string, viewer board.Player) (*engine.GameState, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.View(ctx, viewer)
}

// GetReachable returns every location player's token can walk to
func (s *gameServiceImpl) GetReachable(ctx context.Context, sessionID string, player board.Player) (*ReachableResult, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	result := &ReachableResult{Player: player}
	err = sess.Do(ctx, func(e *engine.GameEngine) error {
		from, ok := e.Position(player)
		if !ok {
			return fmt.Errorf("%w: %s", engine.ErrNotParticipating, player)
		}
		locations, err := e.Reachable(from)
		if err != nil {
			return err
		}
		result.From = from
		result.Locations = locations
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	var history []engine.MoveHistoryEntry
	err = sess.Do(ctx, func(e *engine.GameEngine) error {
		history = e.GetMoveHistory()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paginate(history, opts), nil
}

// paginate slices history into one page
func paginate(history []engine.MoveHistoryEntry, opts HistoryOptions) *HistoryResponse {
	total := len(history)

	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := min((opts.Page-1)*opts.Limit, total)
	end := min(start+opts.Limit, total)

	moves := make([]engine.MoveHistoryEntry, 0, end-start)
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= total-end; i-- {
			moves = append(moves, history[i])
		}
	} else {
		moves = append(moves, history[start:end]...)
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}
}

// ListConfigs returns available game configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific game configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a game configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}

// resultLabel classifies a command outcome for metrics
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, engine.ErrWrongPlayer):
		return "wrong_player"
	case errors.Is(err, engine.ErrWrongPhase):
		return "wrong_phase"
	case errors.Is(err, engine.ErrGameOver):
		return "game_over"
	case errors.Is(err, engine.ErrNotParticipating):
		return "not_participating"
	case errors.Is(err, board.ErrInvalidLocation):
		return "invalid_location"
	case errors.Is(err, board.ErrInvalidPlacement):
		return "invalid_placement"
	case errors.Is(err, board.ErrNoPath):
		return "no_path"
	case errors.Is(err, board.ErrTokenNotFound):
		return "token_not_found"
	default:
		return "error"
	}
}
