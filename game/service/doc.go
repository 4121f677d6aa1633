// Package service provides the business logic layer for the labyrinth game.
//
// The service package implements:
//   - Multi-session game management
//   - Turn commands (insert the spare, move a token) routed through each
//     session's dispatcher
//   - Player views of the game state
//   - Move history pagination
//   - Game metrics
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages game preset loading and validation.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the game engine. Each Session owns one engine through a dispatch.Dispatcher,
// so commands for the same game are applied one at a time while different
// games proceed in parallel.
//
// Usage:
//
//	sessionMgr := session.NewManager(logger)
//	configMgr := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr, logger)
//
//	info, err := gameService.CreateSession(ctx, "classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.InsertTile(ctx, info.ID, board.Player1,
//		board.Location{Col: 1, Row: 0}, board.Rotate90)
//
// Errors:
//
// Rejected commands return the engine or board sentinel errors
// (engine.ErrWrongPlayer, board.ErrNoPath, ...) unchanged so transports can
// classify them with errors.Is.
package service
