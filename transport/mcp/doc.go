// Package mcp exposes the labyrinth REST API as Model Context Protocol tools.
//
// The Client translates tool calls into HTTP requests against a running API
// server and renders the responses as text an agent can read, including an
// ASCII drawing of the board.
//
// Tools:
//   - create_session, list_sessions, get_session: session management
//   - list_configs: available presets
//   - game_state: the board as one player (or a spectator) sees it
//   - insert_tile: slide the spare tile in at an edge location
//   - move_player: walk a token along open paths
//   - reachable: every location a token can walk to right now
//   - reset_game: deal a new game in the same session
//   - move_history: paginated history, rejected commands included
//   - game_instructions: rules and tips
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080", logger)
//	server.ServeStdio(client.GetMCPServer())
//
// The same MCPServer can be mounted over streamable HTTP with
// server.NewStreamableHTTPServer.
package mcp
