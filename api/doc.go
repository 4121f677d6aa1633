// Package api provides the HTTP REST API for the labyrinth game server.
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create a session ({"config_id": "duel"}, empty for the default preset)
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N&config=ID)
//   - GET /api/sessions/{id} - Get a session with its spectator view
//   - DELETE /api/sessions/{id} - Delete a session and its persisted copy
//
// Game Operations:
//   - GET /api/sessions/{id}/state?player=player1 - State as a player sees it (no player: spectator)
//   - POST /api/sessions/{id}/insert - Slide the spare tile in
//   - POST /api/sessions/{id}/move - Walk a token along a path
//   - GET /api/sessions/{id}/reachable?player=player1 - Locations the token can walk to
//   - POST /api/sessions/{id}/reset - Deal a new game in the same session
//   - GET /api/sessions/{id}/history - Paginated command history (?page&limit&order)
//
// Configuration:
//   - GET /api/configs - List presets
//   - GET /api/configs/{name} - Get one preset
//   - POST /api/configs - Save a preset
//
// Other:
//   - GET /ws?session={id}&player=player1 - Live state over a websocket
//   - GET /health
//   - GET /metrics - Prometheus metrics
//
// Request Format:
//
// Players are written "player1".."player4" (or "1".."4"), locations as
// {"col": 0, "row": 1} and orientations as clockwise degrees:
//
//	POST /api/sessions/a1b2/insert
//	{"player": "player1", "location": {"col": 3, "row": 0}, "orientation": 90}
//
//	POST /api/sessions/a1b2/move
//	{"player": "player1", "to": {"col": 3, "row": 2}}
//
// Error Handling:
//
// Errors are returned as {"error": "message"}. Unknown sessions and presets
// are 404, commands out of turn or phase (or after the game ended) are 409,
// players that are not in the game get 403, and commands the board rejects
// (bad location, tile opening off the edge, no path) are 400. Rejected
// commands are still recorded in the move history.
package api
