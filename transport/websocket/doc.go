// Package websocket pushes live game state to browser and bot clients.
//
// A central Hub owns the client sets of every session on a single goroutine.
// Each connection gets a read pump, which only watches for the peer going
// away, and a write pump that forwards queued messages and keeps the
// connection alive with pings.
//
// Viewers:
//
// A client connects as one player of the session or as a spectator. After
// every accepted command the API calls BroadcastState, which builds one view
// per participant plus the spectator view, so no client ever receives another
// player's current card. Clients whose player is not in the game get the
// spectator view.
//
// Message Protocol:
//
// Clients receive one JSON Message per frame:
//
//	{"session_id": "a1b2", "viewer": "player2", "event": "state_update", "game_state": {...}}
//
// Custom events (item_found, victory) carry Data instead of a game state.
//
// Usage:
//
//	hub := websocket.NewHub(logger)
//	go hub.Run(ctx)
//
//	hub.ServeWS(w, r, sessionID, board.Player1, nil)
//	hub.BroadcastState(sessionID, config.Players, view)
//
// Slow clients whose buffer fills up are disconnected.
package websocket
