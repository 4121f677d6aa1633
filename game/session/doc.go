// Package session provides session management for the labyrinth game server.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - Starting and stopping each session's command dispatcher
//   - Session cleanup and expiration
//   - Persistence to JSON files or a BadgerDB store
//
// Core Types:
//
// Manager is the main session manager that handles all session operations.
// It hands out service.Session values, each of which owns a running
// dispatch.Dispatcher. SessionPersistence is implemented by FilePersistence
// and BadgerPersistence.
//
// Session Identifiers:
//
// Generated IDs are 4 hex characters. Lookups are case-insensitive.
//
// Persistence:
//
// A persisted session is the complete engine snapshot (every player's cards
// included) together with the preset it was created from. Snapshots are taken
// on the session's dispatcher so they never observe half of a command. A
// session that is not in memory is restored from persistence on first access.
//
// Usage:
//
//	store, err := session.NewFilePersistence("sessions")
//	if err != nil {
//		log.Fatal(err)
//	}
//	manager := session.NewManagerWithPersistence(store, logger)
//	defer manager.Close(ctx)
//
//	sess, err := manager.Create("", "classic", config)
//	state, err := sess.View(ctx, board.Player1)
package session
