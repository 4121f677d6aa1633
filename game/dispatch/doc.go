// Package dispatch serializes all access to one game.
//
// Each game session runs a Dispatcher goroutine that owns the session's
// engine. Player commands arrive as Requests on a channel and are applied
// strictly one after another, so at most one board mutation is ever in flight
// and no connectivity query can interleave with an insertion. Reads that need
// a consistent view of the engine (snapshots for persistence, history) are
// submitted with Do and run on the same goroutine.
//
// Usage:
//
//	d := dispatch.New(gameEngine, logger)
//	go d.Run(ctx)
//
//	state, err := d.Execute(ctx, board.Player1, dispatch.Command{
//		Kind:        dispatch.InsertTile,
//		Location:    board.Location{Col: 1, Row: 0},
//		Orientation: board.Rotate90,
//	})
package dispatch
