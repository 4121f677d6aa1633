// Package board implements the sliding maze at the heart of the labyrinth game.
//
// The board is a 7x7 grid of path-bearing tiles plus one spare tile held off
// the board. The package covers:
//   - Tile geometry: openings, markings and the four orientations
//   - The grid store: construction of a random legal layout and read access
//   - Connectivity: which locations are joined by paths
//   - Insertion: sliding the spare into a row or column
//   - Movement: relocating a player token along a path
//
// Core Types:
//
// Grid owns the tiles and tokens and is the only thing that mutates.
// Components is a disposable connectivity snapshot derived from a Grid; it
// refuses to answer once the Grid has changed, so callers build a fresh one
// after every InsertSpare or MoveToken.
//
// Usage:
//
//	rng := rand.New(rand.NewPCG(seed, seed))
//	g, err := board.New(rng, []board.Player{board.Player1, board.Player2})
//	if err != nil {
//		return err
//	}
//
//	if err := g.InsertSpare(board.Location{Col: 1, Row: 0}, board.Rotate90); err != nil {
//		return err
//	}
//	if err := g.MoveToken(board.Player1, board.Location{Col: 0, Row: 1}); err != nil {
//		// errors.Is(err, board.ErrNoPath) when no path joins the two cells
//	}
//
// The package does no locking and no logging. Callers that share a Grid
// between goroutines must serialize access themselves.
package board
