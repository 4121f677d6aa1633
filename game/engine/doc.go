// Package engine provides the turn rules of the labyrinth game.
//
// The engine package wraps a board.Grid with everything the board itself
// does not know about:
//   - Turn order and the two phases of a turn (insert the spare, then move)
//   - Dealing item cards and turning them over when found
//   - The victory condition
//   - Move history and game state snapshots
//   - Configuration loading and validation
//
// Core Types:
//
// The Engine interface defines the main contract for game operations,
// implemented by GameEngine. GameState is the serializable snapshot, while
// GameConfig is a preset loaded from a JSON or YAML file.
//
// Usage:
//
//	config, err := engine.LoadGameConfig("configs/classic.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine, err := engine.NewEngine(config, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	err = gameEngine.InsertTile(board.Player1, board.Location{Col: 1, Row: 0}, board.Rotate90)
//	err = gameEngine.MovePlayer(board.Player1, board.Location{Col: 0, Row: 1})
//	state, _ := gameEngine.StateFor(board.Player2)
//
// Game Rules:
//
// On their turn a player slides the spare tile into one of the twelve entry
// points, then walks their token to any location a path connects it to
// (possibly staying put). Landing on the item of their current card turns the
// card over. The first player to find all their items and return to their
// start tile wins.
package engine
