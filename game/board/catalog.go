package board

// Tile shapes, all at orientation 0
var (
	cornerRightDown = Tile{Openings: Openings{Right: true, Down: true}}
	cornerLeftDown  = Tile{Openings: Openings{Down: true, Left: true}}
	cornerLeftUp    = Tile{Openings: Openings{Up: true, Left: true}}
	cornerRightUp   = Tile{Openings: Openings{Up: true, Right: true}}
	teeLeft         = Tile{Openings: Openings{Up: true, Down: true, Left: true}}
	teeRight        = Tile{Openings: Openings{Up: true, Right: true, Down: true}}
	teeUp           = Tile{Openings: Openings{Up: true, Right: true, Left: true}}
	teeDown         = Tile{Openings: Openings{Right: true, Down: true, Left: true}}
	lineVertical    = Tile{Openings: Openings{Up: true, Down: true}}
)

// FixedTile is a tile glued to one board location for the whole game
type FixedTile struct {
	Location Location
	Tile     Tile
}

var fixedTiles = [16]FixedTile{
	{Location{0, 0}, cornerRightDown.withMarking(StartMarking(Player1))},
	{Location{2, 0}, teeDown.withMarking(ItemMarking(Goblet))},
	{Location{4, 0}, teeDown.withMarking(ItemMarking(Sword))},
	{Location{6, 0}, cornerLeftDown.withMarking(StartMarking(Player2))},
	{Location{0, 2}, teeRight.withMarking(ItemMarking(Sack))},
	{Location{2, 2}, teeRight.withMarking(ItemMarking(Keys))},
	{Location{4, 2}, teeDown.withMarking(ItemMarking(Gem))},
	{Location{6, 2}, teeLeft.withMarking(ItemMarking(Helmet))},
	{Location{0, 4}, teeRight.withMarking(ItemMarking(Book))},
	{Location{2, 4}, teeUp.withMarking(ItemMarking(Crown))},
	{Location{4, 4}, teeLeft.withMarking(ItemMarking(Chest))},
	{Location{6, 4}, teeLeft.withMarking(ItemMarking(Candle))},
	{Location{0, 6}, cornerRightUp.withMarking(StartMarking(Player3))},
	{Location{2, 6}, teeUp.withMarking(ItemMarking(Potion))},
	{Location{4, 6}, teeUp.withMarking(ItemMarking(Ring))},
	{Location{6, 6}, cornerLeftUp.withMarking(StartMarking(Player4))},
}

var freeTiles = func() [34]Tile {
	marked := []Tile{
		cornerRightDown.withMarking(ItemMarking(Spider)),
		teeUp.withMarking(ItemMarking(Ghost)),
		teeUp.withMarking(ItemMarking(Unicorn)),
		teeUp.withMarking(ItemMarking(Gnome)),
		cornerRightDown.withMarking(ItemMarking(Cat)),
		cornerRightDown.withMarking(ItemMarking(Owl)),
		teeUp.withMarking(ItemMarking(Genie)),
		cornerLeftDown.withMarking(ItemMarking(Mouse)),
		cornerRightDown.withMarking(ItemMarking(Lizard)),
		teeUp.withMarking(ItemMarking(Bat)),
		teeUp.withMarking(ItemMarking(Dragon)),
		cornerRightDown.withMarking(ItemMarking(Beetle)),
	}

	var tiles [34]Tile
	n := copy(tiles[:], marked)
	for i := 0; i < 12; i++ {
		tiles[n] = lineVertical
		n++
	}
	for n < len(tiles) {
		tiles[n] = cornerRightUp
		n++
	}
	return tiles
}()

// FixedTiles returns the 16 tiles bound to fixed locations
func FixedTiles() []FixedTile {
	out := make([]FixedTile, len(fixedTiles))
	copy(out, fixedTiles[:])
	return out
}

// FreeTiles returns the 34 tiles that circulate through the board and the spare slot
func FreeTiles() []Tile {
	out := make([]Tile, len(freeTiles))
	copy(out, freeTiles[:])
	return out
}

// IsFixed reports whether l holds a fixed tile
func IsFixed(l Location) bool {
	_, ok := fixedIndex[l]
	return ok
}

var fixedIndex = func() map[Location]Tile {
	index := make(map[Location]Tile, len(fixedTiles))
	for _, f := range fixedTiles {
		index[f.Location] = f.Tile
	}
	return index
}()

// StartLocation returns the location of p's start tile
func StartLocation(p Player) (Location, bool) {
	for _, f := range fixedTiles {
		if f.Tile.Marking.Kind == MarkStart && f.Tile.Marking.Player == p {
			return f.Location, true
		}
	}
	return Location{}, false
}

// tileCounts returns the canonical tile multiset
func tileCounts() map[Tile]int {
	counts := make(map[Tile]int, len(fixedTiles)+len(freeTiles))
	for _, f := range fixedTiles {
		counts[f.Tile]++
	}
	for _, t := range freeTiles {
		counts[t]++
	}
	return counts
}
