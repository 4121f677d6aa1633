package board

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Openings records which sides of a tile have a path leading out of it
type Openings struct {
	Up    bool `json:"up"`
	Right bool `json:"right"`
	Down  bool `json:"down"`
	Left  bool `json:"left"`
}

// Has reports whether the side facing d is open
func (o Openings) Has(d Direction) bool {
	switch d {
	case Up:
		return o.Up
	case Right:
		return o.Right
	case Down:
		return o.Down
	case Left:
		return o.Left
	}
	return false
}

// Count returns the number of open sides
func (o Openings) Count() int {
	n := 0
	for _, d := range Directions {
		if o.Has(d) {
			n++
		}
	}
	return n
}

// rotateClockwise turns the openings a quarter turn: left becomes up,
// up becomes right, right becomes down and down becomes left.
func (o Openings) rotateClockwise() Openings {
	return Openings{
		Up:    o.Left,
		Right: o.Up,
		Down:  o.Right,
		Left:  o.Down,
	}
}

// Orientation is a clockwise rotation in quarter turns
type Orientation int

const (
	Rotate0 Orientation = iota
	Rotate90
	Rotate180
	Rotate270
)

// Orientations lists the four rotations in clockwise order
var Orientations = [4]Orientation{Rotate0, Rotate90, Rotate180, Rotate270}

// ParseOrientation converts a clockwise angle in degrees to an Orientation
func ParseOrientation(degrees int) (Orientation, error) {
	if degrees < 0 || degrees%90 != 0 || degrees >= 360 {
		return Rotate0, fmt.Errorf("orientation must be one of 0, 90, 180, 270 degrees, got %d", degrees)
	}
	return Orientation(degrees / 90), nil
}

// Valid reports whether o is one of the four rotations
func (o Orientation) Valid() bool {
	return o >= Rotate0 && o <= Rotate270
}

// Degrees returns the clockwise rotation angle
func (o Orientation) Degrees() int {
	return int(o) * 90
}

// Next returns the orientation a further 90 degrees clockwise
func (o Orientation) Next() Orientation {
	return (o + 1) % 4
}

func (o Orientation) String() string {
	return fmt.Sprintf("%d°", o.Degrees())
}

// MarshalJSON encodes the orientation as degrees
func (o Orientation) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.Degrees())
}

// UnmarshalJSON decodes an orientation from degrees
func (o *Orientation) UnmarshalJSON(data []byte) error {
	var degrees int
	if err := json.Unmarshal(data, &degrees); err != nil {
		return err
	}
	parsed, err := ParseOrientation(degrees)
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// EffectiveOpenings applies an orientation to a tile's raw openings
func EffectiveOpenings(t Tile, o Orientation) Openings {
	openings := t.Openings
	for i := Orientation(0); i < o%4; i++ {
		openings = openings.rotateClockwise()
	}
	return openings
}

// Item is a collectible treasure printed on a tile
type Item int

const (
	Chest Item = iota + 1
	Gnome
	Dragon
	Unicorn
	Ghost
	Candle
	Cat
	Keys
	Book
	Spider
	Crown
	Sword
	Goblet
	Mouse
	Ring
	Potion
	Beetle
	Owl
	Gem
	Genie
	Bat
	Sack
	Helmet
	Lizard
)

var itemNames = [...]string{
	Chest:   "chest",
	Gnome:   "gnome",
	Dragon:  "dragon",
	Unicorn: "unicorn",
	Ghost:   "ghost",
	Candle:  "candle",
	Cat:     "cat",
	Keys:    "keys",
	Book:    "book",
	Spider:  "spider",
	Crown:   "crown",
	Sword:   "sword",
	Goblet:  "goblet",
	Mouse:   "mouse",
	Ring:    "ring",
	Potion:  "potion",
	Beetle:  "beetle",
	Owl:     "owl",
	Gem:     "gem",
	Genie:   "genie",
	Bat:     "bat",
	Sack:    "sack",
	Helmet:  "helmet",
	Lizard:  "lizard",
}

// Items returns every item kind in declaration order
func Items() []Item {
	items := make([]Item, 0, len(itemNames)-1)
	for i := Chest; i <= Lizard; i++ {
		items = append(items, i)
	}
	return items
}

// Valid reports whether i is a known item
func (i Item) Valid() bool {
	return i >= Chest && i <= Lizard
}

func (i Item) String() string {
	if !i.Valid() {
		return fmt.Sprintf("item(%d)", int(i))
	}
	return itemNames[i]
}

// ParseItem looks an item up by name, ignoring case
func ParseItem(name string) (Item, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i := Chest; i <= Lizard; i++ {
		if itemNames[i] == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown item %q", name)
}

// MarshalText implements encoding.TextMarshaler
func (i Item) MarshalText() ([]byte, error) {
	if !i.Valid() {
		return nil, fmt.Errorf("cannot encode invalid item %d", int(i))
	}
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (i *Item) UnmarshalText(text []byte) error {
	parsed, err := ParseItem(string(text))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// Player identifies one of the four player slots
type Player int

const (
	NoPlayer Player = iota
	Player1
	Player2
	Player3
	Player4
)

// AllPlayers lists the player slots in turn order
var AllPlayers = [4]Player{Player1, Player2, Player3, Player4}

// Valid reports whether p is one of the four player slots
func (p Player) Valid() bool {
	return p >= Player1 && p <= Player4
}

func (p Player) String() string {
	if p == NoPlayer {
		return "none"
	}
	if !p.Valid() {
		return fmt.Sprintf("player(%d)", int(p))
	}
	return fmt.Sprintf("player%d", int(p))
}

// ParsePlayer accepts "player1".."player4" or "1".."4"
func ParsePlayer(s string) (Player, error) {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "player")
	for _, p := range AllPlayers {
		if s == fmt.Sprint(int(p)) {
			return p, nil
		}
	}
	return NoPlayer, fmt.Errorf("unknown player %q", s)
}

// MarshalText implements encoding.TextMarshaler
func (p Player) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("cannot encode invalid player %d", int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (p *Player) UnmarshalText(text []byte) error {
	parsed, err := ParsePlayer(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// MarkingKind says what, if anything, is printed on a tile
type MarkingKind int

const (
	MarkNone MarkingKind = iota
	MarkItem
	MarkStart
)

// Marking is either an item or a player's start square
type Marking struct {
	Kind   MarkingKind
	Item   Item
	Player Player
}

// ItemMarking marks a tile with an item
func ItemMarking(i Item) Marking {
	return Marking{Kind: MarkItem, Item: i}
}

// StartMarking marks a tile as a player's start square
func StartMarking(p Player) Marking {
	return Marking{Kind: MarkStart, Player: p}
}

func (m Marking) String() string {
	switch m.Kind {
	case MarkItem:
		return m.Item.String()
	case MarkStart:
		return "start:" + m.Player.String()
	}
	return ""
}

type jsonMarking struct {
	Item  *Item   `json:"item,omitempty"`
	Start *Player `json:"start,omitempty"`
}

// MarshalJSON encodes the marking as {"item": ...}, {"start": ...} or null
func (m Marking) MarshalJSON() ([]byte, error) {
	switch m.Kind {
	case MarkItem:
		return json.Marshal(jsonMarking{Item: &m.Item})
	case MarkStart:
		return json.Marshal(jsonMarking{Start: &m.Player})
	}
	return []byte("null"), nil
}

// UnmarshalJSON decodes the format written by MarshalJSON
func (m *Marking) UnmarshalJSON(data []byte) error {
	var jm *jsonMarking
	if err := json.Unmarshal(data, &jm); err != nil {
		return err
	}
	switch {
	case jm == nil || (jm.Item == nil && jm.Start == nil):
		*m = Marking{}
	case jm.Item != nil && jm.Start != nil:
		return fmt.Errorf("marking cannot be both an item and a start square")
	case jm.Item != nil:
		*m = ItemMarking(*jm.Item)
	default:
		*m = StartMarking(*jm.Start)
	}
	return nil
}

// Tile is the printed face of a maze card. Tiles never change; rotating a
// tile only changes the Orientation it is placed with.
type Tile struct {
	Openings Openings `json:"openings"`
	Marking  Marking  `json:"marking"`
}

// withMarking returns a copy of the tile shape carrying m
func (t Tile) withMarking(m Marking) Tile {
	t.Marking = m
	return t
}
