package game

import (
	"fmt"
	"strconv"

	"map18xx.dev/internal/board"
	"map18xx.dev/internal/hexspace"
	"map18xx.dev/internal/tiles"
)

// DefaultTile is the definition used by map tiles that do not name one.
const DefaultTile = "plain"

// MapTile is a static placement on the board.
type MapTile struct {
	Location    board.Location        `json:"location"`
	Tile        string                `json:"tile,omitempty"`
	TileColor   string                `json:"color,omitempty"`
	Direction   string                `json:"orientation,omitempty"`
	Labels      map[string]string     `json:"text,omitempty"`
	RawArrows   []hexspace.Coordinate `json:"arrows,omitempty"`
	Revenue     *tiles.RevenueTrack   `json:"revenue,omitempty"`
	TerrainOver *tiles.Terrain        `json:"terrain,omitempty"`

	coord    board.Coord
	rotation float64
	def      *tiles.Definition
}

// Bind resolves the placement's location and connects it to its definition.
// It must run before any shape accessor.
func (t *MapTile) Bind(cat *tiles.Catalog, o hexspace.Orientation) error {
	if t.Tile == "" {
		t.Tile = DefaultTile
	}
	c, err := t.Location.Resolve(o)
	if err != nil {
		return fmt.Errorf("map tile %s: %w", t.Location, err)
	}
	if t.Direction != "" {
		a, err := hexspace.DirectionToAngle(t.Direction)
		if err != nil {
			return fmt.Errorf("map tile %s: %w", t.Location, err)
		}
		t.rotation = a
	}
	def, ok := cat.Get(t.Tile)
	if !ok {
		return fmt.Errorf("%w: map tile %s uses unknown tile definition %q", ErrUnknownTile, t.Location, t.Tile)
	}
	t.coord = c
	t.def = def
	return nil
}

// Coord is the resolved location. Valid after Bind.
func (t *MapTile) Coord() board.Coord { return t.coord }

func (t *MapTile) definition() *tiles.Definition {
	if t.def == nil {
		panic(fmt.Sprintf("map tile %s: shape queried before Bind", t.Location))
	}
	return t.def
}

func (t *MapTile) Name() string { return "" }

func (t *MapTile) Color() tiles.Color {
	if t.TileColor == "" {
		return tiles.Ground
	}
	return tiles.ColorByName(t.TileColor)
}

func (t *MapTile) Paths() []tiles.Path    { return t.definition().Paths() }
func (t *MapTile) Cities() []tiles.City   { return t.definition().Cities() }
func (t *MapTile) Stops() []tiles.Stop    { return t.definition().Stops() }
func (t *MapTile) IsLawson() bool         { return t.definition().IsLawson() }
func (t *MapTile) TextSpec() []tiles.Text { return t.definition().TextSpec() }
func (t *MapTile) Orientation() float64   { return t.rotation }

func (t *MapTile) Arrows() []hexspace.Coordinate { return t.RawArrows }

// Text looks the id up in the placement's text table; missing text is "".
func (t *MapTile) Text(id int) string { return t.Labels[strconv.Itoa(id)] }

func (t *MapTile) Code() (string, hexspace.Coordinate, bool) {
	id, pos, ok := t.definition().Code()
	if !ok {
		return "", pos, false
	}
	return t.Text(id), pos, true
}

func (t *MapTile) RevenueTrack() *tiles.RevenueTrack {
	if t.Revenue != nil {
		return t.Revenue
	}
	return t.definition().RevenueTrack()
}

func (t *MapTile) Terrain() *tiles.Terrain {
	if t.TerrainOver != nil {
		return t.TerrainOver
	}
	return t.definition().Terrain()
}
