package game

import (
	"fmt"

	"map18xx.dev/internal/hexspace"
	"map18xx.dev/internal/tiles"
)

// ManifestTile is a tile in the game's supply: a base definition with its
// own color and text. Text[0] is the tile's name.
type ManifestTile struct {
	BaseTile  string   `json:"base_tile"`
	TileColor string   `json:"color"`
	Labels    []string `json:"text"`

	def *tiles.Definition
}

// Manifest lists the tiles available in a game and how many of each exist.
type Manifest struct {
	Tiles   []ManifestTile `json:"tiles"`
	Amounts map[string]int `json:"amounts"`
}

func (t *ManifestTile) Bind(cat *tiles.Catalog) error {
	if len(t.Labels) == 0 || t.Labels[0] == "" {
		return fmt.Errorf("%w: manifest tile based on %q has no name", tiles.ErrDefinition, t.BaseTile)
	}
	def, ok := cat.Get(t.BaseTile)
	if !ok {
		return fmt.Errorf("%w: manifest tile %s uses unknown base_tile %q", ErrUnknownTile, t.Labels[0], t.BaseTile)
	}
	t.def = def
	return nil
}

func (t *ManifestTile) definition() *tiles.Definition {
	if t.def == nil {
		panic(fmt.Sprintf("manifest tile %q: shape queried before Bind", t.Name()))
	}
	return t.def
}

func (t *ManifestTile) Name() string {
	if len(t.Labels) == 0 {
		return ""
	}
	return t.Labels[0]
}

func (t *ManifestTile) Color() tiles.Color                { return tiles.ColorByName(t.TileColor) }
func (t *ManifestTile) Paths() []tiles.Path               { return t.definition().Paths() }
func (t *ManifestTile) Cities() []tiles.City              { return t.definition().Cities() }
func (t *ManifestTile) Stops() []tiles.Stop               { return t.definition().Stops() }
func (t *ManifestTile) IsLawson() bool                    { return t.definition().IsLawson() }
func (t *ManifestTile) TextSpec() []tiles.Text            { return t.definition().TextSpec() }
func (t *ManifestTile) Orientation() float64              { return 0 }
func (t *ManifestTile) Arrows() []hexspace.Coordinate     { return nil }
func (t *ManifestTile) RevenueTrack() *tiles.RevenueTrack { return t.definition().RevenueTrack() }
func (t *ManifestTile) Terrain() *tiles.Terrain           { return t.definition().Terrain() }

func (t *ManifestTile) Text(id int) string {
	if id < 0 || id >= len(t.Labels) {
		return ""
	}
	return t.Labels[id]
}

func (t *ManifestTile) Code() (string, hexspace.Coordinate, bool) {
	id, pos, ok := t.definition().Code()
	if !ok {
		return "", pos, false
	}
	return t.Text(id), pos, true
}

// Tile finds a manifest tile by name.
func (m *Manifest) Tile(name string) (*ManifestTile, error) {
	for i := range m.Tiles {
		if m.Tiles[i].Name() == name {
			return &m.Tiles[i], nil
		}
	}
	return nil, fmt.Errorf("%w: tile %q is not in the manifest", ErrUnknownTile, name)
}
