package game

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"map18xx.dev/internal/board"
	"map18xx.dev/internal/encoding"
	"map18xx.dev/internal/hexspace"
	"map18xx.dev/internal/tiles"
)

var (
	ErrUnknownTile    = errors.New("unknown tile")
	ErrUnknownCompany = errors.New("unknown company")
)

// Map is the static board.
type Map struct {
	Orientation hexspace.Orientation `json:"orientation"`
	// Scale is the flat-to-flat size of a hex in centimetres.
	Scale    float64   `json:"scale"`
	Width    int       `json:"width"`
	Height   int       `json:"height"`
	Tiles    []MapTile `json:"tiles"`
	Barriers []Barrier `json:"barriers,omitempty"`
}

// Barrier blocks one side of a hex.
type Barrier struct {
	Location board.Location `json:"location"`
	Side     string         `json:"side"`
}

// DefaultMap returns the board used when a game does not override it.
func DefaultMap() Map {
	return Map{
		Orientation: hexspace.Horizontal,
		Scale:       3.81,
		Width:       5,
		Height:      5,
	}
}

// Game is everything static about a game: board, tile supply, companies.
type Game struct {
	Name      string
	Map       Map
	Manifest  Manifest
	Companies map[string]*Company
	Catalog   *tiles.Catalog
}

// Load reads map, manifest and (optional) companies documents from dir and
// binds them against cat.
func Load(dir string, cat *tiles.Catalog) (*Game, error) {
	if st, err := os.Stat(dir); err != nil || !st.IsDir() {
		return nil, fmt.Errorf("can't find a game in %s", dir)
	}
	g := &Game{
		Name:      filepath.Base(dir),
		Map:       DefaultMap(),
		Companies: map[string]*Company{},
	}
	if err := readDoc(dir, "manifest", &g.Manifest, true); err != nil {
		return nil, err
	}
	if err := readDoc(dir, "map", &g.Map, true); err != nil {
		return nil, err
	}
	if err := readDoc(dir, "companies", &g.Companies, false); err != nil {
		return nil, err
	}
	if err := g.Bind(cat); err != nil {
		return nil, err
	}
	return g, nil
}

// Bind resolves locations and connects every placement and manifest tile to
// its definition.
func (g *Game) Bind(cat *tiles.Catalog) error {
	g.Catalog = cat
	o := g.Map.Orientation
	for i := range g.Manifest.Tiles {
		if err := g.Manifest.Tiles[i].Bind(cat); err != nil {
			return err
		}
	}
	for i := range g.Map.Tiles {
		if err := g.Map.Tiles[i].Bind(cat, o); err != nil {
			return err
		}
	}
	for _, b := range g.Map.Barriers {
		if _, err := b.Location.Resolve(o); err != nil {
			return fmt.Errorf("barrier: %w", err)
		}
		if _, _, err := hexspace.EdgeSegment(b.Side, o); err != nil {
			return fmt.Errorf("barrier at %s: %w", b.Location, err)
		}
	}
	if g.Companies == nil {
		g.Companies = map[string]*Company{}
	}
	for name, c := range g.Companies {
		if c == nil {
			return fmt.Errorf("company %s: empty entry", name)
		}
		if err := c.bind(name, o); err != nil {
			return err
		}
	}
	return nil
}

// StaticTiles returns the board's configured tiles by location. A later
// entry for the same location replaces an earlier one.
func (g *Game) StaticTiles() map[board.Coord]*MapTile {
	out := make(map[board.Coord]*MapTile, len(g.Map.Tiles))
	for i := range g.Map.Tiles {
		t := &g.Map.Tiles[i]
		out[t.Coord()] = t
	}
	return out
}

// Company returns a company by name.
func (g *Game) Company(name string) (*Company, error) {
	c, ok := g.Companies[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownCompany, name)
	}
	return c, nil
}

// CompanyNames returns company names in sorted order.
func (g *Game) CompanyNames() []string {
	out := make([]string, 0, len(g.Companies))
	for n := range g.Companies {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func readDoc(dir, stem string, out any, required bool) error {
	for _, ext := range []string{".json", ".yaml", ".yml"} {
		p := filepath.Join(dir, stem+ext)
		raw, err := os.ReadFile(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}
		if err := encoding.DecodeDocument(p, raw, out); err != nil {
			return fmt.Errorf("failed to parse %s: %w", stem, err)
		}
		return nil
	}
	if required {
		return fmt.Errorf("couldn't open %s file in %s", stem, dir)
	}
	return nil
}
