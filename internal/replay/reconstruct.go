package replay

import (
	"fmt"

	"map18xx.dev/internal/board"
	"map18xx.dev/internal/game"
	"map18xx.dev/internal/gamelog"
	"map18xx.dev/internal/hexspace"
	"map18xx.dev/internal/supply"
	"map18xx.dev/internal/tiles"
)

// Reconstruct replays l from the beginning against g. It reads g and l
// without modifying them. Unknown tiles and companies abort the replay;
// token placements that cannot be honoured become warnings.
func Reconstruct(g *game.Game, l *gamelog.Log) (*State, error) {
	if l == nil {
		l = gamelog.New(g.Name)
	}
	r := &run{
		game:   g,
		o:      g.Map.Orientation,
		static: g.StaticTiles(),
		placed: map[board.Coord]*PlacedTile{},
		tokens: map[board.Coord][]Token{},
	}
	r.seedHomes()

	for i, a := range l.Actions {
		var err error
		switch a.Type {
		case gamelog.TypeTileLay:
			err = r.layTile(a)
		case gamelog.TypeToken:
			err = r.placeToken(i, a)
		case gamelog.TypeRemoveCompany:
			err = r.removeCompany(a)
		default:
			err = fmt.Errorf("%w: unknown type %q", gamelog.ErrInvalidAction, a.Type)
		}
		if err != nil {
			return nil, fmt.Errorf("log entry %d (%s): %w", i, a, err)
		}
	}

	amounts, err := supply.Remaining(&g.Manifest, l)
	if err != nil {
		return nil, err
	}

	resolved := make(map[board.Coord]tiles.Spec, len(r.static)+len(r.placed))
	for c, t := range r.static {
		resolved[c] = t
	}
	for c, t := range r.placed {
		resolved[c] = t
	}
	return &State{
		Tiles:    resolved,
		Tokens:   r.tokens,
		Amounts:  amounts,
		Warnings: r.warnings,
		Digest:   l.Digest(),
	}, nil
}

type run struct {
	game     *game.Game
	o        hexspace.Orientation
	static   map[board.Coord]*game.MapTile
	placed   map[board.Coord]*PlacedTile
	tokens   map[board.Coord][]Token
	warnings []Warning
}

func (r *run) warn(i int, a gamelog.Action, format string, args ...any) {
	r.warnings = append(r.warnings, Warning{Index: i, Action: a, Reason: fmt.Sprintf(format, args...)})
}

// effective is the tile currently in effect at c.
func (r *run) effective(c board.Coord) (tiles.Spec, bool) {
	if t, ok := r.placed[c]; ok {
		return t, true
	}
	if t, ok := r.static[c]; ok {
		return t, true
	}
	return nil, false
}

func (r *run) countAt(c board.Coord, station int) int {
	n := 0
	for _, t := range r.tokens[c] {
		if t.Station == station {
			n++
		}
	}
	return n
}

func (r *run) seedHomes() {
	for _, name := range r.game.CompanyNames() {
		co := r.game.Companies[name]
		home, ok := co.HomeCoord()
		if !ok {
			continue
		}
		r.tokens[home] = append(r.tokens[home], Token{
			Company: name,
			Color:   co.TokenColor,
			Coord:   home,
			Station: co.HomeStation,
			Circle:  r.countAt(home, co.HomeStation),
			IsHome:  true,
		})
	}
}

func (r *run) layTile(a gamelog.Action) error {
	c, err := a.Location.Resolve(r.o)
	if err != nil {
		return err
	}
	mt, err := r.game.Manifest.Tile(a.Tile)
	if err != nil {
		return err
	}
	dir := a.Orientation
	if dir == "" {
		dir = "N"
	}
	rot, err := hexspace.DirectionToAngle(dir)
	if err != nil {
		return err
	}
	r.placed[c] = &PlacedTile{ManifestTile: mt, Direction: dir, rotation: rot}
	return nil
}

func (r *run) placeToken(i int, a gamelog.Action) error {
	co, err := r.game.Company(a.Company)
	if err != nil {
		return err
	}
	c, err := a.Location.Resolve(r.o)
	if err != nil {
		return err
	}
	station := a.Station()

	list := r.tokens[c]
	for k := range list {
		t := &list[k]
		if t.Company == co.Name && t.Station == station && t.IsHome {
			t.IsHome = false
			return nil
		}
	}
	tile, ok := r.effective(c)
	if !ok {
		r.warn(i, a, "no tile at %s", c)
		return nil
	}
	cities := tile.Cities()
	if station >= len(cities) {
		r.warn(i, a, "tile at %s has %d cities, no city %d", c, len(cities), station)
		return nil
	}
	n := r.countAt(c, station)
	if n >= cities[station].Circles {
		r.warn(i, a, "city %d at %s is full (%d of %d circles)", station, c, n, cities[station].Circles)
		r.warnings[len(r.warnings)-1].Full = true
		return nil
	}
	r.tokens[c] = append(list, Token{
		Company: co.Name,
		Color:   co.TokenColor,
		Coord:   c,
		Station: station,
		Circle:  n,
	})
	return nil
}

func (r *run) removeCompany(a gamelog.Action) error {
	if _, err := r.game.Company(a.Company); err != nil {
		return err
	}
	for c, list := range r.tokens {
		kept := list[:0]
		next := map[int]int{}
		for _, t := range list {
			if t.Company == a.Company {
				continue
			}
			t.Circle = next[t.Station]
			next[t.Station]++
			kept = append(kept, t)
		}
		if len(kept) == 0 {
			delete(r.tokens, c)
			continue
		}
		r.tokens[c] = kept
	}
	return nil
}
