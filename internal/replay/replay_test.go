package replay

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"map18xx.dev/internal/board"
	"map18xx.dev/internal/game"
	"map18xx.dev/internal/gamelog"
	"map18xx.dev/internal/hexspace"
	"map18xx.dev/internal/tiles"
)

var (
	b4 = board.Coord{Col: 1, Row: 1}
	d6 = board.Coord{Col: 3, Row: 2}
)

func testGame(t *testing.T) *game.Game {
	t.Helper()
	cat := &tiles.Catalog{Defs: map[string]*tiles.Definition{}}
	for name, circles := range map[string]int{"city1": 1, "city2": 2, "city3": 3} {
		raw := fmt.Sprintf(`{"cities": [{"circles": %d, "text_id": 1, "position": "C", "revenue_position": "N"}]}`, circles)
		d, err := tiles.Parse(name, name+".json", []byte(raw))
		if err != nil {
			t.Fatalf("parse %s: %v", name, err)
		}
		cat.Defs[name] = d
	}
	plain, err := tiles.Parse("plain", "plain.json", []byte(`{}`))
	if err != nil {
		t.Fatalf("parse plain: %v", err)
	}
	cat.Defs["plain"] = plain

	home := board.Labeled("B4")
	g := &game.Game{
		Name: "test",
		Map:  game.DefaultMap(),
		Manifest: game.Manifest{
			Tiles: []game.ManifestTile{
				{BaseTile: "city1", TileColor: "yellow", Labels: []string{"57", "20"}},
				{BaseTile: "city2", TileColor: "green", Labels: []string{"14", "30"}},
				{BaseTile: "city3", TileColor: "russet", Labels: []string{"63", "40"}},
			},
			Amounts: map[string]int{"57": 4, "14": 3, "63": 2},
		},
		Companies: map[string]*game.Company{
			"PRR": {TokenColor: "green", Home: &home},
			"NYC": {TokenColor: "grey"},
			"B&O": {TokenColor: "blue"},
			"C&O": {TokenColor: "yellow"},
		},
	}
	g.Map.Tiles = []game.MapTile{
		{Location: board.Labeled("B4"), Tile: "city1", Labels: map[string]string{"1": "20"}},
		{Location: board.Labeled("D6"), Tile: "city1"},
		{Location: board.Labeled("A1")},
	}
	if err := g.Bind(cat); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	return g
}

func logOf(t *testing.T, actions ...gamelog.Action) *gamelog.Log {
	t.Helper()
	l := gamelog.New("1830")
	for _, a := range actions {
		if err := l.Append(a); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	return l
}

func reconstruct(t *testing.T, g *game.Game, l *gamelog.Log) *State {
	t.Helper()
	s, err := Reconstruct(g, l)
	if err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}
	checkCapacity(t, s)
	return s
}

// checkCapacity asserts no station holds more tokens than it has circles
// and that circles are numbered 0..n-1.
func checkCapacity(t *testing.T, s *State) {
	t.Helper()
	for c, list := range s.Tokens {
		tile, ok := s.Tiles[c]
		if !ok {
			continue
		}
		perStation := map[int][]int{}
		for _, tok := range list {
			perStation[tok.Station] = append(perStation[tok.Station], tok.Circle)
		}
		for station, circles := range perStation {
			if station < len(tile.Cities()) && len(circles) > tile.Cities()[station].Circles {
				t.Fatalf("%s city %d holds %d tokens", c, station, len(circles))
			}
			for i, circle := range circles {
				if circle != i {
					t.Fatalf("%s city %d circles %v not contiguous", c, station, circles)
				}
			}
		}
	}
}

func TestHomeTokenSeededWithoutLog(t *testing.T) {
	s := reconstruct(t, testGame(t), gamelog.New("1830"))
	want := []Token{{Company: "PRR", Color: "green", Coord: b4, Station: 0, Circle: 0, IsHome: true}}
	if diff := cmp.Diff(want, s.ResolvedTokens()[b4]); diff != "" {
		t.Fatalf("home tokens (-want +got):\n%s", diff)
	}
}

func TestHomeTokenConversion(t *testing.T) {
	s := reconstruct(t, testGame(t), logOf(t, gamelog.TokenAt(board.Labeled("B4"), "PRR", 0)))
	got := s.StationTokens(b4, 0)
	if len(got) != 1 {
		t.Fatalf("expected one token, got %+v", got)
	}
	if got[0].IsHome || got[0].Company != "PRR" || got[0].Circle != 0 {
		t.Fatalf("token: %+v", got[0])
	}
	if len(s.Warnings) != 0 {
		t.Fatalf("warnings: %v", s.Warnings)
	}
}

func TestCapacityRejection(t *testing.T) {
	s := reconstruct(t, testGame(t), logOf(t,
		gamelog.Token(board.Labeled("D6"), "NYC"),
		gamelog.Token(board.Labeled("D6"), "B&O"),
	))
	got := s.StationTokens(d6, 0)
	if len(got) != 1 || got[0].Company != "NYC" {
		t.Fatalf("tokens: %+v", got)
	}
	if len(s.Warnings) != 1 || s.Warnings[0].Index != 1 || !s.Warnings[0].Full {
		t.Fatalf("warnings: %v", s.Warnings)
	}
}

func TestRemoveCompanyRepacks(t *testing.T) {
	s := reconstruct(t, testGame(t), logOf(t,
		gamelog.TileLay(board.Labeled("D6"), "63", "N"),
		gamelog.Token(board.Labeled("D6"), "NYC"),
		gamelog.Token(board.Labeled("D6"), "B&O"),
		gamelog.Token(board.Labeled("D6"), "C&O"),
		gamelog.RemoveCompany("B&O"),
	))
	want := []Token{
		{Company: "NYC", Color: "grey", Coord: d6, Station: 0, Circle: 0},
		{Company: "C&O", Color: "yellow", Coord: d6, Station: 0, Circle: 1},
	}
	if diff := cmp.Diff(want, s.ResolvedTokens()[d6]); diff != "" {
		t.Fatalf("tokens after removal (-want +got):\n%s", diff)
	}
}

func TestRemoveCompanyDropsHomeAndEmptiesLocation(t *testing.T) {
	s := reconstruct(t, testGame(t), logOf(t, gamelog.RemoveCompany("PRR")))
	if _, ok := s.Tokens[b4]; ok {
		t.Fatalf("B4 still has tokens: %+v", s.Tokens[b4])
	}
}

func TestTileLayLastWriteWins(t *testing.T) {
	s := reconstruct(t, testGame(t), logOf(t,
		gamelog.TileLay(board.Labeled("C3"), "57", "N"),
		gamelog.TileLay(board.At(2, 1), "14", "SE"),
	))
	tile, ok := s.ResolvedTiles()[board.Coord{Col: 2, Row: 1}]
	if !ok {
		t.Fatalf("no tile at C3")
	}
	if tile.Name() != "14" || math.Abs(tile.Orientation()-2*math.Pi/3) > 1e-9 {
		t.Fatalf("tile=%s rotation=%v", tile.Name(), tile.Orientation())
	}
	if tile.Text(1) != "30" || tile.Color() != tiles.Green {
		t.Fatalf("tile text=%q color=%v", tile.Text(1), tile.Color())
	}
}

func TestReplayTileOverridesStatic(t *testing.T) {
	s := reconstruct(t, testGame(t), logOf(t, gamelog.TileLay(board.Labeled("B4"), "14", "")))
	if got := s.ResolvedTiles()[b4].Name(); got != "14" {
		t.Fatalf("B4 shows %q", got)
	}
	if _, ok := s.ResolvedTiles()[board.Coord{}].(*game.MapTile); !ok {
		t.Fatalf("A1 should still be the static tile")
	}
	if _, ok := s.ResolvedTiles()[board.Coord{Col: 4, Row: 4}]; ok {
		t.Fatalf("nothing should be drawn at an empty location")
	}
}

func TestCapacityReadsReplayedTile(t *testing.T) {
	s := reconstruct(t, testGame(t), logOf(t,
		gamelog.TileLay(board.Labeled("D6"), "14", "N"),
		gamelog.Token(board.Labeled("D6"), "NYC"),
		gamelog.Token(board.Labeled("D6"), "B&O"),
	))
	if n := len(s.StationTokens(d6, 0)); n != 2 || len(s.Warnings) != 0 {
		t.Fatalf("tokens=%d warnings=%v", n, s.Warnings)
	}
}

func TestDowngradeDoesNotEvict(t *testing.T) {
	s, err := Reconstruct(testGame(t), logOf(t,
		gamelog.TileLay(board.Labeled("D6"), "14", "N"),
		gamelog.Token(board.Labeled("D6"), "NYC"),
		gamelog.Token(board.Labeled("D6"), "B&O"),
		gamelog.TileLay(board.Labeled("D6"), "57", "N"),
		gamelog.Token(board.Labeled("D6"), "C&O"),
	))
	if err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}
	if n := len(s.StationTokens(d6, 0)); n != 2 {
		t.Fatalf("tokens=%d", n)
	}
	if len(s.Warnings) != 1 || s.Warnings[0].Index != 4 {
		t.Fatalf("warnings: %v", s.Warnings)
	}
}

func TestTokenWarnings(t *testing.T) {
	s := reconstruct(t, testGame(t), logOf(t,
		gamelog.Token(board.Labeled("E9"), "NYC"),
		gamelog.TokenAt(board.Labeled("D6"), "NYC", 2),
		gamelog.Token(board.Labeled("A1"), "NYC"),
	))
	var idx []int
	for _, w := range s.Warnings {
		if w.Full {
			t.Fatalf("not a capacity warning: %v", w)
		}
		idx = append(idx, w.Index)
	}
	if diff := cmp.Diff([]int{0, 1, 2}, idx); diff != "" {
		t.Fatalf("warning indexes (-want +got):\n%s", diff)
	}
}

func TestSameCompanyTwiceOnStation(t *testing.T) {
	s := reconstruct(t, testGame(t), logOf(t,
		gamelog.TileLay(board.Labeled("D6"), "14", "N"),
		gamelog.Token(board.Labeled("D6"), "NYC"),
		gamelog.Token(board.Labeled("D6"), "NYC"),
	))
	want := []Token{
		{Company: "NYC", Color: "grey", Coord: d6, Station: 0, Circle: 0},
		{Company: "NYC", Color: "grey", Coord: d6, Station: 0, Circle: 1},
	}
	if diff := cmp.Diff(want, s.StationTokens(d6, 0)); diff != "" {
		t.Fatalf("tokens (-want +got):\n%s", diff)
	}
	if len(s.Warnings) != 0 {
		t.Fatalf("warnings: %v", s.Warnings)
	}
}

func TestFatalErrors(t *testing.T) {
	g := testGame(t)
	if _, err := Reconstruct(g, logOf(t, gamelog.Token(board.Labeled("B4"), "Reading"))); !errors.Is(err, game.ErrUnknownCompany) {
		t.Fatalf("expected ErrUnknownCompany, got %v", err)
	}
	if _, err := Reconstruct(g, logOf(t, gamelog.RemoveCompany("Reading"))); !errors.Is(err, game.ErrUnknownCompany) {
		t.Fatalf("expected ErrUnknownCompany, got %v", err)
	}
	if _, err := Reconstruct(g, logOf(t, gamelog.TileLay(board.Labeled("B4"), "999", "N"))); !errors.Is(err, game.ErrUnknownTile) {
		t.Fatalf("expected ErrUnknownTile, got %v", err)
	}
}

type tileView struct {
	Name     string
	Rotation float64
}

func view(s *State) map[board.Coord]tileView {
	out := map[board.Coord]tileView{}
	for c, t := range s.Tiles {
		out[c] = tileView{Name: t.Name(), Rotation: t.Orientation()}
	}
	return out
}

func TestReconstructIsIdempotent(t *testing.T) {
	g := testGame(t)
	l := logOf(t,
		gamelog.TileLay(board.Labeled("D6"), "63", "NW"),
		gamelog.Token(board.Labeled("D6"), "NYC"),
		gamelog.Token(board.Labeled("B4"), "PRR"),
		gamelog.Token(board.Labeled("B4"), "B&O"),
		gamelog.Token(board.Labeled("D6"), "B&O"),
		gamelog.RemoveCompany("NYC"),
		gamelog.TileLay(board.Labeled("C3"), "57", "S"),
	)
	digest := l.Digest()
	first := reconstruct(t, g, l)
	second := reconstruct(t, g, l)
	if diff := cmp.Diff(first.Tokens, second.Tokens); diff != "" {
		t.Fatalf("tokens differ (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(first.Amounts, second.Amounts); diff != "" {
		t.Fatalf("amounts differ (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(first.Warnings, second.Warnings); diff != "" {
		t.Fatalf("warnings differ (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(view(first), view(second)); diff != "" {
		t.Fatalf("tiles differ (-first +second):\n%s", diff)
	}
	if l.Digest() != digest {
		t.Fatalf("log was modified")
	}
	if first.Amounts["63"] != 1 || first.Amounts["57"] != 3 {
		t.Fatalf("amounts: %v", first.Amounts)
	}
}

func TestCache_InvalidatesOnLogChange(t *testing.T) {
	g := testGame(t)
	c := NewCache(g, 2)
	l := logOf(t, gamelog.Token(board.Labeled("D6"), "NYC"))

	s1, err := c.Get(l)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	s2, err := c.Get(l)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if s1 != s2 {
		t.Fatalf("expected cached state")
	}
	if err := l.Append(gamelog.Token(board.Labeled("D6"), "B&O")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	s3, err := c.Get(l)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if s3 == s1 || len(s3.Warnings) != 1 {
		t.Fatalf("expected fresh state with a capacity warning, got %+v", s3.Warnings)
	}
	if hits, misses := c.Stats(); hits != 1 || misses != 2 {
		t.Fatalf("hits=%d misses=%d", hits, misses)
	}
}

func TestVerticalBoardResolvesLabels(t *testing.T) {
	g := testGame(t)
	g.Map.Orientation = hexspace.Vertical
	home := board.Labeled("D6")
	g.Companies["PRR"].Home = &home
	if err := g.Bind(g.Catalog); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	// D6 reads letter as row on a vertical board.
	at := board.Coord{Col: 2, Row: 3}
	if _, ok := g.StaticTiles()[at]; !ok {
		t.Fatalf("static D6 not at %v: %v", at, g.StaticTiles())
	}

	s := reconstruct(t, g, logOf(t,
		gamelog.Token(board.At(2, 3), "PRR"),
		gamelog.TileLay(board.Labeled("D6"), "14", "N"),
		gamelog.Token(board.Labeled("D6"), "NYC"),
		gamelog.Token(board.At(2, 3), "B&O"),
	))
	want := []Token{
		{Company: "PRR", Color: "green", Coord: at, Station: 0, Circle: 0},
		{Company: "NYC", Color: "grey", Coord: at, Station: 0, Circle: 1},
	}
	if diff := cmp.Diff(want, s.ResolvedTokens()[at]); diff != "" {
		t.Fatalf("tokens (-want +got):\n%s", diff)
	}
	if len(s.Warnings) != 1 || s.Warnings[0].Index != 3 || !s.Warnings[0].Full {
		t.Fatalf("warnings: %v", s.Warnings)
	}
	if tile := s.ResolvedTiles()[at]; tile == nil || tile.Name() != "14" {
		t.Fatalf("tile at %v: %v", at, tile)
	}
	if _, ok := s.ResolvedTiles()[d6]; ok {
		t.Fatalf("nothing should resolve at the horizontal reading of D6")
	}
	if s.Amounts["14"] != 2 {
		t.Fatalf("remaining 14 = %d", s.Amounts["14"])
	}
}
