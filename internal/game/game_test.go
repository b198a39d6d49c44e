package game

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"map18xx.dev/internal/board"
	"map18xx.dev/internal/hexspace"
	"map18xx.dev/internal/tiles"
)

func testCatalog(t *testing.T) *tiles.Catalog {
	t.Helper()
	cat := &tiles.Catalog{Defs: map[string]*tiles.Definition{}}
	for name, raw := range map[string]string{
		"plain": `{}`,
		"city1": `{"cities": [{"circles": 1, "text_id": 1, "revenue_position": "N"}], "code_position": "S", "code_text_id": 2}`,
		"7":     `{"paths": [{"start": "N", "end": "NE"}], "revenue_track": {"position": "C", "yellow": 20}}`,
	} {
		d, err := tiles.Parse(name, name+".json", []byte(raw))
		if err != nil {
			t.Fatalf("parse %s: %v", name, err)
		}
		cat.Defs[name] = d
	}
	return cat
}

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoad_GameDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "manifest.json", `{
		"tiles": [{"base_tile": "7", "color": "yellow", "text": ["7"]}],
		"amounts": {"7": 4}
	}`)
	writeFile(t, dir, "map.yaml", `
orientation: Vertical
width: 10
height: 8
tiles:
  - location: B4
    tile: city1
    color: red
    orientation: SE
    text: {"1": "40", "2": "NYC"}
  - location: [0, 0]
barriers:
  - {location: [0, 0], side: NE}
`)
	writeFile(t, dir, "companies.json", `{"PRR": {"color": "green", "home": "B4"}, "B&O": {"color": "blue"}}`)

	g, err := Load(dir, testCatalog(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if g.Map.Orientation != hexspace.Vertical || g.Map.Scale != 3.81 || g.Map.Width != 10 {
		t.Fatalf("map: %+v", g.Map)
	}
	static := g.StaticTiles()
	city, ok := static[board.Coord{Col: 1, Row: 1}]
	if !ok {
		t.Fatalf("no tile at B4: %v", static)
	}
	if city.Color() != tiles.ColorByName("red") || city.Text(1) != "40" || city.Text(9) != "" {
		t.Fatalf("city tile: color=%v text=%q", city.Color(), city.Text(1))
	}
	if code, _, ok := city.Code(); !ok || code != "NYC" {
		t.Fatalf("code=%q ok=%v", code, ok)
	}
	if len(city.Cities()) != 1 || city.Orientation() == 0 {
		t.Fatalf("city tile shape: cities=%d rot=%v", len(city.Cities()), city.Orientation())
	}
	plain := static[board.Coord{}]
	if plain == nil || plain.Tile != DefaultTile || plain.Color() != tiles.Ground {
		t.Fatalf("default tile: %+v", plain)
	}

	prr, err := g.Company("PRR")
	if err != nil {
		t.Fatalf("Company: %v", err)
	}
	if h, ok := prr.HomeCoord(); !ok || h != (board.Coord{Col: 1, Row: 1}) {
		t.Fatalf("home=%v ok=%v", h, ok)
	}
	if _, ok := g.Companies["B&O"].HomeCoord(); ok {
		t.Fatalf("B&O has no home")
	}
	if _, err := g.Company("NYC"); !errors.Is(err, ErrUnknownCompany) {
		t.Fatalf("expected ErrUnknownCompany, got %v", err)
	}
	if names := g.CompanyNames(); len(names) != 2 || names[0] != "B&O" {
		t.Fatalf("names=%v", names)
	}

	mt, err := g.Manifest.Tile("7")
	if err != nil {
		t.Fatalf("Manifest.Tile: %v", err)
	}
	if mt.Color() != tiles.Yellow || mt.RevenueTrack() == nil || mt.RevenueTrack().Yellow != 20 {
		t.Fatalf("manifest tile: %+v", mt)
	}
	if _, err := g.Manifest.Tile("8"); !errors.Is(err, ErrUnknownTile) {
		t.Fatalf("expected ErrUnknownTile, got %v", err)
	}
}

func TestLoad_BindingErrors(t *testing.T) {
	cases := map[string][2]string{
		"unknown map tile": {
			`{"tiles": [], "amounts": {}}`,
			`{"orientation": "Horizontal", "tiles": [{"location": [0, 0], "tile": "999"}]}`,
		},
		"unknown base tile": {
			`{"tiles": [{"base_tile": "999", "color": "yellow", "text": ["9"]}], "amounts": {}}`,
			`{"orientation": "Horizontal", "tiles": []}`,
		},
	}
	for name, docs := range cases {
		dir := t.TempDir()
		writeFile(t, dir, "manifest.json", docs[0])
		writeFile(t, dir, "map.json", docs[1])
		if _, err := Load(dir, testCatalog(t)); !errors.Is(err, ErrUnknownTile) {
			t.Fatalf("%s: expected ErrUnknownTile, got %v", name, err)
		}
	}

	dir := t.TempDir()
	writeFile(t, dir, "manifest.json", `{"tiles": [], "amounts": {}}`)
	writeFile(t, dir, "map.json", `{"orientation": "Horizontal", "tiles": [{"location": "B4", "orientation": "UP"}]}`)
	if _, err := Load(dir, testCatalog(t)); !errors.Is(err, hexspace.ErrInvalidDirection) {
		t.Fatalf("expected ErrInvalidDirection, got %v", err)
	}
	writeFile(t, dir, "map.json", `{"orientation": "Horizontal", "tiles": [], "barriers": [{"location": [1, 1], "side": "UP"}]}`)
	if _, err := Load(dir, testCatalog(t)); !errors.Is(err, hexspace.ErrInvalidEdgeCode) {
		t.Fatalf("expected ErrInvalidEdgeCode, got %v", err)
	}
	writeFile(t, dir, "map.json", `{"orientation": "Horizontal", "tiles": [{"location": "4B"}]}`)
	if _, err := Load(dir, testCatalog(t)); !errors.Is(err, board.ErrInvalidLabel) {
		t.Fatalf("expected ErrInvalidLabel, got %v", err)
	}

	if _, err := Load(filepath.Join(dir, "missing"), testCatalog(t)); err == nil {
		t.Fatalf("expected error for missing directory")
	}
	empty := t.TempDir()
	if _, err := Load(empty, testCatalog(t)); err == nil {
		t.Fatalf("expected error for missing manifest")
	}
}

func TestUnboundAccessorPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	mt := &MapTile{Location: board.Labeled("A1")}
	_ = mt.Paths()
}

func TestUnboundManifestTilePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	mt := &ManifestTile{BaseTile: "7", Labels: []string{"7"}}
	_ = mt.Cities()
}
