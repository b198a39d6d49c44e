package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"sort"
	"strconv"
	"strings"

	"map18xx.dev/internal/board"
	"map18xx.dev/internal/config"
	"map18xx.dev/internal/game"
	"map18xx.dev/internal/gamelog"
	"map18xx.dev/internal/hexspace"
	"map18xx.dev/internal/protocol"
	"map18xx.dev/internal/replay"
	"map18xx.dev/internal/tiles"
)

var errUsage = errors.New("usage")

// common holds the flags every command shares.
type common struct {
	configPath string
	session    string
	logPath    string
}

func (c *common) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "path to map18xx.yaml (optional)")
	fs.StringVar(&c.session, "session", "", "session name (log under <data>/sessions/<name>)")
	fs.StringVar(&c.logPath, "log", "", "log document path (overrides -session)")
}

func (c *common) load() (config.Config, string, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return cfg, "", err
	}
	p := c.logPath
	if p == "" {
		if c.session == "" {
			return cfg, "", fmt.Errorf("missing -log or -session")
		}
		p = cfg.LogPath(c.session)
	}
	return cfg, p, nil
}

func parse(fs *flag.FlagSet, args []string) error {
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return nil
}

// openGame loads the catalog and the game a log belongs to.
func openGame(cfg config.Config, gameName string) (*game.Game, error) {
	cat, err := tiles.Load(cfg.TileDefsDir)
	if err != nil {
		return nil, err
	}
	return game.Load(cfg.GameDir(gameName), cat)
}

func cmdNew(args []string, stdout io.Writer, logger *log.Logger) error {
	fs := flag.NewFlagSet("new", flag.ContinueOnError)
	var c common
	c.register(fs)
	gameName := fs.String("game", gamelog.DefaultGame, "game ruleset")
	force := fs.Bool("force", false, "overwrite an existing log")
	if err := parse(fs, args); err != nil {
		return err
	}
	cfg, p, err := c.load()
	if err != nil {
		return err
	}
	if _, err := openGame(cfg, *gameName); err != nil {
		return err
	}
	if _, err := gamelog.Read(p); err == nil && !*force {
		return fmt.Errorf("%s already exists (use -force)", p)
	}
	if err := gamelog.Write(p, gamelog.New(*gameName)); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "new %s log at %s\n", *gameName, p)
	return nil
}

// appendAction replays the log with a added and saves it. Actions that only
// produce a warning are kept out of the log unless keep is set.
func appendAction(c common, a gamelog.Action, keep bool, stdout io.Writer, logger *log.Logger) error {
	cfg, p, err := c.load()
	if err != nil {
		return err
	}
	l, err := gamelog.Read(p)
	if err != nil {
		return err
	}
	g, err := openGame(cfg, l.GameName)
	if err != nil {
		return err
	}
	if err := l.Append(a); err != nil {
		return err
	}
	st, err := replay.Reconstruct(g, l)
	if err != nil {
		return err
	}
	for _, w := range st.Warnings {
		if w.Index != l.Len()-1 {
			continue
		}
		if !keep {
			return fmt.Errorf("not applied: %s", w.Reason)
		}
		logger.Printf("warning: %s", w)
	}
	if err := gamelog.Write(p, l); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%d: %s\n", l.Len(), a)
	return nil
}

func cmdLay(args []string, stdout io.Writer, logger *log.Logger) error {
	fs := flag.NewFlagSet("lay", flag.ContinueOnError)
	var c common
	c.register(fs)
	at := fs.String("at", "", "location label (B4) or col,row")
	tile := fs.String("tile", "", "manifest tile name")
	dir := fs.String("dir", "N", "orientation: N, NE, SE, S, SW or NW")
	if err := parse(fs, args); err != nil {
		return err
	}
	loc, err := parseLocation(*at)
	if err != nil {
		return err
	}
	return appendAction(c, gamelog.TileLay(loc, *tile, *dir), false, stdout, logger)
}

func cmdToken(args []string, stdout io.Writer, logger *log.Logger) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	var c common
	c.register(fs)
	at := fs.String("at", "", "location label (B4) or col,row")
	company := fs.String("company", "", "company name")
	city := fs.Int("city", -1, "city index on the tile (default 0)")
	force := fs.Bool("force", false, "log the placement even if it cannot be applied")
	if err := parse(fs, args); err != nil {
		return err
	}
	loc, err := parseLocation(*at)
	if err != nil {
		return err
	}
	a := gamelog.Token(loc, *company)
	if *city >= 0 {
		a = gamelog.TokenAt(loc, *company, *city)
	}
	return appendAction(c, a, *force, stdout, logger)
}

func cmdRemove(args []string, stdout io.Writer, logger *log.Logger) error {
	fs := flag.NewFlagSet("remove", flag.ContinueOnError)
	var c common
	c.register(fs)
	company := fs.String("company", "", "company name")
	if err := parse(fs, args); err != nil {
		return err
	}
	return appendAction(c, gamelog.RemoveCompany(*company), false, stdout, logger)
}

func loadState(c common) (*game.Game, *gamelog.Log, *replay.State, error) {
	cfg, p, err := c.load()
	if err != nil {
		return nil, nil, nil, err
	}
	l, err := gamelog.Read(p)
	if err != nil {
		return nil, nil, nil, err
	}
	g, err := openGame(cfg, l.GameName)
	if err != nil {
		return nil, nil, nil, err
	}
	st, err := replay.Reconstruct(g, l)
	if err != nil {
		return nil, nil, nil, err
	}
	return g, l, st, nil
}

func cmdState(args []string, stdout io.Writer, logger *log.Logger) error {
	fs := flag.NewFlagSet("state", flag.ContinueOnError)
	var c common
	c.register(fs)
	asJSON := fs.Bool("json", false, "print tokens and supply as JSON")
	if err := parse(fs, args); err != nil {
		return err
	}
	g, l, st, err := loadState(c)
	if err != nil {
		return err
	}
	for _, w := range st.Warnings {
		logger.Printf("warning: %s", w)
	}
	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Game      string                         `json:"game"`
			Digest    string                         `json:"digest"`
			Tokens    map[board.Coord][]replay.Token `json:"tokens"`
			Remaining map[string]int                 `json:"remaining"`
		}{l.GameName, st.Digest, st.Tokens, st.Amounts})
	}

	o := g.Map.Orientation
	fmt.Fprintf(stdout, "game=%s actions=%d digest=%s\n", l.GameName, l.Len(), st.Digest)
	coords := make([]board.Coord, 0, len(st.Tiles))
	for c := range st.Tiles {
		coords = append(coords, c)
	}
	sortCoords(coords)
	for _, c := range coords {
		t := st.Tiles[c]
		name := t.Name()
		if mt, ok := t.(*game.MapTile); ok {
			name = mt.Tile
		}
		fmt.Fprintf(stdout, "%-4s %-8s %-7s", board.Label(c, o), name, t.Color().Name)
		for _, tok := range st.Tokens[c] {
			home := ""
			if tok.IsHome {
				home = "*"
			}
			fmt.Fprintf(stdout, " %s%s@%d.%d", tok.Company, home, tok.Station, tok.Circle)
		}
		fmt.Fprintln(stdout)
	}
	return nil
}

func cmdSupply(args []string, stdout io.Writer, logger *log.Logger) error {
	fs := flag.NewFlagSet("supply", flag.ContinueOnError)
	var c common
	c.register(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	g, _, st, err := loadState(c)
	if err != nil {
		return err
	}
	for _, t := range g.Manifest.Tiles {
		fmt.Fprintf(stdout, "%-6s %-7s %d/%d\n", t.Name(), t.TileColor, st.Amounts[t.Name()], g.Manifest.Amounts[t.Name()])
	}
	return nil
}

func cmdDefs(args []string, stdout io.Writer, logger *log.Logger) error {
	fs := flag.NewFlagSet("defs", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to map18xx.yaml (optional)")
	tile := fs.String("tile", "", "print the drawing geometry of one definition")
	orientation := fs.String("orientation", "Horizontal", "board orientation for -tile: Horizontal or Vertical")
	if err := parse(fs, args); err != nil {
		return err
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	cat, err := tiles.Load(cfg.TileDefsDir)
	if err != nil {
		return err
	}
	if *tile != "" {
		o, err := hexspace.ParseOrientation(*orientation)
		if err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		d, ok := cat.Get(*tile)
		if !ok {
			return fmt.Errorf("%w %q", game.ErrUnknownTile, *tile)
		}
		return printGeometry(stdout, tiles.AsSpec(d), o)
	}

	fmt.Fprintf(stdout, "%d definitions digest=%s\n", len(cat.Defs), cat.Digest)
	for _, name := range cat.Names() {
		d, _ := cat.Get(name)
		spec := tiles.AsSpec(d)
		var circles []string
		for _, city := range spec.Cities() {
			circles = append(circles, strconv.Itoa(city.Circles))
		}
		fmt.Fprintf(stdout, "%-10s paths=%d cities=[%s] stops=%d lawson=%v\n",
			spec.Name(), len(spec.Paths()), strings.Join(circles, ","), len(spec.Stops()), spec.IsLawson())
	}
	return nil
}

// printGeometry writes s in hex units relative to the hex center: outline,
// track curves and token circles.
func printGeometry(w io.Writer, s tiles.Spec, o hexspace.Orientation) error {
	pt := func(v hexspace.Vec2) string {
		p := protocol.PointOf(v)
		return fmt.Sprintf("(%.4f,%.4f)", p[0], p[1])
	}
	fmt.Fprintf(w, "tile %s %s\n", s.Name(), o)
	var outline []string
	for _, c := range hexspace.Corners(o) {
		outline = append(outline, pt(c))
	}
	fmt.Fprintf(w, "outline %s\n", strings.Join(outline, " "))
	for i, p := range s.Paths() {
		c := tiles.PathCurve(p, o, s.Orientation())
		fmt.Fprintf(w, "path %d %s %s %s %s\n", i, pt(c.Start), pt(c.Control1), pt(c.Control2), pt(c.End))
	}
	for i, city := range s.Cities() {
		var slots []string
		for k := 0; k < city.Circles; k++ {
			slots = append(slots, pt(tiles.TokenPosition(s, i, k, o)))
		}
		fmt.Fprintf(w, "city %d %s\n", i, strings.Join(slots, " "))
	}
	return nil
}

// parseLocation accepts a board label (B4) or a raw "col,row" pair.
func parseLocation(s string) (board.Location, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return board.Location{}, fmt.Errorf("missing -at")
	}
	if !strings.Contains(s, ",") {
		return board.Labeled(s), nil
	}
	var c board.Coord
	if err := c.UnmarshalText([]byte(s)); err != nil {
		return board.Location{}, err
	}
	if c.Col < 0 || c.Row < 0 {
		return board.Location{}, fmt.Errorf("negative location %q", s)
	}
	return board.At(c.Col, c.Row), nil
}

func sortCoords(cs []board.Coord) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].Col != cs[j].Col {
			return cs[i].Col < cs[j].Col
		}
		return cs[i].Row < cs[j].Row
	})
}
