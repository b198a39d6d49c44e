// Package supply tracks how many of each manifest tile remain unplayed.
package supply

import (
	"errors"
	"fmt"
	"sort"

	"map18xx.dev/internal/board"
	"map18xx.dev/internal/game"
	"map18xx.dev/internal/gamelog"
	"map18xx.dev/internal/hexspace"
)

var ErrMissingAmount = errors.New("missing manifest amount")

// bookkeeping is the orientation used to tell locations apart. Only
// distinctness matters here, not where a hex is drawn. It ignores the
// board's orientation, so on a Vertical board a label and the raw coordinate
// replay resolves it to are counted as different hexes.
const bookkeeping = hexspace.Horizontal

// Remaining returns initial amount minus tiles currently on the board for
// every tile the manifest counts. Replacing a tile returns the old one to
// the supply. A nil log leaves the initial amounts untouched.
func Remaining(m *game.Manifest, l *gamelog.Log) (map[string]int, error) {
	for _, t := range m.Tiles {
		if _, ok := m.Amounts[t.Name()]; !ok {
			return nil, fmt.Errorf("%w for manifest tile %q", ErrMissingAmount, t.Name())
		}
	}
	out := make(map[string]int, len(m.Amounts))
	for k, v := range m.Amounts {
		out[k] = v
	}
	if l == nil {
		return out, nil
	}

	used, err := Used(l)
	if err != nil {
		return nil, err
	}
	for _, name := range sortedKeys(used) {
		if _, ok := out[name]; !ok {
			return nil, fmt.Errorf("%w for laid tile %q", ErrMissingAmount, name)
		}
		out[name] -= used[name]
	}
	return out, nil
}

// Used counts the tiles each name currently has on the board after l.
func Used(l *gamelog.Log) (map[string]int, error) {
	placed := map[board.Coord]string{}
	used := map[string]int{}
	for i, a := range l.Actions {
		if a.Type != gamelog.TypeTileLay {
			continue
		}
		if a.Location == nil {
			return nil, fmt.Errorf("log entry %d: %w", i, gamelog.ErrInvalidAction)
		}
		c, err := a.Location.Resolve(bookkeeping)
		if err != nil {
			return nil, fmt.Errorf("log entry %d: %w", i, err)
		}
		if old, ok := placed[c]; ok {
			used[old]--
		}
		placed[c] = a.Tile
		used[a.Tile]++
	}
	for k, v := range used {
		if v == 0 {
			delete(used, k)
		}
	}
	return used, nil
}

func sortedKeys(m map[string]int) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
