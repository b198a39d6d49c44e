// Package replay rebuilds the board from a game's static inputs and its
// action log.
package replay

import (
	"fmt"

	"map18xx.dev/internal/board"
	"map18xx.dev/internal/game"
	"map18xx.dev/internal/gamelog"
	"map18xx.dev/internal/tiles"
)

// PlacedTile is a manifest tile laid on the board by a log action.
type PlacedTile struct {
	*game.ManifestTile
	Direction string

	rotation float64
}

func (p *PlacedTile) Orientation() float64 { return p.rotation }

// Token is a company marker on a city.
type Token struct {
	Company string      `json:"company"`
	Color   string      `json:"color"`
	Coord   board.Coord `json:"location"`
	Station int         `json:"station"`
	Circle  int         `json:"circle"`
	IsHome  bool        `json:"is_home,omitempty"`
}

// Warning is a log action that could not be applied. Replay continues past
// it.
type Warning struct {
	Index  int            `json:"index"`
	Action gamelog.Action `json:"action"`
	Reason string         `json:"reason"`
	// Full is set when the token was refused because its city had no free
	// circle.
	Full bool `json:"full,omitempty"`
}

func (w Warning) String() string {
	return fmt.Sprintf("log entry %d (%s): %s", w.Index, w.Action, w.Reason)
}

// State is the board after replaying a log. It is built fresh by every
// Reconstruct call and must be treated as read-only once returned.
type State struct {
	Tiles    map[board.Coord]tiles.Spec
	Tokens   map[board.Coord][]Token
	Amounts  map[string]int
	Warnings []Warning
	// Digest identifies the log the state was built from.
	Digest string
}

// ResolvedTiles maps each location to what is drawn there: the last tile
// laid by the log, or the static map tile.
func (s *State) ResolvedTiles() map[board.Coord]tiles.Spec { return s.Tiles }

// ResolvedTokens maps each location to its tokens in arrival order.
func (s *State) ResolvedTokens() map[board.Coord][]Token { return s.Tokens }

// RemainingAmounts is the unplayed supply per manifest tile.
func (s *State) RemainingAmounts() map[string]int { return s.Amounts }

// StationTokens returns the tokens on one station of a location.
func (s *State) StationTokens(c board.Coord, station int) []Token {
	var out []Token
	for _, t := range s.Tokens[c] {
		if t.Station == station {
			out = append(out, t)
		}
	}
	return out
}
