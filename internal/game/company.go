package game

import (
	"fmt"

	"map18xx.dev/internal/board"
	"map18xx.dev/internal/hexspace"
)

// Company owns tokens. A company with a home location starts with a token
// on that station.
type Company struct {
	Name        string          `json:"-"`
	TokenColor  string          `json:"color"`
	Home        *board.Location `json:"home,omitempty"`
	HomeStation int             `json:"home_station,omitempty"`

	home *board.Coord
}

func (c *Company) bind(name string, o hexspace.Orientation) error {
	c.Name = name
	if c.HomeStation < 0 {
		return fmt.Errorf("company %s: negative home_station %d", name, c.HomeStation)
	}
	if c.Home == nil {
		return nil
	}
	h, err := c.Home.Resolve(o)
	if err != nil {
		return fmt.Errorf("company %s: %w", name, err)
	}
	c.home = &h
	return nil
}

// HomeCoord returns the resolved home location, if the company has one.
func (c *Company) HomeCoord() (board.Coord, bool) {
	if c.home == nil {
		return board.Coord{}, false
	}
	return *c.home, true
}
