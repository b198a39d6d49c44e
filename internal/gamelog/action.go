// Package gamelog holds the ordered action log of a game session and its
// persisted forms.
package gamelog

import (
	"errors"
	"fmt"
	"strings"

	"map18xx.dev/internal/board"
	"map18xx.dev/internal/hexspace"
)

var ErrInvalidAction = errors.New("invalid action")

type ActionType string

const (
	TypeTileLay       ActionType = "tilelay"
	TypeToken         ActionType = "token"
	TypeRemoveCompany ActionType = "removecompany"
)

// Action is one log entry. Which fields are set depends on Type:
//
//	tilelay:       Location, Tile, Orientation
//	token:         Location, Company, City (optional)
//	removecompany: Company
type Action struct {
	Type        ActionType      `json:"type"`
	Location    *board.Location `json:"location,omitempty"`
	Tile        string          `json:"tile,omitempty"`
	Orientation string          `json:"orientation,omitempty"`
	Company     string          `json:"company,omitempty"`
	City        *int            `json:"city,omitempty"`
}

func TileLay(loc board.Location, tile, orientation string) Action {
	return Action{Type: TypeTileLay, Location: &loc, Tile: tile, Orientation: orientation}
}

func Token(loc board.Location, company string) Action {
	return Action{Type: TypeToken, Location: &loc, Company: company}
}

// TokenAt places a token on a specific city of the tile.
func TokenAt(loc board.Location, company string, city int) Action {
	a := Token(loc, company)
	a.City = &city
	return a
}

func RemoveCompany(company string) Action {
	return Action{Type: TypeRemoveCompany, Company: company}
}

// Station is the city index a token action targets, defaulting to 0.
func (a Action) Station() int {
	if a.City == nil {
		return 0
	}
	return *a.City
}

// Validate checks that the fields required by the action type are present.
// It does not resolve names against a game.
func (a Action) Validate() error {
	if a.Location != nil {
		if err := validLocation(*a.Location); err != nil {
			return err
		}
	}
	switch a.Type {
	case TypeTileLay:
		if a.Location == nil || a.Tile == "" {
			return fmt.Errorf("%w: tilelay needs location and tile", ErrInvalidAction)
		}
		if a.Orientation != "" {
			if _, err := hexspace.DirectionToAngle(a.Orientation); err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidAction, err)
			}
		}
	case TypeToken:
		if a.Location == nil || a.Company == "" {
			return fmt.Errorf("%w: token needs location and company", ErrInvalidAction)
		}
		if a.City != nil && *a.City < 0 {
			return fmt.Errorf("%w: negative city %d", ErrInvalidAction, *a.City)
		}
	case TypeRemoveCompany:
		if a.Company == "" {
			return fmt.Errorf("%w: removecompany needs company", ErrInvalidAction)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidAction, a.Type)
	}
	return nil
}

func validLocation(l board.Location) error {
	if !l.IsLabel() {
		if l.Coord.Col < 0 || l.Coord.Row < 0 {
			return fmt.Errorf("%w: negative location %s", ErrInvalidAction, l)
		}
		return nil
	}
	if strings.TrimSpace(l.Label) != l.Label {
		return fmt.Errorf("%w: location %q has surrounding space", ErrInvalidAction, l.Label)
	}
	if _, err := board.ParseLabel(l.Label, hexspace.Horizontal); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAction, err)
	}
	return nil
}

func (a Action) String() string {
	switch a.Type {
	case TypeTileLay:
		return fmt.Sprintf("lay %s at %s facing %s", a.Tile, a.Location, a.orientationOrDefault())
	case TypeToken:
		return fmt.Sprintf("token %s at %s city %d", a.Company, a.Location, a.Station())
	case TypeRemoveCompany:
		return fmt.Sprintf("remove %s", a.Company)
	}
	return string(a.Type)
}

func (a Action) orientationOrDefault() string {
	if a.Orientation == "" {
		return "N"
	}
	return a.Orientation
}
