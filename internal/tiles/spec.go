package tiles

import (
	"strconv"

	"map18xx.dev/internal/hexspace"
)

// Spec is what a renderer needs from anything drawn in a hex: a catalog
// definition, a map placement, a manifest tile, or a tile placed by replay.
type Spec interface {
	Name() string
	Color() Color
	Paths() []Path
	Cities() []City
	Stops() []Stop
	IsLawson() bool
	TextSpec() []Text
	// Text returns the string for a text id; unknown ids are "".
	Text(id int) string
	// Code returns the secondary label and its position, if any.
	Code() (text string, pos hexspace.Coordinate, ok bool)
	// Orientation is the tile's rotation in radians.
	Orientation() float64
	Arrows() []hexspace.Coordinate
	RevenueTrack() *RevenueTrack
	Terrain() *Terrain
}

// definitionSpec presents a bare definition, as drawn on the definitions
// sheet: ground colored, text ids shown as numbers.
type definitionSpec struct{ *Definition }

// AsSpec wraps d so it can be drawn on its own.
func AsSpec(d *Definition) Spec { return definitionSpec{d} }

func (s definitionSpec) Name() string                  { return s.Definition.Name }
func (s definitionSpec) Color() Color                  { return Ground }
func (s definitionSpec) Text(id int) string            { return strconv.Itoa(id) }
func (s definitionSpec) Orientation() float64          { return 0 }
func (s definitionSpec) Arrows() []hexspace.Coordinate { return nil }

func (s definitionSpec) Code() (string, hexspace.Coordinate, bool) {
	id, pos, ok := s.Definition.Code()
	if !ok {
		return "", pos, false
	}
	return strconv.Itoa(id), pos, true
}
