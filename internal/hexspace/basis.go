package hexspace

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Orientation says whether hexes have a flat edge (Horizontal) or a vertex
// (Vertical) at the top.
type Orientation int

const (
	Horizontal Orientation = iota
	Vertical
)

func (o Orientation) String() string {
	if o == Vertical {
		return "Vertical"
	}
	return "Horizontal"
}

func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "horizontal", "":
		return Horizontal, nil
	case "vertical":
		return Vertical, nil
	}
	return Horizontal, fmt.Errorf("unknown orientation %q", s)
}

func (o Orientation) MarshalJSON() ([]byte, error) { return json.Marshal(o.String()) }

func (o *Orientation) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseOrientation(s)
	if err != nil {
		return err
	}
	*o = v
	return nil
}

var sqrt3 = math.Sqrt(3)

var (
	horizontalBasis = Mat2x3{
		{1.0, 0.5, -0.5},
		{0.0, -0.5 * sqrt3, -0.5 * sqrt3},
	}
	verticalBasis = Mat2x3{
		{0.5 * sqrt3, 0.0, -0.5 * sqrt3},
		{-0.5, -1.0, -0.5},
	}
)

// Basis returns the hex-space to render-space projection for o.
func Basis(o Orientation) Mat2x3 {
	if o == Vertical {
		return verticalBasis
	}
	return horizontalBasis
}

// Rotate returns the planar rotation by theta radians.
func Rotate(theta float64) Mat2 {
	c, s := math.Cos(theta), math.Sin(theta)
	return Mat2{
		{c, -s},
		{s, c},
	}
}

// Project maps a hex-space point to render-space for a tile turned by
// rotation radians on a board with orientation o. The result is relative to
// the hex center, in hex units.
func Project(v Vec3, o Orientation, rotation float64) Vec2 {
	return Rotate(rotation).Mul(Basis(o)).Apply(v)
}

var corners = []Vec3{
	{-1, 0, 0},
	{0, 0, 1},
	{0, 1, 0},
	{1, 0, 0},
	{0, 0, -1},
	{0, -1, 0},
}

// Corners returns the six outline vertices of a hex in render-space.
func Corners(o Orientation) []Vec2 {
	b := Basis(o)
	out := make([]Vec2, len(corners))
	for i, c := range corners {
		out[i] = b.Apply(c)
	}
	return out
}

var edgeEnds = map[string][2]Vec3{
	"N":  {{0, 0, 1}, {0, 1, 0}},
	"NE": {{0, 1, 0}, {1, 0, 0}},
	"SE": {{1, 0, 0}, {0, 0, -1}},
	"S":  {{0, 0, -1}, {0, -1, 0}},
	"SW": {{0, -1, 0}, {-1, 0, 0}},
	"NW": {{-1, 0, 0}, {0, 0, 1}},
}

// EdgeSegment returns the render-space endpoints of one side of a hex. Used
// for drawing barriers.
func EdgeSegment(side string, o Orientation) (Vec2, Vec2, error) {
	e, ok := edgeEnds[side]
	if !ok {
		return Vec2{}, Vec2{}, fmt.Errorf("%w %q", ErrInvalidEdgeCode, side)
	}
	b := Basis(o)
	return b.Apply(e[0]), b.Apply(e[1]), nil
}
