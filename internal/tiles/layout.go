package tiles

import (
	"fmt"
	"math"

	"map18xx.dev/internal/hexspace"
)

// Drawing constants, in hex units (corner radius 1).
const (
	// BezierCircle approximates a circular arc with a cubic curve.
	BezierCircle        = 0.551915024494
	PathWidth           = 0.1
	LineWidth           = 0.015
	TokenSize           = 0.269
	StopSize            = 0.11
	StopTextDist        = 0.3
	RevenueCircleRadius = 0.13
)

// CirclePosition returns the render-space center of one token circle of a
// city on a tile turned by rotation radians, relative to the hex center.
func CirclePosition(city City, circle int, o hexspace.Orientation, rotation float64) (hexspace.Vec2, error) {
	rot := hexspace.Rotate(rotation)
	pos := hexspace.Project(city.Position.Vector(), o, rotation)
	bad := func() (hexspace.Vec2, error) {
		return hexspace.Vec2{}, fmt.Errorf("%w: circle %d of a %d-circle city", ErrDefinition, circle, city.Circles)
	}
	switch city.Circles {
	case 1:
		if circle != 0 {
			return bad()
		}
		return pos, nil
	case 2:
		off := rot.Apply(hexspace.Vec2{X: TokenSize})
		switch circle {
		case 0:
			return pos.Sub(off), nil
		case 1:
			return pos.Add(off), nil
		}
		return bad()
	case 3:
		h := TokenSize / math.Sqrt(3)
		offs := []hexspace.Vec2{{X: 0, Y: -2 * h}, {X: -TokenSize, Y: h}, {X: TokenSize, Y: h}}
		if circle < 0 || circle >= len(offs) {
			return bad()
		}
		return pos.Add(offs[circle]), nil
	case 4:
		offs := []hexspace.Vec2{
			{X: -TokenSize, Y: -TokenSize},
			{X: -TokenSize, Y: TokenSize},
			{X: TokenSize, Y: -TokenSize},
			{X: TokenSize, Y: TokenSize},
		}
		if circle < 0 || circle >= len(offs) {
			return bad()
		}
		return pos.Add(offs[circle]), nil
	}
	return hexspace.Vec2{}, fmt.Errorf("%w: cities of %d circles are not supported", ErrDefinition, city.Circles)
}

// Curve is a path drawn as a cubic Bézier, relative to the hex center.
type Curve struct {
	Start, Control1, Control2, End hexspace.Vec2
}

// PathCurve projects p onto a tile turned by rotation radians.
func PathCurve(p Path, o hexspace.Orientation, rotation float64) Curve {
	c1, c2 := p.Controls()
	return Curve{
		Start:    hexspace.Project(p.Start.Vector(), o, rotation),
		Control1: hexspace.Project(c1, o, rotation),
		Control2: hexspace.Project(c2, o, rotation),
		End:      hexspace.Project(p.End.Vector(), o, rotation),
	}
}

// TokenPosition is where a token on circle of city station sits on s,
// relative to the hex center. A tile replaced by a smaller one keeps its
// tokens: circles past the city's capacity sit on the city center, and
// tokens on a city the tile no longer has sit on the hex center.
func TokenPosition(s Spec, station, circle int, o hexspace.Orientation) hexspace.Vec2 {
	cities := s.Cities()
	if station < 0 || station >= len(cities) {
		return hexspace.Vec2{}
	}
	city := cities[station]
	p, err := CirclePosition(city, circle, o, s.Orientation())
	if err != nil {
		return hexspace.Project(city.Position.Vector(), o, s.Orientation())
	}
	return p
}
