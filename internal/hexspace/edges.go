package hexspace

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidEdgeCode  = errors.New("invalid edge code")
	ErrInvalidDirection = errors.New("invalid direction")
)

// Edges lists the six edge codes clockwise from north.
var Edges = []string{"N", "NE", "SE", "S", "SW", "NW"}

// Center is the position code for the middle of a hex.
const Center = "C"

var edgeCoords = map[string]Vec3{
	"N":  {0.0, 0.5, 0.5},
	"NE": {0.5, 0.5, 0.0},
	"SE": {0.5, 0.0, -0.5},
	"S":  {0.0, -0.5, -0.5},
	"SW": {-0.5, -0.5, 0.0},
	"NW": {-0.5, 0.0, 0.5},
	"C":  {0.0, 0.0, 0.0},
}

var directionAngles = map[string]float64{
	"N":  0,
	"NE": math.Pi / 3,
	"SE": 2 * math.Pi / 3,
	"S":  math.Pi,
	"SW": -2 * math.Pi / 3,
	"NW": -math.Pi / 3,
}

// EdgeToCoordinate returns the hex-space midpoint of an edge, or the origin
// for "C".
func EdgeToCoordinate(code string) (Vec3, error) {
	v, ok := edgeCoords[code]
	if !ok {
		return Vec3{}, fmt.Errorf("%w %q", ErrInvalidEdgeCode, code)
	}
	return v, nil
}

// DirectionToAngle converts a compass direction into a rotation in radians.
// "N" is no rotation; each step clockwise adds 60°.
func DirectionToAngle(code string) (float64, error) {
	a, ok := directionAngles[code]
	if !ok {
		return 0, fmt.Errorf("%w %q", ErrInvalidDirection, code)
	}
	return a, nil
}

// IsEdge reports whether code names one of the six edges.
func IsEdge(code string) bool {
	_, ok := directionAngles[code]
	return ok
}
