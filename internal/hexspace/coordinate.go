package hexspace

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Coordinate is either a named position code or an explicit hex-space
// vector. The zero value is the hex center.
//
// On the wire it is {"Named":"N"} or {"HexSpace":[x,y,z]}; the short forms
// "N" and [x,y,z] are accepted when decoding.
type Coordinate struct {
	name string
	vec  Vec3
	hex  bool
}

// Named builds a coordinate from a position code.
func Named(code string) (Coordinate, error) {
	if _, err := EdgeToCoordinate(code); err != nil {
		return Coordinate{}, err
	}
	return Coordinate{name: code}, nil
}

// MustNamed is Named for compile-time constants.
func MustNamed(code string) Coordinate {
	c, err := Named(code)
	if err != nil {
		panic(err)
	}
	return c
}

// HexSpace builds a coordinate from an explicit vector.
func HexSpace(x, y, z float64) Coordinate {
	return Coordinate{vec: Vec3{x, y, z}, hex: true}
}

// Name returns the position code, or "" for explicit vectors.
func (c Coordinate) Name() string { return c.name }

func (c Coordinate) IsNamed() bool { return !c.hex && c.name != "" }

// Vector returns the coordinate in hex-space.
func (c Coordinate) Vector() Vec3 {
	if c.hex {
		return c.vec
	}
	if c.name == "" {
		return Vec3{}
	}
	// name was validated on construction
	v, _ := EdgeToCoordinate(c.name)
	return v
}

func (c Coordinate) String() string {
	if c.hex {
		return fmt.Sprintf("[%g %g %g]", c.vec.X, c.vec.Y, c.vec.Z)
	}
	if c.name == "" {
		return Center
	}
	return c.name
}

type coordinateJSON struct {
	Named    *string   `json:"Named,omitempty"`
	HexSpace []float64 `json:"HexSpace,omitempty"`
}

func (c Coordinate) MarshalJSON() ([]byte, error) {
	if c.hex {
		return json.Marshal(coordinateJSON{HexSpace: []float64{c.vec.X, c.vec.Y, c.vec.Z}})
	}
	name := c.name
	if name == "" {
		name = Center
	}
	return json.Marshal(coordinateJSON{Named: &name})
}

func (c *Coordinate) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidCoordinate)
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		return c.setNamed(s)
	case '[':
		var xs []float64
		if err := json.Unmarshal(b, &xs); err != nil {
			return err
		}
		return c.setVector(xs)
	}
	var raw coordinateJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch {
	case raw.Named != nil && raw.HexSpace != nil:
		return fmt.Errorf("%w: both Named and HexSpace set", ErrInvalidCoordinate)
	case raw.Named != nil:
		return c.setNamed(*raw.Named)
	case raw.HexSpace != nil:
		return c.setVector(raw.HexSpace)
	}
	return fmt.Errorf("%w: expected Named or HexSpace", ErrInvalidCoordinate)
}

func (c *Coordinate) setNamed(s string) error {
	v, err := Named(s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

func (c *Coordinate) setVector(xs []float64) error {
	if len(xs) != 3 {
		return fmt.Errorf("%w: hex-space vector needs 3 components, got %d", ErrInvalidCoordinate, len(xs))
	}
	*c = HexSpace(xs[0], xs[1], xs[2])
	return nil
}
