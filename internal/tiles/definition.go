package tiles

import (
	"errors"
	"fmt"
	"math"

	"map18xx.dev/internal/hexspace"
)

// ErrDefinition marks malformed tile data. It is fatal for the asset that
// contains it.
var ErrDefinition = errors.New("invalid tile definition")

// Definition is the physical layout of a tile type. Definitions are built
// once by the catalog loader and shared read-only by every placement that
// uses them.
type Definition struct {
	Name         string               `json:"-"`
	RawPaths     []Path               `json:"paths,omitempty"`
	RawCities    []City               `json:"cities,omitempty"`
	RawStops     []Stop               `json:"stops,omitempty"`
	Lawson       bool                 `json:"is_lawson,omitempty"`
	CodePosition *hexspace.Coordinate `json:"code_position,omitempty"`
	CodeTextID   *int                 `json:"code_text_id,omitempty"`
	RawText      []Text               `json:"text,omitempty"`
	Revenue      *RevenueTrack        `json:"revenue_track,omitempty"`
	RawTerrain   *Terrain             `json:"terrain,omitempty"`
}

// Path is a track segment.
type Path struct {
	Start        hexspace.Coordinate  `json:"start"`
	End          hexspace.Coordinate  `json:"end"`
	StartControl *hexspace.Coordinate `json:"start_control,omitempty"`
	EndControl   *hexspace.Coordinate `json:"end_control,omitempty"`
	IsBridge     bool                 `json:"is_bridge,omitempty"`
}

// City is a revenue station with 1 to 4 token circles.
type City struct {
	Circles         int                 `json:"circles"`
	TextID          int                 `json:"text_id"`
	Position        hexspace.Coordinate `json:"position"`
	RevenuePosition hexspace.Coordinate `json:"revenue_position"`
}

// Stop is a single-point revenue marker.
type Stop struct {
	Position     hexspace.Coordinate `json:"position"`
	TextID       int                 `json:"text_id"`
	RevenueAngle int                 `json:"revenue_angle"`
}

type TextAnchor string

const (
	AnchorStart  TextAnchor = "Start"
	AnchorMiddle TextAnchor = "Middle"
	AnchorEnd    TextAnchor = "End"
)

// Text is a label placed on the tile. ID selects the string from the
// placement's text table.
type Text struct {
	ID       int                 `json:"id"`
	Position hexspace.Coordinate `json:"position"`
	Anchor   TextAnchor          `json:"anchor"`
	Size     *string             `json:"size,omitempty"`
	Weight   *int                `json:"weight,omitempty"`
}

// RevenueTrack shows revenue per phase. Yellow is always present.
type RevenueTrack struct {
	Position hexspace.Coordinate `json:"position"`
	Yellow   int                 `json:"yellow"`
	Green    *int                `json:"green,omitempty"`
	Russet   *int                `json:"russet,omitempty"`
	Grey     *int                `json:"grey,omitempty"`
}

// Terrain marks a building cost, e.g. a mountain or river.
type Terrain struct {
	Position hexspace.Coordinate `json:"position"`
	Kind     string              `json:"type"`
	Cost     int                 `json:"cost,omitempty"`
}

// tileNumberPosition is where the tile number sits, just inside the south
// edge.
var tileNumberPosition = hexspace.HexSpace(0, 0, -0.95)

func (d *Definition) Paths() []Path               { return d.RawPaths }
func (d *Definition) Cities() []City              { return d.RawCities }
func (d *Definition) Stops() []Stop               { return d.RawStops }
func (d *Definition) IsLawson() bool              { return d.Lawson }
func (d *Definition) Terrain() *Terrain           { return d.RawTerrain }
func (d *Definition) RevenueTrack() *RevenueTrack { return d.Revenue }

// TextSpec returns the tile-number label followed by the author's text.
func (d *Definition) TextSpec() []Text {
	out := make([]Text, 0, len(d.RawText)+1)
	out = append(out, Text{ID: 0, Position: tileNumberPosition, Anchor: AnchorEnd})
	return append(out, d.RawText...)
}

// Code returns the secondary label slot. ok is false when the definition has
// none; Validate rejects definitions that set only one half.
func (d *Definition) Code() (textID int, pos hexspace.Coordinate, ok bool) {
	if d.CodeTextID == nil || d.CodePosition == nil {
		return 0, hexspace.Coordinate{}, false
	}
	return *d.CodeTextID, *d.CodePosition, true
}

// Validate checks invariants JSON decoding cannot express.
func (d *Definition) Validate() error {
	for i, c := range d.RawCities {
		if c.Circles < 1 || c.Circles > 4 {
			return fmt.Errorf("%w: %s: city %d has %d circles (want 1-4)", ErrDefinition, d.Name, i, c.Circles)
		}
	}
	if (d.CodePosition == nil) != (d.CodeTextID == nil) {
		return fmt.Errorf("%w: %s: code_position and code_text_id must be given together", ErrDefinition, d.Name)
	}
	for i, t := range d.RawText {
		switch t.Anchor {
		case AnchorStart, AnchorMiddle, AnchorEnd:
		default:
			return fmt.Errorf("%w: %s: text %d has anchor %q", ErrDefinition, d.Name, i, t.Anchor)
		}
	}
	return nil
}

// Radius is the curvature factor applied to the default control points.
// Edge-to-edge segments 120° apart get a gentle curve; everything else uses 1.
func (p Path) Radius() float64 {
	if !p.Start.IsNamed() || !p.End.IsNamed() {
		return 1.0
	}
	a, err1 := hexspace.DirectionToAngle(p.Start.Name())
	b, err2 := hexspace.DirectionToAngle(p.End.Name())
	if err1 != nil || err2 != nil {
		return 1.0
	}
	diff := math.Abs(math.Remainder(a-b, 2*math.Pi))
	if math.Abs(diff-2*math.Pi/3) < 1e-9 {
		return math.Sqrt2 / 2
	}
	return 1.0
}

// Controls returns the two hex-space control points of the cubic curve for
// the path.
func (p Path) Controls() (hexspace.Vec3, hexspace.Vec3) {
	k := p.Radius() * BezierCircle
	c1 := p.Start.Vector().Scale(k)
	c2 := p.End.Vector().Scale(k)
	if p.StartControl != nil {
		c1 = p.StartControl.Vector()
	}
	if p.EndControl != nil {
		c2 = p.EndControl.Vector()
	}
	return c1, c2
}
