package hexspace

import "math"

// Vec3 is a point in hex-space. Positions on or inside a hex usually satisfy
// X+Y+Z == 0, but the projection does not require it.
type Vec3 struct {
	X float64
	Y float64
	Z float64
}

// Vec2 is a point in planar render-space, in hex units.
type Vec2 struct {
	X float64
	Y float64
}

// Mat2x3 maps hex-space onto the plane. Columns are the images of the three
// hex-space axes.
type Mat2x3 [2][3]float64

// Mat2 is a planar linear map.
type Mat2 [2][2]float64

func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Scale(k float64) Vec3 { return Vec3{v.X * k, v.Y * k, v.Z * k} }
func (v Vec3) Sum() float64         { return v.X + v.Y + v.Z }
func (v Vec2) Add(o Vec2) Vec2      { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2      { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(k float64) Vec2 { return Vec2{v.X * k, v.Y * k} }
func (v Vec2) Len() float64         { return math.Hypot(v.X, v.Y) }

// Apply projects v onto the plane.
func (m Mat2x3) Apply(v Vec3) Vec2 {
	return Vec2{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
	}
}

// Apply maps v through m.
func (m Mat2) Apply(v Vec2) Vec2 {
	return Vec2{
		X: m[0][0]*v.X + m[0][1]*v.Y,
		Y: m[1][0]*v.X + m[1][1]*v.Y,
	}
}

// Mul returns m*b: b is applied first.
func (m Mat2) Mul(b Mat2x3) Mat2x3 {
	var out Mat2x3
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = m[i][0]*b[0][j] + m[i][1]*b[1][j]
		}
	}
	return out
}
