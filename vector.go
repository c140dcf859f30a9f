package server

import "math"

// Vec3 is a world-space position or velocity. Y is vertical.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

func (v Vec3) Dot(o Vec3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

func (v Vec3) Length() float64 {
	return math.Sqrt(v.Dot(v))
}

// HorizontalLength measures speed in the x/z plane.
func (v Vec3) HorizontalLength() float64 {
	return math.Hypot(v.X, v.Z)
}

// Normalized returns a unit vector, or the zero vector for degenerate input.
func (v Vec3) Normalized() Vec3 {
	length := v.Length()
	if length == 0 {
		return Vec3{}
	}
	return v.Scale(1 / length)
}

// distance measures full 3D Euclidean separation.
func distance(a, b Vec3) float64 {
	return a.Sub(b).Length()
}

// Rotation is a yaw/pitch pair in radians. Pitch is clamped short of ±π/2 to
// avoid gimbal flip.
type Rotation struct {
	Yaw   float64 `json:"yaw"`
	Pitch float64 `json:"pitch"`
}

const maxPitch = math.Pi/2 - 0.01

// Clamped returns the rotation with pitch limited to the safe range.
func (r Rotation) Clamped() Rotation {
	r.Pitch = clamp(r.Pitch, -maxPitch, maxPitch)
	return r
}

// clamp limits value to the range [min, max].
func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
