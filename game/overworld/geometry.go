package overworld

import "math"

// Vec2 is a 2D float position or size
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Vec3 is a world position plus elevation
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Point is an integer tile position
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// OrthoToIsometric applies the 2:1 isometric shear
func OrthoToIsometric(ortho Vec2) Vec2 {
	return Vec2{
		X: (2*ortho.Y + ortho.X) * 0.5,
		Y: (2*ortho.Y - ortho.X) * 0.5,
	}
}

// IsoToOrthogonal is the inverse of OrthoToIsometric
func IsoToOrthogonal(iso Vec2) Vec2 {
	return Vec2{
		X: iso.X - iso.Y,
		Y: (iso.X + iso.Y) * 0.5,
	}
}

// splitFraction returns the integer part and the fractional part of v,
// with the fraction shifted into [0,1) for negative values
func splitFraction(v float64) (whole, frac float64) {
	whole, frac = math.Modf(v)
	if frac < 0 {
		frac += 1
	}
	return whole, frac
}
