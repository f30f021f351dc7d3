package overworld

import "math"

// Shape is a collision or trigger area in iso-pixel space
type Shape interface {
	Intersects(x, y float64) bool
}

// Rect is an axis aligned rectangle anchored at its top-left corner
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// Intersects reports whether (x, y) lies inside the rectangle
func (r Rect) Intersects(x, y float64) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Ellipse is inscribed in the box at (X, Y) with the given size
type Ellipse struct {
	X, Y          float64
	Width, Height float64
}

// Intersects reports whether (x, y) lies inside the ellipse
func (e Ellipse) Intersects(x, y float64) bool {
	if e.Width <= 0 || e.Height <= 0 {
		return false
	}
	rx, ry := e.Width/2, e.Height/2
	dx := (x - (e.X + rx)) / rx
	dy := (y - (e.Y + ry)) / ry
	return dx*dx+dy*dy <= 1
}

// Polygon is a closed polygon; Points are relative to (X, Y)
type Polygon struct {
	X, Y   float64
	Points []Vec2
}

// Intersects uses the even-odd rule
func (p Polygon) Intersects(x, y float64) bool {
	n := len(p.Points)
	if n < 3 {
		return false
	}

	x -= p.X
	y -= p.Y
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := p.Points[i], p.Points[j]
		if (a.Y > y) != (b.Y > y) {
			crossX := (b.X-a.X)*(y-a.Y)/(b.Y-a.Y) + a.X
			if x < crossX {
				inside = !inside
			}
		}
	}
	return inside
}

// rotatePoint rotates (x, y) around (ox, oy) by -degrees, bringing a point into
// the frame of a shape rotated by degrees
func rotatePoint(x, y, ox, oy, degrees float64) (float64, float64) {
	if degrees == 0 {
		return x, y
	}
	rad := -degrees * math.Pi / 180
	sin, cos := math.Sincos(rad)
	dx, dy := x-ox, y-oy
	return ox + dx*cos - dy*sin, oy + dx*sin + dy*cos
}
