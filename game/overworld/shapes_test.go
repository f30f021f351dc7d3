package overworld

import "testing"

func TestShapes(t *testing.T) {
	triangle := Polygon{X: 10, Y: 10, Points: []Vec2{{0, 0}, {10, 0}, {0, 10}}}

	tests := []struct {
		name     string
		shape    Shape
		x, y     float64
		expected bool
	}{
		{"rect inside", Rect{X: 0, Y: 0, Width: 4, Height: 2}, 3.9, 1.9, true},
		{"rect right edge excluded", Rect{X: 0, Y: 0, Width: 4, Height: 2}, 4, 1, false},
		{"ellipse centre", Ellipse{X: 0, Y: 0, Width: 10, Height: 4}, 5, 2, true},
		{"ellipse corner", Ellipse{X: 0, Y: 0, Width: 10, Height: 4}, 0.5, 0.5, false},
		{"empty ellipse", Ellipse{}, 0, 0, false},
		{"polygon inside", triangle, 12, 12, true},
		{"polygon beyond hypotenuse", triangle, 18, 18, false},
		{"degenerate polygon", Polygon{Points: []Vec2{{0, 0}, {1, 1}}}, 0.5, 0.5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.shape.Intersects(tt.x, tt.y); got != tt.expected {
				t.Errorf("Intersects(%v,%v) = %v, expected %v", tt.x, tt.y, got, tt.expected)
			}
		})
	}
}

func TestRotatedShape(t *testing.T) {
	shape, err := ShapeDefinition{Kind: "rect", X: 0, Y: 0, Width: 10, Height: 2, Rotation: 90}.build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	// a 10x2 bar rotated 90 degrees clockwise hangs down the y axis
	if !shape.Intersects(-1, 5) {
		t.Error("Expected rotated bar to cover (-1,5)")
	}
	if shape.Intersects(5, 1) {
		t.Error("Expected rotated bar to leave (5,1)")
	}
}

func TestDirections(t *testing.T) {
	tests := []struct {
		input    string
		expected Direction
	}{
		{"Up Left", DirectionUpLeft},
		{"up_right", DirectionUpRight},
		{"DownLeft", DirectionDownLeft},
		{"down-right", DirectionDownRight},
		{"Left", DirectionLeft},
		{"", DirectionNone},
		{"Sideways", DirectionNone},
	}
	for _, tt := range tests {
		if got := DirectionFromString(tt.input); got != tt.expected {
			t.Errorf("DirectionFromString(%q) = %v, expected %v", tt.input, got, tt.expected)
		}
	}

	all := []Direction{DirectionNone, DirectionUp, DirectionLeft, DirectionDown, DirectionRight,
		DirectionUpLeft, DirectionUpRight, DirectionDownLeft, DirectionDownRight}
	for _, d := range all {
		if FlipHorizontal(FlipHorizontal(d)) != d {
			t.Errorf("Expected double horizontal flip of %v to be identity", d)
		}
		if FlipVertical(FlipVertical(d)) != d {
			t.Errorf("Expected double vertical flip of %v to be identity", d)
		}
		if DirectionFromString(d.String()) != d {
			t.Errorf("Expected %v to round trip through its name", d)
		}
	}

	if FlipHorizontal(DirectionUpLeft) != DirectionUpRight {
		t.Error("Expected up left to flip horizontally to up right")
	}
	if FlipVertical(DirectionUpLeft) != DirectionDownLeft {
		t.Error("Expected up left to flip vertically to down left")
	}
}

func TestTileRawGID(t *testing.T) {
	raw := uint32(42) | FlagFlippedHorizontal | FlagFlippedDiagonal
	tile := TileFromRawGID(raw)

	if tile.GID != 42 || !tile.FlippedHorizontal || tile.FlippedVertical || !tile.Rotated {
		t.Errorf("Unexpected decode %+v", tile)
	}
	if tile.RawGID() != raw {
		t.Errorf("Expected raw %d, got %d", raw, tile.RawGID())
	}
}

func TestProperties(t *testing.T) {
	p := Properties{"Speed": "2.5", "Count": "3", "Solid": "true", "Bad": "x"}

	if p.GetPropertyFloat("Speed") != 2.5 || p.GetPropertyInt("Count") != 3 || !p.GetPropertyBool("Solid") {
		t.Error("Expected typed property lookups to parse")
	}
	if p.GetPropertyInt("Bad") != 0 || p.GetPropertyBool("Missing") || p.GetProperty("Missing") != "" {
		t.Error("Expected zero values for bad or missing properties")
	}
}
