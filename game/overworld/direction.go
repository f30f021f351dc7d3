package overworld

import "strings"

// Direction is one of the eight isometric facings
type Direction int

const (
	DirectionNone Direction = iota
	DirectionUp
	DirectionLeft
	DirectionDown
	DirectionRight
	DirectionUpLeft
	DirectionUpRight
	DirectionDownLeft
	DirectionDownRight
)

var directionNames = map[Direction]string{
	DirectionNone:      "None",
	DirectionUp:        "Up",
	DirectionLeft:      "Left",
	DirectionDown:      "Down",
	DirectionRight:     "Right",
	DirectionUpLeft:    "Up Left",
	DirectionUpRight:   "Up Right",
	DirectionDownLeft:  "Down Left",
	DirectionDownRight: "Down Right",
}

// String returns the display name used in map properties
func (d Direction) String() string {
	if name, ok := directionNames[d]; ok {
		return name
	}
	return "None"
}

// DirectionFromString parses names like "Up Left", "up_left" or "UpLeft".
// Anything unrecognised is DirectionNone.
func DirectionFromString(s string) Direction {
	key := strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.ToLower(s))
	switch key {
	case "up":
		return DirectionUp
	case "left":
		return DirectionLeft
	case "down":
		return DirectionDown
	case "right":
		return DirectionRight
	case "upleft":
		return DirectionUpLeft
	case "upright":
		return DirectionUpRight
	case "downleft":
		return DirectionDownLeft
	case "downright":
		return DirectionDownRight
	}
	return DirectionNone
}

// FlipHorizontal mirrors the left/right component
func FlipHorizontal(d Direction) Direction {
	switch d {
	case DirectionLeft:
		return DirectionRight
	case DirectionRight:
		return DirectionLeft
	case DirectionUpLeft:
		return DirectionUpRight
	case DirectionUpRight:
		return DirectionUpLeft
	case DirectionDownLeft:
		return DirectionDownRight
	case DirectionDownRight:
		return DirectionDownLeft
	}
	return d
}

// FlipVertical mirrors the up/down component
func FlipVertical(d Direction) Direction {
	switch d {
	case DirectionUp:
		return DirectionDown
	case DirectionDown:
		return DirectionUp
	case DirectionUpLeft:
		return DirectionDownLeft
	case DirectionDownLeft:
		return DirectionUpLeft
	case DirectionUpRight:
		return DirectionDownRight
	case DirectionDownRight:
		return DirectionUpRight
	}
	return d
}
