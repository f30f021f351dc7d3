package battle

import "strings"

// EntityID identifies an entity on a field
type EntityID int64

// Team identifies the side owning a tile or an entity
type Team string

const (
	TeamUnknown Team = "unknown"
	TeamRed     Team = "red"
	TeamBlue    Team = "blue"
)

// Category tags the four kinds of placeable entities
type Category string

const (
	CategoryCharacter Category = "character"
	CategorySpell     Category = "spell"
	CategoryObstacle  Category = "obstacle"
	CategoryArtifact  Category = "artifact"
)

// TileState represents the panel state of a tile
type TileState string

const (
	TileNormal         TileState = "normal"
	TileCracked        TileState = "cracked"
	TileBroken         TileState = "broken"
	TileEmpty          TileState = "empty"
	TileIce            TileState = "ice"
	TileGrass          TileState = "grass"
	TileLava           TileState = "lava"
	TilePoison         TileState = "poison"
	TileHoly           TileState = "holy"
	TileDirectionLeft  TileState = "direction_left"
	TileDirectionRight TileState = "direction_right"
	TileDirectionUp    TileState = "direction_up"
	TileDirectionDown  TileState = "direction_down"
	TileHidden         TileState = "hidden"
)

// Gameplay constants
const (
	DefaultFieldWidth  = 6
	DefaultFieldHeight = 3
	MaxFieldWidth      = 16
	MaxFieldHeight     = 16

	// BrokenCooldown is how long (seconds) a broken panel stays broken
	BrokenCooldown = 10.0
	// PoisonInterval is how often (seconds) a poison panel drains health
	PoisonInterval = 0.25
	// LavaDamage is dealt once by a lava panel before it cools down
	LavaDamage = 50
	// AntiDamageThreshold is the impact damage above which anti-damage triggers
	AntiDamageThreshold = 10
)

// layoutStates maps battle config layout characters to tile states
var layoutStates = map[rune]TileState{
	'N': TileNormal,
	'C': TileCracked,
	'B': TileBroken,
	'E': TileEmpty,
	'I': TileIce,
	'G': TileGrass,
	'L': TileLava,
	'P': TilePoison,
	'H': TileHoly,
	'<': TileDirectionLeft,
	'>': TileDirectionRight,
	'^': TileDirectionUp,
	'v': TileDirectionDown,
	'.': TileHidden,
}

// TileStateFromChar returns the tile state for a layout character
func TileStateFromChar(c rune) (TileState, bool) {
	state, ok := layoutStates[c]
	return state, ok
}

// CharFromTileState is the inverse of TileStateFromChar
func CharFromTileState(state TileState) rune {
	for c, s := range layoutStates {
		if s == state {
			return c
		}
	}
	return '?'
}

// ParseTeam parses a team name, returning TeamUnknown for anything else
func ParseTeam(s string) Team {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "red", "r":
		return TeamRed
	case "blue", "b":
		return TeamBlue
	default:
		return TeamUnknown
	}
}

// ParseCategory parses an entity category name
func ParseCategory(s string) (Category, bool) {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryCharacter:
		return CategoryCharacter, true
	case CategorySpell:
		return CategorySpell, true
	case CategoryObstacle:
		return CategoryObstacle, true
	case CategoryArtifact:
		return CategoryArtifact, true
	}
	return "", false
}

// isWalkableState reports whether an entity can stand on a tile in this state
func isWalkableState(state TileState) bool {
	return state != TileBroken && state != TileEmpty && state != TileHidden
}

// ParseTileState parses a tile state name such as "cracked" or a layout character
func ParseTileState(s string) (TileState, bool) {
	s = strings.TrimSpace(s)
	if r := []rune(s); len(r) == 1 {
		if state, ok := TileStateFromChar(r[0]); ok {
			return state, true
		}
	}
	want := TileState(strings.ToLower(s))
	for _, state := range layoutStates {
		if state == want {
			return state, true
		}
	}
	return "", false
}
