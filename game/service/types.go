package service

import (
	"time"

	"github.com/wricardo/netbattle/game/battle"
)

// SessionInfo provides information about a battle session
type SessionInfo struct {
	ID             string                `json:"id"`
	ConfigName     string                `json:"config_name"`
	CreatedAt      time.Time             `json:"created_at"`
	LastAccessedAt time.Time             `json:"last_accessed_at"`
	Elapsed        float64               `json:"elapsed"`
	Steps          int                   `json:"steps"`
	Mob            *MobInfo              `json:"mob,omitempty"`
	Field          *battle.FieldSnapshot `json:"field"`
	FieldConfig    *battle.FieldConfig   `json:"field_config"`
}

// MobInfo summarises the enemy formation of a session
type MobInfo struct {
	Name      string `json:"name"`
	Remaining int    `json:"remaining"`
	Cleared   bool   `json:"cleared"`
}

// PlaceRequest asks for a new entity on the field
type PlaceRequest struct {
	Category string  `json:"category"` // character, spell, obstacle, artifact
	Team     string  `json:"team"`
	Name     string  `json:"name"`
	X        int     `json:"x"`
	Y        int     `json:"y"`
	Health   int     `json:"health,omitempty"`
	Damage   int     `json:"damage,omitempty"`
	Lifetime float64 `json:"lifetime,omitempty"`
	Hitbox   bool    `json:"hitbox,omitempty"`
}

// PlaceResult reports whether the placement landed
type PlaceResult struct {
	Placed  bool                   `json:"placed"`
	Entity  *battle.EntitySnapshot `json:"entity,omitempty"`
	Message string                 `json:"message"`
}

// MoveRequest reserves a destination tile for an entity
type MoveRequest struct {
	Entity     battle.EntityID `json:"entity"`
	X          int             `json:"x"`
	Y          int             `json:"y"`
	IgnoreTeam bool            `json:"ignore_team,omitempty"`
}

// MoveResult describes the move state after an operation
type MoveResult struct {
	Success bool             `json:"success"`
	Entity  battle.EntityID  `json:"entity"`
	State   battle.MoveState `json:"state"`
	FromX   int              `json:"from_x"`
	FromY   int              `json:"from_y"`
	ToX     int              `json:"to_x"`
	ToY     int              `json:"to_y"`
	Message string           `json:"message"`
}

// StepRequest advances the simulation; Steps defaults to 1
type StepRequest struct {
	Elapsed float64 `json:"elapsed"`
	Steps   int     `json:"steps,omitempty"`
}

// StepResult reports what a step changed
type StepResult struct {
	Steps    int                   `json:"steps"`
	Elapsed  float64               `json:"elapsed"`
	Events   []BattleEvent         `json:"events"`
	Field    *battle.FieldSnapshot `json:"field"`
	Mob      *MobInfo              `json:"mob,omitempty"`
	Finished bool                  `json:"finished"`
}

// BattleEvent represents something that happened during a step
type BattleEvent struct {
	Type      string          `json:"type"` // "deleted", "damaged", "tile", "cleared"
	Message   string          `json:"message"`
	Entity    battle.EntityID `json:"entity,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// TileRequest changes the state and/or team of a tile
type TileRequest struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	State string `json:"state,omitempty"`
	Team  string `json:"team,omitempty"`
}

// ConfigInfo provides information about a battle configuration
type ConfigInfo struct {
	Filename    string `json:"filename"`
	ConfigID    string `json:"config_id"` // The identifier to use for session creation
	Name        string `json:"name"`      // Display name
	Description string `json:"description"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Mob         string `json:"mob,omitempty"`
}

// MapInfo provides information about an overworld map
type MapInfo struct {
	Filename   string `json:"filename"`
	MapID      string `json:"map_id"`
	Name       string `json:"name"`
	Cols       int    `json:"cols"`
	Rows       int    `json:"rows"`
	TileWidth  int    `json:"tile_width"`
	TileHeight int    `json:"tile_height"`
	Layers     int    `json:"layers"`
	Song       string `json:"song,omitempty"`
}

// MapQuery selects a tile-space position on a layer
type MapQuery struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
	Layer int     `json:"layer"`
}

// MapQueryResult answers every spatial question about one position
type MapQueryResult struct {
	Map         string  `json:"map"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Layer       int     `json:"layer"`
	GID         uint32  `json:"gid"`
	TileType    string  `json:"tile_type,omitempty"`
	Elevation   float64 `json:"elevation"`
	CanMove     bool    `json:"can_move"`
	Concealed   bool    `json:"concealed"`
	Shadowed    bool    `json:"shadowed"`
	IgnoreAbove bool    `json:"ignore_above"`
	ScreenX     float64 `json:"screen_x"`
	ScreenY     float64 `json:"screen_y"`
}
