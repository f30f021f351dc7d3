package overworld

import (
	"math"
	"strconv"
)

// TypeStairs is the TileMeta type of ramp tiles
const TypeStairs = "Stairs"

// Properties are custom key/value pairs attached to tiles and objects
type Properties map[string]string

// GetProperty returns the value for name or ""
func (p Properties) GetProperty(name string) string {
	return p[name]
}

// GetPropertyInt parses name as an int, returning 0 on failure
func (p Properties) GetPropertyInt(name string) int {
	v, err := strconv.Atoi(p[name])
	if err != nil {
		return 0
	}
	return v
}

// GetPropertyFloat parses name as a float, returning 0 on failure
func (p Properties) GetPropertyFloat(name string) float64 {
	v, err := strconv.ParseFloat(p[name], 64)
	if err != nil {
		return 0
	}
	return v
}

// GetPropertyBool parses name as a bool, returning false on failure
func (p Properties) GetPropertyBool(name string) bool {
	v, err := strconv.ParseBool(p[name])
	return err == nil && v
}

// Frame is one step of a tile animation
type Frame struct {
	TileID   int     `json:"tile_id"`
	Duration float64 `json:"duration"` // seconds
}

// Animation cycles through frames on a shared clock so every tile using
// the same meta shows the same frame
type Animation struct {
	Frames []Frame
	time   float64
}

// SyncTime sets the animation clock in seconds
func (a *Animation) SyncTime(t float64) {
	a.time = t
}

// GetTime returns the last synced time
func (a *Animation) GetTime() float64 {
	return a.time
}

// Duration returns the length of one loop
func (a *Animation) Duration() float64 {
	total := 0.0
	for _, f := range a.Frames {
		total += f.Duration
	}
	return total
}

// CurrentFrame returns the index of the frame showing at the synced time, or -1
// for a tile without animation
func (a *Animation) CurrentFrame() int {
	if len(a.Frames) == 0 {
		return -1
	}
	total := a.Duration()
	if total <= 0 {
		return 0
	}

	t := math.Mod(a.time, total)
	if t < 0 {
		t += total
	}
	for i, f := range a.Frames {
		if t < f.Duration {
			return i
		}
		t -= f.Duration
	}
	return len(a.Frames) - 1
}

// CurrentTileID returns the tileset-local id of the showing frame, or fallback
// when the tile is not animated
func (a *Animation) CurrentTileID(fallback int) int {
	i := a.CurrentFrame()
	if i < 0 {
		return fallback
	}
	return a.Frames[i].TileID
}

// TileMeta describes one global tile id
type TileMeta struct {
	TileID          int
	GID             uint32
	Type            string
	Animation       Animation
	Properties      Properties
	CollisionShapes []Shape
	DrawingOffset   Vec2
}

// NewTileMeta creates a meta for tileID of a tileset starting at firstGID
func NewTileMeta(tileID int, firstGID uint32) *TileMeta {
	return &TileMeta{
		TileID:     tileID,
		GID:        firstGID + uint32(tileID),
		Properties: Properties{},
	}
}

// IsStairs reports whether the tile is a ramp
func (m *TileMeta) IsStairs() bool {
	return m != nil && m.Type == TypeStairs
}

// Tileset owns a contiguous range of gids
type Tileset struct {
	Name       string
	FirstGID   uint32
	TileCount  int
	TileWidth  int
	TileHeight int
	Columns    int
	Offset     Vec2
	Texture    string
}

// Contains reports whether gid belongs to the tileset
func (t *Tileset) Contains(gid uint32) bool {
	return gid >= t.FirstGID && gid < t.FirstGID+uint32(t.TileCount)
}
