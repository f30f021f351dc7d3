package overworld

// Flip flags stored in the high bits of raw gids in map data
const (
	FlagFlippedHorizontal uint32 = 0x80000000
	FlagFlippedVertical   uint32 = 0x40000000
	FlagFlippedDiagonal   uint32 = 0x20000000

	gidMask = ^(FlagFlippedHorizontal | FlagFlippedVertical | FlagFlippedDiagonal)
)

// Tile is one cell of a layer
type Tile struct {
	GID               uint32
	FlippedHorizontal bool
	FlippedVertical   bool
	Rotated           bool
}

// TileFromRawGID decodes a gid carrying flip flags
func TileFromRawGID(raw uint32) Tile {
	return Tile{
		GID:               raw & gidMask,
		FlippedHorizontal: raw&FlagFlippedHorizontal != 0,
		FlippedVertical:   raw&FlagFlippedVertical != 0,
		Rotated:           raw&FlagFlippedDiagonal != 0,
	}
}

// RawGID encodes the tile back into a flagged gid
func (t Tile) RawGID() uint32 {
	raw := t.GID
	if t.FlippedHorizontal {
		raw |= FlagFlippedHorizontal
	}
	if t.FlippedVertical {
		raw |= FlagFlippedVertical
	}
	if t.Rotated {
		raw |= FlagFlippedDiagonal
	}
	return raw
}

// IsEmpty reports whether the cell holds no tile
func (t Tile) IsEmpty() bool {
	return t.GID == 0
}

// Intersects tests (x, y), in iso pixels relative to the tile's top-left corner,
// against the collision shapes of the tile's meta. Tiles without shapes never collide.
func (t Tile) Intersects(m *Map, x, y float64) bool {
	meta := m.GetTileMeta(t.GID)
	if meta == nil || len(meta.CollisionShapes) == 0 {
		return false
	}

	w, h := float64(m.tileWidth)/2, float64(m.tileHeight)
	if t.FlippedHorizontal {
		x = w - x
	}
	if t.FlippedVertical {
		y = h - y
	}

	for _, shape := range meta.CollisionShapes {
		if shape.Intersects(x, y) {
			return true
		}
	}
	return false
}
