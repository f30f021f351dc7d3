package overworld

// Scene is the host displaying tile object sprites
type Scene interface {
	AddSprite(sprite *WorldSprite)
	RemoveSprite(sprite *WorldSprite)
}

// WorldSprite is the visual of a tile object as handed to the scene
type WorldSprite struct {
	Name     string
	GID      uint32
	TileID   int
	Position Vec2 // screen space
	Layer    int
	Visible  bool
}

// TileObject is a tile placed freely on a layer: decoration, doors, solid props
type TileObject struct {
	ID         uint32
	Name       string
	Type       string
	Tile       Tile
	Position   Vec2 // world space, iso pixels
	Size       Vec2
	Rotation   float64 // degrees
	Visible    bool
	Solid      bool
	Properties Properties

	sprite *WorldSprite
}

// NewTileObject creates a visible object showing tile
func NewTileObject(id uint32, tile Tile) *TileObject {
	return &TileObject{
		ID:         id,
		Tile:       tile,
		Visible:    true,
		Properties: Properties{},
		sprite:     &WorldSprite{GID: tile.GID, Visible: true},
	}
}

// GetWorldSprite returns the object's sprite
func (o *TileObject) GetWorldSprite() *WorldSprite {
	return o.sprite
}

// Update syncs the sprite with the object's tile animation and position
func (o *TileObject) Update(m *Map) {
	if o.sprite == nil {
		o.sprite = &WorldSprite{}
	}
	o.sprite.Name = o.Name
	o.sprite.GID = o.Tile.GID
	o.sprite.Visible = o.Visible
	o.sprite.Position = m.WorldToScreen(o.Position)

	tileID := 0
	meta := m.GetTileMeta(o.Tile.GID)
	if meta != nil {
		tileID = meta.Animation.CurrentTileID(meta.TileID)
	}
	o.sprite.TileID = tileID
}

// Intersects tests a world-space point against the object. The point is brought
// into the tile's local frame (rotation, scale to tile size, flips) and tested
// against the tile's collision shapes; a tile without shapes collides on its whole
// footprint.
func (o *TileObject) Intersects(m *Map, x, y float64) bool {
	w, h := float64(m.tileWidth)/2, float64(m.tileHeight)

	lx, ly := rotatePoint(x, y, o.Position.X, o.Position.Y, o.Rotation)
	lx -= o.Position.X
	ly -= o.Position.Y

	sizeX, sizeY := o.Size.X, o.Size.Y
	if sizeX <= 0 {
		sizeX = w
	}
	if sizeY <= 0 {
		sizeY = h
	}
	if lx < 0 || ly < 0 || lx >= sizeX || ly >= sizeY {
		return false
	}
	lx *= w / sizeX
	ly *= h / sizeY

	meta := m.GetTileMeta(o.Tile.GID)
	if meta == nil || len(meta.CollisionShapes) == 0 {
		return true
	}
	return o.Tile.Intersects(m, lx, ly)
}

// ShapeObject is a trigger volume such as a warp or a conversation area
type ShapeObject struct {
	ID         uint32
	Name       string
	Type       string
	Shape      Shape
	Visible    bool
	Properties Properties
}

// Intersects reports whether the world-space point lies inside the shape
func (s *ShapeObject) Intersects(x, y float64) bool {
	return s.Shape != nil && s.Shape.Intersects(x, y)
}
