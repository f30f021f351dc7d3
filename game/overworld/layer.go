package overworld

import "math"

// Layer is one elevation of the map
type Layer struct {
	index   int
	name    string
	cols    int
	rows    int
	tiles   []Tile // row-major
	visible bool

	tileObjects        []*TileObject
	shapeObjects       []*ShapeObject
	spritesForAddition []*WorldSprite

	tilesModified bool
}

func newLayer(index, cols, rows int) *Layer {
	return &Layer{
		index:   index,
		cols:    cols,
		rows:    rows,
		tiles:   make([]Tile, cols*rows),
		visible: true,
	}
}

// GetIndex returns the layer's elevation
func (l *Layer) GetIndex() int {
	return l.index
}

// GetName returns the layer name
func (l *Layer) GetName() string {
	return l.name
}

// SetName sets the layer name
func (l *Layer) SetName(name string) {
	l.name = name
}

// GetTile returns the tile at (x, y), or nil out of bounds
func (l *Layer) GetTile(x, y int) *Tile {
	if x < 0 || y < 0 || x >= l.cols || y >= l.rows {
		return nil
	}
	return &l.tiles[y*l.cols+x]
}

// GetTileAt returns the tile under a fractional tile-space position
func (l *Layer) GetTileAt(x, y float64) *Tile {
	return l.GetTile(int(math.Floor(x)), int(math.Floor(y)))
}

// SetTile stores tile at (x, y) and returns the stored cell, or nil out of bounds.
// Changing the gid marks the layer modified.
func (l *Layer) SetTile(x, y int, tile Tile) *Tile {
	stored := l.GetTile(x, y)
	if stored == nil {
		return nil
	}
	if stored.GID != tile.GID {
		l.tilesModified = true
	}
	*stored = tile
	return stored
}

// SetTileGID stores an unflipped tile
func (l *Layer) SetTileGID(x, y int, gid uint32) *Tile {
	return l.SetTile(x, y, Tile{GID: gid})
}

// SetTileAt stores gid under a fractional tile-space position
func (l *Layer) SetTileAt(x, y float64, gid uint32) *Tile {
	return l.SetTileGID(int(math.Floor(x)), int(math.Floor(y)), gid)
}

// IsModified reports whether a gid changed since the last Map.Update
func (l *Layer) IsModified() bool {
	return l.tilesModified
}

// SetVisible toggles drawing of the layer
func (l *Layer) SetVisible(visible bool) {
	l.visible = visible
}

// IsVisible reports the visible flag
func (l *Layer) IsVisible() bool {
	return l.visible
}

// AddTileObject appends an object; its sprite is handed to the scene on the next update
func (l *Layer) AddTileObject(o *TileObject) {
	l.tileObjects = append(l.tileObjects, o)
	sprite := o.GetWorldSprite()
	if sprite != nil {
		sprite.Layer = l.index
		l.spritesForAddition = append(l.spritesForAddition, sprite)
	}
}

// GetTileObject finds an object by id
func (l *Layer) GetTileObject(id uint32) (*TileObject, bool) {
	for _, o := range l.tileObjects {
		if o.ID == id {
			return o, true
		}
	}
	return nil, false
}

// GetTileObjectByName finds the first object with name
func (l *Layer) GetTileObjectByName(name string) (*TileObject, bool) {
	for _, o := range l.tileObjects {
		if o.Name == name {
			return o, true
		}
	}
	return nil, false
}

// GetTileObjects returns the layer's tile objects
func (l *Layer) GetTileObjects() []*TileObject {
	return l.tileObjects
}

// AddShapeObject appends a trigger volume
func (l *Layer) AddShapeObject(s *ShapeObject) {
	l.shapeObjects = append(l.shapeObjects, s)
}

// GetShapeObject finds a shape by id
func (l *Layer) GetShapeObject(id uint32) (*ShapeObject, bool) {
	for _, s := range l.shapeObjects {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

// GetShapeObjectByName finds the first shape with name
func (l *Layer) GetShapeObjectByName(name string) (*ShapeObject, bool) {
	for _, s := range l.shapeObjects {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// GetShapeObjects returns the layer's shapes
func (l *Layer) GetShapeObjects() []*ShapeObject {
	return l.shapeObjects
}

// PendingSprites returns how many sprites wait to be handed to the scene
func (l *Layer) PendingSprites() int {
	return len(l.spritesForAddition)
}
