package overworld

import "math"

// Metadata is the presentation info of a map
type Metadata struct {
	Name                string `json:"name"`
	BackgroundName      string `json:"background,omitempty"`
	BackgroundTexture   string `json:"background_texture,omitempty"`
	BackgroundAnimation string `json:"background_animation,omitempty"`
	BackgroundVelocity  Vec2   `json:"background_velocity"`
	SongPath            string `json:"song,omitempty"`
}

// Map is a stack of isometric tile layers
type Map struct {
	meta       Metadata
	cols, rows int
	tileWidth  int
	tileHeight int
	scale      Vec2

	layers        []*Layer
	tilesets      map[string]*Tileset
	tileToTileset []*Tileset  // indexed by gid, [0] is nil
	tileMetas     []*TileMeta // indexed by gid, [0] is nil
	shadowMap     *ShadowMap
	tilesModified bool
}

// NewMap creates an empty map of cols x rows tiles of the given pixel size
func NewMap(cols, rows, tileWidth, tileHeight int) *Map {
	return &Map{
		cols:          cols,
		rows:          rows,
		tileWidth:     tileWidth,
		tileHeight:    tileHeight,
		scale:         Vec2{X: 1, Y: 1},
		tilesets:      make(map[string]*Tileset),
		tileToTileset: []*Tileset{nil},
		tileMetas:     []*TileMeta{nil},
		shadowMap:     NewShadowMap(cols, rows),
	}
}

// GetCols returns the column count
func (m *Map) GetCols() int {
	return m.cols
}

// GetRows returns the row count
func (m *Map) GetRows() int {
	return m.rows
}

// GetTileSize returns the tile pixel size
func (m *Map) GetTileSize() Point {
	return Point{X: m.tileWidth, Y: m.tileHeight}
}

// GetName returns the map name
func (m *Map) GetName() string {
	return m.meta.Name
}

// SetName sets the map name
func (m *Map) SetName(name string) {
	m.meta.Name = name
}

// GetMetadata returns the presentation info
func (m *Map) GetMetadata() Metadata {
	return m.meta
}

// SetMetadata replaces the presentation info
func (m *Map) SetMetadata(meta Metadata) {
	m.meta = meta
}

// SetScale sets the screen scale used by ScreenToWorld
func (m *Map) SetScale(scale Vec2) {
	m.scale = scale
}

// ScreenToWorld converts scaled screen pixels to world space
func (m *Map) ScreenToWorld(screen Vec2) Vec2 {
	sx, sy := m.scale.X, m.scale.Y
	if sx == 0 {
		sx = 1
	}
	if sy == 0 {
		sy = 1
	}
	return OrthoToIsometric(Vec2{X: screen.X / sx, Y: screen.Y / sy})
}

// WorldToScreen converts world space to screen pixels
func (m *Map) WorldToScreen(world Vec2) Vec2 {
	return IsoToOrthogonal(world)
}

// WorldToScreen3 converts a world position and elevation to screen pixels;
// each elevation step lifts the point by half a tile
func (m *Map) WorldToScreen3(world Vec3) Vec2 {
	screen := IsoToOrthogonal(Vec2{X: world.X, Y: world.Y})
	screen.Y -= world.Z * float64(m.tileHeight) / 2
	return screen
}

// WorldToTileSpace converts world pixels to fractional columns/rows
func (m *Map) WorldToTileSpace(world Vec2) Vec2 {
	return Vec2{
		X: world.X / float64(m.tileWidth) * 2,
		Y: world.Y / float64(m.tileHeight),
	}
}

// TileToWorld converts fractional columns/rows to world pixels
func (m *Map) TileToWorld(tile Vec2) Vec2 {
	return Vec2{
		X: tile.X * float64(m.tileWidth) * 0.5,
		Y: tile.Y * float64(m.tileHeight),
	}
}

// HashTilePosition returns a unique key for the cell under a tile-space position
func (m *Map) HashTilePosition(position Vec2) int {
	return int(position.X) + m.cols*int(position.Y)
}

// GetTileCount returns the size of the gid table, including the empty gid 0
func (m *Map) GetTileCount() int {
	return len(m.tileMetas)
}

// GetTileMeta returns the meta of gid; unknown gids and gid 0 return nil
func (m *Map) GetTileMeta(gid uint32) *TileMeta {
	if int(gid) >= len(m.tileMetas) {
		return m.tileMetas[0]
	}
	return m.tileMetas[gid]
}

// GetTileset returns a tileset by name
func (m *Map) GetTileset(name string) *Tileset {
	return m.tilesets[name]
}

// GetTilesetForGID returns the tileset owning gid
func (m *Map) GetTilesetForGID(gid uint32) *Tileset {
	if int(gid) >= len(m.tileToTileset) {
		return nil
	}
	return m.tileToTileset[gid]
}

// GetTilesets returns the registered tilesets by name
func (m *Map) GetTilesets() map[string]*Tileset {
	return m.tilesets
}

// SetTileset registers meta's gid as belonging to tileset. Registration
// invalidates the shadow map.
func (m *Map) SetTileset(tileset *Tileset, meta *TileMeta) {
	gid := int(meta.GID)
	if gid == 0 {
		return
	}

	if len(m.tileToTileset) <= gid {
		grownSets := make([]*Tileset, gid+1)
		copy(grownSets, m.tileToTileset)
		m.tileToTileset = grownSets

		grownMetas := make([]*TileMeta, gid+1)
		copy(grownMetas, m.tileMetas)
		m.tileMetas = grownMetas
	}

	m.tileMetas[gid] = meta
	m.tileToTileset[gid] = tileset
	m.tilesets[tileset.Name] = tileset
	m.tilesModified = true
}

// GetLayerCount returns the number of layers
func (m *Map) GetLayerCount() int {
	return len(m.layers)
}

// GetLayer returns layer index, or nil out of range
func (m *Map) GetLayer(index int) *Layer {
	if index < 0 || index >= len(m.layers) {
		return nil
	}
	return m.layers[index]
}

// AddLayer appends an empty layer on top of the stack
func (m *Map) AddLayer() *Layer {
	layer := newLayer(len(m.layers), m.cols, m.rows)
	m.layers = append(m.layers, layer)
	m.tilesModified = true
	return layer
}

// Update advances tile animations to time, ticks tile objects, hands new sprites
// to the scene and recomputes shadows if any tile changed since the last pass.
// A nil scene keeps new sprites pending.
func (m *Map) Update(scene Scene, time float64) {
	for _, meta := range m.tileMetas {
		if meta != nil {
			meta.Animation.SyncTime(time)
		}
	}

	for _, layer := range m.layers {
		m.tilesModified = m.tilesModified || layer.tilesModified
		layer.tilesModified = false

		for _, o := range layer.tileObjects {
			o.Update(m)
		}

		if scene == nil {
			continue
		}
		for _, sprite := range layer.spritesForAddition {
			scene.AddSprite(sprite)
		}
		layer.spritesForAddition = nil
	}

	if m.tilesModified {
		m.shadowMap.CalculateShadows(m)
		m.tilesModified = false
	}
}

// RemoveSprites takes every tile object sprite out of the scene
func (m *Map) RemoveSprites(scene Scene) {
	for _, layer := range m.layers {
		for _, o := range layer.tileObjects {
			if sprite := o.GetWorldSprite(); sprite != nil {
				scene.RemoveSprite(sprite)
			}
		}
	}
}

// GetShadowMap returns the cached shadow map
func (m *Map) GetShadowMap() *ShadowMap {
	return m.shadowMap
}

// HasShadow reports whether the cell is shadowed by a higher layer
func (m *Map) HasShadow(tilePos Point, layer int) bool {
	if tilePos.X < 0 || tilePos.Y < 0 || layer < 0 {
		return false
	}
	return m.shadowMap.HasShadow(tilePos.X, tilePos.Y, layer)
}

// CanMoveTo reports whether a tile-space position at elevation z is free on the
// given layer. The sub-tile offset is tested against the tile's collision shapes
// (shifted by the fractional elevation) and the same point in world space against
// every solid tile object of the layer.
func (m *Map) CanMoveTo(x, y, z float64, layerIndex int) bool {
	layer := m.GetLayer(layerIndex)
	if layer == nil {
		return false
	}
	tile := layer.GetTileAt(x, y)
	if tile == nil {
		return false
	}

	tileX, fracX := splitFraction(x)
	tileY, fracY := splitFraction(y)

	halfWidth := float64(m.tileWidth) / 2
	height := float64(m.tileHeight)
	testX := fracX * halfWidth
	testY := fracY * height

	_, relativeZ := math.Modf(z)
	if tile.Intersects(m, testX-relativeZ*height, testY-relativeZ*height) {
		return false
	}

	testX += tileX * halfWidth
	testY += tileY * height
	for _, o := range layer.tileObjects {
		if o.Solid && o.Intersects(m, testX, testY) {
			return false
		}
	}
	return true
}

// GetElevationAt returns the elevation of a tile-space position. The layer index is
// clamped to the stack; on stairs the fractional position adds a slope following the
// ramp direction (flips applied). Unknown directions add nothing.
func (m *Map) GetElevationAt(x, y float64, layerIndex int) float64 {
	if len(m.layers) == 0 {
		return 0
	}
	if layerIndex >= len(m.layers) {
		layerIndex = len(m.layers) - 1
	}
	if layerIndex < 0 {
		layerIndex = 0
	}
	elevation := float64(layerIndex)

	tile := m.layers[layerIndex].GetTileAt(x, y)
	if tile == nil {
		return elevation
	}
	meta := m.GetTileMeta(tile.GID)
	if !meta.IsStairs() {
		return elevation
	}

	_, relativeX := math.Modf(x)
	_, relativeY := math.Modf(y)

	direction := DirectionFromString(meta.Properties.GetProperty("Direction"))
	if tile.FlippedHorizontal {
		direction = FlipHorizontal(direction)
	}
	if tile.FlippedVertical {
		direction = FlipVertical(direction)
	}

	switch direction {
	case DirectionUpLeft:
		return elevation + 1 - relativeX
	case DirectionUpRight:
		return elevation + 1 - relativeY
	case DirectionDownLeft:
		return elevation + relativeY
	case DirectionDownRight:
		return elevation + relativeX
	}
	return elevation
}

// IgnoreTileAbove reports whether the tile at the position is stairs, letting a
// walker see through to the layer above
func (m *Map) IgnoreTileAbove(x, y float64, layerIndex int) bool {
	layer := m.GetLayer(layerIndex)
	if layer == nil {
		return false
	}
	tile := layer.GetTileAt(x, y)
	if tile == nil {
		return false
	}
	return m.GetTileMeta(tile.GID).IsStairs()
}

// IsConcealed reports whether a non-empty tile on a higher layer overlaps the
// screen footprint of tilePos. Every second layer climbed the overlapping cell moves
// one step diagonally; odd offsets also cover the next diagonal cell.
func (m *Map) IsConcealed(tilePos Point, layer int) bool {
	col, row := tilePos.X, tilePos.Y

	for i := layer + 1; i < len(m.layers); i++ {
		offset := i - layer
		odd := offset%2 == 1

		if !odd {
			col++
			row++
		}

		if col < 0 || row < 0 || col >= m.cols || row >= m.rows || i < 0 {
			continue
		}

		above := m.layers[i]
		if above.GetTile(col, row).GID != 0 {
			return true
		}

		if odd {
			if next := above.GetTile(col+1, row+1); next != nil && next.GID != 0 {
				return true
			}
		}
	}
	return false
}
