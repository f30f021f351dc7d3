package overworld

import (
	"math"
	"testing"
)

const (
	gidFloor     uint32 = 1
	gidStairs    uint32 = 2
	gidWall      uint32 = 3
	gidBadStairs uint32 = 4
	gidAnimated  uint32 = 5
)

const epsilon = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

// createTestMap builds a 5x5 map of 64x32 tiles with the given number of layers;
// layer 0 is fully floored
func createTestMap(layers int) *Map {
	m := NewMap(5, 5, 64, 32)
	ts := &Tileset{Name: "test", FirstGID: 1, TileCount: 5, TileWidth: 64, TileHeight: 32}

	floor := NewTileMeta(0, 1)
	stairs := NewTileMeta(1, 1)
	stairs.Type = TypeStairs
	stairs.Properties["Direction"] = "Up Left"
	wall := NewTileMeta(2, 1)
	wall.CollisionShapes = []Shape{Rect{X: 0, Y: 0, Width: 32, Height: 32}}
	badStairs := NewTileMeta(3, 1)
	badStairs.Type = TypeStairs
	badStairs.Properties["Direction"] = "Sideways"
	animated := NewTileMeta(4, 1)
	animated.Animation.Frames = []Frame{{TileID: 4, Duration: 0.5}, {TileID: 0, Duration: 0.5}}

	for _, meta := range []*TileMeta{floor, stairs, wall, badStairs, animated} {
		m.SetTileset(ts, meta)
	}

	for i := 0; i < layers; i++ {
		m.AddLayer()
	}
	base := m.GetLayer(0)
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			base.SetTileGID(x, y, gidFloor)
		}
	}
	return m
}

type recordingScene struct {
	added   []*WorldSprite
	removed []*WorldSprite
}

func (s *recordingScene) AddSprite(sprite *WorldSprite) {
	s.added = append(s.added, sprite)
}

func (s *recordingScene) RemoveSprite(sprite *WorldSprite) {
	s.removed = append(s.removed, sprite)
}

func TestIsometricRoundTrip(t *testing.T) {
	points := []Vec2{
		{0, 0}, {1, 0}, {0, 1}, {3.5, -2.25}, {-100, 42}, {1e6, -1e6}, {0.1, 0.2},
	}

	for _, p := range points {
		got := OrthoToIsometric(IsoToOrthogonal(p))
		if !almostEqual(got.X, p.X) || !almostEqual(got.Y, p.Y) {
			t.Errorf("OrthoToIsometric(IsoToOrthogonal(%v)) = %v", p, got)
		}
		back := IsoToOrthogonal(OrthoToIsometric(p))
		if !almostEqual(back.X, p.X) || !almostEqual(back.Y, p.Y) {
			t.Errorf("IsoToOrthogonal(OrthoToIsometric(%v)) = %v", p, back)
		}
	}
}

func TestTileSpaceConversions(t *testing.T) {
	m := createTestMap(1)

	world := m.TileToWorld(Vec2{X: 2, Y: 3})
	if world.X != 64 || world.Y != 96 {
		t.Errorf("Expected world (64,96), got %v", world)
	}
	tile := m.WorldToTileSpace(world)
	if tile.X != 2 || tile.Y != 3 {
		t.Errorf("Expected tile (2,3), got %v", tile)
	}

	flat := m.WorldToScreen(world)
	lifted := m.WorldToScreen3(Vec3{X: world.X, Y: world.Y, Z: 2})
	if lifted.X != flat.X || lifted.Y != flat.Y-32 {
		t.Errorf("Expected elevation 2 to lift by 32px, got %v vs %v", lifted, flat)
	}

	m.SetScale(Vec2{X: 2, Y: 2})
	screen := m.WorldToScreen(Vec2{X: 10, Y: 20})
	got := m.ScreenToWorld(Vec2{X: screen.X * 2, Y: screen.Y * 2})
	if !almostEqual(got.X, 10) || !almostEqual(got.Y, 20) {
		t.Errorf("Expected scaled screen round trip to (10,20), got %v", got)
	}

	if h := m.HashTilePosition(Vec2{X: 3.7, Y: 2.2}); h != 13 {
		t.Errorf("Expected hash 13, got %d", h)
	}
}

func TestLayer_Bounds(t *testing.T) {
	m := createTestMap(1)
	layer := m.GetLayer(0)

	tests := []struct {
		name string
		x, y int
	}{
		{"negative x", -1, 0},
		{"negative y", 0, -1},
		{"past cols", 5, 0},
		{"past rows", 0, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if layer.GetTile(tt.x, tt.y) != nil {
				t.Error("Expected nil tile out of bounds")
			}
			if layer.SetTileGID(tt.x, tt.y, gidWall) != nil {
				t.Error("Expected SetTile out of bounds to be a no-op")
			}
		})
	}

	if layer.GetTileAt(-0.5, 0) != nil {
		t.Error("Expected fractional negative position out of bounds")
	}
	if tile := layer.GetTileAt(4.99, 4.99); tile == nil || tile.GID != gidFloor {
		t.Error("Expected floor under (4.99,4.99)")
	}
	if m.GetLayer(1) != nil || m.GetLayer(-1) != nil {
		t.Error("Expected nil layer out of range")
	}
}

func TestLayer_DirtyOnlyOnGIDChange(t *testing.T) {
	m := createTestMap(1)
	m.Update(nil, 0)
	layer := m.GetLayer(0)

	layer.SetTileGID(1, 1, gidFloor)
	if layer.IsModified() {
		t.Error("Expected same gid not to mark layer modified")
	}
	layer.SetTile(1, 1, Tile{GID: gidFloor, FlippedHorizontal: true})
	if layer.IsModified() {
		t.Error("Expected flip-only change not to mark layer modified")
	}
	layer.SetTileGID(1, 1, gidWall)
	if !layer.IsModified() {
		t.Error("Expected gid change to mark layer modified")
	}
}

func TestGetTileMeta(t *testing.T) {
	m := createTestMap(1)

	if m.GetTileMeta(0) != nil {
		t.Error("Expected nil meta for gid 0")
	}
	if m.GetTileMeta(999) != nil {
		t.Error("Expected nil meta for unknown gid")
	}
	if meta := m.GetTileMeta(gidStairs); meta == nil || !meta.IsStairs() {
		t.Error("Expected stairs meta for gid 2")
	}
	if ts := m.GetTilesetForGID(gidWall); ts == nil || ts.Name != "test" {
		t.Error("Expected tileset for gid 3")
	}
	if m.GetTilesetForGID(0) != nil || m.GetTilesetForGID(999) != nil {
		t.Error("Expected no tileset for gid 0 or unknown gid")
	}
	if m.GetTileset("test") == nil || m.GetTileset("missing") != nil {
		t.Error("Expected tileset lookup by name")
	}
	if m.GetTileCount() != 6 {
		t.Errorf("Expected 6 gid slots, got %d", m.GetTileCount())
	}
}

func TestGetElevationAt_FlatTilesAreExact(t *testing.T) {
	m := createTestMap(3)
	m.GetLayer(1).SetTileGID(2, 2, gidFloor)

	positions := []Vec2{{0, 0}, {0.3, 0.7}, {2.5, 2.5}, {4.99, 0.01}, {-3, -3}, {10, 10}}
	for layer := 0; layer < 3; layer++ {
		for _, p := range positions {
			if got := m.GetElevationAt(p.X, p.Y, layer); got != float64(layer) {
				t.Errorf("layer %d at %v: expected %d, got %v", layer, p, layer, got)
			}
		}
	}
}

func TestGetElevationAt_ClampsLayer(t *testing.T) {
	m := createTestMap(2)

	if got := m.GetElevationAt(1.5, 1.5, 9); got != 1 {
		t.Errorf("Expected clamp to top layer 1, got %v", got)
	}
	if got := m.GetElevationAt(1.5, 1.5, -4); got != 0 {
		t.Errorf("Expected clamp to layer 0, got %v", got)
	}
	if got := NewMap(2, 2, 64, 32).GetElevationAt(0.5, 0.5, 0); got != 0 {
		t.Errorf("Expected 0 for map without layers, got %v", got)
	}
}

func TestGetElevationAt_Stairs(t *testing.T) {
	tests := []struct {
		name     string
		tile     Tile
		expected float64
	}{
		{"up left uses 1-fx", Tile{GID: gidStairs}, 1 + 1 - 0.25},
		{"flipped horizontally is up right, 1-fy", Tile{GID: gidStairs, FlippedHorizontal: true}, 1 + 1 - 0.5},
		{"flipped vertically is down left, fy", Tile{GID: gidStairs, FlippedVertical: true}, 1 + 0.5},
		{"flipped both is down right, fx", Tile{GID: gidStairs, FlippedHorizontal: true, FlippedVertical: true}, 1 + 0.25},
		{"unknown direction adds nothing", Tile{GID: gidBadStairs}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := createTestMap(2)
			m.GetLayer(1).SetTile(3, 2, tt.tile)

			got := m.GetElevationAt(3.25, 2.5, 1)
			if !almostEqual(got, tt.expected) {
				t.Errorf("Expected elevation %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestIgnoreTileAbove(t *testing.T) {
	m := createTestMap(2)
	m.GetLayer(0).SetTileGID(1, 1, gidStairs)

	if !m.IgnoreTileAbove(1.5, 1.5, 0) {
		t.Error("Expected stairs to ignore the tile above")
	}
	if m.IgnoreTileAbove(2.5, 2.5, 0) {
		t.Error("Expected floor not to ignore the tile above")
	}
	if m.IgnoreTileAbove(1.5, 1.5, 5) {
		t.Error("Expected missing layer to report false")
	}
}

func TestIsConcealed_DirectlyAbove(t *testing.T) {
	m := createTestMap(2)
	upper := m.GetLayer(1)

	upper.SetTileGID(2, 2, gidFloor)
	if !m.IsConcealed(Point{X: 2, Y: 2}, 0) {
		t.Error("Expected (2,2) on layer 0 concealed by layer 1")
	}

	upper.SetTileGID(2, 2, 0)
	if m.IsConcealed(Point{X: 2, Y: 2}, 0) {
		t.Error("Expected (2,2) visible once the tile above is cleared")
	}
}

func TestIsConcealed_IsometricFootprint(t *testing.T) {
	tests := []struct {
		name     string
		layer    int
		x, y     int
		expected bool
	}{
		{"odd offset covers next diagonal", 1, 3, 3, true},
		{"odd offset ignores other neighbours", 1, 3, 2, false},
		{"even offset shifts diagonally", 2, 3, 3, true},
		{"even offset ignores original cell", 2, 2, 2, false},
		{"third layer covers shifted pair", 3, 4, 4, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := createTestMap(4)
			m.GetLayer(tt.layer).SetTileGID(tt.x, tt.y, gidFloor)

			if got := m.IsConcealed(Point{X: 2, Y: 2}, 0); got != tt.expected {
				t.Errorf("Expected concealed=%v, got %v", tt.expected, got)
			}
		})
	}
}

func TestIsConcealed_TopLayerAndEdges(t *testing.T) {
	m := createTestMap(3)
	m.GetLayer(2).SetTileGID(4, 4, gidFloor)

	if m.IsConcealed(Point{X: 4, Y: 4}, 2) {
		t.Error("Expected top layer never concealed")
	}
	// (4,4) shifts off the grid at even offsets
	if m.IsConcealed(Point{X: 4, Y: 4}, 0) {
		t.Error("Expected shifted cell outside the grid to be skipped")
	}
}

func TestShadows(t *testing.T) {
	m := createTestMap(2)
	m.GetLayer(1).SetTileGID(2, 2, gidFloor)
	m.GetLayer(1).SetTileGID(0, 0, gidStairs)
	m.Update(nil, 0)

	if !m.HasShadow(Point{X: 2, Y: 2}, 0) {
		t.Error("Expected shadow under the upper tile")
	}
	if m.HasShadow(Point{X: 1, Y: 1}, 0) {
		t.Error("Expected no shadow on open cell")
	}
	if m.HasShadow(Point{X: 2, Y: 2}, 1) {
		t.Error("Expected top layer unshadowed")
	}
	if m.HasShadow(Point{X: 0, Y: 0}, 0) {
		t.Error("Expected stairs not to cast a shadow")
	}
	if m.HasShadow(Point{X: -1, Y: 0}, 0) || m.HasShadow(Point{X: 9, Y: 0}, 0) || m.HasShadow(Point{X: 2, Y: 2}, -1) {
		t.Error("Expected out of range to be unshadowed")
	}
}

func TestUpdate_RecomputesShadowsOnlyWhenDirty(t *testing.T) {
	m := createTestMap(3)
	m.Update(nil, 0)
	shadows := m.GetShadowMap()
	start := shadows.GetRevision()

	m.Update(nil, 0.1)
	m.Update(nil, 0.2)
	if shadows.GetRevision() != start {
		t.Errorf("Expected no recomputation without changes, got %d passes", shadows.GetRevision()-start)
	}

	m.GetLayer(1).SetTileGID(1, 1, gidFloor)
	m.GetLayer(2).SetTileGID(3, 3, gidFloor)
	m.GetLayer(2).SetTileGID(4, 4, gidFloor)
	if m.HasShadow(Point{X: 1, Y: 1}, 0) {
		t.Error("Expected stale shadow map before Update")
	}

	m.Update(nil, 0.3)
	if shadows.GetRevision() != start+1 {
		t.Errorf("Expected exactly one recomputation, got %d", shadows.GetRevision()-start)
	}
	if !m.HasShadow(Point{X: 1, Y: 1}, 0) {
		t.Error("Expected shadow after Update")
	}
	for i := 0; i < 3; i++ {
		if m.GetLayer(i).IsModified() {
			t.Errorf("Expected layer %d flag cleared", i)
		}
	}

	m.Update(nil, 0.4)
	if shadows.GetRevision() != start+1 {
		t.Error("Expected no recomputation after flags cleared")
	}
}

func TestUpdate_SpritesAndAnimation(t *testing.T) {
	m := createTestMap(1)
	scene := &recordingScene{}

	o := NewTileObject(7, Tile{GID: gidAnimated})
	o.Name = "fountain"
	o.Position = m.TileToWorld(Vec2{X: 1, Y: 1})
	m.GetLayer(0).AddTileObject(o)
	if m.GetLayer(0).PendingSprites() != 1 {
		t.Fatal("Expected sprite pending until update")
	}

	m.Update(scene, 0.25)
	m.Update(scene, 0.75)

	if len(scene.added) != 1 || scene.added[0] != o.GetWorldSprite() {
		t.Fatalf("Expected sprite added exactly once, got %d", len(scene.added))
	}
	sprite := o.GetWorldSprite()
	if sprite.TileID != 0 {
		t.Errorf("Expected second frame (tile 0) at t=0.75, got %d", sprite.TileID)
	}
	if sprite.Name != "fountain" || sprite.Layer != 0 {
		t.Errorf("Expected sprite synced with object, got %+v", sprite)
	}
	expected := m.WorldToScreen(o.Position)
	if sprite.Position != expected {
		t.Errorf("Expected sprite position %v, got %v", expected, sprite.Position)
	}

	m.Update(scene, 1.1)
	if sprite.TileID != 4 {
		t.Errorf("Expected animation to loop back to tile 4, got %d", sprite.TileID)
	}

	m.RemoveSprites(scene)
	if len(scene.removed) != 1 {
		t.Errorf("Expected one sprite removed, got %d", len(scene.removed))
	}
}

func TestUpdate_NilSceneKeepsSpritesPending(t *testing.T) {
	m := createTestMap(1)
	m.GetLayer(0).AddTileObject(NewTileObject(1, Tile{GID: gidFloor}))

	m.Update(nil, 0)
	if m.GetLayer(0).PendingSprites() != 1 {
		t.Error("Expected sprite kept pending without a scene")
	}

	scene := &recordingScene{}
	m.Update(scene, 0)
	if len(scene.added) != 1 || m.GetLayer(0).PendingSprites() != 0 {
		t.Error("Expected pending sprite handed to the scene")
	}
}

func TestCanMoveTo(t *testing.T) {
	m := createTestMap(2)
	base := m.GetLayer(0)
	base.SetTileGID(1, 1, gidWall)

	rock := NewTileObject(1, Tile{GID: gidFloor})
	rock.Solid = true
	rock.Position = m.TileToWorld(Vec2{X: 3, Y: 3})
	base.AddTileObject(rock)

	bush := NewTileObject(2, Tile{GID: gidFloor})
	bush.Position = m.TileToWorld(Vec2{X: 2, Y: 3})
	base.AddTileObject(bush)

	tests := []struct {
		name     string
		x, y, z  float64
		layer    int
		expected bool
	}{
		{"open floor", 2.5, 2.5, 0, 0, true},
		{"tile collision", 1.5, 1.5, 0, 0, false},
		{"solid object", 3.5, 3.5, 0, 0, false},
		{"next to solid object", 4.5, 3.5, 0, 0, true},
		{"non-solid object", 2.5, 3.5, 0, 0, true},
		{"off grid", 5.5, 0.5, 0, 0, false},
		{"negative", -0.5, 0.5, 0, 0, false},
		{"missing layer", 2.5, 2.5, 0, 4, false},
		{"negative layer", 2.5, 2.5, 0, -1, false},
		{"hovering above wall collision", 1.1, 1.1, 0.9, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.CanMoveTo(tt.x, tt.y, tt.z, tt.layer); got != tt.expected {
				t.Errorf("CanMoveTo(%v,%v,%v,%d) = %v, expected %v", tt.x, tt.y, tt.z, tt.layer, got, tt.expected)
			}
		})
	}
}
