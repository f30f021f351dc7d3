package overworld

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

var ErrInvalidMap = errors.New("invalid map definition")

// Definition is the JSON form of a map
type Definition struct {
	Metadata
	Description string              `json:"description,omitempty"`
	Cols        int                 `json:"cols"`
	Rows        int                 `json:"rows"`
	TileWidth   int                 `json:"tile_width"`
	TileHeight  int                 `json:"tile_height"`
	Tilesets    []TilesetDefinition `json:"tilesets"`
	Layers      []LayerDefinition   `json:"layers"`
}

// TilesetDefinition lists the tiles of one tileset; tiles without an entry get a
// plain meta
type TilesetDefinition struct {
	Name       string               `json:"name"`
	FirstGID   uint32               `json:"first_gid"`
	TileCount  int                  `json:"tile_count"`
	TileWidth  int                  `json:"tile_width"`
	TileHeight int                  `json:"tile_height"`
	Columns    int                  `json:"columns"`
	Offset     Vec2                 `json:"offset"`
	Texture    string               `json:"texture,omitempty"`
	Tiles      []TileMetaDefinition `json:"tiles,omitempty"`
}

// TileMetaDefinition customises one tile of a tileset
type TileMetaDefinition struct {
	ID         int               `json:"id"`
	Type       string            `json:"type,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
	Animation  []Frame           `json:"animation,omitempty"`
	Collision  []ShapeDefinition `json:"collision,omitempty"`
	Offset     Vec2              `json:"offset"`
}

// ShapeDefinition is a rect, ellipse or polygon
type ShapeDefinition struct {
	Kind     string  `json:"kind"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width,omitempty"`
	Height   float64 `json:"height,omitempty"`
	Rotation float64 `json:"rotation,omitempty"`
	Points   []Vec2  `json:"points,omitempty"`
}

// LayerDefinition holds row-major raw gids (flip flags allowed) and objects
type LayerDefinition struct {
	Name    string             `json:"name"`
	Hidden  bool               `json:"hidden,omitempty"`
	Data    []uint32           `json:"data,omitempty"`
	Objects []ObjectDefinition `json:"objects,omitempty"`
}

// ObjectDefinition is a tile object when GID is set, otherwise a shape object
type ObjectDefinition struct {
	ID         uint32            `json:"id"`
	Name       string            `json:"name,omitempty"`
	Type       string            `json:"type,omitempty"`
	GID        uint32            `json:"gid,omitempty"`
	X          float64           `json:"x"`
	Y          float64           `json:"y"`
	Width      float64           `json:"width,omitempty"`
	Height     float64           `json:"height,omitempty"`
	Rotation   float64           `json:"rotation,omitempty"`
	Hidden     bool              `json:"hidden,omitempty"`
	Solid      bool              `json:"solid,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
	Shape      *ShapeDefinition  `json:"shape,omitempty"`
}

// LoadDefinition reads a JSON map definition
func LoadDefinition(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse map '%s': %w", path, err)
	}
	return &def, nil
}

// Validate checks sizes, gid ranges and shapes
func (d *Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidMap)
	}
	if d.Cols <= 0 || d.Rows <= 0 {
		return fmt.Errorf("%w: size must be positive, got %dx%d", ErrInvalidMap, d.Cols, d.Rows)
	}
	if d.TileWidth <= 0 || d.TileHeight <= 0 {
		return fmt.Errorf("%w: tile size must be positive, got %dx%d", ErrInvalidMap, d.TileWidth, d.TileHeight)
	}

	names := make(map[string]bool)
	var ranges [][2]uint32
	for _, ts := range d.Tilesets {
		if ts.Name == "" {
			return fmt.Errorf("%w: tileset name is required", ErrInvalidMap)
		}
		if names[ts.Name] {
			return fmt.Errorf("%w: duplicate tileset %q", ErrInvalidMap, ts.Name)
		}
		names[ts.Name] = true
		if ts.FirstGID == 0 || ts.TileCount <= 0 {
			return fmt.Errorf("%w: tileset %q needs first_gid >= 1 and tile_count >= 1", ErrInvalidMap, ts.Name)
		}
		last := ts.FirstGID + uint32(ts.TileCount) - 1
		for _, r := range ranges {
			if ts.FirstGID <= r[1] && last >= r[0] {
				return fmt.Errorf("%w: tileset %q overlaps gids %d-%d", ErrInvalidMap, ts.Name, r[0], r[1])
			}
		}
		ranges = append(ranges, [2]uint32{ts.FirstGID, last})

		for _, tile := range ts.Tiles {
			if tile.ID < 0 || tile.ID >= ts.TileCount {
				return fmt.Errorf("%w: tileset %q has no tile %d", ErrInvalidMap, ts.Name, tile.ID)
			}
			for _, shape := range tile.Collision {
				if _, err := shape.build(); err != nil {
					return fmt.Errorf("%w: tileset %q tile %d: %v", ErrInvalidMap, ts.Name, tile.ID, err)
				}
			}
		}
	}

	known := func(gid uint32) bool {
		if gid == 0 {
			return true
		}
		for _, r := range ranges {
			if gid >= r[0] && gid <= r[1] {
				return true
			}
		}
		return false
	}

	for i, layer := range d.Layers {
		if len(layer.Data) != 0 && len(layer.Data) != d.Cols*d.Rows {
			return fmt.Errorf("%w: layer %d has %d tiles, want %d", ErrInvalidMap, i, len(layer.Data), d.Cols*d.Rows)
		}
		for j, raw := range layer.Data {
			if gid := TileFromRawGID(raw).GID; !known(gid) {
				return fmt.Errorf("%w: layer %d tile %d uses unknown gid %d", ErrInvalidMap, i, j, gid)
			}
		}
		for _, obj := range layer.Objects {
			if obj.GID != 0 {
				if !known(TileFromRawGID(obj.GID).GID) {
					return fmt.Errorf("%w: layer %d object %d uses unknown gid %d", ErrInvalidMap, i, obj.ID, obj.GID)
				}
				continue
			}
			if obj.Shape == nil {
				return fmt.Errorf("%w: layer %d object %d has neither gid nor shape", ErrInvalidMap, i, obj.ID)
			}
			if _, err := obj.Shape.build(); err != nil {
				return fmt.Errorf("%w: layer %d object %d: %v", ErrInvalidMap, i, obj.ID, err)
			}
		}
	}
	return nil
}

// Build validates the definition and creates the map with its shadows computed
func (d *Definition) Build() (*Map, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	m := NewMap(d.Cols, d.Rows, d.TileWidth, d.TileHeight)
	m.SetMetadata(d.Metadata)

	for _, tsd := range d.Tilesets {
		ts := &Tileset{
			Name:       tsd.Name,
			FirstGID:   tsd.FirstGID,
			TileCount:  tsd.TileCount,
			TileWidth:  tsd.TileWidth,
			TileHeight: tsd.TileHeight,
			Columns:    tsd.Columns,
			Offset:     tsd.Offset,
			Texture:    tsd.Texture,
		}

		custom := make(map[int]TileMetaDefinition, len(tsd.Tiles))
		for _, t := range tsd.Tiles {
			custom[t.ID] = t
		}

		for id := 0; id < tsd.TileCount; id++ {
			meta := NewTileMeta(id, tsd.FirstGID)
			if t, ok := custom[id]; ok {
				meta.Type = t.Type
				meta.DrawingOffset = t.Offset
				meta.Animation.Frames = append([]Frame(nil), t.Animation...)
				for k, v := range t.Properties {
					meta.Properties[k] = v
				}
				for _, sd := range t.Collision {
					shape, _ := sd.build()
					meta.CollisionShapes = append(meta.CollisionShapes, shape)
				}
			}
			m.SetTileset(ts, meta)
		}
	}

	for _, ld := range d.Layers {
		layer := m.AddLayer()
		layer.SetName(ld.Name)
		layer.SetVisible(!ld.Hidden)

		for i, raw := range ld.Data {
			layer.SetTile(i%d.Cols, i/d.Cols, TileFromRawGID(raw))
		}

		for _, od := range ld.Objects {
			if od.GID != 0 {
				o := NewTileObject(od.ID, TileFromRawGID(od.GID))
				o.Name = od.Name
				o.Type = od.Type
				o.Position = Vec2{X: od.X, Y: od.Y}
				o.Size = Vec2{X: od.Width, Y: od.Height}
				o.Rotation = od.Rotation
				o.Visible = !od.Hidden
				o.Solid = od.Solid
				for k, v := range od.Properties {
					o.Properties[k] = v
				}
				layer.AddTileObject(o)
				continue
			}

			shape, _ := od.Shape.build()
			layer.AddShapeObject(&ShapeObject{
				ID:         od.ID,
				Name:       od.Name,
				Type:       od.Type,
				Shape:      shape,
				Visible:    !od.Hidden,
				Properties: Properties(od.Properties),
			})
		}
	}

	m.Update(nil, 0)
	return m, nil
}

func (s ShapeDefinition) build() (Shape, error) {
	var shape Shape
	switch strings.ToLower(s.Kind) {
	case "rect", "rectangle", "":
		if s.Width <= 0 || s.Height <= 0 {
			return nil, fmt.Errorf("rect needs a positive size")
		}
		shape = Rect{X: s.X, Y: s.Y, Width: s.Width, Height: s.Height}
	case "ellipse":
		if s.Width <= 0 || s.Height <= 0 {
			return nil, fmt.Errorf("ellipse needs a positive size")
		}
		shape = Ellipse{X: s.X, Y: s.Y, Width: s.Width, Height: s.Height}
	case "polygon":
		if len(s.Points) < 3 {
			return nil, fmt.Errorf("polygon needs at least 3 points")
		}
		shape = Polygon{X: s.X, Y: s.Y, Points: append([]Vec2(nil), s.Points...)}
	default:
		return nil, fmt.Errorf("unknown shape kind %q", s.Kind)
	}

	if s.Rotation != 0 {
		shape = rotated{shape: shape, originX: s.X, originY: s.Y, degrees: s.Rotation}
	}
	return shape, nil
}

// rotated turns a shape around its anchor
type rotated struct {
	shape            Shape
	originX, originY float64
	degrees          float64
}

func (r rotated) Intersects(x, y float64) bool {
	x, y = rotatePoint(x, y, r.originX, r.originY, r.degrees)
	return r.shape.Intersects(x, y)
}
