package battle

import "log"

// DeleteListener is notified when a character is removed from the field
type DeleteListener interface {
	OnDeleteCharacter(c *Character)
}

// DeleteListenerFunc adapts a function to DeleteListener
type DeleteListenerFunc func(c *Character)

// OnDeleteCharacter calls f(c)
func (f DeleteListenerFunc) OnDeleteCharacter(c *Character) {
	f(c)
}

// pendingEntry is a placement requested while the field was updating
type pendingEntry struct {
	category Category
	x, y     int
	id       EntityID
	entity   Placeable
}

// Field owns the tile grid and mediates entity placement
type Field struct {
	width  int
	height int
	tiles  [][]*Tile // tiles[x-1][y-1]

	isBattleActive bool
	isUpdating     bool
	pending        []pendingEntry

	moves     map[EntityID]*Move
	listeners []DeleteListener
	nextID    EntityID
}

// NewField creates a width x height field of normal, unowned tiles.
// The battle starts inactive.
func NewField(width, height int) *Field {
	f := &Field{
		width:  width,
		height: height,
		moves:  make(map[EntityID]*Move),
	}

	f.tiles = make([][]*Tile, width)
	for x := 0; x < width; x++ {
		f.tiles[x] = make([]*Tile, height)
		for y := 0; y < height; y++ {
			f.tiles[x][y] = newTile(f, x+1, y+1)
		}
	}

	return f
}

// GetWidth returns the number of columns
func (f *Field) GetWidth() int {
	return f.width
}

// GetHeight returns the number of rows
func (f *Field) GetHeight() int {
	return f.height
}

// NextID allocates a fresh entity ID
func (f *Field) NextID() EntityID {
	f.nextID++
	return f.nextID
}

// IsUpdating reports whether an Update pass is in progress
func (f *Field) IsUpdating() bool {
	return f.isUpdating
}

// IsBattleActive reports the flag set by SetBattleActive
func (f *Field) IsBattleActive() bool {
	return f.isBattleActive
}

// GetAt returns the tile at (x, y), or nil when outside [1,width]x[1,height]
func (f *Field) GetAt(x, y int) *Tile {
	if x < 1 || x > f.width || y < 1 || y > f.height {
		return nil
	}
	return f.tiles[x-1][y-1]
}

// SetAt assigns the team of the tile at (x, y); out of bounds is a no-op
func (f *Field) SetAt(x, y int, team Team) {
	if tile := f.GetAt(x, y); tile != nil {
		tile.SetTeam(team)
	}
}

// SplitTeams gives columns [1,redColumns] to red and the rest to blue
func (f *Field) SplitTeams(redColumns int) {
	for x := 1; x <= f.width; x++ {
		team := TeamBlue
		if x <= redColumns {
			team = TeamRed
		}
		for y := 1; y <= f.height; y++ {
			f.SetAt(x, y, team)
		}
	}
}

// FindTiles returns every tile passing query, column by column
func (f *Field) FindTiles(query func(t *Tile) bool) []*Tile {
	var result []*Tile
	for x := 0; x < f.width; x++ {
		for y := 0; y < f.height; y++ {
			if query(f.tiles[x][y]) {
				result = append(result, f.tiles[x][y])
			}
		}
	}
	return result
}

// FindEntities returns every entity on the field passing query,
// column by column and in arrival order within a tile
func (f *Field) FindEntities(query func(e Placeable) bool) []Placeable {
	var result []Placeable
	for x := 0; x < f.width; x++ {
		for y := 0; y < f.height; y++ {
			result = append(result, f.tiles[x][y].FindEntities(query)...)
		}
	}
	return result
}

// GetEntity returns the placed entity with the given ID
func (f *Field) GetEntity(id EntityID) Placeable {
	found := f.FindEntities(func(e Placeable) bool { return e.GetID() == id })
	if len(found) == 0 {
		return nil
	}
	return found[0]
}

// AddEntity places p at (x, y) using its AdoptTile routine. While the field is
// updating the request is queued and resolved when the pass ends. Coordinates
// outside the field are dropped; the result reports whether p was placed or queued.
func (f *Field) AddEntity(p Placeable, x, y int) bool {
	tile := f.GetAt(x, y)
	if tile == nil {
		return false
	}

	if f.isUpdating {
		f.pending = append(f.pending, pendingEntry{
			category: p.GetCategory(),
			x:        x,
			y:        y,
			id:       p.GetID(),
			entity:   p,
		})
		return true
	}

	f.place(p, tile)
	return true
}

// AddEntityAt places p on dest, which must belong to this field
func (f *Field) AddEntityAt(p Placeable, dest *Tile) bool {
	if dest == nil || dest.field != f {
		return false
	}
	return f.AddEntity(p, dest.GetX(), dest.GetY())
}

// place commits occupancy immediately
func (f *Field) place(p Placeable, tile *Tile) {
	p.AdoptTile(tile)
	tile.addEntity(p)
}

// PendingCount returns how many placements wait for the end of the pass
func (f *Field) PendingCount() int {
	return len(f.pending)
}

// TileRequestsRemovalOfQueued drops queued placements of entity id onto tile.
// A nil tile drops every queued placement of id, whatever its destination.
func (f *Field) TileRequestsRemovalOfQueued(tile *Tile, id EntityID) {
	kept := f.pending[:0]
	for _, entry := range f.pending {
		if entry.id == id && (tile == nil || (entry.x == tile.GetX() && entry.y == tile.GetY())) {
			log.Printf("battle: cancelled queued %s %d at (%d,%d)", entry.category, id, entry.x, entry.y)
			continue
		}
		kept = append(kept, entry)
	}
	f.pending = kept
}

// SetBattleActive propagates the battle state to every tile
func (f *Field) SetBattleActive(state bool) {
	f.isBattleActive = state
	for _, column := range f.tiles {
		for _, tile := range column {
			tile.setBattleActive(state)
		}
	}
}

// Subscribe registers a listener for character deletion
func (f *Field) Subscribe(listener DeleteListener) {
	f.listeners = append(f.listeners, listener)
}

// Update advances one simulation tick. Tiles tick first, then every live entity
// once, then deleted entities are removed, and finally queued placements are
// applied in the order they were requested.
func (f *Field) Update(elapsed float64) {
	f.isUpdating = true
	defer func() { f.isUpdating = false }()

	for _, column := range f.tiles {
		for _, tile := range column {
			tile.Update(elapsed)
		}
	}

	entities := f.FindEntities(func(Placeable) bool { return true })
	for _, e := range entities {
		if !e.IsDeleted() {
			e.Update(elapsed)
		}
	}

	f.removeDeleted()
	f.flushPending()
}

// removeDeleted drops deleted entities from their tiles and notifies listeners
func (f *Field) removeDeleted() {
	for _, column := range f.tiles {
		for _, tile := range column {
			for _, e := range tile.FindEntities(func(e Placeable) bool { return e.IsDeleted() }) {
				tile.RemoveEntityByID(e.GetID())
				f.cancelMove(e.GetID())
				f.TileRequestsRemovalOfQueued(nil, e.GetID())

				if c, ok := e.(*Character); ok {
					for _, l := range f.listeners {
						l.OnDeleteCharacter(c)
					}
				}
			}
		}
	}
}

// flushPending applies queued placements FIFO. Entries queued while flushing
// are applied in the same pass.
func (f *Field) flushPending() {
	for len(f.pending) > 0 {
		entry := f.pending[0]
		f.pending = f.pending[1:]

		if entry.entity.IsDeleted() {
			continue
		}
		if tile := f.GetAt(entry.x, entry.y); tile != nil {
			f.place(entry.entity, tile)
		}
	}
	f.pending = nil
}
