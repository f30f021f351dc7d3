package battle

// Tile is a single panel of the battlefield
type Tile struct {
	x, y  int
	state TileState
	team  Team
	field *Field

	entities []Placeable
	reserved []EntityID

	battleActive bool
	brokenTimer  float64
	poisonTimer  float64
}

func newTile(field *Field, x, y int) *Tile {
	return &Tile{
		x:     x,
		y:     y,
		state: TileNormal,
		team:  TeamUnknown,
		field: field,
	}
}

// GetX returns the 1-based column
func (t *Tile) GetX() int {
	return t.x
}

// GetY returns the 1-based row
func (t *Tile) GetY() int {
	return t.y
}

// GetField returns the owning field
func (t *Tile) GetField() *Field {
	return t.field
}

// GetState returns the panel state
func (t *Tile) GetState() TileState {
	return t.state
}

// SetState changes the panel state. A panel holding or reserved by a character
// or obstacle cannot break and cracks instead.
func (t *Tile) SetState(state TileState) {
	if state == TileBroken && (t.hasBlockingOccupant(0) || t.field.blockingReservation(t, 0)) {
		state = TileCracked
	}
	if state == TileBroken {
		t.brokenTimer = 0
	}
	if state == TilePoison && t.state != TilePoison {
		t.poisonTimer = 0
	}
	t.state = state
}

// Crack advances normal → cracked → broken. It only applies while the battle is active
// and reports whether the panel changed.
func (t *Tile) Crack() bool {
	if !t.battleActive {
		return false
	}

	switch t.state {
	case TileEmpty, TileBroken, TileHidden:
		return false
	case TileCracked:
		t.SetState(TileBroken)
		return t.state == TileBroken
	default:
		t.SetState(TileCracked)
		return true
	}
}

// GetTeam returns the owning team
func (t *Tile) GetTeam() Team {
	return t.team
}

// SetTeam reassigns ownership
func (t *Tile) SetTeam(team Team) {
	t.team = team
}

// IsWalkable reports whether an entity may stand on this panel
func (t *Tile) IsWalkable() bool {
	return isWalkableState(t.state)
}

// IsBattleActive reports the flag propagated by Field.SetBattleActive
func (t *Tile) IsBattleActive() bool {
	return t.battleActive
}

func (t *Tile) setBattleActive(state bool) {
	t.battleActive = state
}

// ReserveEntityByID soft-claims this tile for an entity mid-move.
// Reserving twice for the same ID is a no-op.
func (t *Tile) ReserveEntityByID(id EntityID) {
	if t.IsReservedBy(id) {
		return
	}
	t.reserved = append(t.reserved, id)
}

// RemoveReservation drops the claim held by id
func (t *Tile) RemoveReservation(id EntityID) bool {
	for i, r := range t.reserved {
		if r == id {
			t.reserved = append(t.reserved[:i], t.reserved[i+1:]...)
			return true
		}
	}
	return false
}

// IsReservedBy reports whether id holds a reservation on this tile
func (t *Tile) IsReservedBy(id EntityID) bool {
	for _, r := range t.reserved {
		if r == id {
			return true
		}
	}
	return false
}

// GetReservations returns a copy of the reservation list in claim order
func (t *Tile) GetReservations() []EntityID {
	out := make([]EntityID, len(t.reserved))
	copy(out, t.reserved)
	return out
}

// ContainsEntity reports whether id occupies this tile
func (t *Tile) ContainsEntity(id EntityID) bool {
	for _, e := range t.entities {
		if e.GetID() == id {
			return true
		}
	}
	return false
}

// GetEntities returns a copy of the occupancy list in arrival order
func (t *Tile) GetEntities() []Placeable {
	out := make([]Placeable, len(t.entities))
	copy(out, t.entities)
	return out
}

// FindEntities returns the occupants matching query, in arrival order
func (t *Tile) FindEntities(query func(Placeable) bool) []Placeable {
	var result []Placeable
	for _, e := range t.entities {
		if query(e) {
			result = append(result, e)
		}
	}
	return result
}

// addEntity records occupancy; duplicates are ignored
func (t *Tile) addEntity(p Placeable) {
	if t.ContainsEntity(p.GetID()) {
		return
	}
	t.entities = append(t.entities, p)
}

// RemoveEntityByID drops an occupant and reports whether it was present
func (t *Tile) RemoveEntityByID(id EntityID) bool {
	for i, e := range t.entities {
		if e.GetID() == id {
			t.entities = append(t.entities[:i], t.entities[i+1:]...)
			return true
		}
	}
	return false
}

// hasBlockingOccupant reports whether a character or obstacle other than except stands here
func (t *Tile) hasBlockingOccupant(except EntityID) bool {
	for _, e := range t.entities {
		if e.GetID() != except && !e.IsDeleted() && blocksMovement(e.GetCategory()) {
			return true
		}
	}
	return false
}

// onCharacterLeft breaks a cracked panel once a character steps off it
func (t *Tile) onCharacterLeft() {
	if !t.battleActive || t.state != TileCracked {
		return
	}
	if t.hasBlockingOccupant(0) {
		return
	}
	t.SetState(TileBroken)
}

// Update resolves attacks between occupants and advances panel hazards
func (t *Tile) Update(elapsed float64) {
	t.resolveAttacks()

	if !t.battleActive {
		return
	}

	switch t.state {
	case TileBroken:
		if t.hasBlockingOccupant(0) || len(t.reserved) > 0 {
			return
		}
		t.brokenTimer += elapsed
		if t.brokenTimer >= BrokenCooldown {
			t.brokenTimer = 0
			t.state = TileNormal
		}

	case TilePoison:
		t.poisonTimer += elapsed
		for t.poisonTimer >= PoisonInterval {
			t.poisonTimer -= PoisonInterval
			for _, c := range t.characters() {
				c.Hit(HitProperties{Damage: 1})
			}
		}

	case TileLava:
		burned := false
		for _, c := range t.characters() {
			c.Hit(HitProperties{Damage: LavaDamage, Flags: HitFlinch})
			burned = true
		}
		if burned {
			t.state = TileNormal
		}
	}
}

// resolveAttacks lets each live spell attack every hittable of another team on this tile
func (t *Tile) resolveAttacks() {
	for _, e := range t.entities {
		spell, ok := e.(*Spell)
		if !ok || spell.IsDeleted() {
			continue
		}

		for _, other := range t.entities {
			target, ok := other.(Hittable)
			if !ok || target.IsDeleted() {
				continue
			}
			if !canAttack(spell.GetTeam(), target.GetTeam()) {
				continue
			}
			spell.Attack(target)
		}
	}
}

func (t *Tile) characters() []*Character {
	var result []*Character
	for _, e := range t.entities {
		if c, ok := e.(*Character); ok && !c.IsDeleted() {
			result = append(result, c)
		}
	}
	return result
}
