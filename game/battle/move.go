package battle

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfBounds      = errors.New("tile out of bounds")
	ErrNotPlaced        = errors.New("entity is not on the field")
	ErrSameTile         = errors.New("destination is the current tile")
	ErrMoveInProgress   = errors.New("entity already has a move in progress")
	ErrTileNotWalkable  = errors.New("destination tile is not walkable")
	ErrWrongTeam        = errors.New("destination tile belongs to another team")
	ErrTileReserved     = errors.New("destination tile is reserved by another entity")
	ErrTileOccupied     = errors.New("destination tile is occupied")
	ErrNotReserved      = errors.New("move is not in the reserved state")
	ErrEntityDeleted    = errors.New("entity was deleted")
	ErrEntityNotOnField = errors.New("entity not found on field")
)

// MoveState is the lifecycle of one in-flight move
type MoveState string

const (
	MoveIdle      MoveState = "idle"
	MoveReserved  MoveState = "reserved"
	MoveCommitted MoveState = "committed"
	MoveCancelled MoveState = "cancelled"
)

// Move is a two-phase move between two tiles. Beginning a move reserves the
// destination and the source by entity ID; Commit converts the reservation into
// occupancy and releases the source, Cancel releases both without occupying.
type Move struct {
	field  *Field
	entity Placeable
	source *Tile
	dest   *Tile
	state  MoveState
}

// GetState returns the move's lifecycle state
func (m *Move) GetState() MoveState {
	return m.state
}

// GetEntity returns the moving entity
func (m *Move) GetEntity() Placeable {
	return m.entity
}

// GetSource returns the tile the move started on
func (m *Move) GetSource() *Tile {
	return m.source
}

// GetDestination returns the reserved destination
func (m *Move) GetDestination() *Tile {
	return m.dest
}

// Commit completes the move: the entity adopts the destination and both
// reservations are released. A character or obstacle whose destination became
// unwalkable or occupied since BeginMove is not moved and the move is cancelled.
func (m *Move) Commit() error {
	if m.state != MoveReserved {
		return fmt.Errorf("commit %d: %w", m.entity.GetID(), ErrNotReserved)
	}
	if m.entity.IsDeleted() {
		m.release(MoveCancelled)
		return fmt.Errorf("commit %d: %w", m.entity.GetID(), ErrEntityDeleted)
	}
	if blocksMovement(m.entity.GetCategory()) {
		// the destination may have changed since the reservation was taken
		if !m.dest.IsWalkable() {
			m.release(MoveCancelled)
			return fmt.Errorf("commit %d: %w", m.entity.GetID(), ErrTileNotWalkable)
		}
		if m.dest.hasBlockingOccupant(m.entity.GetID()) {
			m.release(MoveCancelled)
			return fmt.Errorf("commit %d: %w", m.entity.GetID(), ErrTileOccupied)
		}
	}

	m.field.place(m.entity, m.dest)
	m.release(MoveCommitted)
	return nil
}

// Cancel aborts a reserved move without occupying the destination
func (m *Move) Cancel() error {
	if m.state != MoveReserved {
		return fmt.Errorf("cancel %d: %w", m.entity.GetID(), ErrNotReserved)
	}
	m.release(MoveCancelled)
	return nil
}

func (m *Move) release(final MoveState) {
	id := m.entity.GetID()
	m.dest.RemoveReservation(id)
	m.source.RemoveReservation(id)
	m.state = final

	if current, ok := m.field.moves[id]; ok && current == m {
		delete(m.field.moves, id)
	}
}

// MoveOption relaxes the checks applied by CanMoveTo and BeginMove
type MoveOption func(*moveRules)

type moveRules struct {
	ignoreTeam bool
}

// IgnoreTeam lets a character move onto panels owned by the other team
func IgnoreTeam() MoveOption {
	return func(r *moveRules) {
		r.ignoreTeam = true
	}
}

// CanMoveTo reports whether p could begin a move to dest
func (f *Field) CanMoveTo(p Placeable, dest *Tile, opts ...MoveOption) error {
	var rules moveRules
	for _, opt := range opts {
		opt(&rules)
	}

	if dest == nil || dest.field != f {
		return ErrOutOfBounds
	}
	src := p.GetTile()
	if src == nil || src.field != f || !src.ContainsEntity(p.GetID()) {
		return ErrNotPlaced
	}
	if src == dest {
		return ErrSameTile
	}
	if _, busy := f.moves[p.GetID()]; busy {
		return ErrMoveInProgress
	}

	if !blocksMovement(p.GetCategory()) {
		return nil
	}

	if !dest.IsWalkable() {
		return ErrTileNotWalkable
	}
	if !rules.ignoreTeam && p.GetCategory() == CategoryCharacter && dest.GetTeam() != TeamUnknown && dest.GetTeam() != p.GetTeam() {
		return ErrWrongTeam
	}
	if f.blockingReservation(dest, p.GetID()) {
		return ErrTileReserved
	}
	if dest.hasBlockingOccupant(p.GetID()) {
		return ErrTileOccupied
	}
	return nil
}

// BeginMove validates and reserves a move of p to dest
func (f *Field) BeginMove(p Placeable, dest *Tile, opts ...MoveOption) (*Move, error) {
	if err := f.CanMoveTo(p, dest, opts...); err != nil {
		return nil, fmt.Errorf("move %d: %w", p.GetID(), err)
	}

	src := p.GetTile()
	id := p.GetID()
	dest.ReserveEntityByID(id)
	src.ReserveEntityByID(id)

	m := &Move{
		field:  f,
		entity: p,
		source: src,
		dest:   dest,
		state:  MoveReserved,
	}
	f.moves[id] = m
	return m, nil
}

// GetMove returns the in-flight move of an entity, or nil
func (f *Field) GetMove(id EntityID) *Move {
	return f.moves[id]
}

// InFlightMoves returns how many moves are reserved and not yet resolved
func (f *Field) InFlightMoves() int {
	return len(f.moves)
}

func (f *Field) cancelMove(id EntityID) {
	if m, ok := f.moves[id]; ok {
		m.release(MoveCancelled)
	}
}

// blockingReservation reports whether a character or obstacle other than except
// holds a reservation on tile
func (f *Field) blockingReservation(tile *Tile, except EntityID) bool {
	for _, id := range tile.reserved {
		if id == except {
			continue
		}
		if m, ok := f.moves[id]; ok && blocksMovement(m.entity.GetCategory()) {
			return true
		}
	}
	return false
}

// MoveStateOf returns the state of id's move; entities without one are idle
func (f *Field) MoveStateOf(id EntityID) MoveState {
	if m, ok := f.moves[id]; ok {
		return m.state
	}
	return MoveIdle
}
