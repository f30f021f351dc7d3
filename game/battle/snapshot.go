package battle

import (
	"fmt"
	"sort"
)

// FieldSnapshot is the serializable state of a field between updates.
// In-flight moves are reported but not restored; a restored field starts with none.
type FieldSnapshot struct {
	Width        int              `json:"width"`
	Height       int              `json:"height"`
	BattleActive bool             `json:"battle_active"`
	NextID       EntityID         `json:"next_id"`
	Tiles        []TileSnapshot   `json:"tiles"`
	Entities     []EntitySnapshot `json:"entities"`
	Moves        []MoveSnapshot   `json:"moves,omitempty"`
	Layout       []string         `json:"layout"`
}

// TileSnapshot is one panel
type TileSnapshot struct {
	X           int        `json:"x"`
	Y           int        `json:"y"`
	State       TileState  `json:"state"`
	Team        Team       `json:"team"`
	Occupants   []EntityID `json:"occupants,omitempty"`
	Reserved    []EntityID `json:"reserved,omitempty"`
	BrokenTimer float64    `json:"broken_timer,omitempty"`
}

// EntitySnapshot is one placed entity
type EntitySnapshot struct {
	ID        EntityID   `json:"id"`
	Category  Category   `json:"category"`
	Team      Team       `json:"team"`
	Name      string     `json:"name"`
	X         int        `json:"x"`
	Y         int        `json:"y"`
	Health    int        `json:"health,omitempty"`
	MaxHealth int        `json:"max_health,omitempty"`
	Damage    int        `json:"damage,omitempty"`
	Flags     HitFlags   `json:"flags,omitempty"`
	Lifetime  float64    `json:"lifetime,omitempty"`
	Age       float64    `json:"age,omitempty"`
	OneShot   bool       `json:"one_shot,omitempty"`
	Hit       []EntityID `json:"hit,omitempty"`
}

// MoveSnapshot is a reserved, uncommitted move
type MoveSnapshot struct {
	Entity EntityID  `json:"entity"`
	FromX  int       `json:"from_x"`
	FromY  int       `json:"from_y"`
	ToX    int       `json:"to_x"`
	ToY    int       `json:"to_y"`
	State  MoveState `json:"state"`
}

// Snapshot captures the field's tiles, entities and moves
func (f *Field) Snapshot() *FieldSnapshot {
	s := &FieldSnapshot{
		Width:        f.width,
		Height:       f.height,
		BattleActive: f.isBattleActive,
		NextID:       f.nextID,
		Layout:       RenderLayout(f),
	}

	for _, tile := range f.FindTiles(func(*Tile) bool { return true }) {
		ts := TileSnapshot{
			X:           tile.x,
			Y:           tile.y,
			State:       tile.state,
			Team:        tile.team,
			Reserved:    tile.GetReservations(),
			BrokenTimer: tile.brokenTimer,
		}
		for _, e := range tile.entities {
			ts.Occupants = append(ts.Occupants, e.GetID())
			s.Entities = append(s.Entities, snapshotEntity(e, tile))
		}
		s.Tiles = append(s.Tiles, ts)
	}

	for x := 1; x <= f.width; x++ {
		for y := 1; y <= f.height; y++ {
			for _, e := range f.GetAt(x, y).entities {
				m, ok := f.moves[e.GetID()]
				if !ok {
					continue
				}
				s.Moves = append(s.Moves, MoveSnapshot{
					Entity: e.GetID(),
					FromX:  m.source.x,
					FromY:  m.source.y,
					ToX:    m.dest.x,
					ToY:    m.dest.y,
					State:  m.state,
				})
			}
		}
	}

	return s
}

func snapshotEntity(e Placeable, tile *Tile) EntitySnapshot {
	es := EntitySnapshot{
		ID:       e.GetID(),
		Category: e.GetCategory(),
		Team:     e.GetTeam(),
		Name:     e.GetName(),
		X:        tile.x,
		Y:        tile.y,
	}

	switch v := e.(type) {
	case *Character:
		es.Health = v.health
		es.MaxHealth = v.maxHealth
	case *Spell:
		es.Damage = v.props.Damage
		es.Flags = v.props.Flags
		es.Lifetime = v.lifetime
		es.Age = v.age
		es.OneShot = v.oneShot
		for id := range v.hit {
			es.Hit = append(es.Hit, id)
		}
		sort.Slice(es.Hit, func(i, j int) bool { return es.Hit[i] < es.Hit[j] })
	case *Obstacle:
		es.Health = v.health
	case *Artifact:
		es.Lifetime = v.lifetime
		es.Age = v.age
	}
	return es
}

// RestoreField rebuilds a field from a snapshot. Behaviour hooks and defense
// rules are not part of the snapshot and must be reattached by the caller.
func RestoreField(s *FieldSnapshot) (*Field, error) {
	if s == nil {
		return nil, fmt.Errorf("restore field: snapshot is nil")
	}
	if s.Width < 1 || s.Width > MaxFieldWidth || s.Height < 1 || s.Height > MaxFieldHeight {
		return nil, fmt.Errorf("restore field: invalid size %dx%d", s.Width, s.Height)
	}

	f := NewField(s.Width, s.Height)
	f.nextID = s.NextID

	for _, ts := range s.Tiles {
		tile := f.GetAt(ts.X, ts.Y)
		if tile == nil {
			return nil, fmt.Errorf("restore field: tile (%d,%d): %w", ts.X, ts.Y, ErrOutOfBounds)
		}
		tile.state = ts.State
		tile.team = ts.Team
		tile.brokenTimer = ts.BrokenTimer
	}

	for _, es := range s.Entities {
		p, err := restoreEntity(es)
		if err != nil {
			return nil, fmt.Errorf("restore field: %w", err)
		}
		if !f.AddEntity(p, es.X, es.Y) {
			return nil, fmt.Errorf("restore field: entity %d at (%d,%d): %w", es.ID, es.X, es.Y, ErrOutOfBounds)
		}
		if es.ID > f.nextID {
			f.nextID = es.ID
		}
	}

	f.SetBattleActive(s.BattleActive)
	return f, nil
}

func restoreEntity(es EntitySnapshot) (Placeable, error) {
	switch es.Category {
	case CategoryCharacter:
		maxHealth := es.MaxHealth
		if maxHealth < es.Health {
			maxHealth = es.Health
		}
		c := NewCharacter(es.ID, es.Team, es.Name, maxHealth)
		c.SetHealth(es.Health)
		return c, nil
	case CategorySpell:
		s := NewSpell(es.ID, es.Team, es.Name, es.Damage, es.Flags, es.Lifetime)
		s.age = es.Age
		s.oneShot = es.OneShot
		for _, id := range es.Hit {
			s.hit[id] = true
		}
		return s, nil
	case CategoryObstacle:
		return NewObstacle(es.ID, es.Team, es.Name, es.Health), nil
	case CategoryArtifact:
		a := NewArtifact(es.ID, es.Name, es.Lifetime)
		a.age = es.Age
		return a, nil
	}
	return nil, fmt.Errorf("entity %d: unknown category %q", es.ID, es.Category)
}
