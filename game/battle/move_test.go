package battle

import (
	"errors"
	"testing"
)

func TestMove_CommitConvertsReservation(t *testing.T) {
	field := createTestField()
	c := NewCharacter(field.NextID(), TeamRed, "MegaMan", 100)
	field.AddEntity(c, 2, 2)
	src, dest := field.GetAt(2, 2), field.GetAt(3, 2)

	move, err := field.BeginMove(c, dest)
	if err != nil {
		t.Fatalf("BeginMove failed: %v", err)
	}
	if move.GetState() != MoveReserved {
		t.Errorf("Expected state reserved, got %s", move.GetState())
	}
	if !dest.IsReservedBy(c.GetID()) || !src.IsReservedBy(c.GetID()) {
		t.Error("Expected source and destination reserved")
	}
	if dest.ContainsEntity(c.GetID()) {
		t.Error("Expected no occupancy before commit")
	}
	if field.MoveStateOf(c.GetID()) != MoveReserved {
		t.Errorf("Expected MoveStateOf reserved, got %s", field.MoveStateOf(c.GetID()))
	}

	if err := move.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	if !dest.ContainsEntity(c.GetID()) {
		t.Error("Expected destination to contain entity after commit")
	}
	if src.ContainsEntity(c.GetID()) {
		t.Error("Expected source released after commit")
	}
	if dest.IsReservedBy(c.GetID()) || src.IsReservedBy(c.GetID()) {
		t.Error("Expected zero reservations after commit")
	}
	if c.GetTile() != dest {
		t.Error("Expected entity tile to be destination")
	}
	if move.GetState() != MoveCommitted {
		t.Errorf("Expected state committed, got %s", move.GetState())
	}
	if field.InFlightMoves() != 0 || field.MoveStateOf(c.GetID()) != MoveIdle {
		t.Error("Expected no in-flight moves")
	}
}

func TestMove_CancelLeavesNothing(t *testing.T) {
	field := createTestField()
	c := NewCharacter(field.NextID(), TeamRed, "MegaMan", 100)
	field.AddEntity(c, 1, 1)
	dest := field.GetAt(1, 2)

	move, err := field.BeginMove(c, dest)
	if err != nil {
		t.Fatalf("BeginMove failed: %v", err)
	}
	if err := move.Cancel(); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	if len(dest.GetReservations()) != 0 || len(dest.GetEntities()) != 0 {
		t.Error("Expected destination untouched after cancel")
	}
	if c.GetTile() != field.GetAt(1, 1) {
		t.Error("Expected entity to stay on source")
	}
	if err := move.Commit(); !errors.Is(err, ErrNotReserved) {
		t.Errorf("Expected ErrNotReserved committing a cancelled move, got %v", err)
	}
	if err := move.Cancel(); !errors.Is(err, ErrNotReserved) {
		t.Errorf("Expected ErrNotReserved cancelling twice, got %v", err)
	}
}

func TestMove_DoubleBookingRejected(t *testing.T) {
	field := createTestField()
	a := NewCharacter(field.NextID(), TeamRed, "A", 100)
	b := NewCharacter(field.NextID(), TeamRed, "B", 100)
	field.AddEntity(a, 1, 2)
	field.AddEntity(b, 3, 2)
	dest := field.GetAt(2, 2)

	if _, err := field.BeginMove(a, dest); err != nil {
		t.Fatalf("BeginMove A failed: %v", err)
	}
	if _, err := field.BeginMove(b, dest); !errors.Is(err, ErrTileReserved) {
		t.Errorf("Expected ErrTileReserved, got %v", err)
	}
	if _, err := field.BeginMove(a, field.GetAt(1, 1)); !errors.Is(err, ErrMoveInProgress) {
		t.Errorf("Expected ErrMoveInProgress, got %v", err)
	}
}

func TestCanMoveTo_Rules(t *testing.T) {
	field := createTestField()
	c := NewCharacter(field.NextID(), TeamRed, "MegaMan", 100)
	rock := NewObstacle(field.NextID(), TeamUnknown, "Rock", 100)
	field.AddEntity(c, 2, 2)
	field.AddEntity(rock, 2, 1)
	field.GetAt(1, 2).SetState(TileBroken)

	tests := []struct {
		name     string
		x, y     int
		expected error
	}{
		{"free own panel", 2, 3, nil},
		{"out of bounds", 0, 2, ErrOutOfBounds},
		{"same tile", 2, 2, ErrSameTile},
		{"broken panel", 1, 2, ErrTileNotWalkable},
		{"enemy panel", 4, 2, ErrWrongTeam},
		{"occupied by obstacle", 2, 1, ErrTileOccupied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := field.CanMoveTo(c, field.GetAt(tt.x, tt.y))
			if tt.expected == nil && err != nil {
				t.Errorf("Expected move allowed, got %v", err)
			}
			if tt.expected != nil && !errors.Is(err, tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, err)
			}
		})
	}

	unplaced := NewCharacter(field.NextID(), TeamRed, "Nobody", 10)
	if err := field.CanMoveTo(unplaced, field.GetAt(1, 1)); !errors.Is(err, ErrNotPlaced) {
		t.Errorf("Expected ErrNotPlaced, got %v", err)
	}
}

func TestCanMoveTo_SpellsIgnoreTerrain(t *testing.T) {
	field := createTestField()
	shot := NewSpell(field.NextID(), TeamRed, "Buster", 1, HitNone, 0)
	field.AddEntity(shot, 3, 2)
	field.GetAt(4, 2).SetState(TileBroken)

	if err := field.CanMoveTo(shot, field.GetAt(4, 2)); err != nil {
		t.Errorf("Expected spell to cross broken enemy panel, got %v", err)
	}
}

func TestMove_DeletionCancelsInFlightMove(t *testing.T) {
	field := createTestField()
	c := NewCharacter(field.NextID(), TeamBlue, "Mettaur", 10)
	field.AddEntity(c, 5, 2)
	dest := field.GetAt(4, 2)

	move, err := field.BeginMove(c, dest)
	if err != nil {
		t.Fatalf("BeginMove failed: %v", err)
	}

	c.Delete()
	field.Update(0.016)

	if move.GetState() != MoveCancelled {
		t.Errorf("Expected move cancelled after deletion, got %s", move.GetState())
	}
	if len(dest.GetReservations()) != 0 {
		t.Errorf("Expected reservations released, got %v", dest.GetReservations())
	}
	if dest.ContainsEntity(c.GetID()) {
		t.Error("Expected deleted entity never to occupy destination")
	}
}

func TestMove_CommitAfterDeleteFails(t *testing.T) {
	field := createTestField()
	c := NewCharacter(field.NextID(), TeamBlue, "Mettaur", 10)
	field.AddEntity(c, 5, 2)
	dest := field.GetAt(6, 2)

	move, err := field.BeginMove(c, dest)
	if err != nil {
		t.Fatalf("BeginMove failed: %v", err)
	}
	c.Delete()

	if err := move.Commit(); !errors.Is(err, ErrEntityDeleted) {
		t.Errorf("Expected ErrEntityDeleted, got %v", err)
	}
	if dest.ContainsEntity(c.GetID()) || len(dest.GetReservations()) != 0 {
		t.Error("Expected destination untouched")
	}
	if move.GetState() != MoveCancelled {
		t.Errorf("Expected cancelled, got %s", move.GetState())
	}
}

func TestMove_CrackedSourceBreaksOnLeave(t *testing.T) {
	field := createTestField()
	field.SetBattleActive(true)
	c := NewCharacter(field.NextID(), TeamRed, "MegaMan", 100)
	field.AddEntity(c, 2, 2)
	src := field.GetAt(2, 2)
	src.SetState(TileCracked)

	move, err := field.BeginMove(c, field.GetAt(2, 1))
	if err != nil {
		t.Fatalf("BeginMove failed: %v", err)
	}
	if err := move.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	if src.GetState() != TileBroken {
		t.Errorf("Expected source to break after leaving, got %s", src.GetState())
	}
}

func TestMove_IgnoreTeam(t *testing.T) {
	field := createTestField()
	boss := NewCharacter(field.NextID(), TeamBlue, "MetalMan", 1000)
	field.AddEntity(boss, 4, 2)

	if _, err := field.BeginMove(boss, field.GetAt(3, 2)); !errors.Is(err, ErrWrongTeam) {
		t.Errorf("Expected ErrWrongTeam without option, got %v", err)
	}
	move, err := field.BeginMove(boss, field.GetAt(3, 2), IgnoreTeam())
	if err != nil {
		t.Fatalf("Expected move onto red panel with IgnoreTeam, got %v", err)
	}
	if err := move.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if boss.GetTile() != field.GetAt(3, 2) {
		t.Error("Expected boss on (3,2)")
	}
}

func TestMove_CommitRechecksDestination(t *testing.T) {
	t.Run("occupied after reserve", func(t *testing.T) {
		field := createTestField()
		a := NewCharacter(field.NextID(), TeamRed, "A", 100)
		b := NewCharacter(field.NextID(), TeamRed, "B", 100)
		field.AddEntity(a, 1, 2)
		src, dest := field.GetAt(1, 2), field.GetAt(2, 2)

		move, err := field.BeginMove(a, dest)
		if err != nil {
			t.Fatalf("BeginMove failed: %v", err)
		}
		field.AddEntity(b, 2, 2)

		if err := move.Commit(); !errors.Is(err, ErrTileOccupied) {
			t.Errorf("Expected ErrTileOccupied, got %v", err)
		}
		if move.GetState() != MoveCancelled {
			t.Errorf("Expected state cancelled, got %s", move.GetState())
		}
		if len(dest.GetEntities()) != 1 || !dest.ContainsEntity(b.GetID()) {
			t.Errorf("Expected only B on destination, got %d occupants", len(dest.GetEntities()))
		}
		if a.GetTile() != src || !src.ContainsEntity(a.GetID()) {
			t.Error("Expected A to stay on source")
		}
		if len(src.GetReservations()) != 0 || len(dest.GetReservations()) != 0 {
			t.Error("Expected reservations released")
		}
		if field.InFlightMoves() != 0 {
			t.Errorf("Expected no in-flight moves, got %d", field.InFlightMoves())
		}
	})

	t.Run("unwalkable after reserve", func(t *testing.T) {
		field := createTestField()
		a := NewCharacter(field.NextID(), TeamRed, "A", 100)
		field.AddEntity(a, 1, 2)
		dest := field.GetAt(2, 2)

		move, err := field.BeginMove(a, dest)
		if err != nil {
			t.Fatalf("BeginMove failed: %v", err)
		}
		dest.SetState(TileEmpty)

		if err := move.Commit(); !errors.Is(err, ErrTileNotWalkable) {
			t.Errorf("Expected ErrTileNotWalkable, got %v", err)
		}
		if dest.ContainsEntity(a.GetID()) {
			t.Error("Expected A kept off the empty panel")
		}
		if a.GetTile() != field.GetAt(1, 2) {
			t.Error("Expected A to stay on source")
		}
	})

	t.Run("reserved panel cracks instead of breaking", func(t *testing.T) {
		field := createTestField()
		field.SetBattleActive(true)
		a := NewCharacter(field.NextID(), TeamRed, "A", 100)
		field.AddEntity(a, 1, 2)
		dest := field.GetAt(2, 2)

		move, err := field.BeginMove(a, dest)
		if err != nil {
			t.Fatalf("BeginMove failed: %v", err)
		}
		dest.SetState(TileBroken)
		if dest.GetState() != TileCracked {
			t.Fatalf("Expected reserved panel to crack, got %s", dest.GetState())
		}

		if err := move.Commit(); err != nil {
			t.Fatalf("Commit failed: %v", err)
		}
		if a.GetTile() != dest {
			t.Error("Expected A on the cracked destination")
		}
	})
}
