package mob

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/wricardo/netbattle/game/battle"
)

func createTestField() *battle.Field {
	field := battle.NewField(battle.DefaultFieldWidth, battle.DefaultFieldHeight)
	field.SplitTeams(3)
	return field
}

func TestStarfish_Build(t *testing.T) {
	for seed := int64(1); seed <= 30; seed++ {
		field := createTestField()
		m, err := NewStarfish(rand.New(rand.NewSource(seed))).Build(field)
		if err != nil {
			t.Fatalf("seed %d: Build failed: %v", seed, err)
		}

		spawns := m.GetSpawns()
		if len(spawns) != 2 {
			t.Fatalf("seed %d: expected 2 spawns, got %d", seed, len(spawns))
		}
		if spawns[0].Y != 1 || spawns[1].Y != 3 {
			t.Errorf("seed %d: expected rows 1 and 3, got %d and %d", seed, spawns[0].Y, spawns[1].Y)
		}
		for _, s := range spawns {
			if s.X < 4 || s.X > 6 {
				t.Errorf("seed %d: expected column in [4,6], got %d", seed, s.X)
			}
			if s.Character.GetHealth() != StarfishHealth {
				t.Errorf("seed %d: expected health %d, got %d", seed, StarfishHealth, s.Character.GetHealth())
			}
		}

		allIce := field.GetAt(1, 2).GetState() == battle.TileIce
		for _, tile := range field.FindTiles(func(*battle.Tile) bool { return true }) {
			expected := battle.TileNormal
			switch {
			case allIce:
				expected = battle.TileIce
			case tile.GetX() == 3 && tile.GetY() != 2:
				expected = battle.TileDirectionLeft
			}
			if tile.GetState() != expected {
				t.Errorf("seed %d: expected %s at (%d,%d), got %s", seed, expected, tile.GetX(), tile.GetY(), tile.GetState())
			}
		}
	}
}

func TestStarfish_Deterministic(t *testing.T) {
	a, _ := NewStarfish(rand.New(rand.NewSource(42))).Build(createTestField())
	b, _ := NewStarfish(rand.New(rand.NewSource(42))).Build(createTestField())

	for i := range a.GetSpawns() {
		if a.GetSpawns()[i].X != b.GetSpawns()[i].X {
			t.Errorf("Expected same spawn column for same seed, got %d and %d", a.GetSpawns()[i].X, b.GetSpawns()[i].X)
		}
	}
}

func TestMob_RankedRewards(t *testing.T) {
	m, err := NewStarfish(rand.New(rand.NewSource(1))).Build(createTestField())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	tests := []struct {
		rank     int
		expected string
		found    bool
	}{
		{0, "", false},
		{1, "Recov30", true},
		{10, "Recov30", true},
		{11, "Recov300", true},
		{20, "Recov300", true},
	}
	for _, tt := range tests {
		reward, ok := m.GetRankedReward(tt.rank)
		if ok != tt.found || reward.Name != tt.expected {
			t.Errorf("rank %d: expected %q (%v), got %q (%v)", tt.rank, tt.expected, tt.found, reward.Name, ok)
		}
	}
}

func TestMob_StartAndClear(t *testing.T) {
	field := createTestField()
	m, err := NewStarfish(rand.New(rand.NewSource(3))).Build(field)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if m.IsCleared() {
		t.Error("Expected mob not cleared before start")
	}

	m.Start()
	m.Start()

	enemies := field.FindEntities(func(e battle.Placeable) bool { return e.GetTeam() == battle.TeamBlue })
	if len(enemies) != 2 {
		t.Fatalf("Expected 2 enemies on field, got %d", len(enemies))
	}
	if m.GetRemainingMobCount() != 2 {
		t.Errorf("Expected 2 remaining, got %d", m.GetRemainingMobCount())
	}

	for _, e := range enemies {
		e.(*battle.Character).Hit(battle.HitProperties{Damage: StarfishHealth})
	}
	field.Update(0.016)

	if !m.IsCleared() {
		t.Errorf("Expected mob cleared, %d remaining", m.GetRemainingMobCount())
	}
}

func TestMob_SpawnOutOfBounds(t *testing.T) {
	m := NewMob("test", createTestField())
	err := m.Spawn(battle.NewCharacter(1, battle.TeamBlue, "Mettaur", 40), 7, 1)
	if !errors.Is(err, battle.ErrOutOfBounds) {
		t.Errorf("Expected ErrOutOfBounds, got %v", err)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(rand.New(rand.NewSource(1)))

	names := r.Names()
	if len(names) != 2 || names[0] != "metalman" || names[1] != "starfish" {
		t.Errorf("Expected [metalman starfish], got %v", names)
	}
	if _, err := r.Get("StarFish"); err != nil {
		t.Errorf("Expected case-insensitive lookup, got %v", err)
	}
	if _, err := r.Build("bass", createTestField()); !errors.Is(err, ErrUnknownMob) {
		t.Errorf("Expected ErrUnknownMob, got %v", err)
	}
	if _, err := r.Build("starfish", battle.NewField(3, 3)); !errors.Is(err, ErrFieldTooSmall) {
		t.Errorf("Expected ErrFieldTooSmall, got %v", err)
	}
}

func TestMetalMan_PunchCycle(t *testing.T) {
	field := createTestField()
	player := battle.NewCharacter(field.NextID(), battle.TeamRed, "MegaMan", 500)
	field.AddEntity(player, 2, 2)

	m, err := NewMetalMan().Build(field)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	m.Start()
	field.SetBattleActive(true)
	metal := m.GetSpawns()[0].Character
	home := field.GetAt(5, 2)

	approached := false
	for i := 0; i < 35; i++ {
		field.Update(0.1)
		if metal.GetTile() == field.GetAt(3, 2) {
			approached = true
		}
	}

	if !approached {
		t.Error("Expected MetalMan to step behind the player")
	}
	if player.GetHealth() != 500-MetalManPunchDamage {
		t.Errorf("Expected player hit once (%d), got %d", 500-MetalManPunchDamage, player.GetHealth())
	}
	if field.GetAt(2, 2).GetState() != battle.TileCracked {
		t.Errorf("Expected punched panel cracked, got %s", field.GetAt(2, 2).GetState())
	}
	if metal.GetTile() != home {
		t.Errorf("Expected MetalMan back home, got (%d,%d)", metal.GetTile().GetX(), metal.GetTile().GetY())
	}
	if field.InFlightMoves() != 0 {
		t.Errorf("Expected no in-flight moves, got %d", field.InFlightMoves())
	}
}
