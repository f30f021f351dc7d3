package battle

import (
	"testing"
)

func createTestField() *Field {
	field := NewField(DefaultFieldWidth, DefaultFieldHeight)
	field.SplitTeams(3)
	return field
}

func TestGetAt_OutOfBounds(t *testing.T) {
	field := createTestField()

	tests := []struct {
		name string
		x, y int
	}{
		{"zero x", 0, 1},
		{"zero y", 1, 0},
		{"negative", -1, -1},
		{"x past width", 7, 1},
		{"y past height", 1, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tile := field.GetAt(tt.x, tt.y); tile != nil {
				t.Errorf("Expected nil tile at (%d,%d), got %v", tt.x, tt.y, tile)
			}
			field.SetAt(tt.x, tt.y, TeamBlue)
		})
	}

	// SetAt out of bounds must not touch any tile
	for _, tile := range field.FindTiles(func(*Tile) bool { return true }) {
		expected := TeamBlue
		if tile.GetX() <= 3 {
			expected = TeamRed
		}
		if tile.GetTeam() != expected {
			t.Errorf("Expected tile (%d,%d) team %s, got %s", tile.GetX(), tile.GetY(), expected, tile.GetTeam())
		}
	}
}

func TestGetAt_InBounds(t *testing.T) {
	field := createTestField()

	for x := 1; x <= 6; x++ {
		for y := 1; y <= 3; y++ {
			tile := field.GetAt(x, y)
			if tile == nil {
				t.Fatalf("Expected tile at (%d,%d)", x, y)
			}
			if tile.GetX() != x || tile.GetY() != y {
				t.Errorf("Expected tile coords (%d,%d), got (%d,%d)", x, y, tile.GetX(), tile.GetY())
			}
			if tile.GetField() != field {
				t.Errorf("Expected tile (%d,%d) to belong to field", x, y)
			}
		}
	}
}

func TestAddEntity_OutsideUpdatePlacesImmediately(t *testing.T) {
	field := createTestField()
	charA := NewCharacter(field.NextID(), TeamRed, "A", 100)

	if !field.AddEntity(charA, 3, 2) {
		t.Fatal("Expected AddEntity to succeed")
	}

	tile := field.GetAt(3, 2)
	if charA.GetTile() != tile {
		t.Errorf("Expected charA on (3,2), got %v", charA.GetTile())
	}
	if !tile.ContainsEntity(charA.GetID()) {
		t.Error("Expected tile (3,2) to contain charA")
	}
	if field.PendingCount() != 0 {
		t.Errorf("Expected no pending placements, got %d", field.PendingCount())
	}
}

func TestAddEntity_OutOfBoundsDropped(t *testing.T) {
	field := createTestField()
	c := NewCharacter(field.NextID(), TeamRed, "A", 100)

	if field.AddEntity(c, 0, 2) {
		t.Error("Expected AddEntity out of bounds to fail")
	}
	if c.GetTile() != nil {
		t.Error("Expected entity to stay unplaced")
	}
	if len(field.FindEntities(func(Placeable) bool { return true })) != 0 {
		t.Error("Expected empty field")
	}
}

func TestAddEntity_DuringUpdateIsDeferred(t *testing.T) {
	field := createTestField()
	charA := NewCharacter(field.NextID(), TeamRed, "A", 100)
	charB := NewCharacter(field.NextID(), TeamRed, "B", 100)
	field.AddEntity(charA, 3, 2)

	visibleDuringUpdate := -1
	charA.OnUpdate = func(float64) {
		if !field.IsUpdating() {
			t.Error("Expected field to report updating")
		}
		if !field.AddEntity(charB, 3, 2) {
			t.Error("Expected deferred AddEntity to be accepted")
		}
		visibleDuringUpdate = len(field.FindEntities(func(e Placeable) bool { return e.GetID() == charB.GetID() }))
		charA.OnUpdate = nil
	}

	field.Update(0.016)

	if visibleDuringUpdate != 0 {
		t.Errorf("Expected charB invisible during update, found %d", visibleDuringUpdate)
	}
	if field.IsUpdating() {
		t.Error("Expected isUpdating to be cleared after Update")
	}
	found := field.FindEntities(func(e Placeable) bool { return e.GetID() == charB.GetID() })
	if len(found) != 1 {
		t.Fatalf("Expected charB on the field after update, found %d", len(found))
	}
	if charB.GetTile() != field.GetAt(3, 2) {
		t.Errorf("Expected charB on (3,2), got %v", charB.GetTile())
	}
}

func TestAddEntity_PendingAppliedInSubmissionOrder(t *testing.T) {
	field := createTestField()
	host := NewArtifact(field.NextID(), "host", 0)
	field.AddEntity(host, 1, 1)

	spells := []*Spell{
		NewSpell(field.NextID(), TeamRed, "s1", 0, HitNone, 0),
		NewSpell(field.NextID(), TeamRed, "s2", 0, HitNone, 0),
		NewSpell(field.NextID(), TeamRed, "s3", 0, HitNone, 0),
	}
	host.OnUpdate = func(float64) {
		for _, s := range spells {
			field.AddEntity(s, 4, 2)
		}
		host.OnUpdate = nil
	}

	field.Update(0.016)

	entities := field.GetAt(4, 2).GetEntities()
	if len(entities) != len(spells) {
		t.Fatalf("Expected %d entities, got %d", len(spells), len(entities))
	}
	for i, e := range entities {
		if e.GetID() != spells[i].GetID() {
			t.Errorf("Expected entity %d at index %d, got %d", spells[i].GetID(), i, e.GetID())
		}
	}
}

func TestTileRequestsRemovalOfQueued(t *testing.T) {
	field := createTestField()
	host := NewArtifact(field.NextID(), "host", 0)
	field.AddEntity(host, 1, 1)

	keep := NewSpell(field.NextID(), TeamRed, "keep", 0, HitNone, 0)
	drop := NewSpell(field.NextID(), TeamRed, "drop", 0, HitNone, 0)
	host.OnUpdate = func(float64) {
		field.AddEntity(keep, 5, 1)
		field.AddEntity(drop, 5, 1)
		field.AddEntity(drop, 6, 1)
		field.TileRequestsRemovalOfQueued(field.GetAt(5, 1), drop.GetID())
		if field.PendingCount() != 2 {
			t.Errorf("Expected 2 pending entries, got %d", field.PendingCount())
		}
		host.OnUpdate = nil
	}

	field.Update(0.016)

	if field.GetAt(5, 1).ContainsEntity(drop.GetID()) {
		t.Error("Expected removed placement on (5,1) not to land")
	}
	if !field.GetAt(5, 1).ContainsEntity(keep.GetID()) {
		t.Error("Expected other placement on (5,1) to land")
	}
	if !field.GetAt(6, 1).ContainsEntity(drop.GetID()) {
		t.Error("Expected placement on (6,1) to land")
	}
}

func TestUpdate_DeletedBeforeFlushNeverLands(t *testing.T) {
	field := createTestField()
	host := NewArtifact(field.NextID(), "host", 0)
	field.AddEntity(host, 1, 1)

	ghost := NewSpell(field.NextID(), TeamRed, "ghost", 0, HitNone, 0)
	host.OnUpdate = func(float64) {
		field.AddEntity(ghost, 2, 2)
		ghost.Delete()
		host.OnUpdate = nil
	}

	field.Update(0.016)

	if field.GetEntity(ghost.GetID()) != nil {
		t.Error("Expected deleted entity not to be placed")
	}
	if field.PendingCount() != 0 {
		t.Errorf("Expected empty queue, got %d", field.PendingCount())
	}
}

func TestUpdate_DeletedCharacterPublished(t *testing.T) {
	field := createTestField()
	c := NewCharacter(field.NextID(), TeamBlue, "Mettaur", 40)
	field.AddEntity(c, 5, 2)

	var notified []EntityID
	field.Subscribe(DeleteListenerFunc(func(c *Character) {
		notified = append(notified, c.GetID())
	}))

	c.Hit(HitProperties{Damage: 40})
	if !c.IsDeleted() {
		t.Fatal("Expected character at 0 health to be deleted")
	}
	field.Update(0.016)

	if field.GetAt(5, 2).ContainsEntity(c.GetID()) {
		t.Error("Expected deleted character to be removed from its tile")
	}
	if len(notified) != 1 || notified[0] != c.GetID() {
		t.Errorf("Expected one notification for %d, got %v", c.GetID(), notified)
	}
}

func TestFindTilesAndEntities(t *testing.T) {
	field := createTestField()
	red := field.FindTiles(func(t *Tile) bool { return t.GetTeam() == TeamRed })
	if len(red) != 9 {
		t.Errorf("Expected 9 red tiles, got %d", len(red))
	}

	a := NewCharacter(field.NextID(), TeamRed, "A", 10)
	b := NewCharacter(field.NextID(), TeamBlue, "B", 10)
	field.AddEntity(b, 5, 1)
	field.AddEntity(a, 2, 3)

	all := field.FindEntities(func(Placeable) bool { return true })
	if len(all) != 2 {
		t.Fatalf("Expected 2 entities, got %d", len(all))
	}
	// column-major order
	if all[0].GetID() != a.GetID() || all[1].GetID() != b.GetID() {
		t.Errorf("Expected order [A B], got [%s %s]", all[0].GetName(), all[1].GetName())
	}

	if field.GetEntity(b.GetID()) != b {
		t.Error("Expected GetEntity to find B")
	}
	if field.GetEntity(999) != nil {
		t.Error("Expected GetEntity for unknown id to be nil")
	}
}

func TestSetBattleActive_Propagates(t *testing.T) {
	field := createTestField()
	field.SetBattleActive(true)

	for _, tile := range field.FindTiles(func(*Tile) bool { return true }) {
		if !tile.IsBattleActive() {
			t.Errorf("Expected tile (%d,%d) active", tile.GetX(), tile.GetY())
		}
	}

	field.SetBattleActive(false)
	if field.IsBattleActive() || field.GetAt(1, 1).IsBattleActive() {
		t.Error("Expected battle inactive")
	}
}

func TestSnapshotRestore(t *testing.T) {
	field := createTestField()
	field.GetAt(4, 1).SetState(TileIce)
	c := NewCharacter(field.NextID(), TeamRed, "MegaMan", 500)
	c.SetHealth(320)
	s := NewSpell(field.NextID(), TeamBlue, "Shot", 10, HitFlinch, 2)
	o := NewObstacle(field.NextID(), TeamUnknown, "Rock", 100)
	field.AddEntity(c, 2, 2)
	field.AddEntity(s, 5, 2)
	field.AddEntity(o, 4, 3)
	field.SetBattleActive(true)

	snapshot := field.Snapshot()
	restored, err := RestoreField(snapshot)
	if err != nil {
		t.Fatalf("RestoreField failed: %v", err)
	}

	if restored.GetAt(4, 1).GetState() != TileIce {
		t.Errorf("Expected ice at (4,1), got %s", restored.GetAt(4, 1).GetState())
	}
	if restored.GetAt(6, 3).GetTeam() != TeamBlue {
		t.Errorf("Expected blue team at (6,3), got %s", restored.GetAt(6, 3).GetTeam())
	}
	if !restored.IsBattleActive() {
		t.Error("Expected battle active after restore")
	}

	rc, ok := restored.GetEntity(c.GetID()).(*Character)
	if !ok {
		t.Fatal("Expected restored character")
	}
	if rc.GetHealth() != 320 || rc.GetMaxHealth() != 500 {
		t.Errorf("Expected health 320/500, got %d/%d", rc.GetHealth(), rc.GetMaxHealth())
	}
	if rc.GetTile() != restored.GetAt(2, 2) {
		t.Error("Expected character on (2,2)")
	}
	rs, ok := restored.GetEntity(s.GetID()).(*Spell)
	if !ok || rs.GetHitProperties().Damage != 10 {
		t.Error("Expected restored spell with damage 10")
	}
	if id := restored.NextID(); id != 4 {
		t.Errorf("Expected next id 4, got %d", id)
	}
}

func TestSnapshotRestore_SpellHitState(t *testing.T) {
	field := createTestField()
	enemy := NewCharacter(field.NextID(), TeamBlue, "Mettaur", 100)
	field.AddEntity(enemy, 5, 1)
	shot := NewSpell(field.NextID(), TeamRed, "Buster", 10, HitNone, 0)
	field.AddEntity(shot, 5, 1)
	field.Update(0.016)
	if enemy.GetHealth() != 90 {
		t.Fatalf("Expected 90 health after first hit, got %d", enemy.GetHealth())
	}

	hitbox := NewHitbox(field.NextID(), TeamRed, 20, HitNone)
	field.AddEntity(hitbox, 6, 3)

	restored, err := RestoreField(field.Snapshot())
	if err != nil {
		t.Fatalf("RestoreField failed: %v", err)
	}
	rs, ok := restored.GetEntity(shot.GetID()).(*Spell)
	if !ok || !rs.HasHit(enemy.GetID()) {
		t.Fatal("Expected restored spell to remember its hit")
	}

	restored.Update(0.016)

	re, ok := restored.GetEntity(enemy.GetID()).(*Character)
	if !ok {
		t.Fatal("Expected restored enemy")
	}
	if re.GetHealth() != 90 {
		t.Errorf("Expected restored spell not to hit again (90 health), got %d", re.GetHealth())
	}
	if restored.GetEntity(hitbox.GetID()) != nil {
		t.Error("Expected restored hitbox removed after one pass")
	}
}

func TestRestoreField_Invalid(t *testing.T) {
	if _, err := RestoreField(nil); err == nil {
		t.Error("Expected error for nil snapshot")
	}
	if _, err := RestoreField(&FieldSnapshot{Width: 0, Height: 3}); err == nil {
		t.Error("Expected error for zero width")
	}
	bad := &FieldSnapshot{Width: 2, Height: 2, Entities: []EntitySnapshot{{ID: 1, Category: "ghost", X: 1, Y: 1}}}
	if _, err := RestoreField(bad); err == nil {
		t.Error("Expected error for unknown category")
	}
}
