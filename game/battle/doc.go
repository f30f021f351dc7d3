// Package battle provides the battlefield core of the NetBattle engine.
//
// The battle package implements:
//   - A fixed-size grid of tiles with team ownership and panel states
//   - Entity placement through the Placeable capability interface
//   - Deferred insertion while the field is updating
//   - A two-phase reserve/commit protocol for moves between tiles
//   - Attack resolution between spells and characters sharing a tile
//
// Core Types:
//
// Field owns the tile grid and mediates every placement. Tile tracks the
// entities occupying it and the entity IDs that reserved it mid-move. The
// four entity kinds (Character, Spell, Obstacle, Artifact) embed Entity and
// satisfy Placeable, which is the only thing Field depends on.
//
// Usage:
//
//	field := battle.NewField(6, 3)
//	field.SplitTeams(3)
//
//	mega := battle.NewCharacter(field.NextID(), battle.TeamRed, "Mega", 100)
//	field.AddEntity(mega, 2, 2)
//
//	move, err := field.BeginMove(mega, field.GetAt(1, 2))
//	if err == nil {
//		move.Commit()
//	}
//
//	field.SetBattleActive(true)
//	field.Update(1.0 / 60.0)
//
// Coordinates:
//
// The public API is 1-based: a 6x3 field accepts x in [1,6] and y in [1,3].
// GetAt returns nil outside that range and every other spatial query relies
// on it for bounds checks.
package battle
