// Package mob builds the enemy side of a battle.
//
// A Factory prepares a battle.Field (panel states, spawns, rewards) and returns a Mob
// tracking the spawned characters. Factories are looked up by name through a Registry:
//
//	registry := mob.NewRegistry(rand.New(rand.NewSource(seed)))
//	m, err := registry.Build("starfish", field)
//	m.Start()
//
// Start places every spawn on the field and keeps count of deleted enemies through the
// field's deletion listener, so IsCleared reports the end of the encounter.
package mob
