package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/wricardo/netbattle/game/battle"
)

// fieldObservation records what a step can change
type fieldObservation struct {
	health map[battle.EntityID]int
	names  map[battle.EntityID]string
	tiles  map[[2]int]battle.TileState
}

func observe(field *battle.Field) fieldObservation {
	obs := fieldObservation{
		health: make(map[battle.EntityID]int),
		names:  make(map[battle.EntityID]string),
		tiles:  make(map[[2]int]battle.TileState),
	}
	for _, e := range field.FindEntities(func(battle.Placeable) bool { return true }) {
		obs.names[e.GetID()] = e.GetName()
		if h, ok := e.(battle.Hittable); ok {
			obs.health[e.GetID()] = h.GetHealth()
		}
	}
	for _, t := range field.FindTiles(func(*battle.Tile) bool { return true }) {
		obs.tiles[[2]int{t.GetX(), t.GetY()}] = t.GetState()
	}
	return obs
}

// diff lists damage, deletions and panel changes between two observations,
// ordered by entity ID then tile position
func (before fieldObservation) diff(after fieldObservation, now time.Time) []BattleEvent {
	events := []BattleEvent{}

	ids := make([]battle.EntityID, 0, len(before.names))
	for id := range before.names {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		name := before.names[id]
		if _, alive := after.names[id]; !alive {
			events = append(events, BattleEvent{Type: "deleted", Message: fmt.Sprintf("%s %d deleted", name, id), Entity: id, Timestamp: now})
			continue
		}
		if was, ok := before.health[id]; ok {
			if is := after.health[id]; is < was {
				events = append(events, BattleEvent{Type: "damaged", Message: fmt.Sprintf("%s %d took %d damage (%d left)", name, id, was-is, is), Entity: id, Timestamp: now})
			}
		}
	}

	keys := make([][2]int, 0, len(before.tiles))
	for k := range before.tiles {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][1] != keys[j][1] {
			return keys[i][1] < keys[j][1]
		}
		return keys[i][0] < keys[j][0]
	})

	for _, k := range keys {
		if was, is := before.tiles[k], after.tiles[k]; was != is {
			events = append(events, BattleEvent{Type: "tile", Message: fmt.Sprintf("tile (%d,%d) %s -> %s", k[0], k[1], was, is), Timestamp: now})
		}
	}
	return events
}
