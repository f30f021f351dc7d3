package mob

import (
	"fmt"
	"log"
	"sort"

	"github.com/wricardo/netbattle/game/battle"
)

// Reward is an item granted at or above a battle rank
type Reward struct {
	Rank        int    `json:"rank"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Code        rune   `json:"code"`
	Amount      int    `json:"amount"`
}

// Spawn is a character waiting to be placed when the mob starts
type Spawn struct {
	Character *battle.Character
	X, Y      int
}

// Mob is the enemy roster of one battle
type Mob struct {
	name    string
	field   *battle.Field
	spawns  []Spawn
	rewards []Reward
	started bool
	deleted map[battle.EntityID]bool
}

// NewMob creates an empty mob on field
func NewMob(name string, field *battle.Field) *Mob {
	return &Mob{
		name:    name,
		field:   field,
		deleted: make(map[battle.EntityID]bool),
	}
}

// GetName returns the factory name that built the mob
func (m *Mob) GetName() string {
	return m.name
}

// GetField returns the field the mob fights on
func (m *Mob) GetField() *battle.Field {
	return m.field
}

// Spawn registers c to be placed on (x, y) when the mob starts
func (m *Mob) Spawn(c *battle.Character, x, y int) error {
	if m.field.GetAt(x, y) == nil {
		return fmt.Errorf("spawn %s at (%d,%d): %w", c.GetName(), x, y, battle.ErrOutOfBounds)
	}
	m.spawns = append(m.spawns, Spawn{Character: c, X: x, Y: y})
	return nil
}

// GetSpawns returns the registered spawns in registration order
func (m *Mob) GetSpawns() []Spawn {
	out := make([]Spawn, len(m.spawns))
	copy(out, m.spawns)
	return out
}

// RegisterRankedReward adds a reward granted for ranks >= reward.Rank
func (m *Mob) RegisterRankedReward(reward Reward) {
	m.rewards = append(m.rewards, reward)
	sort.SliceStable(m.rewards, func(i, j int) bool { return m.rewards[i].Rank < m.rewards[j].Rank })
}

// GetRankedReward returns the best reward for rank, if any
func (m *Mob) GetRankedReward(rank int) (Reward, bool) {
	var best Reward
	found := false
	for _, r := range m.rewards {
		if r.Rank > rank {
			break
		}
		best = r
		found = true
	}
	return best, found
}

// Start places the spawns and begins counting defeated enemies. Calling it twice is a no-op.
func (m *Mob) Start() {
	if m.started {
		return
	}
	m.started = true

	m.field.Subscribe(battle.DeleteListenerFunc(func(c *battle.Character) {
		for _, s := range m.spawns {
			if s.Character == c {
				m.deleted[c.GetID()] = true
				log.Printf("mob %s: %s defeated (%d remaining)", m.name, c.GetName(), m.GetRemainingMobCount())
				return
			}
		}
	}))

	for _, s := range m.spawns {
		if !m.field.AddEntity(s.Character, s.X, s.Y) {
			log.Printf("mob %s: could not place %s at (%d,%d)", m.name, s.Character.GetName(), s.X, s.Y)
		}
	}
}

// IsStarted reports whether Start was called
func (m *Mob) IsStarted() bool {
	return m.started
}

// GetRemainingMobCount returns how many spawned characters are still alive
func (m *Mob) GetRemainingMobCount() int {
	return len(m.spawns) - len(m.deleted)
}

// IsCleared reports whether every spawn was defeated
func (m *Mob) IsCleared() bool {
	return m.started && m.GetRemainingMobCount() == 0
}
