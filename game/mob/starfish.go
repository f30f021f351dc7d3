package mob

import (
	"math/rand"
	"sync"

	"github.com/wricardo/netbattle/game/battle"
)

// StarfishHealth is the health of a rank 1 Starfish
const StarfishHealth = 100

// Starfish builds two Starfish in the back rows of the blue side. One battle in ten
// freezes the whole field; otherwise two conveyor panels push toward the player.
type Starfish struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewStarfish creates the factory; rng must not be nil
func NewStarfish(rng *rand.Rand) *Starfish {
	return &Starfish{rng: rng}
}

// Name returns "starfish"
func (s *Starfish) Name() string {
	return "starfish"
}

// Build spawns the Starfish and sets the panel states
func (s *Starfish) Build(field *battle.Field) (*Mob, error) {
	if err := requireSize(field, 6, 3); err != nil {
		return nil, err
	}

	s.mu.Lock()
	top := 4 + s.rng.Intn(3)
	bottom := 4 + s.rng.Intn(3)
	allIce := s.rng.Intn(10) == 0
	s.mu.Unlock()

	m := NewMob(s.Name(), field)
	m.RegisterRankedReward(Reward{Rank: 1, Name: "Recov30", Description: "Recover 30HP", Code: 'R', Amount: 30})
	m.RegisterRankedReward(Reward{Rank: 11, Name: "Recov300", Description: "Recover 300HP", Code: 'R', Amount: 300})

	if err := m.Spawn(battle.NewCharacter(field.NextID(), battle.TeamBlue, "Starfish", StarfishHealth), top, 1); err != nil {
		return nil, err
	}
	if err := m.Spawn(battle.NewCharacter(field.NextID(), battle.TeamBlue, "Starfish", StarfishHealth), bottom, 3); err != nil {
		return nil, err
	}

	for _, t := range field.FindTiles(func(*battle.Tile) bool { return true }) {
		if allIce {
			t.SetState(battle.TileIce)
			continue
		}
		if t.GetX() == 3 && (t.GetY() == 1 || t.GetY() == 3) {
			t.SetState(battle.TileDirectionLeft)
		}
	}

	return m, nil
}
