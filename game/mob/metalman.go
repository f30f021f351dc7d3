package mob

import (
	"log"

	"github.com/wricardo/netbattle/game/battle"
)

// MetalMan timings in seconds
const (
	MetalManHealth      = 1000
	MetalManPunchDamage = 100
	MetalManIdleTime    = 1.2
	MetalManMoveTime    = 0.3
	MetalManPunchTime   = 0.6
	MetalManGroundHitAt = 0.3
)

type metalState int

const (
	metalIdle metalState = iota
	metalMoving
	metalPunching
	metalReturning
)

// MetalMan builds a single boss who walks up to the player, punches the panel in
// front of him and walks back.
type MetalMan struct{}

// NewMetalMan creates the factory
func NewMetalMan() *MetalMan {
	return &MetalMan{}
}

// Name returns "metalman"
func (f *MetalMan) Name() string {
	return "metalman"
}

// Build spawns MetalMan at (5,2) and wires his behaviour
func (f *MetalMan) Build(field *battle.Field) (*Mob, error) {
	if err := requireSize(field, 6, 3); err != nil {
		return nil, err
	}

	m := NewMob(f.Name(), field)
	m.RegisterRankedReward(Reward{Rank: 1, Name: "MetalMan", Description: "Punches the panel ahead", Code: 'M', Amount: MetalManPunchDamage})

	metal := battle.NewCharacter(field.NextID(), battle.TeamBlue, "MetalMan", MetalManHealth)
	ai := &metalManAI{metal: metal, field: field, timer: MetalManIdleTime}
	metal.OnUpdate = ai.update

	if err := m.Spawn(metal, 5, 2); err != nil {
		return nil, err
	}
	return m, nil
}

type metalManAI struct {
	metal *battle.Character
	field *battle.Field
	state metalState
	timer float64
	move  *battle.Move
	home  *battle.Tile
	hit   bool
}

func (ai *metalManAI) update(elapsed float64) {
	ai.timer -= elapsed

	switch ai.state {
	case metalIdle:
		if ai.timer < 0 {
			ai.approach()
		}

	case metalMoving:
		if ai.timer > 0 {
			return
		}
		if err := ai.move.Commit(); err != nil {
			log.Printf("metalman: approach failed: %v", err)
			ai.rest()
			return
		}
		ai.state = metalPunching
		ai.timer = MetalManPunchTime
		ai.hit = false

	case metalPunching:
		if !ai.hit && ai.timer <= MetalManPunchTime-MetalManGroundHitAt {
			ai.hit = true
			ai.groundHit()
		}
		if ai.timer <= 0 {
			ai.retreat()
		}

	case metalReturning:
		if ai.timer > 0 {
			return
		}
		if err := ai.move.Commit(); err != nil {
			log.Printf("metalman: retreat failed: %v", err)
		}
		ai.rest()
	}
}

func (ai *metalManAI) rest() {
	ai.state = metalIdle
	ai.timer = MetalManIdleTime
	ai.move = nil
}

// approach reserves the panel behind the first red character
func (ai *metalManAI) approach() {
	targets := ai.field.FindEntities(func(e battle.Placeable) bool {
		return e.GetCategory() == battle.CategoryCharacter && e.GetTeam() == battle.TeamRed && !e.IsDeleted()
	})
	if len(targets) == 0 {
		ai.rest()
		return
	}

	target := targets[0].GetTile()
	next := ai.field.GetAt(target.GetX()+1, target.GetY())
	if next == nil || next == ai.metal.GetTile() {
		ai.rest()
		return
	}

	move, err := ai.field.BeginMove(ai.metal, next, battle.IgnoreTeam())
	if err != nil {
		ai.rest()
		return
	}

	ai.home = ai.metal.GetTile()
	ai.move = move
	ai.state = metalMoving
	ai.timer = MetalManMoveTime
}

// groundHit drops a hitbox on the panel in front and cracks it
func (ai *metalManAI) groundHit() {
	tile := ai.metal.GetTile()
	if tile == nil {
		return
	}
	front := ai.field.GetAt(tile.GetX()-1, tile.GetY())
	if front == nil {
		return
	}

	hitbox := battle.NewHitbox(ai.field.NextID(), ai.metal.GetTeam(), MetalManPunchDamage, battle.HitFlinch)
	ai.field.AddEntity(hitbox, front.GetX(), front.GetY())
	front.Crack()
}

func (ai *metalManAI) retreat() {
	if ai.home == nil || ai.home == ai.metal.GetTile() {
		ai.rest()
		return
	}
	move, err := ai.field.BeginMove(ai.metal, ai.home, battle.IgnoreTeam())
	if err != nil {
		// home was taken; fight from here
		ai.rest()
		return
	}
	ai.move = move
	ai.state = metalReturning
	ai.timer = MetalManMoveTime
}
