package battle

// HitFlags are bit flags describing how an attack lands
type HitFlags uint32

const (
	HitNone     HitFlags = 0
	HitFlinch   HitFlags = 1 << 0
	HitRecoil   HitFlags = 1 << 1
	HitBreaking HitFlags = 1 << 2
	HitImpact   HitFlags = 1 << 3
	HitStun     HitFlags = 1 << 4
	HitPierce   HitFlags = 1 << 5
)

// Has reports whether all bits of flag are set
func (f HitFlags) Has(flag HitFlags) bool {
	return f&flag == flag
}

// HitProperties describe a single hit
type HitProperties struct {
	Damage    int      `json:"damage"`
	Flags     HitFlags `json:"flags"`
	Aggressor EntityID `json:"aggressor,omitempty"`
}

// DefenseRule is consulted before a spell damages a character.
// Check returns true when the rule blocks the attack.
type DefenseRule interface {
	Check(in *Spell, owner *Character) bool
}

// DefenseGuard blocks every attack without the breaking property and fires a callback
type DefenseGuard struct {
	callback func(in *Spell, owner *Character)
}

// NewDefenseGuard creates a guard rule; callback may be nil
func NewDefenseGuard(callback func(in *Spell, owner *Character)) *DefenseGuard {
	return &DefenseGuard{callback: callback}
}

// Check blocks non-breaking attacks
func (d *DefenseGuard) Check(in *Spell, owner *Character) bool {
	if in.GetHitProperties().Flags.Has(HitBreaking) {
		return false
	}
	if d.callback != nil {
		d.callback(in, owner)
	}
	return true
}

// DefenseAntiDamage blocks impact attacks dealing more than AntiDamageThreshold
// and fires a callback, typically used to counter-attack.
type DefenseAntiDamage struct {
	callback func(in *Spell, owner *Character)
}

// NewDefenseAntiDamage creates an anti-damage rule; callback may be nil
func NewDefenseAntiDamage(callback func(in *Spell, owner *Character)) *DefenseAntiDamage {
	return &DefenseAntiDamage{callback: callback}
}

// Check blocks heavy impact attacks
func (d *DefenseAntiDamage) Check(in *Spell, owner *Character) bool {
	props := in.GetHitProperties()
	if !props.Flags.Has(HitImpact) || props.Damage <= AntiDamageThreshold {
		return false
	}
	if d.callback != nil {
		d.callback(in, owner)
	}
	return true
}

// canAttack reports whether a spell may target an entity of another team.
// Spells and targets with an unknown team are never friendly.
func canAttack(spell, target Team) bool {
	if spell == TeamUnknown || target == TeamUnknown {
		return true
	}
	return spell != target
}
