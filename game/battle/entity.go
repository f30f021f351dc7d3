package battle

// Placeable is the capability set every object occupying tiles must satisfy.
// Field depends only on this interface, never on a concrete entity kind.
type Placeable interface {
	GetID() EntityID
	GetCategory() Category
	GetTeam() Team
	GetName() string
	GetTile() *Tile

	// AdoptTile commits occupancy of tile and releases the previous tile
	AdoptTile(tile *Tile)

	Update(elapsed float64)
	IsDeleted() bool
	Delete()
}

// Hittable is implemented by entities that take damage
type Hittable interface {
	Placeable
	Hit(props HitProperties) bool
	GetHealth() int
}

// Entity is the shared base embedded by every entity kind
type Entity struct {
	id       EntityID
	category Category
	team     Team
	name     string
	tile     *Tile
	deleted  bool

	// OnUpdate runs once per field update while the entity is alive.
	// It may add entities to the field; those are queued until the pass ends.
	OnUpdate func(elapsed float64)
}

func newEntity(id EntityID, category Category, team Team, name string) Entity {
	return Entity{
		id:       id,
		category: category,
		team:     team,
		name:     name,
	}
}

// GetID returns the entity ID
func (e *Entity) GetID() EntityID {
	return e.id
}

// GetCategory returns the entity kind
func (e *Entity) GetCategory() Category {
	return e.category
}

// GetTeam returns the entity's team
func (e *Entity) GetTeam() Team {
	return e.team
}

// SetTeam changes the entity's team
func (e *Entity) SetTeam(team Team) {
	e.team = team
}

// GetName returns the display name
func (e *Entity) GetName() string {
	return e.name
}

// GetTile returns the tile currently occupied, or nil if not placed
func (e *Entity) GetTile() *Tile {
	return e.tile
}

// AdoptTile makes tile the entity's current tile, removing it from the previous one.
// Occupancy on the new tile is recorded by the caller (Field or Move).
func (e *Entity) AdoptTile(tile *Tile) {
	prev := e.tile
	if prev != nil && prev != tile {
		prev.RemoveEntityByID(e.id)
		if e.category == CategoryCharacter {
			prev.onCharacterLeft()
		}
	}
	e.tile = tile
}

// Update runs the OnUpdate hook
func (e *Entity) Update(elapsed float64) {
	if e.OnUpdate != nil {
		e.OnUpdate(elapsed)
	}
}

// IsDeleted reports whether the entity was marked for removal
func (e *Entity) IsDeleted() bool {
	return e.deleted
}

// Delete marks the entity for removal at the end of the current field update
func (e *Entity) Delete() {
	e.deleted = true
}

// blocksMovement reports whether an entity kind prevents others from sharing its tile
func blocksMovement(category Category) bool {
	return category == CategoryCharacter || category == CategoryObstacle
}

// Character is a navi or virus taking part in the battle
type Character struct {
	Entity
	health    int
	maxHealth int
	hitCount  int
	defenses  []DefenseRule

	// OnHit runs after damage has been applied
	OnHit func(props HitProperties)
}

// NewCharacter creates a character with full health
func NewCharacter(id EntityID, team Team, name string, health int) *Character {
	return &Character{
		Entity:    newEntity(id, CategoryCharacter, team, name),
		health:    health,
		maxHealth: health,
	}
}

// GetHealth returns the current health
func (c *Character) GetHealth() int {
	return c.health
}

// GetMaxHealth returns the starting health
func (c *Character) GetMaxHealth() int {
	return c.maxHealth
}

// SetHealth sets health, clamped to [0, max]
func (c *Character) SetHealth(health int) {
	if health > c.maxHealth {
		health = c.maxHealth
	}
	if health < 0 {
		health = 0
	}
	c.health = health
}

// GetHitCount returns how many hits landed on this character
func (c *Character) GetHitCount() int {
	return c.hitCount
}

// AddDefenseRule appends a rule consulted before spell damage is applied
func (c *Character) AddDefenseRule(rule DefenseRule) {
	c.defenses = append(c.defenses, rule)
}

// RemoveDefenseRule removes a previously added rule
func (c *Character) RemoveDefenseRule(rule DefenseRule) {
	for i, r := range c.defenses {
		if r == rule {
			c.defenses = append(c.defenses[:i], c.defenses[i+1:]...)
			return
		}
	}
}

// blocks runs the defense rules in order and reports whether one blocked the spell
func (c *Character) blocks(in *Spell) bool {
	for _, rule := range c.defenses {
		if rule.Check(in, c) {
			return true
		}
	}
	return false
}

// Hit applies damage directly, without consulting defense rules.
// A character standing on a holy panel takes half damage.
func (c *Character) Hit(props HitProperties) bool {
	if c.deleted {
		return false
	}

	damage := props.Damage
	if c.tile != nil && c.tile.GetState() == TileHoly {
		damage /= 2
	}

	c.health -= damage
	c.hitCount++
	if c.health <= 0 {
		c.health = 0
		c.Delete()
	}

	if c.OnHit != nil {
		c.OnHit(props)
	}
	return true
}

// Spell is an attack occupying tiles and hitting what it shares a tile with
type Spell struct {
	Entity
	props    HitProperties
	lifetime float64
	age      float64
	oneShot  bool
	hit      map[EntityID]bool
}

// NewSpell creates a spell; lifetime 0 means it lives until deleted
func NewSpell(id EntityID, team Team, name string, damage int, flags HitFlags, lifetime float64) *Spell {
	return &Spell{
		Entity:   newEntity(id, CategorySpell, team, name),
		props:    HitProperties{Damage: damage, Flags: flags},
		lifetime: lifetime,
		hit:      make(map[EntityID]bool),
	}
}

// NewHitbox creates a spell that attacks during one field pass and is then removed
func NewHitbox(id EntityID, team Team, damage int, flags HitFlags) *Spell {
	s := NewSpell(id, team, "Hitbox", damage, flags, 0)
	s.oneShot = true
	return s
}

// GetHitProperties returns the spell's hit properties
func (s *Spell) GetHitProperties() HitProperties {
	return s.props
}

// SetHitProperties replaces the spell's hit properties
func (s *Spell) SetHitProperties(props HitProperties) {
	s.props = props
}

// Attack hits target unless one of its defense rules blocks the spell.
// Each spell hits a given target at most once.
func (s *Spell) Attack(target Hittable) bool {
	if s.deleted || target.IsDeleted() || s.hit[target.GetID()] {
		return false
	}
	s.hit[target.GetID()] = true

	if c, ok := target.(*Character); ok && c.blocks(s) {
		return false
	}

	props := s.props
	props.Aggressor = s.id
	return target.Hit(props)
}

// HasHit reports whether the spell already attacked the given entity
func (s *Spell) HasHit(id EntityID) bool {
	return s.hit[id]
}

// Update ages the spell and removes it once its lifetime is spent
func (s *Spell) Update(elapsed float64) {
	s.Entity.Update(elapsed)

	if s.oneShot {
		s.Delete()
		return
	}

	if s.lifetime > 0 {
		s.age += elapsed
		if s.age >= s.lifetime {
			s.Delete()
		}
	}
}

// Obstacle is a solid object such as a rock cube; it blocks movement and can be broken
type Obstacle struct {
	Entity
	health int
}

// NewObstacle creates an obstacle with the given durability
func NewObstacle(id EntityID, team Team, name string, health int) *Obstacle {
	return &Obstacle{
		Entity: newEntity(id, CategoryObstacle, team, name),
		health: health,
	}
}

// GetHealth returns the remaining durability
func (o *Obstacle) GetHealth() int {
	return o.health
}

// Hit damages the obstacle; it is deleted at zero durability
func (o *Obstacle) Hit(props HitProperties) bool {
	if o.deleted {
		return false
	}
	o.health -= props.Damage
	if o.health <= 0 {
		o.health = 0
		o.Delete()
	}
	return true
}

// Artifact is a purely visual entity, such as an explosion
type Artifact struct {
	Entity
	lifetime float64
	age      float64
}

// NewArtifact creates an artifact; lifetime 0 means it lives until deleted
func NewArtifact(id EntityID, name string, lifetime float64) *Artifact {
	return &Artifact{
		Entity:   newEntity(id, CategoryArtifact, TeamUnknown, name),
		lifetime: lifetime,
	}
}

// Update ages the artifact
func (a *Artifact) Update(elapsed float64) {
	a.Entity.Update(elapsed)
	if a.lifetime > 0 {
		a.age += elapsed
		if a.age >= a.lifetime {
			a.Delete()
		}
	}
}
