package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/wricardo/netbattle/game/battle"
	"github.com/wricardo/netbattle/game/overworld"
)

var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrEntityNotFound = errors.New("entity not found")
	ErrNoMove         = errors.New("entity has no move in progress")
)

const (
	// MaxStepsPerCall bounds a single Step request
	MaxStepsPerCall = 600
	// MaxStepElapsed bounds the seconds simulated by one step
	MaxStepElapsed = 1.0
	// DefaultStepElapsed is one frame at 60 updates per second
	DefaultStepElapsed = 1.0 / 60.0

	defaultEntityHealth = 100
)

// battleServiceImpl implements the BattleService interface. One mutex
// serialises every field mutation across sessions.
type battleServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	mu       sync.RWMutex
	now      func() time.Time
}

// NewBattleService creates a new battle service instance
func NewBattleService(sessions SessionManager, configs ConfigManager) BattleService {
	return &battleServiceImpl{
		sessions: sessions,
		configs:  configs,
		now:      time.Now,
	}
}

// CreateSession creates a new battle session from a named config; an empty
// name uses the default config
func (s *battleServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *battle.FieldConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			if strings.Contains(err.Error(), "configuration not found") {
				available, listErr := s.configs.ListConfigs()
				if listErr == nil && len(available) > 0 {
					var ids []string
					for _, cfg := range available {
						ids = append(ids, cfg.ConfigID)
					}
					return nil, fmt.Errorf("config '%s' not found. Available configs: %v: %w", configName, ids, err)
				}
				return nil, fmt.Errorf("config '%s' not found. Use /api/configs to list available configurations: %w", configName, err)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
		configName = s.getConfigID(config)
	}

	session, err := s.sessions.Create("", configName, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return sessionInfo(session), nil
}

// GetSession retrieves session information
func (s *battleServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}
	return sessionInfo(session), nil
}

// ListSessions returns all active sessions
func (s *battleServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *battleServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions.Delete(sessionID)
}

// GetField returns the current field snapshot
func (s *battleServiceImpl) GetField(ctx context.Context, sessionID string) (*battle.FieldSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}
	return session.Field.Snapshot(), nil
}

// PlaceEntity creates an entity and adds it to the field. Out-of-bounds
// placements are dropped and reported with Placed=false.
func (s *battleServiceImpl) PlaceEntity(ctx context.Context, sessionID string, req PlaceRequest) (*PlaceResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}

	entity, err := newEntity(session.Field, req)
	if err != nil {
		return nil, err
	}

	if !session.Field.AddEntity(entity, req.X, req.Y) {
		return &PlaceResult{
			Placed:  false,
			Message: fmt.Sprintf("(%d,%d) is outside the %dx%d field", req.X, req.Y, session.Field.GetWidth(), session.Field.GetHeight()),
		}, nil
	}

	s.save(sessionID)

	snap := entitySnapshot(session.Field, entity.GetID())
	return &PlaceResult{
		Placed:  true,
		Entity:  snap,
		Message: fmt.Sprintf("%s %d placed at (%d,%d)", entity.GetCategory(), entity.GetID(), req.X, req.Y),
	}, nil
}

// BeginMove reserves a destination tile for an entity
func (s *battleServiceImpl) BeginMove(ctx context.Context, sessionID string, req MoveRequest) (*MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}

	entity := session.Field.GetEntity(req.Entity)
	if entity == nil {
		return nil, fmt.Errorf("%w: %d", ErrEntityNotFound, req.Entity)
	}

	var opts []battle.MoveOption
	if req.IgnoreTeam {
		opts = append(opts, battle.IgnoreTeam())
	}

	move, err := session.Field.BeginMove(entity, session.Field.GetAt(req.X, req.Y), opts...)
	if err != nil {
		result := &MoveResult{Success: false, Entity: req.Entity, State: session.Field.MoveStateOf(req.Entity), ToX: req.X, ToY: req.Y, Message: err.Error()}
		if tile := entity.GetTile(); tile != nil {
			result.FromX, result.FromY = tile.GetX(), tile.GetY()
		}
		return result, err
	}

	s.save(sessionID)
	return moveResult(move, true, "destination reserved"), nil
}

// CommitMove completes an entity's reserved move
func (s *battleServiceImpl) CommitMove(ctx context.Context, sessionID string, entity battle.EntityID) (*MoveResult, error) {
	return s.resolveMove(sessionID, entity, (*battle.Move).Commit, "move committed")
}

// CancelMove aborts an entity's reserved move
func (s *battleServiceImpl) CancelMove(ctx context.Context, sessionID string, entity battle.EntityID) (*MoveResult, error) {
	return s.resolveMove(sessionID, entity, (*battle.Move).Cancel, "move cancelled")
}

func (s *battleServiceImpl) resolveMove(sessionID string, entity battle.EntityID, resolve func(*battle.Move) error, message string) (*MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}

	move := session.Field.GetMove(entity)
	if move == nil {
		return nil, fmt.Errorf("%w: %d", ErrNoMove, entity)
	}

	if err := resolve(move); err != nil {
		s.save(sessionID)
		return moveResult(move, false, err.Error()), err
	}

	s.save(sessionID)
	return moveResult(move, true, message), nil
}

// DeleteEntity marks an entity deleted; it leaves the field on the next step
// and any pending insertion or move it has is dropped now
func (s *battleServiceImpl) DeleteEntity(ctx context.Context, sessionID string, id battle.EntityID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.touch(sessionID)
	if err != nil {
		return err
	}

	entity := session.Field.GetEntity(id)
	if entity == nil {
		return fmt.Errorf("%w: %d", ErrEntityNotFound, id)
	}

	entity.Delete()
	if move := session.Field.GetMove(id); move != nil {
		move.Cancel()
	}
	session.Field.TileRequestsRemovalOfQueued(nil, id)

	s.save(sessionID)
	return nil
}

// Step advances the battle by req.Steps updates of req.Elapsed seconds each and
// reports what changed. Cancelling ctx stops before the next update; updates
// already applied are saved and reported.
func (s *battleServiceImpl) Step(ctx context.Context, sessionID string, req StepRequest) (*StepResult, error) {
	if req.Steps == 0 {
		req.Steps = 1
	}
	if req.Elapsed == 0 {
		req.Elapsed = DefaultStepElapsed
	}
	if req.Steps < 0 || req.Steps > MaxStepsPerCall {
		return nil, fmt.Errorf("%w: steps must be between 1 and %d", ErrInvalidRequest, MaxStepsPerCall)
	}
	if req.Elapsed < 0 || req.Elapsed > MaxStepElapsed {
		return nil, fmt.Errorf("%w: elapsed must be between 0 and %v seconds", ErrInvalidRequest, MaxStepElapsed)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}

	before := observe(session.Field)
	wasCleared := session.Mob != nil && session.Mob.IsCleared()

	ran := 0
	for ; ran < req.Steps; ran++ {
		if err := ctx.Err(); err != nil {
			if ran == 0 {
				return nil, err
			}
			break
		}
		session.Field.Update(req.Elapsed)
		session.Elapsed += req.Elapsed
		session.Steps++
	}

	now := s.now()
	events := before.diff(observe(session.Field), now)

	result := &StepResult{
		Steps:   ran,
		Elapsed: session.Elapsed,
		Field:   session.Field.Snapshot(),
		Mob:     mobInfo(session),
	}
	if session.Mob != nil && session.Mob.IsCleared() {
		result.Finished = true
		if !wasCleared {
			events = append(events, BattleEvent{Type: "cleared", Message: fmt.Sprintf("%s cleared", session.Mob.GetName()), Timestamp: now})
		}
	}
	result.Events = events

	s.save(sessionID)
	return result, nil
}

// SetBattleActive starts or pauses panel timers and hazards
func (s *battleServiceImpl) SetBattleActive(ctx context.Context, sessionID string, active bool) (*battle.FieldSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}
	session.Field.SetBattleActive(active)
	s.save(sessionID)
	return session.Field.Snapshot(), nil
}

// SetTile changes a tile's state and/or team
func (s *battleServiceImpl) SetTile(ctx context.Context, sessionID string, req TileRequest) (*battle.TileSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}

	tile := session.Field.GetAt(req.X, req.Y)
	if tile == nil {
		return nil, fmt.Errorf("%w: (%d,%d): %w", ErrInvalidRequest, req.X, req.Y, battle.ErrOutOfBounds)
	}

	if req.State != "" {
		state, ok := battle.ParseTileState(req.State)
		if !ok {
			return nil, fmt.Errorf("%w: unknown tile state %q", ErrInvalidRequest, req.State)
		}
		tile.SetState(state)
	}
	if req.Team != "" {
		team := battle.ParseTeam(req.Team)
		if team == battle.TeamUnknown && !strings.EqualFold(req.Team, string(battle.TeamUnknown)) {
			return nil, fmt.Errorf("%w: unknown team %q", ErrInvalidRequest, req.Team)
		}
		tile.SetTeam(team)
	}

	s.save(sessionID)
	return tileSnapshot(session.Field, req.X, req.Y), nil
}

// ListConfigs returns available battle configurations
func (s *battleServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig returns a battle configuration by name
func (s *battleServiceImpl) LoadConfig(ctx context.Context, configName string) (*battle.FieldConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig stores a battle configuration
func (s *battleServiceImpl) SaveConfig(ctx context.Context, configName string, config *battle.FieldConfig) error {
	return s.configs.SaveConfig(configName, config)
}

// ListMaps returns available overworld maps
func (s *battleServiceImpl) ListMaps(ctx context.Context) ([]*MapInfo, error) {
	return s.configs.ListMaps()
}

// GetMap describes one overworld map
func (s *battleServiceImpl) GetMap(ctx context.Context, mapName string) (*MapInfo, error) {
	m, err := s.configs.LoadMap(mapName)
	if err != nil {
		return nil, err
	}
	size := m.GetTileSize()
	return &MapInfo{
		Filename:   strings.TrimSuffix(mapName, ".json") + ".json",
		MapID:      strings.TrimSuffix(mapName, ".json"),
		Name:       m.GetName(),
		Cols:       m.GetCols(),
		Rows:       m.GetRows(),
		TileWidth:  size.X,
		TileHeight: size.Y,
		Layers:     m.GetLayerCount(),
		Song:       m.GetMetadata().SongPath,
	}, nil
}

// QueryMap answers elevation, collision, occlusion and shadow queries for one
// tile-space position
func (s *battleServiceImpl) QueryMap(ctx context.Context, mapName string, query MapQuery) (*MapQueryResult, error) {
	m, err := s.configs.LoadMap(mapName)
	if err != nil {
		return nil, err
	}
	if query.Layer < 0 || query.Layer >= m.GetLayerCount() {
		return nil, fmt.Errorf("%w: layer %d out of range [0,%d)", ErrInvalidRequest, query.Layer, m.GetLayerCount())
	}

	cell := overworld.Point{X: int(query.X), Y: int(query.Y)}
	world := m.TileToWorld(overworld.Vec2{X: query.X, Y: query.Y})
	screen := m.WorldToScreen3(overworld.Vec3{X: world.X, Y: world.Y, Z: query.Z})

	result := &MapQueryResult{
		Map:         m.GetName(),
		X:           query.X,
		Y:           query.Y,
		Layer:       query.Layer,
		Elevation:   m.GetElevationAt(query.X, query.Y, query.Layer),
		CanMove:     m.CanMoveTo(query.X, query.Y, query.Z, query.Layer),
		Concealed:   query.X >= 0 && query.Y >= 0 && m.IsConcealed(cell, query.Layer),
		Shadowed:    query.X >= 0 && query.Y >= 0 && m.HasShadow(cell, query.Layer),
		IgnoreAbove: m.IgnoreTileAbove(query.X, query.Y, query.Layer),
		ScreenX:     screen.X,
		ScreenY:     screen.Y,
	}
	if tile := m.GetLayer(query.Layer).GetTileAt(query.X, query.Y); tile != nil {
		result.GID = tile.GID
		if meta := m.GetTileMeta(tile.GID); meta != nil {
			result.TileType = meta.Type
		}
	}
	return result, nil
}

// touch fetches a session and refreshes its access time
func (s *battleServiceImpl) touch(sessionID string) (*Session, error) {
	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return session, nil
}

func (s *battleServiceImpl) save(sessionID string) {
	if err := s.sessions.Save(sessionID); err != nil {
		log.Printf("Warning: failed to persist session %s: %v", sessionID, err)
	}
}

// getConfigID returns the config_id for a config, used for consistent API responses
func (s *battleServiceImpl) getConfigID(config *battle.FieldConfig) string {
	if config == nil {
		return "default"
	}
	available, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range available {
			if cfg.Name == config.Name {
				return cfg.ConfigID
			}
		}
	}
	if config.Name == "" {
		return "default"
	}
	return config.Name
}

func newEntity(field *battle.Field, req PlaceRequest) (battle.Placeable, error) {
	category, ok := battle.ParseCategory(req.Category)
	if !ok {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidRequest, req.Category)
	}
	team := battle.ParseTeam(req.Team)
	name := req.Name
	if name == "" {
		name = string(category)
	}
	health := req.Health
	if health <= 0 {
		health = defaultEntityHealth
	}
	if req.Lifetime < 0 || req.Damage < 0 {
		return nil, fmt.Errorf("%w: damage and lifetime cannot be negative", ErrInvalidRequest)
	}

	id := field.NextID()
	switch category {
	case battle.CategoryCharacter:
		return battle.NewCharacter(id, team, name, health), nil
	case battle.CategorySpell:
		if req.Hitbox {
			return battle.NewHitbox(id, team, req.Damage, 0), nil
		}
		return battle.NewSpell(id, team, name, req.Damage, 0, req.Lifetime), nil
	case battle.CategoryObstacle:
		return battle.NewObstacle(id, team, name, health), nil
	default:
		return battle.NewArtifact(id, name, req.Lifetime), nil
	}
}

func sessionInfo(session *Session) *SessionInfo {
	return &SessionInfo{
		ID:             session.ID,
		ConfigName:     session.ConfigName,
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessedAt,
		Elapsed:        session.Elapsed,
		Steps:          session.Steps,
		Mob:            mobInfo(session),
		Field:          session.Field.Snapshot(),
		FieldConfig:    session.Config,
	}
}

func mobInfo(session *Session) *MobInfo {
	if session.Mob == nil {
		return nil
	}
	return &MobInfo{
		Name:      session.Mob.GetName(),
		Remaining: session.Mob.GetRemainingMobCount(),
		Cleared:   session.Mob.IsCleared(),
	}
}

func moveResult(move *battle.Move, success bool, message string) *MoveResult {
	return &MoveResult{
		Success: success,
		Entity:  move.GetEntity().GetID(),
		State:   move.GetState(),
		FromX:   move.GetSource().GetX(),
		FromY:   move.GetSource().GetY(),
		ToX:     move.GetDestination().GetX(),
		ToY:     move.GetDestination().GetY(),
		Message: message,
	}
}

func entitySnapshot(field *battle.Field, id battle.EntityID) *battle.EntitySnapshot {
	for _, es := range field.Snapshot().Entities {
		if es.ID == id {
			return &es
		}
	}
	return nil
}

func tileSnapshot(field *battle.Field, x, y int) *battle.TileSnapshot {
	for _, ts := range field.Snapshot().Tiles {
		if ts.X == x && ts.Y == y {
			return &ts
		}
	}
	return nil
}
