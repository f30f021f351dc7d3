package service

import (
	"context"
	"time"

	"github.com/wricardo/netbattle/game/battle"
	"github.com/wricardo/netbattle/game/mob"
	"github.com/wricardo/netbattle/game/overworld"
)

// BattleService defines all battle and map operations exposed to transports
type BattleService interface {
	// Session Management
	CreateSession(ctx context.Context, configName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Field Operations
	GetField(ctx context.Context, sessionID string) (*battle.FieldSnapshot, error)
	PlaceEntity(ctx context.Context, sessionID string, req PlaceRequest) (*PlaceResult, error)
	BeginMove(ctx context.Context, sessionID string, req MoveRequest) (*MoveResult, error)
	CommitMove(ctx context.Context, sessionID string, entity battle.EntityID) (*MoveResult, error)
	CancelMove(ctx context.Context, sessionID string, entity battle.EntityID) (*MoveResult, error)
	DeleteEntity(ctx context.Context, sessionID string, entity battle.EntityID) error
	Step(ctx context.Context, sessionID string, req StepRequest) (*StepResult, error)
	SetBattleActive(ctx context.Context, sessionID string, active bool) (*battle.FieldSnapshot, error)
	SetTile(ctx context.Context, sessionID string, req TileRequest) (*battle.TileSnapshot, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*battle.FieldConfig, error)
	SaveConfig(ctx context.Context, configName string, config *battle.FieldConfig) error

	// Overworld maps
	ListMaps(ctx context.Context) ([]*MapInfo, error)
	GetMap(ctx context.Context, mapName string) (*MapInfo, error)
	QueryMap(ctx context.Context, mapName string, query MapQuery) (*MapQueryResult, error)
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, configName string, config *battle.FieldConfig) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// ConfigManager handles battle configuration and map loading
type ConfigManager interface {
	LoadConfig(name string) (*battle.FieldConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *battle.FieldConfig
	SaveConfig(name string, config *battle.FieldConfig) error

	LoadMap(name string) (*overworld.Map, error)
	ListMaps() ([]*MapInfo, error)
}

// Session represents an active battle
type Session struct {
	ID             string
	ConfigName     string
	Config         *battle.FieldConfig
	Field          *battle.Field
	Mob            *mob.Mob // nil for configs without a mob and for restored sessions
	Elapsed        float64  // simulated seconds
	Steps          int
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
