package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/wricardo/netbattle/game/battle"
	"github.com/wricardo/netbattle/game/service"
)

// SessionPersistence defines the interface for persisting sessions
type SessionPersistence interface {
	// Save persists a session to storage
	Save(session *service.Session) error

	// Load retrieves a session from storage by ID
	Load(id string) (*service.Session, error)

	// Delete removes a session from storage
	Delete(id string) error

	// ListAll returns all persisted session IDs
	ListAll() ([]string, error)

	// Exists checks if a session exists in storage
	Exists(id string) bool
}

// PersistedSessionData is the stored form of a session shared by every backend
type PersistedSessionData struct {
	ID             string                `json:"id"`
	ConfigName     string                `json:"config_name"`
	MobName        string                `json:"mob,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
	LastAccessedAt time.Time             `json:"last_accessed_at"`
	Elapsed        float64               `json:"elapsed"`
	Steps          int                   `json:"steps"`
	Field          *battle.FieldSnapshot `json:"field"`
}

func newPersistedData(session *service.Session) (*PersistedSessionData, error) {
	if session == nil {
		return nil, fmt.Errorf("session cannot be nil")
	}
	if session.Field == nil {
		return nil, fmt.Errorf("session %s has no field", session.ID)
	}

	data := &PersistedSessionData{
		ID:             session.ID,
		ConfigName:     session.ConfigName,
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessedAt,
		Elapsed:        session.Elapsed,
		Steps:          session.Steps,
		Field:          session.Field.Snapshot(),
	}
	if session.Mob != nil {
		data.MobName = session.Mob.GetName()
	}
	return data, nil
}

func (d *PersistedSessionData) marshal() ([]byte, error) {
	jsonData, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session data: %w", err)
	}
	return jsonData, nil
}

func unmarshalPersisted(jsonData []byte) (*PersistedSessionData, error) {
	var data PersistedSessionData
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session data: %w", err)
	}
	return &data, nil
}

// restore rebuilds the live session. The field comes back from its snapshot;
// mob behaviour hooks are not reattached, so restored enemies stand still.
func (d *PersistedSessionData) restore(configs service.ConfigManager) (*service.Session, error) {
	var fieldConfig *battle.FieldConfig
	if configs != nil {
		if d.ConfigName == "" {
			fieldConfig = configs.GetDefault()
		} else {
			loaded, err := configs.LoadConfig(d.ConfigName)
			if err != nil {
				return nil, fmt.Errorf("failed to load config '%s': %w", d.ConfigName, err)
			}
			fieldConfig = loaded
		}
	}

	field, err := battle.RestoreField(d.Field)
	if err != nil {
		return nil, fmt.Errorf("failed to restore field: %w", err)
	}

	return &service.Session{
		ID:             d.ID,
		ConfigName:     d.ConfigName,
		Config:         fieldConfig,
		Field:          field,
		Elapsed:        d.Elapsed,
		Steps:          d.Steps,
		CreatedAt:      d.CreatedAt,
		LastAccessedAt: d.LastAccessedAt,
	}, nil
}
