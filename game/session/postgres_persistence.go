package session

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/wricardo/netbattle/game/service"
)

// PostgresPersistence implements SessionPersistence on PostgreSQL, storing the
// session document as JSONB
type PostgresPersistence struct {
	db            *sql.DB
	configManager service.ConfigManager
}

// NewPostgresPersistence connects and initialises the schema
func NewPostgresPersistence(connectionString string, configManager service.ConfigManager) (*PostgresPersistence, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pp := &PostgresPersistence{db: db, configManager: configManager}
	if err := pp.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return pp, nil
}

func (pp *PostgresPersistence) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS battle_sessions (
		id TEXT PRIMARY KEY,
		config_name TEXT NOT NULL DEFAULT '',
		data JSONB NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL,
		last_accessed_at TIMESTAMP WITH TIME ZONE NOT NULL,
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);
	`
	_, err := pp.db.Exec(schema)
	return err
}

// Close closes the database connection
func (pp *PostgresPersistence) Close() error {
	return pp.db.Close()
}

// Save upserts the session document
func (pp *PostgresPersistence) Save(session *service.Session) error {
	data, err := newPersistedData(session)
	if err != nil {
		return err
	}
	jsonData, err := data.marshal()
	if err != nil {
		return err
	}

	query := `
	INSERT INTO battle_sessions (id, config_name, data, created_at, last_accessed_at)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (id)
	DO UPDATE SET
		config_name = $2, data = $3, last_accessed_at = $5,
		updated_at = NOW()
	`
	_, err = pp.db.Exec(query,
		strings.ToLower(session.ID), session.ConfigName, string(jsonData),
		session.CreatedAt, session.LastAccessedAt)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load reads a session document and restores its field
func (pp *PostgresPersistence) Load(id string) (*service.Session, error) {
	var raw []byte
	err := pp.db.QueryRow(`SELECT data FROM battle_sessions WHERE id = $1`, strings.ToLower(id)).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	data, err := unmarshalPersisted(raw)
	if err != nil {
		return nil, err
	}
	return data.restore(pp.configManager)
}

// Delete removes a session document
func (pp *PostgresPersistence) Delete(id string) error {
	res, err := pp.db.Exec(`DELETE FROM battle_sessions WHERE id = $1`, strings.ToLower(id))
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// ListAll returns all persisted session IDs
func (pp *PostgresPersistence) ListAll() ([]string, error) {
	rows, err := pp.db.Query(`SELECT id FROM battle_sessions ORDER BY last_accessed_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Exists checks if a session document exists
func (pp *PostgresPersistence) Exists(id string) bool {
	var exists bool
	err := pp.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM battle_sessions WHERE id = $1)`, strings.ToLower(id)).Scan(&exists)
	return err == nil && exists
}
