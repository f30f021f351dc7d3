package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/wricardo/netbattle/game/service"
	"github.com/wricardo/netbattle/game/session/migrations"
)

const migrationTable = "schema_migrations"

// SQLitePersistence implements SessionPersistence on a SQLite database
type SQLitePersistence struct {
	sqlDB         *sql.DB
	configManager service.ConfigManager
}

// NewSQLitePersistence opens (or creates) the database at path and applies
// the embedded migrations. ":memory:" opens a private in-memory database.
func NewSQLitePersistence(path string, configManager service.ConfigManager) (*SQLitePersistence, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := ":memory:"
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	}
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would get its own empty database
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLitePersistence{sqlDB: sqlDB, configManager: configManager}, nil
}

// Close closes the SQLite handle.
func (sp *SQLitePersistence) Close() error {
	if sp == nil || sp.sqlDB == nil {
		return nil
	}
	return sp.sqlDB.Close()
}

// Save upserts the session row
func (sp *SQLitePersistence) Save(session *service.Session) error {
	data, err := newPersistedData(session)
	if err != nil {
		return err
	}
	jsonData, err := data.marshal()
	if err != nil {
		return err
	}

	_, err = sp.sqlDB.Exec(`
INSERT INTO sessions (id, config_name, created_at, last_accessed_at, data)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    config_name = excluded.config_name,
    last_accessed_at = excluded.last_accessed_at,
    data = excluded.data`,
		strings.ToLower(session.ID),
		session.ConfigName,
		toMillis(session.CreatedAt),
		toMillis(session.LastAccessedAt),
		string(jsonData),
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load reads a session row and restores its field
func (sp *SQLitePersistence) Load(id string) (*service.Session, error) {
	var raw string
	err := sp.sqlDB.QueryRow(`SELECT data FROM sessions WHERE id = ?`, strings.ToLower(id)).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	data, err := unmarshalPersisted([]byte(raw))
	if err != nil {
		return nil, err
	}
	return data.restore(sp.configManager)
}

// Delete removes a session row
func (sp *SQLitePersistence) Delete(id string) error {
	res, err := sp.sqlDB.Exec(`DELETE FROM sessions WHERE id = ?`, strings.ToLower(id))
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// ListAll returns all persisted session IDs, most recently used first
func (sp *SQLitePersistence) ListAll() ([]string, error) {
	rows, err := sp.sqlDB.Query(`SELECT id FROM sessions ORDER BY last_accessed_at DESC`)
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

// Exists checks if a session row exists
func (sp *SQLitePersistence) Exists(id string) bool {
	var one int
	err := sp.sqlDB.QueryRow(`SELECT 1 FROM sessions WHERE id = ?`, strings.ToLower(id)).Scan(&one)
	return err == nil
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// applyMigrations executes embedded migrations at most once per file
func applyMigrations(sqlDB *sql.DB, migrationFS fs.FS) error {
	entries, err := fs.ReadDir(migrationFS, ".")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	var sqlFiles []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			sqlFiles = append(sqlFiles, entry.Name())
		}
	}
	sort.Strings(sqlFiles)

	createSQL := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    name TEXT PRIMARY KEY,
    applied_at INTEGER NOT NULL
);`, migrationTable)
	if _, err := sqlDB.Exec(createSQL); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	for _, file := range sqlFiles {
		content, err := fs.ReadFile(migrationFS, file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}

		var applied int
		err = sqlDB.QueryRow(fmt.Sprintf("SELECT COUNT(1) FROM %s WHERE name = ?", migrationTable), file).Scan(&applied)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", file, err)
		}
		if applied > 0 {
			continue
		}

		upSQL := extractUpMigration(string(content))
		if strings.TrimSpace(upSQL) == "" {
			continue
		}

		tx, err := sqlDB.BeginTx(context.Background(), nil)
		if err != nil {
			return fmt.Errorf("begin migration transaction %s: %w", file, err)
		}
		if _, err := tx.Exec(upSQL); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("exec migration %s: %w", file, err)
		}
		if _, err := tx.Exec(
			fmt.Sprintf("INSERT OR IGNORE INTO %s (name, applied_at) VALUES (?, ?)", migrationTable),
			file,
			time.Now().UTC().UnixMilli(),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", file, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", file, err)
		}
	}

	return nil
}

// extractUpMigration returns the SQL in the -- +migrate Up section.
func extractUpMigration(content string) string {
	upIdx := strings.Index(content, "-- +migrate Up")
	if upIdx == -1 {
		return content
	}
	downIdx := strings.Index(content, "-- +migrate Down")
	if downIdx == -1 {
		return content[upIdx+len("-- +migrate Up"):]
	}
	return content[upIdx+len("-- +migrate Up") : downIdx]
}
