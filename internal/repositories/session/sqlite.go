package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/KirkDiggler/gamenight/internal/common/clock"
	"github.com/KirkDiggler/gamenight/internal/common/uuid"
	"github.com/KirkDiggler/gamenight/internal/models"
	"github.com/KirkDiggler/gamenight/internal/repositories/session/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

const sessionColumns = `storage_id, id, name, players, games, revision, created_at, updated_at`

// SQLiteConfig holds configuration for the SQLite session repository
type SQLiteConfig struct {
	// Path to the database file. It is created if missing.
	Path string

	// Clock stamps createdAt and updatedAt. Defaults to the system clock.
	Clock clock.Clock

	// UUIDGenerator assigns storage IDs. Defaults to random UUIDs.
	UUIDGenerator uuid.UUID
}

// sqliteRepository implements the Repository interface on a single
// sessions table. Players and games are stored as JSON columns.
type sqliteRepository struct {
	db    *sql.DB
	clock clock.Clock
	uuid  uuid.UUID
}

// execer is satisfied by *sql.DB and *sql.Tx
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// OpenSQLite opens the database file and applies the embedded migrations
func OpenSQLite(cfg *SQLiteConfig) (*sqliteRepository, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path cannot be empty")
	}

	dsn := filepath.Clean(cfg.Path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}

	// One writer at a time keeps read-then-write transactions serialized
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}

	if err := applyMigrations(context.Background(), db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	repo := &sqliteRepository{
		db:    db,
		clock: cfg.Clock,
		uuid:  cfg.UUIDGenerator,
	}
	if repo.clock == nil {
		repo.clock = clock.New()
	}
	if repo.uuid == nil {
		repo.uuid = uuid.New()
	}

	return repo, nil
}

// Close closes the database handle
func (r *sqliteRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// applyMigrations runs every embedded .sql file once, in name order
func applyMigrations(ctx context.Context, db *sql.DB, migrationFS fs.FS) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name TEXT PRIMARY KEY,
			applied_at INTEGER NOT NULL
		)`); err != nil {
		return fmt.Errorf("failed to ensure migration table: %w", err)
	}

	entries, err := fs.ReadDir(migrationFS, ".")
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	for _, file := range files {
		var applied int
		err := db.QueryRowContext(ctx, `SELECT COUNT(1) FROM schema_migrations WHERE name = ?`, file).Scan(&applied)
		if err != nil {
			return fmt.Errorf("failed to check migration %s: %w", file, err)
		}
		if applied > 0 {
			continue
		}

		content, err := fs.ReadFile(migrationFS, file)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file, err)
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %s: %w", file, err)
		}
		if _, err := tx.ExecContext(ctx, string(content)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to apply migration %s: %w", file, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO schema_migrations (name, applied_at) VALUES (?, ?)`,
			file, toMillis(time.Now()),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %s: %w", file, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %s: %w", file, err)
		}
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() {
	case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
		return true
	}
	return false
}

func scanRecord(row rowScanner) (*sessionRecord, error) {
	var (
		record    sessionRecord
		players   string
		games     string
		createdAt int64
		updatedAt int64
	)

	err := row.Scan(
		&record.StorageID,
		&record.ID,
		&record.Name,
		&players,
		&games,
		&record.Revision,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}

	if err := json.Unmarshal([]byte(players), &record.Players); err != nil {
		return nil, fmt.Errorf("failed to unmarshal players: %w", err)
	}
	if err := json.Unmarshal([]byte(games), &record.Games); err != nil {
		return nil, fmt.Errorf("failed to unmarshal games: %w", err)
	}
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)

	return &record, nil
}

func encodeCollections(record *sessionRecord) (string, string, error) {
	players := record.Players
	if players == nil {
		players = []string{}
	}
	games := record.Games
	if games == nil {
		games = []models.Game{}
	}

	playersJSON, err := json.Marshal(players)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal players: %w", err)
	}
	gamesJSON, err := json.Marshal(games)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal games: %w", err)
	}

	return string(playersJSON), string(gamesJSON), nil
}

func insertRecord(ctx context.Context, db execer, record *sessionRecord) error {
	players, games, err := encodeCollections(record)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO sessions (`+sessionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.StorageID,
		record.ID,
		record.Name,
		players,
		games,
		record.Revision,
		toMillis(record.CreatedAt),
		toMillis(record.UpdatedAt),
	)
	return err
}

func updateRecord(ctx context.Context, db execer, record *sessionRecord) error {
	players, games, err := encodeCollections(record)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx,
		`UPDATE sessions
		 SET name = ?, players = ?, games = ?, revision = ?, updated_at = ?
		 WHERE storage_id = ?`,
		record.Name,
		players,
		games,
		record.Revision,
		toMillis(record.UpdatedAt),
		record.StorageID,
	)
	return err
}

// ListSessions retrieves all sessions from SQLite
func (r *sqliteRepository) ListSessions(ctx context.Context, input *ListSessionsInput) (*ListSessionsOutput, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []*models.Session{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, record.toModel())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}

	return &ListSessionsOutput{
		Sessions: sessions,
	}, nil
}

// CreateSession inserts a new session, failing if the ID is already taken
func (r *sqliteRepository) CreateSession(ctx context.Context, input *CreateSessionInput) (*models.Session, error) {
	if input == nil || input.Session == nil {
		return nil, errors.New("input and session cannot be nil")
	}

	if err := input.Session.Validate(); err != nil {
		return nil, err
	}

	record := newRecord(input.Session, r.uuid.NewUUID(), r.clock.Now())
	if err := insertRecord(ctx, r.db, record); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrSessionExists
		}
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return record.toModel(), nil
}

// ReplaceSession applies changes to an existing session or creates it
func (r *sqliteRepository) ReplaceSession(ctx context.Context, input *ReplaceSessionInput) (*ReplaceSessionOutput, error) {
	if input == nil || input.ID == "" {
		return nil, errors.New("input and session ID cannot be empty")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := r.clock.Now()
	created := false

	var record *sessionRecord
	current, err := scanRecord(tx.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, input.ID,
	))
	switch {
	case errors.Is(err, ErrSessionNotFound):
		created = true
		session := &models.Session{ID: input.ID}
		input.Changes.Apply(session)
		record = newRecord(session, r.uuid.NewUUID(), now)
		err = insertRecord(ctx, tx, record)
	case err != nil:
		return nil, fmt.Errorf("failed to replace session: %w", err)
	default:
		session := current.toModel()
		input.Changes.Apply(session)
		record = recordFromModel(session)
		record.Revision++
		record.UpdatedAt = now
		err = updateRecord(ctx, tx, record)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to replace session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit session: %w", err)
	}

	return &ReplaceSessionOutput{
		Session: record.toModel(),
		Created: created,
	}, nil
}

// DeleteSession removes a session and returns its last state
func (r *sqliteRepository) DeleteSession(ctx context.Context, input *DeleteSessionInput) (*models.Session, error) {
	if input == nil || input.ID == "" {
		return nil, errors.New("input and session ID cannot be empty")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := scanRecord(tx.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, input.ID,
	))
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE storage_id = ?`, current.StorageID); err != nil {
		return nil, fmt.Errorf("failed to delete session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit delete: %w", err)
	}

	return current.toModel(), nil
}

// GetSession retrieves a session by ID
func (r *sqliteRepository) GetSession(ctx context.Context, input *GetSessionInput) (*models.Session, error) {
	if input == nil || input.ID == "" {
		return nil, errors.New("input and session ID cannot be empty")
	}

	record, err := scanRecord(r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, input.ID,
	))
	if err != nil {
		return nil, err
	}

	return record.toModel(), nil
}

// UpdateSession saves the mutable fields of a session if its revision still matches
func (r *sqliteRepository) UpdateSession(ctx context.Context, input *UpdateSessionInput) (*models.Session, error) {
	if input == nil || input.Session == nil || input.Session.ID == "" {
		return nil, errors.New("input and session ID cannot be empty")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := scanRecord(tx.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, input.Session.ID,
	))
	if err != nil {
		return nil, err
	}

	if current.Revision != input.Session.Revision {
		return nil, ErrRevisionMismatch
	}

	record := recordFromModel(input.Session)
	record.StorageID = current.StorageID
	record.CreatedAt = current.CreatedAt
	record.Revision = current.Revision + 1
	record.UpdatedAt = r.clock.Now()

	if err := updateRecord(ctx, tx, record); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit update: %w", err)
	}

	return record.toModel(), nil
}
