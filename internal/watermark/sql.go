package watermark

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"pun_archiver/internal/domain"
)

const sqlDateLayout = "2006-01-02"

const schema = `
	CREATE TABLE IF NOT EXISTS watermarks (
		account_id    TEXT PRIMARY KEY,
		last_seen_id  TEXT NOT NULL DEFAULT '',
		last_run_date TEXT NOT NULL DEFAULT '',
		updated_at    TEXT NOT NULL DEFAULT ''
	)`

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// SQLStore keeps one watermark row per source account. It runs on both
// Postgres and SQLite.
type SQLStore struct {
	db        *sqlx.DB
	accountID string
	logger    *slog.Logger
}

func NewSQLStore(db *sqlx.DB, accountID string, logger *slog.Logger) *SQLStore {
	return &SQLStore{
		db:        db,
		accountID: accountID,
		logger:    logger.With("watermark", db.DriverName(), "account_id", accountID),
	}
}

// OpenSQLite opens the database file at path, creating its directory.
func OpenSQLite(path string) (*sqlx.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// Migrate creates the watermarks table if it does not exist.
func (s *SQLStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

type watermarkRow struct {
	LastSeenID  string `db:"last_seen_id"`
	LastRunDate string `db:"last_run_date"`
}

func (s *SQLStore) Load(ctx context.Context) (*domain.Watermark, error) {
	var row watermarkRow
	query := s.db.Rebind(`
		SELECT last_seen_id, last_run_date
		FROM watermarks
		WHERE account_id = ?`)

	err := s.db.GetContext(ctx, &row, query, s.accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.Watermark{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load watermark: %v", domain.ErrConfig, err)
	}

	if err := validateID(row.LastSeenID); err != nil {
		return nil, malformed("last_seen_id: %v", err)
	}
	date, err := parseDate(row.LastRunDate, sqlDateLayout)
	if err != nil {
		return nil, malformed("last_run_date: %v", err)
	}

	return &domain.Watermark{LastSeenID: row.LastSeenID, LastRunDate: date}, nil
}

func (s *SQLStore) SaveLastSeenID(ctx context.Context, id string) error {
	id = unquote(id)
	if err := validateID(id); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersist, err)
	}

	query := s.db.Rebind(`
		INSERT INTO watermarks (account_id, last_seen_id, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (account_id) DO UPDATE SET
			last_seen_id = EXCLUDED.last_seen_id,
			updated_at = EXCLUDED.updated_at`)

	if _, err := s.db.ExecContext(ctx, query, s.accountID, id, now()); err != nil {
		return fmt.Errorf("%w: save last seen id: %v", domain.ErrPersist, err)
	}

	s.logger.Info("saved last seen tweet ID", "id", id)
	return nil
}

func (s *SQLStore) SaveLastRunDate(ctx context.Context, date time.Time) error {
	value := date.Format(sqlDateLayout)
	query := s.db.Rebind(`
		INSERT INTO watermarks (account_id, last_run_date, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (account_id) DO UPDATE SET
			last_run_date = EXCLUDED.last_run_date,
			updated_at = EXCLUDED.updated_at`)

	if _, err := s.db.ExecContext(ctx, query, s.accountID, value, now()); err != nil {
		return fmt.Errorf("%w: save last run date: %v", domain.ErrPersist, err)
	}

	s.logger.Info("saved last run date", "date", value)
	return nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
