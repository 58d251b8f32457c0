package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/astralgarden/astral.garden/internal/platform/storage/sqlitemigrate"
	"github.com/astralgarden/astral.garden/internal/services/mailbox/storage"
	"github.com/astralgarden/astral.garden/internal/services/mailbox/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for mailbox messages.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a mailbox SQLite store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_pragma=foreign_keys(ON)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB}
	if err := store.runMigrations(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) runMigrations() error {
	return sqlitemigrate.ApplyMigrations(s.sqlDB, migrations.FS)
}

// AppendMessage stores a new message row.
func (s *Store) AppendMessage(ctx context.Context, record storage.MessageRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	normalized, err := normalizeMessageRecord(record)
	if err != nil {
		return err
	}

	_, err = s.sqlDB.ExecContext(ctx, `
	INSERT INTO messages (
		id, from_id, from_name, to_id, subject, body, seen, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		normalized.ID,
		normalized.FromID,
		normalized.FromName,
		normalized.ToID,
		normalized.Subject,
		normalized.Body,
		boolToInt(normalized.Seen),
		toMillis(normalized.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

// GetMessage returns the account's message by id.
func (s *Store) GetMessage(ctx context.Context, accountID, messageID string) (storage.MessageRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.MessageRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.MessageRecord{}, fmt.Errorf("storage is not configured")
	}
	accountID = strings.TrimSpace(accountID)
	messageID = strings.TrimSpace(messageID)
	if accountID == "" {
		return storage.MessageRecord{}, fmt.Errorf("account id is required")
	}
	if messageID == "" {
		return storage.MessageRecord{}, fmt.Errorf("message id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, from_id, from_name, to_id, subject, body, seen, created_at
FROM messages
WHERE id = ? AND to_id = ?
`, messageID, accountID)
	record, err := scanMessage(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.MessageRecord{}, storage.ErrNotFound
		}
		return storage.MessageRecord{}, fmt.Errorf("get message: %w", err)
	}
	return record, nil
}

// ListMessages pages through the account's messages newest first. The
// optional filter clause is ANDed with the mailbox scope.
func (s *Store) ListMessages(ctx context.Context, accountID, filterClause string, filterParams []any, limit, offset int) ([]storage.MessageRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil, fmt.Errorf("account id is required")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}
	if offset < 0 {
		return nil, fmt.Errorf("offset must not be negative")
	}

	query := `
SELECT id, from_id, from_name, to_id, subject, body, seen, created_at
FROM messages
WHERE to_id = ?
`
	args := []any{accountID}
	if filterClause != "" {
		query += "AND (" + filterClause + ")\n"
		args = append(args, filterParams...)
	}
	query += "ORDER BY created_at DESC, id DESC\nLIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	results := make([]storage.MessageRecord, 0, limit)
	for rows.Next() {
		record, scanErr := scanMessage(rows.Scan)
		if scanErr != nil {
			return nil, fmt.Errorf("scan message row: %w", scanErr)
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate message rows: %w", err)
	}
	return results, nil
}

// MarkMessageSeen sets the seen flag on the account's message.
func (s *Store) MarkMessageSeen(ctx context.Context, accountID, messageID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	accountID = strings.TrimSpace(accountID)
	messageID = strings.TrimSpace(messageID)
	if accountID == "" {
		return fmt.Errorf("account id is required")
	}
	if messageID == "" {
		return fmt.Errorf("message id is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
	UPDATE messages SET seen = 1 WHERE id = ? AND to_id = ?
	`, messageID, accountID)
	if err != nil {
		return fmt.Errorf("mark message seen: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark message seen rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// CountUnread returns how many of the account's messages are unseen.
func (s *Store) CountUnread(ctx context.Context, accountID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return 0, fmt.Errorf("account id is required")
	}

	var count int
	err := s.sqlDB.QueryRowContext(ctx, `
SELECT COUNT(*) FROM messages WHERE to_id = ? AND seen = 0
`, accountID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread messages: %w", err)
	}
	return count, nil
}

type scanner func(dest ...any) error

func normalizeMessageRecord(record storage.MessageRecord) (storage.MessageRecord, error) {
	record.ID = strings.TrimSpace(record.ID)
	record.FromID = strings.TrimSpace(record.FromID)
	record.FromName = strings.TrimSpace(record.FromName)
	record.ToID = strings.TrimSpace(record.ToID)
	record.Subject = strings.TrimSpace(record.Subject)
	if record.ID == "" {
		return storage.MessageRecord{}, fmt.Errorf("message id is required")
	}
	if record.FromID == "" {
		return storage.MessageRecord{}, fmt.Errorf("sender id is required")
	}
	if record.ToID == "" {
		return storage.MessageRecord{}, fmt.Errorf("recipient id is required")
	}
	if record.Subject == "" {
		return storage.MessageRecord{}, fmt.Errorf("subject is required")
	}
	if record.CreatedAt.IsZero() {
		return storage.MessageRecord{}, fmt.Errorf("created_at is required")
	}
	record.CreatedAt = record.CreatedAt.UTC()
	return record, nil
}

func scanMessage(scan scanner) (storage.MessageRecord, error) {
	var record storage.MessageRecord
	var seen int
	var createdAt int64
	if err := scan(
		&record.ID,
		&record.FromID,
		&record.FromName,
		&record.ToID,
		&record.Subject,
		&record.Body,
		&seen,
		&createdAt,
	); err != nil {
		return storage.MessageRecord{}, err
	}
	record.Seen = seen != 0
	record.CreatedAt = fromMillis(createdAt)
	return record, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
