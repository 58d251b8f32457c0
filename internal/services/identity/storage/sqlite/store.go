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
	"github.com/astralgarden/astral.garden/internal/services/identity/storage"
	"github.com/astralgarden/astral.garden/internal/services/identity/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for identity state.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens an identity SQLite store at the provided path.
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

// CreateAccount inserts a new account row.
func (s *Store) CreateAccount(ctx context.Context, record storage.AccountRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	normalized, err := normalizeAccountRecord(record)
	if err != nil {
		return err
	}

	_, err = s.sqlDB.ExecContext(ctx, `
	INSERT INTO accounts (id, username, password_hash, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?)
	`,
		normalized.ID,
		normalized.Username,
		normalized.PasswordHash,
		toMillis(normalized.CreatedAt),
		toMillis(normalized.UpdatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

// UpdateAccount rewrites an existing account row.
func (s *Store) UpdateAccount(ctx context.Context, record storage.AccountRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	normalized, err := normalizeAccountRecord(record)
	if err != nil {
		return err
	}

	result, err := s.sqlDB.ExecContext(ctx, `
	UPDATE accounts
	SET username = ?, password_hash = ?, updated_at = ?
	WHERE id = ?
	`,
		normalized.Username,
		normalized.PasswordHash,
		toMillis(normalized.UpdatedAt),
		normalized.ID,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("update account: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update account rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetAccountByID loads one account row by id.
func (s *Store) GetAccountByID(ctx context.Context, accountID string) (storage.AccountRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.AccountRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.AccountRecord{}, fmt.Errorf("storage is not configured")
	}
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return storage.AccountRecord{}, fmt.Errorf("account id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, username, password_hash, created_at, updated_at
FROM accounts
WHERE id = ?
`, accountID)
	record, err := scanAccount(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.AccountRecord{}, storage.ErrNotFound
		}
		return storage.AccountRecord{}, fmt.Errorf("get account by id: %w", err)
	}
	return record, nil
}

// GetAccountByUsername loads one account row by its exact username.
func (s *Store) GetAccountByUsername(ctx context.Context, username string) (storage.AccountRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.AccountRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.AccountRecord{}, fmt.Errorf("storage is not configured")
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return storage.AccountRecord{}, fmt.Errorf("username is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, username, password_hash, created_at, updated_at
FROM accounts
WHERE username = ?
`, username)
	record, err := scanAccount(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.AccountRecord{}, storage.ErrNotFound
		}
		return storage.AccountRecord{}, fmt.Errorf("get account by username: %w", err)
	}
	return record, nil
}

// CreateCertificate inserts a new certificate row.
func (s *Store) CreateCertificate(ctx context.Context, record storage.CertificateRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	normalized, err := normalizeCertificateRecord(record)
	if err != nil {
		return err
	}

	_, err = s.sqlDB.ExecContext(ctx, `
	INSERT INTO certificates (
		fingerprint, account_id, subject, not_before, not_after,
		ansi_enabled, last_seen_at, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		normalized.Fingerprint,
		normalized.AccountID,
		normalized.Subject,
		optionalMillis(normalized.NotBefore),
		optionalMillis(normalized.NotAfter),
		boolToInt(normalized.ANSIEnabled),
		toMillis(normalized.LastSeenAt),
		toMillis(normalized.CreatedAt),
		toMillis(normalized.UpdatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("create certificate: %w", err)
	}
	return nil
}

// UpdateCertificate rewrites an existing certificate row.
func (s *Store) UpdateCertificate(ctx context.Context, record storage.CertificateRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	normalized, err := normalizeCertificateRecord(record)
	if err != nil {
		return err
	}

	result, err := s.sqlDB.ExecContext(ctx, `
	UPDATE certificates
	SET account_id = ?, subject = ?, not_before = ?, not_after = ?,
	    ansi_enabled = ?, last_seen_at = ?, updated_at = ?
	WHERE fingerprint = ?
	`,
		normalized.AccountID,
		normalized.Subject,
		optionalMillis(normalized.NotBefore),
		optionalMillis(normalized.NotAfter),
		boolToInt(normalized.ANSIEnabled),
		toMillis(normalized.LastSeenAt),
		toMillis(normalized.UpdatedAt),
		normalized.Fingerprint,
	)
	if err != nil {
		return fmt.Errorf("update certificate: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update certificate rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetCertificateByFingerprint loads one certificate row.
func (s *Store) GetCertificateByFingerprint(ctx context.Context, fingerprint string) (storage.CertificateRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.CertificateRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.CertificateRecord{}, fmt.Errorf("storage is not configured")
	}
	fingerprint = strings.TrimSpace(fingerprint)
	if fingerprint == "" {
		return storage.CertificateRecord{}, fmt.Errorf("fingerprint is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT fingerprint, account_id, subject, not_before, not_after,
       ansi_enabled, last_seen_at, created_at, updated_at
FROM certificates
WHERE fingerprint = ?
`, fingerprint)
	record, err := scanCertificate(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.CertificateRecord{}, storage.ErrNotFound
		}
		return storage.CertificateRecord{}, fmt.Errorf("get certificate: %w", err)
	}
	return record, nil
}

// ListCertificatesByAccount lists an account's certificates, least recently
// seen first.
func (s *Store) ListCertificatesByAccount(ctx context.Context, accountID string) ([]storage.CertificateRecord, error) {
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

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT fingerprint, account_id, subject, not_before, not_after,
       ansi_enabled, last_seen_at, created_at, updated_at
FROM certificates
WHERE account_id = ?
ORDER BY last_seen_at ASC, fingerprint ASC
`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	defer rows.Close()

	var results []storage.CertificateRecord
	for rows.Next() {
		record, scanErr := scanCertificate(rows.Scan)
		if scanErr != nil {
			return nil, fmt.Errorf("scan certificate row: %w", scanErr)
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate certificate rows: %w", err)
	}
	return results, nil
}

// DeleteCertificate removes one certificate row.
func (s *Store) DeleteCertificate(ctx context.Context, fingerprint string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	fingerprint = strings.TrimSpace(fingerprint)
	if fingerprint == "" {
		return fmt.Errorf("fingerprint is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
	DELETE FROM certificates WHERE fingerprint = ?
	`, fingerprint)
	if err != nil {
		return fmt.Errorf("delete certificate: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete certificate rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

type scanner func(dest ...any) error

func normalizeAccountRecord(record storage.AccountRecord) (storage.AccountRecord, error) {
	record.ID = strings.TrimSpace(record.ID)
	record.Username = strings.TrimSpace(record.Username)
	if record.ID == "" {
		return storage.AccountRecord{}, fmt.Errorf("account id is required")
	}
	if record.Username == "" {
		return storage.AccountRecord{}, fmt.Errorf("username is required")
	}
	if record.CreatedAt.IsZero() {
		return storage.AccountRecord{}, fmt.Errorf("created_at is required")
	}
	if record.UpdatedAt.IsZero() {
		return storage.AccountRecord{}, fmt.Errorf("updated_at is required")
	}
	record.CreatedAt = record.CreatedAt.UTC()
	record.UpdatedAt = record.UpdatedAt.UTC()
	return record, nil
}

func normalizeCertificateRecord(record storage.CertificateRecord) (storage.CertificateRecord, error) {
	record.Fingerprint = strings.TrimSpace(record.Fingerprint)
	record.AccountID = strings.TrimSpace(record.AccountID)
	record.Subject = strings.TrimSpace(record.Subject)
	if record.Fingerprint == "" {
		return storage.CertificateRecord{}, fmt.Errorf("fingerprint is required")
	}
	if record.AccountID == "" {
		return storage.CertificateRecord{}, fmt.Errorf("account id is required")
	}
	if record.LastSeenAt.IsZero() {
		return storage.CertificateRecord{}, fmt.Errorf("last_seen_at is required")
	}
	if record.CreatedAt.IsZero() {
		return storage.CertificateRecord{}, fmt.Errorf("created_at is required")
	}
	if record.UpdatedAt.IsZero() {
		return storage.CertificateRecord{}, fmt.Errorf("updated_at is required")
	}
	record.LastSeenAt = record.LastSeenAt.UTC()
	record.CreatedAt = record.CreatedAt.UTC()
	record.UpdatedAt = record.UpdatedAt.UTC()
	if !record.NotBefore.IsZero() {
		record.NotBefore = record.NotBefore.UTC()
	}
	if !record.NotAfter.IsZero() {
		record.NotAfter = record.NotAfter.UTC()
	}
	return record, nil
}

func scanAccount(scan scanner) (storage.AccountRecord, error) {
	var record storage.AccountRecord
	var createdAt, updatedAt int64
	if err := scan(
		&record.ID,
		&record.Username,
		&record.PasswordHash,
		&createdAt,
		&updatedAt,
	); err != nil {
		return storage.AccountRecord{}, err
	}
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}

func scanCertificate(scan scanner) (storage.CertificateRecord, error) {
	var record storage.CertificateRecord
	var ansiEnabled int
	var lastSeenAt, createdAt, updatedAt int64
	var notBefore, notAfter sql.NullInt64
	if err := scan(
		&record.Fingerprint,
		&record.AccountID,
		&record.Subject,
		&notBefore,
		&notAfter,
		&ansiEnabled,
		&lastSeenAt,
		&createdAt,
		&updatedAt,
	); err != nil {
		return storage.CertificateRecord{}, err
	}
	record.ANSIEnabled = ansiEnabled != 0
	record.LastSeenAt = fromMillis(lastSeenAt)
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	if notBefore.Valid {
		record.NotBefore = fromMillis(notBefore.Int64)
	}
	if notAfter.Valid {
		record.NotAfter = fromMillis(notAfter.Int64)
	}
	return record, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func optionalMillis(value time.Time) sql.NullInt64 {
	if value.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(value), Valid: true}
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	value := strings.ToLower(err.Error())
	return strings.Contains(value, "unique constraint failed")
}
