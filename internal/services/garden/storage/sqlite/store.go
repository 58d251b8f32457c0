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
	"github.com/astralgarden/astral.garden/internal/services/garden/storage"
	"github.com/astralgarden/astral.garden/internal/services/garden/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for garden state.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a garden SQLite store at the provided path.
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

// PutPlant upserts the owner's plant row. Replanting (a new id for the
// same owner) replaces the old row.
func (s *Store) PutPlant(ctx context.Context, record storage.PlantRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	normalized, err := normalizePlantRecord(record)
	if err != nil {
		return err
	}

	_, err = s.sqlDB.ExecContext(ctx, `
	INSERT INTO plants (
		id, owner_id, name, species, color, generation, stage, score,
		wilted, dead, watered_at, watered_by, shaken_at, fertilized_until,
		refreshed_at, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(owner_id) DO UPDATE SET
		id = excluded.id,
		name = excluded.name,
		species = excluded.species,
		color = excluded.color,
		generation = excluded.generation,
		stage = excluded.stage,
		score = excluded.score,
		wilted = excluded.wilted,
		dead = excluded.dead,
		watered_at = excluded.watered_at,
		watered_by = excluded.watered_by,
		shaken_at = excluded.shaken_at,
		fertilized_until = excluded.fertilized_until,
		refreshed_at = excluded.refreshed_at,
		created_at = excluded.created_at,
		updated_at = excluded.updated_at
	`,
		normalized.ID,
		normalized.OwnerID,
		normalized.Name,
		normalized.Species,
		normalized.Color,
		normalized.Generation,
		normalized.Stage,
		normalized.Score,
		boolToInt(normalized.Wilted),
		boolToInt(normalized.Dead),
		toMillis(normalized.WateredAt),
		normalized.WateredBy,
		optionalMillis(normalized.ShakenAt),
		optionalMillis(normalized.FertilizedUntil),
		toMillis(normalized.RefreshedAt),
		toMillis(normalized.CreatedAt),
		toMillis(normalized.UpdatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("put plant: %w", err)
	}
	return nil
}

// GetPlantByOwner loads the owner's plant row.
func (s *Store) GetPlantByOwner(ctx context.Context, ownerID string) (storage.PlantRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.PlantRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.PlantRecord{}, fmt.Errorf("storage is not configured")
	}
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return storage.PlantRecord{}, fmt.Errorf("owner id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, owner_id, name, species, color, generation, stage, score,
       wilted, dead, watered_at, watered_by, shaken_at, fertilized_until,
       refreshed_at, created_at, updated_at
FROM plants
WHERE owner_id = ?
`, ownerID)
	record, err := scanPlant(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.PlantRecord{}, storage.ErrNotFound
		}
		return storage.PlantRecord{}, fmt.Errorf("get plant by owner: %w", err)
	}
	return record, nil
}

// ListVisitablePlants lists plants worth visiting, highest score first.
func (s *Store) ListVisitablePlants(ctx context.Context, wateredSince time.Time, minScore int, limit int) ([]storage.PlantRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, owner_id, name, species, color, generation, stage, score,
       wilted, dead, watered_at, watered_by, shaken_at, fertilized_until,
       refreshed_at, created_at, updated_at
FROM plants
WHERE score >= ? AND watered_at >= ?
ORDER BY score DESC, watered_at DESC
LIMIT ?
`, minScore, toMillis(wateredSince), limit)
	if err != nil {
		return nil, fmt.Errorf("list visitable plants: %w", err)
	}
	defer rows.Close()

	results := make([]storage.PlantRecord, 0, limit)
	for rows.Next() {
		record, scanErr := scanPlant(rows.Scan)
		if scanErr != nil {
			return nil, fmt.Errorf("scan plant row: %w", scanErr)
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plant rows: %w", err)
	}
	return results, nil
}

// GetItemQuantity returns the held quantity for one account item.
func (s *Store) GetItemQuantity(ctx context.Context, accountID string, itemID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	accountID = strings.TrimSpace(accountID)
	itemID = strings.TrimSpace(itemID)
	if accountID == "" {
		return 0, fmt.Errorf("account id is required")
	}
	if itemID == "" {
		return 0, fmt.Errorf("item id is required")
	}

	var quantity int
	err := s.sqlDB.QueryRowContext(ctx, `
SELECT quantity FROM inventory_items WHERE account_id = ? AND item_id = ?
`, accountID, itemID).Scan(&quantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get item quantity: %w", err)
	}
	return quantity, nil
}

// AdjustItemQuantity atomically changes a held quantity and returns the
// new value. The quantity check constraint rejects negative balances.
func (s *Store) AdjustItemQuantity(ctx context.Context, accountID string, itemID string, delta int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	accountID = strings.TrimSpace(accountID)
	itemID = strings.TrimSpace(itemID)
	if accountID == "" {
		return 0, fmt.Errorf("account id is required")
	}
	if itemID == "" {
		return 0, fmt.Errorf("item id is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin inventory adjustment: %w", err)
	}
	rollbackWith := func(cause error) error {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("%w: rollback inventory adjustment: %v", cause, rollbackErr)
		}
		return cause
	}

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx, `
	INSERT INTO inventory_items (account_id, item_id, quantity, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(account_id, item_id) DO UPDATE SET
		quantity = inventory_items.quantity + excluded.quantity,
		updated_at = excluded.updated_at
	`, accountID, itemID, delta, toMillis(now))
	if err != nil {
		if isCheckConstraintError(err) {
			return 0, rollbackWith(storage.ErrInsufficientQuantity)
		}
		return 0, rollbackWith(fmt.Errorf("adjust item quantity: %w", err))
	}

	var quantity int
	if err := tx.QueryRowContext(ctx, `
SELECT quantity FROM inventory_items WHERE account_id = ? AND item_id = ?
`, accountID, itemID).Scan(&quantity); err != nil {
		return 0, rollbackWith(fmt.Errorf("read adjusted quantity: %w", err))
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit inventory adjustment: %w", err)
	}
	return quantity, nil
}

// ListItemsByAccount lists the account's held items with positive quantity.
func (s *Store) ListItemsByAccount(ctx context.Context, accountID string) ([]storage.ItemCount, error) {
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
SELECT account_id, item_id, quantity, updated_at
FROM inventory_items
WHERE account_id = ? AND quantity > 0
ORDER BY item_id ASC
`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list items by account: %w", err)
	}
	defer rows.Close()

	var results []storage.ItemCount
	for rows.Next() {
		var record storage.ItemCount
		var updatedAt int64
		if err := rows.Scan(&record.AccountID, &record.ItemID, &record.Quantity, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan inventory row: %w", err)
		}
		record.UpdatedAt = fromMillis(updatedAt)
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inventory rows: %w", err)
	}
	return results, nil
}

type scanner func(dest ...any) error

func normalizePlantRecord(record storage.PlantRecord) (storage.PlantRecord, error) {
	record.ID = strings.TrimSpace(record.ID)
	record.OwnerID = strings.TrimSpace(record.OwnerID)
	record.Species = strings.TrimSpace(record.Species)
	record.Color = strings.TrimSpace(record.Color)
	record.WateredBy = strings.TrimSpace(record.WateredBy)
	if record.ID == "" {
		return storage.PlantRecord{}, fmt.Errorf("plant id is required")
	}
	if record.OwnerID == "" {
		return storage.PlantRecord{}, fmt.Errorf("owner id is required")
	}
	if record.Species == "" {
		return storage.PlantRecord{}, fmt.Errorf("species is required")
	}
	if record.WateredAt.IsZero() {
		return storage.PlantRecord{}, fmt.Errorf("watered_at is required")
	}
	if record.RefreshedAt.IsZero() {
		return storage.PlantRecord{}, fmt.Errorf("refreshed_at is required")
	}
	if record.CreatedAt.IsZero() {
		return storage.PlantRecord{}, fmt.Errorf("created_at is required")
	}
	if record.UpdatedAt.IsZero() {
		return storage.PlantRecord{}, fmt.Errorf("updated_at is required")
	}
	record.WateredAt = record.WateredAt.UTC()
	record.RefreshedAt = record.RefreshedAt.UTC()
	record.CreatedAt = record.CreatedAt.UTC()
	record.UpdatedAt = record.UpdatedAt.UTC()
	if !record.ShakenAt.IsZero() {
		record.ShakenAt = record.ShakenAt.UTC()
	}
	if !record.FertilizedUntil.IsZero() {
		record.FertilizedUntil = record.FertilizedUntil.UTC()
	}
	return record, nil
}

func scanPlant(scan scanner) (storage.PlantRecord, error) {
	var record storage.PlantRecord
	var wilted, dead int
	var wateredAt, refreshedAt, createdAt, updatedAt int64
	var shakenAt, fertilizedUntil sql.NullInt64
	if err := scan(
		&record.ID,
		&record.OwnerID,
		&record.Name,
		&record.Species,
		&record.Color,
		&record.Generation,
		&record.Stage,
		&record.Score,
		&wilted,
		&dead,
		&wateredAt,
		&record.WateredBy,
		&shakenAt,
		&fertilizedUntil,
		&refreshedAt,
		&createdAt,
		&updatedAt,
	); err != nil {
		return storage.PlantRecord{}, err
	}
	record.Wilted = wilted != 0
	record.Dead = dead != 0
	record.WateredAt = fromMillis(wateredAt)
	record.RefreshedAt = fromMillis(refreshedAt)
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	if shakenAt.Valid {
		record.ShakenAt = fromMillis(shakenAt.Int64)
	}
	if fertilizedUntil.Valid {
		record.FertilizedUntil = fromMillis(fertilizedUntil.Int64)
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

func isCheckConstraintError(err error) bool {
	if err == nil {
		return false
	}
	value := strings.ToLower(err.Error())
	return strings.Contains(value, "check constraint failed")
}
