// Package storage defines the persistence contracts for garden state.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates a requested plant or inventory record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates a requested write conflicts with uniqueness constraints.
	ErrConflict = errors.New("record conflict")
	// ErrInsufficientQuantity indicates an inventory adjustment would go below zero.
	ErrInsufficientQuantity = errors.New("insufficient item quantity")
)

// PlantRecord stores one plant row. Each owning account has at most one;
// the row is replaced in place when a harvest replants.
type PlantRecord struct {
	ID              string
	OwnerID         string
	Name            string
	Species         string
	Color           string
	Generation      int
	Stage           int
	Score           int
	Wilted          bool
	Dead            bool
	WateredAt       time.Time
	WateredBy       string
	ShakenAt        time.Time
	FertilizedUntil time.Time
	RefreshedAt     time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ItemCount stores one account inventory row.
type ItemCount struct {
	AccountID string
	ItemID    string
	Quantity  int
	UpdatedAt time.Time
}

// PlantStore persists plant state.
type PlantStore interface {
	PutPlant(ctx context.Context, record PlantRecord) error
	GetPlantByOwner(ctx context.Context, ownerID string) (PlantRecord, error)
	// ListVisitablePlants returns plants with score of at least minScore
	// watered at or after wateredSince, highest score first.
	ListVisitablePlants(ctx context.Context, wateredSince time.Time, minScore int, limit int) ([]PlantRecord, error)
}

// InventoryStore persists per-account item quantities.
type InventoryStore interface {
	GetItemQuantity(ctx context.Context, accountID string, itemID string) (int, error)
	// AdjustItemQuantity changes a held quantity by delta and returns the
	// new value. Adjustments that would go below zero fail with
	// ErrInsufficientQuantity and leave the row unchanged.
	AdjustItemQuantity(ctx context.Context, accountID string, itemID string, delta int) (int, error)
	ListItemsByAccount(ctx context.Context, accountID string) ([]ItemCount, error)
}

// GardenStore is the combined persistence surface the garden service needs.
type GardenStore interface {
	PlantStore
	InventoryStore
}
