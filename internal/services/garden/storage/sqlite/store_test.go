package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/astralgarden/astral.garden/internal/services/garden/storage"
)

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(""); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestPutAndGetPlant(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	record := storage.PlantRecord{
		ID:              "plant-1",
		OwnerID:         "acct-1",
		Name:            "Herbert",
		Species:         "poppy",
		Color:           "red",
		Generation:      2,
		Stage:           4,
		Score:           1728000,
		Wilted:          true,
		WateredAt:       now.Add(-80 * time.Hour),
		WateredBy:       "acct-2",
		ShakenAt:        now.Add(-2 * time.Hour),
		FertilizedUntil: now.Add(24 * time.Hour),
		RefreshedAt:     now,
		CreatedAt:       now.Add(-20 * 24 * time.Hour),
		UpdatedAt:       now,
	}
	if err := store.PutPlant(context.Background(), record); err != nil {
		t.Fatalf("put plant: %v", err)
	}

	got, err := store.GetPlantByOwner(context.Background(), "acct-1")
	if err != nil {
		t.Fatalf("get plant: %v", err)
	}
	if got != record {
		t.Errorf("got %+v, want %+v", got, record)
	}
}

func TestGetPlantByOwnerNotFound(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)

	_, err := store.GetPlantByOwner(context.Background(), "acct-missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("error = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestPutPlantReplacesOwnerRow(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	first := minimalPlant("plant-1", "acct-1", now)
	first.Score = 2592000
	if err := store.PutPlant(context.Background(), first); err != nil {
		t.Fatalf("put first plant: %v", err)
	}

	// Harvest replants under a fresh id; the owner keeps a single row.
	second := minimalPlant("plant-2", "acct-1", now.Add(time.Hour))
	if err := store.PutPlant(context.Background(), second); err != nil {
		t.Fatalf("put replacement plant: %v", err)
	}

	got, err := store.GetPlantByOwner(context.Background(), "acct-1")
	if err != nil {
		t.Fatalf("get plant: %v", err)
	}
	if got.ID != "plant-2" {
		t.Errorf("plant id = %q, want %q", got.ID, "plant-2")
	}
	if got.Score != 0 {
		t.Errorf("score = %d, want fresh zero", got.Score)
	}
}

func TestPlantOptionalTimesRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	record := minimalPlant("plant-1", "acct-1", now)
	if err := store.PutPlant(context.Background(), record); err != nil {
		t.Fatalf("put plant: %v", err)
	}

	got, err := store.GetPlantByOwner(context.Background(), "acct-1")
	if err != nil {
		t.Fatalf("get plant: %v", err)
	}
	if !got.ShakenAt.IsZero() {
		t.Errorf("shaken_at = %v, want zero", got.ShakenAt)
	}
	if !got.FertilizedUntil.IsZero() {
		t.Errorf("fertilized_until = %v, want zero", got.FertilizedUntil)
	}
}

func TestListVisitablePlants(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	high := minimalPlant("plant-high", "acct-high", now)
	high.Score = 900
	mid := minimalPlant("plant-mid", "acct-mid", now)
	mid.Score = 500
	zero := minimalPlant("plant-zero", "acct-zero", now)
	stale := minimalPlant("plant-stale", "acct-stale", now)
	stale.Score = 700
	stale.WateredAt = now.Add(-9 * 24 * time.Hour)

	for _, record := range []storage.PlantRecord{high, mid, zero, stale} {
		if err := store.PutPlant(context.Background(), record); err != nil {
			t.Fatalf("put plant %s: %v", record.ID, err)
		}
	}

	got, err := store.ListVisitablePlants(context.Background(), now.Add(-8*24*time.Hour), 1, 10)
	if err != nil {
		t.Fatalf("list visitable plants: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("listed %d plants, want 2", len(got))
	}
	if got[0].ID != "plant-high" || got[1].ID != "plant-mid" {
		t.Errorf("order = %q, %q, want plant-high, plant-mid", got[0].ID, got[1].ID)
	}

	got, err = store.ListVisitablePlants(context.Background(), now.Add(-8*24*time.Hour), 1, 1)
	if err != nil {
		t.Fatalf("list visitable plants with limit: %v", err)
	}
	if len(got) != 1 || got[0].ID != "plant-high" {
		t.Errorf("limited list = %v, want just plant-high", got)
	}
}

func TestAdjustItemQuantity(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()

	quantity, err := store.AdjustItemQuantity(ctx, "acct-1", "coin", 5)
	if err != nil {
		t.Fatalf("adjust item quantity: %v", err)
	}
	if quantity != 5 {
		t.Errorf("quantity = %d, want 5", quantity)
	}

	quantity, err = store.AdjustItemQuantity(ctx, "acct-1", "coin", -3)
	if err != nil {
		t.Fatalf("adjust item quantity down: %v", err)
	}
	if quantity != 2 {
		t.Errorf("quantity = %d, want 2", quantity)
	}

	got, err := store.GetItemQuantity(ctx, "acct-1", "coin")
	if err != nil {
		t.Fatalf("get item quantity: %v", err)
	}
	if got != 2 {
		t.Errorf("stored quantity = %d, want 2", got)
	}
}

func TestAdjustItemQuantityBelowZero(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()

	if _, err := store.AdjustItemQuantity(ctx, "acct-1", "coin", 2); err != nil {
		t.Fatalf("seed coins: %v", err)
	}

	_, err := store.AdjustItemQuantity(ctx, "acct-1", "coin", -3)
	if !errors.Is(err, storage.ErrInsufficientQuantity) {
		t.Fatalf("error = %v, want %v", err, storage.ErrInsufficientQuantity)
	}

	got, err := store.GetItemQuantity(ctx, "acct-1", "coin")
	if err != nil {
		t.Fatalf("get item quantity: %v", err)
	}
	if got != 2 {
		t.Errorf("quantity after rejected adjustment = %d, want 2", got)
	}
}

func TestGetItemQuantityMissingRowIsZero(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)

	got, err := store.GetItemQuantity(context.Background(), "acct-1", "postcard")
	if err != nil {
		t.Fatalf("get item quantity: %v", err)
	}
	if got != 0 {
		t.Errorf("quantity = %d, want 0", got)
	}
}

func TestListItemsByAccount(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()

	seeds := map[string]int{"coin": 12, "fertilizer": 1, "petal-red": 3}
	for itemID, quantity := range seeds {
		if _, err := store.AdjustItemQuantity(ctx, "acct-1", itemID, quantity); err != nil {
			t.Fatalf("seed %s: %v", itemID, err)
		}
	}
	// Zeroed rows are not listed.
	if _, err := store.AdjustItemQuantity(ctx, "acct-1", "fertilizer", -1); err != nil {
		t.Fatalf("consume fertilizer: %v", err)
	}
	// Other accounts are not listed.
	if _, err := store.AdjustItemQuantity(ctx, "acct-2", "coin", 99); err != nil {
		t.Fatalf("seed other account: %v", err)
	}

	got, err := store.ListItemsByAccount(ctx, "acct-1")
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("listed %d items, want 2", len(got))
	}
	if got[0].ItemID != "coin" || got[0].Quantity != 12 {
		t.Errorf("first item = %+v, want 12 coins", got[0])
	}
	if got[1].ItemID != "petal-red" || got[1].Quantity != 3 {
		t.Errorf("second item = %+v, want 3 red petals", got[1])
	}
}

func minimalPlant(id, ownerID string, at time.Time) storage.PlantRecord {
	return storage.PlantRecord{
		ID:          id,
		OwnerID:     ownerID,
		Species:     "fern",
		Color:       "green",
		Generation:  1,
		WateredAt:   at,
		RefreshedAt: at,
		CreatedAt:   at,
		UpdatedAt:   at,
	}
}

func openTempStore(t *testing.T) *Store {
	t.Helper()
	storePath := filepath.Join(t.TempDir(), "garden.db")
	store, err := Open(storePath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if closeErr := store.Close(); closeErr != nil {
			t.Fatalf("close store: %v", closeErr)
		}
	})
	return store
}
