package server

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/astralgarden/astral.garden/internal/platform/errors"
	"github.com/astralgarden/astral.garden/internal/services/garden/domain"
	"github.com/astralgarden/astral.garden/internal/services/garden/storage"
)

type domainStoreAdapter struct {
	store storage.GardenStore
}

func newDomainStoreAdapter(store storage.GardenStore) *domainStoreAdapter {
	return &domainStoreAdapter{store: store}
}

func (a *domainStoreAdapter) GetPlantByOwner(ctx context.Context, ownerID string) (domain.Plant, error) {
	if a == nil || a.store == nil {
		return domain.Plant{}, domain.ErrStoreNotConfigured
	}
	record, err := a.store.GetPlantByOwner(ctx, ownerID)
	if err != nil {
		return domain.Plant{}, mapStorageError(err)
	}
	return toDomainPlant(record), nil
}

func (a *domainStoreAdapter) PutPlant(ctx context.Context, plant domain.Plant) error {
	if a == nil || a.store == nil {
		return domain.ErrStoreNotConfigured
	}
	if err := a.store.PutPlant(ctx, toStoragePlant(plant)); err != nil {
		return mapStorageError(err)
	}
	return nil
}

func (a *domainStoreAdapter) ListVisitablePlants(ctx context.Context, wateredSince time.Time, minScore int, limit int) ([]domain.Plant, error) {
	if a == nil || a.store == nil {
		return nil, domain.ErrStoreNotConfigured
	}
	records, err := a.store.ListVisitablePlants(ctx, wateredSince, minScore, limit)
	if err != nil {
		return nil, mapStorageError(err)
	}
	plants := make([]domain.Plant, 0, len(records))
	for _, record := range records {
		plants = append(plants, toDomainPlant(record))
	}
	return plants, nil
}

func (a *domainStoreAdapter) ItemQuantity(ctx context.Context, accountID string, item domain.ItemID) (int, error) {
	if a == nil || a.store == nil {
		return 0, domain.ErrStoreNotConfigured
	}
	quantity, err := a.store.GetItemQuantity(ctx, accountID, string(item))
	if err != nil {
		return 0, mapStorageError(err)
	}
	return quantity, nil
}

func (a *domainStoreAdapter) AdjustItem(ctx context.Context, accountID string, item domain.ItemID, delta int) (int, error) {
	if a == nil || a.store == nil {
		return 0, domain.ErrStoreNotConfigured
	}
	quantity, err := a.store.AdjustItemQuantity(ctx, accountID, string(item), delta)
	if errors.Is(err, storage.ErrInsufficientQuantity) {
		return 0, apperrors.WrapWithMetadata(apperrors.CodeItemNotHeld, "item not held", map[string]string{
			"Item": string(item),
		}, err)
	}
	if err != nil {
		return 0, mapStorageError(err)
	}
	return quantity, nil
}

func (a *domainStoreAdapter) ListItems(ctx context.Context, accountID string) (map[domain.ItemID]int, error) {
	if a == nil || a.store == nil {
		return nil, domain.ErrStoreNotConfigured
	}
	counts, err := a.store.ListItemsByAccount(ctx, accountID)
	if err != nil {
		return nil, mapStorageError(err)
	}
	items := make(map[domain.ItemID]int, len(counts))
	for _, count := range counts {
		items[domain.ItemID(count.ItemID)] = count.Quantity
	}
	return items, nil
}

func toStoragePlant(plant domain.Plant) storage.PlantRecord {
	return storage.PlantRecord{
		ID:              plant.ID,
		OwnerID:         plant.OwnerID,
		Name:            plant.Name,
		Species:         plant.Species,
		Color:           plant.Color,
		Generation:      plant.Generation,
		Stage:           int(plant.Stage),
		Score:           plant.Score,
		Wilted:          plant.Wilted,
		Dead:            plant.Dead,
		WateredAt:       plant.WateredAt,
		WateredBy:       plant.WateredBy,
		ShakenAt:        plant.ShakenAt,
		FertilizedUntil: plant.FertilizedUntil,
		RefreshedAt:     plant.RefreshedAt,
		CreatedAt:       plant.CreatedAt,
		UpdatedAt:       plant.UpdatedAt,
	}
}

func toDomainPlant(record storage.PlantRecord) domain.Plant {
	return domain.Plant{
		ID:              record.ID,
		OwnerID:         record.OwnerID,
		Name:            record.Name,
		Species:         record.Species,
		Color:           record.Color,
		Generation:      record.Generation,
		Stage:           domain.Stage(record.Stage),
		Score:           record.Score,
		Wilted:          record.Wilted,
		Dead:            record.Dead,
		WateredAt:       record.WateredAt,
		WateredBy:       record.WateredBy,
		ShakenAt:        record.ShakenAt,
		FertilizedUntil: record.FertilizedUntil,
		RefreshedAt:     record.RefreshedAt,
		CreatedAt:       record.CreatedAt,
		UpdatedAt:       record.UpdatedAt,
	}
}

func mapStorageError(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperrors.Wrap(apperrors.CodeNotFound, "plant not found", err)
	}
	return err
}
