package domain

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	apperrors "github.com/astralgarden/astral.garden/internal/platform/errors"
	"github.com/astralgarden/astral.garden/internal/platform/id"
)

var (
	// ErrStoreNotConfigured indicates the service is missing persistence wiring.
	ErrStoreNotConfigured = errors.New("garden store is not configured")
	// ErrOwnerIDRequired indicates a plant owner account id is required.
	ErrOwnerIDRequired = errors.New("owner account id is required")
	// ErrAccountIDRequired indicates an account id is required.
	ErrAccountIDRequired = errors.New("account id is required")
)

const (
	defaultVisitLimit = 100
	maxVisitLimit     = 500
)

// Store is the domain persistence boundary for plants and item inventories.
type Store interface {
	GetPlantByOwner(ctx context.Context, ownerID string) (Plant, error)
	PutPlant(ctx context.Context, plant Plant) error
	// ListVisitablePlants returns plants with score of at least minScore
	// watered at or after wateredSince, highest score first.
	ListVisitablePlants(ctx context.Context, wateredSince time.Time, minScore int, limit int) ([]Plant, error)
	ItemQuantity(ctx context.Context, accountID string, item ItemID) (int, error)
	// AdjustItem changes the held quantity by delta and returns the new
	// quantity. Reducing a quantity below zero must fail without applying.
	AdjustItem(ctx context.Context, accountID string, item ItemID, delta int) (int, error)
	ListItems(ctx context.Context, accountID string) (map[ItemID]int, error)
}

// Config carries the optional dependencies for Service.
type Config struct {
	Clock  func() time.Time
	NewID  func() (string, error)
	Rand   *rand.Rand
	Tuning Tuning
}

// Service orchestrates the plant lifecycle. All plant and inventory
// mutations for one account are serialized through a per-account lock so
// concurrent visitors cannot interleave refresh-act-save cycles.
type Service struct {
	store  Store
	clock  func() time.Time
	newID  func() (string, error)
	tuning Tuning
	locks  *plantLocks

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewService constructs garden domain use-cases.
func NewService(store Store, cfg Config) *Service {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	newID := cfg.NewID
	if newID == nil {
		newID = id.NewID
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	tuning := cfg.Tuning
	if tuning == (Tuning{}) {
		tuning = DefaultTuning()
	}
	return &Service{
		store:  store,
		clock:  clock,
		newID:  newID,
		tuning: tuning,
		locks:  newPlantLocks(),
		rng:    rng,
	}
}

// Tuning returns the lifecycle parameters the service runs with.
func (s *Service) Tuning() Tuning {
	return s.tuning
}

// PlantView is a plant snapshot plus the capability flags the rendering
// layer needs to offer actions.
type PlantView struct {
	Plant                  Plant
	WaterLevel             float64
	CanWater               bool
	WaterCooldownRemaining time.Duration
	CanShake               bool
	ShakeCooldownRemaining time.Duration
	CanSearch              bool
	CanFertilize           bool
	FertilizerActive       bool
	CanHarvest             bool
}

// ObserveInput identifies whose plant to look at and who is looking.
type ObserveInput struct {
	OwnerID string
	// ActorID defaults to OwnerID. A missing plant is only seeded when the
	// owner looks at their own garden; visitors get a not-found error.
	ActorID string
}

// WaterInput describes one watering attempt. Visitors may water.
type WaterInput struct {
	OwnerID string
	ActorID string
}

// WaterResult reports the refreshed plant after a successful watering.
type WaterResult struct {
	View PlantView
	// WateredForOwner is set when someone watered another gardener's plant.
	WateredForOwner bool
}

// ShakeInput describes one shake attempt. Owner only.
type ShakeInput struct {
	OwnerID string
	ActorID string
}

// ShakeResult reports the coins dislodged by a shake.
type ShakeResult struct {
	View  PlantView
	Coins int
}

// SearchInput describes one petal search. Visitors may search.
type SearchInput struct {
	OwnerID string
	ActorID string
}

// SearchResult reports whether a petal was found and which one.
type SearchResult struct {
	View  PlantView
	Found bool
	Petal ItemID
}

// FertilizeInput describes one fertilizer application. Owner only.
type FertilizeInput struct {
	OwnerID string
	ActorID string
}

// FertilizeResult reports the refreshed plant after fertilizing.
type FertilizeResult struct {
	View PlantView
}

// HarvestInput describes the end of a plant cycle. Owner only.
type HarvestInput struct {
	OwnerID string
	ActorID string
}

// HarvestResult reports the ended plant, the coin reward, and the seed
// that replaces it.
type HarvestResult struct {
	Ended  Plant
	Reward int
	View   PlantView
}

// RenameInput gives the plant a new nickname. Owner only.
type RenameInput struct {
	OwnerID string
	ActorID string
	Name    string
}

// RenameResult reports the refreshed plant after renaming.
type RenameResult struct {
	View PlantView
}

// VisitListInput configures the neighborhood listing.
type VisitListInput struct {
	Limit int
}

// BuyInput describes one shop purchase.
type BuyInput struct {
	AccountID string
	Item      ItemID
	Quantity  int
}

// BuyResult reports the purchase and the remaining coin balance.
type BuyResult struct {
	Item      Item
	Quantity  int
	CoinsLeft int
}

// Observe refreshes and returns the plant, seeding a first-generation
// plant when the owner visits their own empty garden.
func (s *Service) Observe(ctx context.Context, input ObserveInput) (PlantView, error) {
	ownerID, actorID, err := s.resolveActors(input.OwnerID, input.ActorID)
	if err != nil {
		return PlantView{}, err
	}

	release := s.locks.acquire(ownerID)
	defer release()

	plant, err := s.loadOrSprout(ctx, ownerID, actorID == ownerID)
	if err != nil {
		return PlantView{}, err
	}
	now := s.nowUTC()
	s.refreshPlant(&plant, now)
	if err := s.savePlant(ctx, &plant, now); err != nil {
		return PlantView{}, err
	}
	return s.view(plant, now), nil
}

// Water waters the plant. Anyone may water; the plant remembers when a
// visitor did the owner's job for them.
func (s *Service) Water(ctx context.Context, input WaterInput) (WaterResult, error) {
	ownerID, actorID, err := s.resolveActors(input.OwnerID, input.ActorID)
	if err != nil {
		return WaterResult{}, err
	}

	release := s.locks.acquire(ownerID)
	defer release()

	plant, err := s.loadOrSprout(ctx, ownerID, actorID == ownerID)
	if err != nil {
		return WaterResult{}, err
	}
	now := s.nowUTC()
	s.refreshPlant(&plant, now)

	var actErr error
	switch {
	case plant.Dead:
		actErr = apperrors.New(apperrors.CodeInvalidAction, "dead plants cannot be watered")
	case now.Sub(plant.WateredAt) < s.tuning.WaterCooldown:
		actErr = s.cooldownError("plant was already watered", s.tuning.WaterCooldown-now.Sub(plant.WateredAt))
	default:
		plant.WateredAt = now
		plant.Wilted = false
		if actorID != ownerID {
			plant.WateredBy = actorID
		} else {
			plant.WateredBy = ""
		}
	}

	if err := s.savePlant(ctx, &plant, now); err != nil {
		return WaterResult{}, err
	}
	if actErr != nil {
		return WaterResult{}, actErr
	}
	return WaterResult{
		View:            s.view(plant, now),
		WateredForOwner: actorID != ownerID,
	}, nil
}

// Shake shakes the plant for loose coins. Owner only, rate limited.
func (s *Service) Shake(ctx context.Context, input ShakeInput) (ShakeResult, error) {
	ownerID, actorID, err := s.resolveActors(input.OwnerID, input.ActorID)
	if err != nil {
		return ShakeResult{}, err
	}
	if actorID != ownerID {
		return ShakeResult{}, apperrors.New(apperrors.CodeInvalidAction, "only the owner can shake their plant")
	}

	release := s.locks.acquire(ownerID)
	defer release()

	plant, err := s.loadOrSprout(ctx, ownerID, true)
	if err != nil {
		return ShakeResult{}, err
	}
	now := s.nowUTC()
	s.refreshPlant(&plant, now)

	coins := 0
	var actErr error
	switch {
	case plant.Dead:
		actErr = apperrors.New(apperrors.CodeInvalidAction, "dead plants cannot be shaken")
	case !plant.ShakenAt.IsZero() && now.Sub(plant.ShakenAt) < s.tuning.ShakeCooldown:
		actErr = s.cooldownError("plant was already shaken", s.tuning.ShakeCooldown-now.Sub(plant.ShakenAt))
	default:
		plant.ShakenAt = now
		// Bigger plants shed more coins.
		limit := s.tuning.ShakeCoinMax * (1 + int(plant.Stage))
		coins = 1 + s.roll(limit)
	}

	if err := s.savePlant(ctx, &plant, now); err != nil {
		return ShakeResult{}, err
	}
	if actErr != nil {
		return ShakeResult{}, actErr
	}
	if _, err := s.store.AdjustItem(ctx, ownerID, ItemCoin, coins); err != nil {
		return ShakeResult{}, fmt.Errorf("credit shake coins: %w", err)
	}
	return ShakeResult{View: s.view(plant, now), Coins: coins}, nil
}

// Search looks for a loose petal on a flowering plant. Visitors may
// search; the petal goes to whoever found it. A miss is not an error.
func (s *Service) Search(ctx context.Context, input SearchInput) (SearchResult, error) {
	ownerID, actorID, err := s.resolveActors(input.OwnerID, input.ActorID)
	if err != nil {
		return SearchResult{}, err
	}

	release := s.locks.acquire(ownerID)
	defer release()

	plant, err := s.loadOrSprout(ctx, ownerID, actorID == ownerID)
	if err != nil {
		return SearchResult{}, err
	}
	now := s.nowUTC()
	s.refreshPlant(&plant, now)

	var actErr error
	if plant.Dead || plant.Stage != StageFlowering {
		actErr = apperrors.New(apperrors.CodeInvalidAction, "petals can only be picked from a flowering plant")
	}

	if err := s.savePlant(ctx, &plant, now); err != nil {
		return SearchResult{}, err
	}
	if actErr != nil {
		return SearchResult{}, actErr
	}

	if !s.chance(s.tuning.PetalChance) {
		return SearchResult{View: s.view(plant, now)}, nil
	}
	color := plant.Color
	if color == ColorRainbow {
		color = ColorsPlain[s.roll(len(ColorsPlain))]
	}
	petal := PetalItem(color)
	if _, err := s.store.AdjustItem(ctx, actorID, petal, 1); err != nil {
		return SearchResult{}, fmt.Errorf("credit petal: %w", err)
	}
	return SearchResult{View: s.view(plant, now), Found: true, Petal: petal}, nil
}

// Fertilize applies one dose of fertilizer from the owner's inventory.
// The soil must be wet and no earlier dose may still be active.
func (s *Service) Fertilize(ctx context.Context, input FertilizeInput) (FertilizeResult, error) {
	ownerID, actorID, err := s.resolveActors(input.OwnerID, input.ActorID)
	if err != nil {
		return FertilizeResult{}, err
	}
	if actorID != ownerID {
		return FertilizeResult{}, apperrors.New(apperrors.CodeInvalidAction, "only the owner can fertilize their plant")
	}

	release := s.locks.acquire(ownerID)
	defer release()

	plant, err := s.loadOrSprout(ctx, ownerID, true)
	if err != nil {
		return FertilizeResult{}, err
	}
	now := s.nowUTC()
	s.refreshPlant(&plant, now)

	var actErr error
	switch {
	case plant.Dead, plant.Stage >= StageSeedBearing:
		actErr = apperrors.New(apperrors.CodeInvalidAction, "the plant can no longer be fertilized")
	case now.Before(plant.FertilizedUntil):
		actErr = s.cooldownError("fertilizer is still active", plant.FertilizedUntil.Sub(now))
	case plant.WaterLevel(now, s.tuning) <= 0:
		actErr = apperrors.New(apperrors.CodeInvalidAction, "fertilizer needs wet soil; water the plant first")
	}

	if actErr == nil {
		held, err := s.store.ItemQuantity(ctx, ownerID, ItemFertilizer)
		if err != nil {
			return FertilizeResult{}, err
		}
		if held < 1 {
			actErr = apperrors.WithMetadata(apperrors.CodeItemNotHeld, "no fertilizer held", map[string]string{
				"Item": string(ItemFertilizer),
			})
		}
	}

	if actErr == nil {
		if _, err := s.store.AdjustItem(ctx, ownerID, ItemFertilizer, -1); err != nil {
			return FertilizeResult{}, fmt.Errorf("consume fertilizer: %w", err)
		}
		plant.FertilizedUntil = now.Add(s.tuning.FertilizerWindow)
	}

	if err := s.savePlant(ctx, &plant, now); err != nil {
		return FertilizeResult{}, err
	}
	if actErr != nil {
		return FertilizeResult{}, actErr
	}
	return FertilizeResult{View: s.view(plant, now)}, nil
}

// Harvest ends the current plant cycle. A seed-bearing plant pays out in
// full and the next generation sprouts with a growth bonus; a dead plant
// pays a reduced salvage reward and replants at the same generation.
func (s *Service) Harvest(ctx context.Context, input HarvestInput) (HarvestResult, error) {
	ownerID, actorID, err := s.resolveActors(input.OwnerID, input.ActorID)
	if err != nil {
		return HarvestResult{}, err
	}
	if actorID != ownerID {
		return HarvestResult{}, apperrors.New(apperrors.CodeInvalidAction, "only the owner can harvest their plant")
	}

	release := s.locks.acquire(ownerID)
	defer release()

	plant, err := s.loadOrSprout(ctx, ownerID, true)
	if err != nil {
		return HarvestResult{}, err
	}
	now := s.nowUTC()
	s.refreshPlant(&plant, now)

	if !plant.CanHarvest() {
		if err := s.savePlant(ctx, &plant, now); err != nil {
			return HarvestResult{}, err
		}
		return HarvestResult{}, apperrors.New(apperrors.CodeInvalidAction, "only a seed-bearing or dead plant can be harvested")
	}

	reward := 0
	if s.tuning.HarvestDivisor > 0 {
		reward = plant.Score / s.tuning.HarvestDivisor
		if plant.Dead && s.tuning.SalvageDivisor > 0 {
			reward /= s.tuning.SalvageDivisor
		}
	}

	generation := plant.Generation
	if !plant.Dead {
		generation++
	}
	next, err := s.sproutPlant(ownerID, generation, now)
	if err != nil {
		return HarvestResult{}, err
	}
	if err := s.savePlant(ctx, &next, now); err != nil {
		return HarvestResult{}, err
	}
	if reward > 0 {
		if _, err := s.store.AdjustItem(ctx, ownerID, ItemCoin, reward); err != nil {
			return HarvestResult{}, fmt.Errorf("credit harvest reward: %w", err)
		}
	}
	return HarvestResult{
		Ended:  plant.clone(),
		Reward: reward,
		View:   s.view(next, now),
	}, nil
}

// Rename gives the plant a new nickname.
func (s *Service) Rename(ctx context.Context, input RenameInput) (RenameResult, error) {
	ownerID, actorID, err := s.resolveActors(input.OwnerID, input.ActorID)
	if err != nil {
		return RenameResult{}, err
	}
	if actorID != ownerID {
		return RenameResult{}, apperrors.New(apperrors.CodeInvalidAction, "only the owner can rename their plant")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return RenameResult{}, apperrors.New(apperrors.CodePlantNameEmpty, "plant name is empty")
	}
	if len(name) > MaxPlantNameLength {
		return RenameResult{}, apperrors.WithMetadata(apperrors.CodePlantNameTooLong, "plant name too long", map[string]string{
			"MaxLength": strconv.Itoa(MaxPlantNameLength),
		})
	}

	release := s.locks.acquire(ownerID)
	defer release()

	plant, err := s.loadOrSprout(ctx, ownerID, true)
	if err != nil {
		return RenameResult{}, err
	}
	now := s.nowUTC()
	s.refreshPlant(&plant, now)
	plant.Name = name
	if err := s.savePlant(ctx, &plant, now); err != nil {
		return RenameResult{}, err
	}
	return RenameResult{View: s.view(plant, now)}, nil
}

// VisitList returns the gardens worth visiting: plants that have started
// growing and were watered recently, highest score first.
func (s *Service) VisitList(ctx context.Context, input VisitListInput) ([]Plant, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	limit := input.Limit
	switch {
	case limit <= 0:
		limit = defaultVisitLimit
	case limit > maxVisitLimit:
		limit = maxVisitLimit
	}
	now := s.nowUTC()
	return s.store.ListVisitablePlants(ctx, now.Add(-s.tuning.DeadAfter), 1, limit)
}

// Buy purchases a catalog item with coins.
func (s *Service) Buy(ctx context.Context, input BuyInput) (BuyResult, error) {
	if s == nil || s.store == nil {
		return BuyResult{}, ErrStoreNotConfigured
	}
	accountID := strings.TrimSpace(input.AccountID)
	if accountID == "" {
		return BuyResult{}, ErrAccountIDRequired
	}
	quantity := input.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	item, ok := ItemByID(input.Item)
	if !ok {
		return BuyResult{}, apperrors.WithMetadata(apperrors.CodeItemUnknown, "unknown item", map[string]string{
			"Item": string(input.Item),
		})
	}
	if !item.ForSale {
		return BuyResult{}, apperrors.WithMetadata(apperrors.CodeItemNotForSale, "item not for sale", map[string]string{
			"Item": string(item.ID),
		})
	}

	release := s.locks.acquire(accountID)
	defer release()

	price := item.Price * quantity
	held, err := s.store.ItemQuantity(ctx, accountID, ItemCoin)
	if err != nil {
		return BuyResult{}, err
	}
	if held < price {
		return BuyResult{}, apperrors.WithMetadata(apperrors.CodeInsufficientCoins, "insufficient coins", map[string]string{
			"Price": strconv.Itoa(price),
			"Held":  strconv.Itoa(held),
		})
	}
	left, err := s.store.AdjustItem(ctx, accountID, ItemCoin, -price)
	if err != nil {
		return BuyResult{}, fmt.Errorf("spend coins: %w", err)
	}
	if _, err := s.store.AdjustItem(ctx, accountID, item.ID, quantity); err != nil {
		return BuyResult{}, fmt.Errorf("credit purchase: %w", err)
	}
	return BuyResult{Item: item, Quantity: quantity, CoinsLeft: left}, nil
}

// Inventory lists the account's held items in catalog order.
func (s *Service) Inventory(ctx context.Context, accountID string) ([]InventoryEntry, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil, ErrAccountIDRequired
	}
	held, err := s.store.ListItems(ctx, accountID)
	if err != nil {
		return nil, err
	}
	entries := make([]InventoryEntry, 0, len(held))
	for _, item := range Catalog() {
		quantity := held[item.ID]
		if quantity <= 0 {
			continue
		}
		entries = append(entries, InventoryEntry{Item: item, Quantity: quantity})
	}
	return entries, nil
}

// GrantItem adds items to an account, for starter gifts and rewards.
func (s *Service) GrantItem(ctx context.Context, accountID string, item ItemID, quantity int) error {
	if s == nil || s.store == nil {
		return ErrStoreNotConfigured
	}
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return ErrAccountIDRequired
	}
	if _, ok := ItemByID(item); !ok {
		return apperrors.WithMetadata(apperrors.CodeItemUnknown, "unknown item", map[string]string{
			"Item": string(item),
		})
	}
	if quantity <= 0 {
		return nil
	}

	release := s.locks.acquire(accountID)
	defer release()

	_, err := s.store.AdjustItem(ctx, accountID, item, quantity)
	return err
}

// SpendItem removes items from an account, for consumables spent outside
// plant actions such as mailing a postcard.
func (s *Service) SpendItem(ctx context.Context, accountID string, item ItemID, quantity int) error {
	if s == nil || s.store == nil {
		return ErrStoreNotConfigured
	}
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return ErrAccountIDRequired
	}
	if quantity <= 0 {
		return nil
	}

	release := s.locks.acquire(accountID)
	defer release()

	held, err := s.store.ItemQuantity(ctx, accountID, item)
	if err != nil {
		return err
	}
	if held < quantity {
		return apperrors.WithMetadata(apperrors.CodeItemNotHeld, "item not held", map[string]string{
			"Item": string(item),
		})
	}
	_, err = s.store.AdjustItem(ctx, accountID, item, -quantity)
	return err
}

// resolveActors validates the owner id and defaults the actor to the owner.
func (s *Service) resolveActors(ownerID, actorID string) (string, string, error) {
	if s == nil || s.store == nil {
		return "", "", ErrStoreNotConfigured
	}
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return "", "", ErrOwnerIDRequired
	}
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		actorID = ownerID
	}
	return ownerID, actorID, nil
}

// loadOrSprout fetches the owner's plant. When the owner tends an empty
// garden their first plant is seeded along with a starter paper clip.
func (s *Service) loadOrSprout(ctx context.Context, ownerID string, ownerAccess bool) (Plant, error) {
	plant, err := s.store.GetPlantByOwner(ctx, ownerID)
	if err == nil {
		return plant, nil
	}
	if !apperrors.IsCode(err, apperrors.CodeNotFound) || !ownerAccess {
		return Plant{}, err
	}

	now := s.nowUTC()
	plant, err = s.sproutPlant(ownerID, 1, now)
	if err != nil {
		return Plant{}, err
	}
	if err := s.savePlant(ctx, &plant, now); err != nil {
		return Plant{}, err
	}
	if _, err := s.store.AdjustItem(ctx, ownerID, ItemPaperclip, 1); err != nil {
		return Plant{}, fmt.Errorf("grant starter paper clip: %w", err)
	}
	return plant, nil
}

// sproutPlant mints a fresh seed. The seed starts with dry soil but the
// wilt clock runs from now, not from the zero time.
func (s *Service) sproutPlant(ownerID string, generation int, now time.Time) (Plant, error) {
	plantID, err := s.newID()
	if err != nil {
		return Plant{}, err
	}
	if generation < 1 {
		generation = 1
	}
	color := ColorsPlain[s.roll(len(ColorsPlain))]
	if s.chance(s.tuning.RareColorChance) {
		color = ColorsRare[s.roll(len(ColorsRare))]
	}
	return Plant{
		ID:          plantID,
		OwnerID:     ownerID,
		Species:     SpeciesList[s.roll(len(SpeciesList))],
		Color:       color,
		Generation:  generation,
		Stage:       StageSeed,
		WateredAt:   now.Add(-s.tuning.WaterWindow),
		RefreshedAt: now,
		CreatedAt:   now,
	}, nil
}

// refreshPlant ages the plant in place from its last refresh to now.
// Growth accrues only while the soil was wet during the elapsed window;
// dry spells wilt and eventually kill the plant.
func (s *Service) refreshPlant(p *Plant, now time.Time) {
	if p.RefreshedAt.IsZero() {
		p.RefreshedAt = p.CreatedAt
	}
	if !now.After(p.RefreshedAt) {
		return
	}
	if p.Dead {
		p.RefreshedAt = now
		return
	}

	start := p.RefreshedAt
	if p.WateredAt.After(start) {
		start = p.WateredAt
	}
	end := now
	if soilDry := p.WateredAt.Add(s.tuning.WaterWindow); soilDry.Before(end) {
		end = soilDry
	}
	if end.After(start) {
		rate := p.GrowthRate()
		boostEnd := end
		if p.FertilizedUntil.Before(boostEnd) {
			boostEnd = p.FertilizedUntil
		}
		grown := 0.0
		if boostEnd.After(start) {
			grown += boostEnd.Sub(start).Seconds() * rate * s.tuning.FertilizerBoost
			grown += end.Sub(boostEnd).Seconds() * rate
		} else {
			grown = end.Sub(start).Seconds() * rate
		}
		p.Score += int(grown)
	}

	dry := now.Sub(p.WateredAt)
	if dry >= s.tuning.WaterWindow {
		// The cooperative-watering credit only lasts as long as the water.
		p.WateredBy = ""
	}
	switch {
	case dry >= s.tuning.DeadAfter:
		p.Dead = true
		p.Wilted = true
	case dry >= s.tuning.WiltAfter:
		p.Wilted = true
	default:
		p.Wilted = false
	}

	if stage := s.tuning.stageForScore(p.Score); stage > p.Stage {
		p.Stage = stage
	}
	p.RefreshedAt = now
}

func (s *Service) savePlant(ctx context.Context, p *Plant, now time.Time) error {
	p.UpdatedAt = now
	return s.store.PutPlant(ctx, p.clone())
}

func (s *Service) view(p Plant, now time.Time) PlantView {
	view := PlantView{
		Plant:      p.clone(),
		WaterLevel: p.WaterLevel(now, s.tuning),
		CanHarvest: p.CanHarvest(),
	}
	if p.Dead {
		return view
	}
	if sinceWater := now.Sub(p.WateredAt); sinceWater >= s.tuning.WaterCooldown {
		view.CanWater = true
	} else {
		view.WaterCooldownRemaining = s.tuning.WaterCooldown - sinceWater
	}
	if p.ShakenAt.IsZero() || now.Sub(p.ShakenAt) >= s.tuning.ShakeCooldown {
		view.CanShake = true
	} else {
		view.ShakeCooldownRemaining = s.tuning.ShakeCooldown - now.Sub(p.ShakenAt)
	}
	view.CanSearch = p.Stage == StageFlowering
	view.CanFertilize = p.CanFertilize(now, s.tuning)
	view.FertilizerActive = now.Before(p.FertilizedUntil)
	return view
}

func (s *Service) cooldownError(message string, remaining time.Duration) *apperrors.Error {
	if remaining < 0 {
		remaining = 0
	}
	return apperrors.WithMetadata(apperrors.CodeCooldownActive, message, map[string]string{
		"Remaining": remaining.Round(time.Second).String(),
	})
}

func (s *Service) roll(n int) int {
	if n <= 1 {
		return 0
	}
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Intn(n)
}

func (s *Service) chance(p float64) bool {
	if p >= 1 {
		return true
	}
	if p <= 0 {
		return false
	}
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Float64() < p
}

func (s *Service) nowUTC() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock().UTC()
}
