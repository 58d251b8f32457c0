package domain

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	apperrors "github.com/astralgarden/astral.garden/internal/platform/errors"
	garden "github.com/astralgarden/astral.garden/internal/services/garden/domain"
	"github.com/astralgarden/astral.garden/internal/services/garden/render"
	identity "github.com/astralgarden/astral.garden/internal/services/identity/domain"
)

// GardenObserveHandler executes a garden observation.
func GardenObserveHandler(gardenSvc *garden.Service, identitySvc *identity.Service, getContext func() Context) mcp.ToolHandlerFor[GardenObserveInput, GardenObserveResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input GardenObserveInput) (*mcp.CallToolResult, GardenObserveResult, error) {
		runCtx, cancel := boundedContext(ctx)
		defer cancel()

		session, mcpCtx, err := requireSession(runCtx, identitySvc, getContext)
		if err != nil {
			return nil, GardenObserveResult{}, err
		}
		ownerID, err := resolveGardener(runCtx, identitySvc, input.Gardener, session.Account.ID, mcpCtx.Locale)
		if err != nil {
			return nil, GardenObserveResult{}, err
		}

		view, err := gardenSvc.Observe(runCtx, garden.ObserveInput{OwnerID: ownerID, ActorID: session.Account.ID})
		if err != nil {
			return nil, GardenObserveResult{}, userError(mcpCtx.Locale, err)
		}

		loc := render.PrinterFor(mcpCtx.Locale)
		result := GardenObserveResult{
			Plant:       plantResult(runCtx, identitySvc, view, loc),
			Observation: render.Observation(loc, view, lookupUsername(runCtx, identitySvc, view.Plant.WateredBy)),
		}
		return nil, result, nil
	}
}

// GardenWaterHandler executes a watering request, on the caller's own plant
// or a neighbor's.
func GardenWaterHandler(gardenSvc *garden.Service, identitySvc *identity.Service, getContext func() Context, notify ResourceUpdateNotifier) mcp.ToolHandlerFor[GardenWaterInput, GardenWaterResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input GardenWaterInput) (*mcp.CallToolResult, GardenWaterResult, error) {
		runCtx, cancel := boundedContext(ctx)
		defer cancel()

		session, mcpCtx, err := requireSession(runCtx, identitySvc, getContext)
		if err != nil {
			return nil, GardenWaterResult{}, err
		}
		ownerID, err := resolveGardener(runCtx, identitySvc, input.Gardener, session.Account.ID, mcpCtx.Locale)
		if err != nil {
			return nil, GardenWaterResult{}, err
		}

		watered, err := gardenSvc.Water(runCtx, garden.WaterInput{OwnerID: ownerID, ActorID: session.Account.ID})
		if err != nil {
			return nil, GardenWaterResult{}, userError(mcpCtx.Locale, err)
		}

		NotifyResourceUpdates(ctx, notify, NeighborhoodResource().URI)

		loc := render.PrinterFor(mcpCtx.Locale)
		result := GardenWaterResult{
			Plant:           plantResult(runCtx, identitySvc, watered.View, loc),
			WateredForOwner: watered.WateredForOwner,
			Alert:           render.WaterAlert(loc, watered),
		}
		return nil, result, nil
	}
}

// GardenShakeHandler executes a shake request on the caller's own plant.
func GardenShakeHandler(gardenSvc *garden.Service, identitySvc *identity.Service, getContext func() Context, notify ResourceUpdateNotifier) mcp.ToolHandlerFor[GardenShakeInput, GardenShakeResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ GardenShakeInput) (*mcp.CallToolResult, GardenShakeResult, error) {
		runCtx, cancel := boundedContext(ctx)
		defer cancel()

		session, mcpCtx, err := requireSession(runCtx, identitySvc, getContext)
		if err != nil {
			return nil, GardenShakeResult{}, err
		}

		shaken, err := gardenSvc.Shake(runCtx, garden.ShakeInput{OwnerID: session.Account.ID, ActorID: session.Account.ID})
		if err != nil {
			return nil, GardenShakeResult{}, userError(mcpCtx.Locale, err)
		}

		NotifyResourceUpdates(ctx, notify, NeighborhoodResource().URI)

		loc := render.PrinterFor(mcpCtx.Locale)
		result := GardenShakeResult{
			Plant: plantResult(runCtx, identitySvc, shaken.View, loc),
			Coins: shaken.Coins,
			Alert: render.ShakeAlert(loc, shaken),
		}
		return nil, result, nil
	}
}

// GardenSearchHandler executes a petal search, on the caller's own plant or
// a neighbor's.
func GardenSearchHandler(gardenSvc *garden.Service, identitySvc *identity.Service, getContext func() Context) mcp.ToolHandlerFor[GardenSearchInput, GardenSearchResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input GardenSearchInput) (*mcp.CallToolResult, GardenSearchResult, error) {
		runCtx, cancel := boundedContext(ctx)
		defer cancel()

		session, mcpCtx, err := requireSession(runCtx, identitySvc, getContext)
		if err != nil {
			return nil, GardenSearchResult{}, err
		}
		ownerID, err := resolveGardener(runCtx, identitySvc, input.Gardener, session.Account.ID, mcpCtx.Locale)
		if err != nil {
			return nil, GardenSearchResult{}, err
		}

		searched, err := gardenSvc.Search(runCtx, garden.SearchInput{OwnerID: ownerID, ActorID: session.Account.ID})
		if err != nil {
			return nil, GardenSearchResult{}, userError(mcpCtx.Locale, err)
		}

		loc := render.PrinterFor(mcpCtx.Locale)
		result := GardenSearchResult{
			Plant: plantResult(runCtx, identitySvc, searched.View, loc),
			Found: searched.Found,
			Petal: string(searched.Petal),
			Alert: render.SearchAlert(loc, searched),
		}
		return nil, result, nil
	}
}

// GardenFertilizeHandler executes a fertilize request on the caller's own plant.
func GardenFertilizeHandler(gardenSvc *garden.Service, identitySvc *identity.Service, getContext func() Context) mcp.ToolHandlerFor[GardenFertilizeInput, GardenFertilizeResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ GardenFertilizeInput) (*mcp.CallToolResult, GardenFertilizeResult, error) {
		runCtx, cancel := boundedContext(ctx)
		defer cancel()

		session, mcpCtx, err := requireSession(runCtx, identitySvc, getContext)
		if err != nil {
			return nil, GardenFertilizeResult{}, err
		}

		fertilized, err := gardenSvc.Fertilize(runCtx, garden.FertilizeInput{OwnerID: session.Account.ID, ActorID: session.Account.ID})
		if err != nil {
			return nil, GardenFertilizeResult{}, userError(mcpCtx.Locale, err)
		}

		loc := render.PrinterFor(mcpCtx.Locale)
		result := GardenFertilizeResult{
			Plant: plantResult(runCtx, identitySvc, fertilized.View, loc),
			Alert: render.FertilizeAlert(loc),
		}
		return nil, result, nil
	}
}

// GardenHarvestHandler ends the caller's plant cycle and replants.
func GardenHarvestHandler(gardenSvc *garden.Service, identitySvc *identity.Service, getContext func() Context, notify ResourceUpdateNotifier) mcp.ToolHandlerFor[GardenHarvestInput, GardenHarvestResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ GardenHarvestInput) (*mcp.CallToolResult, GardenHarvestResult, error) {
		runCtx, cancel := boundedContext(ctx)
		defer cancel()

		session, mcpCtx, err := requireSession(runCtx, identitySvc, getContext)
		if err != nil {
			return nil, GardenHarvestResult{}, err
		}

		harvested, err := gardenSvc.Harvest(runCtx, garden.HarvestInput{OwnerID: session.Account.ID, ActorID: session.Account.ID})
		if err != nil {
			return nil, GardenHarvestResult{}, userError(mcpCtx.Locale, err)
		}

		NotifyResourceUpdates(ctx, notify, NeighborhoodResource().URI)

		loc := render.PrinterFor(mcpCtx.Locale)
		result := GardenHarvestResult{
			Reward:    harvested.Reward,
			Salvage:   harvested.Ended.Dead,
			NextPlant: plantResult(runCtx, identitySvc, harvested.View, loc),
			Alert:     render.HarvestAlert(loc, harvested),
		}
		return nil, result, nil
	}
}

// GardenRenameHandler renames the caller's plant.
func GardenRenameHandler(gardenSvc *garden.Service, identitySvc *identity.Service, getContext func() Context) mcp.ToolHandlerFor[GardenRenameInput, GardenRenameResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input GardenRenameInput) (*mcp.CallToolResult, GardenRenameResult, error) {
		runCtx, cancel := boundedContext(ctx)
		defer cancel()

		session, mcpCtx, err := requireSession(runCtx, identitySvc, getContext)
		if err != nil {
			return nil, GardenRenameResult{}, err
		}

		renamed, err := gardenSvc.Rename(runCtx, garden.RenameInput{
			OwnerID: session.Account.ID,
			ActorID: session.Account.ID,
			Name:    input.Name,
		})
		if err != nil {
			return nil, GardenRenameResult{}, userError(mcpCtx.Locale, err)
		}

		loc := render.PrinterFor(mcpCtx.Locale)
		result := GardenRenameResult{
			Plant: plantResult(runCtx, identitySvc, renamed.View, loc),
			Alert: render.RenameAlert(loc, renamed.View.Plant.Name),
		}
		return nil, result, nil
	}
}

// GardenNeighborhoodHandler lists gardens worth visiting.
func GardenNeighborhoodHandler(gardenSvc *garden.Service, identitySvc *identity.Service, getContext func() Context) mcp.ToolHandlerFor[GardenNeighborhoodInput, GardenNeighborhoodResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input GardenNeighborhoodInput) (*mcp.CallToolResult, GardenNeighborhoodResult, error) {
		runCtx, cancel := boundedContext(ctx)
		defer cancel()

		_, mcpCtx, err := requireSession(runCtx, identitySvc, getContext)
		if err != nil {
			return nil, GardenNeighborhoodResult{}, err
		}

		plants, err := gardenSvc.VisitList(runCtx, garden.VisitListInput{Limit: input.Limit})
		if err != nil {
			return nil, GardenNeighborhoodResult{}, userError(mcpCtx.Locale, err)
		}

		loc := render.PrinterFor(mcpCtx.Locale)
		result := GardenNeighborhoodResult{Plants: make([]NeighborPlantResult, 0, len(plants))}
		for _, plant := range plants {
			result.Plants = append(result.Plants, NeighborPlantResult{
				Owner:       lookupUsername(runCtx, identitySvc, plant.OwnerID),
				Description: render.Description(loc, plant),
				Stage:       plant.Stage.String(),
				Generation:  plant.Generation,
				Score:       plant.Score,
				Wilted:      plant.Wilted,
				WateredAt:   formatTime(plant.WateredAt),
			})
		}
		return nil, result, nil
	}
}

// ShopBuyHandler purchases a catalog item with the caller's coins.
func ShopBuyHandler(gardenSvc *garden.Service, identitySvc *identity.Service, getContext func() Context) mcp.ToolHandlerFor[ShopBuyInput, ShopBuyResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ShopBuyInput) (*mcp.CallToolResult, ShopBuyResult, error) {
		runCtx, cancel := boundedContext(ctx)
		defer cancel()

		session, mcpCtx, err := requireSession(runCtx, identitySvc, getContext)
		if err != nil {
			return nil, ShopBuyResult{}, err
		}

		bought, err := gardenSvc.Buy(runCtx, garden.BuyInput{
			AccountID: session.Account.ID,
			Item:      garden.ItemID(input.Item),
			Quantity:  input.Quantity,
		})
		if err != nil {
			return nil, ShopBuyResult{}, userError(mcpCtx.Locale, err)
		}

		result := ShopBuyResult{
			Item:      string(bought.Item.ID),
			ItemName:  bought.Item.Name,
			Quantity:  bought.Quantity,
			UnitPrice: bought.Item.Price,
			CoinsLeft: bought.CoinsLeft,
		}
		return nil, result, nil
	}
}

// InventoryListHandler lists the caller's held items.
func InventoryListHandler(gardenSvc *garden.Service, identitySvc *identity.Service, getContext func() Context) mcp.ToolHandlerFor[InventoryListInput, InventoryListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ InventoryListInput) (*mcp.CallToolResult, InventoryListResult, error) {
		runCtx, cancel := boundedContext(ctx)
		defer cancel()

		session, mcpCtx, err := requireSession(runCtx, identitySvc, getContext)
		if err != nil {
			return nil, InventoryListResult{}, err
		}

		entries, err := gardenSvc.Inventory(runCtx, session.Account.ID)
		if err != nil {
			return nil, InventoryListResult{}, userError(mcpCtx.Locale, err)
		}

		result := InventoryListResult{Items: make([]InventoryItemResult, 0, len(entries))}
		for _, entry := range entries {
			if entry.Item.ID == garden.ItemCoin {
				result.Coins = entry.Quantity
			}
			result.Items = append(result.Items, InventoryItemResult{
				Item:        string(entry.Item.ID),
				Name:        entry.Item.Name,
				Description: entry.Item.Description,
				Quantity:    entry.Quantity,
			})
		}
		return nil, result, nil
	}
}

// resolveGardener maps an optional username onto the plant owner account,
// defaulting to the caller's own garden.
func resolveGardener(ctx context.Context, identitySvc *identity.Service, gardener, selfID, locale string) (string, error) {
	if gardener == "" {
		return selfID, nil
	}
	account, err := identitySvc.FindAccount(ctx, gardener)
	if apperrors.IsCode(err, apperrors.CodeNotFound) {
		return "", userError(locale, apperrors.New(apperrors.CodeRecipientUnknown, "no gardener by that name"))
	}
	if err != nil {
		return "", userError(locale, err)
	}
	return account.ID, nil
}

// lookupUsername resolves an account id to its username for display. A
// failed lookup renders as empty rather than failing the tool call.
func lookupUsername(ctx context.Context, identitySvc *identity.Service, accountID string) string {
	if accountID == "" {
		return ""
	}
	account, err := identitySvc.GetAccount(ctx, accountID)
	if err != nil {
		return ""
	}
	return account.Username
}

// plantResult converts a refreshed domain view into the tool output shape.
func plantResult(ctx context.Context, identitySvc *identity.Service, view garden.PlantView, loc render.Localizer) PlantResult {
	plant := view.Plant
	result := PlantResult{
		Owner:            lookupUsername(ctx, identitySvc, plant.OwnerID),
		Name:             plant.Name,
		Species:          plant.Species,
		Color:            plant.Color,
		Stage:            plant.Stage.String(),
		Generation:       plant.Generation,
		Score:            plant.Score,
		Description:      render.Description(loc, plant),
		WaterLevel:       view.WaterLevel,
		Wilted:           plant.Wilted,
		Dead:             plant.Dead,
		WateredAt:        formatTime(plant.WateredAt),
		WateredBy:        lookupUsername(ctx, identitySvc, plant.WateredBy),
		FertilizerActive: view.FertilizerActive,
		CanWater:         view.CanWater,
		CanShake:         view.CanShake,
		CanSearch:        view.CanSearch,
		CanFertilize:     view.CanFertilize,
		CanHarvest:       view.CanHarvest,
	}
	if view.WaterCooldownRemaining > 0 {
		result.WaterCooldownRemaining = view.WaterCooldownRemaining.Round(time.Second).String()
	}
	if view.ShakeCooldownRemaining > 0 {
		result.ShakeCooldownRemaining = view.ShakeCooldownRemaining.Round(time.Second).String()
	}
	return result
}
