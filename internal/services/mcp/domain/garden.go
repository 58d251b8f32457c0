package domain

import "github.com/modelcontextprotocol/go-sdk/mcp"

// PlantResult represents a plant snapshot in MCP tool outputs.
type PlantResult struct {
	Owner            string  `json:"owner" jsonschema:"username of the plant owner"`
	Name             string  `json:"name,omitempty" jsonschema:"nickname the owner gave the plant"`
	Species          string  `json:"species" jsonschema:"plant species"`
	Color            string  `json:"color" jsonschema:"plant color"`
	Stage            string  `json:"stage" jsonschema:"growth stage name"`
	Generation       int     `json:"generation" jsonschema:"harvest generation, starts at 1"`
	Score            int     `json:"score" jsonschema:"accumulated watered-growth seconds"`
	Description      string  `json:"description" jsonschema:"one-line description of the plant"`
	WaterLevel       float64 `json:"water_level" jsonschema:"soil water gauge from 0 (dry) to 1 (wet)"`
	Wilted           bool    `json:"wilted" jsonschema:"whether the plant has wilted from neglect"`
	Dead             bool    `json:"dead" jsonschema:"whether the plant is dead"`
	WateredAt        string  `json:"watered_at,omitempty" jsonschema:"RFC3339 timestamp of the last watering"`
	WateredBy        string  `json:"watered_by,omitempty" jsonschema:"username of the visitor who last watered the plant"`
	FertilizerActive bool    `json:"fertilizer_active" jsonschema:"whether a fertilizer dose is active"`

	CanWater               bool   `json:"can_water" jsonschema:"whether watering would succeed now"`
	WaterCooldownRemaining string `json:"water_cooldown_remaining,omitempty" jsonschema:"time until the plant can be watered again"`
	CanShake               bool   `json:"can_shake" jsonschema:"whether shaking would succeed now (owner only)"`
	ShakeCooldownRemaining string `json:"shake_cooldown_remaining,omitempty" jsonschema:"time until the plant can be shaken again"`
	CanSearch              bool   `json:"can_search" jsonschema:"whether the plant is flowering and petals may be found"`
	CanFertilize           bool   `json:"can_fertilize" jsonschema:"whether fertilizing would succeed now (owner only)"`
	CanHarvest             bool   `json:"can_harvest" jsonschema:"whether the plant is ready to harvest"`
}

// GardenObserveInput represents the MCP tool input for observing a garden.
type GardenObserveInput struct {
	Gardener string `json:"gardener,omitempty" jsonschema:"username of the garden to visit (defaults to your own)"`
}

// GardenObserveResult represents the MCP tool output for observing a garden.
type GardenObserveResult struct {
	Plant       PlantResult `json:"plant" jsonschema:"plant snapshot"`
	Observation []string    `json:"observation" jsonschema:"localized lines describing the plant"`
}

// GardenObserveTool defines the MCP tool schema for observing a garden.
func GardenObserveTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "garden_observe",
		Description: "Looks at a plant: yours by default, or another gardener's by username. Visiting your own empty garden sprouts your first seed.",
	}
}

// GardenWaterInput represents the MCP tool input for watering a plant.
type GardenWaterInput struct {
	Gardener string `json:"gardener,omitempty" jsonschema:"username whose plant to water (defaults to your own)"`
}

// GardenWaterResult represents the MCP tool output for watering a plant.
type GardenWaterResult struct {
	Plant           PlantResult `json:"plant" jsonschema:"refreshed plant snapshot"`
	WateredForOwner bool        `json:"watered_for_owner" jsonschema:"whether you watered another gardener's plant"`
	Alert           string      `json:"alert" jsonschema:"localized alert describing the watering"`
}

// GardenWaterTool defines the MCP tool schema for watering a plant.
func GardenWaterTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "garden_water",
		Description: "Waters a plant. Anyone may water; the plant remembers helpful visitors. Rejected while the previous watering is still fresh.",
	}
}

// GardenShakeInput represents the MCP tool input for shaking a plant.
type GardenShakeInput struct{}

// GardenShakeResult represents the MCP tool output for shaking a plant.
type GardenShakeResult struct {
	Plant PlantResult `json:"plant" jsonschema:"refreshed plant snapshot"`
	Coins int         `json:"coins" jsonschema:"coins dislodged by the shake"`
	Alert string      `json:"alert" jsonschema:"localized alert describing the shake"`
}

// GardenShakeTool defines the MCP tool schema for shaking a plant.
func GardenShakeTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "garden_shake",
		Description: "Shakes your plant for loose coins. Owner only, rate limited; bigger plants shed more.",
	}
}

// GardenSearchInput represents the MCP tool input for searching for petals.
type GardenSearchInput struct {
	Gardener string `json:"gardener,omitempty" jsonschema:"username whose plant to search (defaults to your own)"`
}

// GardenSearchResult represents the MCP tool output for searching for petals.
type GardenSearchResult struct {
	Plant PlantResult `json:"plant" jsonschema:"refreshed plant snapshot"`
	Found bool        `json:"found" jsonschema:"whether a petal was found"`
	Petal string      `json:"petal,omitempty" jsonschema:"item id of the found petal"`
	Alert string      `json:"alert" jsonschema:"localized alert describing the search"`
}

// GardenSearchTool defines the MCP tool schema for searching for petals.
func GardenSearchTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "garden_search",
		Description: "Searches a flowering plant for a loose petal. Works on any gardener's plant; the petal goes to whoever found it.",
	}
}

// GardenFertilizeInput represents the MCP tool input for fertilizing a plant.
type GardenFertilizeInput struct{}

// GardenFertilizeResult represents the MCP tool output for fertilizing a plant.
type GardenFertilizeResult struct {
	Plant PlantResult `json:"plant" jsonschema:"refreshed plant snapshot"`
	Alert string      `json:"alert" jsonschema:"localized alert describing the fertilizing"`
}

// GardenFertilizeTool defines the MCP tool schema for fertilizing a plant.
func GardenFertilizeTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "garden_fertilize",
		Description: "Applies one EZ-Grow fertilizer from your inventory to your plant. Needs wet soil and no active dose; boosts growth 1.5x for 3 days.",
	}
}

// GardenHarvestInput represents the MCP tool input for harvesting a plant.
type GardenHarvestInput struct{}

// GardenHarvestResult represents the MCP tool output for harvesting a plant.
type GardenHarvestResult struct {
	Reward    int         `json:"reward" jsonschema:"coins credited for the harvest"`
	Salvage   bool        `json:"salvage" jsonschema:"whether this was a salvage harvest of a dead plant"`
	NextPlant PlantResult `json:"next_plant" jsonschema:"the replanted seed"`
	Alert     string      `json:"alert" jsonschema:"localized alert saying goodbye to the ended plant"`
}

// GardenHarvestTool defines the MCP tool schema for harvesting a plant.
func GardenHarvestTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "garden_harvest",
		Description: "Harvests your seed-bearing or dead plant. Pays a coin reward and replants a fresh seed; a living harvest advances the generation.",
	}
}

// GardenRenameInput represents the MCP tool input for renaming a plant.
type GardenRenameInput struct {
	Name string `json:"name" jsonschema:"new nickname for the plant, at most 40 characters"`
}

// GardenRenameResult represents the MCP tool output for renaming a plant.
type GardenRenameResult struct {
	Plant PlantResult `json:"plant" jsonschema:"refreshed plant snapshot"`
	Alert string      `json:"alert" jsonschema:"localized alert confirming the new name"`
}

// GardenRenameTool defines the MCP tool schema for renaming a plant.
func GardenRenameTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "garden_rename",
		Description: "Gives your plant a nickname.",
	}
}

// NeighborPlantResult represents one entry in the neighborhood listing.
type NeighborPlantResult struct {
	Owner       string `json:"owner" jsonschema:"username of the plant owner"`
	Description string `json:"description" jsonschema:"one-line description of the plant"`
	Stage       string `json:"stage" jsonschema:"growth stage name"`
	Generation  int    `json:"generation" jsonschema:"harvest generation"`
	Score       int    `json:"score" jsonschema:"accumulated watered-growth seconds"`
	Wilted      bool   `json:"wilted" jsonschema:"whether the plant has wilted"`
	WateredAt   string `json:"watered_at,omitempty" jsonschema:"RFC3339 timestamp of the last watering"`
}

// GardenNeighborhoodInput represents the MCP tool input for listing gardens.
type GardenNeighborhoodInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of gardens to list"`
}

// GardenNeighborhoodResult represents the MCP tool output for listing gardens.
type GardenNeighborhoodResult struct {
	Plants []NeighborPlantResult `json:"plants" jsonschema:"visitable plants, highest score first"`
}

// GardenNeighborhoodTool defines the MCP tool schema for listing gardens.
func GardenNeighborhoodTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "garden_neighborhood",
		Description: "Lists gardens worth visiting: growing plants watered within the last few days, highest score first. Pass an owner to garden_observe or garden_water.",
	}
}

// ShopBuyInput represents the MCP tool input for buying a shop item.
type ShopBuyInput struct {
	Item     string `json:"item" jsonschema:"item id from the shop catalog, e.g. fertilizer or postcard"`
	Quantity int    `json:"quantity,omitempty" jsonschema:"how many to buy, defaults to 1"`
}

// ShopBuyResult represents the MCP tool output for buying a shop item.
type ShopBuyResult struct {
	Item      string `json:"item" jsonschema:"item id"`
	ItemName  string `json:"item_name" jsonschema:"item display name"`
	Quantity  int    `json:"quantity" jsonschema:"how many were bought"`
	UnitPrice int    `json:"unit_price" jsonschema:"coin price per item"`
	CoinsLeft int    `json:"coins_left" jsonschema:"coin balance after the purchase"`
}

// ShopBuyTool defines the MCP tool schema for buying a shop item.
func ShopBuyTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "shop_buy",
		Description: "Buys an item from the shop with coins. The catalog is readable at shop://catalog.",
	}
}

// InventoryItemResult represents one held item in MCP tool outputs.
type InventoryItemResult struct {
	Item        string `json:"item" jsonschema:"item id"`
	Name        string `json:"name" jsonschema:"item display name"`
	Description string `json:"description" jsonschema:"item description"`
	Quantity    int    `json:"quantity" jsonschema:"how many are held"`
}

// InventoryListInput represents the MCP tool input for listing the inventory.
type InventoryListInput struct{}

// InventoryListResult represents the MCP tool output for listing the inventory.
type InventoryListResult struct {
	Items []InventoryItemResult `json:"items" jsonschema:"held items in catalog order"`
	Coins int                   `json:"coins" jsonschema:"coin balance"`
}

// InventoryListTool defines the MCP tool schema for listing the inventory.
func InventoryListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "inventory_list",
		Description: "Lists the items you hold: coins, fertilizer, postcards, and found petals.",
	}
}
