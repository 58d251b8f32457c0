package domain

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	garden "github.com/astralgarden/astral.garden/internal/services/garden/domain"
	"github.com/astralgarden/astral.garden/internal/services/garden/render"
	identity "github.com/astralgarden/astral.garden/internal/services/identity/domain"
)

// ShopItemEntry represents one catalog item in the shop resource payload.
type ShopItemEntry struct {
	Item        string `json:"item"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int    `json:"price,omitempty"`
	ForSale     bool   `json:"for_sale"`
}

// ShopPayload represents the MCP resource payload for the shop catalog.
type ShopPayload struct {
	Items []ShopItemEntry `json:"items"`
}

// ShopResource defines the MCP resource for the shop catalog.
func ShopResource() *mcp.Resource {
	return &mcp.Resource{
		Name:        "shop_catalog",
		Title:       "Shop Catalog",
		Description: "Readable item catalog: purchasable goods and findable collectibles",
		MIMEType:    "application/json",
		URI:         "shop://catalog",
	}
}

// ShopResourceHandler returns the readable shop catalog.
func ShopResourceHandler() mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		uri := ShopResource().URI
		if req != nil && req.Params != nil && req.Params.URI != "" {
			uri = req.Params.URI
		}
		if uri != ShopResource().URI {
			return nil, fmt.Errorf("invalid URI: expected %s, got %q", ShopResource().URI, uri)
		}

		payload := ShopPayload{}
		for _, item := range garden.Catalog() {
			payload.Items = append(payload.Items, ShopItemEntry{
				Item:        string(item.ID),
				Name:        item.Name,
				Description: item.Description,
				Price:       item.Price,
				ForSale:     item.ForSale,
			})
		}

		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal shop catalog: %w", err)
		}

		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{
					URI:      uri,
					MIMEType: "application/json",
					Text:     string(data),
				},
			},
		}, nil
	}
}

// NeighborhoodPayload represents the MCP resource payload for the garden listing.
type NeighborhoodPayload struct {
	Plants []NeighborPlantResult `json:"plants"`
}

// NeighborhoodResource defines the MCP resource for the garden listing.
func NeighborhoodResource() *mcp.Resource {
	return &mcp.Resource{
		Name:        "garden_neighborhood",
		Title:       "Garden Neighborhood",
		Description: "Readable listing of visitable gardens, highest score first",
		MIMEType:    "application/json",
		URI:         "garden://neighborhood",
	}
}

// NeighborhoodResourceHandler returns the readable garden listing. Unlike
// the tool it does not require an authenticated context, so a client can
// browse gardens before linking a certificate.
func NeighborhoodResourceHandler(gardenSvc *garden.Service, identitySvc *identity.Service) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if gardenSvc == nil {
			return nil, fmt.Errorf("garden service is not configured")
		}

		uri := NeighborhoodResource().URI
		if req != nil && req.Params != nil && req.Params.URI != "" {
			uri = req.Params.URI
		}
		if uri != NeighborhoodResource().URI {
			return nil, fmt.Errorf("invalid URI: expected %s, got %q", NeighborhoodResource().URI, uri)
		}

		runCtx, cancel := boundedContext(ctx)
		defer cancel()

		plants, err := gardenSvc.VisitList(runCtx, garden.VisitListInput{})
		if err != nil {
			return nil, fmt.Errorf("neighborhood list failed: %w", err)
		}

		loc := render.PrinterFor("")
		payload := NeighborhoodPayload{}
		for _, plant := range plants {
			payload.Plants = append(payload.Plants, NeighborPlantResult{
				Owner:       lookupUsername(runCtx, identitySvc, plant.OwnerID),
				Description: render.Description(loc, plant),
				Stage:       plant.Stage.String(),
				Generation:  plant.Generation,
				Score:       plant.Score,
				Wilted:      plant.Wilted,
				WateredAt:   formatTime(plant.WateredAt),
			})
		}

		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal neighborhood: %w", err)
		}

		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{
					URI:      uri,
					MIMEType: "application/json",
					Text:     string(data),
				},
			},
		}, nil
	}
}
