package service

import (
	"fmt"

	garden "github.com/astralgarden/astral.garden/internal/services/garden/domain"
	identity "github.com/astralgarden/astral.garden/internal/services/identity/domain"
	mailbox "github.com/astralgarden/astral.garden/internal/services/mailbox/domain"
	"github.com/astralgarden/astral.garden/internal/services/mcp/domain"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type mcpRegistrationTarget interface {
	AddTool(*mcp.Tool, any) error
	AddResource(*mcp.Resource, mcp.ResourceHandler)
}

func registerGardenTools(
	registrar mcpRegistrationTarget,
	gardenSvc *garden.Service,
	identitySvc *identity.Service,
	getContext func() domain.Context,
	notify domain.ResourceUpdateNotifier,
) error {
	registrations := []struct {
		tool    *mcp.Tool
		handler any
	}{
		{tool: domain.GardenObserveTool(), handler: domain.GardenObserveHandler(gardenSvc, identitySvc, getContext)},
		{tool: domain.GardenWaterTool(), handler: domain.GardenWaterHandler(gardenSvc, identitySvc, getContext, notify)},
		{tool: domain.GardenShakeTool(), handler: domain.GardenShakeHandler(gardenSvc, identitySvc, getContext, notify)},
		{tool: domain.GardenSearchTool(), handler: domain.GardenSearchHandler(gardenSvc, identitySvc, getContext)},
		{tool: domain.GardenFertilizeTool(), handler: domain.GardenFertilizeHandler(gardenSvc, identitySvc, getContext)},
		{tool: domain.GardenHarvestTool(), handler: domain.GardenHarvestHandler(gardenSvc, identitySvc, getContext, notify)},
		{tool: domain.GardenRenameTool(), handler: domain.GardenRenameHandler(gardenSvc, identitySvc, getContext)},
		{tool: domain.GardenNeighborhoodTool(), handler: domain.GardenNeighborhoodHandler(gardenSvc, identitySvc, getContext)},
		{tool: domain.ShopBuyTool(), handler: domain.ShopBuyHandler(gardenSvc, identitySvc, getContext)},
		{tool: domain.InventoryListTool(), handler: domain.InventoryListHandler(gardenSvc, identitySvc, getContext)},
	}
	for _, registration := range registrations {
		if err := registerTool(registrar, registration.tool, registration.handler); err != nil {
			return err
		}
	}
	return nil
}

func registerGardenerTools(
	registrar mcpRegistrationTarget,
	identitySvc *identity.Service,
	getContext func() domain.Context,
) error {
	registrations := []struct {
		tool    *mcp.Tool
		handler any
	}{
		{tool: domain.GardenerRegisterTool(), handler: domain.GardenerRegisterHandler(identitySvc, getContext)},
		{tool: domain.GardenerLinkTool(), handler: domain.GardenerLinkHandler(identitySvc, getContext)},
		{tool: domain.GardenerLinkGrantIssueTool(), handler: domain.GardenerLinkGrantIssueHandler(identitySvc, getContext)},
		{tool: domain.GardenerLinkGrantRedeemTool(), handler: domain.GardenerLinkGrantRedeemHandler(identitySvc, getContext)},
		{tool: domain.GardenerSetPasswordTool(), handler: domain.GardenerSetPasswordHandler(identitySvc, getContext)},
		{tool: domain.GardenerSetANSITool(), handler: domain.GardenerSetANSIHandler(identitySvc, getContext)},
		{tool: domain.GardenerCertificatesTool(), handler: domain.GardenerCertificatesHandler(identitySvc, getContext)},
		{tool: domain.GardenerCertificateDeleteTool(), handler: domain.GardenerCertificateDeleteHandler(identitySvc, getContext)},
		{tool: domain.GardenerWhoamiTool(), handler: domain.GardenerWhoamiHandler(identitySvc, getContext)},
	}
	for _, registration := range registrations {
		if err := registerTool(registrar, registration.tool, registration.handler); err != nil {
			return err
		}
	}
	return nil
}

func registerMailTools(
	registrar mcpRegistrationTarget,
	mailboxSvc *mailbox.Service,
	gardenSvc *garden.Service,
	identitySvc *identity.Service,
	getContext func() domain.Context,
) error {
	if err := registerTool(registrar, domain.MailSendTool(), domain.MailSendHandler(mailboxSvc, gardenSvc, identitySvc, getContext)); err != nil {
		return err
	}
	if err := registerTool(registrar, domain.MailListTool(), domain.MailListHandler(mailboxSvc, identitySvc, getContext)); err != nil {
		return err
	}
	return registerTool(registrar, domain.MailReadTool(), domain.MailReadHandler(mailboxSvc, identitySvc, getContext))
}

// registerContextTools registers context management tools.
func registerContextTools(
	registrar mcpRegistrationTarget,
	identitySvc *identity.Service,
	server *Server,
	notify domain.ResourceUpdateNotifier,
) error {
	return registerTool(registrar, domain.SetContextTool(), domain.SetContextHandler(
		identitySvc,
		server.setContext,
		server.getContext,
		notify,
	))
}

func registerTool(registrar mcpRegistrationTarget, tool *mcp.Tool, handler any) error {
	if tool == nil {
		return fmt.Errorf("tool is nil")
	}
	return registrar.AddTool(tool, handler)
}

// registerGardenResources registers readable garden MCP resources.
func registerGardenResources(registrar mcpRegistrationTarget, gardenSvc *garden.Service, identitySvc *identity.Service) {
	registrar.AddResource(domain.ShopResource(), domain.ShopResourceHandler())
	registrar.AddResource(domain.NeighborhoodResource(), domain.NeighborhoodResourceHandler(gardenSvc, identitySvc))
}

// registerContextResources registers readable context MCP resources.
func registerContextResources(registrar mcpRegistrationTarget, server *Server) {
	registrar.AddResource(domain.ContextResource(), domain.ContextResourceHandler(server.getContext))
}
