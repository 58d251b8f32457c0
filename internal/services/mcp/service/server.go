package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	garden "github.com/astralgarden/astral.garden/internal/services/garden/domain"
	identity "github.com/astralgarden/astral.garden/internal/services/identity/domain"
	mailbox "github.com/astralgarden/astral.garden/internal/services/mailbox/domain"
	"github.com/astralgarden/astral.garden/internal/services/mcp/domain"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// serverName identifies this MCP server to clients.
	serverName = "astral.garden MCP"
	// serverVersion identifies the MCP server version.
	serverVersion = "0.1.0"
)

type mcpRegistrationKind int

const (
	mcpRegistrationKindTools mcpRegistrationKind = iota
	mcpRegistrationKindResources
)

type mcpRegistrationModule struct {
	name     string
	kind     mcpRegistrationKind
	register func(mcpRegistrationTarget) error
}

const (
	mcpGardenToolsModuleName     = "garden-tools"
	mcpGardenerToolsModuleName   = "gardener-tools"
	mcpMailToolsModuleName       = "mail-tools"
	mcpContextToolsModuleName    = "context-tools"
	mcpGardenResourceModuleName  = "garden-resources"
	mcpContextResourceModuleName = "context-resources"
)

// Deps carries the domain services tool handlers are bound to. The MCP
// server runs in the same process as the engine, so these are direct
// references rather than network clients.
type Deps struct {
	Garden   *garden.Service
	Identity *identity.Service
	Mailbox  *mailbox.Service
}

func (d Deps) validate() error {
	if d.Garden == nil {
		return fmt.Errorf("garden service is required")
	}
	if d.Identity == nil {
		return fmt.Errorf("identity service is required")
	}
	if d.Mailbox == nil {
		return fmt.Errorf("mailbox service is required")
	}
	return nil
}

type mcpServerRegistrationAdapter struct {
	server *mcp.Server
}

func (r mcpServerRegistrationAdapter) AddTool(tool *mcp.Tool, handler any) error {
	return addMCPTool(r.server, tool, handler)
}

func (r mcpServerRegistrationAdapter) AddResource(resource *mcp.Resource, handler mcp.ResourceHandler) {
	r.server.AddResource(resource, handler)
}

type mcpToolRegistrar struct {
	matches func(any) bool
	add     func(*mcp.Server, *mcp.Tool, any)
}

func newMCPToolRegistrar[I any, O any]() mcpToolRegistrar {
	return mcpToolRegistrar{
		matches: func(handler any) bool {
			_, ok := handler.(mcp.ToolHandlerFor[I, O])
			return ok
		},
		add: func(server *mcp.Server, tool *mcp.Tool, handler any) {
			mcp.AddTool(server, tool, handler.(mcp.ToolHandlerFor[I, O]))
		},
	}
}

var mcpToolRegistrars = []mcpToolRegistrar{
	newMCPToolRegistrar[domain.GardenObserveInput, domain.GardenObserveResult](),
	newMCPToolRegistrar[domain.GardenWaterInput, domain.GardenWaterResult](),
	newMCPToolRegistrar[domain.GardenShakeInput, domain.GardenShakeResult](),
	newMCPToolRegistrar[domain.GardenSearchInput, domain.GardenSearchResult](),
	newMCPToolRegistrar[domain.GardenFertilizeInput, domain.GardenFertilizeResult](),
	newMCPToolRegistrar[domain.GardenHarvestInput, domain.GardenHarvestResult](),
	newMCPToolRegistrar[domain.GardenRenameInput, domain.GardenRenameResult](),
	newMCPToolRegistrar[domain.GardenNeighborhoodInput, domain.GardenNeighborhoodResult](),
	newMCPToolRegistrar[domain.ShopBuyInput, domain.ShopBuyResult](),
	newMCPToolRegistrar[domain.InventoryListInput, domain.InventoryListResult](),
	newMCPToolRegistrar[domain.GardenerRegisterInput, domain.GardenerSessionResult](),
	newMCPToolRegistrar[domain.GardenerLinkInput, domain.GardenerSessionResult](),
	newMCPToolRegistrar[domain.GardenerLinkGrantIssueInput, domain.GardenerLinkGrantIssueResult](),
	newMCPToolRegistrar[domain.GardenerLinkGrantRedeemInput, domain.GardenerSessionResult](),
	newMCPToolRegistrar[domain.GardenerSetPasswordInput, domain.GardenerSetPasswordResult](),
	newMCPToolRegistrar[domain.GardenerSetANSIInput, domain.GardenerSetANSIResult](),
	newMCPToolRegistrar[domain.GardenerCertificatesInput, domain.GardenerCertificatesResult](),
	newMCPToolRegistrar[domain.GardenerCertificateDeleteInput, domain.GardenerCertificateDeleteResult](),
	newMCPToolRegistrar[domain.GardenerWhoamiInput, domain.GardenerWhoamiResult](),
	newMCPToolRegistrar[domain.MailSendInput, domain.MailSendResult](),
	newMCPToolRegistrar[domain.MailListInput, domain.MailListResult](),
	newMCPToolRegistrar[domain.MailReadInput, domain.MailReadResult](),
	newMCPToolRegistrar[domain.SetContextInput, domain.SetContextResult](),
}

func addMCPTool(server *mcp.Server, tool *mcp.Tool, handler any) error {
	for _, registrar := range mcpToolRegistrars {
		if registrar.matches(handler) {
			registrar.add(server, tool, handler)
			return nil
		}
	}
	toolName := "<nil>"
	if tool != nil {
		toolName = tool.Name
	}
	return fmt.Errorf("mcp registration adapter does not support handler type %T for tool %q", handler, toolName)
}

func newMCPRegistrationModules(
	server *Server,
	deps Deps,
	notify domain.ResourceUpdateNotifier,
) []mcpRegistrationModule {
	return []mcpRegistrationModule{
		{
			name: mcpGardenToolsModuleName,
			kind: mcpRegistrationKindTools,
			register: func(registrar mcpRegistrationTarget) error {
				return registerGardenTools(registrar, deps.Garden, deps.Identity, server.getContext, notify)
			},
		},
		{
			name: mcpGardenerToolsModuleName,
			kind: mcpRegistrationKindTools,
			register: func(registrar mcpRegistrationTarget) error {
				return registerGardenerTools(registrar, deps.Identity, server.getContext)
			},
		},
		{
			name: mcpMailToolsModuleName,
			kind: mcpRegistrationKindTools,
			register: func(registrar mcpRegistrationTarget) error {
				return registerMailTools(registrar, deps.Mailbox, deps.Garden, deps.Identity, server.getContext)
			},
		},
		{
			name: mcpContextToolsModuleName,
			kind: mcpRegistrationKindTools,
			register: func(registrar mcpRegistrationTarget) error {
				return registerContextTools(registrar, deps.Identity, server, notify)
			},
		},
		{
			name: mcpGardenResourceModuleName,
			kind: mcpRegistrationKindResources,
			register: func(registrar mcpRegistrationTarget) error {
				registerGardenResources(registrar, deps.Garden, deps.Identity)
				return nil
			},
		},
		{
			name: mcpContextResourceModuleName,
			kind: mcpRegistrationKindResources,
			register: func(registrar mcpRegistrationTarget) error {
				registerContextResources(registrar, server)
				return nil
			},
		},
	}
}

// TransportKind identifies the MCP transport implementation.
type TransportKind string

const (
	// TransportStdio uses standard input/output for MCP.
	TransportStdio TransportKind = "stdio"
	// TransportHTTP runs MCP over streamable HTTP for remote clients.
	TransportHTTP TransportKind = "http"
)

// Config configures the MCP server.
type Config struct {
	Transport TransportKind
	HTTPAddr  string // HTTP server address. Defaults to localhost:8085 for HTTP transport.
}

// Server hosts the MCP server over the in-process domain services.
type Server struct {
	mcpServer *mcp.Server
	deps      Deps
	ctx       domain.Context
	ctxMu     sync.RWMutex
}

// New creates a configured MCP server and hydrates tool/resource handlers
// from the provided domain services.
func New(deps Deps) (*Server, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, &mcp.ServerOptions{
		CompletionHandler:  completionHandler,
		SubscribeHandler:   resourceSubscribeHandler,
		UnsubscribeHandler: resourceUnsubscribeHandler,
	})

	server := &Server{mcpServer: mcpServer, deps: deps}
	resourceNotifier := func(ctx context.Context, uri string) {
		if strings.TrimSpace(uri) == "" {
			return
		}
		if ctx == nil {
			ctx = context.Background()
		}
		if err := mcpServer.ResourceUpdated(ctx, &mcp.ResourceUpdatedNotificationParams{URI: uri}); err != nil {
			log.Printf("mcp resource updated notify failed: uri=%s err=%v", uri, err)
		}
	}

	for _, module := range newMCPRegistrationModules(server, deps, resourceNotifier) {
		if err := module.register(mcpServerRegistrationAdapter{server: mcpServer}); err != nil {
			return nil, fmt.Errorf("register MCP module %q: %w", module.name, err)
		}
	}

	return server, nil
}

// completionHandler handles completion/complete requests with empty results.
// Prompt and resource completion stays empty until the garden grows enough
// addressable state to complete against.
func completionHandler(ctx context.Context, req *mcp.CompleteRequest) (*mcp.CompleteResult, error) {
	return &mcp.CompleteResult{
		Completion: mcp.CompletionResultDetails{
			Values: []string{},
		},
	}, nil
}

// resourceSubscribeHandler accepts resource subscriptions with a valid URI.
func resourceSubscribeHandler(_ context.Context, req *mcp.SubscribeRequest) error {
	if req == nil || req.Params == nil || strings.TrimSpace(req.Params.URI) == "" {
		return fmt.Errorf("resource uri is required")
	}
	return nil
}

// resourceUnsubscribeHandler accepts resource unsubscriptions with a valid URI.
func resourceUnsubscribeHandler(_ context.Context, req *mcp.UnsubscribeRequest) error {
	if req == nil || req.Params == nil || strings.TrimSpace(req.Params.URI) == "" {
		return fmt.Errorf("resource uri is required")
	}
	return nil
}

// Run is the service entrypoint for MCP and blocks until context
// cancellation. It is transport-agnostic so startup can choose stdio for
// local agents and HTTP for remote integrations.
func Run(ctx context.Context, deps Deps, cfg Config) error {
	if cfg.Transport == "" {
		cfg.Transport = TransportStdio
	}

	server, err := New(deps)
	if err != nil {
		return err
	}

	switch cfg.Transport {
	case TransportStdio:
		return server.Serve(ctx)
	case TransportHTTP:
		return NewHTTPTransportWithServer(cfg.HTTPAddr, server.mcpServer).Start(ctx)
	default:
		return fmt.Errorf("transport %q is not supported", cfg.Transport)
	}
}

// Serve starts the MCP server on stdio and blocks until it stops or the
// context ends.
func (s *Server) Serve(ctx context.Context) error {
	return s.serveWithTransport(ctx, &mcp.StdioTransport{})
}

// setContext updates the server's context state.
func (s *Server) setContext(ctx domain.Context) {
	if s == nil {
		return
	}
	s.ctxMu.Lock()
	defer s.ctxMu.Unlock()
	s.ctx = ctx
}

// getContext returns the server's current context state.
func (s *Server) getContext() domain.Context {
	if s == nil {
		return domain.Context{}
	}
	s.ctxMu.RLock()
	defer s.ctxMu.RUnlock()
	return s.ctx
}

// serveWithTransport starts the MCP server using the provided transport.
// Cancellation is the normal way to stop the server, so context errors are
// not reported as failures.
func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}
