package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	apperrors "github.com/astralgarden/astral.garden/internal/platform/errors"
	identity "github.com/astralgarden/astral.garden/internal/services/identity/domain"
)

// Context represents the current MCP session context. MCP transports carry
// no TLS client certificate, so the fingerprint is declared once per
// session and every subsequent tool call authenticates through it.
// This is a duplicate of the one in the service package to avoid circular
// imports.
type Context struct {
	Fingerprint string
	Locale      string
}

// SetContextInput represents the MCP tool input for setting context.
type SetContextInput struct {
	Fingerprint string `json:"fingerprint" jsonschema:"client certificate fingerprint (required)"`
	Locale      string `json:"locale,omitempty" jsonschema:"optional locale for alerts, e.g. en-US or pt-BR"`
}

// SetContextResult represents the MCP tool output for setting context.
type SetContextResult struct {
	Context struct {
		Fingerprint string `json:"fingerprint" jsonschema:"active certificate fingerprint"`
		Locale      string `json:"locale,omitempty" jsonschema:"active locale"`
	} `json:"context" jsonschema:"current context"`
	Linked   bool   `json:"linked" jsonschema:"whether the fingerprint is linked to an account"`
	Username string `json:"username,omitempty" jsonschema:"account username when linked"`
}

// SetContextTool defines the MCP tool schema for setting context.
func SetContextTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "set_context",
		Description: "Sets the active certificate fingerprint (and optional locale) for subsequent tool calls. An unlinked fingerprint may still be set; claim it with gardener_register or gardener_link.",
	}
}

// SetContextHandler executes a context set request. Unlike the account
// tools it accepts fingerprints with no linked account, because setting
// the context is how a fresh certificate gets far enough to register.
func SetContextHandler(
	identitySvc *identity.Service,
	setContextFunc func(ctx Context),
	getContextFunc func() Context,
	notify ResourceUpdateNotifier,
) mcp.ToolHandlerFor[SetContextInput, SetContextResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input SetContextInput) (*mcp.CallToolResult, SetContextResult, error) {
		runCtx, cancel := boundedContext(ctx)
		defer cancel()

		fingerprint := strings.TrimSpace(input.Fingerprint)
		if fingerprint == "" {
			return nil, SetContextResult{}, fmt.Errorf("fingerprint is required")
		}

		result := SetContextResult{}
		session, err := identitySvc.Resolve(runCtx, fingerprint)
		switch {
		case err == nil:
			result.Linked = true
			result.Username = session.Account.Username
		case apperrors.IsCode(err, apperrors.CodeUnauthenticated):
			// Unknown certificate: context is still set so the caller can
			// register or link it.
		default:
			return nil, SetContextResult{}, fmt.Errorf("resolve certificate: %w", err)
		}

		setContextFunc(Context{
			Fingerprint: fingerprint,
			Locale:      strings.TrimSpace(input.Locale),
		})

		NotifyResourceUpdates(ctx, notify, ContextResource().URI)

		current := getContextFunc()
		result.Context.Fingerprint = current.Fingerprint
		if current.Locale != "" {
			result.Context.Locale = current.Locale
		}
		return nil, result, nil
	}
}

// ContextResourcePayload represents the MCP resource payload for the
// current context.
type ContextResourcePayload struct {
	Context struct {
		Fingerprint *string `json:"fingerprint"`
		Locale      *string `json:"locale"`
	} `json:"context"`
}

// ContextResource defines the MCP resource for the current context.
func ContextResource() *mcp.Resource {
	return &mcp.Resource{
		Name:        "context_current",
		Title:       "Current Context",
		Description: "Readable current MCP context (fingerprint, locale)",
		MIMEType:    "application/json",
		URI:         "context://current",
	}
}

// ContextResourceHandler returns a readable current context resource.
func ContextResourceHandler(getContextFunc func() Context) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if getContextFunc == nil {
			return nil, fmt.Errorf("context getter function is not configured")
		}

		uri := ContextResource().URI
		if req != nil && req.Params != nil && req.Params.URI != "" {
			uri = req.Params.URI
		}
		if uri != ContextResource().URI {
			return nil, fmt.Errorf("invalid URI: expected %s, got %q", ContextResource().URI, uri)
		}

		current := getContextFunc()

		// Null over empty strings so clients can distinguish unset fields.
		payload := ContextResourcePayload{}
		if current.Fingerprint != "" {
			payload.Context.Fingerprint = &current.Fingerprint
		}
		if current.Locale != "" {
			payload.Context.Locale = &current.Locale
		}

		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal context: %w", err)
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
