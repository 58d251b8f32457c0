package domain

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	identity "github.com/astralgarden/astral.garden/internal/services/identity/domain"
)

// GardenerSessionResult represents the MCP tool output for operations that
// authenticate or link the active certificate.
type GardenerSessionResult struct {
	AccountID   string `json:"account_id" jsonschema:"account identifier"`
	Username    string `json:"username" jsonschema:"account username"`
	Fingerprint string `json:"fingerprint" jsonschema:"linked certificate fingerprint"`
	CreatedAt   string `json:"created_at" jsonschema:"RFC3339 timestamp when the account was created"`
}

func gardenerSessionResult(session identity.Session) GardenerSessionResult {
	return GardenerSessionResult{
		AccountID:   session.Account.ID,
		Username:    session.Account.Username,
		Fingerprint: session.Certificate.Fingerprint,
		CreatedAt:   formatTime(session.Account.CreatedAt),
	}
}

// GardenerRegisterInput represents the MCP tool input for registration.
type GardenerRegisterInput struct {
	Username string `json:"username" jsonschema:"username to claim, printable ASCII, at most 30 characters"`
}

// GardenerRegisterTool defines the MCP tool schema for registration.
func GardenerRegisterTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "gardener_register",
		Description: "Creates a new gardener account for the context fingerprint. The first seed sprouts when you first observe your garden.",
	}
}

// GardenerRegisterHandler executes a registration request for the context
// certificate.
func GardenerRegisterHandler(identitySvc *identity.Service, getContext func() Context) mcp.ToolHandlerFor[GardenerRegisterInput, GardenerSessionResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input GardenerRegisterInput) (*mcp.CallToolResult, GardenerSessionResult, error) {
		runCtx, cancel := boundedContext(ctx)
		defer cancel()

		current := getContextFingerprint(getContext)
		if current.Fingerprint == "" {
			return nil, GardenerSessionResult{}, fmt.Errorf("no certificate fingerprint in context; call set_context first")
		}

		session, err := identitySvc.RegisterNew(runCtx, identity.RegisterNewInput{
			Username:    input.Username,
			Certificate: identity.CertificateInfo{Fingerprint: current.Fingerprint},
		})
		if err != nil {
			return nil, GardenerSessionResult{}, userError(current.Locale, err)
		}
		return nil, gardenerSessionResult(session), nil
	}
}

// GardenerLinkInput represents the MCP tool input for linking the context
// certificate to an existing account.
type GardenerLinkInput struct {
	Username string `json:"username" jsonschema:"existing account username"`
	Password string `json:"password" jsonschema:"account password"`
}

// GardenerLinkTool defines the MCP tool schema for password linking.
func GardenerLinkTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "gardener_link",
		Description: "Links the context fingerprint to an existing account using its password. The account must have set a password first.",
	}
}

// GardenerLinkHandler executes a password link request for the context
// certificate.
func GardenerLinkHandler(identitySvc *identity.Service, getContext func() Context) mcp.ToolHandlerFor[GardenerLinkInput, GardenerSessionResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input GardenerLinkInput) (*mcp.CallToolResult, GardenerSessionResult, error) {
		runCtx, cancel := boundedContext(ctx)
		defer cancel()

		current := getContextFingerprint(getContext)
		if current.Fingerprint == "" {
			return nil, GardenerSessionResult{}, fmt.Errorf("no certificate fingerprint in context; call set_context first")
		}

		session, err := identitySvc.LinkExisting(runCtx, identity.LinkExistingInput{
			Username:    input.Username,
			Password:    input.Password,
			Certificate: identity.CertificateInfo{Fingerprint: current.Fingerprint},
		})
		if err != nil {
			return nil, GardenerSessionResult{}, userError(current.Locale, err)
		}
		return nil, gardenerSessionResult(session), nil
	}
}

// GardenerLinkGrantIssueInput represents the MCP tool input for issuing a
// link grant.
type GardenerLinkGrantIssueInput struct{}

// GardenerLinkGrantIssueResult represents the MCP tool output for issuing a
// link grant.
type GardenerLinkGrantIssueResult struct {
	Grant string `json:"grant" jsonschema:"signed link token; redeem it from the new device with gardener_link_grant_redeem"`
}

// GardenerLinkGrantIssueTool defines the MCP tool schema for issuing a
// link grant.
func GardenerLinkGrantIssueTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "gardener_link_grant_issue",
		Description: "Issues a short-lived signed token that lets another certificate join your account without a password round-trip.",
	}
}

// GardenerLinkGrantIssueHandler issues a link grant for the caller's account.
func GardenerLinkGrantIssueHandler(identitySvc *identity.Service, getContext func() Context) mcp.ToolHandlerFor[GardenerLinkGrantIssueInput, GardenerLinkGrantIssueResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ GardenerLinkGrantIssueInput) (*mcp.CallToolResult, GardenerLinkGrantIssueResult, error) {
		runCtx, cancel := boundedContext(ctx)
		defer cancel()

		session, mcpCtx, err := requireSession(runCtx, identitySvc, getContext)
		if err != nil {
			return nil, GardenerLinkGrantIssueResult{}, err
		}

		grant, err := identitySvc.IssueLinkGrant(runCtx, session.Account.ID)
		if err != nil {
			return nil, GardenerLinkGrantIssueResult{}, userError(mcpCtx.Locale, err)
		}
		return nil, GardenerLinkGrantIssueResult{Grant: grant}, nil
	}
}

// GardenerLinkGrantRedeemInput represents the MCP tool input for redeeming a
// link grant.
type GardenerLinkGrantRedeemInput struct {
	Grant string `json:"grant" jsonschema:"link token issued by gardener_link_grant_issue"`
}

// GardenerLinkGrantRedeemTool defines the MCP tool schema for redeeming a
// link grant.
func GardenerLinkGrantRedeemTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "gardener_link_grant_redeem",
		Description: "Links the context fingerprint to the account that issued the link token.",
	}
}

// GardenerLinkGrantRedeemHandler links the context certificate using a grant.
func GardenerLinkGrantRedeemHandler(identitySvc *identity.Service, getContext func() Context) mcp.ToolHandlerFor[GardenerLinkGrantRedeemInput, GardenerSessionResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input GardenerLinkGrantRedeemInput) (*mcp.CallToolResult, GardenerSessionResult, error) {
		runCtx, cancel := boundedContext(ctx)
		defer cancel()

		current := getContextFingerprint(getContext)
		if current.Fingerprint == "" {
			return nil, GardenerSessionResult{}, fmt.Errorf("no certificate fingerprint in context; call set_context first")
		}

		session, err := identitySvc.LinkWithGrant(runCtx, identity.LinkWithGrantInput{
			Grant:       input.Grant,
			Certificate: identity.CertificateInfo{Fingerprint: current.Fingerprint},
		})
		if err != nil {
			return nil, GardenerSessionResult{}, userError(current.Locale, err)
		}
		return nil, gardenerSessionResult(session), nil
	}
}

// GardenerSetPasswordInput represents the MCP tool input for setting the
// account password.
type GardenerSetPasswordInput struct {
	Password string `json:"password" jsonschema:"new password, at least 8 characters"`
}

// GardenerSetPasswordResult represents the MCP tool output for setting the
// account password.
type GardenerSetPasswordResult struct {
	Username    string `json:"username" jsonschema:"account username"`
	PasswordSet bool   `json:"password_set" jsonschema:"whether the account now has a password"`
}

// GardenerSetPasswordTool defines the MCP tool schema for setting the
// account password.
func GardenerSetPasswordTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "gardener_set_password",
		Description: "Sets the account password used by gardener_link to attach new certificates.",
	}
}

// GardenerSetPasswordHandler sets the caller's account password.
func GardenerSetPasswordHandler(identitySvc *identity.Service, getContext func() Context) mcp.ToolHandlerFor[GardenerSetPasswordInput, GardenerSetPasswordResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input GardenerSetPasswordInput) (*mcp.CallToolResult, GardenerSetPasswordResult, error) {
		runCtx, cancel := boundedContext(ctx)
		defer cancel()

		session, mcpCtx, err := requireSession(runCtx, identitySvc, getContext)
		if err != nil {
			return nil, GardenerSetPasswordResult{}, err
		}

		if err := identitySvc.SetPassword(runCtx, identity.SetPasswordInput{
			AccountID: session.Account.ID,
			Password:  input.Password,
		}); err != nil {
			return nil, GardenerSetPasswordResult{}, userError(mcpCtx.Locale, err)
		}
		return nil, GardenerSetPasswordResult{Username: session.Account.Username, PasswordSet: true}, nil
	}
}

// GardenerSetANSIInput represents the MCP tool input for the per-certificate
// color preference.
type GardenerSetANSIInput struct {
	Enabled bool `json:"enabled" jsonschema:"whether rendering surfaces should emit ANSI colors for this certificate"`
}

// GardenerSetANSIResult represents the MCP tool output for the
// per-certificate color preference.
type GardenerSetANSIResult struct {
	Fingerprint string `json:"fingerprint" jsonschema:"certificate fingerprint"`
	AnsiEnabled bool   `json:"ansi_enabled" jsonschema:"stored color preference"`
}

// GardenerSetANSITool defines the MCP tool schema for the per-certificate
// color preference.
func GardenerSetANSITool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "gardener_set_ansi",
		Description: "Stores the ANSI color preference for the context certificate. Settings are per certificate, not per account.",
	}
}

// GardenerSetANSIHandler stores the color preference for the context
// certificate.
func GardenerSetANSIHandler(identitySvc *identity.Service, getContext func() Context) mcp.ToolHandlerFor[GardenerSetANSIInput, GardenerSetANSIResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input GardenerSetANSIInput) (*mcp.CallToolResult, GardenerSetANSIResult, error) {
		runCtx, cancel := boundedContext(ctx)
		defer cancel()

		current := getContextFingerprint(getContext)
		if current.Fingerprint == "" {
			return nil, GardenerSetANSIResult{}, fmt.Errorf("no certificate fingerprint in context; call set_context first")
		}

		certificate, err := identitySvc.SetANSI(runCtx, identity.SetANSIInput{
			Fingerprint: current.Fingerprint,
			Enabled:     input.Enabled,
		})
		if err != nil {
			return nil, GardenerSetANSIResult{}, userError(current.Locale, err)
		}
		return nil, GardenerSetANSIResult{
			Fingerprint: certificate.Fingerprint,
			AnsiEnabled: certificate.ANSIEnabled,
		}, nil
	}
}

// CertificateResult represents one linked certificate in MCP tool outputs.
type CertificateResult struct {
	Fingerprint string `json:"fingerprint" jsonschema:"certificate fingerprint"`
	Subject     string `json:"subject,omitempty" jsonschema:"certificate subject"`
	AnsiEnabled bool   `json:"ansi_enabled" jsonschema:"per-certificate color preference"`
	Active      bool   `json:"active" jsonschema:"whether this certificate authenticates the current context"`
	LastSeenAt  string `json:"last_seen_at,omitempty" jsonschema:"RFC3339 timestamp of the last sighting"`
	CreatedAt   string `json:"created_at" jsonschema:"RFC3339 timestamp when the certificate was linked"`
	NotAfter    string `json:"not_after,omitempty" jsonschema:"RFC3339 certificate expiry when known"`
}

// GardenerCertificatesInput represents the MCP tool input for listing
// certificates.
type GardenerCertificatesInput struct{}

// GardenerCertificatesResult represents the MCP tool output for listing
// certificates.
type GardenerCertificatesResult struct {
	Certificates []CertificateResult `json:"certificates" jsonschema:"linked certificates, oldest sighting first"`
}

// GardenerCertificatesTool defines the MCP tool schema for listing
// certificates.
func GardenerCertificatesTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "gardener_certificates",
		Description: "Lists the certificates linked to your account, oldest sighting first.",
	}
}

// GardenerCertificatesHandler lists the caller's linked certificates.
func GardenerCertificatesHandler(identitySvc *identity.Service, getContext func() Context) mcp.ToolHandlerFor[GardenerCertificatesInput, GardenerCertificatesResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ GardenerCertificatesInput) (*mcp.CallToolResult, GardenerCertificatesResult, error) {
		runCtx, cancel := boundedContext(ctx)
		defer cancel()

		session, mcpCtx, err := requireSession(runCtx, identitySvc, getContext)
		if err != nil {
			return nil, GardenerCertificatesResult{}, err
		}

		certificates, err := identitySvc.ListCertificates(runCtx, session.Account.ID)
		if err != nil {
			return nil, GardenerCertificatesResult{}, userError(mcpCtx.Locale, err)
		}

		result := GardenerCertificatesResult{Certificates: make([]CertificateResult, 0, len(certificates))}
		for _, certificate := range certificates {
			result.Certificates = append(result.Certificates, CertificateResult{
				Fingerprint: certificate.Fingerprint,
				Subject:     certificate.Subject,
				AnsiEnabled: certificate.ANSIEnabled,
				Active:      certificate.Fingerprint == session.Certificate.Fingerprint,
				LastSeenAt:  formatTime(certificate.LastSeenAt),
				CreatedAt:   formatTime(certificate.CreatedAt),
				NotAfter:    formatTime(certificate.NotAfter),
			})
		}
		return nil, result, nil
	}
}

// GardenerCertificateDeleteInput represents the MCP tool input for unlinking
// a certificate.
type GardenerCertificateDeleteInput struct {
	Fingerprint string `json:"fingerprint" jsonschema:"fingerprint of the certificate to unlink"`
}

// GardenerCertificateDeleteResult represents the MCP tool output for
// unlinking a certificate.
type GardenerCertificateDeleteResult struct {
	Fingerprint string `json:"fingerprint" jsonschema:"fingerprint of the unlinked certificate"`
	Deleted     bool   `json:"deleted" jsonschema:"whether the certificate was unlinked"`
}

// GardenerCertificateDeleteTool defines the MCP tool schema for unlinking a
// certificate.
func GardenerCertificateDeleteTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "gardener_certificate_delete",
		Description: "Unlinks a certificate from your account. The certificate authenticating this context cannot be unlinked.",
	}
}

// GardenerCertificateDeleteHandler unlinks one of the caller's certificates.
func GardenerCertificateDeleteHandler(identitySvc *identity.Service, getContext func() Context) mcp.ToolHandlerFor[GardenerCertificateDeleteInput, GardenerCertificateDeleteResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input GardenerCertificateDeleteInput) (*mcp.CallToolResult, GardenerCertificateDeleteResult, error) {
		runCtx, cancel := boundedContext(ctx)
		defer cancel()

		session, mcpCtx, err := requireSession(runCtx, identitySvc, getContext)
		if err != nil {
			return nil, GardenerCertificateDeleteResult{}, err
		}

		if err := identitySvc.DeleteCertificate(runCtx, identity.DeleteCertificateInput{
			AccountID:         session.Account.ID,
			Fingerprint:       input.Fingerprint,
			ActiveFingerprint: session.Certificate.Fingerprint,
		}); err != nil {
			return nil, GardenerCertificateDeleteResult{}, userError(mcpCtx.Locale, err)
		}
		return nil, GardenerCertificateDeleteResult{Fingerprint: input.Fingerprint, Deleted: true}, nil
	}
}

// GardenerWhoamiInput represents the MCP tool input for inspecting the
// authenticated session.
type GardenerWhoamiInput struct{}

// GardenerWhoamiResult represents the MCP tool output for inspecting the
// authenticated session.
type GardenerWhoamiResult struct {
	AccountID   string `json:"account_id" jsonschema:"account identifier"`
	Username    string `json:"username" jsonschema:"account username"`
	Fingerprint string `json:"fingerprint" jsonschema:"certificate authenticating this context"`
	AnsiEnabled bool   `json:"ansi_enabled" jsonschema:"per-certificate color preference"`
	PasswordSet bool   `json:"password_set" jsonschema:"whether the account has a password for linking"`
	MemberSince string `json:"member_since" jsonschema:"RFC3339 timestamp when the account was created"`
}

// GardenerWhoamiTool defines the MCP tool schema for inspecting the
// authenticated session.
func GardenerWhoamiTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "gardener_whoami",
		Description: "Shows the account and certificate behind the current context.",
	}
}

// GardenerWhoamiHandler reports the authenticated session.
func GardenerWhoamiHandler(identitySvc *identity.Service, getContext func() Context) mcp.ToolHandlerFor[GardenerWhoamiInput, GardenerWhoamiResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ GardenerWhoamiInput) (*mcp.CallToolResult, GardenerWhoamiResult, error) {
		runCtx, cancel := boundedContext(ctx)
		defer cancel()

		session, _, err := requireSession(runCtx, identitySvc, getContext)
		if err != nil {
			return nil, GardenerWhoamiResult{}, err
		}

		return nil, GardenerWhoamiResult{
			AccountID:   session.Account.ID,
			Username:    session.Account.Username,
			Fingerprint: session.Certificate.Fingerprint,
			AnsiEnabled: session.Certificate.ANSIEnabled,
			PasswordSet: session.Account.PasswordSet(),
			MemberSince: formatTime(session.Account.CreatedAt),
		}, nil
	}
}

// getContextFingerprint reads the current context without authenticating
// it, for tools that work with certificates no account has claimed yet.
func getContextFingerprint(getContext func() Context) Context {
	if getContext == nil {
		return Context{}
	}
	return getContext()
}
