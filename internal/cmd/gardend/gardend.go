// Package gardend parses garden server flags and serves the MCP surface
// over the garden, identity, and mailbox services.
package gardend

import (
	"context"
	"flag"
	"fmt"

	"github.com/astralgarden/astral.garden/internal/platform/cmd"
	"github.com/astralgarden/astral.garden/internal/platform/config"
	gardenapp "github.com/astralgarden/astral.garden/internal/services/garden/app"
	gardendomain "github.com/astralgarden/astral.garden/internal/services/garden/domain"
	identityapp "github.com/astralgarden/astral.garden/internal/services/identity/app"
	identitydomain "github.com/astralgarden/astral.garden/internal/services/identity/domain"
	mailboxapp "github.com/astralgarden/astral.garden/internal/services/mailbox/app"
	mailboxdomain "github.com/astralgarden/astral.garden/internal/services/mailbox/domain"
	mcpservice "github.com/astralgarden/astral.garden/internal/services/mcp/service"
)

// Config holds garden server configuration.
type Config struct {
	GardenDB   string `env:"ASTRAL_GARDEN_GARDEN_DB_PATH"   envDefault:"data/garden.db"`
	IdentityDB string `env:"ASTRAL_GARDEN_IDENTITY_DB_PATH" envDefault:"data/identity.db"`
	MailboxDB  string `env:"ASTRAL_GARDEN_MAILBOX_DB_PATH"  envDefault:"data/mailbox.db"`
	HTTPAddr   string `env:"ASTRAL_GARDEN_MCP_HTTP_ADDR"    envDefault:"localhost:8085"`
	Transport  string `env:"ASTRAL_GARDEN_MCP_TRANSPORT"    envDefault:"stdio"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.GardenDB, "garden-db", cfg.GardenDB, "garden SQLite database path")
	fs.StringVar(&cfg.IdentityDB, "identity-db", cfg.IdentityDB, "identity SQLite database path")
	fs.StringVar(&cfg.MailboxDB, "mailbox-db", cfg.MailboxDB, "mailbox SQLite database path")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP server address (for HTTP transport)")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "Transport type: stdio or http")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run opens the databases and serves MCP until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	return cmd.RunWithTelemetry(ctx, cmd.ServiceGarden, func(ctx context.Context) error {
		grants, err := identitydomain.LoadLinkGrantConfigFromEnv(nil)
		if err != nil {
			return err
		}

		garden, err := gardenapp.Open(cfg.GardenDB, gardendomain.Config{})
		if err != nil {
			return fmt.Errorf("open garden db: %w", err)
		}
		defer garden.Close()

		identity, err := identityapp.Open(cfg.IdentityDB, identitydomain.Config{LinkGrants: grants})
		if err != nil {
			return fmt.Errorf("open identity db: %w", err)
		}
		defer identity.Close()

		mailbox, err := mailboxapp.Open(cfg.MailboxDB, mailboxdomain.Config{})
		if err != nil {
			return fmt.Errorf("open mailbox db: %w", err)
		}
		defer mailbox.Close()

		return mcpservice.Run(ctx, mcpservice.Deps{
			Garden:   garden.Service(),
			Identity: identity.Service(),
			Mailbox:  mailbox.Service(),
		}, mcpservice.Config{
			Transport: mcpservice.TransportKind(cfg.Transport),
			HTTPAddr:  cfg.HTTPAddr,
		})
	})
}
