// Package scenario parses scenario command flags and drives the Lua runner.
package scenario

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/astralgarden/astral.garden/internal/platform/cmd"
	"github.com/astralgarden/astral.garden/internal/platform/config"
	"github.com/astralgarden/astral.garden/internal/tools/scenario"
)

// Config holds scenario command configuration.
type Config struct {
	Scenario   string        `env:"ASTRAL_GARDEN_SCENARIO_FILE"`
	DataDir    string        `env:"ASTRAL_GARDEN_SCENARIO_DATA_DIR"`
	Assertions bool          `env:"ASTRAL_GARDEN_SCENARIO_ASSERT"    envDefault:"true"`
	Verbose    bool          `env:"ASTRAL_GARDEN_SCENARIO_VERBOSE"`
	Timeout    time.Duration `env:"ASTRAL_GARDEN_SCENARIO_TIMEOUT"   envDefault:"10s"`
	Seed       int64         `env:"ASTRAL_GARDEN_SCENARIO_SEED"      envDefault:"1"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.Scenario, "scenario", cfg.Scenario, "path to scenario lua file")
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "directory for scenario databases (default throwaway)")
	fs.BoolVar(&cfg.Assertions, "assert", cfg.Assertions, "enable assertions (disable to log expectations)")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "enable verbose logging")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "timeout per step")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "seed for the garden's random rolls")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run executes the scenario command.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	if cfg.Scenario == "" {
		return errors.New("scenario path is required")
	}

	mode := scenario.AssertionStrict
	if !cfg.Assertions {
		mode = scenario.AssertionLogOnly
	}
	logger := log.New(errOut, "", 0)

	return cmd.RunWithTelemetry(ctx, cmd.ServiceScenario, func(ctx context.Context) error {
		err := scenario.RunFile(ctx, scenario.Config{
			DataDir:    cfg.DataDir,
			Timeout:    cfg.Timeout,
			Assertions: mode,
			Verbose:    cfg.Verbose,
			Logger:     logger,
			Seed:       cfg.Seed,
		}, cfg.Scenario)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "scenario passed: %s\n", cfg.Scenario)
		return nil
	})
}
