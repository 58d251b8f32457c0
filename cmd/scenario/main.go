// Package main runs Lua scenario scripts against an in-process garden.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/astralgarden/astral.garden/internal/platform/cmd"

	scenariocmd "github.com/astralgarden/astral.garden/internal/cmd/scenario"
)

func main() {
	if err := run(); err != nil {
		cmd.Exitf("Error: %v", err)
	}
}

func run() error {
	cfg, err := scenariocmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return scenariocmd.Run(ctx, cfg, os.Stdout, os.Stderr)
}
