// Package main starts the garden server on stdio or HTTP.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/astralgarden/astral.garden/internal/platform/cmd"

	gardendcmd "github.com/astralgarden/astral.garden/internal/cmd/gardend"
)

func main() {
	if err := run(); err != nil {
		cmd.Exitf("Error: %v", err)
	}
}

func run() error {
	cfg, err := gardendcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return gardendcmd.Run(ctx, cfg)
}
