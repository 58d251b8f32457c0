// Package cmd carries the shared startup path for garden commands:
// telemetry installation bracketing a service run loop.
package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/astralgarden/astral.garden/internal/platform/otel"
)

// Service names reported to telemetry at startup.
const (
	ServiceGarden   = "garden"
	ServiceScenario = "scenario"
)

// otelShutdownTimeout bounds the final span flush when a command exits.
const otelShutdownTimeout = 5 * time.Second

// RunWithTelemetry installs the tracer provider for service, executes run,
// and flushes telemetry on the way out. Cancellation belongs to the caller:
// the context passed in is handed to run untouched.
func RunWithTelemetry(ctx context.Context, service string, run func(context.Context) error) error {
	service = strings.TrimSpace(service)
	if service == "" {
		return fmt.Errorf("service name is required")
	}
	if run == nil {
		return fmt.Errorf("run function is required")
	}

	shutdown, err := otel.Setup(ctx, service)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), otelShutdownTimeout)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			log.Printf("%s otel shutdown: %v", service, err)
		}
	}()

	return run(ctx)
}
