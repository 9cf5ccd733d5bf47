package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.opentelemetry.io/otel"

	"github.com/matzehuels/familymap/internal/cli"
	"github.com/matzehuels/familymap/pkg/observability/otelhooks"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130) // Standard shell convention for SIGINT
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	c := cli.New(os.Stderr, cli.LogInfo)

	// Hooks report to the global otel providers, which are no-ops unless an
	// SDK has been registered.
	hooks, err := otelhooks.New(otel.Meter("github.com/matzehuels/familymap"))
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	hooks.Install()

	return c.RootCommand().ExecuteContext(ctx)
}
