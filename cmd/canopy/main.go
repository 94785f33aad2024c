// Package main is the entry point for canopy.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/grindlemire/graft"
	"go.trai.ch/canopy/cmd/canopy/commands"
	"go.trai.ch/canopy/internal/app"
	_ "go.trai.ch/canopy/internal/wiring"
)

// componentProvider builds the application components.
type componentProvider func(ctx context.Context) (*app.Components, error)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr, executeGraph))
}

func executeGraph(ctx context.Context) (*app.Components, error) {
	components, _, err := graft.ExecuteFor[*app.Components](ctx)
	return components, err
}

func run(args []string, stderr io.Writer, provide componentProvider) int {
	// 0. Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// 1. Initialize application components
	components, err := provide(ctx)
	if err != nil {
		// Logger is not available yet if initialization failed
		_, _ = io.WriteString(stderr, "Error: "+err.Error()+"\n")
		return 1
	}

	// 2. Interface - CLI
	cli := commands.New(components.App)
	cli.SetArgs(args)

	// 3. Execution
	if err := cli.Execute(ctx); err != nil {
		components.Logger.Error(err)
		return 1
	}
	return 0
}
