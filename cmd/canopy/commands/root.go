// Package commands implements the CLI commands for canopy.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/canopy/internal/app"
	"go.trai.ch/canopy/internal/build"
	"go.trai.ch/canopy/internal/core/domain"
)

// CLI represents the command line interface for canopy.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
	cleanup func(context.Context) error
}

// Application represents the application logic interface.
type Application interface {
	Setup(opts app.LogOptions) (func(context.Context) error, error)
	Scan(ctx context.Context, root string, opts app.ScanOptions) (*domain.ScanResult, error)
	PruneCache(ctx context.Context, root string, opts app.CacheOptions) (int, error)
	CleanCache(ctx context.Context, root string, opts app.CacheOptions) (int, error)
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	rootCmd := &cobra.Command{
		Use:           "canopy",
		Short:         "Scan a directory tree into a structured, cached report",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	// -v is taken by --verbose, so --version has no shorthand.
	rootCmd.Flags().Bool("version", false, "Print the application version")
	rootCmd.InitDefaultVersionFlag()

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (default: .canopy.yaml in the scan root)")
	flags.String("log-format", "auto", "Log format: auto, pretty, or json")
	flags.BoolP("verbose", "v", false, "Enable debug logging")
	flags.String("log-file", "", "Append a plain-text copy of the log to this file")
	flags.String("trace-file", "", "Write OpenTelemetry spans as JSON to this file")
	rootCmd.PersistentPreRunE = c.setup

	rootCmd.AddCommand(c.newScanCmd())
	rootCmd.AddCommand(c.newCacheCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

func (c *CLI) setup(cmd *cobra.Command, _ []string) error {
	format, _ := cmd.Flags().GetString("log-format")
	verbose, _ := cmd.Flags().GetBool("verbose")
	logFile, _ := cmd.Flags().GetString("log-file")
	traceFile, _ := cmd.Flags().GetString("trace-file")

	cleanup, err := c.app.Setup(app.LogOptions{
		Format:    format,
		Verbose:   verbose,
		File:      logFile,
		TraceFile: traceFile,
	})
	if err != nil {
		return err
	}
	c.cleanup = cleanup
	return nil
}

// Execute runs the root command with the given context and releases
// whatever the command set up.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	err := c.rootCmd.Execute()
	if c.cleanup != nil {
		err = errors.Join(err, c.cleanup(context.WithoutCancel(ctx)))
		c.cleanup = nil
	}
	return err
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

// rootArg returns the scan root given on the command line, or the working directory.
func rootArg(args []string) string {
	if len(args) == 0 {
		return "."
	}
	return args[0]
}
