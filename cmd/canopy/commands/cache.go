package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.trai.ch/canopy/internal/app"
	"go.trai.ch/canopy/internal/core/domain"
	"go.trai.ch/zerr"
)

func (c *CLI) newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the analysis cache",
	}
	cmd.AddCommand(c.newCachePruneCmd())
	cmd.AddCommand(c.newCacheCleanCmd())
	return cmd
}

func (c *CLI) newCachePruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune [root]",
		Short: "Remove cache records of files that no longer exist",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := cacheOptions(cmd)
			if err != nil {
				return err
			}
			n, err := c.app.PruneCache(cmd.Context(), rootArg(args), opts)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "pruned %d records\n", n)
			return nil
		},
	}
	addCacheFlags(cmd.Flags())
	return cmd
}

func (c *CLI) newCacheCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean [root]",
		Short: "Delete the cache database and its sibling files",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := cacheOptions(cmd)
			if err != nil {
				return err
			}
			n, err := c.app.CleanCache(cmd.Context(), rootArg(args), opts)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "removed %d files\n", n)
			return nil
		},
	}
	addCacheFlags(cmd.Flags())
	return cmd
}

func addCacheFlags(flags *pflag.FlagSet) {
	flags.String("cache-path", "", "Cache database location (default: <root>/"+domain.DefaultCacheFileName+")")
	flags.Int("cache-pool-size", domain.DefaultCachePoolSize, "Number of pooled cache connections")
}

func cacheOptions(cmd *cobra.Command) (app.CacheOptions, error) {
	overrides, err := cacheOverrides(cmd.Flags())
	if err != nil {
		return app.CacheOptions{}, err
	}
	configPath, _ := cmd.Flags().GetString("config")
	return app.CacheOptions{ConfigPath: configPath, Overrides: overrides}, nil
}

func cacheOverrides(flags *pflag.FlagSet) (app.Overrides, error) {
	var o app.Overrides
	if flags.Changed("cache-path") {
		path, _ := flags.GetString("cache-path")
		o.CachePath = &path
	}
	if flags.Changed("cache-pool-size") {
		size, _ := flags.GetInt("cache-pool-size")
		if size < 1 {
			return o, zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "--cache-pool-size must be positive"), "pool_size", size)
		}
		o.CachePoolSize = &size
	}
	return o, nil
}
