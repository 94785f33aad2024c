package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.trai.ch/canopy/internal/adapters/config"
	"go.trai.ch/canopy/internal/app"
	"go.trai.ch/canopy/internal/core/domain"
	"go.trai.ch/zerr"
)

func (c *CLI) newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [root]",
		Short: "Scan a directory and write its structure report",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides, err := scanOverrides(cmd.Flags())
			if err != nil {
				return err
			}
			configPath, _ := cmd.Flags().GetString("config")

			_, err = c.app.Scan(cmd.Context(), rootArg(args), app.ScanOptions{
				ConfigPath: configPath,
				Overrides:  overrides,
				Stdout:     cmd.OutOrStdout(),
			})
			return err
		},
	}

	flags := cmd.Flags()
	flags.String("hash-algorithm", string(domain.HashMD5), "Hash algorithm: none, md5, sha1, sha256, sha512, or xxh64")
	flags.Bool("no-hash", false, "Do not hash file contents (same as --hash-algorithm=none)")
	flags.String("max-size", "50MiB", "Largest file whose content is captured, e.g. 1048576 or 10MiB")
	flags.Bool("include-binary", false, "Capture binary content as base64")
	flags.Bool("follow-symlinks", false, "Follow symbolic links")
	flags.Int("threads", domain.DefaultThreads(), "Number of analysis workers")
	flags.String("encoding", domain.DefaultEncoding, "Encoding assumed for text that is not valid UTF-8")
	flags.StringSlice("exclude-folders", nil, "Additional folder names to exclude")
	flags.StringSlice("exclude-files", nil, "Additional file names to exclude")
	flags.StringSlice("exclude-patterns", nil, `Additional glob patterns, or "regex:" expressions, to exclude`)
	flags.StringSlice("image-extensions", nil, "Additional extensions always treated as binary images")
	flags.Bool("gitignore", false, "Respect .gitignore files")
	flags.String("order", string(domain.OrderDFS), "Traversal order: dfs or bfs")
	flags.StringP("format", "f", string(domain.FormatJSON), "Output format: json, ndjson, yaml, xml, csv, dot, msgpack, or sexp")
	flags.StringP("output", "o", "", `Output file, or "-" for stdout (default: repository_structure.<format>)`)
	flags.Bool("include-summary", false, "Append a summary to the report")
	addCacheFlags(flags)
	flags.Bool("no-cache", false, "Bypass the analysis cache")
	flags.Bool("no-prune", false, "Keep cache records of files that no longer exist")

	return cmd
}

// scanOverrides collects the flags the user set explicitly.
//
//nolint:cyclop,gocognit // one branch per flag
func scanOverrides(flags *pflag.FlagSet) (app.Overrides, error) {
	o, err := cacheOverrides(flags)
	if err != nil {
		return o, err
	}

	if flags.Changed("hash-algorithm") {
		name, _ := flags.GetString("hash-algorithm")
		algo, err := domain.ParseHashAlgorithm(name)
		if err != nil {
			return o, err
		}
		o.HashAlgorithm = &algo
	}
	if noHash, _ := flags.GetBool("no-hash"); noHash {
		algo := domain.HashNone
		o.HashAlgorithm = &algo
	}
	if flags.Changed("max-size") {
		value, _ := flags.GetString("max-size")
		size, err := config.ParseSize(value)
		if err != nil {
			return o, err
		}
		o.MaxSize = &size
	}
	o.IncludeBinary = changedBool(flags, "include-binary")
	o.FollowSymlinks = changedBool(flags, "follow-symlinks")
	if flags.Changed("threads") {
		threads, _ := flags.GetInt("threads")
		if threads < 1 {
			return o, zerr.With(zerr.Wrap(domain.ErrInvalidConfig, "--threads must be positive"), "threads", threads)
		}
		o.Threads = &threads
	}
	if flags.Changed("encoding") {
		encoding, _ := flags.GetString("encoding")
		o.Encoding = &encoding
	}
	o.ExcludeFolders = changedSlice(flags, "exclude-folders")
	o.ExcludeFiles = changedSlice(flags, "exclude-files")
	o.ExcludePatterns = changedSlice(flags, "exclude-patterns")
	o.ImageExtensions = changedSlice(flags, "image-extensions")
	o.RespectGitignore = changedBool(flags, "gitignore")
	if flags.Changed("order") {
		name, _ := flags.GetString("order")
		order, err := domain.ParseTraversalOrder(name)
		if err != nil {
			return o, err
		}
		o.Order = &order
	}
	if flags.Changed("format") {
		name, _ := flags.GetString("format")
		format, err := domain.ParseFormat(name)
		if err != nil {
			return o, err
		}
		o.Format = &format
	}
	if flags.Changed("output") {
		output, _ := flags.GetString("output")
		o.OutputPath = &output
	}
	o.Summary = changedBool(flags, "include-summary")
	if noCache, _ := flags.GetBool("no-cache"); noCache {
		enabled := false
		o.CacheEnabled = &enabled
	}
	if noPrune, _ := flags.GetBool("no-prune"); noPrune {
		prune := false
		o.Prune = &prune
	}
	return o, nil
}

func changedBool(flags *pflag.FlagSet, name string) *bool {
	if !flags.Changed(name) {
		return nil
	}
	v, _ := flags.GetBool(name)
	return &v
}

func changedSlice(flags *pflag.FlagSet, name string) []string {
	if !flags.Changed(name) {
		return nil
	}
	v, _ := flags.GetStringSlice(name)
	return v
}
