package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowlens/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the layout and artifact cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	var expired bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove cached layouts and artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCacheClear(cmd.Context(), expired)
		},
	}
	cmd.Flags().BoolVar(&expired, "expired", false, "only remove expired entries (file cache)")
	return cmd
}

func (c *CLI) runCacheClear(ctx context.Context, expired bool) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	store, err := c.newCache(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer store.Close()

	var remove func(context.Context) (int, error)
	if expired {
		if p, ok := store.(cache.Pruner); ok {
			remove = p.Prune
		}
	} else if cl, ok := store.(cache.Clearer); ok {
		remove = cl.Clear
	}
	if remove == nil {
		c.out.info("Nothing to clear for the %s cache", cfg.Cache.Backend)
		return nil
	}
	count, err := remove(ctx)
	if err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}

	c.out.success("Cleared %d cached entries", count)
	if fc, ok := store.(*cache.FileCache); ok {
		c.out.detail("Directory: %s", fc.Dir())
	} else {
		c.out.detail("Backend: %s", cfg.Cache.Backend)
	}
	return nil
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the file cache directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			dir, err := resolveCacheDir(cfg)
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}
