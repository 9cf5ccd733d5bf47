package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/familymap/pkg/cache"
	"github.com/matzehuels/familymap/pkg/errors"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached layouts and renders",
	}
	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())
	return cmd
}

func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached layout and render",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.settings().CacheOptions()
			ch, err := cache.Open(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer ch.Close()

			clr, ok := ch.(cache.Clearer)
			if !ok {
				return errors.New(errors.ErrCodeUnsupported, "the %s cache backend cannot be cleared", opts.Backend)
			}
			n, err := clr.Clear(cmd.Context())
			if err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			printSuccess(c.Out, "Cleared %d cached entries", n)
			printDetail(c.Out, "Location: %s", cacheLocation(ch, opts))
			return nil
		},
	}
}

func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where the cache lives",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.settings().CacheOptions()
			if opts.Backend == cache.BackendFile {
				dir := opts.Dir
				if dir == "" {
					d, err := cache.DefaultDir()
					if err != nil {
						return fmt.Errorf("get cache dir: %w", err)
					}
					dir = d
				}
				fmt.Fprintln(c.Out, dir)
				return nil
			}
			fmt.Fprintln(c.Out, cacheLocation(nil, opts))
			return nil
		},
	}
}

// cacheLocation describes where entries of ch are stored.
func cacheLocation(ch cache.Cache, opts cache.Options) string {
	if fc, ok := ch.(*cache.FileCache); ok {
		return fc.Dir()
	}
	switch opts.Backend {
	case cache.BackendRedis:
		return opts.RedisURL + " (prefix " + opts.Prefix + ")"
	case cache.BackendFile:
		return opts.Dir
	}
	return "disabled"
}
