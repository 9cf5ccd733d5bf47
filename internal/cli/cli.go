// Package cli implements the familymap command-line interface.
//
// Commands operate on family documents (JSON, YAML or TOML, chosen by file
// extension) and share one logger, one loaded configuration and one pipeline
// runner per invocation.
//
// # Commands
//
//   - new, check: create and validate documents
//   - layout, render: run the layout pipeline and write artifacts
//   - person, connect, cycle: edit a document from the shell
//   - edit: interactive terminal editor
//   - serve: HTTP API
//   - cache, config, completion: housekeeping
//
// All commands accept --verbose (-v) for debug logging and --config to read
// a config file other than the default.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/familymap/pkg/buildinfo"
	"github.com/matzehuels/familymap/pkg/cache"
	"github.com/matzehuels/familymap/pkg/config"
	"github.com/matzehuels/familymap/pkg/family"
	"github.com/matzehuels/familymap/pkg/layout"
	"github.com/matzehuels/familymap/pkg/pipeline"
)

const appName = "familymap"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Out receives command output. Status lines and spinners go to the
	// logger's writer.
	Out io.Writer

	configPath string
	verbose    bool
	cfg        *config.Config
	ids        family.IDGenerator
}

// New creates a CLI logging to w at level.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level), Out: os.Stdout}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Lay out and render family diagrams",
		Long: `familymap edits genealogy diagrams of persons and unions, lays them out in
generations and renders them to SVG, PNG or PDF.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.SetOut(c.Out)
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/familymap/config.toml)")

	root.AddCommand(c.newCommand())
	root.AddCommand(c.checkCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.personCommand())
	root.AddCommand(c.connectCommand())
	root.AddCommand(c.cycleCommand())
	root.AddCommand(c.editCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// settings returns the loaded configuration, or the defaults before
// PersistentPreRunE has run.
func (c *CLI) settings() *config.Config {
	if c.cfg == nil {
		return config.Default()
	}
	return c.cfg
}

// =============================================================================
// Runner Factory
// =============================================================================

// newEngine builds a layout engine for solver, falling back to the
// configured solver when empty.
func (c *CLI) newEngine(solver string) (*layout.Engine, error) {
	if solver == "" {
		solver = c.settings().Layout.Solver
	}
	s, err := layout.NewSolver(solver)
	if err != nil {
		return nil, err
	}
	return layout.NewEngine(s, c.Logger), nil
}

// newCache opens the configured cache backend. An unreachable backend is
// logged and replaced by the null cache.
func (c *CLI) newCache(ctx context.Context, noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	ch, err := cache.Open(ctx, c.settings().CacheOptions())
	if err != nil {
		c.Logger.Warn("cache disabled", "backend", c.settings().Cache.Backend, "err", err)
		return cache.NewNullCache()
	}
	return ch
}

// newRunner creates a pipeline runner. Callers close runner.Cache.
func (c *CLI) newRunner(ctx context.Context, solver string, noCache bool) (*pipeline.Runner, error) {
	engine, err := c.newEngine(solver)
	if err != nil {
		return nil, err
	}
	r := pipeline.NewRunner(c.newCache(ctx, noCache), c.settings().Keyer(), engine, c.Logger)
	if ttl := c.settings().Cache.TTL.Duration; ttl > 0 {
		r.TTL = ttl
	}
	return r, nil
}

// policyOrDefault returns p, or the configured policy when p is empty.
func (c *CLI) policyOrDefault(p string) string {
	if p == "" {
		return c.settings().Layout.Policy
	}
	return p
}
