// Package cli provides the briefdash command-line interface: serving the
// gateway, triggering snapshot refreshes and running diagnostics.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/briefdash-labs/briefdash/internal/config"
)

// Exit codes.
const (
	ExitSuccess  = 0
	ExitConfig   = 1
	ExitRuntime  = 2
	ExitInternal = 4
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// CLI holds the command-line interface state.
type CLI struct {
	rootCmd *cobra.Command
	cfg     *config.Config

	// Global flags
	configPath string
	jsonOutput bool
	quiet      bool
}

// New creates a new CLI instance.
func New() *CLI {
	cli := &CLI{}
	cli.rootCmd = cli.newRootCmd()
	return cli
}

// Execute runs the CLI.
func (c *CLI) Execute() int {
	if err := c.rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "briefdash: %v\n", err)
		return ExitInternal
	}
	return ExitSuccess
}

func (c *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "briefdash",
		Short: "Briefdash - cost-controlled KPI query gateway",
		Long: `Briefdash serves the Weekly Brief KPI dashboard: it runs parameterized
SQL against the recruitment warehouse behind a dry-run cost gate, reshapes
the results into year-aligned chart series, and caches the latest snapshot
per metric family.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.initConfig()
		},
	}

	cmd.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: ~/.briefdash/config.yaml)")
	cmd.PersistentFlags().BoolVar(&c.jsonOutput, "json", false, "machine-readable JSON output")
	cmd.PersistentFlags().BoolVar(&c.quiet, "quiet", false, "suppress non-essential output")

	cmd.AddCommand(c.newServeCmd())
	cmd.AddCommand(c.newRefreshCmd())
	cmd.AddCommand(c.newDoctorCmd())
	cmd.AddCommand(c.newVersionCmd())

	return cmd
}

func (c *CLI) initConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg
	return nil
}

func (c *CLI) println(args ...interface{}) {
	if c.quiet {
		return
	}
	fmt.Println(args...)
}

func (c *CLI) printf(format string, args ...interface{}) {
	if c.quiet {
		return
	}
	fmt.Printf(format, args...)
}

func (c *CLI) outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
