package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowlens/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
//
// Persistent flags:
//   - --config: TOML viewer configuration, defaults apply when omitted
//   - --no-cache: bypass the layout cache
//   - --verbose: debug logging, including the observability hooks
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Flowlens lays out and explores compound graphs",
		Long: `Flowlens lays out directed, optionally nested graphs with Graphviz dot and
lets you collapse groups, zoom through levels of detail, and export the result
as SVG, PDF, PNG or a positioned JSON layout.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			c.out = newConsole(cmd.OutOrStdout())
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "viewer configuration file (TOML)")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "disable the layout cache")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(c.validateCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.viewCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}
