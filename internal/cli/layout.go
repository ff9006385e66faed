package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowlens/pkg/graph"
)

// layoutCommand creates the layout command for computing positioned layouts.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output string
		state  stateFlags
	)

	cmd := &cobra.Command{
		Use:   "layout [graph]",
		Short: "Compute a positioned layout of a graph",
		Long: `Compute a positioned layout of a graph.

The layout command resolves which nodes are visible for the requested group
views, lays the reduced graph out with Graphviz dot and writes the visible
sets, frame size and coordinates as JSON (same format as 'render -f json').

Layouts are cached, so re-running with an unchanged visible graph is instant.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeGraphFile,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], output, &state)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	state.register(cmd)

	return cmd
}

// runLayout loads the graph, computes the layout, and writes output.
func (c *CLI) runLayout(ctx context.Context, input, output string, state *stateFlags) error {
	done := c.timed("Laid out graph")
	spinner := c.spinner(ctx, "Computing layout...")
	spinner.Start()

	ws, err := c.open(ctx, input, state, nil)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("layout %s: %w", input, err)
	}
	defer ws.Close()
	spinner.StopWithSuccess("Layout complete")

	if ctx.Err() != nil {
		return ctx.Err()
	}
	l := ws.viewer.Export()
	done("visible", len(l.Nodes), "lod", l.LOD)

	outputPath := output
	if outputPath == "" {
		outputPath = basePath(input) + ".layout.json"
	}
	if err := graph.WriteLayoutFile(l, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	c.out.file(outputPath)
	c.out.stats(statsOf(l, ws.layouts.cached()))
	c.out.nextStep("Render", "flowlens render "+input)

	return nil
}
