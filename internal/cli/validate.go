package cli

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowlens/pkg/graph"
	"github.com/matzehuels/flowlens/pkg/view"
)

// validateCommand creates the validate command. It checks a document and
// the configuration without running the layout engine.
func (c *CLI) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [graph]",
		Short: "Check a graph document against the configuration",
		Long: `Check a graph document (JSON or YAML) against the configuration.

Ids must be unique, every edge must reference existing nodes and ports, every
node may sit in at most one group, and nodes with ports need a [port] size in
the configuration. The first violation is reported with the offending id.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeGraphFile,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runValidate(cmd.Context(), args[0])
		},
	}
}

func (c *CLI) runValidate(_ context.Context, input string) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	m, err := graph.LoadModelFile(input)
	if err != nil {
		return err
	}
	if cfg.PortGraph != nil {
		m.SetPortGraph(*cfg.PortGraph)
	}
	if err := cfg.ValidateFor(m); err != nil {
		return err
	}

	res := view.Resolve(m)
	c.out.success("%s is valid", input)
	c.out.keyValue("Nodes", strconv.Itoa(m.NodeCount()))
	c.out.keyValue("Edges", strconv.Itoa(m.EdgeCount()))
	c.out.keyValue("Groups", strconv.Itoa(m.GroupCount()))
	c.out.keyValue("Depth", strconv.Itoa(m.Depth()))
	c.out.keyValue("Port graph", strconv.FormatBool(m.IsPortGraph()))
	c.out.keyValue("Visible", strconv.Itoa(len(res.VisibleNodes))+" nodes, "+strconv.Itoa(len(res.VisibleEdges))+" edges")
	return nil
}
