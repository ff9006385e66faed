package cli

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowlens/pkg/graph"
)

// completionGenerators writes the completion script of each supported shell.
var completionGenerators = map[string]func(root *cobra.Command, w io.Writer) error{
	"bash":       func(root *cobra.Command, w io.Writer) error { return root.GenBashCompletionV2(w, true) },
	"zsh":        func(root *cobra.Command, w io.Writer) error { return root.GenZshCompletion(w) },
	"fish":       func(root *cobra.Command, w io.Writer) error { return root.GenFishCompletion(w, true) },
	"powershell": func(root *cobra.Command, w io.Writer) error { return root.GenPowerShellCompletionWithDesc(w) },
}

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for flowlens.

Graph arguments complete to .json and .yaml files, and --reduce/--expand
complete to the group ids of the graph named on the command line.

  $ source <(flowlens completion bash)
  $ flowlens completion zsh > "${fpath[1]}/_flowlens"
  $ flowlens completion fish | source
  PS> flowlens completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return completionGenerators[args[0]](cmd.Root(), cmd.OutOrStdout())
		},
	}
}

// completeGraphFile limits the single positional argument to graph documents.
func completeGraphFile(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return []string{"json", "yaml", "yml"}, cobra.ShellCompDirectiveFilterFileExt
}

// completeGroups offers the group ids of the graph in args[0] for a
// comma-separated flag value. Ids already listed are not offered again.
func completeGroups(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	doc, err := graph.ReadDocumentFile(args[0])
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	m, err := graph.FromDocument(doc)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	prefix := ""
	if i := strings.LastIndex(toComplete, ","); i >= 0 {
		prefix = toComplete[:i+1]
	}
	taken := make(map[string]bool)
	for _, id := range splitList(prefix) {
		taken[id] = true
	}

	var out []string
	for _, n := range m.Nodes() {
		if n.IsGroup() && !taken[n.ID] {
			out = append(out, prefix+n.ID)
		}
	}
	return out, cobra.ShellCompDirectiveNoSpace | cobra.ShellCompDirectiveNoFileComp
}
