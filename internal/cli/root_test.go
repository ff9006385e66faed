package cli

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/matzehuels/flowlens/pkg/buildinfo"
	"github.com/matzehuels/flowlens/pkg/observability"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()

	want := []string{"validate", "layout", "render", "view", "serve", "cache", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd == root {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestRootCommandPersistentFlags(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	for _, name := range []string{"config", "no-cache", "verbose"} {
		if root.PersistentFlags().Lookup(name) == nil {
			t.Errorf("persistent flag --%s missing", name)
		}
	}
}

func TestRootCommandVersion(t *testing.T) {
	old := buildinfo.Version
	buildinfo.Version = "v9.9.9"
	defer func() { buildinfo.Version = old }()

	root := New(io.Discard, LogInfo).RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--version"})
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if !strings.Contains(out.String(), "v9.9.9") {
		t.Errorf("version output = %q, want it to contain v9.9.9", out.String())
	}
}

func TestRootCommandVerbose(t *testing.T) {
	observability.Reset()
	defer observability.Reset()

	c, _ := newTestCLI(t)
	if _, err := execute(t, c, "validate", "--verbose", writeFile(t, "graph.json", groupJSON)); err != nil {
		t.Fatalf("validate error: %v", err)
	}
	if c.Logger.GetLevel() != LogDebug {
		t.Errorf("log level = %v, want debug", c.Logger.GetLevel())
	}
	if _, ok := observability.Viewer().(*observability.LogHooks); !ok {
		t.Errorf("viewer hooks = %T, want *LogHooks", observability.Viewer())
	}
}
