// Package cli implements the flowlens command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowlens/pkg/cache"
	"github.com/matzehuels/flowlens/pkg/config"
	"github.com/matzehuels/flowlens/pkg/layout"
	"github.com/matzehuels/flowlens/pkg/layout/graphviz"
	"github.com/matzehuels/flowlens/pkg/observability"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "flowlens"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	logOut io.Writer

	out console

	configPath string
	noCache    bool
	verbose    bool

	// newEngine builds the layout engine for a command.
	newEngine func(ctx context.Context) (layout.Engine, error)
}

// New creates a new CLI instance writing logs to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger:    newLogger(w, level),
		logOut:    w,
		out:       newConsole(os.Stdout),
		newEngine: graphvizEngine,
	}
}

// SetLogLevel updates the logger's level. At debug level the observability
// hooks are routed to the logger as well.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
	if level <= log.DebugLevel {
		hooks := observability.NewLogHooks(c.Logger)
		observability.SetViewerHooks(hooks)
		observability.SetCacheHooks(hooks)
		observability.SetHTTPHooks(hooks)
	}
}

func graphvizEngine(ctx context.Context) (layout.Engine, error) {
	return graphviz.New(ctx)
}

// closeEngine releases engines that hold resources, such as the graphviz
// runtime.
func closeEngine(e layout.Engine) {
	if cl, ok := e.(io.Closer); ok {
		_ = cl.Close()
	}
}

// =============================================================================
// Configuration
// =============================================================================

// loadConfig reads --config on top of the defaults and applies the
// environment overrides.
func (c *CLI) loadConfig() (config.Config, error) {
	cfg := config.Default()
	if c.configPath != "" {
		var err error
		if cfg, err = config.Load(c.configPath); err != nil {
			return config.Config{}, err
		}
		c.Logger.Debug("loaded config", "path", c.configPath)
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// =============================================================================
// Cache Factory
// =============================================================================

// newCache opens the layout cache selected by the configuration. --no-cache
// wins over everything.
func (c *CLI) newCache(ctx context.Context, cfg config.Config) (cache.Cache, error) {
	if c.noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Cache.Backend {
	case "none":
		return cache.NewNullCache(), nil
	case "redis":
		return cache.NewRedisCache(ctx, cache.RedisConfig{Addr: cfg.Cache.Redis})
	default:
		dir, err := resolveCacheDir(cfg)
		if err != nil {
			c.Logger.Warn("no cache directory, caching disabled", "err", err)
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(dir)
	}
}

// countingCache records hits and misses so commands can report whether
// their layout came from the cache.
type countingCache struct {
	cache.Cache
	hits, misses int
}

func (c *countingCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := c.Cache.Get(ctx, key)
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return data, ok, err
}

// cached reports whether every lookup so far was a hit.
func (c *countingCache) cached() bool {
	return c.hits > 0 && c.misses == 0
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/flowlens/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// resolveCacheDir prefers the configured directory over the XDG default.
func resolveCacheDir(cfg config.Config) (string, error) {
	if cfg.Cache.Dir != "" {
		return cfg.Cache.Dir, nil
	}
	return cacheDir()
}

// splitList parses a comma-separated flag value, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
