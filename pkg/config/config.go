// Package config holds the viewer configuration.
//
// Configuration is read from TOML:
//
//	lod = 1
//	log = true
//	zoom = [0.1, 1, 2]
//
//	[node]
//	width = 125
//	height = 40
//
//	[port]
//	width = 8
//	height = 8
//
//	[map]
//	width = 200
//	height = 150
//
//	[drawing]
//	node = "rounded"
//
//	[layout]
//	rankdir = "LR"
//
// Missing values take the defaults from [Default]. [Config.Validate] checks
// the file on its own; [Config.ValidateFor] additionally checks it against a
// graph (port sizes are required once any node declares ports).
package config

import (
	"bytes"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/flowlens/pkg/errors"
	"github.com/matzehuels/flowlens/pkg/graph"
	"github.com/matzehuels/flowlens/pkg/lod"
)

// Default sizes in pixels.
const (
	DefaultNodeWidth  = 125
	DefaultNodeHeight = 40
	DefaultEngine     = "dot"
	DefaultRankDir    = "TB"
)

// Environment variables read by [Config.ApplyEnv].
const (
	EnvRedisAddr = "FLOWLENS_REDIS_ADDR"
	EnvMongoURI  = "FLOWLENS_MONGO_URI"
	EnvCacheDir  = "FLOWLENS_CACHE_DIR"
)

// Size is a width and height in pixels.
type Size struct {
	Width  float64 `toml:"width" json:"width"`
	Height float64 `toml:"height" json:"height"`
}

// Drawing names the drawing hooks handed to the renderer. Names are looked up
// in the renderer's hook table; the core never interprets them.
type Drawing struct {
	Node     string `toml:"node,omitempty" json:"node,omitempty"`
	Group    string `toml:"group,omitempty" json:"group,omitempty"`
	Ports    string `toml:"ports,omitempty" json:"ports,omitempty"`
	NodeEdge string `toml:"node_edge,omitempty" json:"node_edge,omitempty"`
	PortEdge string `toml:"port_edge,omitempty" json:"port_edge,omitempty"`
	Minimap  string `toml:"minimap,omitempty" json:"minimap,omitempty"`
}

// Layout configures the layered layout engine.
type Layout struct {
	Engine  string  `toml:"engine" json:"engine"`
	RankDir string  `toml:"rankdir" json:"rankdir"`
	NodeSep float64 `toml:"nodesep,omitempty" json:"nodesep,omitempty"` // inches, engine default if zero
	RankSep float64 `toml:"ranksep,omitempty" json:"ranksep,omitempty"`
}

// Cache selects the layout cache backend.
type Cache struct {
	Backend string `toml:"backend" json:"backend"` // "file", "redis" or "none"
	Dir     string `toml:"dir,omitempty" json:"dir,omitempty"`
	Redis   string `toml:"redis,omitempty" json:"redis,omitempty"`
	TTL     string `toml:"ttl,omitempty" json:"ttl,omitempty"` // Go duration, e.g. "24h"
}

// TTLDuration returns the parsed TTL, zero when unset or malformed.
func (c Cache) TTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.TTL)
	return d
}

// Server configures `flowlens serve`.
type Server struct {
	Addr     string `toml:"addr" json:"addr"`
	Store    string `toml:"store" json:"store"` // "memory", "file" or "mongo"
	StoreDir string `toml:"store_dir,omitempty" json:"store_dir,omitempty"`
	MongoURI string `toml:"mongo_uri,omitempty" json:"mongo_uri,omitempty"`
	Database string `toml:"database,omitempty" json:"database,omitempty"`
}

// Config is the complete viewer configuration.
type Config struct {
	Node      Size      `toml:"node" json:"node"`
	Port      *Size     `toml:"port,omitempty" json:"port,omitempty"`
	Zoom      []float64 `toml:"zoom" json:"zoom"`
	Map       *Size     `toml:"map,omitempty" json:"map,omitempty"`
	Drawing   Drawing   `toml:"drawing" json:"drawing"`
	LOD       int       `toml:"lod" json:"lod"`
	Log       bool      `toml:"log" json:"log"`
	PortGraph *bool     `toml:"port_graph,omitempty" json:"port_graph,omitempty"`

	Layout Layout `toml:"layout" json:"layout"`
	Cache  Cache  `toml:"cache" json:"cache"`
	Server Server `toml:"server" json:"server"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Node: Size{Width: DefaultNodeWidth, Height: DefaultNodeHeight},
		Zoom: slices.Clone(lod.DefaultZoom),
		LOD:  lod.DefaultLevel,
		Layout: Layout{
			Engine:  DefaultEngine,
			RankDir: DefaultRankDir,
		},
		Cache:  Cache{Backend: "file"},
		Server: Server{Addr: ":8080", Store: "memory", Database: "flowlens"},
	}
}

// Load reads a TOML file on top of the defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	return Parse(data)
}

// Parse decodes TOML bytes on top of the defaults.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&cfg)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, errors.Structural(errors.ErrCodeInvalidConfig, errors.EntityConfig, keys[0],
			"unknown config keys: %s", strings.Join(keys, ", "))
	}
	return cfg, nil
}

// ApplyEnv overrides backend settings from the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvRedisAddr); v != "" {
		c.Cache.Redis = v
		c.Cache.Backend = "redis"
	}
	if v := os.Getenv(EnvMongoURI); v != "" {
		c.Server.MongoURI = v
		c.Server.Store = "mongo"
	}
	if v := os.Getenv(EnvCacheDir); v != "" {
		c.Cache.Dir = v
	}
}

// Validate checks the configuration on its own. All failures are structural
// INVALID_* errors.
func (c *Config) Validate() error {
	if err := lod.ValidateZoom(c.Zoom); err != nil {
		return err
	}
	if err := validSize("node", &c.Node); err != nil {
		return err
	}
	if c.Port != nil {
		if err := validSize("port", c.Port); err != nil {
			return err
		}
	}
	if c.Map != nil {
		if err := validSize("map", c.Map); err != nil {
			return err
		}
	}
	if c.LOD < 0 {
		return errors.Structural(errors.ErrCodeInvalidConfig, errors.EntityConfig, "lod", "lod must not be negative, got %d", c.LOD)
	}
	if !slices.Contains([]string{"TB", "LR", "BT", "RL"}, c.Layout.RankDir) {
		return errors.Structural(errors.ErrCodeInvalidConfig, errors.EntityConfig, "layout.rankdir",
			"rankdir must be TB, LR, BT or RL, got %q", c.Layout.RankDir)
	}
	if err := errors.ValidateFormat(c.Cache.Backend, "file", "redis", "none"); err != nil {
		return errors.Structural(errors.ErrCodeInvalidConfig, errors.EntityConfig, "cache.backend", "%s", errors.UserMessage(err))
	}
	if c.Cache.TTL != "" {
		if d, err := time.ParseDuration(c.Cache.TTL); err != nil || d < 0 {
			return errors.Structural(errors.ErrCodeInvalidConfig, errors.EntityConfig, "cache.ttl",
				"cache ttl must be a non-negative duration, got %q", c.Cache.TTL)
		}
	}
	if err := errors.ValidateFormat(c.Server.Store, "memory", "file", "mongo"); err != nil {
		return errors.Structural(errors.ErrCodeInvalidConfig, errors.EntityConfig, "server.store", "%s", errors.UserMessage(err))
	}
	return nil
}

// ValidateFor validates the configuration and checks it against a graph.
func (c *Config) ValidateFor(m *graph.Model) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Port != nil {
		return nil
	}
	for _, n := range m.Nodes() {
		if n.HasPorts() {
			return errors.Structural(errors.ErrCodeInvalidConfig, errors.EntityConfig, "port",
				"node %s declares ports but no port size is configured", n.Describe())
		}
	}
	return nil
}

func validSize(name string, s *Size) error {
	if s.Width <= 0 || s.Height <= 0 {
		return errors.Structural(errors.ErrCodeInvalidConfig, errors.EntityConfig, name,
			"%s size must be positive, got %gx%g", name, s.Width, s.Height)
	}
	return nil
}
