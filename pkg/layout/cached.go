package layout

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowlens/pkg/cache"
	"github.com/matzehuels/flowlens/pkg/observability"
)

// CachedEngine wraps an engine with a response cache. Requests are keyed by
// the hash of their JSON encoding, so identical reduced graphs reuse the
// previous layout.
//
// Cache failures never fail a layout: read errors fall through to the engine
// and write errors are logged.
type CachedEngine struct {
	Engine Engine
	Cache  cache.Cache
	Keyer  cache.Keyer
	TTL    time.Duration
	Logger *log.Logger
}

// NewCachedEngine wraps e. A nil cache disables caching, a nil keyer uses
// the default key space.
func NewCachedEngine(e Engine, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *CachedEngine {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &CachedEngine{Engine: e, Cache: c, Keyer: keyer, TTL: cache.TTLLayout, Logger: logger}
}

// Name returns the wrapped engine's name.
func (c *CachedEngine) Name() string { return c.Engine.Name() }

// Layout returns a cached response or runs the wrapped engine.
func (c *CachedEngine) Layout(ctx context.Context, req *Request) (*Response, error) {
	hash, err := cache.HashJSON(req)
	if err != nil {
		return c.Engine.Layout(ctx, req)
	}
	key := c.Keyer.LayoutKey(hash, cache.LayoutKeyOpts{Engine: c.Engine.Name(), RankDir: req.RankDir})

	if cached, hit, err := c.Cache.Get(ctx, key); err != nil {
		c.Logger.Warn("layout cache read failed", "err", err)
	} else if hit {
		var resp Response
		if err := json.Unmarshal(cached, &resp); err == nil {
			observability.Cache().OnCacheHit(ctx, "layout")
			return &resp, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, "layout")

	resp, err := c.Engine.Layout(ctx, req)
	if err != nil {
		return nil, err
	}

	if out, err := json.Marshal(resp); err == nil {
		if err := c.Cache.Set(ctx, key, out, c.TTL); err != nil {
			c.Logger.Warn("layout cache write failed", "err", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "layout", len(out))
		}
	}
	return resp, nil
}

var _ Engine = (*CachedEngine)(nil)
