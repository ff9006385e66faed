package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowlens/internal/server"
	"github.com/matzehuels/flowlens/pkg/config"
	"github.com/matzehuels/flowlens/pkg/store"
)

// serveOpts holds the flags of the serve command. Empty values keep the
// configuration's [server] settings.
type serveOpts struct {
	addr     string
	store    string
	storeDir string
	ttl      time.Duration
}

// serveCommand creates the serve command running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve viewer sessions over HTTP",
		Long: `Serve viewer sessions over HTTP.

Clients create a session by posting a graph document to /graphs and then
toggle groups, zoom and modify the graph through the session's routes. Every
change is persisted to the configured store (memory, file or mongo), so
sessions survive restarts when a persistent store is used.

FLOWLENS_MONGO_URI selects the mongo store and FLOWLENS_REDIS_ADDR the redis
layout cache.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default: from config, :8080)")
	cmd.Flags().StringVar(&opts.store, "store", "", "session store: memory, file, mongo")
	cmd.Flags().StringVar(&opts.storeDir, "store-dir", "", "directory of the file store")
	cmd.Flags().DurationVar(&opts.ttl, "ttl", store.DefaultTTL, "idle time before a session expires")

	return cmd
}

// apply overrides the configuration's server settings with the flags.
func (o serveOpts) apply(cfg *config.Config) {
	if o.addr != "" {
		cfg.Server.Addr = o.addr
	}
	if o.store != "" {
		cfg.Server.Store = o.store
	}
	if o.storeDir != "" {
		cfg.Server.StoreDir = o.storeDir
	}
}

func (c *CLI) runServe(ctx context.Context, opts serveOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	opts.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	st, err := store.Open(ctx, cfg.Server)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	layouts, err := c.newCache(ctx, cfg)
	if err != nil {
		_ = st.Close()
		return fmt.Errorf("open cache: %w", err)
	}
	defer layouts.Close()
	engine, err := c.newEngine(ctx)
	if err != nil {
		_ = st.Close()
		return err
	}
	defer closeEngine(engine)

	srv, err := server.New(server.Options{
		Config: cfg,
		Engine: engine,
		Store:  st,
		Cache:  layouts,
		Logger: c.Logger,
		TTL:    opts.ttl,
	})
	if err != nil {
		_ = st.Close()
		return err
	}
	defer srv.Close()

	c.out.info("Serving on %s", StyleLink.Render("http://"+displayAddr(cfg.Server.Addr)))
	c.out.keyValue("Store", cfg.Server.Store)
	c.out.keyValue("Cache", cfg.Cache.Backend)
	if cfg.Server.Store == "memory" {
		c.out.warn("memory store: sessions are lost on exit")
	}

	sweepCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go c.sweep(sweepCtx, st)
	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}

// sweepInterval is how often expired sessions are removed from the store.
const sweepInterval = time.Hour

// sweep removes expired sessions until ctx is done.
func (c *CLI) sweep(ctx context.Context, st store.Store) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := st.Cleanup(ctx)
			if err != nil {
				c.Logger.Warn("session cleanup failed", "err", err)
				continue
			}
			if n > 0 {
				c.Logger.Info("expired sessions removed", "count", n)
			}
		}
	}
}

// displayAddr fills in a host for addresses like ":8080".
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
