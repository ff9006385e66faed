package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks implements every hook interface by writing debug log lines.
// The CLI registers it when running with --verbose.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks writing to logger (log.Default() if nil).
func NewLogHooks(logger *log.Logger) *LogHooks {
	if logger == nil {
		logger = log.Default()
	}
	return &LogHooks{logger: logger.WithPrefix("hooks")}
}

func (h *LogHooks) OnResolve(_ context.Context, visible, hidden int, d time.Duration) {
	h.logger.Debug("resolve", "visible", visible, "hidden", hidden, "took", d)
}

func (h *LogHooks) OnLayoutStart(_ context.Context, engine string, nodeCount int) {
	h.logger.Debug("layout start", "engine", engine, "nodes", nodeCount)
}

func (h *LogHooks) OnLayoutComplete(_ context.Context, engine string, d time.Duration, err error) {
	h.logger.Debug("layout done", "engine", engine, "took", d, "err", err)
}

func (h *LogHooks) OnRenderStart(_ context.Context, renderer string) {
	h.logger.Debug("render start", "renderer", renderer)
}

func (h *LogHooks) OnRenderComplete(_ context.Context, renderer string, d time.Duration, err error) {
	h.logger.Debug("render done", "renderer", renderer, "took", d, "err", err)
}

func (h *LogHooks) OnLodChange(_ context.Context, lod int) {
	h.logger.Debug("lod", "level", lod)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, route string) {
	h.logger.Debug("request", "method", method, "route", route)
}

func (h *LogHooks) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	h.logger.Debug("response", "method", method, "route", route, "status", status, "took", d)
}

var (
	_ ViewerHooks = (*LogHooks)(nil)
	_ CacheHooks  = (*LogHooks)(nil)
	_ HTTPHooks   = (*LogHooks)(nil)
)
