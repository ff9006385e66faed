// Package observability lets the viewer, the caches and the HTTP server
// report events without depending on a metrics or tracing backend.
//
// Each event category has a hook interface with a no-op default. A binary
// registers its implementations once at startup, for example the
// logger-backed [LogHooks] that flowlens --verbose installs:
//
//	hooks := observability.NewLogHooks(logger)
//	observability.SetViewerHooks(hooks)
//	observability.SetCacheHooks(hooks)
//
// Instrumented code reads the current hooks at the call site:
//
//	observability.Viewer().OnLayoutStart(ctx, "dot", len(req.Nodes))
//	observability.Viewer().OnLayoutComplete(ctx, "dot", time.Since(start), err)
package observability

import (
	"context"
	"sync/atomic"
	"time"
)

// =============================================================================
// Viewer Hooks
// =============================================================================

// ViewerHooks receives events from the resolve, layout and render cycle.
type ViewerHooks interface {
	// OnResolve records a view resolution.
	OnResolve(ctx context.Context, visible, hidden int, duration time.Duration)

	// Layout events
	OnLayoutStart(ctx context.Context, engine string, nodeCount int)
	OnLayoutComplete(ctx context.Context, engine string, duration time.Duration, err error)

	// Render events
	OnRenderStart(ctx context.Context, renderer string)
	OnRenderComplete(ctx context.Context, renderer string, duration time.Duration, err error)

	// OnLodChange records a level-of-detail transition.
	OnLodChange(ctx context.Context, lod int)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the HTTP API server.
type HTTPHooks interface {
	// OnRequest records an incoming request.
	OnRequest(ctx context.Context, method, route string)

	// OnResponse records the response sent for a request.
	OnResponse(ctx context.Context, method, route string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopViewerHooks is a no-op implementation of ViewerHooks.
type NoopViewerHooks struct{}

func (NoopViewerHooks) OnResolve(context.Context, int, int, time.Duration)             {}
func (NoopViewerHooks) OnLayoutStart(context.Context, string, int)                     {}
func (NoopViewerHooks) OnLayoutComplete(context.Context, string, time.Duration, error) {}
func (NoopViewerHooks) OnRenderStart(context.Context, string)                          {}
func (NoopViewerHooks) OnRenderComplete(context.Context, string, time.Duration, error) {}
func (NoopViewerHooks) OnLodChange(context.Context, int)                               {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Registry
// =============================================================================

// slot holds one registered hook set. A nil slot reads as def.
type slot[T any] struct {
	p   atomic.Pointer[T]
	def T
}

func (s *slot[T]) get() T {
	if p := s.p.Load(); p != nil {
		return *p
	}
	return s.def
}

func (s *slot[T]) set(h T) {
	if any(h) != nil {
		s.p.Store(&h)
	}
}

var (
	viewerHooks = slot[ViewerHooks]{def: NoopViewerHooks{}}
	cacheHooks  = slot[CacheHooks]{def: NoopCacheHooks{}}
	httpHooks   = slot[HTTPHooks]{def: NoopHTTPHooks{}}
)

// SetViewerHooks registers viewer hooks. A nil h is ignored.
func SetViewerHooks(h ViewerHooks) { viewerHooks.set(h) }

// SetCacheHooks registers cache hooks. A nil h is ignored.
func SetCacheHooks(h CacheHooks) { cacheHooks.set(h) }

// SetHTTPHooks registers HTTP hooks. A nil h is ignored.
func SetHTTPHooks(h HTTPHooks) { httpHooks.set(h) }

// Viewer returns the registered viewer hooks.
func Viewer() ViewerHooks { return viewerHooks.get() }

// Cache returns the registered cache hooks.
func Cache() CacheHooks { return cacheHooks.get() }

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks { return httpHooks.get() }

// Reset restores the no-op hooks.
func Reset() {
	viewerHooks.p.Store(nil)
	cacheHooks.p.Store(nil)
	httpHooks.p.Store(nil)
}
