// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about document encoding, type resolution, and cache
// operations.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// [LogCodecHooks] and [LogCacheHooks] forward every event to a
// charmbracelet logger at debug level.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetCodecHooks(observability.LogCodecHooks{Logger: logger})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	start := time.Now()
//	data, err := encode(p)
//	observability.Codec().OnEncode(p.Prog, len(data), time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// =============================================================================
// Codec Hooks
// =============================================================================

// CodecHooks receives events from the document codec and type registry.
// Codec calls are synchronous and take no context.
type CodecHooks interface {
	// OnEncode records one grammar encoded into a document of size bytes.
	OnEncode(prog string, size int, duration time.Duration, err error)

	// OnDecode records one document decoded into a grammar.
	OnDecode(prog string, size int, duration time.Duration, err error)

	// OnResolve records one type reference resolution.
	OnResolve(typeName string, resolved bool, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, backend string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, backend string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, backend string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopCodecHooks is a no-op implementation of CodecHooks.
type NoopCodecHooks struct{}

func (NoopCodecHooks) OnEncode(string, int, time.Duration, error) {}
func (NoopCodecHooks) OnDecode(string, int, time.Duration, error) {}
func (NoopCodecHooks) OnResolve(string, bool, error)              {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Logging Implementations
// =============================================================================

// LogCodecHooks writes codec events to Logger at debug level.
type LogCodecHooks struct {
	Logger *log.Logger
}

func (h LogCodecHooks) OnEncode(prog string, size int, d time.Duration, err error) {
	h.Logger.Debug("encoded grammar", "prog", prog, "bytes", size, "duration", d, "err", err)
}

func (h LogCodecHooks) OnDecode(prog string, size int, d time.Duration, err error) {
	h.Logger.Debug("decoded grammar", "prog", prog, "bytes", size, "duration", d, "err", err)
}

func (h LogCodecHooks) OnResolve(typeName string, resolved bool, err error) {
	h.Logger.Debug("resolved type", "type", typeName, "ok", resolved, "err", err)
}

// LogCacheHooks writes cache events to Logger at debug level.
type LogCacheHooks struct {
	Logger *log.Logger
}

func (h LogCacheHooks) OnCacheHit(_ context.Context, backend string) {
	h.Logger.Debug("cache hit", "backend", backend)
}

func (h LogCacheHooks) OnCacheMiss(_ context.Context, backend string) {
	h.Logger.Debug("cache miss", "backend", backend)
}

func (h LogCacheHooks) OnCacheSet(_ context.Context, backend string, size int) {
	h.Logger.Debug("cache set", "backend", backend, "bytes", size)
}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	codecHooks CodecHooks = NoopCodecHooks{}
	cacheHooks CacheHooks = NoopCacheHooks{}
	hooksMu    sync.RWMutex
)

// SetCodecHooks registers custom codec hooks.
// This should be called once at application startup before any codec operations.
func SetCodecHooks(h CodecHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		codecHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Codec returns the registered codec hooks.
func Codec() CodecHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return codecHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	codecHooks = NoopCodecHooks{}
	cacheHooks = NoopCacheHooks{}
}
