package wasm

import (
	"context"
	"fmt"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"
)

// Runtime manages the wazero runtime lifecycle. One Runtime serves the whole
// process: it compiles engine binaries once, caches the results, and tracks
// live instances so shutdown can release them in order.
type Runtime struct {
	// wazero runtime shared by every compiled module and instance.
	runtime wazero.Runtime

	// Persistent compilation cache, nil when caching is in-memory only.
	cache wazero.CompilationCache

	// Compiled module cache (key: module name -> value: *CompiledModule).
	// Compiling an engine binary is expensive; it happens once per name.
	modules sync.Map

	// Active instances (key: instance ID -> value: *Instance), closed on
	// shutdown in case a session leaked one.
	instances sync.Map

	config *RuntimeConfig
	logger *zap.Logger

	closeOnce sync.Once
	closed    chan struct{}
}

// RuntimeConfig holds runtime configuration.
type RuntimeConfig struct {
	// Compilation cache directory. When set, compiled machine code survives
	// process restarts; when empty, caching is in-memory only.
	CacheDir string

	// Keep DWARF debug info from the engine binary so traps carry readable
	// source locations. Costs memory, off by default.
	Debug bool
}

// DefaultRuntimeConfig returns sensible defaults.
func DefaultRuntimeConfig() *RuntimeConfig {
	return &RuntimeConfig{
		CacheDir: "",
		Debug:    false,
	}
}

// CompiledModule wraps a wazero.CompiledModule with metadata.
type CompiledModule struct {
	Module wazero.CompiledModule

	Name      string
	SizeBytes int64

	// Compilation timestamp.
	CompiledAt int64
}

// NewRuntime creates and initializes a new wazero runtime, including the
// host shims engine binaries import. This should be called once during
// application startup.
func NewRuntime(ctx context.Context, logger *zap.Logger, config *RuntimeConfig) (*Runtime, error) {
	if config == nil {
		config = DefaultRuntimeConfig()
	}

	rcfg := wazero.NewRuntimeConfig().WithDebugInfoEnabled(config.Debug)

	var cache wazero.CompilationCache
	if config.CacheDir != "" {
		var err error
		cache, err = wazero.NewCompilationCacheWithDir(config.CacheDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open compilation cache at %s: %w", config.CacheDir, err)
		}
		rcfg = rcfg.WithCompilationCache(cache)
	}

	r := wazero.NewRuntimeWithConfig(ctx, rcfg)

	// WASI and the env shims are registered up front so any engine build can
	// resolve its imports at instantiation time.
	wasi_snapshot_preview1.MustInstantiate(ctx, r)
	if err := instantiateHostShims(ctx, r, logger); err != nil {
		_ = r.Close(ctx)
		return nil, fmt.Errorf("failed to register host shims: %w", err)
	}

	runtime := &Runtime{
		runtime: r,
		cache:   cache,
		config:  config,
		logger:  logger.With(zap.String("component", "wasm-runtime")),
		closed:  make(chan struct{}),
	}

	runtime.logger.Info("Wasm runtime initialized",
		zap.String("cache_dir", config.CacheDir),
		zap.Bool("debug", config.Debug),
	)

	return runtime, nil
}

// Close gracefully shuts down the runtime.
// Safe to call multiple times (idempotent).
func (r *Runtime) Close(ctx context.Context) error {
	var err error
	r.closeOnce.Do(func() {
		r.logger.Info("Shutting down Wasm runtime")

		// Close leaked instances first; closing the runtime afterwards
		// releases compiled modules.
		r.instances.Range(func(key, value interface{}) bool {
			if inst, ok := value.(*Instance); ok {
				if closeErr := inst.Close(ctx); closeErr != nil {
					r.logger.Warn("Failed to close instance",
						zap.String("instance_id", key.(string)),
						zap.Error(closeErr),
					)
				}
			}
			return true
		})

		err = r.runtime.Close(ctx)

		if r.cache != nil {
			if cacheErr := r.cache.Close(ctx); cacheErr != nil && err == nil {
				err = cacheErr
			}
		}

		close(r.closed)
		r.logger.Info("Wasm runtime shutdown complete")
	})

	return err
}

// GetCompiledModule retrieves a compiled module from cache.
func (r *Runtime) GetCompiledModule(name string) (*CompiledModule, bool) {
	if val, ok := r.modules.Load(name); ok {
		if mod, ok := val.(*CompiledModule); ok {
			return mod, true
		}
	}
	return nil, false
}

// StoreCompiledModule stores a compiled module in cache.
func (r *Runtime) StoreCompiledModule(module *CompiledModule) {
	r.modules.Store(module.Name, module)
}

// storeInstance tracks an active instance for shutdown cleanup.
func (r *Runtime) storeInstance(id string, instance *Instance) {
	r.instances.Store(id, instance)
}

// dropInstance removes an instance from tracking.
func (r *Runtime) dropInstance(id string) {
	r.instances.Delete(id)
}

// IsClosed returns whether the runtime has been closed.
func (r *Runtime) IsClosed() bool {
	select {
	case <-r.closed:
		return true
	default:
		return false
	}
}
