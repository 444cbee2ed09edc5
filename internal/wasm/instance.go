package wasm

import (
	"context"
	"fmt"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/tvmbox/emulator-host/pkg/emulation"
)

// InstanceManager creates and manages engine instances.
type InstanceManager struct {
	runtime *Runtime
	logger  *zap.Logger
}

// NewInstanceManager creates a new instance manager.
func NewInstanceManager(runtime *Runtime, logger *zap.Logger) *InstanceManager {
	return &InstanceManager{
		runtime: runtime,
		logger:  logger.With(zap.String("component", "wasm-instance")),
	}
}

// InstanceConfig holds configuration for creating instances.
type InstanceConfig struct {
	// Module name to instantiate.
	ModuleName string

	// Instance ID (if empty, one is generated).
	InstanceID string
}

// Instance is one instantiated engine with its own linear memory. It exposes
// the engine's calling convention: integer calls by export name, guest
// allocation, and null-terminated string access.
//
// An Instance is not safe for concurrent use. Its memory and allocator state
// belong to a single caller; concurrent sessions take one Instance each.
type Instance struct {
	module  api.Module
	runtime *Runtime
	logger  *zap.Logger

	ID        string
	Name      string
	CreatedAt int64

	mem *Memory

	// Exported functions, pre-resolved at instantiation.
	funcs  map[string]api.Function
	malloc api.Function
	free   api.Function
}

// Instantiate creates a new instance from a compiled module. The module must
// export the guest allocator pair; the remaining engine entry points are
// pre-resolved when present and resolved lazily otherwise.
func (m *InstanceManager) Instantiate(ctx context.Context, config *InstanceConfig) (*Instance, error) {
	compiled, ok := m.runtime.GetCompiledModule(config.ModuleName)
	if !ok {
		return nil, &ModuleNotFoundError{ModuleName: config.ModuleName}
	}

	instanceID := config.InstanceID
	if instanceID == "" {
		instanceID = fmt.Sprintf("inst-%d", time.Now().UnixNano())
	}

	m.logger.Info("Instantiating engine module",
		zap.String("module", config.ModuleName),
		zap.String("instance_id", instanceID),
	)

	// No automatic start functions: emscripten reactor builds export
	// _initialize instead of _start, and it is called explicitly below so
	// instantiation failures and initialization failures stay distinct.
	moduleConfig := wazero.NewModuleConfig().
		WithName(instanceID).
		WithStartFunctions()

	module, err := m.runtime.runtime.InstantiateModule(ctx, compiled.Module, moduleConfig)
	if err != nil {
		return nil, &InstantiationError{
			ModuleName: config.ModuleName,
			InstanceID: instanceID,
			Err:        err,
		}
	}

	if initFn := module.ExportedFunction("_initialize"); initFn != nil {
		if _, err := initFn.Call(ctx); err != nil {
			_ = module.Close(ctx)
			return nil, &InstantiationError{
				ModuleName: config.ModuleName,
				InstanceID: instanceID,
				Err:        fmt.Errorf("_initialize failed: %w", err),
			}
		}
	}

	funcs := make(map[string]api.Function)
	for _, name := range emulation.EngineExports {
		if fn := module.ExportedFunction(name); fn != nil {
			funcs[name] = fn
		}
	}

	// The allocator pair is non-negotiable: without it no argument can cross
	// into guest memory.
	malloc, mallocOK := funcs[emulation.FuncMalloc]
	free, freeOK := funcs[emulation.FuncFree]
	if !mallocOK || !freeOK {
		missing := emulation.FuncMalloc
		if mallocOK {
			missing = emulation.FuncFree
		}
		_ = module.Close(ctx)
		return nil, &FunctionNotFoundError{
			ModuleName:   config.ModuleName,
			FunctionName: missing,
		}
	}

	// Strings cross the boundary through linear memory, which emscripten
	// builds export as "memory". Module.Memory() wraps a typed nil when the
	// module has none, so absence must be checked through the export lookup.
	mem := module.ExportedMemory("memory")
	if mem == nil {
		_ = module.Close(ctx)
		return nil, &InstantiationError{
			ModuleName: config.ModuleName,
			InstanceID: instanceID,
			Err:        fmt.Errorf("module exports no linear memory"),
		}
	}

	instance := &Instance{
		module:    module,
		runtime:   m.runtime,
		logger:    m.logger.With(zap.String("instance_id", instanceID)),
		ID:        instanceID,
		Name:      config.ModuleName,
		CreatedAt: time.Now().Unix(),
		mem:       NewMemory(mem),
		funcs:     funcs,
		malloc:    malloc,
		free:      free,
	}

	m.runtime.storeInstance(instanceID, instance)

	m.logger.Info("Engine module instantiated",
		zap.String("instance_id", instanceID),
		zap.Int("exported_functions", len(funcs)),
	)

	return instance, nil
}

// Close closes the instance and releases its memory.
func (i *Instance) Close(ctx context.Context) error {
	i.runtime.dropInstance(i.ID)
	return i.module.Close(ctx)
}

// Allocate reserves size bytes in guest memory through the engine's
// allocator. A null result from the guest is an allocation failure.
func (i *Instance) Allocate(ctx context.Context, size uint32) (uint32, error) {
	results, err := i.malloc.Call(ctx, uint64(size))
	if err != nil {
		return 0, err
	}
	addr := uint32(results[0])
	if addr == 0 {
		return 0, &AllocationFailedError{Size: size}
	}
	return addr, nil
}

// Free releases a guest buffer obtained from Allocate or handed over by the
// engine as a result buffer.
func (i *Instance) Free(ctx context.Context, addr uint32) error {
	_, err := i.free.Call(ctx, uint64(addr))
	return err
}

// WriteString writes s null-terminated into guest memory at addr.
func (i *Instance) WriteString(addr uint32, s string) error {
	return i.mem.WriteCString(addr, s)
}

// ReadString reads the null-terminated string at addr from guest memory.
func (i *Instance) ReadString(addr uint32) (string, error) {
	return i.mem.ReadCString(addr)
}

// Call invokes an exported engine function by name. Functions outside the
// pre-resolved set are looked up on demand, so auxiliary exports stay
// callable. A function with no results yields zero.
func (i *Instance) Call(ctx context.Context, name string, args ...uint64) (uint64, error) {
	fn, ok := i.funcs[name]
	if !ok {
		fn = i.module.ExportedFunction(name)
		if fn == nil {
			return 0, &FunctionNotFoundError{
				ModuleName:   i.Name,
				FunctionName: name,
			}
		}
		i.funcs[name] = fn
	}

	results, err := fn.Call(ctx, args...)
	if err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0], nil
}

// Memory exposes the instance's memory helper.
func (i *Instance) Memory() *Memory {
	return i.mem
}
