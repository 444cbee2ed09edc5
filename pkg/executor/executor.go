// Package executor marshals emulation calls across the foreign-function
// boundary of a precompiled TVM engine. The engine only understands integers
// and addresses into its flat memory, so the executor owns the machinery
// that gets strings in and results out: a pooling arena for argument
// buffers, a dispatcher that rewrites mixed argument lists into all-numeric
// ones, a cache for the expensive-to-construct engine handle, and the
// facade operations built on top.
package executor

import (
	"context"

	"github.com/tvmbox/emulator-host/pkg/emulation"
	"go.uber.org/zap"
)

// Executor drives one engine session. It owns the string arena, the cached
// engine handle, and the foreign runtime binding exclusively.
//
// An Executor is not safe for concurrent use: the arena and handle cache are
// deliberately unlocked, relying on a single caller at a time. Concurrent
// users must each hold their own Executor over their own engine instance.
type Executor struct {
	rt     Runtime
	disp   *dispatcher
	engine *engineCache
	logger *zap.Logger
}

// New creates an Executor over a foreign runtime binding.
func New(rt Runtime, logger *zap.Logger) *Executor {
	disp := &dispatcher{
		rt:    rt,
		arena: newArena(rt),
	}
	return &Executor{
		rt:     rt,
		disp:   disp,
		engine: newEngineCache(disp, logger),
		logger: logger.With(zap.String("component", "executor")),
	}
}

// RunGetMethod executes a read-only contract method through the stateless
// get-method entry point. A {fail:true} payload from the engine surfaces as
// an error; an unsuccessful emulation outcome is returned as data in the
// result's Failure branch.
func (e *Executor) RunGetMethod(ctx context.Context, params *emulation.GetMethodParams) (*emulation.GetMethodResult, error) {
	req, err := params.RequestJSON()
	if err != nil {
		return nil, err
	}

	addr, err := e.disp.invoke(ctx, emulation.FuncRunGetMethod, req, params.Stack, params.Config)
	if err != nil {
		return nil, err
	}

	payload, err := e.extract(ctx, uint32(addr))
	if err != nil {
		return nil, err
	}

	result, err := emulation.ParseGetMethodResponse([]byte(payload))
	if err != nil {
		return nil, err
	}

	e.logger.Debug("get method finished",
		zap.Int32("method_id", params.MethodID),
		zap.Bool("success", result.Ok()),
	)
	return result, nil
}

// RunTransaction applies an inbound message to a shard account through the
// stateful emulate entry point, resolving the engine handle through the
// cache keyed on configuration content and verbosity. An empty Libs is
// passed to the engine as a zero address.
func (e *Executor) RunTransaction(ctx context.Context, params *emulation.TransactionParams) (*emulation.TransactionResult, error) {
	handle, err := e.engine.handleFor(ctx, params.Config, params.Verbosity)
	if err != nil {
		return nil, err
	}

	req, err := params.RequestJSON()
	if err != nil {
		return nil, err
	}

	args := make([]any, 0, 5)
	args = append(args, handle)
	if params.Libs == "" {
		args = append(args, uint64(0))
	} else {
		args = append(args, params.Libs)
	}
	args = append(args, params.ShardAccount, params.Message, req)

	addr, err := e.disp.invoke(ctx, emulation.FuncEmulate, args...)
	if err != nil {
		return nil, err
	}

	payload, err := e.extract(ctx, uint32(addr))
	if err != nil {
		return nil, err
	}

	result, err := emulation.ParseTransactionResponse([]byte(payload))
	if err != nil {
		return nil, err
	}

	e.logger.Debug("transaction finished",
		zap.Bool("success", result.Ok()),
	)
	return result, nil
}

// Version reports the emulator build linked into the engine.
func (e *Executor) Version(ctx context.Context) (*emulation.EngineVersion, error) {
	addr, err := e.disp.invoke(ctx, emulation.FuncVersion)
	if err != nil {
		return nil, err
	}

	payload, err := e.extract(ctx, uint32(addr))
	if err != nil {
		return nil, err
	}

	return emulation.ParseVersionResponse([]byte(payload))
}
