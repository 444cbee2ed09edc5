package wasm

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"
)

// hostShims implements the "env" imports an emscripten-built engine expects.
// The engine is self-contained apart from these: a fatal abort hook and a
// notification when its linear memory grows.
type hostShims struct {
	logger *zap.Logger
}

// instantiateHostShims registers the env module and WASI on the runtime so
// later guest instantiations can import them. Guests that import neither are
// unaffected.
func instantiateHostShims(ctx context.Context, r wazero.Runtime, logger *zap.Logger) error {
	shims := &hostShims{
		logger: logger.With(zap.String("component", "wasm-host")),
	}

	builder := r.NewHostModuleBuilder("env")

	builder.NewFunctionBuilder().
		WithFunc(shims.abort).
		Export("abort")

	builder.NewFunctionBuilder().
		WithFunc(shims.notifyMemoryGrowth).
		WithParameterNames("memory_index").
		Export("emscripten_notify_memory_growth")

	if _, err := builder.Instantiate(ctx); err != nil {
		return err
	}

	return nil
}

// abort is called by the guest on unrecoverable internal errors. Closing the
// module with a nonzero exit code fails the in-flight call and every call
// after it; the instance is unusable from here on.
func (h *hostShims) abort(ctx context.Context, mod api.Module) {
	h.logger.Error("engine aborted",
		zap.String("module", mod.Name()),
	)
	_ = mod.CloseWithExitCode(ctx, 1)
}

// notifyMemoryGrowth is informational; growth already happened when the
// guest calls it.
func (h *hostShims) notifyMemoryGrowth(_ context.Context, mod api.Module, memoryIndex uint32) {
	h.logger.Debug("engine memory grew",
		zap.String("module", mod.Name()),
		zap.Uint32("memory_index", memoryIndex),
		zap.Uint32("size_bytes", mod.Memory().Size()),
	)
}
