package engine

import (
	"context"

	"github.com/tvmbox/emulator-host/internal/wasm"
	"github.com/tvmbox/emulator-host/pkg/executor"
)

// Session binds one engine instance to one executor. Each session owns a
// private copy of the engine's linear memory, so sessions never observe each
// other's arenas or cached handles. A session serves a single caller;
// concurrent callers open one session each.
type Session struct {
	// Artifact is the engine build this session runs.
	Artifact *Artifact

	// Executor marshals emulation calls into the instance.
	Executor *executor.Executor

	instance *wasm.Instance
}

// Close releases the session's engine instance and its memory.
func (s *Session) Close(ctx context.Context) error {
	return s.instance.Close(ctx)
}

// InstanceID identifies the underlying engine instance, mainly for logs.
func (s *Session) InstanceID() string {
	return s.instance.ID
}
