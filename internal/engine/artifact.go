package engine

import (
	"time"

	"github.com/tvmbox/emulator-host/internal/wasm"
)

// Artifact represents a loaded engine build: its manifest and the compiled
// Wasm module, ready to be instantiated into sessions.
type Artifact struct {
	// Manifest is the parsed artifact metadata
	Manifest *Manifest

	// Compiled is the compiled Wasm module
	Compiled *wasm.CompiledModule

	// LoadedAt is the timestamp when the artifact was loaded
	LoadedAt time.Time
}

// Name returns the artifact name.
func (a *Artifact) Name() string {
	return a.Manifest.Name
}

// Version returns the artifact version.
func (a *Artifact) Version() string {
	return a.Manifest.Version
}

// Description returns the artifact description.
func (a *Artifact) Description() string {
	return a.Manifest.Description
}

// Exports returns the entry points the artifact declares.
func (a *Artifact) Exports() []string {
	return a.Manifest.Exports
}
