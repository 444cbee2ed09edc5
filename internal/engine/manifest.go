package engine

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/tvmbox/emulator-host/pkg/emulation"
)

// Manifest represents the engine artifact manifest.yaml structure. An
// artifact directory bundles one emulator Wasm build with the metadata
// needed to load and validate it.
type Manifest struct {
	Name        string     `yaml:"name"`
	Version     string     `yaml:"version"`
	Description string     `yaml:"description"`
	Wasm        WasmConfig `yaml:"wasm"`
	Exports     []string   `yaml:"exports"`

	// Internal fields
	dir string // Directory containing manifest
}

// WasmConfig holds Wasm binary configuration.
type WasmConfig struct {
	File string `yaml:"file"`
}

// ParseManifest reads and parses manifest.yaml from a directory.
func ParseManifest(dir string) (*Manifest, error) {
	manifestPath := filepath.Join(dir, "manifest.yaml")

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, &ManifestNotFoundError{
			Path: manifestPath,
			Err:  err,
		}
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, &ManifestParseError{
			Path: manifestPath,
			Err:  err,
		}
	}

	m.dir = dir

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return &m, nil
}

// Validate checks manifest fields. Exports must name known engine entry
// points; a build may declare any non-empty subset, and entry points it
// omits surface as call failures when first used.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return &ManifestValidationError{
			Path:    m.Path(),
			Field:   "name",
			Message: "name is required",
		}
	}

	if m.Version == "" {
		return &ManifestValidationError{
			Path:    m.Path(),
			Field:   "version",
			Message: "version is required",
		}
	}

	if m.Wasm.File == "" {
		return &ManifestValidationError{
			Path:    m.Path(),
			Field:   "wasm.file",
			Message: "wasm.file is required",
		}
	}

	if len(m.Exports) == 0 {
		return &ManifestValidationError{
			Path:    m.Path(),
			Field:   "exports",
			Message: "exports are required",
		}
	}

	known := make(map[string]bool, len(emulation.EngineExports))
	for _, name := range emulation.EngineExports {
		known[name] = true
	}
	for _, name := range m.Exports {
		if !known[name] {
			return &ManifestValidationError{
				Path:    m.Path(),
				Field:   "exports",
				Message: fmt.Sprintf("unknown export: %s", name),
			}
		}
	}

	wasmPath := m.WasmPath()
	if _, err := os.Stat(wasmPath); os.IsNotExist(err) {
		return &WasmNotFoundError{
			ManifestPath: m.Path(),
			WasmFile:     m.Wasm.File,
		}
	}

	return nil
}

// Path returns the manifest file path.
func (m *Manifest) Path() string {
	return filepath.Join(m.dir, "manifest.yaml")
}

// WasmPath returns the absolute path to the Wasm binary.
func (m *Manifest) WasmPath() string {
	return filepath.Join(m.dir, m.Wasm.File)
}

// Dir returns the directory containing the manifest.
func (m *Manifest) Dir() string {
	return m.dir
}
