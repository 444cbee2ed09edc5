package engine

import (
	"fmt"
)

// ManifestNotFoundError occurs when manifest.yaml is not found in a directory.
type ManifestNotFoundError struct {
	Path string
	Err  error
}

func (e *ManifestNotFoundError) Error() string {
	return fmt.Sprintf("manifest not found at '%s': %v", e.Path, e.Err)
}

func (e *ManifestNotFoundError) Unwrap() error {
	return e.Err
}

// ManifestParseError occurs when manifest.yaml cannot be parsed as valid YAML.
type ManifestParseError struct {
	Path string
	Err  error
}

func (e *ManifestParseError) Error() string {
	return fmt.Sprintf("failed to parse manifest at '%s': %v", e.Path, e.Err)
}

func (e *ManifestParseError) Unwrap() error {
	return e.Err
}

// ManifestValidationError occurs when manifest.yaml fails validation.
type ManifestValidationError struct {
	Path    string
	Field   string
	Message string
}

func (e *ManifestValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("manifest validation failed at '%s': %s (field: %s)",
			e.Path, e.Message, e.Field)
	}
	return fmt.Sprintf("manifest validation failed at '%s': %s", e.Path, e.Message)
}

// WasmNotFoundError occurs when the Wasm binary referenced in a manifest
// doesn't exist.
type WasmNotFoundError struct {
	ManifestPath string
	WasmFile     string
}

func (e *WasmNotFoundError) Error() string {
	return fmt.Sprintf("Wasm file '%s' not found (referenced in manifest '%s')",
		e.WasmFile, e.ManifestPath)
}

// ArtifactLoadError occurs when engine artifact loading fails.
type ArtifactLoadError struct {
	ArtifactName string
	Err          error
}

func (e *ArtifactLoadError) Error() string {
	return fmt.Sprintf("failed to load engine artifact '%s': %v", e.ArtifactName, e.Err)
}

func (e *ArtifactLoadError) Unwrap() error {
	return e.Err
}

// ArtifactNotFoundError occurs when an artifact is not found in the registry.
type ArtifactNotFoundError struct {
	ArtifactName string
}

func (e *ArtifactNotFoundError) Error() string {
	return fmt.Sprintf("engine artifact '%s' not found", e.ArtifactName)
}

// ArtifactAlreadyRegisteredError occurs when attempting to register a
// duplicate artifact.
type ArtifactAlreadyRegisteredError struct {
	ArtifactName string
}

func (e *ArtifactAlreadyRegisteredError) Error() string {
	return fmt.Sprintf("engine artifact '%s' is already registered", e.ArtifactName)
}

// NoArtifactsFoundError occurs when no artifacts are found in the configured
// paths.
type NoArtifactsFoundError struct {
	Paths []string
}

func (e *NoArtifactsFoundError) Error() string {
	return fmt.Sprintf("no engine artifacts found in paths: %v", e.Paths)
}
