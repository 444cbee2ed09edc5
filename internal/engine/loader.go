package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/tvmbox/emulator-host/internal/wasm"
)

// Loader handles loading engine artifacts from disk.
type Loader struct {
	moduleLoader *wasm.ModuleLoader
	logger       *zap.Logger
}

// NewLoader creates a new artifact loader.
func NewLoader(runtime *wasm.Runtime, logger *zap.Logger) *Loader {
	return &Loader{
		moduleLoader: wasm.NewModuleLoader(runtime, logger),
		logger:       logger.With(zap.String("component", "engine-loader")),
	}
}

// LoadArtifact loads a single engine artifact from a directory.
func (l *Loader) LoadArtifact(ctx context.Context, dir string) (*Artifact, error) {
	l.logger.Debug("Loading engine artifact", zap.String("dir", dir))

	manifest, err := ParseManifest(dir)
	if err != nil {
		return nil, err
	}

	l.logger.Info("Loading engine artifact",
		zap.String("name", manifest.Name),
		zap.String("version", manifest.Version),
	)

	// Compile the Wasm binary (uses internal caching keyed on the path).
	compiled, err := l.moduleLoader.LoadModuleFromFile(ctx, manifest.WasmPath())
	if err != nil {
		return nil, &ArtifactLoadError{
			ArtifactName: manifest.Name,
			Err:          err,
		}
	}

	artifact := &Artifact{
		Manifest: manifest,
		Compiled: compiled,
		LoadedAt: time.Now(),
	}

	l.logger.Info("Engine artifact loaded",
		zap.String("name", manifest.Name),
		zap.Int64("size_bytes", compiled.SizeBytes),
	)

	return artifact, nil
}

// DiscoverArtifacts scans directories for engine artifacts. Every immediate
// subdirectory is one candidate; broken candidates are logged and skipped as
// long as at least one artifact loads.
func (l *Loader) DiscoverArtifacts(ctx context.Context, paths []string) ([]*Artifact, error) {
	var artifacts []*Artifact
	var errs []error

	for _, basePath := range paths {
		l.logger.Debug("Scanning artifact directory", zap.String("path", basePath))

		entries, err := os.ReadDir(basePath)
		if err != nil {
			if os.IsNotExist(err) {
				l.logger.Warn("Artifact path does not exist", zap.String("path", basePath))
				continue
			}
			return nil, fmt.Errorf("failed to read directory '%s': %w", basePath, err)
		}

		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}

			artifactDir := filepath.Join(basePath, entry.Name())

			artifact, err := l.LoadArtifact(ctx, artifactDir)
			if err != nil {
				l.logger.Error("Failed to load engine artifact",
					zap.String("dir", artifactDir),
					zap.Error(err),
				)
				errs = append(errs, err)
				continue
			}

			artifacts = append(artifacts, artifact)
		}
	}

	if len(artifacts) > 0 && len(errs) > 0 {
		l.logger.Warn("Some engine artifacts failed to load",
			zap.Int("loaded", len(artifacts)),
			zap.Int("failed", len(errs)),
		)
	}

	if len(artifacts) == 0 {
		return nil, &NoArtifactsFoundError{Paths: paths}
	}

	return artifacts, nil
}
