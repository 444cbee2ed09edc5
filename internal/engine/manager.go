package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/tvmbox/emulator-host/internal/config"
	"github.com/tvmbox/emulator-host/internal/wasm"
	"github.com/tvmbox/emulator-host/pkg/executor"
)

// Manager owns the engine artifact lifecycle: discovery, registration, and
// session creation.
type Manager struct {
	cfg         *config.Config
	runtime     *wasm.Runtime
	loader      *Loader
	registry    *Registry
	instanceMgr *wasm.InstanceManager
	logger      *zap.Logger

	// Unscoped logger handed to per-session executors, which attach their
	// own component fields.
	base *zap.Logger

	mu     sync.RWMutex
	loaded bool
}

// NewManager creates a new artifact manager.
func NewManager(cfg *config.Config, runtime *wasm.Runtime, logger *zap.Logger) *Manager {
	return &Manager{
		cfg:         cfg,
		runtime:     runtime,
		loader:      NewLoader(runtime, logger),
		registry:    NewRegistry(logger),
		instanceMgr: wasm.NewInstanceManager(runtime, logger),
		logger:      logger.With(zap.String("component", "engine-manager")),
		base:        logger,
	}
}

// LoadAll discovers and loads all engine artifacts from configured paths.
func (m *Manager) LoadAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loaded {
		return fmt.Errorf("engine artifacts already loaded")
	}

	m.logger.Info("Loading engine artifacts",
		zap.Strings("paths", m.cfg.ArtifactPaths),
	)

	artifacts, err := m.loader.DiscoverArtifacts(ctx, m.cfg.ArtifactPaths)
	if err != nil {
		// An empty artifact set is survivable at startup; sessions will fail
		// later with a not-found error naming the artifact.
		if _, ok := err.(*NoArtifactsFoundError); ok {
			m.logger.Warn("No engine artifacts found in configured paths",
				zap.Strings("paths", m.cfg.ArtifactPaths),
			)
			m.loaded = true
			return nil
		}
		return err
	}

	for _, artifact := range artifacts {
		err := m.registry.Register(artifact)
		if _, dup := err.(*ArtifactAlreadyRegisteredError); dup {
			// Later artifact paths override earlier ones, so a local build
			// directory can shadow a shared one under the same name.
			m.logger.Info("Replacing engine artifact",
				zap.String("name", artifact.Manifest.Name),
				zap.String("version", artifact.Manifest.Version),
			)
			m.registry.Unregister(artifact.Manifest.Name)
			err = m.registry.Register(artifact)
		}
		if err != nil {
			m.logger.Error("Failed to register engine artifact",
				zap.String("name", artifact.Manifest.Name),
				zap.Error(err),
			)
		}
	}

	m.loaded = true

	m.logger.Info("Engine artifacts loaded",
		zap.Int("count", len(artifacts)),
	)

	return nil
}

// GetArtifact retrieves an artifact by selector: a plain name, or
// "name@version" to pin the emulator version, or "@version" alone when any
// artifact of that version will do.
func (m *Manager) GetArtifact(selector string) (*Artifact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	name, version, pinned := strings.Cut(selector, "@")
	if !pinned {
		artifact, ok := m.registry.Get(name)
		if !ok {
			return nil, &ArtifactNotFoundError{ArtifactName: name}
		}
		return artifact, nil
	}

	candidates := m.registry.LookupByVersion(version)
	if name != "" {
		for _, artifact := range candidates {
			if artifact.Name() == name {
				return artifact, nil
			}
		}
		return nil, &ArtifactNotFoundError{ArtifactName: selector}
	}
	switch len(candidates) {
	case 0:
		return nil, &ArtifactNotFoundError{ArtifactName: selector}
	case 1:
		return candidates[0], nil
	default:
		return nil, fmt.Errorf("%d engine artifacts built from version %s, name one explicitly", len(candidates), version)
	}
}

// DefaultArtifact resolves the artifact used when a caller names none: the
// configured default if set, otherwise the sole registered artifact.
func (m *Manager) DefaultArtifact() (*Artifact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.cfg.DefaultArtifact != "" {
		artifact, ok := m.registry.Get(m.cfg.DefaultArtifact)
		if !ok {
			return nil, &ArtifactNotFoundError{ArtifactName: m.cfg.DefaultArtifact}
		}
		return artifact, nil
	}

	artifacts := m.registry.List()
	switch len(artifacts) {
	case 0:
		return nil, &NoArtifactsFoundError{Paths: m.cfg.ArtifactPaths}
	case 1:
		return artifacts[0], nil
	default:
		return nil, fmt.Errorf("%d engine artifacts registered, set default_artifact or name one", len(artifacts))
	}
}

// NewSession instantiates the selected artifact and wraps it in an executor.
// An empty selector picks the default artifact; see GetArtifact for the
// selector forms.
func (m *Manager) NewSession(ctx context.Context, selector string) (*Session, error) {
	var artifact *Artifact
	var err error
	if selector == "" {
		artifact, err = m.DefaultArtifact()
	} else {
		artifact, err = m.GetArtifact(selector)
	}
	if err != nil {
		return nil, err
	}

	// The compiled module is cached under the binary's path.
	instance, err := m.instanceMgr.Instantiate(ctx, &wasm.InstanceConfig{
		ModuleName: artifact.Manifest.WasmPath(),
	})
	if err != nil {
		return nil, err
	}

	session := &Session{
		Artifact: artifact,
		Executor: executor.New(instance, m.base),
		instance: instance,
	}

	m.logger.Info("Engine session opened",
		zap.String("artifact", artifact.Name()),
		zap.String("instance_id", instance.ID),
	)

	return session, nil
}

// Shutdown gracefully shuts down the manager and every live session.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info("Shutting down engine manager")

	// Runtime close handles instance cleanup.
	if err := m.runtime.Close(ctx); err != nil {
		m.logger.Error("Failed to shutdown runtime", zap.Error(err))
		return err
	}

	m.logger.Info("Engine manager shutdown complete")
	return nil
}

// Registry returns the artifact registry (for testing/inspection).
func (m *Manager) Registry() *Registry {
	return m.registry
}

// IsLoaded returns whether artifacts have been loaded.
func (m *Manager) IsLoaded() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loaded
}
