package engine

import (
	"sync"

	"go.uber.org/zap"
)

// Registry manages loaded engine artifacts.
type Registry struct {
	sync.RWMutex
	artifacts map[string]*Artifact   // name -> artifact
	byVersion map[string][]*Artifact // emulator version -> artifacts
	logger    *zap.Logger
}

// NewRegistry creates a new artifact registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		artifacts: make(map[string]*Artifact),
		byVersion: make(map[string][]*Artifact),
		logger:    logger.With(zap.String("component", "engine-registry")),
	}
}

// Register adds an artifact to the registry.
func (r *Registry) Register(artifact *Artifact) error {
	r.Lock()
	defer r.Unlock()

	name := artifact.Manifest.Name

	if _, exists := r.artifacts[name]; exists {
		return &ArtifactAlreadyRegisteredError{ArtifactName: name}
	}

	r.artifacts[name] = artifact

	version := artifact.Manifest.Version
	r.byVersion[version] = append(r.byVersion[version], artifact)

	r.logger.Info("Engine artifact registered",
		zap.String("name", name),
		zap.String("version", version),
	)

	return nil
}

// Get retrieves an artifact by name.
func (r *Registry) Get(name string) (*Artifact, bool) {
	r.RLock()
	defer r.RUnlock()

	artifact, ok := r.artifacts[name]
	return artifact, ok
}

// LookupByVersion finds artifacts built from a given emulator version.
func (r *Registry) LookupByVersion(version string) []*Artifact {
	r.RLock()
	defer r.RUnlock()

	artifacts, ok := r.byVersion[version]
	if !ok || len(artifacts) == 0 {
		return []*Artifact{}
	}
	result := make([]*Artifact, len(artifacts))
	copy(result, artifacts)
	return result
}

// List returns all registered artifacts.
func (r *Registry) List() []*Artifact {
	r.RLock()
	defer r.RUnlock()

	result := make([]*Artifact, 0, len(r.artifacts))
	for _, artifact := range r.artifacts {
		result = append(result, artifact)
	}
	return result
}

// Unregister removes an artifact from the registry.
func (r *Registry) Unregister(name string) {
	r.Lock()
	defer r.Unlock()

	artifact, ok := r.artifacts[name]
	if !ok {
		return
	}

	version := artifact.Manifest.Version
	artifacts := r.byVersion[version]
	for i, a := range artifacts {
		if a.Manifest.Name == name {
			r.byVersion[version] = append(artifacts[:i], artifacts[i+1:]...)
			break
		}
	}

	delete(r.artifacts, name)

	r.logger.Info("Engine artifact unregistered", zap.String("name", name))
}

// Count returns the number of registered artifacts.
func (r *Registry) Count() int {
	r.RLock()
	defer r.RUnlock()

	return len(r.artifacts)
}
