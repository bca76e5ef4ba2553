package publisher

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// Registry is the closed set of platform adapters. Adding a platform means
// registering one more adapter, not branching in the dispatcher.
type Registry struct {
	adapters map[Platform]Adapter
	logger   *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		adapters: make(map[Platform]Adapter),
		logger:   logger,
	}
}

func (r *Registry) Register(adapter Adapter) error {
	name := adapter.PlatformName()
	if _, exists := r.adapters[name]; exists {
		return fmt.Errorf("adapter for platform %s already registered", name)
	}

	r.adapters[name] = adapter
	r.logger.Info("Adapter registered", zap.String("platform", string(name)))
	return nil
}

func (r *Registry) Get(platform Platform) (Adapter, error) {
	adapter, exists := r.adapters[platform]
	if !exists {
		return nil, fmt.Errorf("adapter for platform %s not found", platform)
	}
	return adapter, nil
}

// Platforms returns the registered platform names, sorted.
func (r *Registry) Platforms() []Platform {
	var platforms []Platform
	for name := range r.adapters {
		platforms = append(platforms, name)
	}
	sort.Slice(platforms, func(i, j int) bool { return platforms[i] < platforms[j] })
	return platforms
}
