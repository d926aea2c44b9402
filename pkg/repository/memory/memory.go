package memory

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/knit/pkg/domain/model"
	"github.com/m-mizutani/knit/pkg/domain/types"
	"github.com/m-mizutani/knit/pkg/repository"
)

// RepoConfigs is an in-memory config store, mainly for tests.
type RepoConfigs struct {
	mu      sync.RWMutex
	configs map[types.RepoFullName]*model.RepoConfig
}

func New() *RepoConfigs {
	return &RepoConfigs{
		configs: make(map[types.RepoFullName]*model.RepoConfig),
	}
}

func (x *RepoConfigs) Put(name types.RepoFullName, cfg *model.RepoConfig) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.configs[name] = cfg
}

func (x *RepoConfigs) Get(_ context.Context, name types.RepoFullName) (*model.RepoConfig, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	cfg, ok := x.configs[name]
	if !ok {
		return nil, goerr.Wrap(repository.ErrNotFound, "no config", goerr.V("name", name))
	}
	if err := cfg.Validate(); err != nil {
		return nil, goerr.Wrap(repository.ErrInvalidConfig, "config validation failed", goerr.V("name", name))
	}
	return cfg, nil
}
