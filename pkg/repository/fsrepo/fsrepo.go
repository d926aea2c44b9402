package fsrepo

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/knit/pkg/domain/interfaces"
	"github.com/m-mizutani/knit/pkg/domain/model"
	"github.com/m-mizutani/knit/pkg/domain/types"
	"github.com/m-mizutani/knit/pkg/repository"
	"github.com/m-mizutani/knit/pkg/utils/safe"
)

// repoConfigs reads per-repository deployment configs from a directory of
// JSON files, one file per repository at <dir>/<owner>/<repo>.json.
type repoConfigs struct {
	dir string
}

// New creates a filesystem backed repository config store
func New(dir string) interfaces.RepoConfigs {
	return &repoConfigs{dir: dir}
}

// configFile is the on-disk schema: {pwd, pre, post, user, group, notify}
type configFile struct {
	Pwd    string   `json:"pwd"`
	Pre    []string `json:"pre"`
	Post   []string `json:"post"`
	User   string   `json:"user"`
	Group  string   `json:"group"`
	Notify string   `json:"notify"`
}

func (x *repoConfigs) Get(_ context.Context, name types.RepoFullName) (*model.RepoConfig, error) {
	// The name builds a file path; reject anything that is not a plain
	// owner/repo pair before touching the filesystem.
	if !name.Valid() {
		return nil, goerr.Wrap(repository.ErrInvalidConfig, "invalid repository name", goerr.V("name", name))
	}

	path := filepath.Join(x.dir, name.Owner(), name.Name()+".json")
	fd, err := os.Open(filepath.Clean(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, goerr.Wrap(repository.ErrNotFound, "no config file", goerr.V("name", name))
		}
		return nil, goerr.Wrap(err, "failed to open config file", goerr.V("path", path))
	}
	defer safe.Close(fd)

	var raw configFile
	if err := json.NewDecoder(fd).Decode(&raw); err != nil {
		return nil, goerr.Wrap(repository.ErrInvalidConfig, "failed to decode config file", goerr.V("path", path), goerr.V("cause", err.Error()))
	}

	cfg := &model.RepoConfig{
		Dir:    raw.Pwd,
		Pre:    raw.Pre,
		Post:   raw.Post,
		User:   raw.User,
		Group:  raw.Group,
		Notify: raw.Notify,
	}
	if cfg.User == "" {
		cfg.User = "root"
	}
	if cfg.Group == "" {
		cfg.Group = "root"
	}

	if err := cfg.Validate(); err != nil {
		return nil, goerr.Wrap(repository.ErrInvalidConfig, "config validation failed", goerr.V("name", name), goerr.V("path", path))
	}

	return cfg, nil
}
