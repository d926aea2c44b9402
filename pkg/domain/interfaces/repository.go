package interfaces

import (
	"context"

	"github.com/m-mizutani/knit/pkg/domain/model"
	"github.com/m-mizutani/knit/pkg/domain/types"
)

// RepoConfigs resolves the deployment configuration of a repository by its
// exact "owner/repo" name. The result is either a fully validated config or
// an error (repository.ErrNotFound / ErrInvalidConfig), never a partially
// populated one.
type RepoConfigs interface {
	Get(ctx context.Context, name types.RepoFullName) (*model.RepoConfig, error)
}
