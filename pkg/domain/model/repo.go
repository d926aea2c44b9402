package model

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/knit/pkg/domain/types"
)

// RepoConfig is the deployment pipeline configuration of one repository.
// It is loaded once per event and immutable for the duration of a run.
type RepoConfig struct {
	// Dir is the working copy the pipeline operates in. Every command runs
	// with this directory as its working directory.
	Dir string

	Pre  []string
	Post []string

	User  string
	Group string

	// Notify is the Discord webhook URL. Empty means no notification.
	Notify string
}

func (x *RepoConfig) Validate() error {
	if x.Dir == "" {
		return goerr.Wrap(types.ErrInvalidOption, "repository config has no working directory")
	}
	return nil
}
