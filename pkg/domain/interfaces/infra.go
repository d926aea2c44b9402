package interfaces

import (
	"context"

	"github.com/m-mizutani/knit/pkg/domain/model"
)

// Runner executes one shell command in an explicitly given working directory.
// A non-zero exit code is a normal result; the error return is reserved for
// commands that could not be spawned at all.
type Runner interface {
	Run(ctx context.Context, dir, command string) (*model.CommandResult, error)
}

// Notifier delivers a composed message to a chat webhook URL.
type Notifier interface {
	Send(ctx context.Context, webhookURL string, msg *model.WebhookMessage) error
}
