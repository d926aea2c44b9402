package interfaces

import (
	"context"

	"github.com/m-mizutani/knit/pkg/domain/model"
)

type UseCase interface {
	HandleEvent(ctx context.Context, ev *model.WebhookEvent) error
}

// EventQueue accepts validated webhook events for asynchronous processing.
// Enqueue must return without waiting for the pipeline; the HTTP response
// never blocks on a deploy.
type EventQueue interface {
	Enqueue(ctx context.Context, ev *model.WebhookEvent) error
}
