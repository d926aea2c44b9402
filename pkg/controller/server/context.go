package server

import (
	"context"

	"github.com/m-mizutani/knit/pkg/utils/logging"
)

// DetachContext creates a new context.Background() based context that inherits
// logger, request ID, and time function from the original context.
// This is useful when handing work to background processing from HTTP request
// handlers, as the original request context is cancelled when the HTTP
// response is sent.
func DetachContext(ctx context.Context) context.Context {
	bgCtx := context.Background()

	bgCtx = logging.With(bgCtx, logging.From(ctx))
	bgCtx = logging.InheritContextValues(bgCtx, ctx)

	return bgCtx
}
