package queue

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/knit/pkg/domain/interfaces"
	"github.com/m-mizutani/knit/pkg/domain/model"
	"github.com/m-mizutani/knit/pkg/utils/errutil"
	"github.com/m-mizutani/knit/pkg/utils/logging"
)

const (
	deployTopic       = "knit.deploy"
	metadataRequestID = "request_id"
)

// Queue serializes webhook event processing. A single subscription drained by
// one goroutine gives both guarantees the pipeline needs: FIFO across events
// and at most one pipeline run in flight process-wide. Entries are not
// persisted; events queued at crash time are lost.
type Queue struct {
	pubsub *gochannel.GoChannel
	uc     interfaces.UseCase
	wg     sync.WaitGroup
}

type config struct {
	buffer int64
}

type Option func(*config)

// WithBuffer sets the number of pending events Enqueue can accept without
// blocking on the consumer.
func WithBuffer(n int64) Option {
	return func(cfg *config) {
		cfg.buffer = n
	}
}

func New(uc interfaces.UseCase, options ...Option) *Queue {
	cfg := &config{buffer: 64}
	for _, opt := range options {
		opt(cfg)
	}

	pubsub := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer: cfg.buffer,
		},
		newLoggerAdapter(logging.Default()),
	)

	return &Queue{
		pubsub: pubsub,
		uc:     uc,
	}
}

// Start subscribes to the deploy topic and launches the single consumer
// goroutine. The given context is the processing context of every event; it
// must outlive HTTP requests (use a background context, not a request one).
func (x *Queue) Start(ctx context.Context) error {
	msgs, err := x.pubsub.Subscribe(ctx, deployTopic)
	if err != nil {
		return goerr.Wrap(err, "failed to subscribe deploy topic")
	}

	x.wg.Add(1)
	go func() {
		defer x.wg.Done()
		for msg := range msgs {
			x.consume(ctx, msg)
			msg.Ack()
		}
	}()

	return nil
}

// Enqueue publishes the event for asynchronous processing and returns
// without waiting for the pipeline. The caller's request ID travels in the
// message metadata so processing logs can be correlated with the access log.
func (x *Queue) Enqueue(ctx context.Context, ev *model.WebhookEvent) error {
	msg := message.NewMessage(watermill.NewUUID(), []byte(ev.Raw))

	reqID, _ := logging.CtxRequestID(ctx)
	msg.Metadata.Set(metadataRequestID, string(reqID))

	if err := x.pubsub.Publish(deployTopic, msg); err != nil {
		return goerr.Wrap(err, "failed to publish webhook event")
	}
	return nil
}

// consume handles one entry. Any failure is reported and dropped so the
// drain loop continues with the next entry; there are no retries.
func (x *Queue) consume(ctx context.Context, msg *message.Message) {
	if reqID := msg.Metadata.Get(metadataRequestID); reqID != "" {
		ctx = logging.With(ctx, logging.From(ctx).With(slog.String("request_id", reqID)))
	}

	ev, err := model.NewWebhookEvent(msg.Payload)
	if err != nil {
		errutil.HandleError(ctx, "dropping malformed queue entry", err)
		return
	}

	if err := x.uc.HandleEvent(ctx, ev); err != nil {
		errutil.HandleError(ctx, "webhook event processing failed", err)
	}
}

// Close shuts down the pub/sub and waits for the in-flight run to finish.
func (x *Queue) Close() error {
	if err := x.pubsub.Close(); err != nil {
		return goerr.Wrap(err, "failed to close queue")
	}
	x.wg.Wait()
	return nil
}
