package server

import (
	"io"
	"net/http"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/knit/pkg/domain/interfaces"
	"github.com/m-mizutani/knit/pkg/domain/model"
	"github.com/m-mizutani/knit/pkg/domain/types"
	"github.com/m-mizutani/knit/pkg/utils/errutil"
	"github.com/m-mizutani/knit/pkg/utils/logging"
)

// signatureHeader carries the sender's HMAC of the raw request body.
const signatureHeader = "X-Hub-Signature-256"

// webhookErrorBody is the fixed plaintext body of every 400 response.
const webhookErrorBody = "Webhook processing failed."

type Server struct {
	mux *chi.Mux
}

func safeWrite(w http.ResponseWriter, code int, body []byte) {
	w.WriteHeader(code)

	if _, err := w.Write(body); err != nil {
		logging.Default().Error("fail to write response", slog.Any("error", err))
	}
}

type config struct {
	secret types.WebhookSecret
}

type Option func(*config)

func WithWebhookSecret(secret types.WebhookSecret) Option {
	return func(cfg *config) {
		cfg.secret = secret
	}
}

func New(q interfaces.EventQueue, options ...Option) *Server {
	cfg := &config{}
	for _, opt := range options {
		opt(cfg)
	}

	r := chi.NewRouter()
	r.Use(preProcess)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		safeWrite(w, http.StatusOK, []byte("ok"))
	})
	r.Post("/", func(w http.ResponseWriter, r *http.Request) {
		handleWebhook(w, r, cfg.secret, q)
	})

	return &Server{
		mux: r,
	}
}

func (x *Server) Mux() *chi.Mux {
	return x.mux
}

// handleWebhook authenticates the delivery and hands it to the queue. The
// response never waits for the pipeline: a 200 means "accepted", nothing
// more.
func handleWebhook(w http.ResponseWriter, r *http.Request, secret types.WebhookSecret, q interfaces.EventQueue) {
	ctx := r.Context()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		errutil.HandleError(ctx, "failed to read webhook body", err)
		safeWrite(w, http.StatusBadRequest, []byte(webhookErrorBody))
		return
	}

	if !VerifySignature(body, secret, r.Header.Get(signatureHeader)) {
		logging.From(ctx).Warn("webhook signature verification failed",
			slog.Int("body_size", len(body)),
		)
		safeWrite(w, http.StatusBadRequest, []byte(webhookErrorBody))
		return
	}

	ev, err := model.NewWebhookEvent(body)
	if err != nil {
		errutil.HandleError(ctx, "rejecting webhook with malformed body", err)
		safeWrite(w, http.StatusBadRequest, []byte(webhookErrorBody))
		return
	}

	// The request context dies with the response; enqueue with a detached
	// one so processing is fully decoupled from the HTTP layer.
	if err := q.Enqueue(DetachContext(ctx), ev); err != nil {
		errutil.HandleError(ctx, "failed to enqueue webhook event", err)
		safeWrite(w, http.StatusBadRequest, []byte(webhookErrorBody))
		return
	}

	safeWrite(w, http.StatusOK, []byte("ok"))
}
