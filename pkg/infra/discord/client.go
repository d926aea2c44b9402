package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/knit/pkg/domain/model"
	"github.com/m-mizutani/knit/pkg/domain/types"
	"github.com/m-mizutani/knit/pkg/utils/safe"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client posts webhook messages to Discord. It holds no state besides the
// HTTP client and is safe for concurrent use.
type Client struct {
	httpClient HTTPClient
}

type Option func(*Client)

func WithHTTPClient(httpClient HTTPClient) Option {
	return func(x *Client) {
		x.httpClient = httpClient
	}
}

func New(options ...Option) *Client {
	client := &Client{
		httpClient: http.DefaultClient,
	}
	for _, opt := range options {
		opt(client)
	}
	return client
}

func (x *Client) Send(ctx context.Context, webhookURL string, msg *model.WebhookMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal webhook message")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return goerr.Wrap(err, "failed to create webhook request", goerr.V("url", webhookURL))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := x.httpClient.Do(req)
	if err != nil {
		return goerr.Wrap(err, "failed to post webhook message", goerr.V("url", webhookURL))
	}
	defer safe.Close(resp.Body)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return goerr.Wrap(types.ErrNotifyFailed, "discord webhook returned non-2xx",
			goerr.V("status", resp.StatusCode),
			goerr.V("body", string(respBody)),
		)
	}

	return nil
}
