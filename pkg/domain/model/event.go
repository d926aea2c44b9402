package model

import (
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/knit/pkg/domain/types"
)

// WebhookEvent is one validated webhook delivery. Raw holds exactly the bytes
// the sender signed; it must never be re-serialized while the event is alive
// because the signature and the parsed payload both derive from it.
type WebhookEvent struct {
	Raw json.RawMessage
}

// NewWebhookEvent wraps a raw webhook body. It only checks that the body is
// well-formed JSON; structural validation happens when the consumer parses
// the payload.
func NewWebhookEvent(raw []byte) (*WebhookEvent, error) {
	if !json.Valid(raw) {
		return nil, goerr.Wrap(types.ErrInvalidPayload, "webhook body is not valid JSON")
	}
	return &WebhookEvent{Raw: raw}, nil
}

// ParsePayload decodes the raw body into the typed payload. A payload that is
// not a JSON object, or whose commits field is not a list, is invalid.
func (x *WebhookEvent) ParsePayload() (*Payload, error) {
	var p Payload
	if err := json.Unmarshal(x.Raw, &p); err != nil {
		return nil, goerr.Wrap(types.ErrInvalidPayload, "failed to decode webhook payload", goerr.V("cause", err.Error()))
	}
	return &p, nil
}
