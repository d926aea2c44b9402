package usecase

import (
	"time"

	"github.com/m-mizutani/knit/pkg/infra"
)

type UseCase struct {
	clients *infra.Clients

	notifyUsername string
	notifyAvatar   string

	// cmdTimeout bounds each pipeline command. Zero means no bound: a hung
	// command blocks the queue until it exits.
	cmdTimeout time.Duration
}

type Option func(*UseCase)

// WithNotifyProfile overrides the display name and avatar of outgoing
// Discord messages.
func WithNotifyProfile(username, avatarURL string) Option {
	return func(x *UseCase) {
		x.notifyUsername = username
		x.notifyAvatar = avatarURL
	}
}

func WithCommandTimeout(d time.Duration) Option {
	return func(x *UseCase) {
		x.cmdTimeout = d
	}
}

func New(clients *infra.Clients, options ...Option) *UseCase {
	uc := &UseCase{
		clients:        clients,
		notifyUsername: "Knit",
	}
	for _, opt := range options {
		opt(uc)
	}
	return uc
}
