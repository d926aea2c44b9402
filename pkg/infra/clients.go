package infra

import (
	"net/http"

	"github.com/m-mizutani/knit/pkg/domain/interfaces"
	"github.com/m-mizutani/knit/pkg/infra/discord"
	"github.com/m-mizutani/knit/pkg/infra/shell"
)

type Clients struct {
	httpClient  HTTPClient
	runner      interfaces.Runner
	repoConfigs interfaces.RepoConfigs
	notifier    interfaces.Notifier
}

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Option func(*Clients)

func New(options ...Option) *Clients {
	client := &Clients{
		httpClient: http.DefaultClient,
		runner:     shell.New("sh"),
	}

	for _, opt := range options {
		opt(client)
	}

	if client.notifier == nil {
		client.notifier = discord.New(discord.WithHTTPClient(client.httpClient))
	}

	return client
}

func (x *Clients) HTTPClient() HTTPClient {
	return x.httpClient
}
func (x *Clients) Runner() interfaces.Runner {
	return x.runner
}
func (x *Clients) RepoConfigs() interfaces.RepoConfigs {
	return x.repoConfigs
}
func (x *Clients) Notifier() interfaces.Notifier {
	return x.notifier
}

func WithHTTPClient(client HTTPClient) Option {
	return func(x *Clients) {
		x.httpClient = client
	}
}

func WithRunner(runner interfaces.Runner) Option {
	return func(x *Clients) {
		x.runner = runner
	}
}

func WithRepoConfigs(repo interfaces.RepoConfigs) Option {
	return func(x *Clients) {
		x.repoConfigs = repo
	}
}

func WithNotifier(notifier interfaces.Notifier) Option {
	return func(x *Clients) {
		x.notifier = notifier
	}
}
