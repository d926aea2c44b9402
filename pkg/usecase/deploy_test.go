package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/knit/pkg/domain/model"
	"github.com/m-mizutani/knit/pkg/domain/types"
	"github.com/m-mizutani/knit/pkg/infra"
	"github.com/m-mizutani/knit/pkg/repository/memory"
	"github.com/m-mizutani/knit/pkg/usecase"
)

// fakeRunner returns canned results per command and records call order.
type fakeRunner struct {
	mu       sync.Mutex
	commands []string
	results  map[string]*model.CommandResult
}

func (x *fakeRunner) Run(_ context.Context, _ string, command string) (*model.CommandResult, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.commands = append(x.commands, command)

	if r, ok := x.results[command]; ok {
		return r, nil
	}
	return &model.CommandResult{}, nil
}

func (x *fakeRunner) calls() []string {
	x.mu.Lock()
	defer x.mu.Unlock()
	return append([]string{}, x.commands...)
}

type fakeNotifier struct {
	mu       sync.Mutex
	urls     []string
	messages []*model.WebhookMessage
	err      error
}

func (x *fakeNotifier) Send(_ context.Context, webhookURL string, msg *model.WebhookMessage) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.urls = append(x.urls, webhookURL)
	x.messages = append(x.messages, msg)
	return x.err
}

func (x *fakeNotifier) sent() []*model.WebhookMessage {
	x.mu.Lock()
	defer x.mu.Unlock()
	return append([]*model.WebhookMessage{}, x.messages...)
}

type testHarness struct {
	uc       *usecase.UseCase
	runner   *fakeRunner
	notifier *fakeNotifier
	cfg      *model.RepoConfig
}

func newHarness(t *testing.T, cfg *model.RepoConfig) *testHarness {
	t.Helper()

	if cfg.Dir == "" {
		cfg.Dir = t.TempDir()
	}
	if cfg.User == "" {
		cfg.User = "root"
	}
	if cfg.Group == "" {
		cfg.Group = "root"
	}
	if cfg.Notify == "" {
		cfg.Notify = "https://discord.example.com/api/webhooks/1/x"
	}

	repos := memory.New()
	repos.Put("octo/site", cfg)

	runner := &fakeRunner{results: map[string]*model.CommandResult{}}
	notifier := &fakeNotifier{}

	clients := infra.New(
		infra.WithRunner(runner),
		infra.WithRepoConfigs(repos),
		infra.WithNotifier(notifier),
	)

	return &testHarness{
		uc:       usecase.New(clients),
		runner:   runner,
		notifier: notifier,
		cfg:      cfg,
	}
}

func pushEvent(t *testing.T, raw string) *model.WebhookEvent {
	t.Helper()
	return gt.R1(model.NewWebhookEvent([]byte(raw))).NoError(t)
}

func TestDeployPipeline(t *testing.T) {
	ctx := context.Background()

	t.Run("runs all stages in order", func(t *testing.T) {
		h := newHarness(t, &model.RepoConfig{
			Pre:   []string{"echo pre1", "echo pre2"},
			Post:  []string{"echo post"},
			User:  "www-data",
			Group: "www-data",
		})

		ev := pushEvent(t, `{"ref":"refs/heads/main","commits":[],"repository":{"full_name":"octo/site"}}`)
		gt.NoError(t, h.uc.HandleEvent(ctx, ev))

		chown := fmt.Sprintf("chown -R www-data:www-data %s", h.cfg.Dir)
		gt.V(t, h.runner.calls()).Equal([]string{
			"echo pre1",
			"echo pre2",
			"git pull -q",
			chown,
			"echo post",
		})

		msgs := h.notifier.sent()
		gt.A(t, msgs).Length(1)
		gt.V(t, msgs[0].Embeds[0].Title).Equal("✅ New Commits Pushed to octo/site")
		gt.V(t, msgs[0].Embeds[0].Color).Equal(model.ColorSuccess)
	})

	t.Run("pre command failure short-circuits everything after it", func(t *testing.T) {
		h := newHarness(t, &model.RepoConfig{
			Pre:  []string{"echo ok", "exit 1", "echo never"},
			Post: []string{"echo post"},
		})
		h.runner.results["exit 1"] = &model.CommandResult{Stderr: "boom", ExitCode: 1}

		ev := pushEvent(t, `{"ref":"refs/heads/main","commits":[],"repository":{"full_name":"octo/site"}}`)
		err := h.uc.HandleEvent(ctx, ev)
		gt.Error(t, err)
		gt.True(t, errors.Is(err, types.ErrDeployFailed))

		// Only the stages up to and including the failing one ran.
		gt.V(t, h.runner.calls()).Equal([]string{"echo ok", "exit 1"})

		msgs := h.notifier.sent()
		gt.A(t, msgs).Length(1)
		embed := msgs[0].Embeds[0]
		gt.V(t, embed.Color).Equal(model.ColorError)
		gt.S(t, embed.Title).Contains("❌ Error:")
		gt.S(t, embed.Description).Contains("❌ exit 1")
		gt.S(t, embed.Description).Contains("ERRORS: \nboom")
		gt.S(t, embed.Description).Contains("Exit Code: 1")
		gt.False(t, strings.Contains(embed.Description, "echo never"))
	})

	t.Run("chown failure is logged like any other stage", func(t *testing.T) {
		h := newHarness(t, &model.RepoConfig{})
		chown := fmt.Sprintf("chown -R root:root %s", h.cfg.Dir)
		h.runner.results[chown] = &model.CommandResult{Stderr: "not permitted", ExitCode: 1}

		ev := pushEvent(t, `{"ref":"refs/heads/main","commits":[],"repository":{"full_name":"octo/site"}}`)
		gt.Error(t, h.uc.HandleEvent(ctx, ev))

		gt.V(t, h.runner.calls()).Equal([]string{"git pull -q", chown})

		msgs := h.notifier.sent()
		gt.A(t, msgs).Length(1)
		gt.S(t, msgs[0].Embeds[0].Description).Contains("❌ " + chown)
		gt.S(t, msgs[0].Embeds[0].Description).Contains("Exit Code: 1")
	})

	t.Run("missing working directory skips all commands", func(t *testing.T) {
		h := newHarness(t, &model.RepoConfig{Dir: "/no/such/dir/knit-test"})

		ev := pushEvent(t, `{"ref":"refs/heads/main","commits":[],"repository":{"full_name":"octo/site"}}`)
		gt.Error(t, h.uc.HandleEvent(ctx, ev))

		gt.A(t, h.runner.calls()).Length(0)

		msgs := h.notifier.sent()
		gt.A(t, msgs).Length(1)
		gt.S(t, msgs[0].Embeds[0].Description).Contains("Error: Unable to change directory to: /no/such/dir/knit-test")
	})
}

func TestTagPushShortCircuit(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, &model.RepoConfig{
		Pre:  []string{"echo pre"},
		Post: []string{"echo post"},
	})

	ev := pushEvent(t, `{"ref":"refs/tags/v1.0.0","commits":[],"repository":{"full_name":"octo/site","html_url":"https://github.com/octo/site"},"pusher":{"name":"octocat"}}`)
	gt.NoError(t, h.uc.HandleEvent(ctx, ev))

	// Announcement only: zero commands, one notification, no log.
	gt.A(t, h.runner.calls()).Length(0)

	msgs := h.notifier.sent()
	gt.A(t, msgs).Length(1)
	embed := msgs[0].Embeds[0]
	gt.V(t, embed.Title).Equal("✅ site v1.0.0 has been released! 🎉")
	gt.V(t, embed.Color).Equal(model.ColorTag)
}

func TestGenericEvent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, &model.RepoConfig{Pre: []string{"echo pre"}})

	ev := pushEvent(t, `{"action":"opened","repository":{"full_name":"octo/site"}}`)
	gt.NoError(t, h.uc.HandleEvent(ctx, ev))

	gt.A(t, h.runner.calls()).Length(0)

	msgs := h.notifier.sent()
	gt.A(t, msgs).Length(1)
	gt.V(t, msgs[0].Embeds[0].Title).Equal("✅ octo/site - opened")
}

func TestHandleEventErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("payload without repository is dropped", func(t *testing.T) {
		h := newHarness(t, &model.RepoConfig{})
		ev := pushEvent(t, `{"commits":[]}`)
		gt.Error(t, h.uc.HandleEvent(ctx, ev))
		gt.A(t, h.notifier.sent()).Length(0)
	})

	t.Run("non-object payload is dropped without notification", func(t *testing.T) {
		h := newHarness(t, &model.RepoConfig{})
		ev := pushEvent(t, `[1,2,3]`)
		gt.Error(t, h.uc.HandleEvent(ctx, ev))
		gt.A(t, h.notifier.sent()).Length(0)
		gt.A(t, h.runner.calls()).Length(0)
	})

	t.Run("unknown repository is dropped without notification", func(t *testing.T) {
		h := newHarness(t, &model.RepoConfig{})
		ev := pushEvent(t, `{"commits":[],"repository":{"full_name":"other/repo"}}`)
		gt.Error(t, h.uc.HandleEvent(ctx, ev))
		gt.A(t, h.notifier.sent()).Length(0)
		gt.A(t, h.runner.calls()).Length(0)
	})

	t.Run("notification delivery failure does not fail the run", func(t *testing.T) {
		h := newHarness(t, &model.RepoConfig{})
		h.notifier.err = errors.New("discord is down")

		ev := pushEvent(t, `{"ref":"refs/heads/main","commits":[],"repository":{"full_name":"octo/site"}}`)
		gt.NoError(t, h.uc.HandleEvent(ctx, ev))
	})

	t.Run("no notify URL means no notification", func(t *testing.T) {
		repos := memory.New()
		dir := t.TempDir()
		repos.Put("octo/site", &model.RepoConfig{Dir: dir, User: "root", Group: "root"})

		runner := &fakeRunner{results: map[string]*model.CommandResult{}}
		notifier := &fakeNotifier{}
		clients := infra.New(
			infra.WithRunner(runner),
			infra.WithRepoConfigs(repos),
			infra.WithNotifier(notifier),
		)
		uc := usecase.New(clients)

		ev := pushEvent(t, `{"ref":"refs/heads/main","commits":[],"repository":{"full_name":"octo/site"}}`)
		gt.NoError(t, uc.HandleEvent(ctx, ev))
		gt.A(t, notifier.sent()).Length(0)
	})
}
