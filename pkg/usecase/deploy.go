package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/knit/pkg/domain/model"
	"github.com/m-mizutani/knit/pkg/domain/types"
	"github.com/m-mizutani/knit/pkg/utils/errutil"
	"github.com/m-mizutani/knit/pkg/utils/logging"
)

// sourceSyncCommand is the fixed source-pull stage. Pre/post commands come
// from the repository config; this one never does.
const sourceSyncCommand = "git pull -q"

// HandleEvent processes one queued webhook event: parse and validate the
// payload, resolve the repository config, run the deployment pipeline, and
// send the outcome notification. Errors are returned for the queue to log;
// they never stop the drain loop.
func (x *UseCase) HandleEvent(ctx context.Context, ev *model.WebhookEvent) error {
	payload, err := ev.ParsePayload()
	if err != nil {
		// Invalid body: the event is dropped without notification.
		return err
	}
	if payload.Repository.FullName == "" {
		return goerr.Wrap(types.ErrInvalidPayload, "payload has no repository")
	}

	logger := logging.From(ctx).With(
		slog.Any("repo", payload.Repository.FullName),
		slog.String("kind", payload.Kind().String()),
	)
	ctx = logging.With(ctx, logger)

	cfg, err := x.clients.RepoConfigs().Get(ctx, payload.Repository.FullName)
	if err != nil {
		return goerr.Wrap(err, "failed to resolve repository config", goerr.V("repo", payload.Repository.FullName))
	}

	logger.Info("starting update", slog.String("dir", cfg.Dir))

	var outcome *model.PipelineOutcome
	switch payload.Kind() {
	case model.EventKindTagPush:
		// Tag pushes are announcement-only: no command ever runs.
		logger.Info("tag push detected, skipping commands")
		outcome = &model.PipelineOutcome{}

	case model.EventKindPush:
		outcome = x.deploy(ctx, cfg)

	default:
		// Generic events have nothing to deploy; notify only.
		outcome = &model.PipelineOutcome{}
	}

	x.notify(ctx, cfg, payload, outcome)
	logger.Info("update complete", slog.Bool("has_error", outcome.HasError))

	if outcome.HasError {
		return goerr.Wrap(types.ErrDeployFailed, "pipeline finished with error", goerr.V("repo", payload.Repository.FullName))
	}
	return nil
}

// deploy runs the command stages in strict order with fail-fast
// short-circuiting: working directory check, pre commands, source sync,
// ownership fix, post commands. The first failure stops all remaining
// command stages; the caller still sends the notification.
func (x *UseCase) deploy(ctx context.Context, cfg *model.RepoConfig) *model.PipelineOutcome {
	logger := logging.From(ctx)
	out := &model.PipelineOutcome{}

	if fi, err := os.Stat(cfg.Dir); err != nil || !fi.IsDir() {
		out.AppendLine(fmt.Sprintf("Error: Unable to change directory to: %s", cfg.Dir))
		out.HasError = true
		logger.Error("working directory is not usable", slog.String("dir", cfg.Dir))
		return out
	}

	if !x.runAll(ctx, cfg, out, cfg.Pre) {
		return out
	}

	if !x.runCommand(ctx, cfg, out, sourceSyncCommand) {
		return out
	}

	chownCmd := fmt.Sprintf("chown -R %s:%s %s", cfg.User, cfg.Group, cfg.Dir)
	if !x.runCommand(ctx, cfg, out, chownCmd) {
		return out
	}

	x.runAll(ctx, cfg, out, cfg.Post)
	return out
}

// runAll runs configured commands in declared order, stopping at the first
// failure.
func (x *UseCase) runAll(ctx context.Context, cfg *model.RepoConfig, out *model.PipelineOutcome, commands []string) bool {
	for _, cmd := range commands {
		if !x.runCommand(ctx, cfg, out, cmd) {
			return false
		}
	}
	return true
}

func (x *UseCase) runCommand(ctx context.Context, cfg *model.RepoConfig, out *model.PipelineOutcome, command string) bool {
	logger := logging.From(ctx)
	logger.Info("running command", slog.String("command", command))

	runCtx := ctx
	if x.cmdTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, x.cmdTimeout)
		defer cancel()
	}

	result, err := x.clients.Runner().Run(runCtx, cfg.Dir, command)
	if err != nil {
		out.Append(model.FormatCommandOutput(command, "", err.Error(), 1))
		out.HasError = true
		logger.Error("command could not be spawned", slog.String("command", command), slog.Any("error", err))
		return false
	}

	out.Append(model.FormatCommandOutput(command, result.Stdout, result.Stderr, result.ExitCode))
	if result.ExitCode != 0 {
		out.HasError = true
		logger.Error("command failed", slog.String("command", command), slog.Int("exit_code", result.ExitCode))
		return false
	}

	return true
}

// notify composes and sends the outcome embed. Delivery failure is logged
// and swallowed; it never changes the pipeline result.
func (x *UseCase) notify(ctx context.Context, cfg *model.RepoConfig, payload *model.Payload, out *model.PipelineOutcome) {
	if cfg.Notify == "" {
		return
	}

	embed := model.BuildEmbed(payload, out.Log, out.HasError, logging.CtxTime(ctx))
	model.DecorateEmbed(embed, out.HasError)

	msg := &model.WebhookMessage{
		Embeds:    []*model.Embed{embed},
		Username:  x.notifyUsername,
		AvatarURL: x.notifyAvatar,
	}

	if err := x.clients.Notifier().Send(ctx, cfg.Notify, msg); err != nil {
		errutil.HandleError(ctx, "failed to send notification", err)
	}
}
