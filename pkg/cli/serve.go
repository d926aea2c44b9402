package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gots/slice"
	"github.com/m-mizutani/knit/pkg/cli/config"
	"github.com/m-mizutani/knit/pkg/controller/queue"
	"github.com/m-mizutani/knit/pkg/controller/server"
	"github.com/m-mizutani/knit/pkg/domain/types"
	"github.com/m-mizutani/knit/pkg/infra"
	"github.com/m-mizutani/knit/pkg/infra/shell"
	"github.com/m-mizutani/knit/pkg/repository/fsrepo"
	"github.com/m-mizutani/knit/pkg/usecase"
	"github.com/m-mizutani/knit/pkg/utils/logging"

	"github.com/urfave/cli/v3"
)

func serveCommand() *cli.Command {
	var (
		addr       string
		reposDir   string
		secret     string
		shellPath  string
		cmdTimeout time.Duration

		discord config.Discord
		sentry  config.Sentry
	)
	serveFlags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Binding address",
			Value:       "127.0.0.1:3456",
			Sources:     cli.EnvVars("KNIT_ADDR"),
			Destination: &addr,
		},
		&cli.StringFlag{
			Name:        "repos-dir",
			Usage:       "Directory of per-repository config files (<owner>/<repo>.json)",
			Value:       "./repos",
			Sources:     cli.EnvVars("KNIT_REPOS_DIR"),
			Destination: &reposDir,
		},
		&cli.StringFlag{
			Name:        "webhook-secret",
			Usage:       "Shared secret for X-Hub-Signature-256 verification",
			Sources:     cli.EnvVars("KNIT_WEBHOOK_SECRET", "GITHUB_WEBHOOK_SECRET"),
			Destination: &secret,
		},
		&cli.StringFlag{
			Name:        "shell-path",
			Usage:       "Shell binary used to run pipeline commands",
			Value:       "sh",
			Sources:     cli.EnvVars("KNIT_SHELL_PATH"),
			Destination: &shellPath,
		},
		&cli.DurationFlag{
			Name:        "command-timeout",
			Usage:       "Per-command timeout (0 = no timeout)",
			Sources:     cli.EnvVars("KNIT_COMMAND_TIMEOUT"),
			Destination: &cmdTimeout,
		},
	}

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Server mode",
		Flags: slice.Flatten(
			serveFlags,
			discord.Flags(),
			sentry.Flags(),
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			logging.Default().Info("starting serve",
				slog.Any("Addr", addr),
				slog.Any("ReposDir", reposDir),
				slog.Any("ShellPath", shellPath),
				slog.Any("CommandTimeout", cmdTimeout),
				slog.Any("Discord", discord),
				slog.Any("Sentry", sentry),
			)

			if secret == "" {
				logging.Default().Warn("webhook secret is not set, all deliveries will be rejected")
			}

			if err := sentry.Configure(ctx); err != nil {
				return err
			}

			clients := infra.New(
				infra.WithRunner(shell.New(shellPath)),
				infra.WithRepoConfigs(fsrepo.New(reposDir)),
			)

			uc := usecase.New(clients,
				usecase.WithNotifyProfile(discord.Username(), discord.AvatarURL()),
				usecase.WithCommandTimeout(cmdTimeout),
			)

			q := queue.New(uc)
			if err := q.Start(context.Background()); err != nil {
				return err
			}

			s := server.New(q, server.WithWebhookSecret(types.WebhookSecret(secret)))

			serverErr := make(chan error, 1)
			httpServer := &http.Server{
				Addr:    addr,
				Handler: s.Mux(),

				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       30 * time.Second,
				WriteTimeout:      30 * time.Second,
			}

			go func() {
				logging.Default().Info("starting http server", "addr", addr)
				if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
					serverErr <- goerr.Wrap(err, "failed to listen and serve")
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-serverErr:
				return err

			case sig := <-quit:
				logging.Default().Info("shutting down server", "signal", sig)

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				if err := httpServer.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server")
				}
			}

			// Drain on exit: wait for the in-flight pipeline run before
			// dropping whatever is still queued.
			if err := q.Close(); err != nil {
				return err
			}

			return nil
		},
	}
}
