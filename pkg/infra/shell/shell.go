package shell

import (
	"bytes"
	"context"
	"errors"
	"os/exec"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/knit/pkg/domain/model"
)

// Client runs deployment commands through a shell binary. The working
// directory is passed per call, never via process-wide chdir, so runs of
// different repositories cannot corrupt each other's relative paths.
type Client struct {
	shellPath string
}

func New(shellPath string) *Client {
	return &Client{shellPath: shellPath}
}

func (x *Client) Run(ctx context.Context, dir, command string) (*model.CommandResult, error) {
	cmd := exec.CommandContext(ctx, x.shellPath, "-c", command)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := &model.CommandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return nil, goerr.Wrap(err, "failed to run command",
			goerr.V("command", command),
			goerr.V("dir", dir),
		)
	}

	return result, nil
}
