package model

import (
	"fmt"
	"strings"
)

// CommandResult is the captured output of one shell command.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// PipelineOutcome aggregates the formatted output of every stage of one
// pipeline run. It is produced once per run and handed to the notification
// composer.
type PipelineOutcome struct {
	Log      string
	HasError bool
}

func (x *PipelineOutcome) Append(s string) {
	x.Log += s
}

func (x *PipelineOutcome) AppendLine(s string) {
	x.Log += s + "\n"
}

// FormatCommandOutput renders one command report line for the aggregated log:
// a check or cross mark with the command text, the trimmed stdout, an ERRORS
// section for stderr, and the exit code on failure.
func FormatCommandOutput(cmd, stdout, stderr string, exitCode int) string {
	mark := "✅ "
	if exitCode != 0 {
		mark = "❌ "
	}

	var b strings.Builder
	b.WriteString(mark + cmd + "\n")
	if stdout != "" {
		b.WriteString(strings.TrimSpace(stdout) + "\n")
	}
	if stderr != "" {
		b.WriteString("ERRORS: \n" + strings.TrimSpace(stderr) + "\n")
	}
	if exitCode != 0 {
		b.WriteString(fmt.Sprintf("Exit Code: %d\n\n", exitCode))
	}

	return b.String()
}
