package cli

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/knit/pkg/domain/types"
	"github.com/m-mizutani/knit/pkg/repository/fsrepo"
	"github.com/urfave/cli/v3"
)

func configCommand() *cli.Command {
	var reposDir string

	return &cli.Command{
		Name:  "config",
		Usage: "Repository config management",
		Commands: []*cli.Command{
			{
				Name:  "check",
				Usage: "Validate every repository config under the repos directory",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "repos-dir",
						Usage:       "Directory of per-repository config files",
						Value:       "./repos",
						Sources:     cli.EnvVars("KNIT_REPOS_DIR"),
						Destination: &reposDir,
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return checkConfigs(ctx, reposDir)
				},
			},
		},
	}
}

var (
	markOK   = color.New(color.FgGreen, color.Bold).Sprint("ok")
	markFail = color.New(color.FgRed, color.Bold).Sprint("invalid")
)

// checkConfigs loads every <owner>/<repo>.json through the same store the
// server uses, so a passing check means the server will accept the config.
func checkConfigs(ctx context.Context, reposDir string) error {
	store := fsrepo.New(reposDir)

	var checked, failed int
	err := filepath.WalkDir(reposDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return nil
		}

		rel, err := filepath.Rel(reposDir, path)
		if err != nil {
			return goerr.Wrap(err, "failed to resolve config path", goerr.V("path", path))
		}
		name := types.RepoFullName(strings.TrimSuffix(filepath.ToSlash(rel), ".json"))

		checked++
		if _, err := store.Get(ctx, name); err != nil {
			failed++
			fmt.Printf("%s  %s: %v\n", markFail, name, err)
			return nil
		}

		fmt.Printf("%s  %s\n", markOK, name)
		return nil
	})
	if err != nil {
		return goerr.Wrap(err, "failed to walk repos directory", goerr.V("dir", reposDir))
	}

	fmt.Printf("\n%d configs checked, %d invalid\n", checked, failed)
	if failed > 0 {
		return goerr.Wrap(types.ErrInvalidOption, "invalid repository configs found", goerr.V("count", failed))
	}
	return nil
}
