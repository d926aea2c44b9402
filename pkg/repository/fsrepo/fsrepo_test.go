package fsrepo_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/knit/pkg/domain/types"
	"github.com/m-mizutani/knit/pkg/repository"
	"github.com/m-mizutani/knit/pkg/repository/fsrepo"
)

func writeConfig(t *testing.T, dir, owner, repo, content string) {
	t.Helper()
	gt.NoError(t, os.MkdirAll(filepath.Join(dir, owner), 0755))
	gt.NoError(t, os.WriteFile(filepath.Join(dir, owner, repo+".json"), []byte(content), 0644))
}

func TestGet(t *testing.T) {
	ctx := context.Background()

	t.Run("loads a full config", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, "octo", "site", `{
			"pwd": "/srv/site",
			"pre": ["systemctl stop site"],
			"post": ["systemctl start site"],
			"user": "www-data",
			"group": "www-data",
			"notify": "https://discord.example.com/api/webhooks/1/x"
		}`)

		store := fsrepo.New(dir)
		cfg := gt.R1(store.Get(ctx, "octo/site")).NoError(t)
		gt.V(t, cfg.Dir).Equal("/srv/site")
		gt.V(t, cfg.Pre).Equal([]string{"systemctl stop site"})
		gt.V(t, cfg.Post).Equal([]string{"systemctl start site"})
		gt.V(t, cfg.User).Equal("www-data")
		gt.V(t, cfg.Group).Equal("www-data")
		gt.V(t, cfg.Notify).Equal("https://discord.example.com/api/webhooks/1/x")
	})

	t.Run("missing file is ErrNotFound", func(t *testing.T) {
		store := fsrepo.New(t.TempDir())
		_, err := store.Get(ctx, "octo/site")
		gt.Error(t, err)
		gt.True(t, errors.Is(err, repository.ErrNotFound))
	})

	t.Run("user and group default to root", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, "octo", "site", `{"pwd": "/srv/site"}`)

		store := fsrepo.New(dir)
		cfg := gt.R1(store.Get(ctx, "octo/site")).NoError(t)
		gt.V(t, cfg.User).Equal("root")
		gt.V(t, cfg.Group).Equal("root")
	})

	t.Run("missing pwd is invalid", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, "octo", "site", `{"pre": ["echo hi"]}`)

		store := fsrepo.New(dir)
		_, err := store.Get(ctx, "octo/site")
		gt.Error(t, err)
		gt.True(t, errors.Is(err, repository.ErrInvalidConfig))
	})

	t.Run("broken JSON is invalid", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, "octo", "site", `{"pwd": `)

		store := fsrepo.New(dir)
		_, err := store.Get(ctx, "octo/site")
		gt.Error(t, err)
		gt.True(t, errors.Is(err, repository.ErrInvalidConfig))
	})

	t.Run("path traversal names are rejected", func(t *testing.T) {
		store := fsrepo.New(t.TempDir())
		for _, name := range []string{"../../etc/passwd", "octo/../../x", "../x", "octo/..", "noslash", "a/b/c"} {
			_, err := store.Get(ctx, types.RepoFullName(name))
			gt.Error(t, err)
			gt.True(t, errors.Is(err, repository.ErrInvalidConfig))
		}
	})
}
