package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir()) // no stray .env
	t.Setenv("DUEL_CONFIG", "")

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", c.Server.Addr)
	assert.Equal(t, 10, c.Draft.PoolSize)
	assert.Equal(t, 4, c.Draft.HiddenCount)
	assert.Equal(t, time.Second, c.Draft.GraceInterval)
	assert.Equal(t, 30*time.Second, c.Draft.PickTimeout)
	assert.Empty(t, c.Draft.Banlist)
	assert.Empty(t, c.Database.DSN)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DUEL_CONFIG", "")
	t.Setenv("DUEL_SERVER_ADDR", ":9999")
	t.Setenv("DUEL_DRAFT_POOL_SIZE", "6")
	t.Setenv("DUEL_DRAFT_HIDDEN_COUNT", "2")
	t.Setenv("DUEL_DRAFT_BANLIST", "caocao, liubei")
	t.Setenv("DUEL_DRAFT_PICK_TIMEOUT", "5s")

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9999", c.Server.Addr)
	assert.Equal(t, 6, c.Draft.PoolSize)
	assert.Equal(t, []string{"caocao", "liubei"}, c.Draft.Banlist)
	assert.Equal(t, 5*time.Second, c.Draft.PickTimeout)

	opts := c.DraftOptions()
	assert.Equal(t, 6, opts.PoolSize)
	assert.Equal(t, 2, opts.HiddenCount)
	assert.Equal(t, []string{"caocao", "liubei"}, opts.Banned)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "duel.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
draft:
  pool_size: 8
  generals: [a, b, c, d, e, f, g, h, i]
database:
  dsn: postgres://localhost/duel
`), 0o600))
	t.Setenv("DUEL_CONFIG", path)

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8, c.Draft.PoolSize)
	assert.Len(t, c.Draft.Generals, 9)
	assert.Equal(t, "postgres://localhost/duel", c.Database.DSN)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DUEL_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate_CollectsEveryProblem(t *testing.T) {
	c := Config{
		Server: ServerConfig{Addr: ":8080"},
		Draft: DraftConfig{
			PoolSize:      7,
			HiddenCount:   9,
			GraceInterval: time.Second,
		},
	}
	err := c.Validate()
	assert.ErrorIs(t, err, ErrOddPoolSize)
	assert.ErrorIs(t, err, ErrHiddenCount)

	c.Draft.PoolSize = 4
	c.Draft.HiddenCount = 2
	err = c.Validate()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrOddPoolSize)
}
