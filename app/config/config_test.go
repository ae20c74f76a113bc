package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "addr.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9090"
parser:
  max_branches: 500
cache:
  backend: redis
  ttl: 30m
classifier:
  meili:
    index: fias
`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", c.Server.Port)
	assert.Equal(t, 500, c.Parser.MaxBranches)
	assert.Equal(t, "redis", c.Cache.Backend)
	assert.Equal(t, 30*time.Minute, c.Cache.TTL)
	assert.Equal(t, "fias", c.Classifier.Meili.Index)
	assert.Equal(t, "http://localhost:7700", c.Classifier.Meili.Host)
	assert.Equal(t, 4, c.Jobs.Workers)
}

func TestLoad_RejectsUnknownBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "addr.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cache:\n  backend: memcached\n"), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "memcached")
}

func TestOverride_FromEnvironment(t *testing.T) {
	t.Setenv("ADDR_SERVER_PORT", "7000")
	t.Setenv("ADDR_CACHE_BACKEND", "none")
	t.Setenv("ADDR_JOBS_WORKERS", "8")
	t.Setenv("ADDR_PARSER_USE_LIBPOSTAL", "true")

	c := Default()
	require.NoError(t, c.Override(NewViper()))
	assert.Equal(t, "7000", c.Server.Port)
	assert.Equal(t, "none", c.Cache.Backend)
	assert.Equal(t, 8, c.Jobs.Workers)
	assert.True(t, c.Parser.UseLibpostal)
	assert.Equal(t, "memory", c.Classifier.Backend)
}
