package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)

	api := cfg.API()
	assert.Equal(t, DefaultEndpoint, api.Endpoint)
	assert.Equal(t, 30*time.Second, api.Timeout)
	assert.Equal(t, time.Second, api.RateLimit.Period)
	assert.Equal(t, 2, api.RateLimit.Burst)

	dl := cfg.Download()
	assert.Equal(t, ".", dl.Directory)
	assert.Equal(t, 5, dl.Threads)
	assert.False(t, dl.Overwrite)

	assert.Equal(t, "shuller.db", cfg.GetDatabaseDSN())
	assert.Equal(t, "warn", cfg.Log().Level())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[api]
endpoint = "http://localhost:8080/index.php"
timeout = "5s"

[api.rate_limit]
period = "250ms"
burst = 4

[download]
directory = "/tmp/posts"
threads = 2

[logging]
level = "DEBUG"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/index.php", cfg.API().Endpoint)
	assert.Equal(t, 5*time.Second, cfg.API().Timeout)
	assert.Equal(t, 250*time.Millisecond, cfg.API().RateLimit.Period)
	assert.Equal(t, 4, cfg.API().RateLimit.Burst)
	assert.Equal(t, "/tmp/posts", cfg.Download().Directory)
	assert.Equal(t, 2, cfg.Download().Threads)
	assert.True(t, cfg.Log().IsDebug())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
[download]
threads = 2
`)
	t.Setenv("SHULLER_DOWNLOAD__THREADS", "8")
	t.Setenv("SHULLER_API__USER_AGENT", "tester")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Download().Threads)
	assert.Equal(t, "tester", cfg.API().UserAgent)
}

func TestLoad_Validation(t *testing.T) {
	t.Run("missing explicit file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
		require.Error(t, err)
	})

	t.Run("empty endpoint", func(t *testing.T) {
		_, err := Load(writeConfig(t, "[api]\nendpoint = \"\"\n"))
		assert.ErrorIs(t, err, ErrEmptyEndpoint)
	})

	t.Run("zero threads", func(t *testing.T) {
		_, err := Load(writeConfig(t, "[download]\nthreads = 0\n"))
		assert.ErrorIs(t, err, ErrInvalidThreads)
	})
}

func TestConfig_Set(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)

	require.NoError(t, cfg.Set(DOWNLOAD_DIRECTORY, "out"))
	assert.Equal(t, "out", cfg.Download().Directory)
}

func TestHTTPConfig(t *testing.T) {
	t.Run("explicit proxy wins over env", func(t *testing.T) {
		t.Setenv("HTTPS_PROXY", "http://env:1")
		c := NewHTTPConfig("socks5://127.0.0.1:1080", "localhost")
		assert.Equal(t, "socks5://127.0.0.1:1080", c.GetProxy())
		assert.Equal(t, []string{"localhost"}, c.GetNoProxy())
	})

	t.Run("env fallback", func(t *testing.T) {
		t.Setenv("HTTPS_PROXY", "http://env:1")
		t.Setenv("NO_PROXY", "localhost, *.internal ,")
		c := NewHTTPConfig("")
		assert.Equal(t, "http://env:1", c.GetProxy())
		assert.Equal(t, []string{"localhost", "*.internal"}, c.GetNoProxy())
	})
}
