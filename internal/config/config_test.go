package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "server:\n  addr: \"\"\n")

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", c.Server.Addr)
	assert.Equal(t, "memory", c.Cache.Kind)
	assert.Equal(t, "@seu.edu.bd", c.Auth.DomainSuffix)
	assert.Equal(t, "3s", c.Auth.ResolveWait)
	assert.Equal(t, 3*time.Second, c.ResolveWaitDuration())
	assert.Equal(t, 5*time.Second, c.UserinfoTimeoutDuration())
	assert.Equal(t, "light", c.Theme.Default)
	assert.Equal(t, "theme", c.Theme.CookieName)
	assert.Equal(t, "auto", c.SMTP.TLS)
}

func TestLoad_FullYAML(t *testing.T) {
	path := writeConfig(t, `
app:
  app_env: prod
server:
  addr: ":9090"
  cors_allowed_origins: ["https://seumatch.example"]
auth:
  domain_suffix: "@seu.edu.bd"
  resolve_wait: "500ms"
  provider:
    api_key: "k"
cache:
  kind: redis
  redis:
    addr: "localhost:6379"
theme:
  default: dark
`)

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "prod", c.App.Env)
	assert.Equal(t, ":9090", c.Server.Addr)
	assert.Equal(t, []string{"https://seumatch.example"}, c.Server.CORSAllowedOrigins)
	assert.Equal(t, 500*time.Millisecond, c.ResolveWaitDuration())
	assert.Equal(t, "redis", c.Cache.Kind)
	assert.Equal(t, "dark", c.Theme.Default)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":7070")
	t.Setenv("AUTH_DOMAIN_SUFFIX", "@eng.seu.edu.bd")
	t.Setenv("AUTH_PROVIDER_API_KEY", "env-key")
	t.Setenv("CACHE_KIND", "redis")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("PUSH_ENABLED", "true")
	t.Setenv("LOG_LEVEL", "debug")

	path := writeConfig(t, "server:\n  addr: \":8080\"\n")
	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7070", c.Server.Addr)
	assert.Equal(t, "@eng.seu.edu.bd", c.Auth.DomainSuffix)
	assert.Equal(t, "env-key", c.Auth.Provider.APIKey)
	assert.Equal(t, "redis", c.Cache.Kind)
	assert.Equal(t, "redis:6379", c.Cache.Redis.Addr)
	assert.Equal(t, 3, c.Cache.Redis.DB)
	assert.True(t, c.Push.Enabled)
	assert.Equal(t, "debug", c.Log.Level)
}

func TestLoad_InvalidDuration(t *testing.T) {
	path := writeConfig(t, "auth:\n  resolve_wait: \"pronto\"\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate_DomainSuffix(t *testing.T) {
	path := writeConfig(t, "auth:\n  domain_suffix: \"seu.edu.bd\"\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "domain_suffix")
}

func TestValidate_Theme(t *testing.T) {
	path := writeConfig(t, "theme:\n  default: neon\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "theme.default")
}

func TestValidate_AutocertNeedsHosts(t *testing.T) {
	path := writeConfig(t, "server:\n  autocert:\n    enabled: true\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "autocert")
}

func TestResolveWaitDuration_BadValueFallsBack(t *testing.T) {
	c := &Config{}
	c.Auth.ResolveWait = "-1s"
	assert.Equal(t, 3*time.Second, c.ResolveWaitDuration())
}
