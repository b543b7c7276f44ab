package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minios-linux/pagetrans/credentials"
	"github.com/minios-linux/pagetrans/translate"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "en", cfg.Translation.SourceLang)
	assert.Equal(t, "ta", cfg.Translation.TargetLang)
	assert.Equal(t, 3, cfg.Translation.Attempts)
	assert.Equal(t, 1, cfg.Translation.BackoffAttempts)
	assert.Equal(t, time.Second, cfg.Translation.BackoffBase)
	assert.Equal(t, 30*time.Second, cfg.Translation.BackoffMax)
	assert.Equal(t, 5*time.Second, cfg.Translation.Cooldown)
	assert.Equal(t, 32, cfg.Translation.PoolWorkers)
	assert.Equal(t, 0.7, cfg.Translation.FontScale)

	assert.Equal(t, []string{"google", "googletrans", "mymemory"}, cfg.Providers.Enabled)
	assert.Equal(t, 10*time.Second, cfg.Providers.MyMemory.Timeout)

	assert.Equal(t, 2, cfg.Worker.Concurrency)
	assert.Equal(t, "pdf2htmlEX", cfg.Worker.Converter)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "pagetrans:jobs", cfg.Queue.Key)
	assert.True(t, cfg.Storage.UsePathStyle)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pagetrans.yaml")
	content := `
translation:
  source_lang: de
  target_lang: fr
  pool_workers: 8
providers:
  enabled: [mymemory, openai]
  mymemory:
    email: ops@example.com
    rate_limit: 2
  openai:
    api_key: sk-file
logging:
  format: console
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "de", cfg.Translation.SourceLang)
	assert.Equal(t, "fr", cfg.Translation.TargetLang)
	assert.Equal(t, 8, cfg.Translation.PoolWorkers)
	assert.Equal(t, "ops@example.com", cfg.Providers.MyMemory.Email)
	assert.Equal(t, 2.0, cfg.Providers.MyMemory.RateLimit)
	assert.Equal(t, "console", cfg.Logging.Format)

	settings := cfg.ProviderSettings()
	require.Len(t, settings, 2)
	assert.Equal(t, translate.ProviderMyMemory, settings[0].Name)
	assert.Equal(t, "ops@example.com", settings[0].Email)
	assert.Equal(t, 10*time.Second, settings[0].Timeout)
	assert.Equal(t, translate.ProviderOpenAI, settings[1].Name)
	assert.Equal(t, "sk-file", settings[1].APIKey)
	assert.Equal(t, "gpt-4o-mini", settings[1].Model)
}

func TestLoad_PrefixedEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("PAGETRANS_TRANSLATION_TARGET_LANG", "hi")
	t.Setenv("PAGETRANS_WORKER_CONCURRENCY", "4")
	t.Setenv("PAGETRANS_QUEUE_BLOCK_TIMEOUT", "2s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "hi", cfg.Translation.TargetLang)
	assert.Equal(t, 4, cfg.Worker.Concurrency)
	assert.Equal(t, 2*time.Second, cfg.Queue.BlockTimeout)
}

func TestLoad_LegacyEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ENDPOINT", "http://minio:9000")
	t.Setenv("IN_BUCKET", "pdfs")
	t.Setenv("OUT_BUCKET", "html")
	t.Setenv("S3_ACCESS_KEY_ID", "key")
	t.Setenv("S3_SECRET_ACCESS_KEY", "secret")
	t.Setenv("S3_DEFAULT_REGION", "eu-west-1")
	t.Setenv("RENDER_REDIS_URL", "redis://cache:6379/1")
	t.Setenv("DATABASE_URL", "postgres://u:p@db/app")
	t.Setenv("MYMEMORY_EMAIL", "me@example.com")
	t.Setenv("PORT", "9001")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://minio:9000", cfg.Storage.Endpoint)
	assert.Equal(t, "pdfs", cfg.Storage.InputBucket)
	assert.Equal(t, "html", cfg.Storage.OutputBucket)
	assert.Equal(t, "key", cfg.Storage.AccessKeyID)
	assert.Equal(t, "secret", cfg.Storage.SecretAccessKey)
	assert.Equal(t, "eu-west-1", cfg.Storage.Region)
	assert.Equal(t, "redis://cache:6379/1", cfg.Queue.RedisURL)
	assert.Equal(t, "postgres://u:p@db/app", cfg.Database.URL)
	assert.Equal(t, "me@example.com", cfg.Providers.MyMemory.Email)
	assert.Equal(t, 9001, cfg.Server.Port)
	assert.NoError(t, cfg.ValidatePipeline())
}

func TestLoad_PrefixedBeatsLegacy(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("IN_BUCKET", "legacy")
	t.Setenv("PAGETRANS_STORAGE_INPUT_BUCKET", "new")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "new", cfg.Storage.InputBucket)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func validConfig(t *testing.T) *Config {
	t.Helper()
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)
	return cfg
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"no target":            func(c *Config) { c.Translation.TargetLang = "" },
		"auto target":          func(c *Config) { c.Translation.TargetLang = "auto" },
		"zero attempts":        func(c *Config) { c.Translation.Attempts = 0 },
		"backoff > attempts":   func(c *Config) { c.Translation.BackoffAttempts = 4 },
		"max below base":       func(c *Config) { c.Translation.BackoffMax = time.Millisecond },
		"no workers":           func(c *Config) { c.Translation.PoolWorkers = 0 },
		"negative page limit":  func(c *Config) { c.Translation.PageConcurrency = -1 },
		"zero font scale":      func(c *Config) { c.Translation.FontScale = 0 },
		"no providers":         func(c *Config) { c.Providers.Enabled = nil },
		"unknown provider":     func(c *Config) { c.Providers.Enabled = []string{"deepl"} },
		"duplicate provider":   func(c *Config) { c.Providers.Enabled = []string{"google", "google"} },
		"no worker":            func(c *Config) { c.Worker.Concurrency = 0 },
		"bad port":             func(c *Config) { c.Server.Port = 70000 },
		"bad log level":        func(c *Config) { c.Logging.Level = "loud" },
		"bad log format":       func(c *Config) { c.Logging.Format = "xml" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := validConfig(t)
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidatePipeline_ListsMissing(t *testing.T) {
	cfg := validConfig(t)
	err := cfg.ValidatePipeline()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.url, storage.input_bucket, storage.output_bucket")
}

func TestDispatcherOptions(t *testing.T) {
	cfg := validConfig(t)
	opts := cfg.DispatcherOptions()
	assert.Equal(t, 3, opts.Attempts)
	assert.Equal(t, 1, opts.BackoffAttempts)
	require.NotNil(t, opts.Backoff)
	assert.Equal(t, translate.DefaultBackoff, *opts.Backoff)
}

func TestApplyCredentials(t *testing.T) {
	cfg := validConfig(t)
	cfg.Providers.OpenAI.APIKey = ""
	cfg.Providers.Gemini.APIKey = "from-env"
	cfg.Providers.MyMemory.Email = ""

	cfg.ApplyCredentials(credentials.Store{
		"openai":   {Key: "sk-stored", BaseURL: "http://proxy/v1"},
		"gemini":   {Key: "stored"},
		"mymemory": {Email: "me@example.com"},
	})

	assert.Equal(t, "sk-stored", cfg.Providers.OpenAI.APIKey)
	assert.Equal(t, "http://proxy/v1", cfg.Providers.OpenAI.BaseURL)
	assert.Equal(t, "from-env", cfg.Providers.Gemini.APIKey)
	assert.Equal(t, "me@example.com", cfg.Providers.MyMemory.Email)

	cfg.ApplyCredentials(nil)
}
