// Package config loads pagetrans settings from an optional YAML file,
// PAGETRANS_* environment variables and the plain variable names used by
// existing deployments (ENDPOINT, IN_BUCKET, DATABASE_URL, ...).
package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/minios-linux/pagetrans/credentials"
	"github.com/minios-linux/pagetrans/translate"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PAGETRANS"

// Config holds all configuration.
type Config struct {
	Translation TranslationConfig `mapstructure:"translation"`
	Providers   ProvidersConfig   `mapstructure:"providers"`
	Storage     StorageConfig     `mapstructure:"storage"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Queue       QueueConfig       `mapstructure:"queue"`
	Worker      WorkerConfig      `mapstructure:"worker"`
	Server      ServerConfig      `mapstructure:"server"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// TranslationConfig controls the orchestration engine.
type TranslationConfig struct {
	SourceLang      string        `mapstructure:"source_lang"`
	TargetLang      string        `mapstructure:"target_lang"`
	Attempts        int           `mapstructure:"attempts"`
	BackoffAttempts int           `mapstructure:"backoff_attempts"`
	BackoffBase     time.Duration `mapstructure:"backoff_base"`
	BackoffMax      time.Duration `mapstructure:"backoff_max"`
	Cooldown        time.Duration `mapstructure:"cooldown"`
	PoolWorkers     int           `mapstructure:"pool_workers"`
	PageConcurrency int           `mapstructure:"page_concurrency"`
	FontScale       float64       `mapstructure:"font_scale"`
	CacheFile       string        `mapstructure:"cache_file"`
}

// ProvidersConfig lists the enabled providers, in tie-break order, and
// their settings.
type ProvidersConfig struct {
	Enabled     []string           `mapstructure:"enabled"`
	Proxy       string             `mapstructure:"proxy"`
	Google      HTTPProviderConfig `mapstructure:"google"`
	Googletrans HTTPProviderConfig `mapstructure:"googletrans"`
	MyMemory    MyMemoryConfig     `mapstructure:"mymemory"`
	OpenAI      LLMProviderConfig  `mapstructure:"openai"`
	Gemini      LLMProviderConfig  `mapstructure:"gemini"`
}

// HTTPProviderConfig configures a web backend.
type HTTPProviderConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit float64       `mapstructure:"rate_limit"`
}

// MyMemoryConfig configures the MyMemory backend.
type MyMemoryConfig struct {
	HTTPProviderConfig `mapstructure:",squash"`
	Email              string `mapstructure:"email"`
}

// LLMProviderConfig configures an LLM backend.
type LLMProviderConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	BaseURL     string        `mapstructure:"base_url"`
	Temperature float32       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
	RateLimit   float64       `mapstructure:"rate_limit"`
}

// StorageConfig configures the S3-compatible object store.
type StorageConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Region          string `mapstructure:"region"`
	InputBucket     string `mapstructure:"input_bucket"`
	OutputBucket    string `mapstructure:"output_bucket"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
}

// DatabaseConfig configures the job status store.
type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// QueueConfig configures the Redis job queue.
type QueueConfig struct {
	RedisURL     string        `mapstructure:"redis_url"`
	Key          string        `mapstructure:"key"`
	BlockTimeout time.Duration `mapstructure:"block_timeout"`
}

// WorkerConfig configures the job consumer.
type WorkerConfig struct {
	Concurrency int    `mapstructure:"concurrency"`
	Converter   string `mapstructure:"converter"`
	WorkDir     string `mapstructure:"work_dir"`
}

// ServerConfig configures the health and metrics HTTP server.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// MetricsConfig configures Prometheus exposition.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// legacyEnv maps keys to the variable names of existing deployments.
var legacyEnv = map[string]string{
	"storage.endpoint":          "ENDPOINT",
	"storage.access_key_id":     "S3_ACCESS_KEY_ID",
	"storage.secret_access_key": "S3_SECRET_ACCESS_KEY",
	"storage.region":            "S3_DEFAULT_REGION",
	"storage.input_bucket":      "IN_BUCKET",
	"storage.output_bucket":     "OUT_BUCKET",
	"queue.redis_url":           "RENDER_REDIS_URL",
	"database.url":              "DATABASE_URL",
	"server.port":               "PORT",
	"providers.mymemory.email":  "MYMEMORY_EMAIL",
	"providers.openai.api_key":  "OPENAI_API_KEY",
	"providers.gemini.api_key":  "GEMINI_API_KEY",
}

// Load reads configuration from file and environment variables. An empty
// path looks for pagetrans.yaml in the working directory and
// /etc/pagetrans/; a missing file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("pagetrans")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/pagetrans/")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Translation
	v.SetDefault("translation.source_lang", "en")
	v.SetDefault("translation.target_lang", "ta")
	v.SetDefault("translation.attempts", 3)
	v.SetDefault("translation.backoff_attempts", 1)
	v.SetDefault("translation.backoff_base", "1s")
	v.SetDefault("translation.backoff_max", "30s")
	v.SetDefault("translation.cooldown", "5s")
	v.SetDefault("translation.pool_workers", 32)
	v.SetDefault("translation.page_concurrency", 0)
	v.SetDefault("translation.font_scale", 0.7)
	v.SetDefault("translation.cache_file", "")

	// Providers
	v.SetDefault("providers.enabled", []string{"google", "googletrans", "mymemory"})
	v.SetDefault("providers.google.timeout", "10s")
	v.SetDefault("providers.googletrans.timeout", "10s")
	v.SetDefault("providers.mymemory.timeout", "10s")
	v.SetDefault("providers.openai.model", "gpt-4o-mini")
	v.SetDefault("providers.openai.temperature", 0.2)
	v.SetDefault("providers.openai.timeout", "60s")
	v.SetDefault("providers.gemini.model", "gemini-2.0-flash")
	v.SetDefault("providers.gemini.temperature", 0.2)
	v.SetDefault("providers.gemini.timeout", "60s")

	// Storage
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.use_path_style", true)

	// Database
	v.SetDefault("database.max_conns", 4)

	// Queue
	v.SetDefault("queue.redis_url", "redis://localhost:6379/0")
	v.SetDefault("queue.key", "pagetrans:jobs")
	v.SetDefault("queue.block_timeout", "5s")

	// Worker
	v.SetDefault("worker.concurrency", 2)
	v.SetDefault("worker.converter", "pdf2htmlEX")

	// Server
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("server.shutdown_timeout", "15s")

	// Metrics
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	t := c.Translation
	if strings.TrimSpace(t.SourceLang) == "" || strings.TrimSpace(t.TargetLang) == "" {
		return fmt.Errorf("source and target language are required")
	}
	if t.TargetLang == translate.AutoDetect {
		return fmt.Errorf("target language cannot be %q", translate.AutoDetect)
	}
	if t.Attempts < 1 {
		return fmt.Errorf("translation attempts must be at least 1")
	}
	if t.BackoffAttempts < 1 || t.BackoffAttempts > t.Attempts {
		return fmt.Errorf("backoff attempts must be between 1 and %d", t.Attempts)
	}
	if t.BackoffBase <= 0 || t.BackoffMax < t.BackoffBase {
		return fmt.Errorf("invalid backoff: base %v, max %v", t.BackoffBase, t.BackoffMax)
	}
	if t.Cooldown < 0 {
		return fmt.Errorf("cooldown must not be negative")
	}
	if t.PoolWorkers <= 0 {
		return fmt.Errorf("pool workers must be positive")
	}
	if t.PageConcurrency < 0 {
		return fmt.Errorf("page concurrency must not be negative")
	}
	if t.FontScale <= 0 {
		return fmt.Errorf("font scale must be positive")
	}

	if len(c.Providers.Enabled) == 0 {
		return fmt.Errorf("at least one provider must be enabled")
	}
	seen := make(map[string]bool)
	for _, name := range c.Providers.Enabled {
		if !knownProvider(name) {
			return fmt.Errorf("unknown provider %q", name)
		}
		if seen[name] {
			return fmt.Errorf("provider %q enabled twice", name)
		}
		seen[name] = true
	}

	if c.Worker.Concurrency <= 0 {
		return fmt.Errorf("worker concurrency must be positive")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if _, err := zap.ParseAtomicLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid log level %q", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("invalid log format %q (valid: json, console)", c.Logging.Format)
	}
	return nil
}

// ValidatePipeline checks the settings only the queue worker needs.
func (c *Config) ValidatePipeline() error {
	var missing []string
	for key, val := range map[string]string{
		"storage.input_bucket":  c.Storage.InputBucket,
		"storage.output_bucket": c.Storage.OutputBucket,
		"database.url":          c.Database.URL,
		"queue.redis_url":       c.Queue.RedisURL,
	} {
		if strings.TrimSpace(val) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("missing settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

func knownProvider(name string) bool {
	switch translate.ProviderName(name) {
	case translate.ProviderGoogle, translate.ProviderGoogletrans, translate.ProviderMyMemory,
		translate.ProviderOpenAI, translate.ProviderGemini:
		return true
	}
	return false
}

// ProviderSettings converts the enabled providers into builder settings,
// in configuration order.
func (c *Config) ProviderSettings() []translate.ProviderSettings {
	p := c.Providers
	out := make([]translate.ProviderSettings, 0, len(p.Enabled))
	for _, name := range p.Enabled {
		s := translate.ProviderSettings{Name: translate.ProviderName(name), Proxy: p.Proxy}
		switch s.Name {
		case translate.ProviderGoogle:
			s.BaseURL, s.Timeout, s.RateLimit = p.Google.BaseURL, p.Google.Timeout, p.Google.RateLimit
		case translate.ProviderGoogletrans:
			s.BaseURL, s.Timeout, s.RateLimit = p.Googletrans.BaseURL, p.Googletrans.Timeout, p.Googletrans.RateLimit
		case translate.ProviderMyMemory:
			s.BaseURL, s.Timeout, s.RateLimit = p.MyMemory.BaseURL, p.MyMemory.Timeout, p.MyMemory.RateLimit
			s.Email = p.MyMemory.Email
		case translate.ProviderOpenAI:
			s.APIKey, s.Model, s.BaseURL, s.Temperature = p.OpenAI.APIKey, p.OpenAI.Model, p.OpenAI.BaseURL, p.OpenAI.Temperature
			s.Timeout, s.RateLimit = p.OpenAI.Timeout, p.OpenAI.RateLimit
		case translate.ProviderGemini:
			s.APIKey, s.Model, s.BaseURL, s.Temperature = p.Gemini.APIKey, p.Gemini.Model, p.Gemini.BaseURL, p.Gemini.Temperature
			s.Timeout, s.RateLimit = p.Gemini.Timeout, p.Gemini.RateLimit
		}
		out = append(out, s)
	}
	return out
}

// DispatcherOptions returns the retry policy of the dispatcher.
func (c *Config) DispatcherOptions() translate.DispatcherOptions {
	return translate.DispatcherOptions{
		Attempts:        c.Translation.Attempts,
		BackoffAttempts: c.Translation.BackoffAttempts,
		Backoff:         &translate.Backoff{Base: c.Translation.BackoffBase, Max: c.Translation.BackoffMax},
	}
}

// ApplyCredentials fills provider secrets left empty by the file and the
// environment from the credential store.
func (c *Config) ApplyCredentials(store credentials.Store) {
	fill := func(dst *string, val string) {
		if *dst == "" {
			*dst = val
		}
	}
	if info := store.Get(string(translate.ProviderOpenAI)); info != nil {
		fill(&c.Providers.OpenAI.APIKey, info.Key)
		fill(&c.Providers.OpenAI.BaseURL, info.BaseURL)
	}
	if info := store.Get(string(translate.ProviderGemini)); info != nil {
		fill(&c.Providers.Gemini.APIKey, info.Key)
		fill(&c.Providers.Gemini.BaseURL, info.BaseURL)
	}
	if info := store.Get(string(translate.ProviderMyMemory)); info != nil {
		fill(&c.Providers.MyMemory.Email, info.Email)
	}
}
