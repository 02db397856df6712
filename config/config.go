package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. LEXIGUIDE_LLM__API_KEY
const EnvPrefix = "LEXIGUIDE_"

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	LLM       LLMConfig       `yaml:"llm"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Minio     MinioConfig     `yaml:"minio"`
	Log       LogConfig       `yaml:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	StaticDir       string        `yaml:"static_dir"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LLMConfig points at an OpenAI-compatible chat completions endpoint
type LLMConfig struct {
	BaseURL         string        `yaml:"base_url"`
	APIKey          string        `yaml:"api_key"`
	Model           string        `yaml:"model"`
	Temperature     float32       `yaml:"temperature"`
	CallTimeout     time.Duration `yaml:"call_timeout"`
	MaxPromptTokens int           `yaml:"max_prompt_tokens"`
}

type AnalysisConfig struct {
	MaxConcurrency   int `yaml:"max_concurrency"`
	MaxContractBytes int `yaml:"max_contract_bytes"`
}

// MinioConfig is optional; import from object storage is disabled when Endpoint is empty
type MinioConfig struct {
	Endpoint       string `yaml:"endpoint"`
	AccessKey      string `yaml:"access_key"`
	SecretKey      string `yaml:"secret_key"`
	Bucket         string `yaml:"bucket"`
	Region         string `yaml:"region"`
	UseSSL         bool   `yaml:"use_ssl"`
	MaxObjectBytes int64  `yaml:"max_object_bytes"`
}

// Enabled reports whether object storage is configured
func (m MinioConfig) Enabled() bool {
	return m.Endpoint != ""
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

type RateLimitConfig struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

// Load reads the YAML file at path, applies LEXIGUIDE_* environment overrides
// (a .env file in the working directory is honoured) and fills in defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	cfg.setDefaults()
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	// Missing .env is fine
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return err
	}

	if len(k.Keys()) == 0 {
		return nil
	}
	return k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "yaml"})
}

func (c *Config) setDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.RequestTimeout == 0 {
		c.Server.RequestTimeout = 90 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 5 * time.Second
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "https://api.openai.com/v1"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4o-mini"
	}
	if c.LLM.CallTimeout == 0 {
		c.LLM.CallTimeout = 45 * time.Second
	}
	if c.LLM.MaxPromptTokens == 0 {
		c.LLM.MaxPromptTokens = 100000
	}
	if c.Analysis.MaxConcurrency == 0 {
		c.Analysis.MaxConcurrency = 4
	}
	if c.Analysis.MaxContractBytes == 0 {
		c.Analysis.MaxContractBytes = 512 * 1024
	}
	if c.Minio.Region == "" {
		c.Minio.Region = "us-east-1"
	}
	if c.Minio.MaxObjectBytes == 0 {
		c.Minio.MaxObjectBytes = 1 << 20
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = "lexiguide"
	}
	if c.RateLimit.Requests == 0 {
		c.RateLimit.Requests = 30
	}
	if c.RateLimit.Window == 0 {
		c.RateLimit.Window = time.Minute
	}
}

// Validate reports settings the server cannot start with
func (c *Config) Validate() error {
	var errs []error
	if c.LLM.APIKey == "" {
		errs = append(errs, errors.New("llm.api_key is required"))
	}
	if c.LLM.CallTimeout < 0 {
		errs = append(errs, errors.New("llm.call_timeout must be positive"))
	}
	if c.Analysis.MaxConcurrency < 1 {
		errs = append(errs, errors.New("analysis.max_concurrency must be at least 1"))
	}
	if c.Minio.Enabled() && c.Minio.Bucket == "" {
		errs = append(errs, errors.New("minio.bucket is required when minio.endpoint is set"))
	}
	return errors.Join(errs...)
}
