package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	t.Cleanup(func() { os.Remove(tmpFile.Name()) })

	if _, err := tmpFile.WriteString(content); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	tmpFile.Close()
	return tmpFile.Name()
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  static_dir: "./web"
  request_timeout: 2m
llm:
  base_url: "https://llm.test/v1"
  api_key: "test-key"
  model: "gpt-4o"
  temperature: 0.2
  call_timeout: 30s
  max_prompt_tokens: 8000
analysis:
  max_concurrency: 8
minio:
  endpoint: "localhost:9000"
  access_key: "minioadmin"
  secret_key: "minioadmin"
  bucket: "contracts"
log:
  level: "debug"
  format: "json"
telemetry:
  enabled: true
rate_limit:
  requests: 10
  window: 30s
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Server.RequestTimeout != 2*time.Minute {
		t.Errorf("Expected request_timeout 2m, got %v", cfg.Server.RequestTimeout)
	}
	if cfg.LLM.BaseURL != "https://llm.test/v1" {
		t.Errorf("Expected base_url https://llm.test/v1, got %s", cfg.LLM.BaseURL)
	}
	if cfg.LLM.CallTimeout != 30*time.Second {
		t.Errorf("Expected call_timeout 30s, got %v", cfg.LLM.CallTimeout)
	}
	if cfg.LLM.MaxPromptTokens != 8000 {
		t.Errorf("Expected max_prompt_tokens 8000, got %d", cfg.LLM.MaxPromptTokens)
	}
	if cfg.Analysis.MaxConcurrency != 8 {
		t.Errorf("Expected max_concurrency 8, got %d", cfg.Analysis.MaxConcurrency)
	}
	if !cfg.Minio.Enabled() {
		t.Error("Expected minio to be enabled")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Expected log level debug, got %s", cfg.Log.Level)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Expected log format json, got %s", cfg.Log.Format)
	}
	if !cfg.Telemetry.Enabled {
		t.Error("Expected telemetry to be enabled")
	}
	if cfg.RateLimit.Requests != 10 || cfg.RateLimit.Window != 30*time.Second {
		t.Errorf("Unexpected rate limit %+v", cfg.RateLimit)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected valid config, got %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
llm:
  api_key: "test-key"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.LLM.CallTimeout != 45*time.Second {
		t.Errorf("Expected default call_timeout 45s, got %v", cfg.LLM.CallTimeout)
	}
	if cfg.LLM.Model != "gpt-4o-mini" {
		t.Errorf("Expected default model gpt-4o-mini, got %s", cfg.LLM.Model)
	}
	if cfg.Analysis.MaxConcurrency != 4 {
		t.Errorf("Expected default max_concurrency 4, got %d", cfg.Analysis.MaxConcurrency)
	}
	if cfg.Minio.Enabled() {
		t.Error("Expected minio to be disabled by default")
	}
	if cfg.Minio.Region != "us-east-1" {
		t.Errorf("Expected default minio region us-east-1, got %s", cfg.Minio.Region)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Expected default log level info, got %s", cfg.Log.Level)
	}
	if cfg.Log.Format != "text" {
		t.Errorf("Expected default log format text, got %s", cfg.Log.Format)
	}
	if cfg.Telemetry.ServiceName != "lexiguide" {
		t.Errorf("Expected default service name lexiguide, got %s", cfg.Telemetry.ServiceName)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
llm:
  api_key: "file-key"
  model: "gpt-4o"
`)

	t.Setenv("LEXIGUIDE_LLM__API_KEY", "env-key")
	t.Setenv("LEXIGUIDE_LLM__CALL_TIMEOUT", "10s")
	t.Setenv("LEXIGUIDE_SERVER__PORT", "7070")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.LLM.APIKey != "env-key" {
		t.Errorf("Expected api_key from env, got %s", cfg.LLM.APIKey)
	}
	if cfg.LLM.Model != "gpt-4o" {
		t.Errorf("Expected model from file to survive, got %s", cfg.LLM.Model)
	}
	if cfg.LLM.CallTimeout != 10*time.Second {
		t.Errorf("Expected call_timeout 10s, got %v", cfg.LLM.CallTimeout)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Expected port 7070, got %d", cfg.Server.Port)
	}
}

func TestLoadNonExistent(t *testing.T) {
	_, err := Load("nonexistent.yaml")
	if err == nil {
		t.Error("Expected error for non-existent file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "invalid: yaml: content:")

	_, err := Load(path)
	if err == nil {
		t.Error("Expected error for invalid YAML")
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	cfg.setDefaults()
	cfg.Minio.Endpoint = "localhost:9000"
	cfg.Analysis.MaxConcurrency = -1

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Expected validation error")
	}

	for _, want := range []string{"llm.api_key", "max_concurrency", "minio.bucket"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Expected error to mention %s, got %v", want, err)
		}
	}
}
