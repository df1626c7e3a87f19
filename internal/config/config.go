package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

type (
	Config struct {
		PathFile string `toml:"-"`

		AIConfig     AIConfig     `toml:"ai"`
		StoreConfig  StoreConfig  `toml:"store"`
		FetchConfig  FetchConfig  `toml:"fetch"`
		WorkerConfig WorkerConfig `toml:"worker"`
	}

	AIConfig struct {
		Active       AI     `toml:"active"`
		GeminiAPIKey string `toml:"gemini_api_key"`
		Model        Model  `toml:"model"`
	}

	StoreConfig struct {
		DatabaseURL string `toml:"database_url"`
	}

	// FetchConfig bounds the source-context gathering stage. All budgets
	// have defined stop-early behavior, never a hard failure.
	FetchConfig struct {
		FileTimeoutSeconds int    `toml:"file_timeout_seconds"`
		TotalBudgetSeconds int    `toml:"total_budget_seconds"`
		ContextLines       int    `toml:"context_lines"`
		MaxFiles           int    `toml:"max_files"`
		MinFilesForContext int    `toml:"min_files_for_context"`
		MaxPromptLines     int    `toml:"max_prompt_lines"`
		DefaultAccessToken string `toml:"default_access_token"`
	}

	WorkerConfig struct {
		PollIntervalSeconds int `toml:"poll_interval_seconds"`
		Concurrency         int `toml:"concurrency"`
		MaxAttempts         int `toml:"max_attempts"`
		RetryBackoffSeconds int `toml:"retry_backoff_seconds"`
	}
)

const (
	defaultFileTimeoutSeconds = 5
	defaultTotalBudgetSeconds = 15
	defaultContextLines       = 15
	defaultMaxFiles           = 5
	defaultMinFilesForContext = 2
	defaultMaxPromptLines     = 500

	defaultPollIntervalSeconds = 10
	defaultConcurrency         = 4
	defaultMaxAttempts         = 3
	defaultRetryBackoffSecs    = 60
)

func LoadConfig(path string) (*Config, error) {
	var configPath string

	if filepath.Ext(path) == ".toml" {
		configPath = path
	} else {
		configDir := filepath.Join(path, ".crashlens")
		configPath = filepath.Join(configDir, "config.toml")

		if _, err := os.Stat(configDir); os.IsNotExist(err) {
			if err := os.MkdirAll(configDir, 0755); err != nil {
				return nil, fmt.Errorf("error creating config directory: %w", err)
			}
		}
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return createDefaultConfig(configPath)
	}

	var config Config
	if _, err := toml.DecodeFile(configPath, &config); err != nil {
		return nil, fmt.Errorf("error decoding config file: %w", err)
	}
	config.PathFile = configPath
	applyDefaults(&config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("loaded configuration is not valid: %w", err)
	}

	return &config, nil
}

func createDefaultConfig(path string) (*Config, error) {
	config := &Config{PathFile: path}
	applyDefaults(config)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("error creating config directory: %w", err)
	}

	if err := SaveConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

func SaveConfig(config *Config) error {
	if err := validateConfig(config); err != nil {
		return fmt.Errorf("configuration to save is not valid: %w", err)
	}

	if config.PathFile == "" {
		return errors.New("config file path is not set")
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("error encoding configuration: %w", err)
	}

	if err := os.WriteFile(config.PathFile, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("error saving configuration: %w", err)
	}

	return nil
}

func applyDefaults(config *Config) {
	if config.AIConfig.Active == "" {
		config.AIConfig.Active = AIGemini
	}
	if config.AIConfig.Model == "" {
		config.AIConfig.Model = DefaultModelForAI(config.AIConfig.Active)
	}

	fc := &config.FetchConfig
	if fc.FileTimeoutSeconds <= 0 {
		fc.FileTimeoutSeconds = defaultFileTimeoutSeconds
	}
	if fc.TotalBudgetSeconds <= 0 {
		fc.TotalBudgetSeconds = defaultTotalBudgetSeconds
	}
	if fc.ContextLines <= 0 {
		fc.ContextLines = defaultContextLines
	}
	if fc.MaxFiles <= 0 {
		fc.MaxFiles = defaultMaxFiles
	}
	if fc.MinFilesForContext <= 0 {
		fc.MinFilesForContext = defaultMinFilesForContext
	}
	if fc.MaxPromptLines <= 0 {
		fc.MaxPromptLines = defaultMaxPromptLines
	}

	wc := &config.WorkerConfig
	if wc.PollIntervalSeconds <= 0 {
		wc.PollIntervalSeconds = defaultPollIntervalSeconds
	}
	if wc.Concurrency <= 0 {
		wc.Concurrency = defaultConcurrency
	}
	if wc.MaxAttempts <= 0 {
		wc.MaxAttempts = defaultMaxAttempts
	}
	if wc.RetryBackoffSeconds <= 0 {
		wc.RetryBackoffSeconds = defaultRetryBackoffSecs
	}
}

func validateConfig(config *Config) error {
	if config.AIConfig.Active == "" {
		return errors.New("active AI provider cannot be empty")
	}
	if len(ModelsForAI(config.AIConfig.Active)) == 0 {
		return fmt.Errorf("unsupported AI provider: %s", config.AIConfig.Active)
	}
	if config.AIConfig.Model == "" {
		return errors.New("AI model cannot be empty")
	}
	if config.FetchConfig.FileTimeoutSeconds > config.FetchConfig.TotalBudgetSeconds {
		return errors.New("per-file timeout cannot exceed the total fetch budget")
	}
	return nil
}
