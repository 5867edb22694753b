package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/nguyentantai21042004/insight-flow/internal/models"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Providers   ProvidersConfig   `yaml:"providers"`
	Processing  ProcessingConfig  `yaml:"processing"`
	Upload      UploadConfig      `yaml:"upload"`
	Inbox       InboxConfig       `yaml:"inbox"`
	Logging     LoggingConfig     `yaml:"logging"`
	Performance PerformanceConfig `yaml:"performance"`
}

type ServerConfig struct {
	Host         string   `yaml:"host"`
	Port         int      `yaml:"port"`
	Mode         string   `yaml:"mode"`
	StaticDir    string   `yaml:"static_dir"`
	AllowOrigins []string `yaml:"allow_origins"`
}

type ProviderConfig struct {
	APIKey    string        `yaml:"api_key"`
	BaseURL   string        `yaml:"base_url"`
	Model     string        `yaml:"model"`
	MaxTokens int           `yaml:"max_tokens"`
	Timeout   time.Duration `yaml:"timeout"`
}

type ProvidersConfig struct {
	OpenAI ProviderConfig `yaml:"openai"`
	Claude ProviderConfig `yaml:"claude"`
	Gemini ProviderConfig `yaml:"gemini"`
}

type ProcessingConfig struct {
	FileDelay       time.Duration `yaml:"file_delay"`
	ProviderTimeout time.Duration `yaml:"provider_timeout"`
	// MaxRetryAttempts is declared for compatibility; no retry is performed.
	MaxRetryAttempts int `yaml:"max_retry_attempts"`
}

type UploadConfig struct {
	MaxFiles          int      `yaml:"max_files"`
	MaxFileSize       int64    `yaml:"max_file_size"`
	AllowedExtensions []string `yaml:"allowed_extensions"`
}

type InboxConfig struct {
	Enabled        bool              `yaml:"enabled"`
	Path           string            `yaml:"path"`
	SettleDelay    time.Duration     `yaml:"settle_delay"`
	JobDescription string            `yaml:"job_description"`
	Prompt         string            `yaml:"prompt"`
	Models         map[string]string `yaml:"models"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type PerformanceConfig struct {
	MaxConcurrent int `yaml:"max_concurrent"`
}

// Load reads the YAML file at path, applies .env and environment overrides and validates the result
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	c.Providers.OpenAI.APIKey = getEnv("OPENAI_API_KEY", c.Providers.OpenAI.APIKey)
	c.Providers.Claude.APIKey = getEnv("ANTHROPIC_API_KEY", c.Providers.Claude.APIKey)
	c.Providers.Gemini.APIKey = getEnv("GEMINI_API_KEY", c.Providers.Gemini.APIKey)
	c.Server.Port = getEnvAsInt("PORT", c.Server.Port)
	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
}

func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	if c.Upload.MaxFiles < 0 {
		return fmt.Errorf("upload.max_files must not be negative")
	}
	if c.Upload.MaxFileSize < 0 {
		return fmt.Errorf("upload.max_file_size must not be negative")
	}
	if c.Processing.FileDelay < 0 {
		return fmt.Errorf("processing.file_delay must not be negative")
	}

	if c.Server.Port == 0 {
		c.Server.Port = 3000
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "release"
	}
	if len(c.Server.AllowOrigins) == 0 {
		c.Server.AllowOrigins = []string{"*"}
	}
	if c.Processing.FileDelay == 0 {
		c.Processing.FileDelay = 2 * time.Second
	}
	if c.Processing.ProviderTimeout == 0 {
		c.Processing.ProviderTimeout = 2 * time.Minute
	}
	if c.Processing.MaxRetryAttempts == 0 {
		c.Processing.MaxRetryAttempts = 3
	}
	if c.Upload.MaxFiles == 0 {
		c.Upload.MaxFiles = 10
	}
	if c.Upload.MaxFileSize == 0 {
		c.Upload.MaxFileSize = 10 << 20
	}
	if len(c.Upload.AllowedExtensions) == 0 {
		c.Upload.AllowedExtensions = []string{".txt", ".md"}
	}
	for i, ext := range c.Upload.AllowedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		c.Upload.AllowedExtensions[i] = ext
	}
	if c.Performance.MaxConcurrent == 0 {
		c.Performance.MaxConcurrent = 2
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}

	if c.Providers.OpenAI.Model == "" {
		c.Providers.OpenAI.Model = "gpt-4o-mini"
	}
	if c.Providers.Claude.Model == "" {
		c.Providers.Claude.Model = "claude-3-5-haiku-latest"
	}
	if c.Providers.Gemini.Model == "" {
		c.Providers.Gemini.Model = "gemini-2.5-flash"
	}
	if c.Providers.Claude.MaxTokens == 0 {
		c.Providers.Claude.MaxTokens = 4096
	}

	if c.Inbox.Enabled {
		if c.Inbox.Path == "" {
			return fmt.Errorf("inbox.path is required when inbox is enabled")
		}
		job := c.Inbox.JobConfig()
		if err := job.Validate(); err != nil {
			return fmt.Errorf("inbox: %w", err)
		}
		if c.Inbox.SettleDelay == 0 {
			c.Inbox.SettleDelay = 500 * time.Millisecond
		}
	}

	return nil
}

// DefaultModels returns the configured default model per provider
func (c *Config) DefaultModels() map[models.ProviderName]string {
	return map[models.ProviderName]string{
		models.ProviderOpenAI: c.Providers.OpenAI.Model,
		models.ProviderClaude: c.Providers.Claude.Model,
		models.ProviderGemini: c.Providers.Gemini.Model,
	}
}

// JobConfig builds the job configuration used for transcripts dropped into the inbox
func (i InboxConfig) JobConfig() *models.JobConfig {
	job := &models.JobConfig{
		JobDescription: i.JobDescription,
		Prompt:         i.Prompt,
		Models:         make(map[models.ProviderName]string, len(i.Models)),
	}
	for name, model := range i.Models {
		job.Models[models.ProviderName(strings.ToLower(name))] = model
	}
	return job
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
