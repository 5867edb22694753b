package config

import (
	"os"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:    "empty config gets defaults",
			config:  Config{},
			wantErr: false,
		},
		{
			name: "port out of range",
			config: Config{
				Server: ServerConfig{Port: 70000},
			},
			wantErr: true,
		},
		{
			name: "negative file delay",
			config: Config{
				Processing: ProcessingConfig{FileDelay: -time.Second},
			},
			wantErr: true,
		},
		{
			name: "inbox enabled without path",
			config: Config{
				Inbox: InboxConfig{
					Enabled:        true,
					JobDescription: "Analyze support call transcripts for the QA team",
					Prompt:         "Summarize the key issues raised by the customer",
				},
			},
			wantErr: true,
		},
		{
			name: "inbox prompt too short",
			config: Config{
				Inbox: InboxConfig{
					Enabled:        true,
					Path:           "data/inbox",
					JobDescription: "Analyze support call transcripts for the QA team",
					Prompt:         "Summarize",
				},
			},
			wantErr: true,
		},
		{
			name: "valid inbox",
			config: Config{
				Inbox: InboxConfig{
					Enabled:        true,
					Path:           "data/inbox",
					JobDescription: "Analyze support call transcripts for the QA team",
					Prompt:         "Summarize the key issues raised by the customer",
					Models:         map[string]string{"OpenAI": "gpt-4o"},
				},
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateDefaults(t *testing.T) {
	var cfg Config
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if cfg.Server.Port != 3000 {
		t.Errorf("Port = %d, want 3000", cfg.Server.Port)
	}
	if cfg.Processing.FileDelay != 2*time.Second {
		t.Errorf("FileDelay = %v, want 2s", cfg.Processing.FileDelay)
	}
	if cfg.Processing.ProviderTimeout != 2*time.Minute {
		t.Errorf("ProviderTimeout = %v, want 2m", cfg.Processing.ProviderTimeout)
	}
	if cfg.Processing.MaxRetryAttempts != 3 {
		t.Errorf("MaxRetryAttempts = %d, want 3", cfg.Processing.MaxRetryAttempts)
	}
	if cfg.Providers.Gemini.Model != "gemini-2.5-flash" {
		t.Errorf("Gemini.Model = %q, want gemini-2.5-flash", cfg.Providers.Gemini.Model)
	}
	if cfg.Performance.MaxConcurrent != 2 {
		t.Errorf("MaxConcurrent = %d, want 2", cfg.Performance.MaxConcurrent)
	}
	if len(cfg.DefaultModels()) != 3 {
		t.Errorf("DefaultModels() has %d entries, want 3", len(cfg.DefaultModels()))
	}
}

func TestValidateNormalizesExtensions(t *testing.T) {
	cfg := Config{Upload: UploadConfig{AllowedExtensions: []string{"TXT", " .Md "}}}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	want := []string{".txt", ".md"}
	for i, ext := range cfg.Upload.AllowedExtensions {
		if ext != want[i] {
			t.Errorf("AllowedExtensions[%d] = %q, want %q", i, ext, want[i])
		}
	}
}

func TestLoad(t *testing.T) {
	// Create a temporary config file
	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile.Name())

	content := `
server:
  port: 8081

providers:
  openai:
    model: "gpt-4o"
    api_key: "from-file"
  claude:
    base_url: "http://localhost:9999"

processing:
  file_delay: "500ms"
  provider_timeout: "30s"

upload:
  max_files: 5

logging:
  level: "debug"
  format: "json"
`

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	t.Setenv("OPENAI_API_KEY", "from-env")
	t.Setenv("PORT", "")

	cfg, err := Load(tmpfile.Name())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8081 {
		t.Errorf("Port = %v, want %v", cfg.Server.Port, 8081)
	}
	if cfg.Providers.OpenAI.Model != "gpt-4o" {
		t.Errorf("OpenAI.Model = %v, want %v", cfg.Providers.OpenAI.Model, "gpt-4o")
	}
	if cfg.Providers.OpenAI.APIKey != "from-env" {
		t.Errorf("OpenAI.APIKey = %v, want env override", cfg.Providers.OpenAI.APIKey)
	}
	if cfg.Processing.FileDelay != 500*time.Millisecond {
		t.Errorf("FileDelay = %v, want 500ms", cfg.Processing.FileDelay)
	}
	if cfg.Processing.ProviderTimeout != 30*time.Second {
		t.Errorf("ProviderTimeout = %v, want 30s", cfg.Processing.ProviderTimeout)
	}
	if cfg.Upload.MaxFiles != 5 {
		t.Errorf("MaxFiles = %v, want 5", cfg.Upload.MaxFiles)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %v, want json", cfg.Logging.Format)
	}
}

func TestLoadInvalidFile(t *testing.T) {
	_, err := Load("nonexistent.yaml")
	if err == nil {
		t.Error("Load() should return error for nonexistent file")
	}
}
