package provider

import (
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/nguyentantai21042004/insight-flow/internal/config"
	"github.com/nguyentantai21042004/insight-flow/internal/logger"
	"github.com/nguyentantai21042004/insight-flow/internal/models"
)

// NewSet builds the three adapters from configuration, in models.Providers order
func NewSet(cfg config.ProvidersConfig, log logger.Logger) []Provider {
	return []Provider{
		NewOpenAI(cfg.OpenAI, log),
		NewClaude(cfg.Claude, log),
		NewGemini(cfg.Gemini, log),
	}
}

func newRestyClient(cfg config.ProviderConfig) *resty.Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Accept", "application/json")
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}
	return client
}

func modelOrDefault(model, fallback string) string {
	if m := strings.TrimSpace(model); m != "" {
		return m
	}
	return fallback
}

func newResult(model, filename, text string, tokens *int, start time.Time) *models.ProviderResult {
	return &models.ProviderResult{
		Model:    model,
		Filename: filename,
		Analysis: text,
		Metadata: models.ResultMetadata{
			TokenCount:       tokens,
			ProcessingTimeMs: time.Since(start).Milliseconds(),
		},
		CompletedAt: time.Now(),
	}
}
