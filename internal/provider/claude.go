package provider

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/nguyentantai21042004/insight-flow/internal/config"
	"github.com/nguyentantai21042004/insight-flow/internal/logger"
	"github.com/nguyentantai21042004/insight-flow/internal/models"
)

const (
	defaultClaudeBaseURL = "https://api.anthropic.com"
	anthropicVersion     = "2023-06-01"
)

type claudeProvider struct {
	cfg    config.ProviderConfig
	http   *resty.Client
	logger logger.Logger
}

// NewClaude creates the messages-API adapter
func NewClaude(cfg config.ProviderConfig, log logger.Logger) Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultClaudeBaseURL
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	return &claudeProvider{
		cfg:    cfg,
		http:   newRestyClient(cfg),
		logger: log,
	}
}

func (p *claudeProvider) Name() models.ProviderName { return models.ProviderClaude }

func (p *claudeProvider) DefaultModel() string { return p.cfg.Model }

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	System    string          `json:"system"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage *struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (p *claudeProvider) Analyze(ctx context.Context, req Request) (*models.ProviderResult, error) {
	start := time.Now()
	model := modelOrDefault(req.Model, p.cfg.Model)

	if p.cfg.APIKey == "" {
		return nil, &Error{Provider: p.Name(), Kind: KindAuth, Message: "api key is not configured"}
	}

	body := claudeRequest{
		Model:     model,
		MaxTokens: p.cfg.MaxTokens,
		System:    req.Prompt,
		Messages:  []claudeMessage{{Role: "user", Content: req.Transcript}},
	}

	p.logger.Debug(ctx, "claude request: model=%s file=%s chars=%d", model, req.Filename, len(req.Transcript))

	resp, err := p.http.R().
		SetContext(ctx).
		SetHeader("x-api-key", p.cfg.APIKey).
		SetHeader("anthropic-version", anthropicVersion).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post("/v1/messages")
	if err != nil {
		return nil, transportError(ctx, p.Name(), err)
	}
	if resp.IsError() {
		return nil, statusError(p.Name(), resp.StatusCode(), resp.Body())
	}

	var out claudeResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, malformedError(p.Name(), "decode response", err)
	}

	var b strings.Builder
	for _, block := range out.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return nil, malformedError(p.Name(), "no text content in response", nil)
	}

	var tokens *int
	if out.Usage != nil {
		n := out.Usage.InputTokens + out.Usage.OutputTokens
		tokens = &n
	}

	return newResult(model, req.Filename, text, tokens, start), nil
}
