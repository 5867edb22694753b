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

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

type openAIProvider struct {
	cfg    config.ProviderConfig
	http   *resty.Client
	logger logger.Logger
}

// NewOpenAI creates the chat-completions adapter
func NewOpenAI(cfg config.ProviderConfig, log logger.Logger) Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOpenAIBaseURL
	}
	return &openAIProvider{
		cfg:    cfg,
		http:   newRestyClient(cfg),
		logger: log,
	}
}

func (p *openAIProvider) Name() models.ProviderName { return models.ProviderOpenAI }

func (p *openAIProvider) DefaultModel() string { return p.cfg.Model }

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model    string          `json:"model"`
	Messages []openAIMessage `json:"messages"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

func (p *openAIProvider) Analyze(ctx context.Context, req Request) (*models.ProviderResult, error) {
	start := time.Now()
	model := modelOrDefault(req.Model, p.cfg.Model)

	if p.cfg.APIKey == "" {
		return nil, &Error{Provider: p.Name(), Kind: KindAuth, Message: "api key is not configured"}
	}

	body := openAIRequest{
		Model: model,
		Messages: []openAIMessage{
			{Role: "system", Content: req.Prompt},
			{Role: "user", Content: req.Transcript},
		},
	}

	p.logger.Debug(ctx, "openai request: model=%s file=%s chars=%d", model, req.Filename, len(req.Transcript))

	resp, err := p.http.R().
		SetContext(ctx).
		SetAuthToken(p.cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post("/chat/completions")
	if err != nil {
		return nil, transportError(ctx, p.Name(), err)
	}
	if resp.IsError() {
		return nil, statusError(p.Name(), resp.StatusCode(), resp.Body())
	}

	var out openAIResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, malformedError(p.Name(), "decode response", err)
	}
	if len(out.Choices) == 0 {
		return nil, malformedError(p.Name(), "no choices in response", nil)
	}
	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		return nil, malformedError(p.Name(), "empty completion", nil)
	}

	var tokens *int
	if out.Usage != nil {
		n := out.Usage.TotalTokens
		tokens = &n
	}

	return newResult(model, req.Filename, text, tokens, start), nil
}
