package provider

import (
	"context"
	"errors"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/nguyentantai21042004/insight-flow/internal/config"
	"github.com/nguyentantai21042004/insight-flow/internal/logger"
	"github.com/nguyentantai21042004/insight-flow/internal/models"
)

type geminiProvider struct {
	cfg    config.ProviderConfig
	logger logger.Logger
}

// NewGemini creates the Gemini adapter on top of the genai SDK
func NewGemini(cfg config.ProviderConfig, log logger.Logger) Provider {
	return &geminiProvider{
		cfg:    cfg,
		logger: log,
	}
}

func (p *geminiProvider) Name() models.ProviderName { return models.ProviderGemini }

func (p *geminiProvider) DefaultModel() string { return p.cfg.Model }

func (p *geminiProvider) Analyze(ctx context.Context, req Request) (*models.ProviderResult, error) {
	start := time.Now()
	model := modelOrDefault(req.Model, p.cfg.Model)

	if p.cfg.APIKey == "" {
		return nil, &Error{Provider: p.Name(), Kind: KindAuth, Message: "api key is not configured"}
	}

	var httpOpts genai.HTTPOptions
	if p.cfg.BaseURL != "" {
		httpOpts.BaseURL = p.cfg.BaseURL
	}
	if p.cfg.Timeout > 0 {
		timeout := p.cfg.Timeout
		httpOpts.Timeout = &timeout
	}
	clientCfg := &genai.ClientConfig{
		APIKey:      p.cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: httpOpts,
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, &Error{Provider: p.Name(), Kind: KindAuth, Message: "create client", Cause: err}
	}

	p.logger.Debug(ctx, "gemini request: model=%s file=%s chars=%d", model, req.Filename, len(req.Transcript))

	genCfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.Prompt, genai.RoleUser),
	}
	result, err := client.Models.GenerateContent(ctx, model, genai.Text(req.Transcript), genCfg)
	if err != nil {
		return nil, classifyGeminiError(ctx, err)
	}

	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return nil, malformedError(p.Name(), "empty response from Gemini", nil)
	}

	var text string
	for _, part := range result.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			text += part.Text
		}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, malformedError(p.Name(), "no text parts in response", nil)
	}

	var tokens *int
	if result.UsageMetadata != nil && result.UsageMetadata.TotalTokenCount > 0 {
		n := int(result.UsageMetadata.TotalTokenCount)
		tokens = &n
	}

	return newResult(model, req.Filename, text, tokens, start), nil
}

// classifyGeminiError maps SDK errors onto provider error kinds by inspecting the message.
func classifyGeminiError(ctx context.Context, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &Error{Provider: models.ProviderGemini, Kind: KindTimeout, Cause: err}
	}

	msg := err.Error()
	kind := KindUpstream
	switch {
	case strings.Contains(msg, "deadline exceeded") || strings.Contains(msg, "Timeout exceeded"):
		kind = KindTimeout
	case strings.Contains(msg, "429") || strings.Contains(msg, "quota") || strings.Contains(msg, "RESOURCE_EXHAUSTED"):
		kind = KindQuota
	case strings.Contains(msg, "401") || strings.Contains(msg, "403") ||
		strings.Contains(msg, "API key") || strings.Contains(msg, "PERMISSION_DENIED") || strings.Contains(msg, "UNAUTHENTICATED"):
		kind = KindAuth
	}
	return &Error{Provider: models.ProviderGemini, Kind: kind, Message: "generate content", Cause: err}
}
