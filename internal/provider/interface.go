package provider

import (
	"context"

	"github.com/nguyentantai21042004/insight-flow/internal/models"
)

// Request is the input of one provider call. Only the prompt and the
// transcript reach a provider; the job description never does.
type Request struct {
	Transcript string
	Prompt     string
	Model      string
	Filename   string
}

// Provider performs one text-generation call for one transcript.
type Provider interface {
	Name() models.ProviderName
	DefaultModel() string
	Analyze(ctx context.Context, req Request) (*models.ProviderResult, error)
}
