package processor

import (
	"context"

	"github.com/nguyentantai21042004/insight-flow/internal/models"
)

// Request describes one transcript to fan out to every provider.
type Request struct {
	Filename   string
	Transcript string
	Prompt     string
	Models     map[models.ProviderName]string
}

// SettleFunc is called once per provider as soon as its call settles.
// Exactly one of result and err is non-nil. It may be called concurrently.
type SettleFunc func(name models.ProviderName, result *models.ProviderResult, err error)

// Processor defines the interface for the per-file provider fan-out
type Processor interface {
	// Process calls every provider concurrently and returns the number of successes
	// once all of them have settled.
	Process(ctx context.Context, req Request, onSettle SettleFunc) int
}
