package processor

import (
	"time"

	"github.com/nguyentantai21042004/insight-flow/internal/logger"
	"github.com/nguyentantai21042004/insight-flow/internal/provider"
)

type implProcessor struct {
	providers []provider.Provider
	timeout   time.Duration
	logger    logger.Logger
}

// New creates a new Processor instance. A non-positive timeout disables the per-call deadline.
func New(providers []provider.Provider, timeout time.Duration, log logger.Logger) Processor {
	return &implProcessor{
		providers: providers,
		timeout:   timeout,
		logger:    log,
	}
}
