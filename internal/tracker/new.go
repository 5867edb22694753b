package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/nguyentantai21042004/insight-flow/internal/logger"
	"github.com/nguyentantai21042004/insight-flow/internal/processor"
	"github.com/nguyentantai21042004/insight-flow/internal/registry"
)

const defaultMaxConcurrent = 2

type implTracker struct {
	registry  registry.Registry
	processor processor.Processor
	logger    logger.Logger
	opts      Options

	sem     *semaphore
	baseCtx context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup

	mu      sync.Mutex
	cancels map[string]context.CancelFunc

	now func() time.Time
}

// New creates a new Tracker backed by the given registry and processor.
func New(reg registry.Registry, proc processor.Processor, log logger.Logger, opts Options) Tracker {
	if opts.FileDelay < 0 {
		opts.FileDelay = 0
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = defaultMaxConcurrent
	}

	ctx, stop := context.WithCancel(context.Background())
	return &implTracker{
		registry:  reg,
		processor: proc,
		logger:    log,
		opts:      opts,
		sem:       newSemaphore(opts.MaxConcurrent),
		baseCtx:   ctx,
		stop:      stop,
		cancels:   make(map[string]context.CancelFunc),
		now:       time.Now,
	}
}
