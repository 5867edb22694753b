package processor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nguyentantai21042004/insight-flow/internal/models"
	"github.com/nguyentantai21042004/insight-flow/internal/provider"
)

// Process fans the transcript out to every provider and waits for all of them
func (p *implProcessor) Process(ctx context.Context, req Request, onSettle SettleFunc) int {
	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
	)

	for _, prov := range p.providers {
		wg.Add(1)
		go func(prov provider.Provider) {
			defer wg.Done()

			result, err := p.call(ctx, prov, req)
			if err != nil {
				p.logger.Warn(ctx, "%s failed for %s: %v", prov.Name(), req.Filename, err)
			} else {
				succeeded.Add(1)
				p.logger.Info(ctx, "%s finished %s in %dms", prov.Name(), req.Filename, result.Metadata.ProcessingTimeMs)
			}

			if onSettle != nil {
				onSettle(prov.Name(), result, err)
			}
		}(prov)
	}

	wg.Wait()
	return int(succeeded.Load())
}

// call runs one provider with its own deadline and turns a panic into an error
func (p *implProcessor) call(ctx context.Context, prov provider.Provider, req Request) (result *models.ProviderResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%s adapter panicked: %v", prov.Name(), r)
		}
	}()

	callCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	result, err = prov.Analyze(callCtx, provider.Request{
		Transcript: req.Transcript,
		Prompt:     req.Prompt,
		Model:      req.Models[prov.Name()],
		Filename:   req.Filename,
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, fmt.Errorf("%s returned no result", prov.Name())
	}
	if result.Metadata.ProcessingTimeMs == 0 {
		result.Metadata.ProcessingTimeMs = time.Since(start).Milliseconds()
	}
	return result, nil
}
