package processor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyentantai21042004/insight-flow/internal/logger"
	"github.com/nguyentantai21042004/insight-flow/internal/models"
	"github.com/nguyentantai21042004/insight-flow/internal/provider"
	"github.com/nguyentantai21042004/insight-flow/internal/provider/providertest"
)

type settled struct {
	mu      sync.Mutex
	results map[models.ProviderName]*models.ProviderResult
	errs    map[models.ProviderName]error
}

func newSettled() *settled {
	return &settled{
		results: map[models.ProviderName]*models.ProviderResult{},
		errs:    map[models.ProviderName]error{},
	}
}

func (s *settled) record(name models.ProviderName, res *models.ProviderResult, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.errs[name] = err
		return
	}
	s.results[name] = res
}

func request() Request {
	return Request{
		Filename:   "call.txt",
		Transcript: "Customer: the app crashes on login.",
		Prompt:     "Summarize the key issues raised by the customer",
		Models:     map[models.ProviderName]string{models.ProviderClaude: "claude-custom"},
	}
}

func TestProcess(t *testing.T) {
	ctx := context.Background()

	t.Run("Should settle every provider and count successes", func(t *testing.T) {
		j := &providertest.Journal{}
		o, c, g := providertest.Set(j)
		proc := New([]provider.Provider{o, c, g}, time.Second, logger.Nop())

		s := newSettled()
		n := proc.Process(ctx, request(), s.record)

		assert.Equal(t, 3, n)
		assert.Len(t, s.results, 3)
		assert.Empty(t, s.errs)
		assert.Equal(t, "claude-custom", s.results[models.ProviderClaude].Model)
		assert.Equal(t, "openai-model", s.results[models.ProviderOpenAI].Model, "missing model falls back to the adapter default")
	})

	t.Run("Should not let one failure block the others", func(t *testing.T) {
		o, c, g := providertest.Set(nil)
		g.FailAll = true
		proc := New([]provider.Provider{o, c, g}, time.Second, logger.Nop())

		s := newSettled()
		n := proc.Process(ctx, request(), s.record)

		assert.Equal(t, 2, n)
		assert.Len(t, s.results, 2)
		require.Contains(t, s.errs, models.ProviderGemini)
		assert.Equal(t, provider.KindQuota, provider.KindOf(s.errs[models.ProviderGemini]))
	})

	t.Run("Should run providers concurrently", func(t *testing.T) {
		o, c, g := providertest.Set(nil)
		for _, f := range []*providertest.Fake{o, c, g} {
			f.Delay = 100 * time.Millisecond
		}
		proc := New([]provider.Provider{o, c, g}, time.Second, logger.Nop())

		start := time.Now()
		n := proc.Process(ctx, request(), nil)
		elapsed := time.Since(start)

		assert.Equal(t, 3, n)
		assert.Less(t, elapsed, 250*time.Millisecond, "three 100ms calls should overlap")
	})

	t.Run("Should contain a panicking adapter", func(t *testing.T) {
		o, c, g := providertest.Set(nil)
		c.Panic = true
		proc := New([]provider.Provider{o, c, g}, time.Second, logger.Nop())

		s := newSettled()
		n := proc.Process(ctx, request(), s.record)

		assert.Equal(t, 2, n)
		require.Contains(t, s.errs, models.ProviderClaude)
		assert.Contains(t, s.errs[models.ProviderClaude].Error(), "panicked")
	})

	t.Run("Should enforce the per-call deadline", func(t *testing.T) {
		o, c, g := providertest.Set(nil)
		o.Delay = time.Second
		proc := New([]provider.Provider{o, c, g}, 50*time.Millisecond, logger.Nop())

		s := newSettled()
		start := time.Now()
		n := proc.Process(ctx, request(), s.record)

		assert.Equal(t, 2, n)
		assert.Less(t, time.Since(start), 500*time.Millisecond)
		assert.Equal(t, provider.KindTimeout, provider.KindOf(s.errs[models.ProviderOpenAI]))
	})

	t.Run("Should report zero when every provider fails", func(t *testing.T) {
		o, c, g := providertest.Set(nil)
		o.FailAll, c.FailAll, g.FailAll = true, true, true
		proc := New([]provider.Provider{o, c, g}, 0, logger.Nop())

		s := newSettled()
		assert.Equal(t, 0, proc.Process(ctx, request(), s.record))
		assert.Len(t, s.errs, 3)
	})
}
