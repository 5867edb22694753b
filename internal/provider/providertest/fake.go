// Package providertest provides a scriptable provider for tests.
package providertest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nguyentantai21042004/insight-flow/internal/models"
	"github.com/nguyentantai21042004/insight-flow/internal/provider"
)

// Call records one Analyze invocation.
type Call struct {
	Provider models.ProviderName
	Request  provider.Request
	Start    time.Time
	End      time.Time
}

// Journal is a shared, ordered log of calls across several fakes.
type Journal struct {
	mu    sync.Mutex
	calls []Call
}

func (j *Journal) add(c Call) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.calls = append(j.calls, c)
}

// Calls returns a copy of everything recorded so far.
func (j *Journal) Calls() []Call {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]Call, len(j.calls))
	copy(out, j.calls)
	return out
}

// Fake is a Provider whose behavior is driven by its fields.
type Fake struct {
	ProviderName models.ProviderName
	Model        string
	// Delay is how long Analyze blocks before answering; it honors ctx.
	Delay time.Duration
	// FailFiles lists filenames that fail; FailAll fails every call.
	FailFiles map[string]bool
	FailAll   bool
	// Panic makes Analyze panic.
	Panic   bool
	Tokens  int
	Journal *Journal
}

// New returns a Fake that always succeeds.
func New(name models.ProviderName, j *Journal) *Fake {
	return &Fake{ProviderName: name, Model: string(name) + "-model", Journal: j}
}

func (f *Fake) Name() models.ProviderName { return f.ProviderName }

func (f *Fake) DefaultModel() string { return f.Model }

func (f *Fake) Analyze(ctx context.Context, req provider.Request) (*models.ProviderResult, error) {
	start := time.Now()
	defer func() {
		if f.Journal != nil {
			f.Journal.add(Call{Provider: f.ProviderName, Request: req, Start: start, End: time.Now()})
		}
	}()

	if f.Panic {
		panic(fmt.Sprintf("%s exploded", f.ProviderName))
	}

	if f.Delay > 0 {
		select {
		case <-time.After(f.Delay):
		case <-ctx.Done():
			return nil, &provider.Error{Provider: f.ProviderName, Kind: provider.KindTimeout, Cause: ctx.Err()}
		}
	}

	if f.FailAll || f.FailFiles[req.Filename] {
		return nil, &provider.Error{Provider: f.ProviderName, Kind: provider.KindQuota, StatusCode: 429, Message: "quota exhausted"}
	}

	model := req.Model
	if model == "" {
		model = f.Model
	}
	var tokens *int
	if f.Tokens > 0 {
		n := f.Tokens
		tokens = &n
	}
	return &models.ProviderResult{
		Model:       model,
		Filename:    req.Filename,
		Analysis:    fmt.Sprintf("%s analysis of %s", f.ProviderName, req.Filename),
		Metadata:    models.ResultMetadata{TokenCount: tokens, ProcessingTimeMs: time.Since(start).Milliseconds()},
		CompletedAt: time.Now(),
	}, nil
}

// Set returns one succeeding fake per provider, all sharing j.
func Set(j *Journal) (openai, claude, gemini *Fake) {
	return New(models.ProviderOpenAI, j), New(models.ProviderClaude, j), New(models.ProviderGemini, j)
}
