package worker

import (
	"context"
	"sort"
	"time"

	"github.com/fredpottier/relato/internal/model"
	"github.com/fredpottier/relato/internal/source"
)

// DocumentResolver resolves one document into a report.
type DocumentResolver interface {
	Resolve(ctx context.Context, doc *model.Document) (*model.ResolveReport, error)
}

// ResolveJob loads and resolves one document.
type ResolveJob struct {
	DocumentID string
	Provider   source.Provider
	Resolver   DocumentResolver
	Timeout    time.Duration
}

// ResolveResult is the outcome of one document resolution.
type ResolveResult struct {
	DocumentID string
	Report     *model.ResolveReport
	Error      error
}

// GetError returns the job error, if any.
func (r *ResolveResult) GetError() error {
	return r.Error
}

// Execute loads the document from the provider and resolves it under the
// per-document timeout.
func (j *ResolveJob) Execute(ctx context.Context) Result {
	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}

	doc, err := j.Provider.Document(ctx, j.DocumentID)
	if err != nil {
		return &ResolveResult{DocumentID: j.DocumentID, Error: err}
	}
	report, err := j.Resolver.Resolve(ctx, doc)
	if err != nil {
		return &ResolveResult{DocumentID: j.DocumentID, Error: err}
	}
	return &ResolveResult{DocumentID: j.DocumentID, Report: report}
}

// BatchProcessor resolves many documents concurrently. There is no
// cross-document ordering guarantee; results come back sorted by document
// id for stable output.
type BatchProcessor struct {
	provider    source.Provider
	resolver    DocumentResolver
	concurrency int
	timeout     time.Duration
}

// NewBatchProcessor creates a batch processor.
func NewBatchProcessor(provider source.Provider, resolver DocumentResolver, concurrency int, timeout time.Duration) *BatchProcessor {
	return &BatchProcessor{
		provider:    provider,
		resolver:    resolver,
		concurrency: concurrency,
		timeout:     timeout,
	}
}

// Process resolves the given document ids.
func (b *BatchProcessor) Process(ctx context.Context, ids []string) []*ResolveResult {
	if len(ids) == 0 {
		return nil
	}

	pool := NewPool(b.concurrency)
	pool.Start()

	go func() {
		defer pool.Finish()
		for _, id := range ids {
			select {
			case <-ctx.Done():
				return
			default:
			}
			pool.Submit(&ResolveJob{
				DocumentID: id,
				Provider:   b.provider,
				Resolver:   b.resolver,
				Timeout:    b.timeout,
			})
		}
	}()

	results := pool.Wait()
	out := make([]*ResolveResult, 0, len(results))
	for _, r := range results {
		out = append(out, r.(*ResolveResult))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DocumentID < out[j].DocumentID })
	return out
}
