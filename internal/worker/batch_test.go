package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fredpottier/relato/internal/model"
)

// stubProvider serves in-memory documents.
type stubProvider struct {
	docs  map[string]*model.Document
	calls int32
}

func (p *stubProvider) Document(_ context.Context, id string) (*model.Document, error) {
	atomic.AddInt32(&p.calls, 1)
	doc, ok := p.docs[id]
	if !ok {
		return nil, fmt.Errorf("document %s not found", id)
	}
	return doc, nil
}

// stubResolver returns a minimal report per document.
type stubResolver struct {
	delay time.Duration
	fail  map[string]bool
}

func (r *stubResolver) Resolve(ctx context.Context, doc *model.Document) (*model.ResolveReport, error) {
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if r.fail[doc.ID] {
		return nil, fmt.Errorf("resolve %s: malformed sections", doc.ID)
	}
	return &model.ResolveReport{DocumentID: doc.ID}, nil
}

func docs(ids ...string) map[string]*model.Document {
	m := make(map[string]*model.Document, len(ids))
	for _, id := range ids {
		m[id] = &model.Document{ID: id}
	}
	return m
}

func TestBatchProcessor_Process(t *testing.T) {
	provider := &stubProvider{docs: docs("doc-a", "doc-b", "doc-c")}
	processor := NewBatchProcessor(provider, &stubResolver{}, 2, time.Second)

	results := processor.Process(context.Background(), []string{"doc-c", "doc-a", "doc-b"})

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	// Results come back sorted by document id regardless of completion order.
	want := []string{"doc-a", "doc-b", "doc-c"}
	for i, r := range results {
		if r.DocumentID != want[i] {
			t.Errorf("result %d: expected %s, got %s", i, want[i], r.DocumentID)
		}
		if r.Error != nil {
			t.Errorf("doc %s: unexpected error: %v", r.DocumentID, r.Error)
		}
		if r.Report == nil || r.Report.DocumentID != r.DocumentID {
			t.Errorf("doc %s: missing or mismatched report", r.DocumentID)
		}
	}
}

func TestBatchProcessor_PartialFailure(t *testing.T) {
	provider := &stubProvider{docs: docs("doc-a", "doc-b")}
	resolver := &stubResolver{fail: map[string]bool{"doc-b": true}}
	processor := NewBatchProcessor(provider, resolver, 2, time.Second)

	// doc-x is not in the provider at all.
	results := processor.Process(context.Background(), []string{"doc-a", "doc-b", "doc-x"})

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	byID := map[string]*ResolveResult{}
	for _, r := range results {
		byID[r.DocumentID] = r
	}
	if byID["doc-a"].Error != nil {
		t.Errorf("doc-a should succeed, got %v", byID["doc-a"].Error)
	}
	if byID["doc-b"].Error == nil {
		t.Error("doc-b should fail at resolution")
	}
	if byID["doc-x"].Error == nil {
		t.Error("doc-x should fail at load")
	}
}

func TestBatchProcessor_ManyDocuments(t *testing.T) {
	ids := make([]string, 100)
	for i := range ids {
		ids[i] = fmt.Sprintf("doc-%03d", i)
	}
	provider := &stubProvider{docs: docs(ids...)}
	processor := NewBatchProcessor(provider, &stubResolver{}, 4, time.Second)

	results := processor.Process(context.Background(), ids)

	if len(results) != len(ids) {
		t.Fatalf("expected %d results, got %d", len(ids), len(results))
	}
	if n := atomic.LoadInt32(&provider.calls); n != int32(len(ids)) {
		t.Errorf("expected %d provider calls, got %d", len(ids), n)
	}
}

func TestBatchProcessor_Empty(t *testing.T) {
	processor := NewBatchProcessor(&stubProvider{}, &stubResolver{}, 2, time.Second)
	if results := processor.Process(context.Background(), nil); results != nil {
		t.Errorf("expected nil results for empty batch, got %d", len(results))
	}
}

func TestResolveJob_Timeout(t *testing.T) {
	provider := &stubProvider{docs: docs("doc-slow")}
	job := &ResolveJob{
		DocumentID: "doc-slow",
		Provider:   provider,
		Resolver:   &stubResolver{delay: 500 * time.Millisecond},
		Timeout:    20 * time.Millisecond,
	}

	res := job.Execute(context.Background()).(*ResolveResult)
	if res.Error == nil {
		t.Fatal("expected timeout error")
	}
}
