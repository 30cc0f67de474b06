package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/fredpottier/relato/internal/model"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func promoted(id, subject, object, relType string, conf float64) model.EvidenceBundle {
	return model.EvidenceBundle{
		ID: id, DocumentID: "doc-1",
		SubjectID: subject, ObjectID: object,
		Subject: model.EvidenceFragment{ID: id + "-s", Type: model.FragmentEntityMention, Text: subject, Confidence: 0.9},
		Object:  model.EvidenceFragment{ID: id + "-o", Type: model.FragmentEntityMention, Text: object, Confidence: 0.9},
		Predicates: []model.EvidenceFragment{
			{ID: id + "-p", Type: model.FragmentPredicateLexical, Text: "inhibits", Lemma: "inhibit", POS: "VERB", Confidence: conf},
		},
		RelationType: relType, TypingConfidence: conf,
		Confidence: conf, Status: model.StatusPromoted,
	}
}

func report(bundles ...model.EvidenceBundle) *model.ResolveReport {
	return &model.ResolveReport{DocumentID: "doc-1", Bundles: bundles}
}

func TestSaveReport_Roundtrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	rejected := promoted("b-2", "c-a", "c-c", "CONTAINS", 0.8)
	rejected.Status = model.StatusRejected
	rejected.RejectionReason = model.ReasonGenericPredicate

	if err := s.SaveReport(ctx, report(promoted("b-1", "c-a", "c-b", "INHIBIT", 0.85), rejected)); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}

	relations, err := s.Relations(ctx)
	if err != nil {
		t.Fatalf("Relations: %v", err)
	}
	// Only the promoted bundle materializes as an edge.
	if len(relations) != 1 {
		t.Fatalf("expected 1 relation, got %d", len(relations))
	}
	r := relations[0]
	if r.SubjectID != "c-a" || r.ObjectID != "c-b" || r.RelationType != "INHIBIT" {
		t.Errorf("unexpected relation %+v", r)
	}
	if r.Confidence != 0.85 || r.BundleID != "b-1" {
		t.Errorf("unexpected relation payload %+v", r)
	}

	stored, err := s.BundlesByStatus(ctx, model.StatusRejected)
	if err != nil {
		t.Fatalf("BundlesByStatus: %v", err)
	}
	if len(stored) != 1 || stored[0].RejectionReason != model.ReasonGenericPredicate {
		t.Errorf("rejected bundle not persisted with reason: %+v", stored)
	}
}

func TestSaveReport_Idempotent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	rep := report(promoted("b-1", "c-a", "c-b", "INHIBIT", 0.85))
	for i := 0; i < 3; i++ {
		if err := s.SaveReport(ctx, rep); err != nil {
			t.Fatalf("SaveReport run %d: %v", i, err)
		}
	}

	n, err := s.RelationCount(ctx)
	if err != nil {
		t.Fatalf("RelationCount: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 relation after re-saves, got %d", n)
	}
}

// One edge per (subject, object, type); the strongest evidence wins.
func TestUpsertRelation_HighestConfidenceWins(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.SaveReport(ctx, report(promoted("b-1", "c-a", "c-b", "INHIBIT", 0.75))); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	if err := s.SaveReport(ctx, report(promoted("b-2", "c-a", "c-b", "INHIBIT", 0.9))); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	// A weaker bundle for the same edge must not displace the stronger.
	if err := s.SaveReport(ctx, report(promoted("b-3", "c-a", "c-b", "INHIBIT", 0.72))); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}

	relations, err := s.Relations(ctx)
	if err != nil {
		t.Fatalf("Relations: %v", err)
	}
	if len(relations) != 1 {
		t.Fatalf("expected 1 deduplicated relation, got %d", len(relations))
	}
	if relations[0].Confidence != 0.9 || relations[0].BundleID != "b-2" {
		t.Errorf("expected strongest bundle to own the edge, got %+v", relations[0])
	}

	// A different relation type is a different edge.
	if err := s.SaveReport(ctx, report(promoted("b-4", "c-a", "c-b", "ACTIVATE", 0.8))); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	n, _ := s.RelationCount(ctx)
	if n != 2 {
		t.Errorf("expected 2 edges after distinct type, got %d", n)
	}
}

func TestOpen_FileBacked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.SaveReport(context.Background(), report(promoted("b-1", "c-a", "c-b", "INHIBIT", 0.85))); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	s.Close()

	// Reopen and verify the edge survived.
	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	n, err := s2.RelationCount(context.Background())
	if err != nil {
		t.Fatalf("RelationCount: %v", err)
	}
	if n != 1 {
		t.Errorf("expected persisted relation, got %d", n)
	}
}
