package extract

import (
	"testing"

	"github.com/fredpottier/relato/internal/model"
)

func visualConfig() model.VisualConfig {
	return model.DefaultConfig().Visual
}

func diagramDoc(marks ...model.VisualMark) *model.Document {
	return &model.Document{
		ID:       "doc-1",
		Sections: []model.SectionContext{{ID: "s1", ReadingOrder: 1, Page: 1}},
		Mentions: []model.ConceptMention{
			mention("c-alpha", "Alpha", "s1", 0),
			mention("c-beta", "Beta", "s1", 20),
		},
		Marks: marks,
	}
}

func TestVisual_CaptionWins(t *testing.T) {
	doc := diagramDoc(model.VisualMark{
		SourceText: "Alpha", TargetText: "Beta",
		Kind: "arrow", Caption: "activates", Page: 1,
	})
	// An adjacent verb exists but the explicit caption outranks it.
	doc.Sentences = []model.Sentence{{
		SectionID: "s1", Index: 0, Page: 1,
		Tokens: []model.Token{tok("suppresses", "suppress", model.POSVerb, "root", -1, 0, nil)},
	}}

	bundles, skips := NewVisualExtractor(visualConfig(), doc).Extract()
	if len(skips) != 0 {
		t.Fatalf("unexpected skips: %+v", skips)
	}
	if len(bundles) != 1 {
		t.Fatalf("expected 1 bundle, got %d", len(bundles))
	}
	b := bundles[0]
	if b.RelationType != "ACTIVATES" {
		t.Errorf("expected ACTIVATES from caption, got %s", b.RelationType)
	}
	if b.TypingConfidence != 0.9 {
		t.Errorf("expected caption confidence 0.9, got %f", b.TypingConfidence)
	}
	if b.SubjectID != "c-alpha" || b.ObjectID != "c-beta" {
		t.Errorf("unexpected direction: %s -> %s", b.SubjectID, b.ObjectID)
	}
	if len(b.Predicates) != 1 || b.Predicates[0].Type != model.FragmentPredicateVisual {
		t.Errorf("expected one visual predicate, got %+v", b.Predicates)
	}
}

func TestVisual_AdjacentSentenceSecond(t *testing.T) {
	doc := diagramDoc(model.VisualMark{
		SourceText: "Alpha", TargetText: "Beta", Kind: "arrow", Page: 2,
	})
	doc.Sentences = []model.Sentence{{
		SectionID: "s1", Index: 0, Page: 2,
		Tokens: []model.Token{
			tok("is", "be", model.POSAux, model.DepCop, 1, 0, nil),
			tok("suppresses", "suppress", model.POSVerb, "root", -1, 3, nil),
		},
	}}

	bundles, _ := NewVisualExtractor(visualConfig(), doc).Extract()
	if len(bundles) != 1 {
		t.Fatalf("expected 1 bundle, got %d", len(bundles))
	}
	if bundles[0].RelationType != "SUPPRESS" {
		t.Errorf("expected SUPPRESS from adjacent sentence, got %s", bundles[0].RelationType)
	}
	if bundles[0].TypingConfidence != 0.7 {
		t.Errorf("expected adjacent confidence 0.7, got %f", bundles[0].TypingConfidence)
	}
}

func TestVisual_KindFallbackLast(t *testing.T) {
	for kind, want := range map[string]string{
		"arrow":               "DIRECTED_RELATION",
		"arrow_bidirectional": "BIDIRECTIONAL_RELATION",
		"contains":            "CONTAINS",
	} {
		doc := diagramDoc(model.VisualMark{SourceText: "Alpha", TargetText: "Beta", Kind: kind})
		bundles, _ := NewVisualExtractor(visualConfig(), doc).Extract()
		if len(bundles) != 1 {
			t.Fatalf("kind %s: expected 1 bundle, got %d", kind, len(bundles))
		}
		if bundles[0].RelationType != want {
			t.Errorf("kind %s: expected %s, got %s", kind, want, bundles[0].RelationType)
		}
		if bundles[0].TypingConfidence != 0.5 {
			t.Errorf("kind %s: expected fallback confidence 0.5, got %f", kind, bundles[0].TypingConfidence)
		}
	}
}

func TestVisual_AmbiguousKindsDropped(t *testing.T) {
	for _, kind := range []string{"group", "grouping", "adjacency", "adjacent"} {
		doc := diagramDoc(model.VisualMark{SourceText: "Alpha", TargetText: "Beta", Kind: kind})
		bundles, skips := NewVisualExtractor(visualConfig(), doc).Extract()
		if len(bundles) != 0 {
			t.Errorf("kind %s: expected no bundle, got %d", kind, len(bundles))
		}
		if len(skips) != 1 || skips[0].Reason != model.ReasonAmbiguousMarkKind {
			t.Errorf("kind %s: expected %s skip, got %+v", kind, model.ReasonAmbiguousMarkKind, skips)
		}
	}
}

func TestVisual_UnknownKindWithoutTextDropped(t *testing.T) {
	doc := diagramDoc(model.VisualMark{SourceText: "Alpha", TargetText: "Beta", Kind: "squiggle"})
	bundles, skips := NewVisualExtractor(visualConfig(), doc).Extract()
	if len(bundles) != 0 {
		t.Errorf("expected no bundle, got %d", len(bundles))
	}
	if len(skips) != 1 || skips[0].Reason != model.ReasonAmbiguousMarkKind {
		t.Errorf("expected %s skip, got %+v", model.ReasonAmbiguousMarkKind, skips)
	}
}

func TestVisual_FuzzyLabelMatch(t *testing.T) {
	doc := diagramDoc(
		// Close enough: markup and a plural survive the threshold.
		model.VisualMark{SourceText: "<b>Alpha</b>", TargetText: "Betas", Kind: "contains"},
		// Not close to any concept label.
		model.VisualMark{SourceText: "Zeta", TargetText: "Beta", Kind: "contains"},
		// Both labels resolve to the same concept: no self-relation.
		model.VisualMark{SourceText: "Alpha", TargetText: "alpha", Kind: "contains"},
	)

	bundles, skips := NewVisualExtractor(visualConfig(), doc).Extract()
	if len(bundles) != 1 {
		t.Fatalf("expected 1 bundle, got %d", len(bundles))
	}
	if bundles[0].SubjectID != "c-alpha" || bundles[0].ObjectID != "c-beta" {
		t.Errorf("unexpected match %s -> %s", bundles[0].SubjectID, bundles[0].ObjectID)
	}
	// Entity fragments carry the match similarity, not a flat constant.
	if bundles[0].Subject.Confidence != 1.0 {
		t.Errorf("exact match should carry similarity 1.0, got %f", bundles[0].Subject.Confidence)
	}
	if bundles[0].Object.Confidence >= 1.0 || bundles[0].Object.Confidence < visualConfig().FuzzyThreshold {
		t.Errorf("fuzzy match similarity out of range: %f", bundles[0].Object.Confidence)
	}

	if len(skips) != 2 {
		t.Fatalf("expected 2 skips, got %d: %+v", len(skips), skips)
	}
	for _, s := range skips {
		if s.Reason != model.ReasonUnmatchedMarkLabel {
			t.Errorf("expected %s, got %s", model.ReasonUnmatchedMarkLabel, s.Reason)
		}
	}
}
