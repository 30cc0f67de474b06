package pairs

import (
	"testing"

	"github.com/fredpottier/relato/internal/model"
)

func layoutDoc() *model.Document {
	return &model.Document{
		ID: "doc-1",
		Sections: []model.SectionContext{
			{ID: "intro", ReadingOrder: 1},
			{ID: "props", ParentID: "intro", ReadingOrder: 2},
			{ID: "hazards", ParentID: "intro", ReadingOrder: 3},
			{ID: "storage", ReadingOrder: 5},
			{ID: "annex", ReadingOrder: 40},
		},
		CrossRefs: []model.CrossRef{
			{FromSectionID: "hazards", ToSectionID: "annex"},
		},
	}
}

func TestProximity_Validate(t *testing.T) {
	p := NewProximity(layoutDoc(), 3)

	cases := []struct {
		name   string
		a, b   string
		ok     bool
		reason string
	}{
		{"same section", "props", "props", true, ReasonSameSection},
		{"siblings", "props", "hazards", true, ReasonSiblingSections},
		{"cross-reference", "hazards", "annex", true, ReasonStructuralXref},
		{"cross-reference reversed", "annex", "hazards", true, ReasonStructuralXref},
		{"within distance", "props", "storage", true, ReasonNearbySections},
		{"excessive distance", "intro", "annex", false, model.ReasonExcessiveDistance},
		{"unknown section", "props", "ghost", false, model.ReasonMalformedInput},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, reason := p.Validate(tc.a, tc.b)
			if ok != tc.ok || reason != tc.reason {
				t.Errorf("Validate(%s, %s) = (%v, %s), want (%v, %s)",
					tc.a, tc.b, ok, reason, tc.ok, tc.reason)
			}
		})
	}
}

// Raising the distance bound only ever admits more section pairs, never
// fewer.
func TestProximity_DistanceMonotonic(t *testing.T) {
	doc := layoutDoc()
	sections := []string{"intro", "props", "hazards", "storage", "annex"}

	prev := map[string]bool{}
	for dist := 0; dist <= 50; dist += 5 {
		p := NewProximity(doc, dist)
		for _, a := range sections {
			for _, b := range sections {
				key := a + "|" + b
				ok, _ := p.Validate(a, b)
				if prev[key] && !ok {
					t.Fatalf("distance %d rejected %s-%s accepted at a smaller bound", dist, a, b)
				}
				if ok {
					prev[key] = true
				}
			}
		}
	}
}
