// Package pairs enumerates candidate concept pairs and decides whether two
// mentions in different sections are structurally close enough to be
// combined into one evidence bundle.
package pairs

import (
	"github.com/fredpottier/relato/internal/model"
)

// Proximity reason codes for the accepting paths.
const (
	ReasonSameSection     = "SAME_SECTION"
	ReasonSiblingSections = "SIBLING_SECTIONS"
	ReasonStructuralXref  = "STRUCTURAL_XREF"
	ReasonNearbySections  = "NEARBY_SECTIONS"
)

// Proximity validates structural closeness of two sections. The distance
// bound deliberately trades recall for precision: wide cross-document
// inference is out of scope.
type Proximity struct {
	maxDistance int
	sections    map[string]model.SectionContext
	xrefs       map[string]map[string]bool
}

// NewProximity indexes the document's section hierarchy and explicit
// cross-reference edges.
func NewProximity(doc *model.Document, maxDistance int) *Proximity {
	p := &Proximity{
		maxDistance: maxDistance,
		sections:    make(map[string]model.SectionContext, len(doc.Sections)),
		xrefs:       map[string]map[string]bool{},
	}
	for _, s := range doc.Sections {
		p.sections[s.ID] = s
	}
	add := func(a, b string) {
		if p.xrefs[a] == nil {
			p.xrefs[a] = map[string]bool{}
		}
		p.xrefs[a][b] = true
	}
	for _, x := range doc.CrossRefs {
		add(x.FromSectionID, x.ToSectionID)
		add(x.ToSectionID, x.FromSectionID)
	}
	return p
}

// Validate reports whether mentions in the two sections may be combined,
// with the reason code for the path that accepted (or EXCESSIVE_DISTANCE /
// MALFORMED_INPUT on rejection).
func (p *Proximity) Validate(secA, secB string) (bool, string) {
	a, okA := p.sections[secA]
	b, okB := p.sections[secB]
	if !okA || !okB {
		return false, model.ReasonMalformedInput
	}
	if a.ID == b.ID {
		return true, ReasonSameSection
	}
	if a.ParentID != "" && a.ParentID == b.ParentID {
		return true, ReasonSiblingSections
	}
	if p.xrefs[a.ID][b.ID] {
		return true, ReasonStructuralXref
	}
	d := a.ReadingOrder - b.ReadingOrder
	if d < 0 {
		d = -d
	}
	if d <= p.maxDistance {
		return true, ReasonNearbySections
	}
	return false, model.ReasonExcessiveDistance
}
