package model

// TopicCandidate is one concept scored for document-level dominance.
// Computed once per document; never mutated afterward.
type TopicCandidate struct {
	ConceptID           string  `json:"concept_id"`
	Label               string  `json:"label"`
	MentionCount        int     `json:"mention_count"`
	FirstSectionIndex   int     `json:"first_mention_section_index"`
	Dominance           float64 `json:"dominance_score"` // in [0,1]
}

// ResolvedReference records one anaphoric reference ("this compound")
// resolved to a canonical concept by the structural guards.
type ResolvedReference struct {
	Text       string  `json:"reference_text"`
	ConceptID  string  `json:"resolved_concept_id"`
	Confidence float64 `json:"confidence"`
	Method     string  `json:"resolution_method"` // which guardrail path succeeded
	SectionID  string  `json:"section_id"`
	CharStart  int     `json:"char_start"`
}

// DocumentTopicBinding is the per-document topic state: the dominant
// concepts and every reference the guards managed to resolve. Created once
// per document and read-only afterward; passed explicitly through the
// pipeline, never held as a singleton.
type DocumentTopicBinding struct {
	DocumentID string           `json:"document_id"`
	Primary    []TopicCandidate `json:"primary_topics"` // up to 3, highest dominance first

	// References keyed by "<section_id>:<char_start>" of the reference.
	References map[string]ResolvedReference `json:"references,omitempty"`

	// Failed records references the guards refused to resolve, keyed like
	// References, with the stable reason code. Kept so downstream skips
	// can surface the precise guard that fired.
	Failed map[string]string `json:"failed_references,omitempty"`

	// Abstained is set when topic binding refused to resolve anything for
	// the whole document (weak or contested dominance).
	Abstained     bool   `json:"abstained,omitempty"`
	AbstainReason string `json:"abstain_reason,omitempty"`
}

// Dominant returns the top topic, or nil when there is none or binding
// abstained globally.
func (b *DocumentTopicBinding) Dominant() *TopicCandidate {
	if b.Abstained || len(b.Primary) == 0 {
		return nil
	}
	return &b.Primary[0]
}

// ReferenceIn returns a resolved reference located in the given section,
// preferring the earliest one, or nil.
func (b *DocumentTopicBinding) ReferenceIn(sectionID string) *ResolvedReference {
	var best *ResolvedReference
	for k := range b.References {
		ref := b.References[k]
		if ref.SectionID != sectionID {
			continue
		}
		if best == nil || ref.CharStart < best.CharStart {
			r := ref
			best = &r
		}
	}
	return best
}
