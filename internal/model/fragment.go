package model

// FragmentType tags the variant of an evidence fragment.
type FragmentType string

const (
	FragmentEntityMention    FragmentType = "ENTITY_MENTION"
	FragmentPredicateLexical FragmentType = "PREDICATE_LEXICAL"
	FragmentPredicateVisual  FragmentType = "PREDICATE_VISUAL"
	FragmentCoreferenceLink  FragmentType = "COREFERENCE_LINK"
)

// EvidenceFragment is one atomic, independently-sourced piece of evidence
// contributing to a relation claim. Immutable once created; owned
// exclusively by the bundle that contains it.
//
// All variants share the base contract (Confidence, SectionID, Method).
// Lemma/POS/Deprel/Feats carry the predicate payload for lexical
// fragments; Page is set for visual fragments.
type EvidenceFragment struct {
	ID         string       `json:"id"`
	Type       FragmentType `json:"type"`
	Text       string       `json:"text"`
	SectionID  string       `json:"source_section_id,omitempty"`
	Page       int          `json:"source_page,omitempty"`
	Confidence float64      `json:"confidence"`
	Method     string       `json:"extraction_method"`

	Lemma  string            `json:"lemma,omitempty"`
	POS    string            `json:"pos,omitempty"`
	Deprel string            `json:"deprel,omitempty"`
	Feats  map[string]string `json:"feats,omitempty"`
}
