package model

// ValidationStatus is the disposition of an evidence bundle.
// PROMOTED and REJECTED are terminal.
type ValidationStatus string

const (
	StatusCandidate ValidationStatus = "CANDIDATE"
	StatusPromoted  ValidationStatus = "PROMOTED"
	StatusRejected  ValidationStatus = "REJECTED"
)

// Stable reason codes. These are correctness signals surfaced to callers
// and persisted for audit, not exceptions.
const (
	ReasonExcessiveDistance    = "EXCESSIVE_DISTANCE"
	ReasonAmbiguousTopic       = "AMBIGUOUS_DOMINANT_TOPIC"
	ReasonCompetingAntecedents = "COMPETING_ANTECEDENTS" // rendered as COMPETING_ANTECEDENTS:n
	ReasonUnresolvedReference  = "UNRESOLVED_REFERENCE"
	ReasonNoPredicate          = "NO_PREDICATE"
	ReasonAuxiliaryPredicate   = "AUXILIARY_PREDICATE"
	ReasonModalPredicate       = "MODAL_PREDICATE"
	ReasonCopularPredicate     = "COPULAR_PREDICATE"
	ReasonGenericPredicate     = "GENERIC_PREDICATE"
	ReasonMalformedInput       = "MALFORMED_INPUT"
	ReasonAmbiguousMarkKind    = "AMBIGUOUS_MARK_KIND"
	ReasonUnmatchedMarkLabel   = "UNMATCHED_MARK_LABEL"
	ReasonZeroConfidence       = "ZERO_CONFIDENCE"
)

// EvidenceBundle is the set of fragments proposed together as proof of one
// relation between two canonical concepts: exactly one subject and one
// object fragment, one or more predicate fragments, and at most one
// coreference link fragment.
//
// Confidence is always the minimum over the non-nil fragments: the weakest
// evidence fragment governs the whole claim.
type EvidenceBundle struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`

	SubjectID string `json:"subject_id"`
	ObjectID  string `json:"object_id"`

	Subject    EvidenceFragment   `json:"subject"`
	Object     EvidenceFragment   `json:"object"`
	Predicates []EvidenceFragment `json:"predicates"`
	Link       *EvidenceFragment  `json:"link,omitempty"`

	RelationType     string  `json:"relation_type_candidate"`
	TypingConfidence float64 `json:"typing_confidence"`
	Confidence       float64 `json:"confidence"`

	Status          ValidationStatus `json:"validation_status"`
	RejectionReason string           `json:"rejection_reason,omitempty"`
}

// Fragments returns every non-nil fragment of the bundle.
func (b *EvidenceBundle) Fragments() []EvidenceFragment {
	out := make([]EvidenceFragment, 0, len(b.Predicates)+3)
	out = append(out, b.Subject, b.Object)
	out = append(out, b.Predicates...)
	if b.Link != nil {
		out = append(out, *b.Link)
	}
	return out
}

// Terminal reports whether the bundle reached a terminal state and must
// not be mutated further.
func (b *EvidenceBundle) Terminal() bool {
	return b.Status == StatusPromoted || b.Status == StatusRejected
}

// Relation is the directed, typed, evidence-justified edge a PROMOTED
// bundle materializes as in the graph store.
type Relation struct {
	SubjectID    string  `json:"subject_id"`
	ObjectID     string  `json:"object_id"`
	RelationType string  `json:"relation_type"`
	Confidence   float64 `json:"confidence"`
	BundleID     string  `json:"bundle_id"`
	DocumentID   string  `json:"document_id"`
}
