package model

import "time"

// SkipRecord documents a candidate pair that was abandoned before a bundle
// existed, with the stable reason code. Skips are silent for control flow
// but never invisible: every one is reported.
type SkipRecord struct {
	SubjectID string `json:"subject_id,omitempty"`
	ObjectID  string `json:"object_id,omitempty"`
	SectionA  string `json:"section_a,omitempty"`
	SectionB  string `json:"section_b,omitempty"`
	Reason    string `json:"reason"`
}

// ResolveStats is the per-document tally.
type ResolveStats struct {
	Pairs      int `json:"pairs"`
	Promoted   int `json:"promoted"`
	Candidates int `json:"candidates"`
	Rejected   int `json:"rejected"`
	Skipped    int `json:"skipped"`
}

// ReviewNote is an optional reviewer annotation for one CANDIDATE bundle.
// Notes are generated after disposition and are never read by any scoring
// path.
type ReviewNote struct {
	BundleID string `json:"bundle_id"`
	Note     string `json:"note"`
}

// ReviewAnnex holds the optional review notes, clearly separated from the
// resolution result itself.
type ReviewAnnex struct {
	Provider string       `json:"provider,omitempty"`
	Model    string       `json:"model,omitempty"`
	Notes    []ReviewNote `json:"notes,omitempty"`
}

// ResolveReport is the complete outcome of resolving one document:
// the topic binding summary, every bundle with its disposition, every
// skipped pair with its reason, and the tally. Transparent by
// construction: every number is traceable to fragments.
type ResolveReport struct {
	DocumentID string    `json:"document_id"`
	Title      string    `json:"title,omitempty"`
	ResolvedAt time.Time `json:"resolved_at"`

	Topics        []TopicCandidate `json:"primary_topics,omitempty"`
	Abstained     bool             `json:"topic_binding_abstained,omitempty"`
	AbstainReason string           `json:"topic_abstain_reason,omitempty"`

	Bundles []EvidenceBundle `json:"bundles"`
	Skips   []SkipRecord     `json:"skips,omitempty"`
	Stats   ResolveStats     `json:"stats"`

	Review *ReviewAnnex `json:"review,omitempty"`
}

// Promoted returns the bundles that materialize as graph edges.
func (r *ResolveReport) Promoted() []EvidenceBundle {
	var out []EvidenceBundle
	for _, b := range r.Bundles {
		if b.Status == StatusPromoted {
			out = append(out, b)
		}
	}
	return out
}

// CandidatesForReview returns the bundles retained for manual review.
func (r *ResolveReport) CandidatesForReview() []EvidenceBundle {
	var out []EvidenceBundle
	for _, b := range r.Bundles {
		if b.Status == StatusCandidate {
			out = append(out, b)
		}
	}
	return out
}
