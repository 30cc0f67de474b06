// Package score derives the single scalar confidence of an evidence
// bundle and assigns its disposition.
package score

import (
	"github.com/fredpottier/relato/internal/model"
)

// Scorer applies the weakest-link rule: a bundle's confidence is the
// minimum over its fragments, never an average and never weighted. This is
// the central correctness property of the resolver.
type Scorer struct {
	promoteThreshold float64
}

// NewScorer creates a scorer with the given promotion threshold.
func NewScorer(cfg model.ScoreConfig) *Scorer {
	return &Scorer{promoteThreshold: cfg.PromoteThreshold}
}

// Score computes the bundle confidence and assigns the disposition:
// confidence at or above the threshold promotes, anything above zero stays
// a candidate for manual review, and a validator rejection stands
// regardless of the computed confidence.
func (s *Scorer) Score(b *model.EvidenceBundle) {
	b.Confidence = MinFragmentConfidence(b)

	if b.Status == model.StatusRejected {
		return
	}
	switch {
	case b.Confidence >= s.promoteThreshold:
		b.Status = model.StatusPromoted
	case b.Confidence > 0:
		b.Status = model.StatusCandidate
	default:
		b.Status = model.StatusRejected
		b.RejectionReason = model.ReasonZeroConfidence
	}
}

// MinFragmentConfidence returns the minimum confidence over every non-nil
// fragment of the bundle.
func MinFragmentConfidence(b *model.EvidenceBundle) float64 {
	frags := b.Fragments()
	if len(frags) == 0 {
		return 0
	}
	min := frags[0].Confidence
	for _, f := range frags[1:] {
		if f.Confidence < min {
			min = f.Confidence
		}
	}
	return min
}
