// Package validate applies linguistic and structural guardrails to
// candidate evidence bundles. Every rejection carries a stable reason
// code; guardrails are explicit and auditable, never statistical.
package validate

import (
	"log/slog"

	"github.com/fredpottier/relato/internal/extract"
	"github.com/fredpottier/relato/internal/model"
)

// Validator rejects non-relations: modal or auxiliary predicates, copular
// attribution, generic predicates with no specific alternative, and
// unresolved link fragments. Bundles with zero predicate fragments are
// never created upstream, so this only filters already-candidate bundles.
type Validator struct {
	cfg     model.ValidateConfig
	generic map[string]bool
	log     *slog.Logger
}

// NewValidator creates a validator with the configured generic-predicate
// stop-set.
func NewValidator(cfg model.ValidateConfig, log *slog.Logger) *Validator {
	if log == nil {
		log = slog.Default()
	}
	generic := make(map[string]bool, len(cfg.GenericPredicates))
	for _, lemma := range cfg.GenericPredicates {
		generic[lemma] = true
	}
	return &Validator{cfg: cfg, generic: generic, log: log}
}

// Validate applies the guardrails. It mutates only the bundle's status and
// rejection reason, and never touches a terminal bundle.
func (v *Validator) Validate(b *model.EvidenceBundle) {
	if b.Terminal() {
		return
	}

	if len(b.Predicates) == 0 {
		v.reject(b, model.ReasonMalformedInput)
		return
	}

	if b.Link != nil && b.Link.Confidence <= 0 {
		v.reject(b, model.ReasonUnresolvedReference)
		return
	}

	// A bundle survives when at least one predicate is specific; the
	// weak predicate fragments are pruned so a promoted bundle never
	// carries an auxiliary or modal predicate as evidence. The rejection
	// reason otherwise comes from the strongest offender, so
	// GENERIC_PREDICATE is reported only when nothing more structural
	// (modal, auxiliary, copular) applies.
	worst := ""
	var specific []model.EvidenceFragment
	for _, p := range b.Predicates {
		reason := v.classify(p)
		if reason == "" {
			specific = append(specific, p)
			continue
		}
		if worst == "" || severity(reason) < severity(worst) {
			worst = reason
		}
	}
	if len(specific) > 0 {
		if len(specific) < len(b.Predicates) {
			b.Predicates = specific
			// Re-derive the relation type so it is always backed by a
			// surviving predicate fragment.
			b.RelationType, b.TypingConfidence = extract.RelationCandidate(specific)
		}
		return
	}
	v.reject(b, worst)
}

// classify returns the rejection reason a predicate fragment would earn on
// its own, or "" for a specific predicate.
func (v *Validator) classify(p model.EvidenceFragment) string {
	if p.Type == model.FragmentPredicateVisual {
		// The retyper already refused modal/auxiliary adjacent text.
		return ""
	}
	switch {
	case p.Feats[model.FeatMood] == model.MoodNec || p.Feats[model.FeatMood] == model.MoodPot:
		return model.ReasonModalPredicate
	// Stop-set lemmas ("be", "have", "do") are generic regardless of how
	// the parser attached them; the structural codes cover the rest.
	case v.generic[p.Lemma]:
		return model.ReasonGenericPredicate
	case p.POS == model.POSAux && p.Deprel != model.DepCop:
		return model.ReasonAuxiliaryPredicate
	case p.Deprel == model.DepCop:
		return model.ReasonCopularPredicate
	default:
		return ""
	}
}

// severity orders rejection reasons from most to least damning.
func severity(reason string) int {
	switch reason {
	case model.ReasonModalPredicate:
		return 0
	case model.ReasonAuxiliaryPredicate:
		return 1
	case model.ReasonCopularPredicate:
		return 2
	case model.ReasonGenericPredicate:
		return 3
	default:
		return 4
	}
}

func (v *Validator) reject(b *model.EvidenceBundle, reason string) {
	b.Status = model.StatusRejected
	b.RejectionReason = reason
	v.log.Debug("bundle rejected",
		"document", b.DocumentID,
		"subject", b.SubjectID, "object", b.ObjectID,
		"reason", reason)
}
