// Package topic detects the dominant concepts of a document and resolves
// anaphoric references ("this compound") to canonical concepts using only
// structural and grammatical signals. No lexical word-lists: every guard
// reads part-of-speech, dependency and morphology tags supplied by the
// external tagging service.
package topic

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode"

	"github.com/fredpottier/relato/internal/model"
)

// resolutionMethod tags the guardrail path that produced a resolution.
const resolutionMethod = "structural_guards"

// Binder computes per-document topic bindings.
type Binder struct {
	cfg model.TopicConfig
	log *slog.Logger
}

// NewBinder creates a binder with the given configuration.
func NewBinder(cfg model.TopicConfig, log *slog.Logger) *Binder {
	if log == nil {
		log = slog.Default()
	}
	return &Binder{cfg: cfg, log: log}
}

// Bind computes the document's topic binding: dominance-scored primary
// topics plus every anaphoric reference the guards resolve. The result is
// immutable; re-running recomputes it wholesale.
func (b *Binder) Bind(doc *model.Document) *model.DocumentTopicBinding {
	binding := &model.DocumentTopicBinding{
		DocumentID: doc.ID,
		References: map[string]model.ResolvedReference{},
		Failed:     map[string]string{},
	}

	binding.Primary = b.scoreTopics(doc)
	if len(binding.Primary) == 0 {
		binding.Abstained = true
		binding.AbstainReason = model.ReasonAmbiguousTopic
		return binding
	}

	top := binding.Primary[0]
	if top.Dominance < b.cfg.MinDominance {
		binding.Abstained = true
		binding.AbstainReason = model.ReasonAmbiguousTopic
		b.log.Debug("topic binding abstained: weak dominance",
			"document", doc.ID, "dominance", top.Dominance)
		return binding
	}
	if len(binding.Primary) > 1 && binding.Primary[1].Dominance >= b.cfg.RivalRatio*top.Dominance {
		binding.Abstained = true
		binding.AbstainReason = model.ReasonAmbiguousTopic
		b.log.Debug("topic binding abstained: contested dominance",
			"document", doc.ID,
			"top", top.ConceptID, "rival", binding.Primary[1].ConceptID)
		return binding
	}

	b.resolveReferences(doc, binding)
	return binding
}

// scoreTopics ranks concepts by dominance:
// mention_share + title_bonus + first_page_bonus.
func (b *Binder) scoreTopics(doc *model.Document) []model.TopicCandidate {
	if len(doc.Mentions) == 0 {
		return nil
	}

	type agg struct {
		label string
		count int
		first int // lowest reading-order index among mentioning sections
	}
	byConcept := map[string]*agg{}
	for _, m := range doc.Mentions {
		sec := doc.Section(m.SectionID)
		if sec == nil {
			continue
		}
		a, ok := byConcept[m.ConceptID]
		if !ok {
			a = &agg{label: m.Label, first: sec.ReadingOrder}
			byConcept[m.ConceptID] = a
		}
		a.count++
		if sec.ReadingOrder < a.first {
			a.first = sec.ReadingOrder
		}
	}

	firstOrder := -1
	for _, s := range doc.Sections {
		if firstOrder < 0 || s.ReadingOrder < firstOrder {
			firstOrder = s.ReadingOrder
		}
	}

	total := 0
	for _, a := range byConcept {
		total += a.count
	}

	title := strings.ToLower(doc.Title)
	ids := make([]string, 0, len(byConcept))
	for id := range byConcept {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]model.TopicCandidate, 0, len(ids))
	for _, id := range ids {
		a := byConcept[id]
		share := float64(a.count) / float64(total)
		score := share
		if title != "" && strings.Contains(title, strings.ToLower(a.label)) {
			score += b.cfg.TitleBonus
		}
		if a.first == firstOrder {
			score += b.cfg.FirstPageBonus
		}
		if score > 1 {
			score = 1
		}
		out = append(out, model.TopicCandidate{
			ConceptID:         id,
			Label:             a.label,
			MentionCount:      a.count,
			FirstSectionIndex: a.first,
			Dominance:         score,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Dominance != out[j].Dominance {
			return out[i].Dominance > out[j].Dominance
		}
		return out[i].ConceptID < out[j].ConceptID
	})
	if len(out) > b.cfg.MaxPrimaryTopics {
		out = out[:b.cfg.MaxPrimaryTopics]
	}
	return out
}

// resolveReferences walks every sentence looking for anaphoric shapes and
// runs the four guards against the dominant topic.
func (b *Binder) resolveReferences(doc *model.Document, binding *model.DocumentTopicBinding) {
	top := binding.Primary[0]
	counts := map[string]int{}
	labelToConcept := map[string]string{}
	for _, m := range doc.Mentions {
		counts[m.ConceptID]++
		labelToConcept[normalizeLemma(m.Label)] = m.ConceptID
	}

	sentences := orderedSentences(doc)
	for _, sent := range sentences {
		for i := range sent.Tokens {
			ref, start, ok := anaphoricShape(sent, i)
			if !ok {
				continue
			}
			// Keyed by the start of the full reference phrase, matching
			// the resolved Text span.
			key := fmt.Sprintf("%s:%d", sent.SectionID, start)

			// Guard 2: a head noun that is itself a frequent concept is a
			// reprise of that concept, not a placeholder for the topic.
			head := sent.Tokens[i]
			if cid, isConcept := labelToConcept[normalizeLemma(head.Lemma)]; isConcept {
				if counts[cid] > 0 && float64(counts[cid]) >= b.cfg.RepriseRatio*float64(top.MentionCount) {
					binding.Failed[key] = model.ReasonUnresolvedReference
					continue
				}
			}

			// Guard 3: the topic must be mentioned in scope.
			if !topicInScope(doc, top.ConceptID, sent.SectionID) {
				binding.Failed[key] = model.ReasonUnresolvedReference
				continue
			}

			// Guard 4: competing antecedents inside the token window.
			if n := b.competingAntecedents(doc, sent, i, top.ConceptID); n > 0 {
				binding.Failed[key] = fmt.Sprintf("%s:%d", model.ReasonCompetingAntecedents, n)
				b.log.Debug("anaphora abstained: competing antecedents",
					"document", doc.ID, "reference", ref, "count", n)
				continue
			}

			conf := top.Dominance
			if conf > b.cfg.MaxResolutionConfidence {
				conf = b.cfg.MaxResolutionConfidence
			}
			binding.References[key] = model.ResolvedReference{
				Text:       ref,
				ConceptID:  top.ConceptID,
				Confidence: conf,
				Method:     resolutionMethod,
				SectionID:  sent.SectionID,
				CharStart:  start,
			}
		}
	}
}

// anaphoricShape applies Guard 1: the token must be a common-noun head
// carrying a definite or demonstrative determiner, with no proper-noun,
// acronym or compound modifier. A modifier marks a specific first mention,
// not a reprise. Returns the surface reference text and its start offset.
func anaphoricShape(sent model.Sentence, i int) (string, int, bool) {
	head := sent.Tokens[i]
	if head.POS != model.POSNoun {
		return "", 0, false
	}

	detIdx := -1
	for j := range sent.Tokens {
		t := sent.Tokens[j]
		if t.Head != i || j == i {
			continue
		}
		switch {
		case t.POS == model.POSDet &&
			(t.Feats[model.FeatDefinite] == model.DefiniteDef ||
				t.Feats[model.FeatPronType] == model.PronTypeDem):
			detIdx = j
		case t.Deprel == model.DepCompound:
			return "", 0, false
		case t.POS == model.POSPropn:
			return "", 0, false
		case t.Deprel == model.DepAmod && isAcronym(t.Text):
			return "", 0, false
		}
	}
	if detIdx < 0 {
		return "", 0, false
	}

	lo, hi := detIdx, i
	if lo > hi {
		lo, hi = hi, lo
	}
	parts := make([]string, 0, hi-lo+1)
	for k := lo; k <= hi; k++ {
		parts = append(parts, sent.Tokens[k].Text)
	}
	return strings.Join(parts, " "), sent.Tokens[lo].CharStart, true
}

// competingAntecedents counts mentions of concepts other than the topic
// with a noun or proper-noun head inside the window centered on token i.
func (b *Binder) competingAntecedents(doc *model.Document, sent model.Sentence, i int, topicID string) int {
	flat, pos := flattenSection(doc, sent, i)
	half := b.cfg.AntecedentWindow / 2
	lo, hi := pos-half, pos+half
	if lo < 0 {
		lo = 0
	}
	if hi >= len(flat) {
		hi = len(flat) - 1
	}

	seen := map[string]bool{}
	n := 0
	for _, m := range doc.Mentions {
		if m.SectionID != sent.SectionID || m.ConceptID == topicID {
			continue
		}
		for k := lo; k <= hi; k++ {
			t := flat[k]
			if t.POS != model.POSNoun && t.POS != model.POSPropn {
				continue
			}
			if t.CharStart < m.CharEnd && m.CharStart < t.CharEnd {
				if !seen[m.ConceptID] {
					seen[m.ConceptID] = true
					n++
				}
				break
			}
		}
	}
	return n
}

// flattenSection concatenates the tokens of every sentence in the
// reference's section and returns the flat position of token i of sent.
func flattenSection(doc *model.Document, sent model.Sentence, i int) ([]model.Token, int) {
	var flat []model.Token
	pos := 0
	for _, s := range doc.SectionSentences(sent.SectionID) {
		if s.Index == sent.Index {
			pos = len(flat) + i
		}
		flat = append(flat, s.Tokens...)
	}
	return flat, pos
}

// topicInScope reports whether the topic is mentioned in the reference's
// section or one of its ancestors.
func topicInScope(doc *model.Document, topicID, sectionID string) bool {
	for _, m := range doc.Mentions {
		if m.ConceptID != topicID {
			continue
		}
		if m.SectionID == sectionID || doc.IsAncestor(m.SectionID, sectionID) {
			return true
		}
	}
	return false
}

// orderedSentences returns all sentences in document order: section
// reading order first, sentence index second. Deterministic.
func orderedSentences(doc *model.Document) []model.Sentence {
	order := map[string]int{}
	for _, s := range doc.Sections {
		order[s.ID] = s.ReadingOrder
	}
	out := make([]model.Sentence, len(doc.Sentences))
	copy(out, doc.Sentences)
	sort.SliceStable(out, func(i, j int) bool {
		if order[out[i].SectionID] != order[out[j].SectionID] {
			return order[out[i].SectionID] < order[out[j].SectionID]
		}
		return out[i].Index < out[j].Index
	})
	return out
}

func normalizeLemma(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func isAcronym(s string) bool {
	if len(s) < 2 {
		return false
	}
	for _, r := range s {
		if !unicode.IsUpper(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
