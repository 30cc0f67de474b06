// Package extract assembles evidence fragments for candidate concept
// pairs: entity mentions, lexical predicates, coreference links, and typed
// visual relations. Fragments are immutable once created and owned by the
// bundle that contains them.
package extract

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/fredpottier/relato/internal/model"
	"github.com/fredpottier/relato/internal/pairs"
)

// Extraction method tags recorded on fragments.
const (
	methodUpstreamMention = "upstream_mention"
	methodLexicalBetween  = "lexical_between_mentions"
	methodLexicalSentence = "lexical_same_sentence"
	methodTopicBinding    = "topic_binding"
)

// FragmentExtractor builds evidence bundles for validated candidate pairs
// of one document. The topic binding is consumed read-only.
type FragmentExtractor struct {
	cfg     model.ExtractConfig
	doc     *model.Document
	binding *model.DocumentTopicBinding
}

// NewFragmentExtractor creates an extractor for one document.
func NewFragmentExtractor(cfg model.ExtractConfig, doc *model.Document, binding *model.DocumentTopicBinding) *FragmentExtractor {
	return &FragmentExtractor{cfg: cfg, doc: doc, binding: binding}
}

// Build assembles a bundle for the pair, or returns a skip record when the
// evidence is insufficient. A pair with no predicate fragment produces no
// bundle; that is the common case, not an error.
func (e *FragmentExtractor) Build(pair pairs.CandidatePair) (*model.EvidenceBundle, *model.SkipRecord) {
	skip := func(reason string) *model.SkipRecord {
		return &model.SkipRecord{
			SubjectID: pair.AID, ObjectID: pair.BID,
			SectionA: pair.A.SectionID, SectionB: pair.B.SectionID,
			Reason: reason,
		}
	}

	if pair.A.SectionID == "" || pair.B.SectionID == "" {
		return nil, skip(model.ReasonMalformedInput)
	}

	key := bundleKey(e.doc.ID, pair)
	crossSection := pair.A.SectionID != pair.B.SectionID

	var link *model.EvidenceFragment
	var anchor *model.ResolvedReference
	if crossSection {
		ref, reason := e.linkReference(pair)
		if ref == nil {
			return nil, skip(reason)
		}
		anchor = ref
		f := e.fragment(key, model.FragmentCoreferenceLink, ref.Text, ref.SectionID, ref.Confidence, methodTopicBinding)
		link = &f
	}

	predicates := e.predicates(key, pair, anchor)
	if len(predicates) == 0 {
		return nil, skip(model.ReasonNoPredicate)
	}

	subject := e.mentionFragment(key, "subject", pair.A)
	object := e.mentionFragment(key, "object", pair.B)

	relType, typing := RelationCandidate(predicates)

	return &model.EvidenceBundle{
		ID:               uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String(),
		DocumentID:       e.doc.ID,
		SubjectID:        pair.AID,
		ObjectID:         pair.BID,
		Subject:          subject,
		Object:           object,
		Predicates:       predicates,
		Link:             link,
		RelationType:     relType,
		TypingConfidence: typing,
		Status:           model.StatusCandidate,
	}, nil
}

// linkReference finds the topic-binding resolution that justifies joining
// the two sections, together with the reason when there is none.
func (e *FragmentExtractor) linkReference(pair pairs.CandidatePair) (*model.ResolvedReference, string) {
	if e.binding == nil || e.binding.Abstained {
		return nil, model.ReasonAmbiguousTopic
	}
	for _, sid := range []string{pair.B.SectionID, pair.A.SectionID} {
		if ref := e.binding.ReferenceIn(sid); ref != nil {
			if ref.ConceptID == pair.AID || ref.ConceptID == pair.BID {
				return ref, ""
			}
		}
	}
	// Surface the precise guard that fired, when one did. Matching keys
	// are visited in sorted order so the surfaced reason is stable when a
	// section holds several failed references.
	for _, sid := range []string{pair.B.SectionID, pair.A.SectionID} {
		var keys []string
		for k := range e.binding.Failed {
			if strings.HasPrefix(k, sid+":") {
				keys = append(keys, k)
			}
		}
		if len(keys) > 0 {
			sort.Strings(keys)
			return nil, e.binding.Failed[keys[0]]
		}
	}
	return nil, model.ReasonUnresolvedReference
}

// predicates extracts PREDICATE_LEXICAL fragments from tokens between the
// two mentions, or within the sentences containing a mention or the
// coreference anchor.
func (e *FragmentExtractor) predicates(key string, pair pairs.CandidatePair, anchor *model.ResolvedReference) []model.EvidenceFragment {
	type site struct {
		sent   model.Sentence
		method string
	}
	var sites []site

	sameSection := pair.A.SectionID == pair.B.SectionID
	lo, hi := pair.A, pair.B
	if hi.CharStart < lo.CharStart {
		lo, hi = hi, lo
	}

	for _, sent := range e.doc.Sentences {
		switch {
		case sameSection && sent.SectionID == pair.A.SectionID:
			sites = append(sites, site{sent, methodLexicalBetween})
		case sent.SectionID == pair.A.SectionID && sentenceCovers(sent, pair.A):
			sites = append(sites, site{sent, methodLexicalSentence})
		case sent.SectionID == pair.B.SectionID && sentenceCovers(sent, pair.B):
			sites = append(sites, site{sent, methodLexicalSentence})
		case anchor != nil && sent.SectionID == anchor.SectionID && coversOffset(sent, anchor.CharStart):
			sites = append(sites, site{sent, methodLexicalSentence})
		}
	}

	seen := map[string]bool{}
	var out []model.EvidenceFragment
	for _, s := range sites {
		for i, t := range s.sent.Tokens {
			if !predicateShape(t) {
				continue
			}
			if sameSection && s.method == methodLexicalBetween {
				between := t.CharStart >= lo.CharEnd && t.CharEnd <= hi.CharStart
				inMentionSentence := sentenceCovers(s.sent, pair.A) || sentenceCovers(s.sent, pair.B)
				if !between && !inMentionSentence {
					continue
				}
			}
			dk := fmt.Sprintf("%s:%d:%d", s.sent.SectionID, s.sent.Index, i)
			if seen[dk] {
				continue
			}
			seen[dk] = true

			f := e.fragment(key, model.FragmentPredicateLexical,
				predicatePhrase(s.sent, i), s.sent.SectionID,
				e.cfg.LexicalPredicateConfidence, s.method)
			f.Lemma = t.Lemma
			f.POS = t.POS
			f.Deprel = t.Deprel
			f.Feats = t.Feats
			out = append(out, f)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SectionID != out[j].SectionID {
			return out[i].SectionID < out[j].SectionID
		}
		return out[i].Text < out[j].Text
	})
	return out
}

// predicateShape accepts verbs that are not functioning as auxiliaries of
// another predicate, and deverbal nouns identified morphologically.
// Modal, copular and generic predicates survive extraction so the bundle
// validator can reject them with an explicit reason.
func predicateShape(t model.Token) bool {
	switch t.POS {
	case model.POSVerb, model.POSAux:
		return t.Deprel != model.DepAux && t.Deprel != model.DepAuxPass
	case model.POSNoun:
		switch t.Feats[model.FeatVerbForm] {
		case model.VerbFormVnoun, model.VerbFormGer, model.VerbFormGdv:
			return true
		}
	}
	return false
}

// predicatePhrase renders the predicate with its function-word children
// (auxiliaries, particles, negation, case markers) so the fragment text
// reads as the document states it, e.g. "must not be combined with".
func predicatePhrase(sent model.Sentence, head int) string {
	lo, hi := head, head
	for j, t := range sent.Tokens {
		if t.Head != head || j == head {
			continue
		}
		functional := t.Deprel == model.DepAux || t.Deprel == model.DepAuxPass ||
			t.POS == "PART" || t.POS == "ADP"
		if !functional {
			continue
		}
		if j < lo {
			lo = j
		}
		if j > hi {
			hi = j
		}
	}
	parts := make([]string, 0, hi-lo+1)
	for k := lo; k <= hi; k++ {
		parts = append(parts, sent.Tokens[k].Text)
	}
	return strings.Join(parts, " ")
}

func (e *FragmentExtractor) mentionFragment(key, role string, m model.ConceptMention) model.EvidenceFragment {
	conf := m.Confidence
	if conf == 0 {
		conf = e.cfg.DefaultMentionConfidence
	}
	f := e.fragment(key+":"+role, model.FragmentEntityMention, m.Label, m.SectionID, conf, methodUpstreamMention)
	return f
}

func (e *FragmentExtractor) fragment(key string, ft model.FragmentType, text, sectionID string, conf float64, method string) model.EvidenceFragment {
	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s|%s|%s|%s", key, ft, sectionID, text)))
	return model.EvidenceFragment{
		ID:         id.String(),
		Type:       ft,
		Text:       text,
		SectionID:  sectionID,
		Confidence: conf,
		Method:     method,
	}
}

// RelationCandidate derives the relation type token from the most specific
// predicate: verbs win over deverbal nouns, non-copular over copular. The
// bundle validator re-derives the type after it prunes weak predicates, so
// the kept type is always backed by a surviving fragment.
func RelationCandidate(predicates []model.EvidenceFragment) (string, float64) {
	best := predicates[0]
	for _, p := range predicates[1:] {
		if specificity(p) > specificity(best) {
			best = p
		}
	}
	return RelationToken(best.Lemma), best.Confidence
}

func specificity(f model.EvidenceFragment) int {
	switch {
	case f.POS == model.POSVerb && f.Deprel != model.DepCop:
		return 3
	case f.POS == model.POSNoun:
		return 2
	default:
		return 1
	}
}

// RelationToken normalizes a lemma or caption into a relation-type token:
// uppercase, runs of non-alphanumerics collapsed to underscores.
func RelationToken(s string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToUpper(strings.TrimSpace(s)) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastUnderscore = false
		} else if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

func coversOffset(sent model.Sentence, off int) bool {
	if len(sent.Tokens) == 0 {
		return false
	}
	return off >= sent.Tokens[0].CharStart && off < sent.Tokens[len(sent.Tokens)-1].CharEnd
}

func sentenceCovers(sent model.Sentence, m model.ConceptMention) bool {
	if len(sent.Tokens) == 0 {
		return false
	}
	start := sent.Tokens[0].CharStart
	end := sent.Tokens[len(sent.Tokens)-1].CharEnd
	return m.CharStart >= start && m.CharEnd <= end
}

func bundleKey(docID string, pair pairs.CandidatePair) string {
	return fmt.Sprintf("%s|%s|%s|%s|%s", docID, pair.AID, pair.BID, pair.A.SectionID, pair.B.SectionID)
}
