package pairs

import (
	"sort"

	"github.com/fredpottier/relato/internal/model"
)

// CandidatePair is one unordered pair of canonical concepts whose mentions
// are structurally close enough to attempt evidence assembly. AID < BID
// lexically; no self-pairs.
type CandidatePair struct {
	AID, BID string
	A, B     model.ConceptMention
	// ProximityReason is the accepting path from the proximity validator.
	ProximityReason string
}

// Generator enumerates candidate pairs by grouping mentions per section,
// never by a pairwise scan across the whole document.
type Generator struct {
	prox *Proximity
}

// NewGenerator creates a generator backed by the given proximity validator.
func NewGenerator(prox *Proximity) *Generator {
	return &Generator{prox: prox}
}

// Generate returns deduplicated candidate pairs in deterministic order,
// plus skip records for section pairs whose mentions were kept apart.
// Mentions lacking a known section are skipped with MALFORMED_INPUT.
func (g *Generator) Generate(doc *model.Document) ([]CandidatePair, []model.SkipRecord) {
	var skips []model.SkipRecord

	// Group the earliest mention of each concept per section.
	bySection := map[string]map[string]model.ConceptMention{}
	for _, m := range doc.Mentions {
		if m.SectionID == "" || doc.Section(m.SectionID) == nil {
			skips = append(skips, model.SkipRecord{
				SubjectID: m.ConceptID,
				SectionA:  m.SectionID,
				Reason:    model.ReasonMalformedInput,
			})
			continue
		}
		sec := bySection[m.SectionID]
		if sec == nil {
			sec = map[string]model.ConceptMention{}
			bySection[m.SectionID] = sec
		}
		if prev, ok := sec[m.ConceptID]; !ok || m.CharStart < prev.CharStart {
			sec[m.ConceptID] = m
		}
	}

	sectionIDs := make([]string, 0, len(bySection))
	for id := range bySection {
		sectionIDs = append(sectionIDs, id)
	}
	sort.Slice(sectionIDs, func(i, j int) bool {
		return doc.Section(sectionIDs[i]).ReadingOrder < doc.Section(sectionIDs[j]).ReadingOrder
	})

	seen := map[string]bool{}
	var out []CandidatePair

	add := func(ma, mb model.ConceptMention, reason string) {
		if ma.ConceptID == mb.ConceptID {
			return
		}
		if mb.ConceptID < ma.ConceptID {
			ma, mb = mb, ma
		}
		key := ma.ConceptID + "\x00" + mb.ConceptID
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, CandidatePair{
			AID: ma.ConceptID, BID: mb.ConceptID,
			A: ma, B: mb,
			ProximityReason: reason,
		})
	}

	// Same-section pairs first: they carry the strongest locality.
	for _, sid := range sectionIDs {
		for _, a := range sortedConcepts(bySection[sid]) {
			for _, b := range sortedConcepts(bySection[sid]) {
				if a < b {
					add(bySection[sid][a], bySection[sid][b], ReasonSameSection)
				}
			}
		}
	}

	// Cross-section pairs, gated by the proximity validator.
	skippedSections := map[string]bool{}
	for i := 0; i < len(sectionIDs); i++ {
		for j := i + 1; j < len(sectionIDs); j++ {
			ok, reason := g.prox.Validate(sectionIDs[i], sectionIDs[j])
			if !ok {
				key := sectionIDs[i] + "\x00" + sectionIDs[j]
				if !skippedSections[key] {
					skippedSections[key] = true
					skips = append(skips, model.SkipRecord{
						SectionA: sectionIDs[i],
						SectionB: sectionIDs[j],
						Reason:   reason,
					})
				}
				continue
			}
			for _, a := range sortedConcepts(bySection[sectionIDs[i]]) {
				for _, b := range sortedConcepts(bySection[sectionIDs[j]]) {
					add(bySection[sectionIDs[i]][a], bySection[sectionIDs[j]][b], reason)
				}
			}
		}
	}

	return out, skips
}

func sortedConcepts(m map[string]model.ConceptMention) []string {
	out := make([]string, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
