package extract

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/fredpottier/relato/internal/model"
)

// Extraction method tags for visual fragments.
const (
	methodVisualMatch    = "visual_fuzzy_match"
	methodVisualCaption  = "visual_caption"
	methodVisualAdjacent = "visual_adjacent_sentence"
	methodVisualFallback = "visual_kind_fallback"
)

// Generic relation types keyed by mark kind, used when neither a caption
// nor adjacent sentence text supports a more specific type.
var fallbackTypes = map[string]string{
	"contains":            "CONTAINS",
	"arrow":               "DIRECTED_RELATION",
	"arrow_bidirectional": "BIDIRECTIONAL_RELATION",
}

// Mark kinds that never carry enough direction or meaning to become typed
// relations: undirected grouping and spatial adjacency.
var ambiguousKinds = map[string]bool{
	"group":     true,
	"grouping":  true,
	"adjacency": true,
	"adjacent":  true,
}

// VisualExtractor turns directed visual marks (arrows, containment) into
// typed evidence bundles when a caption or adjacent sentence supports a
// type.
type VisualExtractor struct {
	cfg model.VisualConfig
	doc *model.Document
}

// NewVisualExtractor creates an extractor for one document.
func NewVisualExtractor(cfg model.VisualConfig, doc *model.Document) *VisualExtractor {
	return &VisualExtractor{cfg: cfg, doc: doc}
}

// Extract resolves every visual mark of the document into a bundle or a
// skip record.
func (v *VisualExtractor) Extract() ([]*model.EvidenceBundle, []model.SkipRecord) {
	concepts := v.conceptKeys()

	var bundles []*model.EvidenceBundle
	var skips []model.SkipRecord
	for i, mark := range v.doc.Marks {
		b, skip := v.resolveMark(i, mark, concepts)
		if skip != nil {
			skips = append(skips, *skip)
			continue
		}
		bundles = append(bundles, b)
	}
	return bundles, skips
}

type conceptKey struct {
	conceptID string
	label     string
	key       string
}

func (v *VisualExtractor) conceptKeys() []conceptKey {
	byID := map[string]string{}
	for _, m := range v.doc.Mentions {
		if _, ok := byID[m.ConceptID]; !ok {
			byID[m.ConceptID] = m.Label
		}
	}
	out := make([]conceptKey, 0, len(byID))
	for id, label := range byID {
		out = append(out, conceptKey{conceptID: id, label: label, key: normalizeKey(label)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].conceptID < out[j].conceptID })
	return out
}

func (v *VisualExtractor) resolveMark(idx int, mark model.VisualMark, concepts []conceptKey) (*model.EvidenceBundle, *model.SkipRecord) {
	if ambiguousKinds[strings.ToLower(mark.Kind)] {
		return nil, &model.SkipRecord{Reason: model.ReasonAmbiguousMarkKind}
	}

	src, srcSim := v.match(mark.SourceText, concepts)
	dst, dstSim := v.match(mark.TargetText, concepts)
	if src == nil || dst == nil || src.conceptID == dst.conceptID {
		return nil, &model.SkipRecord{Reason: model.ReasonUnmatchedMarkLabel}
	}

	relType, conf, method := v.retype(mark)
	if relType == "" {
		return nil, &model.SkipRecord{
			SubjectID: src.conceptID, ObjectID: dst.conceptID,
			Reason: model.ReasonAmbiguousMarkKind,
		}
	}

	key := fmt.Sprintf("%s|mark:%d|%s|%s", v.doc.ID, idx, src.conceptID, dst.conceptID)
	predicate := v.fragment(key, model.FragmentPredicateVisual, markText(mark), mark.Page, conf, method)

	return &model.EvidenceBundle{
		ID:               uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String(),
		DocumentID:       v.doc.ID,
		SubjectID:        src.conceptID,
		ObjectID:         dst.conceptID,
		Subject:          v.fragment(key+":subject", model.FragmentEntityMention, src.label, mark.Page, srcSim, methodVisualMatch),
		Object:           v.fragment(key+":object", model.FragmentEntityMention, dst.label, mark.Page, dstSim, methodVisualMatch),
		Predicates:       []model.EvidenceFragment{predicate},
		RelationType:     relType,
		TypingConfidence: conf,
		Status:           model.StatusCandidate,
	}, nil
}

// match finds the best concept for a mark label, nil when similarity stays
// under the threshold.
func (v *VisualExtractor) match(text string, concepts []conceptKey) (*conceptKey, float64) {
	key := normalizeKey(text)
	if key == "" {
		return nil, 0
	}
	var best *conceptKey
	bestSim := 0.0
	for i := range concepts {
		s := similarity(key, concepts[i].key)
		if s > bestSim {
			best = &concepts[i]
			bestSim = s
		}
	}
	if best == nil || bestSim < v.cfg.FuzzyThreshold {
		return nil, 0
	}
	return best, bestSim
}

// retype assigns the relation type by priority: explicit caption, then a
// predicate from sentence text adjacent to the mark on the same page, then
// the generic fallback keyed by mark kind.
func (v *VisualExtractor) retype(mark model.VisualMark) (string, float64, string) {
	if caption := strings.TrimSpace(mark.Caption); caption != "" {
		return RelationToken(normalizeKey(caption)), v.cfg.CaptionConfidence, methodVisualCaption
	}
	if lemma := v.adjacentPredicate(mark); lemma != "" {
		return RelationToken(lemma), v.cfg.AdjacentConfidence, methodVisualAdjacent
	}
	if t, ok := fallbackTypes[strings.ToLower(mark.Kind)]; ok {
		return t, v.cfg.FallbackConfidence, methodVisualFallback
	}
	return "", 0, ""
}

// adjacentPredicate looks for a non-auxiliary, non-modal verb in sentences
// on the mark's page. Adjacency is page-scoped: the layout parser supplies
// page numbers on sentences, not shared coordinates.
// TODO: rank candidate sentences by distance to mark.BBox once the layout
// parser emits sentence bounding boxes.
func (v *VisualExtractor) adjacentPredicate(mark model.VisualMark) string {
	if mark.Page == 0 {
		return ""
	}
	for _, sent := range v.doc.Sentences {
		if sent.Page != mark.Page {
			continue
		}
		for _, t := range sent.Tokens {
			if t.POS != model.POSVerb {
				continue
			}
			if t.Deprel == model.DepAux || t.Deprel == model.DepAuxPass || t.Deprel == model.DepCop {
				continue
			}
			return t.Lemma
		}
	}
	return ""
}

func (v *VisualExtractor) fragment(key string, ft model.FragmentType, text string, page int, conf float64, method string) model.EvidenceFragment {
	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s|%s|%s", key, ft, text)))
	return model.EvidenceFragment{
		ID:         id.String(),
		Type:       ft,
		Text:       text,
		Page:       page,
		Confidence: conf,
		Method:     method,
	}
}

func markText(mark model.VisualMark) string {
	if c := strings.TrimSpace(mark.Caption); c != "" {
		return c
	}
	return mark.Kind
}
