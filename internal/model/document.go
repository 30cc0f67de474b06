package model

// SectionContext describes one section of a document as delivered by the
// external structural parser. Consumed read-only.
type SectionContext struct {
	ID           string   `json:"id"`
	ParentID     string   `json:"parent_id,omitempty"`     // empty for top-level sections
	ReadingOrder int      `json:"reading_order"`           // unique, strictly increasing in document order
	Path         []string `json:"path,omitempty"`          // ordered ancestor titles
	Page         int      `json:"page,omitempty"`          // 1-based, 0 when unknown
}

// CrossRef is an explicit structural cross-reference edge between two
// sections ("see section 4.2"), supplied by the structural parser.
type CrossRef struct {
	FromSectionID string `json:"from_section_id"`
	ToSectionID   string `json:"to_section_id"`
}

// ConceptMention locates one mention of a canonical concept in the text.
// Produced by upstream extraction; immutable once created.
type ConceptMention struct {
	ConceptID  string  `json:"concept_id"` // canonical identity
	Label      string  `json:"label"`
	CharStart  int     `json:"char_start"`
	CharEnd    int     `json:"char_end"`
	SectionID  string  `json:"section_id"`
	Confidence float64 `json:"confidence,omitempty"` // upstream mention confidence, 0 = use default
}

// Universal part-of-speech tags the tagging service emits. Only the tags
// the guards actually inspect are named here.
const (
	POSVerb   = "VERB"
	POSAux    = "AUX"
	POSNoun   = "NOUN"
	POSPropn  = "PROPN"
	POSDet    = "DET"
	POSPron   = "PRON"
)

// Dependency relations inspected by the guards.
const (
	DepAux      = "aux"
	DepAuxPass  = "aux:pass"
	DepCop      = "cop"
	DepCompound = "compound"
	DepAmod     = "amod"
	DepDet      = "det"
)

// Morphological feature keys/values inspected by the guards.
const (
	FeatDefinite = "Definite"
	FeatPronType = "PronType"
	FeatVerbForm = "VerbForm"
	FeatMood     = "Mood"

	DefiniteDef   = "Def"
	PronTypeDem   = "Dem"
	VerbFormVnoun = "Vnoun"
	VerbFormGer   = "Ger"
	VerbFormGdv   = "Gdv"
	MoodNec       = "Nec" // necessitative (modal "must")
	MoodPot       = "Pot" // potential (modal "may"/"can")
)

// Token is one tagged token from the external tagging service.
type Token struct {
	Text      string            `json:"text"`
	Lemma     string            `json:"lemma"`
	POS       string            `json:"pos"`
	Deprel    string            `json:"deprel,omitempty"`
	Head      int               `json:"head"` // index of head token within the sentence, -1 for root
	Feats     map[string]string `json:"feats,omitempty"`
	CharStart int               `json:"char_start"`
	CharEnd   int               `json:"char_end"`
}

// Sentence groups the tagged tokens of one sentence, located in a section.
type Sentence struct {
	SectionID string  `json:"section_id"`
	Index     int     `json:"index"` // 0-based within the section
	Page      int     `json:"page,omitempty"`
	Tokens    []Token `json:"tokens"`
}

// VisualMark is a directed graphical relation extracted from page layout
// by the external diagram parser: an arrow, a containment box, etc.
type VisualMark struct {
	SourceText string  `json:"source_text"`
	TargetText string  `json:"target_text"`
	Kind       string  `json:"kind"` // "arrow", "arrow_bidirectional", "contains", ...
	Caption    string  `json:"caption,omitempty"`
	Page       int     `json:"page,omitempty"`
	BBox       [4]int  `json:"bbox,omitempty"` // x0, y0, x1, y1
}

// Document is the complete per-document input to the resolver: sections,
// mentions, tagged sentences and visual marks, all supplied by external
// collaborators and consumed read-only.
type Document struct {
	ID        string           `json:"id"`
	Title     string           `json:"title,omitempty"`
	Sections  []SectionContext `json:"sections"`
	CrossRefs []CrossRef       `json:"cross_refs,omitempty"`
	Mentions  []ConceptMention `json:"mentions"`
	Sentences []Sentence       `json:"sentences,omitempty"`
	Marks     []VisualMark     `json:"marks,omitempty"`
}

// Section returns the section with the given id, or nil.
func (d *Document) Section(id string) *SectionContext {
	for i := range d.Sections {
		if d.Sections[i].ID == id {
			return &d.Sections[i]
		}
	}
	return nil
}

// SectionSentences returns the sentences of one section in index order.
func (d *Document) SectionSentences(sectionID string) []Sentence {
	var out []Sentence
	for _, s := range d.Sentences {
		if s.SectionID == sectionID {
			out = append(out, s)
		}
	}
	return out
}

// IsAncestor reports whether ancestorID is anc (or equal to) the section
// identified by sectionID, following parent links.
func (d *Document) IsAncestor(ancestorID, sectionID string) bool {
	cur := d.Section(sectionID)
	for cur != nil {
		if cur.ID == ancestorID {
			return true
		}
		if cur.ParentID == "" {
			return false
		}
		cur = d.Section(cur.ParentID)
	}
	return false
}
