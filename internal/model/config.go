package model

import "time"

// Config holds all resolver settings. The documented defaults for the
// tunable bounds (antecedent window, section distance, fuzzy threshold)
// transferred from one corpus are a starting point, not law; validate them
// empirically per corpus.
type Config struct {
	Topic       TopicConfig       `yaml:"topic" json:"topic"`
	Proximity   ProximityConfig   `yaml:"proximity" json:"proximity"`
	Extract     ExtractConfig     `yaml:"extract" json:"extract"`
	Visual      VisualConfig      `yaml:"visual" json:"visual"`
	Validate    ValidateConfig    `yaml:"validate" json:"validate"`
	Score       ScoreConfig       `yaml:"score" json:"score"`
	Source      SourceConfig      `yaml:"source" json:"source"`
	Store       StoreConfig       `yaml:"store" json:"store"`
	LLM         LLMConfig         `yaml:"llm" json:"llm"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" json:"concurrency"`
	Output      OutputConfig      `yaml:"output" json:"output"`
}

// TopicConfig controls the Topic Binder.
type TopicConfig struct {
	MaxPrimaryTopics int `yaml:"max_primary_topics" json:"max_primary_topics"`

	// AntecedentWindow is the token window, centered on a reference,
	// inside which a competing concept mention forces abstention.
	AntecedentWindow int `yaml:"antecedent_window" json:"antecedent_window"`

	// MinDominance below which the whole document abstains.
	MinDominance float64 `yaml:"min_dominance" json:"min_dominance"`

	// RivalRatio: two top topics within this ratio of each other's score
	// force global abstention.
	RivalRatio float64 `yaml:"rival_ratio" json:"rival_ratio"`

	// RepriseRatio: a reference head noun that is itself a concept is
	// treated as a reprise unless its mention count is below this share
	// of the dominant topic's count.
	RepriseRatio float64 `yaml:"reprise_ratio" json:"reprise_ratio"`

	TitleBonus              float64 `yaml:"title_bonus" json:"title_bonus"`
	FirstPageBonus          float64 `yaml:"first_page_bonus" json:"first_page_bonus"`
	MaxResolutionConfidence float64 `yaml:"max_resolution_confidence" json:"max_resolution_confidence"`
}

// ProximityConfig controls cross-section pairing.
type ProximityConfig struct {
	// MaxSectionDistance is the largest reading-order gap two sections may
	// have and still be paired without a sibling or cross-reference link.
	MaxSectionDistance int `yaml:"max_section_distance" json:"max_section_distance"`
}

// ExtractConfig controls lexical fragment extraction.
type ExtractConfig struct {
	DefaultMentionConfidence   float64 `yaml:"default_mention_confidence" json:"default_mention_confidence"`
	LexicalPredicateConfidence float64 `yaml:"lexical_predicate_confidence" json:"lexical_predicate_confidence"`
}

// VisualConfig controls the visual relation extractor/retyper.
type VisualConfig struct {
	FuzzyThreshold     float64 `yaml:"fuzzy_threshold" json:"fuzzy_threshold"`
	CaptionConfidence  float64 `yaml:"caption_confidence" json:"caption_confidence"`
	AdjacentConfidence float64 `yaml:"adjacent_confidence" json:"adjacent_confidence"`
	FallbackConfidence float64 `yaml:"fallback_confidence" json:"fallback_confidence"`
}

// ValidateConfig controls the bundle validator.
type ValidateConfig struct {
	// GenericPredicates is the minimal universal stop-set of maximally
	// generic verb lemmas. Extend per corpus; no further language rules
	// are assumed.
	GenericPredicates []string `yaml:"generic_predicates" json:"generic_predicates"`
}

// ScoreConfig controls disposition thresholds.
type ScoreConfig struct {
	PromoteThreshold float64 `yaml:"promote_threshold" json:"promote_threshold"`
}

// SourceConfig controls the HTTP source provider.
type SourceConfig struct {
	BaseURL           string        `yaml:"base_url" json:"base_url"`
	Timeout           time.Duration `yaml:"timeout" json:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second" json:"requests_per_second"`
	Burst             int           `yaml:"burst" json:"burst"`
	CacheEnabled      bool          `yaml:"cache_enabled" json:"cache_enabled"`
	CacheTTL          time.Duration `yaml:"cache_ttl" json:"cache_ttl"`
}

// StoreConfig controls the persistent graph store.
type StoreConfig struct {
	Path string `yaml:"path" json:"path"`
}

// LLMConfig controls the optional reviewer notes. Disabled by default;
// reviewer output never affects confidence or disposition.
type LLMConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Model   string `yaml:"model" json:"model"`
	APIKey  string `yaml:"api_key,omitempty" json:"-"`
	BaseURL string `yaml:"base_url,omitempty" json:"base_url,omitempty"`
}

// ConcurrencyConfig controls the document worker pool.
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" json:"workers"`
}

// OutputConfig controls CLI output.
type OutputConfig struct {
	Verbose bool `yaml:"verbose" json:"verbose"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() *Config {
	return &Config{
		Topic: TopicConfig{
			MaxPrimaryTopics:        3,
			AntecedentWindow:        50,
			MinDominance:            0.3,
			RivalRatio:              0.8,
			RepriseRatio:            0.2,
			TitleBonus:              0.3,
			FirstPageBonus:          0.1,
			MaxResolutionConfidence: 0.85,
		},
		Proximity: ProximityConfig{
			MaxSectionDistance: 3,
		},
		Extract: ExtractConfig{
			DefaultMentionConfidence:   0.9,
			LexicalPredicateConfidence: 0.85,
		},
		Visual: VisualConfig{
			FuzzyThreshold:     0.8,
			CaptionConfidence:  0.9,
			AdjacentConfidence: 0.7,
			FallbackConfidence: 0.5,
		},
		Validate: ValidateConfig{
			GenericPredicates: []string{"be", "have", "do"},
		},
		Score: ScoreConfig{
			PromoteThreshold: 0.7,
		},
		Source: SourceConfig{
			Timeout:           30 * time.Second,
			RequestsPerSecond: 4,
			Burst:             2,
			CacheEnabled:      true,
			CacheTTL:          15 * time.Minute,
		},
		Store: StoreConfig{
			Path: "relato.db",
		},
		LLM: LLMConfig{
			Enabled: false,
			Model:   "gpt-4o-mini",
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
	}
}
