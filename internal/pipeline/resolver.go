// Package pipeline orchestrates per-document evidence bundle resolution:
// topic binding, candidate pair generation, fragment extraction, visual
// retyping, validation and scoring, in that strict order. Processing is
// document-scoped and stateless across documents; the resolver is a pure,
// deterministic function of its inputs.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/fredpottier/relato/internal/extract"
	"github.com/fredpottier/relato/internal/model"
	"github.com/fredpottier/relato/internal/pairs"
	"github.com/fredpottier/relato/internal/score"
	"github.com/fredpottier/relato/internal/topic"
	"github.com/fredpottier/relato/internal/validate"
)

// Resolver resolves evidence bundles for one document at a time.
type Resolver struct {
	cfg       *model.Config
	log       *slog.Logger
	binder    *topic.Binder
	validator *validate.Validator
	scorer    *score.Scorer
}

// NewResolver creates a resolver from the configuration.
func NewResolver(cfg *model.Config, log *slog.Logger) *Resolver {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{
		cfg:       cfg,
		log:       log,
		binder:    topic.NewBinder(cfg.Topic, log),
		validator: validate.NewValidator(cfg.Validate, log),
		scorer:    score.NewScorer(cfg.Score),
	}
}

// Resolve runs the full pipeline for one document. One bad mention skips
// its candidate pair with a reason code; it never aborts the document.
func (r *Resolver) Resolve(ctx context.Context, doc *model.Document) (*model.ResolveReport, error) {
	if doc == nil || doc.ID == "" {
		return nil, errors.New("resolve: document without id")
	}
	if err := checkSections(doc); err != nil {
		return nil, fmt.Errorf("resolve %s: %w", doc.ID, err)
	}

	report := &model.ResolveReport{
		DocumentID: doc.ID,
		Title:      doc.Title,
		ResolvedAt: time.Now().UTC(),
	}

	// 1. Topic binding, consumed read-only by everything downstream.
	binding := r.binder.Bind(doc)
	report.Topics = binding.Primary
	report.Abstained = binding.Abstained
	report.AbstainReason = binding.AbstainReason

	// 2-3. Candidate pairs, gated by structural proximity.
	prox := pairs.NewProximity(doc, r.cfg.Proximity.MaxSectionDistance)
	gen := pairs.NewGenerator(prox)
	candidates, skips := gen.Generate(doc)
	report.Skips = append(report.Skips, skips...)
	report.Stats.Pairs = len(candidates)

	// 4-5. Fragment assembly. Pairs are independent and fragments
	// immutable; extraction stays sequential so output ordering is
	// byte-identical across runs, with parallelism at the document level.
	fragEx := extract.NewFragmentExtractor(r.cfg.Extract, doc, binding)
	var bundles []*model.EvidenceBundle
	for _, pair := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("resolve %s: %w", doc.ID, err)
		}
		b, skip := fragEx.Build(pair)
		if skip != nil {
			report.Skips = append(report.Skips, *skip)
			continue
		}
		bundles = append(bundles, b)
	}

	// 6. Visual relations.
	visEx := extract.NewVisualExtractor(r.cfg.Visual, doc)
	visBundles, visSkips := visEx.Extract()
	bundles = append(bundles, visBundles...)
	report.Skips = append(report.Skips, visSkips...)

	// 7-8. Guardrails, then disposition.
	for _, b := range bundles {
		r.validator.Validate(b)
		r.scorer.Score(b)
	}

	sort.SliceStable(bundles, func(i, j int) bool {
		if bundles[i].SubjectID != bundles[j].SubjectID {
			return bundles[i].SubjectID < bundles[j].SubjectID
		}
		if bundles[i].ObjectID != bundles[j].ObjectID {
			return bundles[i].ObjectID < bundles[j].ObjectID
		}
		if bundles[i].RelationType != bundles[j].RelationType {
			return bundles[i].RelationType < bundles[j].RelationType
		}
		return bundles[i].ID < bundles[j].ID
	})

	report.Bundles = make([]model.EvidenceBundle, 0, len(bundles))
	for _, b := range bundles {
		report.Bundles = append(report.Bundles, *b)
		switch b.Status {
		case model.StatusPromoted:
			report.Stats.Promoted++
		case model.StatusCandidate:
			report.Stats.Candidates++
		case model.StatusRejected:
			report.Stats.Rejected++
		}
	}
	report.Stats.Skipped = len(report.Skips)

	r.log.Info("document resolved",
		"document", doc.ID,
		"pairs", report.Stats.Pairs,
		"promoted", report.Stats.Promoted,
		"candidates", report.Stats.Candidates,
		"rejected", report.Stats.Rejected,
		"skipped", report.Stats.Skipped)
	return report, nil
}

// checkSections enforces the upstream invariant that reading-order indexes
// are unique per document.
func checkSections(doc *model.Document) error {
	seen := map[int]string{}
	for _, s := range doc.Sections {
		if s.ID == "" {
			return errors.New("section without id")
		}
		if prev, dup := seen[s.ReadingOrder]; dup {
			return fmt.Errorf("sections %s and %s share reading order %d", prev, s.ID, s.ReadingOrder)
		}
		seen[s.ReadingOrder] = s.ID
	}
	return nil
}
