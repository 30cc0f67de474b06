package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fredpottier/relato/internal/llm"
	"github.com/fredpottier/relato/internal/model"
	"github.com/fredpottier/relato/internal/pipeline"
	"github.com/fredpottier/relato/internal/source"
	"github.com/fredpottier/relato/internal/store"
)

var (
	outJSON          string
	dbPath           string
	resolveTimeout   time.Duration
	antecedentWindow int
	sectionDistance  int
	promoteThreshold float64
	llmEnabled       bool
	llmModel         string
)

// resolveCmd represents the resolve command
var resolveCmd = &cobra.Command{
	Use:   "resolve <document.json>",
	Short: "Resolve evidence bundles for a single document export",
	Long: `Resolve reads one document export (sections, concept mentions, tagged
sentences, visual marks) and assembles evidence bundles:
- binds the document's dominant topic and anaphoric references
- enumerates candidate concept pairs gated by structural proximity
- extracts entity, predicate, coreference and visual evidence fragments
- rejects non-relations through auditable guardrails
- derives one weakest-link confidence per bundle and its disposition

Example:
  relato resolve exports/monograph-r204.json
  relato resolve exports/monograph-r204.json --json report.json --db graph.db`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().StringVar(&outJSON, "json", "", "output JSON report path (default: stdout)")
	resolveCmd.Flags().StringVar(&dbPath, "db", "", "graph store path (omit to skip persistence)")
	resolveCmd.Flags().DurationVar(&resolveTimeout, "timeout", time.Minute, "per-document timeout")

	resolveCmd.Flags().IntVar(&antecedentWindow, "window", 50, "competing-antecedent token window")
	resolveCmd.Flags().IntVar(&sectionDistance, "distance", 3, "max reading-order distance for cross-section pairs")
	resolveCmd.Flags().Float64Var(&promoteThreshold, "promote", 0.7, "confidence threshold for promotion")

	resolveCmd.Flags().BoolVar(&llmEnabled, "llm", false, "generate reviewer notes for candidate bundles")
	resolveCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "reviewer model name")
}

func runResolve(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	defer cancel()

	cfg := buildConfig()
	doc, err := source.LoadFile(args[0])
	if err != nil {
		return err
	}

	resolver := pipeline.NewResolver(cfg, slog.Default())
	report, err := resolver.Resolve(ctx, doc)
	if err != nil {
		return fmt.Errorf("resolve failed: %w", err)
	}

	// Reviewer notes run after disposition and never affect it.
	if reviewer := llm.NewReviewer(cfg.LLM); reviewer != nil {
		annex, err := reviewer.Review(ctx, report)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: reviewer notes incomplete: %v\n", err)
		}
		report.Review = annex
	}

	if dbPath != "" {
		st, err := store.Open(dbPath)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.SaveReport(ctx, report); err != nil {
			return fmt.Errorf("persist report: %w", err)
		}
	}

	if err := writeReport(report, outJSON); err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ %d pairs, %d promoted, %d candidates, %d rejected, %d skipped\n",
			report.Stats.Pairs, report.Stats.Promoted, report.Stats.Candidates,
			report.Stats.Rejected, report.Stats.Skipped)
	}
	return nil
}

// buildConfig layers the resolve flags over the defaults.
func buildConfig() *model.Config {
	cfg := model.DefaultConfig()
	cfg.Topic.AntecedentWindow = antecedentWindow
	cfg.Proximity.MaxSectionDistance = sectionDistance
	cfg.Score.PromoteThreshold = promoteThreshold
	if llmEnabled {
		cfg.LLM.Enabled = true
		cfg.LLM.Model = llmModel
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	return cfg
}

func writeReport(report *model.ResolveReport, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	data = append(data, '\n')
	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
