// Package llm generates optional reviewer notes for CANDIDATE bundles in
// the manual-review queue.
//
// CRITICAL: reviewer output never affects confidence, disposition, or any
// other scoring path. It runs strictly after disposition and writes only
// to the report's review annex. The resolver asserts relations from
// auditable guardrails alone; the reviewer just drafts prose for humans.
package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/fredpottier/relato/internal/model"
)

const reviewSystemPrompt = `You are assisting a human reviewer of a knowledge-graph ingestion pipeline.
For each candidate relation you receive the evidence fragments that support it.
Write one short note (max 2 sentences) telling the reviewer what to check.
Never claim the relation is true or false; only point at the evidence.`

// Reviewer drafts notes for candidate bundles.
type Reviewer struct {
	client *openai.Client
	model  string
}

// NewReviewer creates a reviewer, or nil when the configuration disables
// it or carries no API key.
func NewReviewer(cfg model.LLMConfig) *Reviewer {
	if !cfg.Enabled || cfg.APIKey == "" {
		return nil
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Reviewer{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}
}

// Review produces the review annex for a report's candidate bundles.
// Failures degrade to a partial annex; they never fail the resolution.
func (r *Reviewer) Review(ctx context.Context, report *model.ResolveReport) (*model.ReviewAnnex, error) {
	candidates := report.CandidatesForReview()
	if len(candidates) == 0 {
		return nil, nil
	}

	annex := &model.ReviewAnnex{Provider: "openai", Model: r.model}
	for _, b := range candidates {
		note, err := r.note(ctx, &b)
		if err != nil {
			return annex, fmt.Errorf("review bundle %s: %w", b.ID, err)
		}
		annex.Notes = append(annex.Notes, model.ReviewNote{BundleID: b.ID, Note: note})
	}
	return annex, nil
}

func (r *Reviewer) note(ctx context.Context, b *model.EvidenceBundle) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Candidate relation: %s %s %s (confidence %.2f)\n",
		b.SubjectID, b.RelationType, b.ObjectID, b.Confidence)
	for _, f := range b.Fragments() {
		fmt.Fprintf(&sb, "- [%s %.2f] %s\n", f.Type, f.Confidence, f.Text)
	}

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: r.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: reviewSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: sb.String()},
		},
		MaxTokens:   120,
		Temperature: 0,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
