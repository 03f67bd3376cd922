package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// LLMGenerator produces findings with the Anthropic API instead of the
// built-in heuristics. The aggregation over its findings stays the same
// deterministic weighted rule, so swapping generators never changes how a
// score turns into a verdict.
type LLMGenerator struct {
	api       *anthropic.Client
	model     anthropic.Model
	aggregate *HeuristicGenerator
}

func NewLLMGenerator(apiKey, model string, needsChangesThreshold float64) *LLMGenerator {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	client := anthropic.NewClient(opts...)
	return &LLMGenerator{
		api:       &client,
		model:     anthropic.Model(model),
		aggregate: NewHeuristicGenerator(needsChangesThreshold),
	}
}

type llmFinding struct {
	Check   string `json:"check"`
	Verdict string `json:"verdict"`
	Comment string `json:"comment"`
}

const llmSystemPrompt = `You review GitHub pull request diffs against a checklist. Return ONLY a JSON array of objects with these fields:
- "check": the checklist item name, exactly as given
- "verdict": one of "satisfied", "unsatisfied", "not-applicable"
- "comment": one short sentence of rationale

Rules:
- Emit exactly one object per checklist item, in the given order
- Use "not-applicable" when the diff gives no evidence either way
- Return valid JSON only, no markdown fencing or explanation`

func buildReviewPrompt(in Input) string {
	var b strings.Builder

	fmt.Fprintf(&b, "PR #%d %q on branch %s (category %s)\n", in.Number, in.Title, in.SourceBranch, in.Category)
	if in.Description != "" {
		fmt.Fprintf(&b, "Description:\n%s\n", in.Description)
	}

	b.WriteString("\nChecklist:\n")
	for _, c := range in.RuleSet.Checks {
		fmt.Fprintf(&b, "- %s: %s (weight %d)\n", c.Name, c.Description, c.Weight)
	}

	b.WriteString("\nChanged files:\n")
	for _, f := range in.Files {
		fmt.Fprintf(&b, "- %s (+%d/-%d)\n", f.Filename, f.Additions, f.Deletions)
	}

	if in.Patch != "" {
		patch := in.Patch
		if len(patch) > 60000 {
			patch = patch[:60000]
		}
		fmt.Fprintf(&b, "\nDiff:\n%s\n", patch)
	}

	return b.String()
}

func (g *LLMGenerator) Generate(ctx context.Context, in Input) (Result, error) {
	msg, err := g.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     g.model,
		MaxTokens: 4096,
		System: []anthropic.TextBlockParam{
			{Text: llmSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildReviewPrompt(in))),
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("anthropic API call: %w", err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if text == "" {
		return Result{}, fmt.Errorf("no text content in API response")
	}

	text = stripFencing(text)

	var raw []llmFinding
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return Result{}, fmt.Errorf("parse LLM response as JSON: %w", err)
	}

	byCheck := make(map[string]llmFinding, len(raw))
	for _, f := range raw {
		byCheck[f.Check] = f
	}

	findings := make([]Finding, 0, len(in.RuleSet.Checks))
	for _, c := range in.RuleSet.Checks {
		verdict := VerdictNotApplicable
		comment := "no answer from model"
		if f, ok := byCheck[c.Name]; ok {
			switch Verdict(f.Verdict) {
			case VerdictSatisfied, VerdictUnsatisfied, VerdictNotApplicable:
				verdict = Verdict(f.Verdict)
				comment = f.Comment
			}
		}
		findings = append(findings, Finding{
			Check:       c.Name,
			Description: c.Description,
			Weight:      c.Weight,
			Verdict:     verdict,
			Comment:     comment,
		})
	}

	ff := analyzeFiles(in.Files)
	score, verdict, rating := g.aggregate.aggregate(findings)
	summary := renderSummary(in, findings, ff, score, verdict)

	return Result{
		Findings: findings,
		Summary:  summary,
		Score:    score,
		Rating:   rating,
		Verdict:  verdict,
	}, nil
}

func stripFencing(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.SplitN(text, "\n", 2)
	if len(lines) > 1 {
		text = lines[1]
	}
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}
