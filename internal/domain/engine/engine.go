package engine

import (
	"context"

	"reviewgate/internal/domain/rules"
)

type Verdict string

const (
	VerdictSatisfied     Verdict = "satisfied"
	VerdictUnsatisfied   Verdict = "unsatisfied"
	VerdictNotApplicable Verdict = "not-applicable"
)

type SummaryVerdict string

const (
	SummaryLooksGood    SummaryVerdict = "looks-good"
	SummaryNeedsChanges SummaryVerdict = "needs-changes"
)

type Rating string

const (
	RatingExcellent Rating = "excellent"
	RatingGood      Rating = "good"
	RatingNeedsWork Rating = "needs_work"
	RatingPoor      Rating = "poor"
)

// FileChange is one changed file from the PR's file list.
type FileChange struct {
	Filename  string
	Additions int
	Deletions int
}

// Commit is one commit from the PR, first line of the message only matters
// to the heuristics.
type Commit struct {
	SHA     string
	Message string
}

// Input carries everything a generator may inspect. It is assembled by the
// dispatch coordinator from the synced PR and the fetched diff.
type Input struct {
	Repo         string
	Number       int
	Title        string
	Description  string
	SourceBranch string
	Category     rules.Category
	RuleSet      rules.RuleSet
	Files        []FileChange
	Patch        string
	Commits      []Commit
}

// Finding is the evaluation of one expectation.
type Finding struct {
	Check       string  `json:"check"`
	Description string  `json:"description"`
	Weight      int     `json:"weight"`
	Verdict     Verdict `json:"verdict"`
	Comment     string  `json:"comment"`
}

// Remark is a line-level note extracted from the patch (debug statements,
// added TODOs).
type Remark struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Severity string `json:"severity"`
	Comment  string `json:"comment"`
}

// Result is the produced review content. Creating the Review entity around
// it is the coordinator's job; generators have no side effects.
type Result struct {
	Findings []Finding
	Remarks  []Remark
	Summary  string
	Score    int
	Rating   Rating
	Verdict  SummaryVerdict
}

// Generator produces review content for a PR. Implementations must be
// deterministic given identical inputs as far as aggregation is concerned;
// the heuristic one is fully deterministic, the LLM-backed one keeps the
// deterministic aggregation over whatever findings it yields.
type Generator interface {
	Generate(ctx context.Context, in Input) (Result, error)
}
