package engine_test

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"reviewgate/internal/domain/engine"
	"reviewgate/internal/domain/rules"
)

func hotfixInput() engine.Input {
	snap := rules.DefaultSnapshot()
	return engine.Input{
		Repo:         "acme/api",
		Number:       7,
		Title:        "Fix crash on nil session",
		Description:  "Short",
		SourceBranch: "hotfix/crash-fix",
		Category:     rules.CategoryHotfix,
		RuleSet:      snap.Resolve(rules.CategoryHotfix),
		Files: []engine.FileChange{
			{Filename: "internal/session/session.go", Additions: 12, Deletions: 3},
		},
		Commits: []engine.Commit{
			{SHA: "abc1234", Message: "guard nil session before use"},
		},
	}
}

func TestGenerate_HotfixWithoutTests(t *testing.T) {
	gen := engine.NewHeuristicGenerator(0.15)

	res, err := gen.Generate(context.Background(), hotfixInput())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	var regression *engine.Finding
	for i := range res.Findings {
		if res.Findings[i].Check == "has_regression_test" {
			regression = &res.Findings[i]
		}
	}
	if regression == nil {
		t.Fatal("hotfix rule set must carry has_regression_test")
	}
	if regression.Verdict != engine.VerdictUnsatisfied {
		t.Errorf("expected unsatisfied regression-test finding, got %s", regression.Verdict)
	}
	if res.Verdict != engine.SummaryNeedsChanges {
		t.Errorf("expected needs-changes with threshold 0.15, got %s", res.Verdict)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	gen := engine.NewHeuristicGenerator(0.3)
	in := hotfixInput()

	a, err := gen.Generate(context.Background(), in)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	b, err := gen.Generate(context.Background(), in)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if !reflect.DeepEqual(a, b) {
		t.Error("identical inputs must produce identical results")
	}
}

func TestGenerate_CleanFeaturePR(t *testing.T) {
	snap := rules.DefaultSnapshot()
	gen := engine.NewHeuristicGenerator(0.3)

	in := engine.Input{
		Repo:         "acme/api",
		Number:       12,
		Title:        "Add login endpoint",
		Description:  strings.Repeat("Adds a login endpoint with rate limiting. ", 3),
		SourceBranch: "feature/login",
		Category:     rules.CategoryFeature,
		RuleSet:      snap.Resolve(rules.CategoryFeature),
		Files: []engine.FileChange{
			{Filename: "internal/auth/login.go", Additions: 120, Deletions: 4},
			{Filename: "internal/auth/login_test.go", Additions: 80, Deletions: 0},
			{Filename: "docs/auth.md", Additions: 20, Deletions: 1},
		},
		Patch: "+++ b/internal/auth/login.go\n@@ +1,3 @@\n+func Login() {}\n",
		Commits: []engine.Commit{
			{SHA: "abc1234", Message: "add login endpoint with rate limiting"},
		},
	}

	res, err := gen.Generate(context.Background(), in)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if res.Verdict != engine.SummaryLooksGood {
		t.Errorf("expected looks-good, got %s (score %d)", res.Verdict, res.Score)
	}
	if res.Score < 70 {
		t.Errorf("expected score >= 70, got %d", res.Score)
	}
	for _, f := range res.Findings {
		if f.Check == "has_tests" && f.Verdict != engine.VerdictSatisfied {
			t.Errorf("has_tests should be satisfied: %+v", f)
		}
		if f.Check == "has_documentation" && f.Verdict != engine.VerdictSatisfied {
			t.Errorf("has_documentation should be satisfied: %+v", f)
		}
	}
}

func TestGenerate_DebugAndTodoRemarks(t *testing.T) {
	snap := rules.DefaultSnapshot()
	gen := engine.NewHeuristicGenerator(0.3)

	patch := strings.Join([]string{
		"+++ b/app.js",
		"@@ +10,4 @@",
		"+function boot() {",
		`+  console.log("here")`,
		"+  // TODO: remove this before release",
		"+}",
	}, "\n")

	in := engine.Input{
		Number:       3,
		SourceBranch: "feature/boot",
		Category:     rules.CategoryFeature,
		RuleSet:      snap.Resolve(rules.CategoryFeature),
		Files:        []engine.FileChange{{Filename: "app.js", Additions: 4}},
		Patch:        patch,
		Commits:      []engine.Commit{{SHA: "abc1234", Message: "wire application bootstrap"}},
	}

	res, err := gen.Generate(context.Background(), in)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	var debug, todo int
	for _, r := range res.Remarks {
		switch r.Severity {
		case "error":
			debug++
			if r.File != "app.js" {
				t.Errorf("remark file = %q, want app.js", r.File)
			}
		case "info":
			todo++
		}
	}
	if debug != 1 || todo != 1 {
		t.Fatalf("expected 1 debug + 1 todo remark, got %d/%d: %+v", debug, todo, res.Remarks)
	}

	for _, f := range res.Findings {
		if f.Check == "no_debug_code" && f.Verdict != engine.VerdictUnsatisfied {
			t.Errorf("no_debug_code should be unsatisfied: %+v", f)
		}
	}
}

func TestGenerate_RemarkLineNumbersTrackNewFile(t *testing.T) {
	snap := rules.DefaultSnapshot()
	gen := engine.NewHeuristicGenerator(0.3)

	// Context and removed lines before the flagged addition: the remark must
	// land on line 13 of the new file, not on a counter that only saw "+".
	patch := strings.Join([]string{
		"+++ b/app.js",
		"@@ -10,5 +10,5 @@",
		" function boot() {",
		"-  legacyInit()",
		"+  init()",
		"   return start()",
		`+  console.log("here")`,
	}, "\n")

	in := engine.Input{
		Number:       4,
		SourceBranch: "feature/boot",
		Category:     rules.CategoryFeature,
		RuleSet:      snap.Resolve(rules.CategoryFeature),
		Files:        []engine.FileChange{{Filename: "app.js", Additions: 2, Deletions: 1}},
		Patch:        patch,
		Commits:      []engine.Commit{{SHA: "abc1234", Message: "replace legacy init"}},
	}

	res, err := gen.Generate(context.Background(), in)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	var debug *engine.Remark
	for i, r := range res.Remarks {
		if r.Severity == "error" {
			debug = &res.Remarks[i]
		}
	}
	if debug == nil {
		t.Fatalf("expected a debug remark, got %+v", res.Remarks)
	}
	if debug.File != "app.js" {
		t.Errorf("remark file = %q, want app.js", debug.File)
	}
	if debug.Line != 13 {
		t.Errorf("remark line = %d, want 13", debug.Line)
	}
}

func TestGenerate_UnknownCheckNotApplicable(t *testing.T) {
	gen := engine.NewHeuristicGenerator(0.3)

	in := engine.Input{
		Number:   1,
		Category: rules.CategoryUnclassified,
		RuleSet: rules.RuleSet{
			Category: rules.CategoryUnclassified,
			Checks: []rules.Check{
				{Name: "mystery_check", Description: "???", Weight: 50},
				{Name: "has_description", Description: "PR has a description", Weight: 50},
			},
		},
		Description: strings.Repeat("long enough description text here. ", 3),
	}

	res, err := gen.Generate(context.Background(), in)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if res.Findings[0].Verdict != engine.VerdictNotApplicable {
		t.Errorf("unknown check must be not-applicable, got %s", res.Findings[0].Verdict)
	}
	// Not-applicable weight is excluded, so the satisfied half scores 100.
	if res.Score != 100 {
		t.Errorf("score = %d, want 100", res.Score)
	}
	if res.Verdict != engine.SummaryLooksGood {
		t.Errorf("verdict = %s, want looks-good", res.Verdict)
	}
}
