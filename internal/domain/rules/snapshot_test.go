package rules_test

import (
	"os"
	"path/filepath"
	"testing"

	"reviewgate/internal/domain/rules"
)

func TestClassify_PrefixMatching(t *testing.T) {
	snap := rules.DefaultSnapshot()

	cases := []struct {
		branch string
		want   rules.Category
	}{
		{"feature/login", rules.CategoryFeature},
		{"feat/login", rules.CategoryFeature},
		{"Feature/Login", rules.CategoryFeature},
		{"FEATURES/x", rules.CategoryFeature},
		{"featureXYZ", rules.CategoryUnclassified},
		{"feature", rules.CategoryUnclassified},
		{"bugfix/null-deref", rules.CategoryBugfix},
		{"fix/typo", rules.CategoryBugfix},
		{"hotfix/crash-fix", rules.CategoryHotfix},
		{"emergency/rollback", rules.CategoryHotfix},
		{"release/1.2.0", rules.CategoryRelease},
		{"rel/1.2.0", rules.CategoryRelease},
		{"refactor/split-service", rules.CategoryRefactor},
		{"cleanup/dead-code", rules.CategoryRefactor},
		{"main", rules.CategoryUnclassified},
		{"", rules.CategoryUnclassified},
		{"docs/readme", rules.CategoryUnclassified},
	}

	for _, tc := range cases {
		if got := snap.Classify(tc.branch); got != tc.want {
			t.Errorf("Classify(%q) = %s, want %s", tc.branch, got, tc.want)
		}
	}
}

func TestClassify_FirstMatchWins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	cfg := `
patterns:
  - prefix: feature/special/
    category: hotfix
  - prefix: feature/
    category: feature
`
	if err := os.WriteFile(path, []byte(cfg), 0o600); err != nil {
		t.Fatalf("write rules file: %v", err)
	}

	snap, err := rules.LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}

	if got := snap.Classify("feature/special/x"); got != rules.CategoryHotfix {
		t.Errorf("expected first pattern to win, got %s", got)
	}
	if got := snap.Classify("feature/plain"); got != rules.CategoryFeature {
		t.Errorf("expected second pattern to match, got %s", got)
	}
}

func TestResolve_TotalOverAllCategories(t *testing.T) {
	snap := rules.DefaultSnapshot()

	for _, cat := range rules.AllCategories() {
		rs := snap.Resolve(cat)
		if len(rs.Checks) == 0 {
			t.Errorf("Resolve(%s) returned empty rule set", cat)
		}
		if rs.TotalWeight() <= 0 {
			t.Errorf("Resolve(%s) has non-positive total weight", cat)
		}
	}

	// Unknown category falls back to the baseline, not an error.
	rs := snap.Resolve(rules.Category("experiment"))
	if len(rs.Checks) == 0 {
		t.Error("unknown category must resolve to baseline set")
	}
	if rs.Category != rules.Category("experiment") {
		t.Errorf("fallback set should keep requested category, got %s", rs.Category)
	}
}

func TestResolve_ReturnsIndependentCopy(t *testing.T) {
	snap := rules.DefaultSnapshot()

	a := snap.Resolve(rules.CategoryBugfix)
	a.Checks[0].Weight = 999

	b := snap.Resolve(rules.CategoryBugfix)
	if b.Checks[0].Weight == 999 {
		t.Error("mutating a resolved set leaked into the snapshot")
	}
}

func TestLoadSnapshot_OverridesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	cfg := `
patterns:
  - prefix: Experiment
    category: feature
rulesets:
  feature:
    max_files: 3
    max_lines: 50
    checks:
      - name: has_tests
        description: tests required
        weight: 100
`
	if err := os.WriteFile(path, []byte(cfg), 0o600); err != nil {
		t.Fatalf("write rules file: %v", err)
	}

	snap, err := rules.LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}

	// Prefix gets lowercased and a trailing slash.
	if got := snap.Classify("experiment/thing"); got != rules.CategoryFeature {
		t.Errorf("normalized pattern did not match, got %s", got)
	}
	if got := snap.Classify("experimental"); got != rules.CategoryUnclassified {
		t.Errorf("prefix must end at separator, got %s", got)
	}

	rs := snap.Resolve(rules.CategoryFeature)
	if len(rs.Checks) != 1 || rs.Checks[0].Name != "has_tests" || rs.MaxFiles != 3 {
		t.Errorf("file rule set did not override defaults: %+v", rs)
	}

	// Categories not mentioned in the file keep their defaults.
	if rs := snap.Resolve(rules.CategoryRelease); len(rs.Checks) != 4 {
		t.Errorf("untouched category lost its defaults: %+v", rs)
	}
}

func TestLoadSnapshot_RejectsEmptyChecks(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	cfg := `
rulesets:
  bugfix:
    checks: []
`
	if err := os.WriteFile(path, []byte(cfg), 0o600); err != nil {
		t.Fatalf("write rules file: %v", err)
	}

	if _, err := rules.LoadSnapshot(path); err == nil {
		t.Error("expected error for category with no checks")
	}
}
