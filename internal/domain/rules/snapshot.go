package rules

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Snapshot is an immutable view of the configured branch patterns and rule
// sets, loaded once per process. Classification and resolution run against
// it without locks; editing rules means loading a new snapshot.
type Snapshot struct {
	patterns []PatternRule
	sets     map[Category]RuleSet
	baseline RuleSet
}

// DefaultSnapshot builds a snapshot from the built-in patterns and rule sets.
func DefaultSnapshot() *Snapshot {
	sets := defaultRuleSets()
	return &Snapshot{
		patterns: defaultPatterns(),
		sets:     sets,
		baseline: sets[CategoryUnclassified],
	}
}

type fileConfig struct {
	Patterns []PatternRule        `yaml:"patterns"`
	RuleSets map[Category]RuleSet `yaml:"rulesets"`
}

// LoadSnapshot overlays a YAML rules file onto the defaults. Patterns in the
// file replace the default list as a whole; rule sets replace per category.
func LoadSnapshot(path string) (*Snapshot, error) {
	snap := DefaultSnapshot()
	if path == "" {
		return snap, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}

	if len(cfg.Patterns) > 0 {
		patterns := make([]PatternRule, 0, len(cfg.Patterns))
		for _, p := range cfg.Patterns {
			prefix := strings.ToLower(strings.TrimSpace(p.Prefix))
			if prefix == "" {
				continue
			}
			if !strings.HasSuffix(prefix, "/") {
				prefix += "/"
			}
			patterns = append(patterns, PatternRule{Prefix: prefix, Category: p.Category})
		}
		snap.patterns = patterns
	}

	for cat, rs := range cfg.RuleSets {
		if len(rs.Checks) == 0 {
			return nil, fmt.Errorf("rules file: category %q has no checks", cat)
		}
		rs.Category = cat
		snap.sets[cat] = rs
	}
	snap.baseline = snap.sets[CategoryUnclassified]

	return snap, nil
}

// Classify maps a branch name to its category. Pure and total: patterns are
// case-insensitive prefixes ending at "/", checked in configured order, and
// anything unmatched is unclassified.
func (s *Snapshot) Classify(branchName string) Category {
	lower := strings.ToLower(branchName)
	for _, p := range s.patterns {
		if strings.HasPrefix(lower, p.Prefix) {
			return p.Category
		}
	}
	return CategoryUnclassified
}

// Resolve returns the rule set for a category. Total: an unconfigured or
// empty category falls back to the baseline general-review set. The result
// is a copy; callers own it.
func (s *Snapshot) Resolve(category Category) RuleSet {
	rs, ok := s.sets[category]
	if !ok || len(rs.Checks) == 0 {
		out := s.baseline.Clone()
		out.Category = category
		return out
	}
	return rs.Clone()
}
