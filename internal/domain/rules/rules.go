package rules

// Category is a branch review category derived from the branch name. It is
// always recomputed, never stored on its own.
type Category string

const (
	CategoryFeature      Category = "feature"
	CategoryBugfix       Category = "bugfix"
	CategoryHotfix       Category = "hotfix"
	CategoryRelease      Category = "release"
	CategoryRefactor     Category = "refactor"
	CategoryUnclassified Category = "unclassified"
)

func AllCategories() []Category {
	return []Category{
		CategoryFeature,
		CategoryBugfix,
		CategoryHotfix,
		CategoryRelease,
		CategoryRefactor,
		CategoryUnclassified,
	}
}

// Check is one review expectation: a named checklist item with a weight.
type Check struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Weight      int    `yaml:"weight" json:"weight"`
}

// RuleSet is the ordered expectation set for one category plus the size
// limits some checks evaluate against.
type RuleSet struct {
	Category Category `yaml:"-" json:"category"`
	Checks   []Check  `yaml:"checks" json:"checks"`
	MaxFiles int      `yaml:"max_files" json:"max_files"`
	MaxLines int      `yaml:"max_lines" json:"max_lines"`
}

// Clone returns a deep copy so a resolved set handed to a review can never
// alias the snapshot's backing slices.
func (rs RuleSet) Clone() RuleSet {
	out := rs
	out.Checks = append([]Check(nil), rs.Checks...)
	return out
}

func (rs RuleSet) TotalWeight() int {
	total := 0
	for _, c := range rs.Checks {
		total += c.Weight
	}
	return total
}

// PatternRule maps a case-insensitive branch prefix (ending at "/") to a
// category. Order matters: the first matching prefix wins.
type PatternRule struct {
	Prefix   string   `yaml:"prefix"`
	Category Category `yaml:"category"`
}

func defaultPatterns() []PatternRule {
	return []PatternRule{
		{Prefix: "feature/", Category: CategoryFeature},
		{Prefix: "feat/", Category: CategoryFeature},
		{Prefix: "features/", Category: CategoryFeature},
		{Prefix: "bugfix/", Category: CategoryBugfix},
		{Prefix: "bug/", Category: CategoryBugfix},
		{Prefix: "fix/", Category: CategoryBugfix},
		{Prefix: "hotfix/", Category: CategoryHotfix},
		{Prefix: "hot/", Category: CategoryHotfix},
		{Prefix: "emergency/", Category: CategoryHotfix},
		{Prefix: "release/", Category: CategoryRelease},
		{Prefix: "releases/", Category: CategoryRelease},
		{Prefix: "rel/", Category: CategoryRelease},
		{Prefix: "refactor/", Category: CategoryRefactor},
		{Prefix: "refactoring/", Category: CategoryRefactor},
		{Prefix: "cleanup/", Category: CategoryRefactor},
	}
}

func defaultRuleSets() map[Category]RuleSet {
	return map[Category]RuleSet{
		CategoryFeature: {
			Category: CategoryFeature,
			MaxFiles: 20,
			MaxLines: 500,
			Checks: []Check{
				{Name: "has_tests", Description: "New features should include tests", Weight: 20},
				{Name: "has_documentation", Description: "Features should be documented", Weight: 15},
				{Name: "reasonable_size", Description: "PR should be reasonably sized", Weight: 10},
				{Name: "descriptive_commits", Description: "Commits should be descriptive", Weight: 10},
				{Name: "no_debug_code", Description: "No debug/console statements", Weight: 15},
				{Name: "follows_conventions", Description: "Follows coding conventions", Weight: 15},
				{Name: "has_description", Description: "PR has a meaningful description", Weight: 15},
			},
		},
		CategoryBugfix: {
			Category: CategoryBugfix,
			MaxFiles: 10,
			MaxLines: 200,
			Checks: []Check{
				{Name: "has_regression_test", Description: "Bug fixes should include regression tests", Weight: 25},
				{Name: "focused_changes", Description: "Changes should be focused on the fix", Weight: 20},
				{Name: "references_issue", Description: "Should reference an issue or bug ID", Weight: 15},
				{Name: "reasonable_size", Description: "Bug fixes should be small and focused", Weight: 15},
				{Name: "has_description", Description: "PR describes the bug and fix", Weight: 25},
			},
		},
		CategoryHotfix: {
			Category: CategoryHotfix,
			MaxFiles: 5,
			MaxLines: 100,
			Checks: []Check{
				{Name: "minimal_changes", Description: "Hotfixes should be minimal", Weight: 30},
				{Name: "critical_only", Description: "Only critical changes allowed", Weight: 25},
				{Name: "has_regression_test", Description: "Regression tests present", Weight: 25},
				{Name: "has_description", Description: "Clear description of the critical issue", Weight: 25},
				{Name: "no_new_features", Description: "No new features in hotfixes", Weight: 20},
			},
		},
		CategoryRelease: {
			Category: CategoryRelease,
			MaxFiles: 15,
			MaxLines: 300,
			Checks: []Check{
				{Name: "version_bump", Description: "Version should be updated", Weight: 25},
				{Name: "changelog_updated", Description: "Changelog should be updated", Weight: 25},
				{Name: "no_new_features", Description: "No new features in release branches", Weight: 25},
				{Name: "documentation_updated", Description: "Documentation should be current", Weight: 25},
			},
		},
		CategoryRefactor: {
			Category: CategoryRefactor,
			MaxFiles: 30,
			MaxLines: 1000,
			Checks: []Check{
				{Name: "has_tests", Description: "Refactoring should maintain or improve tests", Weight: 25},
				{Name: "no_behavior_change", Description: "Should not change behavior", Weight: 25},
				{Name: "improves_quality", Description: "Should improve code quality", Weight: 25},
				{Name: "has_description", Description: "Clear description of refactoring goals", Weight: 25},
			},
		},
		CategoryUnclassified: {
			Category: CategoryUnclassified,
			MaxFiles: 20,
			MaxLines: 500,
			Checks: []Check{
				{Name: "has_description", Description: "PR has a description", Weight: 25},
				{Name: "reasonable_size", Description: "PR is reasonably sized", Weight: 25},
				{Name: "descriptive_commits", Description: "Commits are descriptive", Weight: 25},
				{Name: "follows_conventions", Description: "Follows project conventions", Weight: 25},
			},
		},
	}
}
