package engine

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"
)

var testFilePatterns = []string{
	"*test*.py", "*_test.py", "test_*.py",
	"*spec*.js", "*test*.js", "*.spec.ts", "*.test.ts",
	"*test.java", "*tests.java",
	"*_test.go", "*_test.rb",
}

var docFilePatterns = []string{
	"*.md", "*.rst", "*.txt",
	"readme*", "changelog*", "contributing*",
}

var docDirPrefixes = []string{"docs/", "documentation/"}

var debugLinePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)console\.log\(`),
	regexp.MustCompile(`(?i)\bprint\(`),
	regexp.MustCompile(`(?i)debugger;`),
	regexp.MustCompile(`(?i)binding\.pry`),
	regexp.MustCompile(`(?i)import pdb`),
	regexp.MustCompile(`(?i)pdb\.set_trace\(\)`),
	regexp.MustCompile(`(?i)console\.debug\(`),
	regexp.MustCompile(`(?i)System\.out\.println\(`),
}

var (
	todoPattern      = regexp.MustCompile(`(?i)\b(TODO|FIXME|XXX|HACK)\b`)
	issueRefPattern  = regexp.MustCompile(`(?i)#\d+|(?:closes?|fixes?|resolves?)\s+#?\d+`)
	hunkStartPattern = regexp.MustCompile(`\+(\d+)`)
)

var versionFiles = []string{"package.json", "setup.py", "version.py", "VERSION", "pyproject.toml", "go.mod"}

var changelogMarkers = []string{"CHANGELOG", "HISTORY", "CHANGES", "NEWS"}

var featureKeywords = []string{"add", "new", "implement", "create"}

var checkSuggestions = map[string]string{
	"has_tests":             "Add unit tests for new functionality",
	"has_documentation":     "Add documentation or update README",
	"has_regression_test":   "Add a test that reproduces the bug to prevent regression",
	"reasonable_size":       "Consider splitting into smaller PRs",
	"focused_changes":       "Keep changes focused on the bug fix",
	"minimal_changes":       "Hotfixes should contain only critical changes",
	"descriptive_commits":   "Use descriptive commit messages",
	"no_debug_code":         "Remove console.log, print, and debugger statements",
	"references_issue":      "Reference the issue number in a commit message (e.g. \"Fixes #123\")",
	"has_description":       "Add a detailed PR description explaining the changes",
	"no_new_features":       "This branch type should not include new features",
	"version_bump":          "Update the version number",
	"changelog_updated":     "Update the changelog with release notes",
	"no_behavior_change":    "Ensure tests verify behavior is unchanged",
	"improves_quality":      "Refactoring should simplify or clean up code",
	"follows_conventions":   "Follow project coding conventions",
	"critical_only":         "Limit hotfixes to critical issues only",
	"documentation_updated": "Update documentation for release",
}

// HeuristicGenerator evaluates expectations against file lists, commit
// messages and the unified diff. All checks are cheap string heuristics;
// correctness of any single heuristic is not the point, deterministic
// aggregation is.
type HeuristicGenerator struct {
	// needsChangesThreshold is the fraction of applied weight that, once
	// exceeded by unsatisfied findings, flips the summary verdict.
	needsChangesThreshold float64
}

func NewHeuristicGenerator(needsChangesThreshold float64) *HeuristicGenerator {
	if needsChangesThreshold <= 0 {
		needsChangesThreshold = 0.3
	}
	return &HeuristicGenerator{needsChangesThreshold: needsChangesThreshold}
}

type fileFacts struct {
	totalFiles  int
	additions   int
	deletions   int
	hasTests    bool
	hasDocs     bool
	testFiles   []string
	docFiles    []string
	sourceFiles []string
}

type patchFacts struct {
	debugHits []Remark
	todoHits  []Remark
}

type commitFacts struct {
	total           int
	descriptive     int
	referencesIssue bool
	issueRefs       []string
	firstLines      []string
}

func (g *HeuristicGenerator) Generate(_ context.Context, in Input) (Result, error) {
	ff := analyzeFiles(in.Files)
	pf := analyzePatch(in.Patch)
	cf := analyzeCommits(in.Commits)

	findings := make([]Finding, 0, len(in.RuleSet.Checks))
	for _, check := range in.RuleSet.Checks {
		verdict, comment := g.evaluate(check.Name, in, ff, pf, cf)
		if verdict == VerdictUnsatisfied {
			if s, ok := checkSuggestions[check.Name]; ok {
				comment = comment + ". " + s
			}
		}
		findings = append(findings, Finding{
			Check:       check.Name,
			Description: check.Description,
			Weight:      check.Weight,
			Verdict:     verdict,
			Comment:     comment,
		})
	}

	remarks := make([]Remark, 0, len(pf.debugHits)+len(pf.todoHits))
	remarks = append(remarks, pf.debugHits...)
	remarks = append(remarks, pf.todoHits...)

	score, verdict, rating := g.aggregate(findings)
	summary := renderSummary(in, findings, ff, score, verdict)

	return Result{
		Findings: findings,
		Remarks:  remarks,
		Summary:  summary,
		Score:    score,
		Rating:   rating,
		Verdict:  verdict,
	}, nil
}

// aggregate computes the weighted score and summary verdict. Not-applicable
// findings contribute no weight in either direction.
func (g *HeuristicGenerator) aggregate(findings []Finding) (int, SummaryVerdict, Rating) {
	var applied, satisfied, unsatisfied int
	for _, f := range findings {
		switch f.Verdict {
		case VerdictSatisfied:
			applied += f.Weight
			satisfied += f.Weight
		case VerdictUnsatisfied:
			applied += f.Weight
			unsatisfied += f.Weight
		}
	}

	if applied == 0 {
		return 100, SummaryLooksGood, RatingGood
	}

	score := satisfied * 100 / applied

	verdict := SummaryLooksGood
	if float64(unsatisfied) > g.needsChangesThreshold*float64(applied) {
		verdict = SummaryNeedsChanges
	}

	var rating Rating
	switch {
	case score >= 90:
		rating = RatingExcellent
	case score >= 70:
		rating = RatingGood
	case score >= 50:
		rating = RatingNeedsWork
	default:
		rating = RatingPoor
	}

	return score, verdict, rating
}

func (g *HeuristicGenerator) evaluate(name string, in Input, ff fileFacts, pf patchFacts, cf commitFacts) (Verdict, string) {
	rs := in.RuleSet
	totalChanges := ff.additions + ff.deletions

	switch name {
	case "has_tests", "has_regression_test", "no_behavior_change":
		if ff.hasTests {
			return VerdictSatisfied, fmt.Sprintf("test files found: %d", len(ff.testFiles))
		}
		return VerdictUnsatisfied, "no test files in this change"

	case "has_documentation", "documentation_updated":
		if ff.hasDocs {
			return VerdictSatisfied, fmt.Sprintf("documentation files: %d", len(ff.docFiles))
		}
		return VerdictUnsatisfied, "no documentation changes"

	case "reasonable_size":
		if totalChanges <= rs.MaxLines && ff.totalFiles <= rs.MaxFiles {
			return VerdictSatisfied, fmt.Sprintf("%d lines changed across %d files", totalChanges, ff.totalFiles)
		}
		return VerdictUnsatisfied, fmt.Sprintf("%d lines changed across %d files (limits: %d lines, %d files)", totalChanges, ff.totalFiles, rs.MaxLines, rs.MaxFiles)

	case "focused_changes":
		if ff.totalFiles <= rs.MaxFiles {
			return VerdictSatisfied, fmt.Sprintf("%d files changed", ff.totalFiles)
		}
		return VerdictUnsatisfied, fmt.Sprintf("%d files changed, limit is %d", ff.totalFiles, rs.MaxFiles)

	case "minimal_changes":
		if ff.totalFiles <= 5 && totalChanges <= 100 {
			return VerdictSatisfied, fmt.Sprintf("%d files, %d lines", ff.totalFiles, totalChanges)
		}
		return VerdictUnsatisfied, fmt.Sprintf("%d files, %d lines changed", ff.totalFiles, totalChanges)

	case "critical_only":
		if ff.totalFiles <= 5 {
			return VerdictSatisfied, fmt.Sprintf("%d files changed", ff.totalFiles)
		}
		return VerdictUnsatisfied, fmt.Sprintf("%d files changed", ff.totalFiles)

	case "descriptive_commits":
		if cf.total == 0 {
			return VerdictNotApplicable, "no commits in event payload"
		}
		if float64(cf.descriptive)/float64(cf.total) >= 0.8 {
			return VerdictSatisfied, fmt.Sprintf("%d/%d descriptive commits", cf.descriptive, cf.total)
		}
		return VerdictUnsatisfied, fmt.Sprintf("%d/%d descriptive commits", cf.descriptive, cf.total)

	case "no_debug_code":
		if in.Patch == "" {
			return VerdictNotApplicable, "diff text not available"
		}
		if len(pf.debugHits) == 0 {
			return VerdictSatisfied, "no debug statements found"
		}
		return VerdictUnsatisfied, fmt.Sprintf("found %d debug statements", len(pf.debugHits))

	case "references_issue":
		if cf.total == 0 {
			return VerdictNotApplicable, "no commits in event payload"
		}
		if cf.referencesIssue {
			refs := cf.issueRefs
			if len(refs) > 5 {
				refs = refs[:5]
			}
			return VerdictSatisfied, "issues referenced: " + strings.Join(refs, ", ")
		}
		return VerdictUnsatisfied, "no issue references in commit messages"

	case "has_description":
		if len(in.Description) >= 50 {
			return VerdictSatisfied, fmt.Sprintf("description length: %d characters", len(in.Description))
		}
		return VerdictUnsatisfied, fmt.Sprintf("description length: %d characters", len(in.Description))

	case "no_new_features":
		if cf.total == 0 {
			return VerdictNotApplicable, "no commits in event payload"
		}
		for _, line := range cf.firstLines {
			lower := strings.ToLower(line)
			for _, kw := range featureKeywords {
				if strings.Contains(lower, kw) {
					return VerdictUnsatisfied, "possible new features detected in commit messages"
				}
			}
		}
		return VerdictSatisfied, "no feature-like changes detected"

	case "version_bump":
		for _, f := range ff.sourceFiles {
			for _, vf := range versionFiles {
				if strings.Contains(f, vf) {
					return VerdictSatisfied, "version file modified: " + f
				}
			}
		}
		return VerdictUnsatisfied, "no version file changes found"

	case "changelog_updated":
		for _, f := range ff.docFiles {
			upper := strings.ToUpper(f)
			for _, m := range changelogMarkers {
				if strings.Contains(upper, m) {
					return VerdictSatisfied, "changelog updated: " + f
				}
			}
		}
		return VerdictUnsatisfied, "changelog not updated"

	case "improves_quality":
		if float64(ff.deletions) >= float64(ff.additions)*0.3 {
			return VerdictSatisfied, fmt.Sprintf("removed %d lines", ff.deletions)
		}
		return VerdictUnsatisfied, fmt.Sprintf("removed only %d lines against %d added", ff.deletions, ff.additions)

	case "follows_conventions":
		return VerdictSatisfied, "conventions check passed"

	default:
		return VerdictNotApplicable, "check not implemented"
	}
}

func analyzeFiles(files []FileChange) fileFacts {
	ff := fileFacts{totalFiles: len(files)}

	for _, f := range files {
		ff.additions += f.Additions
		ff.deletions += f.Deletions

		lower := strings.ToLower(f.Filename)
		base := path.Base(lower)

		matched := false
		for _, p := range testFilePatterns {
			if ok, _ := path.Match(p, base); ok {
				ff.hasTests = true
				ff.testFiles = append(ff.testFiles, f.Filename)
				matched = true
				break
			}
		}
		if matched {
			continue
		}

		for _, p := range docFilePatterns {
			if ok, _ := path.Match(p, base); ok {
				matched = true
				break
			}
		}
		if !matched {
			for _, prefix := range docDirPrefixes {
				if strings.HasPrefix(lower, prefix) {
					matched = true
					break
				}
			}
		}
		if matched {
			ff.hasDocs = true
			ff.docFiles = append(ff.docFiles, f.Filename)
			continue
		}

		ff.sourceFiles = append(ff.sourceFiles, f.Filename)
	}

	return ff
}

// analyzePatch walks the unified diff and collects remarks for added lines
// only. The counter tracks positions in the new file, so context lines
// advance it and removed lines do not.
func analyzePatch(patch string) patchFacts {
	var pf patchFacts

	currentFile := ""
	lineNumber := 0

	for _, line := range strings.Split(patch, "\n") {
		if strings.HasPrefix(line, "+++ b/") {
			currentFile = line[6:]
			lineNumber = 0
			continue
		}
		if strings.HasPrefix(line, "@@") {
			if m := hunkStartPattern.FindStringSubmatch(line); m != nil {
				fmt.Sscanf(m[1], "%d", &lineNumber)
			}
			continue
		}
		if strings.HasPrefix(line, "+++") || strings.HasPrefix(line, "---") ||
			strings.HasPrefix(line, "diff ") || strings.HasPrefix(line, "index ") ||
			strings.HasPrefix(line, "\\") {
			continue
		}
		if strings.HasPrefix(line, "-") {
			continue
		}
		if !strings.HasPrefix(line, "+") {
			lineNumber++
			continue
		}

		added := strings.TrimSpace(line[1:])
		if len(added) > 100 {
			added = added[:100]
		}

		for _, p := range debugLinePatterns {
			if p.MatchString(added) {
				pf.debugHits = append(pf.debugHits, Remark{
					File:     currentFile,
					Line:     lineNumber,
					Severity: "error",
					Comment:  "debug statement detected: " + added,
				})
				break
			}
		}
		if todoPattern.MatchString(added) {
			pf.todoHits = append(pf.todoHits, Remark{
				File:     currentFile,
				Line:     lineNumber,
				Severity: "info",
				Comment:  "TODO added: " + added,
			})
		}

		lineNumber++
	}

	return pf
}

func analyzeCommits(commits []Commit) commitFacts {
	cf := commitFacts{total: len(commits)}

	for _, c := range commits {
		firstLine := c.Message
		if idx := strings.IndexByte(firstLine, '\n'); idx >= 0 {
			firstLine = firstLine[:idx]
		}
		cf.firstLines = append(cf.firstLines, firstLine)

		if len(firstLine) >= 10 {
			cf.descriptive++
		}

		if refs := issueRefPattern.FindAllString(c.Message, -1); len(refs) > 0 {
			cf.referencesIssue = true
			cf.issueRefs = append(cf.issueRefs, refs...)
		}
	}

	return cf
}

func renderSummary(in Input, findings []Finding, ff fileFacts, score int, verdict SummaryVerdict) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## PR Review Summary for #%d\n\n", in.Number)
	fmt.Fprintf(&b, "**Branch Category:** `%s`\n", in.Category)
	fmt.Fprintf(&b, "**Score:** %d/100\n", score)
	fmt.Fprintf(&b, "**Verdict:** %s\n\n", verdict)

	fmt.Fprintf(&b, "### Changes Overview\n")
	fmt.Fprintf(&b, "- **Files Changed:** %d\n", ff.totalFiles)
	fmt.Fprintf(&b, "- **Lines Added:** +%d\n", ff.additions)
	fmt.Fprintf(&b, "- **Lines Removed:** -%d\n", ff.deletions)
	fmt.Fprintf(&b, "- **Tests Included:** %s\n", yesNo(ff.hasTests))
	fmt.Fprintf(&b, "- **Documentation Updated:** %s\n\n", yesNo(ff.hasDocs))

	var failed, passed []Finding
	for _, f := range findings {
		switch f.Verdict {
		case VerdictUnsatisfied:
			failed = append(failed, f)
		case VerdictSatisfied:
			passed = append(passed, f)
		}
	}

	if len(failed) > 0 {
		b.WriteString("### Areas for Improvement\n")
		for _, f := range failed {
			fmt.Fprintf(&b, "- ❌ %s: %s\n", f.Description, f.Comment)
		}
		b.WriteString("\n")
	}
	if len(passed) > 0 {
		b.WriteString("### Passed Checks\n")
		for _, f := range passed {
			fmt.Fprintf(&b, "- ✅ %s\n", f.Description)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
