package migration

import (
	"fmt"
	"regexp"
	"strings"

	"hachiko/pkg/github"
)

// Conventions describe how migration PRs are recognized: the head-branch
// prefix, and the label that corroborates membership.
type Conventions struct {
	BranchPrefix string
	Label        string
}

// DefaultConventions returns the standard hachiko conventions.
func DefaultConventions() Conventions {
	return Conventions{
		BranchPrefix: "hachiko/",
		Label:        "hachiko-migration",
	}
}

// titleIDPattern matches the first [...] bracketed token in a PR title.
var titleIDPattern = regexp.MustCompile(`\[([^\]\s]+)\]`)

// descriptiveSuffixes is the fixed vocabulary of trailing branch segments
// that describe the work rather than identify the migration. Stripping stops
// at the first segment (from the end) not in this set.
//
// Known limitation: a migration id whose own final segment equals a
// vocabulary word (for example an id ending in "v2") is truncated.
var descriptiveSuffixes = map[string]bool{
	"impl": true, "implementation": true,
	"fix": true, "fixes": true,
	"utility": true, "utilities": true, "util": true, "utils": true,
	"function": true, "functions": true,
	"hook": true, "hooks": true,
	"helper": true, "helpers": true,
	"component": true, "components": true,
	"test": true, "tests": true,
	"doc": true, "docs": true,
	"update": true, "updates": true,
	"cleanup": true, "refactor": true, "step": true,
	"v2": true, "v3": true,
	"1": true, "2": true, "3": true, "4": true, "5": true,
	"6": true, "7": true, "8": true, "9": true,
}

// ExtractMigrationID determines which migration a pull request belongs to.
// Signals are tried in priority order: branch convention first, then the
// first bracketed token in the title. Labels only corroborate; they never
// derive the id. Returns "" for a PR that is not managed.
func (c Conventions) ExtractMigrationID(pr github.PullRequest) string {
	if id := c.idFromBranch(pr.HeadRefName); id != "" {
		return id
	}
	if match := titleIDPattern.FindStringSubmatch(pr.Title); match != nil {
		return match[1]
	}
	return ""
}

// idFromBranch extracts the migration id from a hachiko/{candidate} branch,
// stripping trailing descriptive-suffix segments from the candidate.
func (c Conventions) idFromBranch(branch string) string {
	if !strings.HasPrefix(branch, c.BranchPrefix) {
		return ""
	}

	candidate := strings.TrimPrefix(branch, c.BranchPrefix)
	// Step suffixes and legacy numeric path segments belong to the step
	// calculator, not the id.
	if slash := strings.IndexByte(candidate, '/'); slash >= 0 {
		candidate = candidate[:slash]
	}
	if candidate == "" {
		return ""
	}

	segments := strings.Split(candidate, "-")
	end := len(segments)
	for end > 1 && descriptiveSuffixes[strings.ToLower(segments[end-1])] {
		end--
	}

	// Stripping must never consume the whole candidate.
	if end == 1 && descriptiveSuffixes[strings.ToLower(segments[0])] {
		return candidate
	}

	return strings.Join(segments[:end], "-")
}

// ValidationResult reports how strongly a PR matches the migration
// conventions.
type ValidationResult struct {
	Valid           bool
	SignalsPresent  int
	Recommendations []string
}

// ValidatePR scores how many of the three identification signals (branch,
// label, title) are simultaneously present. A PR needs at least two to be
// considered valid; otherwise one recommendation is returned per missing
// signal.
func (c Conventions) ValidatePR(pr github.PullRequest) ValidationResult {
	result := ValidationResult{}

	if c.idFromBranch(pr.HeadRefName) != "" {
		result.SignalsPresent++
	} else {
		result.Recommendations = append(result.Recommendations,
			fmt.Sprintf("rename the head branch to %s{migration-id}", c.BranchPrefix))
	}

	if pr.HasLabel(c.Label) {
		result.SignalsPresent++
	} else {
		result.Recommendations = append(result.Recommendations,
			fmt.Sprintf("add the %q label", c.Label))
	}

	if titleIDPattern.MatchString(pr.Title) {
		result.SignalsPresent++
	} else {
		result.Recommendations = append(result.Recommendations,
			"prefix the title with [migration-id]")
	}

	result.Valid = result.SignalsPresent >= 2
	return result
}
