package migration

import (
	"regexp"
	"strconv"

	"hachiko/pkg/github"
)

// Branch step encodings: "hachiko/{id}-step-{N}", plus the legacy form
// "hachiko/{id}/{N}" with a numeric final path segment.
var (
	stepSuffixPattern = regexp.MustCompile(`-step-(\d+)$`)
	legacyStepPattern = regexp.MustCompile(`/(\d+)$`)
)

// ParseStepNumber extracts the step number encoded in a branch name.
// Branches that don't parse contribute no candidate.
func ParseStepNumber(branch string) (int, bool) {
	match := stepSuffixPattern.FindStringSubmatch(branch)
	if match == nil {
		match = legacyStepPattern.FindStringSubmatch(branch)
	}
	if match == nil {
		return 0, false
	}

	step, err := strconv.Atoi(match[1])
	if err != nil || step < 1 {
		return 0, false
	}
	return step, true
}

// CalculateCurrentStep derives the current step number from PR branch
// names. Candidates are ranked strictly:
//
//  1. Merged work wins: max merged step + 1, even if an older step is
//     still open. Completed work is the strongest signal of true progress.
//  2. Otherwise the earliest still-open step.
//  3. Otherwise retry the most recently abandoned step.
//  4. Otherwise 1: fresh start, no parseable signal.
func CalculateCurrentStep(openPRs, closedPRs []github.PullRequest) int {
	maxMerged := 0
	for i := range closedPRs {
		if !closedPRs[i].IsMerged() {
			continue
		}
		if step, ok := ParseStepNumber(closedPRs[i].HeadRefName); ok && step > maxMerged {
			maxMerged = step
		}
	}
	if maxMerged > 0 {
		return maxMerged + 1
	}

	minOpen := 0
	for i := range openPRs {
		if step, ok := ParseStepNumber(openPRs[i].HeadRefName); ok {
			if minOpen == 0 || step < minOpen {
				minOpen = step
			}
		}
	}
	if minOpen > 0 {
		return minOpen
	}

	// Highest PR number is the most recent abandonment.
	retryStep, retryNumber := 0, 0
	for i := range closedPRs {
		pr := closedPRs[i]
		if pr.IsMerged() {
			continue
		}
		if step, ok := ParseStepNumber(pr.HeadRefName); ok && pr.Number >= retryNumber {
			retryStep = step
			retryNumber = pr.Number
		}
	}
	if retryStep > 0 {
		return retryStep
	}

	return 1
}
