package migration

import (
	"testing"

	"hachiko/pkg/github"
)

func TestParseStepNumber(t *testing.T) {
	tests := []struct {
		name     string
		branch   string
		wantStep int
		wantOK   bool
	}{
		{name: "step suffix", branch: "hachiko/x-step-1", wantStep: 1, wantOK: true},
		{name: "multi digit step", branch: "hachiko/x-step-12", wantStep: 12, wantOK: true},
		{name: "legacy path segment", branch: "hachiko/x/3", wantStep: 3, wantOK: true},
		{name: "no step encoding", branch: "hachiko/x", wantOK: false},
		{name: "step zero rejected", branch: "hachiko/x-step-0", wantOK: false},
		{name: "interior step not a suffix", branch: "hachiko/x-step-2-extras", wantOK: false},
		{name: "non numeric", branch: "hachiko/x-step-one", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			step, ok := ParseStepNumber(tt.branch)
			if ok != tt.wantOK {
				t.Fatalf("ParseStepNumber(%q) ok = %v, want %v", tt.branch, ok, tt.wantOK)
			}
			if ok && step != tt.wantStep {
				t.Errorf("ParseStepNumber(%q) = %d, want %d", tt.branch, step, tt.wantStep)
			}
		})
	}
}

func TestCalculateCurrentStep(t *testing.T) {
	merged := func(number int, branch string) github.PullRequest {
		return github.PullRequest{Number: number, HeadRefName: branch, Closed: true, MergedAt: "2026-08-01T00:00:00Z"}
	}
	abandoned := func(number int, branch string) github.PullRequest {
		return github.PullRequest{Number: number, HeadRefName: branch, Closed: true}
	}
	open := func(number int, branch string) github.PullRequest {
		return github.PullRequest{Number: number, HeadRefName: branch}
	}

	tests := []struct {
		name   string
		open   []github.PullRequest
		closed []github.PullRequest
		want   int
	}{
		{
			name:   "merged step advances past it",
			closed: []github.PullRequest{merged(10, "hachiko/x-step-1")},
			want:   2,
		},
		{
			name:   "merged work overrides an older open step",
			open:   []github.PullRequest{open(5, "hachiko/x-step-1")},
			closed: []github.PullRequest{merged(12, "hachiko/x-step-3")},
			want:   4,
		},
		{
			name: "earliest open step wins without merges",
			open: []github.PullRequest{
				open(20, "hachiko/x-step-4"),
				open(21, "hachiko/x-step-2"),
			},
			want: 2,
		},
		{
			name:   "most recent abandonment is the retry target",
			closed: []github.PullRequest{
				abandoned(7, "hachiko/x-step-2"),
				abandoned(9, "hachiko/x-step-3"),
			},
			want: 3,
		},
		{
			name:   "abandoned step alone",
			closed: []github.PullRequest{abandoned(3, "hachiko/x-step-3")},
			want:   3,
		},
		{
			name: "no parseable signal defaults to one",
			open: []github.PullRequest{open(1, "hachiko/x")},
			want: 1,
		},
		{
			name: "empty inputs default to one",
			want: 1,
		},
		{
			name:   "unparseable branches contribute no candidate",
			open:   []github.PullRequest{open(4, "hachiko/x-stepless")},
			closed: []github.PullRequest{merged(2, "hachiko/x-step-one")},
			want:   1,
		},
		{
			name:   "legacy path encoding parses",
			closed: []github.PullRequest{merged(6, "hachiko/x/2")},
			want:   3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalculateCurrentStep(tt.open, tt.closed); got != tt.want {
				t.Errorf("CalculateCurrentStep() = %d, want %d", got, tt.want)
			}
		})
	}
}
