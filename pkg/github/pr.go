package github

import (
	"context"
	"fmt"
)

// PullRequest represents a GitHub pull request.
// Field names match gh CLI --json output (GraphQL field names).
//
//nolint:govet // Logical grouping preferred over memory optimization
type PullRequest struct {
	Number      int     `json:"number"`
	URL         string  `json:"url"`
	Title       string  `json:"title"`
	State       string  `json:"state"`       // OPEN, CLOSED, MERGED
	HeadRefName string  `json:"headRefName"` // Branch name (gh CLI)
	Labels      []Label `json:"labels"`
	Closed      bool    `json:"closed"`   // Whether PR is closed
	MergedAt    string  `json:"mergedAt"` // Non-empty if merged
}

// Label is a repository label attached to a pull request.
type Label struct {
	Name string `json:"name"`
}

// IsMerged returns true if the PR has been merged.
func (pr *PullRequest) IsMerged() bool {
	return pr.MergedAt != ""
}

// IsOpen returns true if the PR is still open.
func (pr *PullRequest) IsOpen() bool {
	return !pr.Closed
}

// HasLabel returns true if the PR carries the named label.
func (pr *PullRequest) HasLabel(name string) bool {
	for i := range pr.Labels {
		if pr.Labels[i].Name == name {
			return true
		}
	}
	return false
}

// prListFields are the --json fields requested for list queries.
const prListFields = "number,url,title,state,headRefName,labels,closed,mergedAt"

// ListPRs lists pull requests for the repository in the given state
// (open, closed, or all). Results are bounded to one page.
func (c *Client) ListPRs(ctx context.Context, state string) ([]PullRequest, error) {
	args := []string{
		"pr", "list",
		"--repo", c.RepoPath(),
		"--json", prListFields,
		"--limit", fmt.Sprintf("%d", c.listLimit),
	}

	if state != "" {
		args = append(args, "--state", state)
	}

	var prs []PullRequest
	if err := c.runJSON(ctx, &prs, args...); err != nil {
		return nil, fmt.Errorf("failed to list PRs: %w", err)
	}

	return prs, nil
}

// GetPR retrieves a pull request by number or branch name.
func (c *Client) GetPR(ctx context.Context, ref string) (*PullRequest, error) {
	args := []string{
		"pr", "view", ref,
		"--repo", c.RepoPath(),
		"--json", prListFields,
	}

	var pr PullRequest
	if err := c.runJSON(ctx, &pr, args...); err != nil {
		return nil, fmt.Errorf("failed to get PR %s: %w", ref, err)
	}

	return &pr, nil
}
