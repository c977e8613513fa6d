// Package github provides the read-only GitHub query capability used by
// state inference, built on the gh CLI. All operations run on the host
// since they're pure API calls.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"hachiko/pkg/logx"
)

// PRState values accepted by ListPRs.
const (
	PRStateOpen   = "open"
	PRStateClosed = "closed"
	PRStateAll    = "all"
)

// DefaultListLimit bounds pull request list queries to one page.
const DefaultListLimit = 100

// QueryClient is the repository query capability consumed by state
// inference. It is read-only; nothing in this interface mutates the
// repository. The interface enables testing with fake implementations.
type QueryClient interface {
	// ListPRs lists pull requests in the given lifecycle state
	// (open, closed, or all), bounded to one page.
	ListPRs(ctx context.Context, state string) ([]PullRequest, error)

	// GetFileContent fetches a file at a ref. A missing file returns
	// ErrNotFound.
	GetFileContent(ctx context.Context, path, ref string) ([]byte, error)

	// ListCommits lists recent commits touching a path, newest first.
	ListCommits(ctx context.Context, path, ref string, limit int) ([]Commit, error)
}

// Client implements QueryClient via the gh CLI.
//
//nolint:govet // Logical grouping preferred over memory optimization
type Client struct {
	owner     string
	repo      string
	listLimit int
	logger    *logx.Logger
	timeout   time.Duration
}

var _ QueryClient = (*Client)(nil)

// NewClient creates a GitHub client for the specified repository.
func NewClient(owner, repo string) *Client {
	return &Client{
		owner:     owner,
		repo:      repo,
		listLimit: DefaultListLimit,
		logger:    logx.NewLogger("github"),
		timeout:   30 * time.Second,
	}
}

// NewClientFromSlug creates a client from an owner/name slug.
func NewClientFromSlug(slug string) (*Client, error) {
	parts := strings.Split(slug, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("invalid repository slug: %s", slug)
	}
	return NewClient(parts[0], parts[1]), nil
}

// WithTimeout returns a new client with the specified per-call timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	clone := *c
	clone.timeout = timeout
	return &clone
}

// WithListLimit returns a new client with the specified list page bound.
func (c *Client) WithListLimit(limit int) *Client {
	clone := *c
	if limit > 0 && limit <= DefaultListLimit {
		clone.listLimit = limit
	}
	return &clone
}

// RepoPath returns the owner/repo path.
func (c *Client) RepoPath() string {
	return fmt.Sprintf("%s/%s", c.owner, c.repo)
}

// run executes a gh command and returns the output.
func (c *Client) run(ctx context.Context, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.logger.Debug("Executing: gh %s", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, "gh", args...)
	output, err := cmd.CombinedOutput()

	if err != nil {
		c.logger.Debug("Command failed: %v, output: %s", err, string(output))
		return output, fmt.Errorf("gh command failed: %w\nOutput: %s", err, string(output))
	}

	return output, nil
}

// runJSON executes a gh command and unmarshals the JSON response.
func (c *Client) runJSON(ctx context.Context, result interface{}, args ...string) error {
	output, err := c.run(ctx, args...)
	if err != nil {
		return err
	}

	if len(output) == 0 {
		return nil // Empty response is valid for some operations
	}

	if err := json.Unmarshal(output, result); err != nil {
		return fmt.Errorf("failed to parse JSON response: %w\nOutput: %s", err, string(output))
	}

	return nil
}

// CheckAuth verifies that gh CLI is authenticated.
func CheckAuth(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, "gh", "auth", "status")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("gh auth check failed: %w\nOutput: %s", err, string(output))
	}
	return nil
}
