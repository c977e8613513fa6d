package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ErrNotFound indicates the requested file does not exist at the given ref.
// Callers treat this as "no document", not as a failure.
var ErrNotFound = errors.New("file not found")

// Commit is minimal commit metadata used for last-updated probing.
type Commit struct {
	SHA     string
	Message string
	Date    time.Time
}

// GetFileContent fetches a file's raw bytes at a ref via the contents API.
// A 404 from GitHub maps to ErrNotFound.
func (c *Client) GetFileContent(ctx context.Context, path, ref string) ([]byte, error) {
	endpoint := fmt.Sprintf("repos/%s/contents/%s", c.RepoPath(), escapePath(path))
	if ref != "" {
		endpoint += "?ref=" + url.QueryEscape(ref)
	}

	output, err := c.run(ctx, "api", endpoint)
	if err != nil {
		if isNotFoundOutput(output) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch %s@%s: %w", path, ref, err)
	}

	var response struct {
		Encoding string `json:"encoding"`
		Content  string `json:"content"`
	}
	if err := json.Unmarshal(output, &response); err != nil {
		return nil, fmt.Errorf("failed to parse contents response for %s: %w", path, err)
	}

	if response.Encoding != "base64" {
		return nil, fmt.Errorf("unexpected content encoding %q for %s", response.Encoding, path)
	}

	// The contents API wraps base64 payloads with newlines.
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(response.Content, "\n", ""))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	return decoded, nil
}

// ListCommits lists recent commits touching a path, newest first.
// Used only for last-updated probing, never for state derivation.
func (c *Client) ListCommits(ctx context.Context, path, ref string, limit int) ([]Commit, error) {
	if limit <= 0 {
		limit = 1
	}

	endpoint := fmt.Sprintf("repos/%s/commits?per_page=%d", c.RepoPath(), limit)
	if path != "" {
		endpoint += "&path=" + url.QueryEscape(path)
	}
	if ref != "" {
		endpoint += "&sha=" + url.QueryEscape(ref)
	}

	output, err := c.run(ctx, "api", endpoint)
	if err != nil {
		if isNotFoundOutput(output) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to list commits for %s: %w", path, err)
	}

	var response []struct {
		SHA    string `json:"sha"`
		Commit struct {
			Message   string `json:"message"`
			Committer struct {
				Date time.Time `json:"date"`
			} `json:"committer"`
		} `json:"commit"`
	}
	if err := json.Unmarshal(output, &response); err != nil {
		return nil, fmt.Errorf("failed to parse commits response: %w", err)
	}

	commits := make([]Commit, 0, len(response))
	for _, entry := range response {
		commits = append(commits, Commit{
			SHA:     entry.SHA,
			Message: entry.Commit.Message,
			Date:    entry.Commit.Committer.Date,
		})
	}

	return commits, nil
}

// isNotFoundOutput detects a gh api 404 from combined output.
func isNotFoundOutput(output []byte) bool {
	text := strings.ToLower(string(output))
	return strings.Contains(text, "http 404") || strings.Contains(text, "not found (http 404)")
}

// escapePath escapes a repo path segment-by-segment, preserving slashes.
func escapePath(path string) string {
	segments := strings.Split(path, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}
