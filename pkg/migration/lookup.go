package migration

import (
	"context"
	"strings"

	"hachiko/pkg/github"
	"hachiko/pkg/logx"
)

// Finder locates the pull requests belonging to a migration. It owns no
// state beyond the injected query capability.
type Finder struct {
	client      github.QueryClient
	conventions Conventions
	logger      *logx.Logger
}

// NewFinder creates a Finder over the given query capability.
func NewFinder(client github.QueryClient, conventions Conventions) *Finder {
	return &Finder{
		client:      client,
		conventions: conventions,
		logger:      logx.NewLogger("lookup"),
	}
}

// HachikoPRs returns the pull requests for a migration in the requested
// lifecycle state. A PR matches if its head branch starts with
// {prefix}{id}, or if it carries the convention label; matches are
// deduplicated by PR number. A PR identified solely by title convention is
// not found by this path.
func (f *Finder) HachikoPRs(ctx context.Context, migrationID, state string) ([]github.PullRequest, error) {
	prs, err := f.client.ListPRs(ctx, state)
	if err != nil {
		return nil, logx.Wrap(err, "list pull requests")
	}
	return f.filterForMigration(prs, migrationID), nil
}

// OpenHachikoPRs returns the open pull requests for a migration.
func (f *Finder) OpenHachikoPRs(ctx context.Context, migrationID string) ([]github.PullRequest, error) {
	return f.HachikoPRs(ctx, migrationID, github.PRStateOpen)
}

// ClosedHachikoPRs returns the closed pull requests for a migration.
func (f *Finder) ClosedHachikoPRs(ctx context.Context, migrationID string) ([]github.PullRequest, error) {
	return f.HachikoPRs(ctx, migrationID, github.PRStateClosed)
}

// AllOpenHachikoPRs returns every open managed PR regardless of migration
// id, for cross-migration tooling.
func (f *Finder) AllOpenHachikoPRs(ctx context.Context) ([]github.PullRequest, error) {
	prs, err := f.client.ListPRs(ctx, github.PRStateOpen)
	if err != nil {
		return nil, logx.Wrap(err, "list open pull requests")
	}

	managed := make([]github.PullRequest, 0, len(prs))
	for i := range prs {
		if f.conventions.ExtractMigrationID(prs[i]) != "" || prs[i].HasLabel(f.conventions.Label) {
			managed = append(managed, prs[i])
		}
	}
	return managed, nil
}

// PartitionedHachikoPRs fetches a migration's PRs with one state=all query
// and partitions in memory. This avoids the race a separate open fetch and
// closed fetch would have against a PR transitioning between the two reads.
func (f *Finder) PartitionedHachikoPRs(ctx context.Context, migrationID string) (open, closed []github.PullRequest, err error) {
	prs, listErr := f.client.ListPRs(ctx, github.PRStateAll)
	if listErr != nil {
		return nil, nil, logx.Wrap(listErr, "list pull requests")
	}

	open = []github.PullRequest{}
	closed = []github.PullRequest{}
	for _, pr := range f.filterForMigration(prs, migrationID) {
		if pr.IsOpen() {
			open = append(open, pr)
		} else {
			closed = append(closed, pr)
		}
	}
	return open, closed, nil
}

// filterForMigration unions the branch-prefix and label filters,
// deduplicating by PR number while preserving list order.
func (f *Finder) filterForMigration(prs []github.PullRequest, migrationID string) []github.PullRequest {
	branchPrefix := f.conventions.BranchPrefix + migrationID

	matched := make([]github.PullRequest, 0, len(prs))
	seen := make(map[int]bool, len(prs))
	for i := range prs {
		pr := prs[i]
		byBranch := strings.HasPrefix(pr.HeadRefName, branchPrefix)
		byLabel := pr.HasLabel(f.conventions.Label)
		if !byBranch && !byLabel {
			continue
		}
		if seen[pr.Number] {
			continue
		}
		seen[pr.Number] = true
		matched = append(matched, pr)
	}

	f.logger.Debug("Matched %d/%d PRs for migration %s", len(matched), len(prs), migrationID)
	return matched
}
