package migration

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hachiko/pkg/github"
)

func newTestFinder(client github.QueryClient) *Finder {
	return NewFinder(client, DefaultConventions())
}

func TestHachikoPRsUnionsBranchAndLabelFilters(t *testing.T) {
	client := &fakeClient{
		prs: []github.PullRequest{
			{Number: 1, HeadRefName: "hachiko/x-step-1"},
			{Number: 2, HeadRefName: "agent/workbranch", Labels: []github.Label{{Name: "hachiko-migration"}}},
			{Number: 3, HeadRefName: "feature/unrelated"},
			{Number: 4, HeadRefName: "hachiko/x-step-2", Labels: []github.Label{{Name: "hachiko-migration"}}},
		},
	}

	prs, err := newTestFinder(client).HachikoPRs(context.Background(), "x", github.PRStateOpen)
	require.NoError(t, err)

	numbers := make([]int, 0, len(prs))
	for _, pr := range prs {
		numbers = append(numbers, pr.Number)
	}
	assert.Equal(t, []int{1, 2, 4}, numbers)
}

func TestHachikoPRsTitleOnlyMatchIsNotFound(t *testing.T) {
	// Acknowledged limitation: neither matching branch nor label means the
	// PR is invisible to this path even with a conventional title.
	client := &fakeClient{
		prs: []github.PullRequest{
			{Number: 1, HeadRefName: "feature/foo", Title: "[x] Step 1"},
		},
	}

	prs, err := newTestFinder(client).HachikoPRs(context.Background(), "x", github.PRStateOpen)
	require.NoError(t, err)
	assert.Empty(t, prs)
}

func TestOpenAndClosedSpecializations(t *testing.T) {
	client := &fakeClient{
		prs: []github.PullRequest{
			{Number: 1, HeadRefName: "hachiko/x-step-1"},
			{Number: 2, HeadRefName: "hachiko/x-step-2", Closed: true},
		},
	}
	finder := newTestFinder(client)

	open, err := finder.OpenHachikoPRs(context.Background(), "x")
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, 1, open[0].Number)

	closed, err := finder.ClosedHachikoPRs(context.Background(), "x")
	require.NoError(t, err)
	require.Len(t, closed, 1)
	assert.Equal(t, 2, closed[0].Number)
}

func TestAllOpenHachikoPRs(t *testing.T) {
	client := &fakeClient{
		prs: []github.PullRequest{
			{Number: 1, HeadRefName: "hachiko/alpha-step-1"},
			{Number: 2, HeadRefName: "hachiko/beta-step-1"},
			{Number: 3, HeadRefName: "agent/run", Labels: []github.Label{{Name: "hachiko-migration"}}},
			{Number: 4, HeadRefName: "feature/noise"},
			{Number: 5, HeadRefName: "other/branch", Title: "[gamma] Step 2"},
		},
	}

	prs, err := newTestFinder(client).AllOpenHachikoPRs(context.Background())
	require.NoError(t, err)
	require.Len(t, prs, 4)
}

func TestPartitionedHachikoPRsUsesOneQuery(t *testing.T) {
	client := &fakeClient{
		prs: []github.PullRequest{
			{Number: 1, HeadRefName: "hachiko/x-step-1"},
			{Number: 2, HeadRefName: "hachiko/x-step-2", Closed: true, MergedAt: "2026-08-01T00:00:00Z"},
			{Number: 3, HeadRefName: "feature/noise"},
		},
	}
	finder := newTestFinder(client)

	open, closed, err := finder.PartitionedHachikoPRs(context.Background(), "x")
	require.NoError(t, err)

	require.Len(t, open, 1)
	require.Len(t, closed, 1)
	assert.Equal(t, 1, open[0].Number)
	assert.Equal(t, 2, closed[0].Number)
	assert.Equal(t, 1, client.listCalls, "open and closed must come from one list query")
}

func TestHachikoPRsPropagatesListFailure(t *testing.T) {
	upstream := errors.New("rate limited")
	client := &fakeClient{listErr: upstream}

	_, err := newTestFinder(client).HachikoPRs(context.Background(), "x", github.PRStateOpen)
	assert.ErrorIs(t, err, upstream)
}
