package migration

import (
	"context"
	"sync"

	"hachiko/pkg/github"
)

// fakeClient is an in-memory QueryClient over a fixed snapshot.
type fakeClient struct {
	mu       sync.Mutex
	prs      []github.PullRequest
	files    map[string][]byte
	fileErrs map[string]error
	commits  []github.Commit

	listErr    error
	commitsErr error

	listCalls int
	fileCalls int
}

var _ github.QueryClient = (*fakeClient)(nil)

func (f *fakeClient) ListPRs(_ context.Context, state string) ([]github.PullRequest, error) {
	f.mu.Lock()
	f.listCalls++
	f.mu.Unlock()

	if f.listErr != nil {
		return nil, f.listErr
	}

	out := make([]github.PullRequest, 0, len(f.prs))
	for _, pr := range f.prs {
		switch state {
		case github.PRStateOpen:
			if pr.Closed {
				continue
			}
		case github.PRStateClosed:
			if !pr.Closed {
				continue
			}
		}
		out = append(out, pr)
	}
	return out, nil
}

func (f *fakeClient) GetFileContent(_ context.Context, path, _ string) ([]byte, error) {
	f.mu.Lock()
	f.fileCalls++
	f.mu.Unlock()

	if err, ok := f.fileErrs[path]; ok {
		return nil, err
	}
	content, ok := f.files[path]
	if !ok {
		return nil, github.ErrNotFound
	}
	return content, nil
}

func (f *fakeClient) ListCommits(_ context.Context, _, _ string, _ int) ([]github.Commit, error) {
	if f.commitsErr != nil {
		return nil, f.commitsErr
	}
	return f.commits, nil
}
