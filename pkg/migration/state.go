package migration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hachiko/pkg/github"
	"hachiko/pkg/logx"
	"hachiko/pkg/metrics"
)

// Engine infers migration state from live GitHub signals. It holds no
// migration state of its own: every call reconstructs the answer from the
// injected query capability, so a given upstream snapshot always produces
// the same result.
//
//nolint:govet // Logical grouping preferred over memory optimization
type Engine struct {
	client        github.QueryClient
	finder        *Finder
	conventions   Conventions
	migrationsDir string
	baseBranch    string
	recorder      *metrics.Recorder
	logger        *logx.Logger
}

// EngineOptions configures an Engine.
type EngineOptions struct {
	Conventions   Conventions
	MigrationsDir string
	BaseBranch    string
	// Recorder is optional; nil disables metrics.
	Recorder *metrics.Recorder
}

// NewEngine creates a state inference engine over the given query
// capability.
func NewEngine(client github.QueryClient, opts EngineOptions) *Engine {
	if opts.Conventions.BranchPrefix == "" {
		opts.Conventions = DefaultConventions()
	}
	if opts.MigrationsDir == "" {
		opts.MigrationsDir = "migrations"
	}
	if opts.BaseBranch == "" {
		opts.BaseBranch = "main"
	}

	return &Engine{
		client:        client,
		finder:        NewFinder(client, opts.Conventions),
		conventions:   opts.Conventions,
		migrationsDir: opts.MigrationsDir,
		baseBranch:    opts.BaseBranch,
		recorder:      opts.Recorder,
		logger:        logx.NewLogger("migration"),
	}
}

// Finder exposes the engine's PR lookup for cross-migration tooling.
func (e *Engine) Finder() *Finder {
	return e.finder
}

// Conventions returns the PR recognition conventions in effect.
func (e *Engine) Conventions() Conventions {
	return e.conventions
}

// PlanPath returns the in-repo path of a migration's plan document.
func (e *Engine) PlanPath(migrationID string) string {
	return e.migrationsDir + "/" + migrationID + ".md"
}

// InferState derives the current state of a migration from its pull
// requests and plan document. The PR list and the document are fetched
// concurrently; a missing document is not an error, any other upstream
// failure propagates.
func (e *Engine) InferState(ctx context.Context, migrationID string) (StateInfo, error) {
	started := time.Now()
	info, err := e.infer(ctx, migrationID, true)
	e.record(migrationID, info, err, time.Since(started))
	return info, err
}

// InferStateFromPRs derives state from PR signals alone, treating the plan
// document as absent. The batch aggregator falls back to this when the
// document fetch fails.
func (e *Engine) InferStateFromPRs(ctx context.Context, migrationID string) (StateInfo, error) {
	started := time.Now()
	info, err := e.infer(ctx, migrationID, false)
	e.record(migrationID, info, err, time.Since(started))
	return info, err
}

func (e *Engine) infer(ctx context.Context, migrationID string, withDocument bool) (StateInfo, error) {
	var (
		open, closed []github.PullRequest
		prErr        error
		tasks        TaskInfo
		docErr       error
	)

	// Fan out the PR fetch and the document fetch, join before deriving.
	done := make(chan struct{})
	go func() {
		defer close(done)
		// A panic here is on a different goroutine than the caller's
		// recovery boundary; surface it as an error instead.
		defer func() {
			if r := recover(); r != nil {
				docErr = fmt.Errorf("plan document fetch panicked: %v", r)
			}
		}()
		if withDocument {
			tasks, docErr = e.fetchTasks(ctx, migrationID)
		}
	}()
	open, closed, prErr = e.finder.PartitionedHachikoPRs(ctx, migrationID)
	<-done

	if prErr != nil {
		return defaultStateInfo(time.Now()), prErr
	}
	if docErr != nil {
		return defaultStateInfo(time.Now()), docErr
	}

	info := deriveState(open, closed, tasks)
	e.logger.Debug("Migration %s: status=%s step=%d open=%d closed=%d tasks=%d/%d",
		migrationID, info.Status, info.CurrentStep, len(info.OpenPRs), len(info.ClosedPRs),
		info.CompletedTasks, info.TotalTasks)

	return info, nil
}

// fetchTasks loads and analyzes the plan document's checklist. A missing
// document yields zero tasks without an error.
func (e *Engine) fetchTasks(ctx context.Context, migrationID string) (TaskInfo, error) {
	content, err := e.client.GetFileContent(ctx, e.PlanPath(migrationID), e.baseBranch)
	if errors.Is(err, github.ErrNotFound) {
		e.logger.Debug("Migration %s: no plan document at %s", migrationID, e.PlanPath(migrationID))
		return TaskInfo{Tasks: []Task{}}, nil
	}
	if err != nil {
		return TaskInfo{}, logx.Wrap(err, "fetch plan document")
	}

	plan, err := ParsePlan(content)
	if err != nil {
		// A malformed header never blocks inference; the checklist scan
		// tolerates arbitrary text.
		e.logger.Warn("Migration %s: unparseable plan header: %v", migrationID, err)
		return AnalyzeTasks(string(content)), nil
	}
	if plan.Title != "" {
		e.logger.Debug("Migration %s: plan %q", migrationID, plan.Title)
	}

	return plan.Tasks(), nil
}

// PlanLastModified probes when a migration's plan document last changed.
// Display-surface helper only; state derivation never consults it.
func (e *Engine) PlanLastModified(ctx context.Context, migrationID string) (time.Time, error) {
	commits, err := e.client.ListCommits(ctx, e.PlanPath(migrationID), e.baseBranch, 1)
	if err != nil {
		return time.Time{}, logx.Wrap(err, "list plan commits")
	}
	if len(commits) == 0 {
		return time.Time{}, nil
	}
	return commits[0].Date, nil
}

// deriveState turns one snapshot of signals into a StateInfo. Rules are
// evaluated strictly in order:
//
//  1. Every task checked off (and at least one exists) means completed.
//  2. Any open managed PR means active.
//  3. No open PRs but closed ones exist: judge by the most recent (highest
//     numbered) closed PR. Merged means active, between steps; closed
//     unmerged means paused, the agent abandoned work.
//  4. No managed PR has ever existed: pending.
func deriveState(open, closed []github.PullRequest, tasks TaskInfo) StateInfo {
	info := StateInfo{
		OpenPRs:          open,
		ClosedPRs:        closed,
		AllTasksComplete: tasks.AllTasksComplete,
		TotalTasks:       tasks.TotalTasks,
		CompletedTasks:   tasks.CompletedTasks,
		CurrentStep:      CalculateCurrentStep(open, closed),
		LastUpdated:      time.Now(),
	}

	switch {
	case tasks.AllTasksComplete && tasks.TotalTasks > 0:
		info.Status = StatusCompleted
	case len(open) > 0:
		info.Status = StatusActive
	case len(closed) > 0:
		recent := mostRecent(closed)
		if recent.IsMerged() {
			info.Status = StatusActive
		} else {
			info.Status = StatusPaused
		}
	default:
		info.Status = StatusPending
	}

	return info
}

// mostRecent returns the closed PR with the highest number.
func mostRecent(prs []github.PullRequest) github.PullRequest {
	latest := prs[0]
	for i := 1; i < len(prs); i++ {
		if prs[i].Number > latest.Number {
			latest = prs[i]
		}
	}
	return latest
}

func (e *Engine) record(migrationID string, info StateInfo, err error, duration time.Duration) {
	if e.recorder == nil {
		return
	}
	e.recorder.ObserveInference(migrationID, string(info.Status), err == nil, duration)
}
