// Package migration implements stateless inference of migration lifecycle
// state from pull request and plan document signals.
//
// Nothing in this package stores state: every call reconstructs the answer
// from fresh GitHub queries, so two calls against an identical upstream
// snapshot return identical results (modulo the computation timestamp).
package migration

import (
	"fmt"
	"io"
	"strings"
	"time"

	"hachiko/pkg/github"
)

// Status is a migration lifecycle state. It is always recomputed from
// upstream signals, never stored or transitioned.
type Status string

const (
	// StatusPending means no migration PR has ever existed.
	StatusPending Status = "pending"
	// StatusActive means work is in flight: a PR is open, or the most
	// recent closed PR was merged and the next step has not started yet.
	StatusActive Status = "active"
	// StatusPaused means the most recent closed PR was abandoned unmerged
	// and operator action is required.
	StatusPaused Status = "paused"
	// StatusCompleted means every checklist task in the plan is done.
	StatusCompleted Status = "completed"
)

// StateInfo is the result of one state inference call.
//
//nolint:govet // Logical grouping preferred over memory optimization
type StateInfo struct {
	Status           Status
	OpenPRs          []github.PullRequest
	ClosedPRs        []github.PullRequest
	AllTasksComplete bool
	TotalTasks       int
	CompletedTasks   int
	CurrentStep      int
	// LastUpdated is the time of computation, not of the underlying data.
	LastUpdated time.Time
}

// Summary returns a one-line human-readable description of the state.
func (s *StateInfo) Summary() string {
	switch s.Status {
	case StatusCompleted:
		return fmt.Sprintf("Completed (%d/%d tasks complete)", s.CompletedTasks, s.TotalTasks)
	case StatusActive:
		return fmt.Sprintf("Active (%d open PRs • %d/%d tasks complete)",
			len(s.OpenPRs), s.CompletedTasks, s.TotalTasks)
	case StatusPaused:
		return fmt.Sprintf("Paused (step %d abandoned • %d/%d tasks complete)",
			s.CurrentStep, s.CompletedTasks, s.TotalTasks)
	default:
		return "Pending (no migration PRs yet)"
	}
}

// WriteKeyValues emits the line-oriented key=value form consumed by
// external automation.
func (s *StateInfo) WriteKeyValues(w io.Writer, migrationID string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "migration_id=%s\n", migrationID)
	fmt.Fprintf(&b, "status=%s\n", s.Status)
	fmt.Fprintf(&b, "current_step=%d\n", s.CurrentStep)
	fmt.Fprintf(&b, "total_tasks=%d\n", s.TotalTasks)
	fmt.Fprintf(&b, "completed_tasks=%d\n", s.CompletedTasks)
	fmt.Fprintf(&b, "open_prs=%d\n", len(s.OpenPRs))
	fmt.Fprintf(&b, "closed_prs=%d\n", len(s.ClosedPRs))
	fmt.Fprintf(&b, "last_updated=%s\n", s.LastUpdated.UTC().Format(time.RFC3339))

	_, err := io.WriteString(w, b.String())
	return err
}

// defaultStateInfo is the fallback record emitted when inference for an id
// fails entirely.
func defaultStateInfo(now time.Time) StateInfo {
	return StateInfo{
		Status:      StatusPending,
		OpenPRs:     []github.PullRequest{},
		ClosedPRs:   []github.PullRequest{},
		CurrentStep: 1,
		LastUpdated: now,
	}
}
