package migration

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"hachiko/pkg/metrics"
)

// BatchStates runs state inference for every migration id concurrently and
// returns an id-keyed map. Failures are isolated per id: a failed document
// fetch degrades that id to PR-only inference, a total failure degrades it
// to a default pending record, and neither outcome disturbs sibling ids.
// BatchStates never returns an error.
func (e *Engine) BatchStates(ctx context.Context, migrationIDs []string) map[string]StateInfo {
	runID := uuid.NewString()
	logger := e.logger.WithComponent("batch")
	logger.Debug("Batch %s: inferring %d migrations", runID, len(migrationIDs))

	results := make(map[string]StateInfo, len(migrationIDs))
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	for _, migrationID := range migrationIDs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			info := e.inferWithFallback(ctx, id, runID)
			mu.Lock()
			results[id] = info
			mu.Unlock()
		}(migrationID)
	}
	wg.Wait()

	logger.Debug("Batch %s: done", runID)
	return results
}

// inferWithFallback runs the per-id fallback chain. A panic anywhere in the
// chain is caught and degraded to the default record; it must never escape
// to cancel sibling computations.
func (e *Engine) inferWithFallback(ctx context.Context, migrationID, runID string) (info StateInfo) {
	logger := e.logger.WithComponent("batch")

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Batch %s: panic inferring %s: %v", runID, migrationID, r)
			e.countFallback(migrationID, metrics.FallbackDefault)
			info = defaultStateInfo(time.Now())
		}
	}()

	info, err := e.InferState(ctx, migrationID)
	if err == nil {
		return info
	}
	logger.Warn("Batch %s: inference failed for %s, retrying without document: %v", runID, migrationID, err)
	e.countFallback(migrationID, metrics.FallbackPROnly)

	info, err = e.InferStateFromPRs(ctx, migrationID)
	if err == nil {
		return info
	}
	logger.Warn("Batch %s: PR-only inference failed for %s, emitting default record: %v", runID, migrationID, err)
	e.countFallback(migrationID, metrics.FallbackDefault)

	return defaultStateInfo(time.Now())
}

func (e *Engine) countFallback(migrationID, kind string) {
	if e.recorder == nil {
		return
	}
	e.recorder.IncBatchFallback(migrationID, kind)
}
