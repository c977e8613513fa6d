package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
)

// InferenceVolume aggregates inference activity for one migration as
// recorded in Prometheus.
type InferenceVolume struct {
	MigrationID string  `json:"migration_id"`
	Inferences  int64   `json:"inferences"`
	Errors      int64   `json:"errors"`
	Fallbacks   int64   `json:"fallbacks"`
	ErrorRatio  float64 `json:"error_ratio"`
}

// QueryService provides methods to query inference metrics from Prometheus.
type QueryService struct {
	client   api.Client
	queryAPI v1.API
}

// NewQueryService creates a new metrics query service.
func NewQueryService(prometheusURL string) (*QueryService, error) {
	client, err := api.NewClient(api.Config{
		Address: prometheusURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus client: %w", err)
	}

	return &QueryService{
		client:   client,
		queryAPI: v1.NewAPI(client),
	}, nil
}

// GetInferenceVolume retrieves aggregated inference counts for a migration.
// Used by operator tooling to spot migrations whose inference path degrades
// often; never consulted by the inference path itself.
func (q *QueryService) GetInferenceVolume(ctx context.Context, migrationID string) (*InferenceVolume, error) {
	volume := &InferenceVolume{
		MigrationID: migrationID,
	}

	totalQuery := fmt.Sprintf(`sum(hachiko_state_inferences_total{migration_id=%q})`, migrationID)
	totalResult, _, err := q.queryAPI.Query(ctx, totalQuery, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to query inference total: %w", err)
	}
	if vector, ok := totalResult.(model.Vector); ok && len(vector) > 0 {
		volume.Inferences = int64(vector[0].Value)
	}

	errorQuery := fmt.Sprintf(`sum(hachiko_state_inferences_total{migration_id=%q, outcome="error"})`, migrationID)
	errorResult, _, err := q.queryAPI.Query(ctx, errorQuery, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to query inference errors: %w", err)
	}
	if vector, ok := errorResult.(model.Vector); ok && len(vector) > 0 {
		volume.Errors = int64(vector[0].Value)
	}

	fallbackQuery := fmt.Sprintf(`sum(hachiko_batch_fallbacks_total{migration_id=%q})`, migrationID)
	fallbackResult, _, err := q.queryAPI.Query(ctx, fallbackQuery, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to query batch fallbacks: %w", err)
	}
	if vector, ok := fallbackResult.(model.Vector); ok && len(vector) > 0 {
		volume.Fallbacks = int64(vector[0].Value)
	}

	if volume.Inferences > 0 {
		volume.ErrorRatio = float64(volume.Errors) / float64(volume.Inferences)
	}

	return volume, nil
}
