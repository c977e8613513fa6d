package metrics

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cannedVector struct {
	substring string
	value     string
}

// fakePrometheus serves canned vector responses; the first substring match
// wins, so order specific queries before general ones.
func fakePrometheus(t *testing.T, values []cannedVector) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		query := r.Form.Get("query")

		value := ""
		for _, canned := range values {
			if strings.Contains(query, canned.substring) {
				value = canned.value
				break
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if value == "" {
			fmt.Fprint(w, `{"status":"success","data":{"resultType":"vector","result":[]}}`)
			return
		}
		fmt.Fprintf(w, `{"status":"success","data":{"resultType":"vector","result":[{"metric":{},"value":[1756372200,%q]}]}}`, value)
	}))
}

func TestGetInferenceVolume(t *testing.T) {
	server := fakePrometheus(t, []cannedVector{
		{substring: `outcome="error"`, value: "3"},
		{substring: "hachiko_batch_fallbacks", value: "2"},
		{substring: "hachiko_state_inferences_total", value: "30"},
	})
	defer server.Close()

	service, err := NewQueryService(server.URL)
	require.NoError(t, err)

	volume, err := service.GetInferenceVolume(context.Background(), "add-jsdoc")
	require.NoError(t, err)

	assert.Equal(t, "add-jsdoc", volume.MigrationID)
	assert.Equal(t, int64(30), volume.Inferences)
	assert.Equal(t, int64(3), volume.Errors)
	assert.Equal(t, int64(2), volume.Fallbacks)
	assert.InDelta(t, 0.1, volume.ErrorRatio, 1e-9)
}

func TestGetInferenceVolumeNoData(t *testing.T) {
	server := fakePrometheus(t, nil)
	defer server.Close()

	service, err := NewQueryService(server.URL)
	require.NoError(t, err)

	volume, err := service.GetInferenceVolume(context.Background(), "unknown")
	require.NoError(t, err)

	assert.Zero(t, volume.Inferences)
	assert.Zero(t, volume.ErrorRatio)
}
