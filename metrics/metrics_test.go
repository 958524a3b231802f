package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.TriplesImported(3)
		m.TriplesExported(3)
		m.ImportFailed()
		m.Inference("RDFS", 2, time.Millisecond, nil)
		m.HTTPRequest("/health", "200")
		m.RateLimited()
	})
}

func TestCounters(t *testing.T) {
	m := New()
	m.TriplesImported(3)
	m.TriplesImported(2)
	assert.Equal(t, 5.0, testutil.ToFloat64(m.triplesImported))

	m.Inference("RDFS", 4, 10*time.Millisecond, nil)
	m.Inference("RDFS", 0, time.Millisecond, errors.New("boom"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.inferences.WithLabelValues("RDFS", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.inferences.WithLabelValues("RDFS", "failure")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.inferredTriples.WithLabelValues("RDFS")))

	families, err := m.Registry.Gather()
	require.NoError(t, err)
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["kgbridge_triples_imported_total"])
	assert.True(t, names["kgbridge_inference_duration_seconds"])
}
