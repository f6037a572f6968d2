package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"alcyxob/fittrack/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRecorder(t *testing.T) {
	m, reg := NewTestManagerAndRegistry()

	m.WorkoutTransition(domain.TransitionResult{Accepted: true}, domain.WorkoutInProgress)
	m.WorkoutTransition(domain.TransitionResult{Accepted: false}, domain.WorkoutInProgress)
	m.WorkoutTransition(domain.TransitionResult{Accepted: false}, domain.WorkoutInProgress)
	m.EntryLogged(domain.LogBarcode)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterWorkoutTransitions.WithLabelValues("inProgress", "true")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CounterWorkoutTransitions.WithLabelValues("inProgress", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterEntriesLogged.WithLabelValues("barcode")))

	expected := `
# HELP fittrack_test_server_nutrition_entries_logged The total number of nutrition entries logged, by log method
# TYPE fittrack_test_server_nutrition_entries_logged counter
fittrack_test_server_nutrition_entries_logged{method="barcode"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "fittrack_test_server_nutrition_entries_logged"))
}

func TestRecorder_NilManager(t *testing.T) {
	var m *Manager
	assert.NotPanics(t, func() {
		m.WorkoutTransition(domain.TransitionResult{}, domain.WorkoutCompleted)
		m.EntryLogged(domain.LogManual)
	})
}

func TestRequestMetricsAndRecovery(t *testing.T) {
	m := NewTestManager()
	r := gin.New()
	r.Use(RequestMetrics(m), Recovery(m))
	r.GET("/workouts/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	for _, path := range []string{"/workouts/1", "/workouts/2", "/panic", "/nowhere"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CounterRequests.WithLabelValues("GET", "204")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterRequests.WithLabelValues("GET", "500")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterRequests.WithLabelValues("GET", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterHandleRequestPanic))
	assert.Zero(t, testutil.ToFloat64(m.GaugeRequests))
	assert.Equal(t, 3, testutil.CollectAndCount(m.HistogramRequestDuration), "one series per route and status")
}
