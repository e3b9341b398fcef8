package metrics

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/whiskeyjimbo/portprobe/internal/checkers"
	"go.uber.org/zap"
)

func TestNewPrometheusMetrics(t *testing.T) {
	metrics := NewPrometheusMetrics(zap.NewNop().Sugar())

	assert.NotNil(t, metrics)
	assert.NotNil(t, metrics.probeStatus)
	assert.NotNil(t, metrics.probeLatency)
	assert.NotNil(t, metrics.latencyHist)
	assert.NotNil(t, metrics.probeOutcomes)
}

func TestPrometheusMetrics_Observe(t *testing.T) {
	tests := []struct {
		name   string
		result checkers.Result
		status checkers.Status
		want   float64
	}{
		{
			name:   "open probe",
			result: checkers.Result{Address: "127.0.0.1", Port: 80, Result: checkers.ResultOpen, IsOpen: true, Elapsed: 100 * time.Millisecond},
			status: checkers.StatusSuccess,
			want:   1.0,
		},
		{
			name:   "closed probe",
			result: checkers.Result{Address: "127.0.0.1", Port: 81, Result: checkers.ResultClosed, Elapsed: 50 * time.Millisecond},
			status: checkers.StatusRefused,
			want:   0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := NewPrometheusMetrics(zap.NewNop().Sugar())
			port := strconv.Itoa(tt.result.Port)

			metrics.Observe(tt.result, tt.status)

			assert.Equal(t, tt.want, testutil.ToFloat64(metrics.probeStatus.WithLabelValues(tt.result.Address, port)))
			assert.Equal(t, float64(tt.result.Elapsed.Milliseconds()), testutil.ToFloat64(metrics.probeLatency.WithLabelValues(tt.result.Address, port)))
			assert.Equal(t, 1.0, testutil.ToFloat64(metrics.probeOutcomes.WithLabelValues(port, string(tt.status))))

			histogram, err := metrics.latencyHist.GetMetricWithLabelValues(port, tt.result.Result)
			assert.NoError(t, err)
			assert.NotNil(t, histogram)
		})
	}
}

func TestPrometheusMetrics_WriteTextfile(t *testing.T) {
	metrics := NewPrometheusMetrics(zap.NewNop().Sugar())
	metrics.Observe(checkers.Result{Address: "10.0.0.1", Port: 443, Result: checkers.ResultOpen, IsOpen: true}, checkers.StatusSuccess)

	path := filepath.Join(t.TempDir(), "portprobe.prom")
	require.NoError(t, metrics.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `portprobe_probe_status{address="10.0.0.1",port="443"} 1`)
}

func TestPrometheusMetrics_Handler(t *testing.T) {
	metrics := NewPrometheusMetrics(zap.NewNop().Sugar())
	metrics.Observe(checkers.Result{Address: "10.0.0.2", Port: 22, Result: checkers.ResultClosed}, checkers.StatusTimedOut)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `portprobe_probe_outcomes_total{port="22",status="timed_out"} 1`)
}
