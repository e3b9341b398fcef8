package server

import (
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/whiskeyjimbo/portprobe/internal/checkers"
	"github.com/whiskeyjimbo/portprobe/internal/health"
	"github.com/whiskeyjimbo/portprobe/internal/metrics"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := zap.NewNop().Sugar()
	s := New(logger, checkers.NewTCPChecker(logger, time.Second), metrics.NewPrometheusMetrics(logger), health.New(), "")
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func echoListener(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				_, _ = io.Copy(conn, conn)
			}()
		}
	}()
	return l.Addr().(*net.TCPAddr).Port
}

func get(t *testing.T, ts *httptest.Server, query url.Values) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(ts.URL + "/probe?" + query.Encode())
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestHandleProbe_Open(t *testing.T) {
	ts := newTestServer(t)
	port := echoListener(t)

	resp, body := get(t, ts, url.Values{
		"address": {"127.0.0.1"},
		"port":    {strconv.Itoa(port)},
		"timeout": {"500ms"},
		"send":    {"ping"},
		"receive": {"4"},
	})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result checkers.Result
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, "127.0.0.1", result.Address)
	assert.Equal(t, port, result.Port)
	assert.Equal(t, checkers.ResultOpen, result.Result)
	assert.True(t, result.IsOpen)
}

func TestHandleProbe_BadRequests(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name  string
		query url.Values
		field string
	}{
		{name: "missing address", query: url.Values{"port": {"80"}}, field: checkers.FieldHost},
		{name: "missing port", query: url.Values{"address": {"127.0.0.1"}}, field: checkers.FieldPort},
		{name: "non-integer port", query: url.Values{"address": {"127.0.0.1"}, "port": {"http"}}, field: checkers.FieldPort},
		{name: "domain name", query: url.Values{"address": {"example.com"}, "port": {"80"}}, field: checkers.FieldHost},
		{name: "port out of range", query: url.Values{"address": {"127.0.0.1"}, "port": {"70000"}}, field: checkers.FieldPort},
		{name: "bad timeout", query: url.Values{"address": {"127.0.0.1"}, "port": {"80"}, "timeout": {"later"}}, field: "timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := get(t, ts, tt.query)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var errResp errorResponse
			require.NoError(t, json.Unmarshal(body, &errResp))
			assert.NotEmpty(t, errResp.Error)
			assert.Equal(t, tt.field, errResp.Field)
		})
	}
}

func TestHandleProbe_MethodNotAllowed(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/probe", "text/plain", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHandler_MetricsAfterProbe(t *testing.T) {
	ts := newTestServer(t)
	port := echoListener(t)

	resp, _ := get(t, ts, url.Values{"address": {"127.0.0.1"}, "port": {strconv.Itoa(port)}})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	metricsResp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer metricsResp.Body.Close()
	body, err := io.ReadAll(metricsResp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `portprobe_probe_status{address="127.0.0.1",port="`+strconv.Itoa(port)+`"} 1`)
}
