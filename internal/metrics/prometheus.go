// Copyright (C) 2025 Jeff Rose
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/whiskeyjimbo/portprobe/internal/checkers"
	"go.uber.org/zap"
)

const namespace = "portprobe"

type PrometheusMetrics struct {
	logger   *zap.SugaredLogger
	registry *prometheus.Registry

	probeStatus   *prometheus.GaugeVec
	probeLatency  *prometheus.GaugeVec
	latencyHist   *prometheus.HistogramVec
	probeOutcomes *prometheus.CounterVec
}

func NewPrometheusMetrics(logger *zap.SugaredLogger) *PrometheusMetrics {
	p := &PrometheusMetrics{
		logger:   logger,
		registry: prometheus.NewRegistry(),
	}
	p.initMetrics()
	return p
}

func (p *PrometheusMetrics) initMetrics() {
	factory := promauto.With(p.registry)

	p.probeStatus = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "probe_status",
			Help:      "Status of the last probe (1 for open, 0 for closed)",
		},
		[]string{"address", "port"},
	)
	p.probeLatency = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "probe_latency_milliseconds",
			Help:      "Elapsed time of the last probe in milliseconds",
		},
		[]string{"address", "port"},
	)
	p.latencyHist = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "probe_latency_histogram_seconds",
			Help:      "Histogram of probe latencies",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"port", "result"},
	)
	p.probeOutcomes = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probe_outcomes_total",
			Help:      "Probes by internal outcome",
		},
		[]string{"port", "status"},
	)
}

// Observe records one probe result and the outcome status behind it.
func (p *PrometheusMetrics) Observe(result checkers.Result, status checkers.Status) {
	port := strconv.Itoa(result.Port)

	statusValue := 0.0
	if result.IsOpen {
		statusValue = 1.0
	}
	p.probeStatus.WithLabelValues(result.Address, port).Set(statusValue)
	p.probeLatency.WithLabelValues(result.Address, port).Set(float64(result.Elapsed.Milliseconds()))
	p.latencyHist.WithLabelValues(port, result.Result).Observe(result.Elapsed.Seconds())
	p.probeOutcomes.WithLabelValues(port, string(status)).Inc()
}

// WriteTextfile writes the registry in the node_exporter textfile format.
func (p *PrometheusMetrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, p.registry); err != nil {
		p.logger.Errorw("Failed to write metrics textfile", "path", path, "error", err)
		return err
	}
	return nil
}

func (p *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
