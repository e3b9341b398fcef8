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

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/whiskeyjimbo/portprobe/internal/checkers"
	"github.com/whiskeyjimbo/portprobe/internal/config"
	"github.com/whiskeyjimbo/portprobe/internal/health"
	"github.com/whiskeyjimbo/portprobe/internal/metrics"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	logger  *zap.SugaredLogger
	checker *checkers.TCPChecker
	metrics *metrics.PrometheusMetrics
	health  *health.Probe
	listen  string
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func New(logger *zap.SugaredLogger, checker *checkers.TCPChecker, m *metrics.PrometheusMetrics, h *health.Probe, listen string) *Server {
	if listen == "" {
		listen = config.DefaultListen
	}
	return &Server{
		logger:  logger,
		checker: checker,
		metrics: m,
		health:  h,
		listen:  listen,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/probe", s.handleProbe)
	mux.Handle("/metrics", s.metrics.Handler())
	mux.HandleFunc("/health/live", s.health.LivenessHandler)
	mux.HandleFunc("/health/ready", s.health.ReadinessHandler)
	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	// A probe can take up to twice its timeout, so there is no WriteTimeout.
	server := &http.Server{
		Addr:              s.listen,
		Handler:           s.Handler(),
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infow("Starting probe server", "listen", s.listen)
		errCh <- server.ListenAndServe()
	}()
	s.health.SetReady(true)

	select {
	case err := <-errCh:
		s.health.SetReady(false)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.health.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}

	req, field, err := parseRequest(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Field: field})
		return
	}

	result, outcome, err := s.checker.Check(r.Context(), req)
	if err != nil {
		resp := errorResponse{Error: err.Error()}
		var addrErr *checkers.AddressError
		if errors.As(err, &addrErr) {
			resp.Field = addrErr.Field()
		}
		s.logger.Warnw("Rejected probe request", "address", req.Host, "port", req.Port, "error", err)
		writeJSON(w, http.StatusBadRequest, resp)
		return
	}

	s.metrics.Observe(result, outcome.Status)
	writeJSON(w, http.StatusOK, result)
}

func parseRequest(r *http.Request) (checkers.Request, string, error) {
	q := r.URL.Query()
	var req checkers.Request

	req.Host = q.Get("address")
	if req.Host == "" {
		return req, checkers.FieldHost, checkers.ErrMissingHost
	}

	portValue := q.Get("port")
	if portValue == "" {
		return req, checkers.FieldPort, checkers.ErrMissingPort
	}
	port, err := strconv.Atoi(portValue)
	if err != nil {
		return req, checkers.FieldPort, fmt.Errorf("target port error: %w", err)
	}
	req.Port = port

	if v := q.Get("timeout"); v != "" {
		timeout, err := config.ParseTimeout(v)
		if err != nil {
			return req, "timeout", err
		}
		req.Timeout = &timeout
	}

	if q.Has("send") {
		req.Payload = checkers.PayloadFromString(q.Get("send"))
	}

	if v := q.Get("receive"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return req, "receive", fmt.Errorf("invalid receive byte count: %w", err)
		}
		req.ReceiveBytes = checkers.ReceiveCount(n)
	}

	return req, "", nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
