package health

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

const (
	StatusUp       = "UP"
	StatusReady    = "READY"
	StatusNotReady = "NOT_READY"
)

type Response struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    string    `json:"uptime"`
}

// Probe tracks readiness of the serve mode process.
type Probe struct {
	ready   atomic.Bool
	started time.Time
}

func New() *Probe {
	return &Probe{started: time.Now()}
}

func (p *Probe) SetReady(ready bool) {
	p.ready.Store(ready)
}

func (p *Probe) Ready() bool {
	return p.ready.Load()
}

func (p *Probe) LivenessHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSONResponse(w, http.StatusOK, p.response(StatusUp))
}

func (p *Probe) ReadinessHandler(w http.ResponseWriter, _ *http.Request) {
	if p.Ready() {
		writeJSONResponse(w, http.StatusOK, p.response(StatusReady))
		return
	}
	writeJSONResponse(w, http.StatusServiceUnavailable, p.response(StatusNotReady))
}

func (p *Probe) response(status string) Response {
	now := time.Now()
	return Response{
		Status:    status,
		Timestamp: now,
		Uptime:    now.Sub(p.started).Truncate(time.Second).String(),
	}
}

func writeJSONResponse(w http.ResponseWriter, status int, response Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}
