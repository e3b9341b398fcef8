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

package checkers

import (
	"context"
	"io"
	"net"
	"net/netip"
	"time"

	"go.uber.org/zap"
)

type TCPChecker struct {
	BaseChecker
	logger *zap.SugaredLogger
	dialer net.Dialer
}

func NewTCPChecker(logger *zap.SugaredLogger, defaultTimeout time.Duration) *TCPChecker {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &TCPChecker{
		BaseChecker: NewBaseChecker(defaultTimeout),
		logger:      logger,
	}
}

// Check resolves, probes and assembles a single request. The only error it
// returns is an address error; network conditions are folded into the Result.
func (c *TCPChecker) Check(ctx context.Context, req Request) (Result, Outcome, error) {
	addr, err := Resolve(req.Host, req.Port)
	if err != nil {
		return Result{}, Outcome{}, err
	}

	outcome := c.Probe(ctx, addr, c.EffectiveTimeout(req), req.Payload, req.ReceiveBytes)
	return Assemble(req, addr, outcome), outcome, nil
}

// Probe connects to addr within timeout, optionally writes payload and
// optionally reads exactly receiveBytes bytes. The read deadline is a fresh
// timeout window starting after connect.
func (c *TCPChecker) Probe(ctx context.Context, addr netip.AddrPort, timeout time.Duration, payload []byte, receiveBytes uint64) Outcome {
	start := time.Now()
	outcome := c.probe(ctx, addr, timeout, payload, receiveBytes)
	outcome.Elapsed = time.Since(start)

	c.logOutcome(addr, outcome)
	return outcome
}

func (c *TCPChecker) probe(ctx context.Context, addr netip.AddrPort, timeout time.Duration, payload []byte, receiveBytes uint64) Outcome {
	d := c.dialer
	d.Deadline = time.Now().Add(timeout)

	// Cancellation never aborts a started dial; only the timeout bounds it.
	conn, err := d.DialContext(context.WithoutCancel(ctx), "tcp", addr.String())
	if err != nil {
		return Outcome{Status: classifyDialError(err), Err: err}
	}
	defer conn.Close()

	if payload != nil {
		if err := conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
			return Outcome{Status: StatusIOError, Err: err}
		}
		if _, err := conn.Write(payload); err != nil {
			status := classifyIOError(err)
			if status == StatusShortRead {
				status = StatusIOError
			}
			return Outcome{Status: status, Err: err}
		}
	}

	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return Outcome{Status: StatusIOError, Err: err}
	}

	if receiveBytes == 0 {
		return Outcome{Status: StatusSuccess}
	}

	n, err := io.CopyN(io.Discard, conn, int64(min(receiveBytes, uint64(1<<63-1))))
	if err != nil {
		return Outcome{Status: classifyIOError(err), Received: uint64(n), Err: err}
	}
	return Outcome{Status: StatusSuccess, Received: uint64(n)}
}

func (c *TCPChecker) logOutcome(addr netip.AddrPort, outcome Outcome) {
	l := c.logger.With(
		"address", addr.Addr().String(),
		"port", addr.Port(),
		"status", outcome.Status,
		"latency_ms", outcome.Elapsed.Milliseconds(),
		"received", outcome.Received,
	)

	switch outcome.Status {
	case StatusSuccess:
		l.Debug("Probe succeeded")
	case StatusRefused, StatusTimedOut:
		l.Debugw("Probe closed", "error", outcome.Err)
	default:
		l.Warnw("Probe exchange failed", "error", outcome.Err)
	}
}
