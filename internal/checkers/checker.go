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
	"math"
	"time"
)

// Request is one probe of a single (host, port) pair. It is read-only to the checker.
type Request struct {
	Host string
	Port int
	// Timeout is nil when the caller did not supply one.
	Timeout *time.Duration
	// Payload is nil when nothing should be sent.
	Payload      []byte
	ReceiveBytes uint64
}

type BaseChecker struct {
	timeout time.Duration
}

// NewBaseChecker keeps defaultTimeout as given; zero is an explicit, already
// expired timeout rather than "unset".
func NewBaseChecker(defaultTimeout time.Duration) BaseChecker {
	return BaseChecker{
		timeout: NormalizeTimeout(defaultTimeout),
	}
}

// EffectiveTimeout returns the request timeout, falling back to the checker default.
func (b *BaseChecker) EffectiveTimeout(req Request) time.Duration {
	if req.Timeout == nil {
		return b.timeout
	}
	return NormalizeTimeout(*req.Timeout)
}

// NormalizeTimeout maps a negative timeout to its magnitude. It is never rejected.
func NormalizeTimeout(timeout time.Duration) time.Duration {
	if timeout < 0 {
		if timeout == math.MinInt64 {
			return math.MaxInt64
		}
		return -timeout
	}
	return timeout
}

// PayloadFromString converts each character to a single raw byte, keeping
// only the low eight bits of characters outside Latin-1.
func PayloadFromString(s string) []byte {
	payload := make([]byte, 0, len(s))
	for _, r := range s {
		payload = append(payload, byte(r))
	}
	return payload
}

// ReceiveCount maps a signed byte count to its magnitude.
func ReceiveCount(n int64) uint64 {
	if n < 0 {
		return uint64(-(n + 1)) + 1
	}
	return uint64(n)
}
