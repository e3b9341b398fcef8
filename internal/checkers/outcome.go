package checkers

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"syscall"
	"time"
)

// Status is the internal classification of a probe. Only StatusSuccess is open;
// every other status collapses to "Closed" at the output boundary.
type Status string

const (
	StatusSuccess   Status = "success"
	StatusRefused   Status = "refused"
	StatusTimedOut  Status = "timed_out"
	StatusIOError   Status = "io_error"
	StatusShortRead Status = "short_read"
)

// Outcome is produced once per probe and not modified afterwards.
type Outcome struct {
	Status   Status
	Elapsed  time.Duration
	Received uint64
	Err      error
}

func (o Outcome) IsOpen() bool {
	return o.Status == StatusSuccess
}

// ElapsedNanoseconds is never negative.
func (o Outcome) ElapsedNanoseconds() uint64 {
	if o.Elapsed < 0 {
		return 0
	}
	return uint64(o.Elapsed)
}

func classifyDialError(err error) Status {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return StatusRefused
	}
	return classifyIOError(err)
}

func classifyIOError(err error) Status {
	var ne net.Error
	switch {
	case errors.Is(err, os.ErrDeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return StatusTimedOut
	case errors.As(err, &ne) && ne.Timeout():
		return StatusTimedOut
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return StatusShortRead
	default:
		return StatusIOError
	}
}
