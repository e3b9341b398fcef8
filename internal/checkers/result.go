package checkers

import (
	"math"
	"net/netip"
	"time"
)

const (
	ResultOpen   = "Open"
	ResultClosed = "Closed"
)

// Result is the externally visible record of one probe.
type Result struct {
	Address string        `json:"address" yaml:"address"`
	Port    int           `json:"port" yaml:"port"`
	Result  string        `json:"result" yaml:"result"`
	IsOpen  bool          `json:"is_open" yaml:"is_open"`
	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`
}

// Assemble echoes the caller's host and port rather than the parsed address.
func Assemble(req Request, _ netip.AddrPort, outcome Outcome) Result {
	result := ResultClosed
	if outcome.IsOpen() {
		result = ResultOpen
	}

	return Result{
		Address: req.Host,
		Port:    req.Port,
		Result:  result,
		IsOpen:  outcome.IsOpen(),
		Elapsed: elapsedDuration(outcome.ElapsedNanoseconds()),
	}
}

// elapsedDuration reports 0 when the elapsed time overflows a Duration.
func elapsedDuration(nanos uint64) time.Duration {
	if nanos > math.MaxInt64 {
		return 0
	}
	return time.Duration(nanos)
}
