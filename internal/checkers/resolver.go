package checkers

import (
	"errors"
	"fmt"
	"net/netip"
	"strconv"
)

var (
	ErrMissingHost = errors.New("missing required parameter: target IP")
	ErrMissingPort = errors.New("missing required parameter: target Port")
)

const (
	FieldHost = "host"
	FieldPort = "port"
)

// AddressError reports a host/port pair that is not a literal socket address.
// Names are never resolved, so it is terminal for the request.
type AddressError struct {
	Host    string
	Port    int
	Literal string
	Err     error
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("as `%s` got `%v`. note: do not use domain name in address.", e.Literal, e.Err)
}

func (e *AddressError) Unwrap() error {
	return e.Err
}

// Field names the input the error should be labeled against.
func (e *AddressError) Field() string {
	if e.Port < 0 || e.Port > 65535 {
		return FieldPort
	}
	return FieldHost
}

// Resolve joins host and port into a single literal and parses it as an
// IP address and port. No DNS lookup is performed.
func Resolve(host string, port int) (netip.AddrPort, error) {
	literal := host + ":" + strconv.Itoa(port)
	if host == "" {
		return netip.AddrPort{}, &AddressError{Host: host, Port: port, Literal: literal, Err: ErrMissingHost}
	}
	if port < 0 || port > 65535 {
		return netip.AddrPort{}, &AddressError{
			Host:    host,
			Port:    port,
			Literal: literal,
			Err:     fmt.Errorf("port %d out of range [0, 65535]", port),
		}
	}

	addr, err := netip.ParseAddrPort(literal)
	if err != nil {
		return netip.AddrPort{}, &AddressError{Host: host, Port: port, Literal: literal, Err: err}
	}
	return addr, nil
}
