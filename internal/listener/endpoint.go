package listener

import (
	"fmt"
	"net"
	"strconv"
)

// Endpoint is an IPv4 address and port to receive pose datagrams on. A
// multicast address makes the listener bind the wildcard address and join
// the group instead of binding directly.
type Endpoint struct {
	Addr net.IP
	Port int
}

// ParseEndpoint parses "ip:port" into an Endpoint. Only IPv4 literals are
// accepted.
func ParseEndpoint(s string) (Endpoint, error) {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return Endpoint{}, fmt.Errorf("invalid endpoint %q: %w", s, err)
	}

	ip := net.ParseIP(host)
	if ip == nil || ip.To4() == nil {
		return Endpoint{}, fmt.Errorf("invalid endpoint %q: not an IPv4 address", s)
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port < 0 || port > 65535 {
		return Endpoint{}, fmt.Errorf("invalid endpoint %q: bad port", s)
	}

	return Endpoint{Addr: ip.To4(), Port: port}, nil
}

// IsMulticast reports whether the endpoint's address is a multicast group.
func (e Endpoint) IsMulticast() bool {
	return e.Addr.IsMulticast()
}

func (e Endpoint) String() string {
	return net.JoinHostPort(e.Addr.String(), strconv.Itoa(e.Port))
}
