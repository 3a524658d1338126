package types

import (
	"net"
	"strings"
)

// IPVersion represents the IP family of an address
type IPVersion string

const (
	IPv4    IPVersion = "ipv4"
	IPv6    IPVersion = "ipv6"
	Unknown IPVersion = "unknown"
)

// Address is the textual public IP address as reported by the echo service.
// It is compared as an opaque string.
type Address string

// String returns the address literal
func (a Address) String() string {
	return string(a)
}

// IsEmpty reports whether the address carries no value
func (a Address) IsEmpty() bool {
	return strings.TrimSpace(string(a)) == ""
}

// Version reports the IP family, or Unknown when the text does not parse
func (a Address) Version() IPVersion {
	ip := net.ParseIP(string(a))
	switch {
	case ip == nil:
		return Unknown
	case ip.To4() != nil:
		return IPv4
	default:
		return IPv6
	}
}
