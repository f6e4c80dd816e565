package callback

import (
	"net"
	"strings"
)

// DefaultAllowedIPs lists the gateway's published callback source addresses.
// Override with Options.AllowedIPs when fronted by a proxy with different
// egress addresses.
var DefaultAllowedIPs = []string{
	"196.201.212.69",
	"196.201.212.74",
	"196.201.212.127",
	"196.201.212.129",
	"196.201.212.136",
	"196.201.212.138",
	"196.201.213.44",
	"196.201.213.114",
	"196.201.214.200",
	"196.201.214.206",
	"196.201.214.207",
	"196.201.214.208",
}

// UntrustedSourceError reports a webhook whose source IP is not in the
// allow-list. No hook runs when this is returned.
type UntrustedSourceError struct {
	IP string
}

func (e *UntrustedSourceError) Error() string {
	return "callback: source IP " + e.IP + " is not in the allow-list"
}

// ipAllowed reports whether ip appears in the allow-list. Input may carry a
// port or surrounding whitespace.
func ipAllowed(ip string, allowed []string) bool {
	ip = strings.TrimSpace(ip)
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}

	for _, candidate := range allowed {
		if candidateIP := net.ParseIP(candidate); candidateIP != nil && candidateIP.Equal(parsed) {
			return true
		}
	}
	return false
}
