package addrutil

import (
	"net"
	"strconv"
	"strings"
)

// WithDefaultPort returns addr as "host:port", keeping an explicit port when
// present and joining port otherwise. Unbracketed IPv6 literals are handled.
func WithDefaultPort(addr string, port int) (string, bool) {
	host, explicit := splitHostPort(addr)
	if host == "" {
		return "", false
	}
	if explicit != "" {
		return net.JoinHostPort(host, explicit), true
	}
	if port <= 0 {
		return "", false
	}
	return net.JoinHostPort(host, strconv.Itoa(port)), true
}

// Host strips any port from addr.
func Host(addr string) string {
	host, _ := splitHostPort(addr)
	return host
}

func splitHostPort(addr string) (string, string) {
	a := strings.TrimSpace(addr)
	if a == "" {
		return "", ""
	}

	// Fast path: "host:port" (IPv4 or bracketed IPv6).
	if h, p, err := net.SplitHostPort(a); err == nil {
		return h, p
	}

	// Bare IPv6 literal without port.
	if ip := net.ParseIP(strings.Trim(a, "[]")); ip != nil {
		return ip.String(), ""
	}

	// Handle unbracketed IPv6 "host:port" by peeling off the last ":port".
	if strings.Count(a, ":") > 1 && !strings.HasPrefix(a, "[") {
		if last := strings.LastIndexByte(a, ':'); last > 0 && last < len(a)-1 {
			host := a[:last]
			port := a[last+1:]
			if _, err := strconv.Atoi(port); err == nil {
				return host, port
			}
		}
	}

	if strings.Contains(a, ":") {
		return strings.Trim(a, "[]"), ""
	}
	return a, ""
}
