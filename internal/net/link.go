package net

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Scheme prefixes share links, e.g. localsketch://192.168.1.20:8888.
const Scheme = "localsketch://"

// ErrNoHost means a link or a discovery round did not name a host.
var ErrNoHost = errors.New("no host")

// ShareLink builds the link a host hands to its peers.
func ShareLink(host string, port int) string {
	return Scheme + net.JoinHostPort(host, strconv.Itoa(port))
}

// IsLink reports whether arg looks like a share link.
func IsLink(arg string) bool {
	return strings.HasPrefix(arg, Scheme)
}

// ParseLink returns the host:port named by link. A bare scheme yields
// ErrNoHost, which callers treat as "discover one".
func ParseLink(link string) (string, error) {
	if !IsLink(link) {
		return "", fmt.Errorf("parse link %q: missing %s", link, Scheme)
	}
	addr := strings.TrimSuffix(strings.TrimPrefix(link, Scheme), "/")
	if addr == "" {
		return "", ErrNoHost
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return "", fmt.Errorf("parse link %q: %w", link, err)
	}
	return addr, nil
}

// GestureURL is the websocket endpoint of the host at addr.
func GestureURL(addr string) string {
	return "ws://" + addr + GesturePath
}
