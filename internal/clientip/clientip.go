// Package clientip resolves and anonymizes the address of the calling client.
package clientip

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"
)

// FromRequest returns the client IP of r without a port. It expects the
// chi RealIP middleware to have already rewritten RemoteAddr from the proxy
// headers.
func FromRequest(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

// Hash returns a truncated SHA-256 of ip. Raw addresses are never stored or
// used as cache keys.
func Hash(ip string) string {
	hash := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(hash[:8])
}
