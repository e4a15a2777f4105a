package middleware

import (
	"net"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/attendant/logger"
)

// ClientIPKey is the request context key the resolved client IP is stored
// under.
const ClientIPKey = "client_ip"

// ResolveClientIP determines the client identity for admission control. The
// connecting peer's address is authoritative. X-Forwarded-For is honored only
// when the peer is a trusted proxy; the left-most entry then names the
// original client. A forwarded header from an untrusted peer is logged and
// ignored.
func ResolveClientIP(c *gin.Context, trustedProxies []string) string {
	peer := peerIP(c.Request.RemoteAddr)

	forwarded := c.GetHeader("X-Forwarded-For")
	if forwarded == "" {
		return peer
	}

	if !isTrustedProxy(peer, trustedProxies) {
		logger.Warn("Ignoring forwarded header from untrusted peer", map[string]interface{}{
			"peer": peer,
			"path": c.Request.URL.Path,
		})
		return peer
	}

	first := forwarded
	if idx := strings.IndexByte(forwarded, ','); idx != -1 {
		first = forwarded[:idx]
	}
	if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
		return ip.String()
	}
	return peer
}

// ClientIPFromContext returns the client IP recorded by the rate limit
// middleware, or the empty string when none was recorded.
func ClientIPFromContext(c *gin.Context) string {
	if v, ok := c.Get(ClientIPKey); ok {
		if ip, ok := v.(string); ok {
			return ip
		}
	}
	return ""
}

// peerIP strips the port from a RemoteAddr, falling back to the raw value
// when it carries none.
func peerIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

// isTrustedProxy reports whether ip matches a trusted proxy entry. Entries
// may be single addresses or CIDR ranges.
func isTrustedProxy(ip string, trusted []string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}

	for _, entry := range trusted {
		if strings.Contains(entry, "/") {
			if _, network, err := net.ParseCIDR(entry); err == nil && network.Contains(parsed) {
				return true
			}
			continue
		}
		if trustedIP := net.ParseIP(entry); trustedIP != nil && trustedIP.Equal(parsed) {
			return true
		}
	}
	return false
}
