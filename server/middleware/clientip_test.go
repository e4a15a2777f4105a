package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/attendant/server/middleware"
)

func newIPContext(t *testing.T, remoteAddr, forwarded string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	req := httptest.NewRequest("GET", "/api/v1/chat", http.NoBody)
	req.RemoteAddr = remoteAddr
	if forwarded != "" {
		req.Header.Set("X-Forwarded-For", forwarded)
	}
	c.Request = req
	return c
}

func TestResolveClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		trusted    []string
		want       string
	}{
		{
			name:       "no forwarded header uses peer",
			remoteAddr: "203.0.113.7:9000",
			want:       "203.0.113.7",
		},
		{
			name:       "untrusted peer ignores forwarded header",
			remoteAddr: "203.0.113.7:9000",
			forwarded:  "198.51.100.9",
			trusted:    []string{"10.0.0.1"},
			want:       "203.0.113.7",
		},
		{
			name:       "forwarded header ignored with no trusted proxies",
			remoteAddr: "203.0.113.7:9000",
			forwarded:  "198.51.100.9",
			want:       "203.0.113.7",
		},
		{
			name:       "trusted peer honors forwarded header",
			remoteAddr: "10.0.0.1:4433",
			forwarded:  "198.51.100.9",
			trusted:    []string{"10.0.0.1"},
			want:       "198.51.100.9",
		},
		{
			name:       "left-most entry names the client",
			remoteAddr: "10.0.0.1:4433",
			forwarded:  "198.51.100.9, 10.0.0.2, 10.0.0.1",
			trusted:    []string{"10.0.0.1"},
			want:       "198.51.100.9",
		},
		{
			name:       "entries are trimmed",
			remoteAddr: "10.0.0.1:4433",
			forwarded:  "  198.51.100.9 , 10.0.0.2",
			trusted:    []string{"10.0.0.1"},
			want:       "198.51.100.9",
		},
		{
			name:       "cidr trust entry matches the peer",
			remoteAddr: "10.1.2.3:555",
			forwarded:  "198.51.100.9",
			trusted:    []string{"10.0.0.0/8"},
			want:       "198.51.100.9",
		},
		{
			name:       "peer outside cidr stays untrusted",
			remoteAddr: "192.0.2.44:555",
			forwarded:  "198.51.100.9",
			trusted:    []string{"10.0.0.0/8"},
			want:       "192.0.2.44",
		},
		{
			name:       "unparseable forwarded entry falls back to peer",
			remoteAddr: "10.0.0.1:4433",
			forwarded:  "not-an-address",
			trusted:    []string{"10.0.0.1"},
			want:       "10.0.0.1",
		},
		{
			name:       "remote addr without port",
			remoteAddr: "203.0.113.7",
			want:       "203.0.113.7",
		},
		{
			name:       "ipv6 loopback peer",
			remoteAddr: "[::1]:8080",
			forwarded:  "198.51.100.9",
			trusted:    []string{"::1"},
			want:       "198.51.100.9",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newIPContext(t, tc.remoteAddr, tc.forwarded)
			got := middleware.ResolveClientIP(c, tc.trusted)
			if got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestClientIPFromContext(t *testing.T) {
	c := newIPContext(t, "203.0.113.7:9000", "")
	if got := middleware.ClientIPFromContext(c); got != "" {
		t.Errorf("expected empty string before recording, got %q", got)
	}

	c.Set(middleware.ClientIPKey, "203.0.113.7")
	if got := middleware.ClientIPFromContext(c); got != "203.0.113.7" {
		t.Errorf("expected recorded IP, got %q", got)
	}
}
