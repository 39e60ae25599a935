package utils

import (
	"net"
	"net/http"
	"strings"
)

// Pointer pointer
func Pointer[Value any](v Value) *Value {
	return &v
}

// GetIP get the client's ip address.
// X-Forwarded-For is read only when trustProxy is set, any client can send it.
func GetIP(r *http.Request, trustProxy bool) string {
	if xff := r.Header.Get("X-Forwarded-For"); trustProxy && xff != "" {
		ip := strings.TrimSpace(strings.Split(xff, ",")[0])
		if ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}

// GetUserAgent get the client's user-agent
func GetUserAgent(r *http.Request) string {
	return r.Header.Get("User-Agent")
}
