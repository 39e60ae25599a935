package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		trustProxy bool
		want       string
	}{
		{name: "remote addr", remoteAddr: "192.0.2.1:1234", want: "192.0.2.1"},
		{name: "ipv6 remote addr", remoteAddr: "[2001:db8::1]:443", want: "2001:db8::1"},
		{name: "forwarded", remoteAddr: "10.0.0.1:80", xff: "203.0.113.7, 10.0.0.1", trustProxy: true, want: "203.0.113.7"},
		{name: "forwarded not trusted", remoteAddr: "192.0.2.1:1234", xff: "203.0.113.7", want: "192.0.2.1"},
		{name: "empty forwarded", remoteAddr: "192.0.2.1:1234", xff: " ", trustProxy: true, want: "192.0.2.1"},
		{name: "no port", remoteAddr: "192.0.2.1", want: "192.0.2.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}

			assert.Equal(t, tt.want, GetIP(r, tt.trustProxy))
		})
	}
}
