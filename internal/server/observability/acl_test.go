// Copyright (c) 2026 TeamRadar Project. All rights reserved.
// Use of this source code is governed by the TeamRadar License
// that can be found in the LICENSE file.

package observability

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
)

func mustCIDRs(t *testing.T, specs ...string) []*net.IPNet {
	t.Helper()
	nets := make([]*net.IPNet, 0, len(specs))
	for _, s := range specs {
		_, n, err := net.ParseCIDR(s)
		if err != nil {
			t.Fatalf("bad test CIDR %q: %v", s, err)
		}
		nets = append(nets, n)
	}
	return nets
}

func TestACL_Allowed(t *testing.T) {
	tests := []struct {
		name   string
		cidrs  []string
		remote string
		want   bool
	}{
		{"loopback in /32", []string{"127.0.0.1/32"}, "127.0.0.1:54321", true},
		{"loopback outside allowed net", []string{"10.0.0.0/8"}, "127.0.0.1:54321", false},
		{"host inside /8", []string{"10.0.0.0/8"}, "10.200.3.4:1234", true},
		{"host inside /24", []string{"192.168.1.0/24"}, "192.168.1.100:80", true},
		{"neighbor subnet denied", []string{"192.168.1.0/24"}, "192.168.2.1:80", false},
		{"second CIDR matches", []string{"10.0.0.0/8", "192.168.1.0/24"}, "192.168.1.50:80", true},
		{"ipv6 loopback in /128", []string{"::1/128"}, "[::1]:9848", true},
		{"empty list denies everyone", nil, "127.0.0.1:80", false},
		{"bare IP without port", []string{"127.0.0.1/32"}, "127.0.0.1", true},
		{"garbage remote denied", []string{"127.0.0.1/32"}, "not-an-ip", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acl := NewACL(mustCIDRs(t, tt.cidrs...))
			if got := acl.Allowed(tt.remote); got != tt.want {
				t.Errorf("Allowed(%q) = %v, want %v", tt.remote, got, tt.want)
			}
		})
	}
}

func TestACL_Middleware(t *testing.T) {
	acl := NewACL(mustCIDRs(t, "127.0.0.1/32"))
	handler := acl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	serve := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("GET", "/api/v1/health", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	if rec := serve("127.0.0.1:12345"); rec.Code != http.StatusOK {
		t.Errorf("allowed origin: expected 200, got %d", rec.Code)
	}
	if rec := serve("10.0.0.1:12345"); rec.Code != http.StatusForbidden {
		t.Errorf("denied origin: expected 403, got %d", rec.Code)
	}
}
