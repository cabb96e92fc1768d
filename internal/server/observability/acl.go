// Copyright (c) 2026 TeamRadar Project. All rights reserved.
// Use of this source code is governed by the TeamRadar License
// that can be found in the LICENSE file.

// Package observability provê a API HTTP administrativa do
// teamradar-server: saúde, métricas, usuários, histórico e exportação.
package observability

import (
	"net"
	"net/http"
)

// ACL restringe a API administrativa por origem. Deny-by-default: só
// passa quem estiver contido em pelo menos um dos CIDRs configurados.
type ACL struct {
	allowed []*net.IPNet
}

// NewACL cria a ACL sobre os CIDRs já parseados da configuração
// (config.WebUIConfig.ParsedCIDRs).
func NewACL(cidrs []*net.IPNet) *ACL {
	return &ACL{allowed: cidrs}
}

// Middleware barra com 403 qualquer request cujo RemoteAddr não passe
// pela ACL; o resto segue para next.
func (a *ACL) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Allowed(r.RemoteAddr) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Allowed decide sobre um endereço host:port; um endereço sem porta é
// testado como IP puro.
func (a *ACL) Allowed(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}

	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	for _, n := range a.allowed {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}
