// Copyright (c) 2026 TeamRadar Project. All rights reserved.
// Use of this source code is governed by the TeamRadar License
// that can be found in the LICENSE file.

// Package server implementa o servidor TeamRadar: listener TCP,
// conexões de clients, registro de nomes e o Hub de dispatch.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/teamradar-dev/teamradar/internal/config"
)

// Server aceita conexões TCP e entrega cada uma a uma Connection nova.
// Suporta rebind ao vivo: trocar o listener não afeta conexões ativas.
type Server struct {
	cfg      *config.ServerConfig
	logger   *slog.Logger
	hub      *Hub
	registry *Registry

	mu sync.Mutex
	ln net.Listener
}

// New cria o Server. O Hub deve estar rodando (Hub.Run) antes de
// qualquer conexão ser aceita.
func New(cfg *config.ServerConfig, hub *Hub, registry *Registry, logger *slog.Logger) *Server {
	return &Server{
		cfg:      cfg,
		logger:   logger,
		hub:      hub,
		registry: registry,
	}
}

// Run abre o listener no endereço configurado e bloqueia até o context
// ser cancelado.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Listen)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Server.Listen, err)
	}
	return s.RunWithListener(ctx, ln)
}

// RunWithListener roda o servidor sobre um listener já aberto (usado
// pelos testes).
func (s *Server) RunWithListener(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	s.logger.Info("server listening", "address", ln.Addr().String())

	go func() {
		<-ctx.Done()
		s.logger.Info("shutting down server")
		s.closeListener()
		// Derruba as conexões ativas; o Hub drena o inbox e sai.
		s.registry.Each(func(_ string, conn *Connection) {
			conn.Close()
		})
	}()

	for {
		s.mu.Lock()
		current := s.ln
		s.mu.Unlock()

		conn, err := current.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				s.logger.Info("server shutdown complete")
				return nil
			default:
			}

			// Um Accept que falha porque o Rebind trocou o listener
			// continua no listener novo; qualquer outro erro é transitório.
			s.mu.Lock()
			swapped := s.ln != current
			s.mu.Unlock()
			if swapped {
				continue
			}
			s.logger.Error("accepting connection", "error", err)
			continue
		}

		c := NewConnection(conn, s.hub, s.registry, s.logger,
			s.cfg.Limits.WriteQueue, s.cfg.Limits.WriteRate)
		go c.Run()
	}
}

// Rebind fecha o listener atual e passa a aceitar no endereço novo.
// Conexões existentes não são afetadas.
func (s *Server) Rebind(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("rebinding to %s: %w", addr, err)
	}

	s.mu.Lock()
	old := s.ln
	s.ln = ln
	s.mu.Unlock()

	if old != nil {
		old.Close()
	}
	s.logger.Info("listener rebound", "address", addr)
	return nil
}

// Addr retorna o endereço do listener corrente (vazio antes de Run).
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

func (s *Server) closeListener() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln != nil {
		s.ln.Close()
	}
}
