// Copyright (c) 2026 TeamRadar Project. All rights reserved.
// Use of this source code is governed by the TeamRadar License
// that can be found in the LICENSE file.

package server

import (
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/teamradar-dev/teamradar/internal/store"
)

// Retention poda periodicamente o histórico de eventos via cron.
type Retention struct {
	cron    *cron.Cron
	logger  *slog.Logger
	store   *store.Store
	maxAge  time.Duration
	mu      sync.Mutex // garante apenas uma poda por vez
	running bool
}

// NewRetention cria o job de retenção com a expressão cron fornecida.
func NewRetention(schedule string, maxAge time.Duration, st *store.Store, logger *slog.Logger) (*Retention, error) {
	r := &Retention{
		logger: logger.With("component", "retention"),
		store:  st,
		maxAge: maxAge,
	}

	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(
		slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))
	if _, err := c.AddFunc(schedule, r.execute); err != nil {
		return nil, err
	}

	r.cron = c
	return r, nil
}

// Start inicia o job.
func (r *Retention) Start() {
	r.logger.Info("retention job started", "max_age", r.maxAge.String())
	r.cron.Start()
}

// Stop para o job e aguarda uma poda em andamento.
func (r *Retention) Stop() {
	<-r.cron.Stop().Done()
	r.logger.Info("retention job stopped")
}

func (r *Retention) execute() {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		r.logger.Warn("prune already running, skipping scheduled execution")
		return
	}
	r.running = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	cutoff := time.Now().Add(-r.maxAge)
	n, err := r.store.PruneBefore(cutoff)
	if err != nil {
		r.logger.Error("pruning event log", "error", err)
		return
	}
	r.logger.Info("event log pruned", "removed", n,
		"cutoff", cutoff.Format("2006-01-02 15:04:05"))
}
