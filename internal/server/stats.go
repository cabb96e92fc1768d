// Copyright (c) 2026 TeamRadar Project. All rights reserved.
// Use of this source code is governed by the TeamRadar License
// that can be found in the LICENSE file.

package server

import (
	"log/slog"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// Stats é um snapshot dos contadores do servidor e do sistema.
type Stats struct {
	Connections   int
	FramesIn      int64
	FramesOut     int64
	BytesIn       int64
	BytesOut      int64
	CPUPercent    float64
	MemoryPercent float64
	LoadAverage   float64
}

// StatsReporter coleta métricas periodicamente e as emite como uma
// linha de log estruturada.
type StatsReporter struct {
	logger   *slog.Logger
	hub      *Hub
	registry *Registry
	interval time.Duration
	close    chan struct{}
	wg       sync.WaitGroup
	stats    Stats
	mu       sync.RWMutex
}

// NewStatsReporter cria o reporter sobre os contadores do Hub.
func NewStatsReporter(hub *Hub, registry *Registry, interval time.Duration, logger *slog.Logger) *StatsReporter {
	return &StatsReporter{
		logger:   logger.With("component", "stats"),
		hub:      hub,
		registry: registry,
		interval: interval,
		close:    make(chan struct{}),
	}
}

// Start inicia a coleta periódica.
func (sr *StatsReporter) Start() {
	sr.wg.Add(1)
	go sr.run()
}

// Stop para o reporter.
func (sr *StatsReporter) Stop() {
	close(sr.close)
	sr.wg.Wait()
}

// Stats retorna o último snapshot coletado.
func (sr *StatsReporter) Stats() Stats {
	sr.mu.RLock()
	defer sr.mu.RUnlock()
	return sr.stats
}

func (sr *StatsReporter) run() {
	defer sr.wg.Done()

	ticker := time.NewTicker(sr.interval)
	defer ticker.Stop()

	sr.collect()

	for {
		select {
		case <-sr.close:
			return
		case <-ticker.C:
			sr.collect()
		}
	}
}

func (sr *StatsReporter) collect() {
	framesIn, framesOut, bytesIn, bytesOut := sr.hub.Counters()
	stats := Stats{
		Connections: sr.registry.Len(),
		FramesIn:    framesIn,
		FramesOut:   framesOut,
		BytesIn:     bytesIn,
		BytesOut:    bytesOut,
	}

	if percentage, err := cpu.Percent(0, false); err == nil && len(percentage) > 0 {
		stats.CPUPercent = percentage[0]
	} else {
		sr.logger.Debug("failed to collect cpu stats", "error", err)
	}

	if v, err := mem.VirtualMemory(); err == nil {
		stats.MemoryPercent = v.UsedPercent
	} else {
		sr.logger.Debug("failed to collect memory stats", "error", err)
	}

	if l, err := load.Avg(); err == nil {
		stats.LoadAverage = l.Load1
	} else {
		sr.logger.Debug("failed to collect load stats", "error", err)
	}

	sr.mu.Lock()
	sr.stats = stats
	sr.mu.Unlock()

	sr.logger.Info("server stats",
		"connections", stats.Connections,
		"frames_in", stats.FramesIn,
		"frames_out", stats.FramesOut,
		"bytes_in", stats.BytesIn,
		"bytes_out", stats.BytesOut,
		"cpu_percent", stats.CPUPercent,
		"memory_percent", stats.MemoryPercent,
		"load_avg", stats.LoadAverage)
}
