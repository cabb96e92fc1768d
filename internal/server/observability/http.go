// Copyright (c) 2026 TeamRadar Project. All rights reserved.
// Use of this source code is governed by the TeamRadar License
// that can be found in the LICENSE file.

package observability

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/teamradar-dev/teamradar/internal/server"
	"github.com/teamradar-dev/teamradar/internal/store"
)

// startTime registra quando o processo iniciou (para cálculo de uptime).
var startTime = time.Now()

// Version é preenchida via ldflags no build (-X ...Version=x.y.z).
var Version = "dev"

// MetricsSource define a interface read-only que o router precisa do
// StatsReporter. Desacopla o pacote observability do server.
type MetricsSource interface {
	Stats() server.Stats
}

// NewRouter cria o http.Handler da API administrativa, com a ACL
// aplicada em todas as rotas.
func NewRouter(metrics MetricsSource, st *store.Store, acl *ACL, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/health", handleHealth)
	mux.HandleFunc("GET /api/v1/metrics", makeMetricsHandler(metrics))
	mux.HandleFunc("GET /api/v1/users", makeUsersHandler(st, logger))
	mux.HandleFunc("GET /api/v1/events", makeEventsHandler(st, logger))
	mux.HandleFunc("GET /api/v1/export", makeExportHandler(st, logger))
	mux.HandleFunc("DELETE /api/v1/logs", makeClearHandler(st, logger))

	return acl.Middleware(mux)
}

// handleHealth retorna status do processo, uptime e versão.
func handleHealth(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(startTime)
	resp := map[string]interface{}{
		"status":  "ok",
		"uptime":  uptime.String(),
		"version": Version,
		"go":      runtime.Version(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func makeMetricsHandler(metrics MetricsSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := metrics.Stats()
		writeJSON(w, http.StatusOK, MetricsDTO{
			Connections:   s.Connections,
			FramesIn:      s.FramesIn,
			FramesOut:     s.FramesOut,
			BytesIn:       s.BytesIn,
			BytesOut:      s.BytesOut,
			CPUPercent:    s.CPUPercent,
			MemoryPercent: s.MemoryPercent,
			LoadAverage:   s.LoadAverage,
		})
	}
}

func makeUsersHandler(st *store.Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := st.AllUsers()
		if err != nil {
			logger.Error("listing users", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		dtos := make([]UserDTO, len(users))
		for i, u := range users {
			dtos[i] = UserDTO{
				Username: u.Username,
				Online:   u.Online,
				Color:    u.Color,
				Image:    u.Image,
				Project:  u.Project,
			}
		}
		writeJSON(w, http.StatusOK, dtos)
	}
}

// makeEventsHandler lista os eventos mais recentes do histórico.
// ?limit=N controla o tamanho da página (default 100).
func makeEventsHandler(st *store.Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 100
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = n
		}

		events, err := st.Recent(limit)
		if err != nil {
			logger.Error("listing events", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		dtos := make([]EventDTO, len(events))
		for i, e := range events {
			dtos[i] = EventDTO{
				Time:       e.TimeString(),
				User:       e.UserName,
				Event:      e.EventType,
				Parameters: e.Parameters,
			}
		}
		writeJSON(w, http.StatusOK, dtos)
	}
}

// makeExportHandler streama o histórico completo comprimido.
// ?format=gzip|zstd seleciona o compressor (default gzip).
func makeExportHandler(st *store.Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		format := r.URL.Query().Get("format")
		switch format {
		case "", server.ExportGzip:
			w.Header().Set("Content-Type", "application/gzip")
			w.Header().Set("Content-Disposition", `attachment; filename="teamradar-logs.txt.gz"`)
			format = server.ExportGzip
		case server.ExportZstd:
			w.Header().Set("Content-Type", "application/zstd")
			w.Header().Set("Content-Disposition", `attachment; filename="teamradar-logs.txt.zst"`)
		default:
			http.Error(w, "invalid format", http.StatusBadRequest)
			return
		}

		if err := server.ExportLogs(w, st, format); err != nil {
			// Headers já foram enviados; só resta registrar.
			logger.Error("exporting logs", "error", err)
		}
	}
}

// makeClearHandler apaga o histórico inteiro. Irreversível; protegido
// pela ACL como todo o resto da API.
func makeClearHandler(st *store.Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := st.Clear(); err != nil {
			logger.Error("clearing logs", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		logger.Info("event log cleared via admin api", "remote", r.RemoteAddr)
		w.WriteHeader(http.StatusNoContent)
	}
}

// writeJSON serializa v como JSON e envia com status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}
