// Copyright (c) 2026 TeamRadar Project. All rights reserved.
// Use of this source code is governed by the TeamRadar License
// that can be found in the LICENSE file.

// Package logging constrói o slog.Logger do teamradar-server a partir
// da seção de logging da configuração.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewLogger monta o logger do processo. format aceita "json" (default)
// e "text"; level aceita "debug", "info" (default), "warn" e "error".
// Com filePath não vazio os logs saem em stdout e no arquivo; o
// io.Closer retornado fecha o arquivo no shutdown (no-op sem arquivo).
func NewLogger(level, format, filePath string) (*slog.Logger, io.Closer) {
	w, closer := output(filePath)
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler), closer
}

// output resolve o destino dos logs. Um arquivo que não abre degrada
// para stdout com um aviso em stderr em vez de impedir o boot.
func output(filePath string) (io.Writer, io.Closer) {
	if filePath == "" {
		return os.Stdout, nopCloser{}
	}

	f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: could not open log file %q: %v (logging to stdout only)\n", filePath, err)
		return os.Stdout, nopCloser{}
	}
	return io.MultiWriter(os.Stdout, f), f
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
