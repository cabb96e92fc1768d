// Copyright (c) 2026 TeamRadar Project. All rights reserved.
// Use of this source code is governed by the TeamRadar License
// that can be found in the LICENSE file.

package server

import (
	"fmt"
	"io"
	"runtime"

	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"

	"github.com/teamradar-dev/teamradar/internal/store"
)

// Modos de compressão da exportação do histórico.
const (
	ExportGzip = "gzip"
	ExportZstd = "zstd"
)

// ExportLogs escreve a tabela Logs inteira em w, uma linha
// Time#Client#Event#Parameters terminada em CRLF por evento, em ordem
// cronológica, comprimida com o modo pedido.
func ExportLogs(w io.Writer, st *store.Store, mode string) error {
	compressor, err := newCompressor(w, mode)
	if err != nil {
		return err
	}

	err = st.EachRow(func(timeStr, client, eventType, parameters string) error {
		_, werr := fmt.Fprintf(compressor, "%s#%s#%s#%s\r\n",
			timeStr, client, eventType, parameters)
		return werr
	})
	if err != nil {
		compressor.Close()
		return fmt.Errorf("exporting logs: %w", err)
	}

	if err := compressor.Close(); err != nil {
		return fmt.Errorf("closing compressor: %w", err)
	}
	return nil
}

// newCompressor cria um io.WriteCloser de compressão com base no mode.
func newCompressor(w io.Writer, mode string) (io.WriteCloser, error) {
	switch mode {
	case ExportZstd:
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	case ExportGzip, "":
		gzWriter, err := pgzip.NewWriterLevel(w, pgzip.BestSpeed)
		if err != nil {
			return nil, fmt.Errorf("creating gzip writer: %w", err)
		}
		if err := gzWriter.SetConcurrency(1<<20, runtime.GOMAXPROCS(0)); err != nil {
			return nil, fmt.Errorf("configuring gzip concurrency: %w", err)
		}
		return gzWriter, nil
	default:
		return nil, fmt.Errorf("unknown export mode %q", mode)
	}
}
