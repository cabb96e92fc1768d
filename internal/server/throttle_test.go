// Copyright (c) 2026 TeamRadar Project. All rights reserved.
// Use of this source code is governed by the TeamRadar License
// that can be found in the LICENSE file.

package server

import (
	"bytes"
	"testing"
	"time"
)

func TestThrottledWriter_ZeroBypasses(t *testing.T) {
	var buf bytes.Buffer
	done := make(chan struct{})
	defer close(done)

	w := newThrottledWriter(&buf, 0, done)

	// Quando write_rate=0, deve retornar o writer original (sem wrapper)
	if _, ok := w.(*throttledWriter); ok {
		t.Fatal("expected original writer (bypass), got throttledWriter")
	}

	data := []byte("hello world")
	n, err := w.Write(data)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != len(data) {
		t.Errorf("expected %d bytes written, got %d", len(data), n)
	}
	if buf.String() != "hello world" {
		t.Errorf("expected 'hello world', got %q", buf.String())
	}
}

func TestThrottledWriter_SmallWrites(t *testing.T) {
	var buf bytes.Buffer
	done := make(chan struct{})
	defer close(done)

	// 1 MB/s — frames pequenos devem passar sem bloquear significativamente
	w := newThrottledWriter(&buf, 1*1024*1024, done)

	data := []byte("small")
	for i := 0; i < 10; i++ {
		_, err := w.Write(data)
		if err != nil {
			t.Fatalf("Write %d: %v", i, err)
		}
	}

	if buf.Len() != 50 {
		t.Errorf("expected 50 bytes written, got %d", buf.Len())
	}
}

func TestThrottledWriter_RespectsRateLimit(t *testing.T) {
	var buf bytes.Buffer
	done := make(chan struct{})
	defer close(done)

	// Limite: 100 KB/s — burst é min(100KB, maxBurstSize=256KB) = 100KB
	// Escrevemos 400 KB: burst cobre ~100KB, restante ~300KB a 100KB/s = ~3s mínimo
	limit := int64(100 * 1024)
	w := newThrottledWriter(&buf, limit, done)

	data := make([]byte, 400*1024)
	for i := range data {
		data[i] = byte(i % 256)
	}

	start := time.Now()
	n, err := w.Write(data)
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != len(data) {
		t.Errorf("expected %d bytes written, got %d", len(data), n)
	}

	// Margem inferior de 2s para tolerância de CI
	minExpected := 2 * time.Second
	if elapsed < minExpected {
		t.Errorf("throttle too fast: wrote %d bytes in %v (limit=%d B/s, expected >= %v)",
			len(data), elapsed, limit, minExpected)
	}

	// Margem superior generosa para CI lento
	maxExpected := 8 * time.Second
	if elapsed > maxExpected {
		t.Errorf("throttle too slow: wrote %d bytes in %v (limit=%d B/s, expected <= %v)",
			len(data), elapsed, limit, maxExpected)
	}
}

func TestThrottledWriter_InterruptedByClose(t *testing.T) {
	var buf bytes.Buffer
	done := make(chan struct{})

	w := newThrottledWriter(&buf, 1024, done) // 1 KB/s — muito lento

	// Fecha o done enquanto escreve dados grandes
	go func() {
		time.Sleep(100 * time.Millisecond)
		close(done)
	}()

	data := make([]byte, 100*1024) // 100 KB @ 1 KB/s = ~100s sem interrupção
	_, err := w.Write(data)
	if err == nil {
		t.Fatal("expected error after close")
	}
}
