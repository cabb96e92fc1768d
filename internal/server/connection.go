// Copyright (c) 2026 TeamRadar Project. All rights reserved.
// Use of this source code is governed by the TeamRadar License
// that can be found in the LICENSE file.

package server

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teamradar-dev/teamradar/internal/protocol"
)

// Estados de uma conexão.
const (
	StateWaitingGreeting int32 = iota
	StateReadingGreeting
	StateReady
	StateClosed
)

// writeDeadline limita cada escrita na conexão; um peer que não drena
// seu socket por esse tempo é tratado como morto.
const writeDeadline = 30 * time.Second

// Connection é um peer conectado. Uma goroutine de leitura (Run) e uma
// de escrita (writeLoop) por conexão; todo o resto passa pelo Hub.
type Connection struct {
	conn     net.Conn
	framer   *protocol.Framer
	logger   *slog.Logger
	hub      *Hub
	registry *Registry

	userName string
	state    atomic.Int32

	out       chan []byte
	done      chan struct{}
	closeOnce sync.Once
	writeRate int64 // bytes/s; 0 = sem throttle
}

// NewConnection cria a conexão sobre um socket aceito. queueSize limita
// a fila de escrita; writeRate limita a vazão de saída (0 desliga).
func NewConnection(conn net.Conn, hub *Hub, registry *Registry, logger *slog.Logger, queueSize int, writeRate int64) *Connection {
	if queueSize <= 0 {
		queueSize = 256
	}
	c := &Connection{
		conn:      conn,
		framer:    protocol.NewFramer(conn),
		logger:    logger.With("remote", conn.RemoteAddr().String()),
		hub:       hub,
		registry:  registry,
		out:       make(chan []byte, queueSize),
		done:      make(chan struct{}),
		writeRate: writeRate,
	}
	c.state.Store(StateWaitingGreeting)
	return c
}

// UserName retorna o nome vinculado no greeting ("" antes de Ready).
func (c *Connection) UserName() string {
	return c.userName
}

// Ready responde se a conexão completou o handshake.
func (c *Connection) Ready() bool {
	return c.state.Load() == StateReady
}

// Run executa o ciclo de vida completo da conexão: handshake, loop de
// leitura e teardown. Bloqueia até a conexão terminar.
func (c *Connection) Run() {
	go c.writeLoop()
	defer c.Close()

	if !c.handshake() {
		return
	}

	c.hub.Connected(c)
	defer c.hub.Disconnected(c)

	c.readLoop()
}

// handshake lê o primeiro frame, que deve ser um GREETING com o nome
// candidato, e disputa o nome no Registry. Retorna true se a conexão
// chegou a Ready.
func (c *Connection) handshake() bool {
	fr, err := c.framer.ReadFrame()
	if err != nil {
		c.logger.Warn("greeting failed", "error", err)
		return false
	}
	if fr.Header != protocol.TagGreeting {
		c.logger.Warn("first frame is not a greeting", "header", fr.Header)
		return false
	}

	c.state.Store(StateReadingGreeting)
	name := string(fr.Body)
	if name == "" || !c.registry.TryInsert(name, c) {
		// Resposta direta: o guard de Ready não vale para replies de
		// greeting.
		c.logger.Info("greeting rejected", "user", name)
		c.writeDirect(protocol.ComposeStrings(protocol.TagGreeting, protocol.GreetingWrong))
		return false
	}

	c.userName = name
	c.state.Store(StateReady)
	c.enqueue(protocol.ComposeStrings(protocol.TagGreeting, protocol.GreetingOK))
	c.logger.Info("user connected", "user", name)
	return true
}

// readLoop entrega frames ao Hub na ordem de chegada até a conexão
// morrer. Headers desconhecidos são descartados sem derrubar o peer.
func (c *Connection) readLoop() {
	for {
		fr, err := c.framer.ReadFrame()
		if errors.Is(err, protocol.ErrUnknownHeader) {
			c.logger.Warn("dropping unknown header", "user", c.userName)
			continue
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && c.state.Load() != StateClosed {
				c.logger.Warn("connection read failed", "user", c.userName, "error", err)
			}
			return
		}

		// Liveness é resolvido aqui mesmo; todo o resto vai ao Hub.
		if fr.Header == protocol.TagPing {
			c.Send(protocol.TagPong)
			continue
		}
		if fr.Header == protocol.TagPong {
			continue
		}

		c.hub.Dispatch(c, *fr)
	}
}

// Send compõe e enfileira um frame. No-op fora do estado Ready.
func (c *Connection) Send(header string, bodies ...[]byte) {
	if c.state.Load() != StateReady {
		return
	}
	c.enqueue(protocol.Compose(header, bodies...))
}

// SendStrings é a variante de Send para bodies em string.
func (c *Connection) SendStrings(header string, bodies ...string) {
	raw := make([][]byte, len(bodies))
	for i, b := range bodies {
		raw[i] = []byte(b)
	}
	c.Send(header, raw...)
}

// enqueue posta o frame na fila de escrita. Fila cheia significa um
// slow consumer: a política é derrubar a conexão.
func (c *Connection) enqueue(frame []byte) {
	select {
	case c.out <- frame:
	case <-c.done:
	default:
		c.logger.Warn("write queue full, dropping slow consumer", "user", c.userName)
		c.Close()
	}
}

// writeLoop drena a fila de escrita para o socket. Escritas enfileiradas
// quando a conexão morre são descartadas.
func (c *Connection) writeLoop() {
	var dest io.Writer = c.conn
	if c.writeRate > 0 {
		dest = newThrottledWriter(c.conn, c.writeRate, c.done)
	}

	for {
		select {
		case frame := <-c.out:
			c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if _, err := dest.Write(frame); err != nil {
				if c.state.Load() != StateClosed {
					c.logger.Warn("connection write failed", "user", c.userName, "error", err)
				}
				c.Close()
				return
			}
			c.hub.countFrameOut(len(frame))
		case <-c.done:
			return
		}
	}
}

// writeDirect escreve um frame fora da fila, usado apenas na recusa do
// greeting antes de a conexão chegar a Ready.
func (c *Connection) writeDirect(frame []byte) {
	c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	c.conn.Write(frame)
}

// Close encerra a conexão. Idempotente; pode ser chamada de qualquer
// goroutine.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		c.state.Store(StateClosed)
		close(c.done)
		c.conn.Close()
	})
}
