// Copyright (c) 2026 TeamRadar Project. All rights reserved.
// Use of this source code is governed by the TeamRadar License
// that can be found in the LICENSE file.

package server

import "sync"

// Registry mapeia userName → Connection. Garante a unicidade de nomes
// no greeting: greetings concorrentes com o mesmo nome disputam o
// TryInsert e exatamente um vence.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*Connection
}

// NewRegistry cria um Registry vazio.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*Connection)}
}

// TryInsert registra name → conn atomicamente. Retorna false se o nome
// já está em uso.
func (r *Registry) TryInsert(name string, conn *Connection) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.conns[name]; taken {
		return false
	}
	r.conns[name] = conn
	return true
}

// Remove retira name do registro, mas só se ele ainda apontar para
// conn: uma conexão tardia não pode remover a substituta do mesmo nome.
func (r *Registry) Remove(name string, conn *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conns[name] == conn {
		delete(r.conns, name)
	}
}

// Rename troca a chave old por new. Retorna false se new já está em
// uso ou old não existe.
func (r *Registry) Rename(old, new string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn, ok := r.conns[old]
	if !ok {
		return false
	}
	if _, taken := r.conns[new]; taken {
		return false
	}
	delete(r.conns, old)
	r.conns[new] = conn
	return true
}

// Lookup retorna a conexão registrada sob name, ou nil.
func (r *Registry) Lookup(name string) *Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.conns[name]
}

// Contains responde se name está registrado.
func (r *Registry) Contains(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.conns[name]
	return ok
}

// Each chama fn para cada par (name, conn) sobre um snapshot do mapa:
// um broadcast enumera um estado consistente mesmo com inserts
// concorrentes.
func (r *Registry) Each(fn func(name string, conn *Connection)) {
	r.mu.RLock()
	snapshot := make(map[string]*Connection, len(r.conns))
	for name, conn := range r.conns {
		snapshot[name] = conn
	}
	r.mu.RUnlock()

	for name, conn := range snapshot {
		fn(name, conn)
	}
}

// Len retorna o número de conexões registradas.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
