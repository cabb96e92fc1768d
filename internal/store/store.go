// Copyright (c) 2026 TeamRadar Project. All rights reserved.
// Use of this source code is governed by the TeamRadar License
// that can be found in the LICENSE file.

// Package store implementa a persistência do servidor em SQLite: a
// tabela Logs (histórico de eventos) e a tabela Users (presença, cor,
// foto e projeto de cada desenvolvedor).
package store

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS Logs (
	ID         INTEGER PRIMARY KEY AUTOINCREMENT,
	Time       TEXT NOT NULL,
	Client     TEXT NOT NULL,
	Event      TEXT NOT NULL,
	Parameters TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_logs_time   ON Logs(Time);
CREATE INDEX IF NOT EXISTS idx_logs_client ON Logs(Client);

CREATE TABLE IF NOT EXISTS Users (
	Username TEXT PRIMARY KEY,
	Online   BOOLEAN NOT NULL DEFAULT 0,
	Color    TEXT NOT NULL DEFAULT '',
	Image    TEXT NOT NULL DEFAULT '',
	Project  TEXT NOT NULL DEFAULT ''
);
`

// Store envolve a conexão SQLite compartilhada por EventStore e
// UserDirectory. O Hub é o único escritor; leituras são concorrentes.
type Store struct {
	db *sqlx.DB
}

// Open abre (ou cria) o banco em path e aplica o schema. busy_timeout
// evita SQLITE_BUSY em leituras concorrentes com o escritor único.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close fecha a conexão com o banco.
func (s *Store) Close() error {
	return s.db.Close()
}
