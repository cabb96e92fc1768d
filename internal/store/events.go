// Copyright (c) 2026 TeamRadar Project. All rights reserved.
// Use of this source code is governed by the TeamRadar License
// that can be found in the LICENSE file.

package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/teamradar-dev/teamradar/internal/event"
)

// ErrNoEvents indica uma consulta sobre uma tabela Logs vazia.
var ErrNoEvents = errors.New("store: no events recorded")

// Filter restringe uma consulta ao histórico. Campos vazios não
// filtram: Users/Types vazios casam com tudo, Start/End vazios deixam a
// janela de tempo aberta daquele lado.
type Filter struct {
	Users []string
	Types []string
	Start string // yyyy-MM-dd HH:mm:ss inclusivo
	End   string // yyyy-MM-dd HH:mm:ss inclusivo
}

type logRow struct {
	ID         int64  `db:"ID"`
	Time       string `db:"Time"`
	Client     string `db:"Client"`
	Event      string `db:"Event"`
	Parameters string `db:"Parameters"`
}

func (r logRow) toEvent() event.Event {
	return event.New(r.Client, r.Event, r.Parameters, r.Time)
}

// Append registra um evento na tabela Logs.
func (s *Store) Append(e event.Event) error {
	_, err := s.db.Exec(
		`INSERT INTO Logs (Time, Client, Event, Parameters) VALUES (?, ?, ?, ?)`,
		e.TimeString(), e.UserName, e.EventType, e.Parameters,
	)
	if err != nil {
		return fmt.Errorf("appending log row: %w", err)
	}
	return nil
}

// Query retorna os eventos que casam com o filtro, em ordem
// cronológica ascendente. O formato textual dos timestamps garante que
// a ordem lexicográfica da coluna Time seja a ordem temporal.
func (s *Store) Query(f Filter) ([]event.Event, error) {
	query := `SELECT ID, Time, Client, Event, Parameters FROM Logs WHERE 1=1`
	var args []interface{}

	if len(f.Users) > 0 {
		query += ` AND Client IN (?)`
		args = append(args, f.Users)
	}
	if len(f.Types) > 0 {
		query += ` AND Event IN (?)`
		args = append(args, f.Types)
	}
	if f.Start != "" {
		query += ` AND Time >= ?`
		args = append(args, f.Start)
	}
	if f.End != "" {
		query += ` AND Time <= ?`
		args = append(args, f.End)
	}
	query += ` ORDER BY Time ASC, ID ASC`

	query, expanded, err := sqlx.In(query, args...)
	if err != nil {
		return nil, fmt.Errorf("expanding query filter: %w", err)
	}

	var rows []logRow
	if err := s.db.Select(&rows, s.db.Rebind(query), expanded...); err != nil {
		return nil, fmt.Errorf("querying logs: %w", err)
	}

	events := make([]event.Event, len(rows))
	for i, r := range rows {
		events[i] = r.toEvent()
	}
	return events, nil
}

// TimeSpan retorna os timestamps mínimo e máximo da tabela Logs, ou
// ErrNoEvents quando ela está vazia.
func (s *Store) TimeSpan() (start, end string, err error) {
	var row struct {
		Min sql.NullString `db:"Min"`
		Max sql.NullString `db:"Max"`
	}
	err = s.db.Get(&row, `SELECT MIN(Time) AS Min, MAX(Time) AS Max FROM Logs`)
	if err != nil {
		return "", "", fmt.Errorf("querying time span: %w", err)
	}
	if !row.Min.Valid || !row.Max.Valid {
		return "", "", ErrNoEvents
	}
	return row.Min.String, row.Max.String, nil
}

// Recent retorna os n eventos mais recentes, em ordem ascendente.
func (s *Store) Recent(n int) ([]event.Event, error) {
	if n <= 0 {
		return nil, nil
	}
	var rows []logRow
	err := s.db.Select(&rows,
		`SELECT ID, Time, Client, Event, Parameters FROM
		   (SELECT * FROM Logs ORDER BY Time DESC, ID DESC LIMIT ?)
		 ORDER BY Time ASC, ID ASC`, n)
	if err != nil {
		return nil, fmt.Errorf("querying recent logs: %w", err)
	}

	events := make([]event.Event, len(rows))
	for i, r := range rows {
		events[i] = r.toEvent()
	}
	return events, nil
}

// Clear apaga todo o histórico. Exposto apenas à superfície
// administrativa.
func (s *Store) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM Logs`); err != nil {
		return fmt.Errorf("clearing logs: %w", err)
	}
	return nil
}

// PruneBefore remove linhas mais antigas que cutoff e retorna quantas
// foram apagadas. Usado pelo job de retenção.
func (s *Store) PruneBefore(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM Logs WHERE Time < ?`,
		cutoff.Format(event.TimeLayout))
	if err != nil {
		return 0, fmt.Errorf("pruning logs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting pruned rows: %w", err)
	}
	return n, nil
}

// EachRow percorre a tabela Logs inteira em ordem ascendente, chamando
// fn por linha. Usado pela exportação para não materializar o
// histórico completo em memória.
func (s *Store) EachRow(fn func(timeStr, client, eventType, parameters string) error) error {
	rows, err := s.db.Queryx(
		`SELECT Time, Client, Event, Parameters FROM Logs ORDER BY Time ASC, ID ASC`)
	if err != nil {
		return fmt.Errorf("scanning logs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r logRow
		if err := rows.StructScan(&r); err != nil {
			return fmt.Errorf("scanning log row: %w", err)
		}
		if err := fn(r.Time, r.Client, r.Event, r.Parameters); err != nil {
			return err
		}
	}
	return rows.Err()
}
