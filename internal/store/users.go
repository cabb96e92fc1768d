// Copyright (c) 2026 TeamRadar Project. All rights reserved.
// Use of this source code is governed by the TeamRadar License
// that can be found in the LICENSE file.

package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// DefaultColor é a cor atribuída a usuários que nunca registraram uma.
const DefaultColor = "#000000"

// User é uma linha da tabela Users.
type User struct {
	Username string `db:"Username"`
	Online   bool   `db:"Online"`
	Color    string `db:"Color"`
	Image    string `db:"Image"`
	Project  string `db:"Project"`
}

// Upsert garante que username existe na tabela Users, sem alterar os
// demais campos quando a linha já existe.
func (s *Store) Upsert(username string) error {
	_, err := s.db.Exec(
		`INSERT INTO Users (Username) VALUES (?) ON CONFLICT(Username) DO NOTHING`,
		username)
	if err != nil {
		return fmt.Errorf("upserting user %s: %w", username, err)
	}
	return nil
}

// SetOnline marca a presença de um usuário, criando a linha se preciso.
func (s *Store) SetOnline(username string, online bool) error {
	if err := s.Upsert(username); err != nil {
		return err
	}
	_, err := s.db.Exec(`UPDATE Users SET Online = ? WHERE Username = ?`,
		online, username)
	if err != nil {
		return fmt.Errorf("setting online for %s: %w", username, err)
	}
	return nil
}

// SetAllOffline zera a presença de todos os usuários. Chamado no boot:
// nenhuma conexão sobrevive a um restart do servidor.
func (s *Store) SetAllOffline() error {
	if _, err := s.db.Exec(`UPDATE Users SET Online = 0`); err != nil {
		return fmt.Errorf("resetting presence: %w", err)
	}
	return nil
}

// SetColor registra a cor de um usuário.
func (s *Store) SetColor(username, color string) error {
	if err := s.Upsert(username); err != nil {
		return err
	}
	_, err := s.db.Exec(`UPDATE Users SET Color = ? WHERE Username = ?`,
		color, username)
	if err != nil {
		return fmt.Errorf("setting color for %s: %w", username, err)
	}
	return nil
}

// SetImage registra o nome do arquivo de foto de um usuário.
func (s *Store) SetImage(username, image string) error {
	if err := s.Upsert(username); err != nil {
		return err
	}
	_, err := s.db.Exec(`UPDATE Users SET Image = ? WHERE Username = ?`,
		image, username)
	if err != nil {
		return fmt.Errorf("setting image for %s: %w", username, err)
	}
	return nil
}

// SetProject registra o projeto corrente de um usuário.
func (s *Store) SetProject(username, project string) error {
	if err := s.Upsert(username); err != nil {
		return err
	}
	_, err := s.db.Exec(`UPDATE Users SET Project = ? WHERE Username = ?`,
		project, username)
	if err != nil {
		return fmt.Errorf("setting project for %s: %w", username, err)
	}
	return nil
}

// Color retorna a cor registrada de um usuário, ou DefaultColor quando
// o usuário nunca registrou uma.
func (s *Store) Color(username string) (string, error) {
	var color string
	err := s.db.Get(&color, `SELECT Color FROM Users WHERE Username = ?`, username)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && color == "") {
		return DefaultColor, nil
	}
	if err != nil {
		return "", fmt.Errorf("querying color for %s: %w", username, err)
	}
	return color, nil
}

// Image retorna o nome do arquivo de foto registrado, ou "" se nenhum.
func (s *Store) Image(username string) (string, error) {
	var image string
	err := s.db.Get(&image, `SELECT Image FROM Users WHERE Username = ?`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("querying image for %s: %w", username, err)
	}
	return image, nil
}

// Project retorna o projeto corrente de um usuário, ou "" se nenhum.
func (s *Store) Project(username string) (string, error) {
	var project string
	err := s.db.Get(&project, `SELECT Project FROM Users WHERE Username = ?`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("querying project for %s: %w", username, err)
	}
	return project, nil
}

// ProjectMembers retorna os usuários registrados no projeto dado.
func (s *Store) ProjectMembers(project string) ([]string, error) {
	var members []string
	err := s.db.Select(&members,
		`SELECT Username FROM Users WHERE Project = ? ORDER BY Username`, project)
	if err != nil {
		return nil, fmt.Errorf("querying members of %s: %w", project, err)
	}
	return members, nil
}

// Projects retorna os projetos distintos não vazios da tabela Users.
func (s *Store) Projects() ([]string, error) {
	var projects []string
	err := s.db.Select(&projects,
		`SELECT DISTINCT Project FROM Users WHERE Project != '' ORDER BY Project`)
	if err != nil {
		return nil, fmt.Errorf("querying projects: %w", err)
	}
	return projects, nil
}

// Online retorna os usuários atualmente marcados como online.
func (s *Store) Online() ([]string, error) {
	var users []string
	err := s.db.Select(&users,
		`SELECT Username FROM Users WHERE Online = 1 ORDER BY Username`)
	if err != nil {
		return nil, fmt.Errorf("querying online users: %w", err)
	}
	return users, nil
}

// AllUsers retorna todas as linhas da tabela Users. Usado pela API de
// observabilidade.
func (s *Store) AllUsers() ([]User, error) {
	var users []User
	err := s.db.Select(&users,
		`SELECT Username, Online, Color, Image, Project FROM Users ORDER BY Username`)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	return users, nil
}
