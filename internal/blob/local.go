// Copyright (c) 2026 TeamRadar Project. All rights reserved.
// Use of this source code is governed by the TeamRadar License
// that can be found in the LICENSE file.

package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// maxNameLength é o comprimento máximo de um nome de foto.
const maxNameLength = 255

// Local grava fotos como arquivos num diretório raiz.
type Local struct {
	root string
}

// NewLocal cria o backend local, criando root se não existir.
func NewLocal(root string) (*Local, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating photo directory: %w", err)
	}
	return &Local{root: root}, nil
}

// ValidateName valida que name é seguro como componente de caminho.
// Previne path traversal a partir de nomes vindos do wire.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("photo name cannot be empty")
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("photo name exceeds max length %d", maxNameLength)
	}
	if strings.ContainsAny(name, "/\\") {
		return fmt.Errorf("photo name contains path separator")
	}
	if strings.ContainsRune(name, 0) {
		return fmt.Errorf("photo name contains null byte")
	}
	if name == "." || strings.HasPrefix(name, "..") {
		return fmt.Errorf("photo name contains path traversal")
	}
	return nil
}

func (l *Local) path(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return filepath.Join(l.root, name), nil
}

// Put grava a foto em disco, substituindo qualquer versão anterior.
func (l *Local) Put(_ context.Context, name string, data []byte) error {
	path, err := l.path(name)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing photo %s: %w", name, err)
	}
	return nil
}

// Get lê a foto do disco, ou ErrNotFound.
func (l *Local) Get(_ context.Context, name string) ([]byte, error) {
	path, err := l.path(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading photo %s: %w", name, err)
	}
	return data, nil
}

// Exists verifica se a foto está em disco.
func (l *Local) Exists(_ context.Context, name string) (bool, error) {
	path, err := l.path(name)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat photo %s: %w", name, err)
	}
	return true, nil
}
