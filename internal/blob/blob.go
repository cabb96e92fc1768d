// Copyright (c) 2026 TeamRadar Project. All rights reserved.
// Use of this source code is governed by the TeamRadar License
// that can be found in the LICENSE file.

// Package blob armazena as fotos dos desenvolvedores. Dois backends:
// diretório local (default) e S3.
package blob

import (
	"context"
	"errors"
)

// ErrNotFound indica que a foto pedida não existe no backend.
var ErrNotFound = errors.New("blob: not found")

// Store é a interface de armazenamento de fotos. name é o nome lógico
// do arquivo (ex.: "alice.png"), já validado pelo chamador.
type Store interface {
	Put(ctx context.Context, name string, data []byte) error
	Get(ctx context.Context, name string) ([]byte, error)
	Exists(ctx context.Context, name string) (bool, error)
}
