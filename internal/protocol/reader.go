package protocol

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"time"
)

// Framer faz o parse incremental de frames HEADER#LEN#BODY a partir de um
// byte stream. Cada Connection possui exatamente um Framer; o scratch buffer
// interno não é compartilhado.
//
// Quando a fonte é uma net.Conn, o Framer aplica um sliding read deadline:
// do primeiro byte do header até o último byte do body, algum progresso
// precisa ser observado a cada TransferTimeout. Entre frames a conexão pode
// ficar ociosa indefinidamente.
type Framer struct {
	br      *bufio.Reader
	conn    net.Conn // nil quando a fonte não suporta deadline (testes)
	timeout time.Duration
}

// NewFramer cria um Framer sobre r. Se r for uma net.Conn, deadlines de
// leitura são aplicados por frame.
func NewFramer(r io.Reader) *Framer {
	f := &Framer{
		br:      bufio.NewReaderSize(r, 64*1024),
		timeout: TransferTimeout,
	}
	if conn, ok := r.(net.Conn); ok {
		f.conn = conn
	}
	return f
}

// ReadFrame bloqueia até um frame completo estar disponível e o retorna.
// ErrUnknownHeader é recuperável: o token inválido já foi descartado e o
// caller pode chamar ReadFrame de novo. Qualquer outro erro é fatal para
// a conexão.
func (f *Framer) ReadFrame() (*Frame, error) {
	header, err := f.readToken(true)
	if err != nil {
		return nil, err
	}

	if !KnownInbound(header) && !KnownOutbound(header) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownHeader, header)
	}

	length, err := f.readLength()
	if err != nil {
		return nil, err
	}

	body, err := f.readBody(length)
	if err != nil {
		return nil, err
	}

	f.clearDeadline()
	return &Frame{Header: header, Body: body}, nil
}

// readToken lê bytes um a um até o delimitador '#', limitado a
// MaxBufferSize. Overflow sem delimitador é um erro de framing.
// Se firstOfFrame, o primeiro byte é lido sem deadline (espera ociosa
// por um novo frame); a partir dele o sliding deadline é aplicado.
func (f *Framer) readToken(firstOfFrame bool) (string, error) {
	var buf []byte
	for {
		if len(buf) == 0 && firstOfFrame {
			f.clearDeadline()
		} else {
			f.touchDeadline()
		}

		b, err := f.br.ReadByte()
		if err != nil {
			return "", err
		}
		if b == Delimiter {
			return string(buf), nil
		}

		buf = append(buf, b)
		if len(buf) >= MaxBufferSize {
			return "", fmt.Errorf("%w: token exceeds %d bytes without delimiter", ErrFraming, MaxBufferSize)
		}
	}
}

// readLength lê e valida o campo LEN.
func (f *Framer) readLength() (int, error) {
	token, err := f.readToken(false)
	if err != nil {
		return 0, err
	}

	length, err := parseLength(token)
	if err != nil {
		return 0, err
	}
	return length, nil
}

// parseLength converte o token decimal de LEN, rejeitando não-dígitos,
// campo vazio e valores acima de MaxBufferSize.
func parseLength(token string) (int, error) {
	if token == "" {
		return 0, fmt.Errorf("%w: empty length field", ErrFraming)
	}
	n := 0
	for _, c := range token {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%w: invalid length %q", ErrFraming, token)
		}
		n = n*10 + int(c-'0')
		if n > MaxBufferSize {
			return 0, fmt.Errorf("%w: length %s exceeds %d", ErrFraming, token, MaxBufferSize)
		}
	}
	return n, nil
}

// readBody lê exatamente length bytes, renovando o deadline a cada
// leitura parcial bem-sucedida.
func (f *Framer) readBody(length int) ([]byte, error) {
	body := make([]byte, length)
	read := 0
	for read < length {
		f.touchDeadline()
		n, err := f.br.Read(body[read:])
		read += n
		if err != nil {
			if err == io.EOF {
				return nil, fmt.Errorf("%w: body truncated at %d of %d bytes", ErrFraming, read, length)
			}
			return nil, err
		}
	}
	return body, nil
}

func (f *Framer) touchDeadline() {
	if f.conn != nil {
		f.conn.SetReadDeadline(time.Now().Add(f.timeout))
	}
}

func (f *Framer) clearDeadline() {
	if f.conn != nil {
		f.conn.SetReadDeadline(time.Time{})
	}
}
