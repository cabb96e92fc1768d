package protocol

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Compose serializa um frame: junta os bodies com '#' e prefixa com
// header e o tamanho em bytes do body resultante.
func Compose(header string, bodies ...[]byte) []byte {
	joined := bytes.Join(bodies, []byte{Delimiter1})

	var buf bytes.Buffer
	buf.Grow(len(header) + len(joined) + 16)
	buf.WriteString(header)
	buf.WriteByte(Delimiter)
	buf.WriteString(strconv.Itoa(len(joined)))
	buf.WriteByte(Delimiter)
	buf.Write(joined)
	return buf.Bytes()
}

// ComposeStrings é a variante de Compose para bodies em string.
func ComposeStrings(header string, bodies ...string) []byte {
	raw := make([][]byte, len(bodies))
	for i, b := range bodies {
		raw[i] = []byte(b)
	}
	return Compose(header, raw...)
}

// WriteFrame compõe e escreve um frame completo em w.
func WriteFrame(w io.Writer, header string, bodies ...[]byte) error {
	if _, err := w.Write(Compose(header, bodies...)); err != nil {
		return fmt.Errorf("writing %s frame: %w", header, err)
	}
	return nil
}

// SplitFields divide um body em até n subcampos pelo delimitador '#'.
// O último subcampo retém os '#' restantes (bodies binários como fotos
// carregam '#' livremente após o primeiro separador).
func SplitFields(body []byte, n int) [][]byte {
	return bytes.SplitN(body, []byte{Delimiter1}, n)
}

// JoinList junta itens com ';' (delimitador de nível 2).
func JoinList(items []string) []byte {
	return []byte(strings.Join(items, string(Delimiter2)))
}

// SplitList divide uma lista ';'-separada, descartando itens vazios.
func SplitList(raw []byte) []string {
	if len(raw) == 0 {
		return nil
	}
	var items []string
	for _, part := range bytes.Split(raw, []byte{Delimiter2}) {
		if len(part) > 0 {
			items = append(items, string(part))
		}
	}
	return items
}
