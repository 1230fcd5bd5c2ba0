// Package infoblock codifica identidad + título en un bloque fijo de 64 bytes.
//
// El relleno usa el byte P-1 repetido P veces (P = 64 - len(info)). Nunca se
// quita: es solo un marco de longitud fija sobre el que se firma y se sella.
package infoblock

import (
	"errors"
	"fmt"
)

// Size es la longitud exacta de un bloque.
const Size = 64

// ErrInvalidInput se retorna cuando identidad + título exceden Size bytes.
var ErrInvalidInput = errors.New("infoblock: identity and title exceed 64 bytes")

// Block es el payload firmado.
type Block [Size]byte

// Encode construye el bloque para identity ++ title.
func Encode(identity, title string) (Block, error) {
	var b Block
	info := identity + title
	l := len(info)
	if l > Size {
		return b, fmt.Errorf("%w: got %d", ErrInvalidInput, l)
	}
	n := copy(b[:], info)
	pad := byte(Size - l - 1)
	for i := n; i < Size; i++ {
		b[i] = pad
	}
	return b, nil
}

// FromBytes toma los primeros Size bytes de p tal cual, sin interpretar el relleno.
func FromBytes(p []byte) (Block, error) {
	var b Block
	if len(p) < Size {
		return b, fmt.Errorf("infoblock: need %d bytes, got %d", Size, len(p))
	}
	copy(b[:], p[:Size])
	return b, nil
}

// Bytes retorna una copia del bloque como slice.
func (b Block) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, b[:])
	return out
}

// Info quita el relleno si es reconocible y retorna identity ++ title. Es
// solo para mostrar: un bloque de 64 bytes exactos cuyo final parezca
// relleno se recorta igual.
func (b Block) Info() string {
	p := int(b[Size-1]) + 1
	if p > Size {
		return string(b[:])
	}
	for i := Size - p; i < Size; i++ {
		if b[i] != byte(p-1) {
			return string(b[:])
		}
	}
	return string(b[:Size-p])
}
