package certificate

import (
	"encoding/hex"
	"fmt"

	"github.com/dropDatabas3/hellocert/internal/infoblock"
)

// EncodePayload arma el texto oculto: hex(bloque ++ sello).
func EncodePayload(block infoblock.Block, token []byte) string {
	return hex.EncodeToString(append(block.Bytes(), token...))
}

// SplitPayload separa los bytes decodificados del payload: los primeros 64
// son el bloque y el resto el sello, que no puede estar vacío.
func SplitPayload(raw []byte) (infoblock.Block, []byte, error) {
	if len(raw) <= infoblock.Size {
		return infoblock.Block{}, nil, fmt.Errorf("payload of %d bytes has no timestamp token", len(raw))
	}
	block, err := infoblock.FromBytes(raw)
	if err != nil {
		return infoblock.Block{}, nil, err
	}
	return block, raw[infoblock.Size:], nil
}
