package certificate

import (
	"crypto/sha256"
	"encoding/hex"
)

// RequesterKey es sha256(addr) en hex: la única clave de los artefactos.
func RequesterKey(addr string) string {
	sum := sha256.Sum256([]byte(addr))
	return hex.EncodeToString(sum[:])
}
