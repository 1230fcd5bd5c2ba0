// Package signature firma y verifica bloques de información con ECDSA P-256
// sobre SHA-256. La firma viaja en el QR como hex de su forma DER (ASN.1).
package signature

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"
)

var (
	// ErrMalformed: la firma no es hex válido o no es un SEQUENCE{r,s} DER.
	ErrMalformed = errors.New("signature: malformed")
	// ErrMismatch: la firma está bien formada pero no corresponde al bloque/clave.
	ErrMismatch = errors.New("signature: mismatch")
)

// Signer firma con la clave privada del emisor.
type Signer struct {
	priv *ecdsa.PrivateKey
}

// NewSigner crea un Signer. La clave debe ser P-256.
func NewSigner(priv *ecdsa.PrivateKey) (*Signer, error) {
	if priv == nil {
		return nil, errors.New("signature: nil private key")
	}
	if err := checkCurve(&priv.PublicKey); err != nil {
		return nil, err
	}
	return &Signer{priv: priv}, nil
}

// Sign retorna la firma DER sobre sha256(data).
func (s *Signer) Sign(data []byte) ([]byte, error) {
	digest := sha256.Sum256(data)
	sig, err := ecdsa.SignASN1(rand.Reader, s.priv, digest[:])
	if err != nil {
		return nil, fmt.Errorf("ecdsa sign: %w", err)
	}
	return sig, nil
}

// SignHex es Sign codificado en hex minúscula.
func (s *Signer) SignHex(data []byte) (string, error) {
	sig, err := s.Sign(data)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(sig), nil
}

// Public retorna la clave pública asociada.
func (s *Signer) Public() *ecdsa.PublicKey { return &s.priv.PublicKey }

// Verifier verifica contra la clave pública del emisor.
type Verifier struct {
	pub *ecdsa.PublicKey
}

func NewVerifier(pub *ecdsa.PublicKey) (*Verifier, error) {
	if pub == nil {
		return nil, errors.New("signature: nil public key")
	}
	if err := checkCurve(pub); err != nil {
		return nil, err
	}
	return &Verifier{pub: pub}, nil
}

// Check distingue firma malformada de firma que no coincide.
func (v *Verifier) Check(data, sig []byte) error {
	r, s, err := parseDER(sig)
	if err != nil {
		return err
	}
	digest := sha256.Sum256(data)
	if !ecdsa.Verify(v.pub, digest[:], r, s) {
		return ErrMismatch
	}
	return nil
}

// CheckHex decodifica la firma hex (cualquier capitalización) y llama a Check.
func (v *Verifier) CheckHex(data []byte, sigHex string) error {
	sig, err := hex.DecodeString(strings.TrimSpace(sigHex))
	if err != nil || len(sig) == 0 {
		return ErrMalformed
	}
	return v.Check(data, sig)
}

// Verify nunca falla: cualquier problema es false.
func (v *Verifier) Verify(data, sig []byte) bool {
	return v.Check(data, sig) == nil
}

func (v *Verifier) VerifyHex(data []byte, sigHex string) bool {
	return v.CheckHex(data, sigHex) == nil
}

// parseDER exige exactamente SEQUENCE { INTEGER r, INTEGER s } sin bytes extra.
func parseDER(sig []byte) (*big.Int, *big.Int, error) {
	var (
		r, s  = new(big.Int), new(big.Int)
		inner cryptobyte.String
	)
	input := cryptobyte.String(sig)
	if !input.ReadASN1(&inner, asn1.SEQUENCE) ||
		!input.Empty() ||
		!inner.ReadASN1Integer(r) ||
		!inner.ReadASN1Integer(s) ||
		!inner.Empty() {
		return nil, nil, ErrMalformed
	}
	if r.Sign() <= 0 || s.Sign() <= 0 {
		return nil, nil, ErrMalformed
	}
	return r, s, nil
}
