package signature

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/dropDatabas3/hellocert/internal/util/atomicwrite"
)

func checkCurve(pub *ecdsa.PublicKey) error {
	if pub.Curve != elliptic.P256() {
		return fmt.Errorf("signature: key must be ECDSA P-256, got %s", pub.Curve.Params().Name)
	}
	return nil
}

// LoadPrivateKey lee una clave PEM "EC PRIVATE KEY" (SEC1) o "PRIVATE KEY" (PKCS#8).
func LoadPrivateKey(path string) (*ecdsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading signing key %q: %w", path, err)
	}
	return ParsePrivateKeyPEM(data)
}

func ParsePrivateKeyPEM(data []byte) (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("signing key: no PEM block found")
	}
	var key *ecdsa.PrivateKey
	switch block.Type {
	case "EC PRIVATE KEY":
		k, err := x509.ParseECPrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("signing key: %w", err)
		}
		key = k
	case "PRIVATE KEY":
		parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("signing key: %w", err)
		}
		k, ok := parsed.(*ecdsa.PrivateKey)
		if !ok {
			return nil, errors.New("signing key: must be ECDSA P-256")
		}
		key = k
	default:
		return nil, fmt.Errorf("signing key: unsupported PEM type %q", block.Type)
	}
	if err := checkCurve(&key.PublicKey); err != nil {
		return nil, err
	}
	return key, nil
}

// LoadPublicKey lee una clave pública PEM "PUBLIC KEY" (PKIX).
func LoadPublicKey(path string) (*ecdsa.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading public key %q: %w", path, err)
	}
	block, _ := pem.Decode(data)
	if block == nil || block.Type != "PUBLIC KEY" {
		return nil, fmt.Errorf("public key %q: no PUBLIC KEY block found", path)
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("public key %q: %w", path, err)
	}
	pub, ok := parsed.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("public key %q: must be ECDSA", path)
	}
	if err := checkCurve(pub); err != nil {
		return nil, err
	}
	return pub, nil
}

// GenerateKeyPair genera una clave P-256 y la escribe en privPath (0600) y,
// si pubPath no es vacío, la pública en pubPath (0644).
func GenerateKeyPair(privPath, pubPath string) (*ecdsa.PrivateKey, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	privDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("marshal private key: %w", err)
	}
	if err := atomicwrite.WriteFile(privPath, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: privDER}), 0o600); err != nil {
		return nil, err
	}
	if pubPath != "" {
		if err := WritePublicKey(pubPath, &key.PublicKey); err != nil {
			return nil, err
		}
	}
	return key, nil
}

func WritePublicKey(path string, pub *ecdsa.PublicKey) error {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return fmt.Errorf("marshal public key: %w", err)
	}
	return atomicwrite.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), 0o644)
}

// EnsureKey carga la clave de privPath; si no existe y autoGenerate está
// activo, genera un par nuevo.
func EnsureKey(privPath, pubPath string, autoGenerate bool) (key *ecdsa.PrivateKey, generated bool, err error) {
	key, err = LoadPrivateKey(privPath)
	if err == nil {
		return key, false, nil
	}
	if !autoGenerate || !errors.Is(err, fs.ErrNotExist) {
		return nil, false, err
	}
	key, err = GenerateKeyPair(privPath, pubPath)
	if err != nil {
		return nil, false, err
	}
	return key, true, nil
}
