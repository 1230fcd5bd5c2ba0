package tsa

import (
	"bytes"
	"crypto"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/digitorus/pkcs7"
)

var (
	ErrMalformedToken = errors.New("tsa: malformed token")
	ErrDigestMismatch = errors.New("tsa: token does not cover data")
	ErrUntrusted      = errors.New("tsa: token chain not trusted")
)

// Verifier valida sellos contra una raíz fijada y certificados intermedios
// no confiables (por ejemplo el certificado de la propia TSA).
type Verifier struct {
	roots     *x509.CertPool
	untrusted []*x509.Certificate
}

func NewVerifier(roots, untrusted []*x509.Certificate) (*Verifier, error) {
	if len(roots) == 0 {
		return nil, errors.New("tsa: at least one trusted root is required")
	}
	pool := x509.NewCertPool()
	for _, c := range roots {
		pool.AddCert(c)
	}
	return &Verifier{roots: pool, untrusted: untrusted}, nil
}

// LoadVerifier lee los PEM de la CA (obligatorio) y de los intermedios (opcional).
func LoadVerifier(caFile, untrustedFile string) (*Verifier, error) {
	roots, err := LoadCertificates(caFile)
	if err != nil {
		return nil, err
	}
	var untrusted []*x509.Certificate
	if untrustedFile != "" {
		if untrusted, err = LoadCertificates(untrustedFile); err != nil {
			return nil, err
		}
	}
	return NewVerifier(roots, untrusted)
}

// LoadCertificates lee todos los bloques CERTIFICATE de un archivo PEM.
func LoadCertificates(path string) ([]*x509.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read certificates %q: %w", path, err)
	}
	var out []*x509.Certificate
	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		c, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parse certificate in %q: %w", path, err)
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no certificates found in %q", path)
	}
	return out, nil
}

// Result describe un sello verificado.
type Result struct {
	Time   time.Time
	Serial string
}

// Check verifica que token cubra data y que su firma encadene a una raíz.
func (v *Verifier) Check(data, token []byte) (*Result, error) {
	ts, err := parseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if ts.HashAlgorithm != crypto.SHA256 {
		return nil, fmt.Errorf("%w: hash algorithm %v", ErrDigestMismatch, ts.HashAlgorithm)
	}
	digest := sha256.Sum256(data)
	if !bytes.Equal(ts.HashedMessage, digest[:]) {
		return nil, ErrDigestMismatch
	}

	p7, err := pkcs7.Parse(ts.RawToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	p7.Certificates = append(p7.Certificates, v.untrusted...)
	if err := p7.VerifyWithChain(v.roots); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUntrusted, err)
	}

	res := &Result{Time: ts.Time}
	if ts.SerialNumber != nil {
		res.Serial = ts.SerialNumber.String()
	}
	return res, nil
}

// Verify es Check reducido a un booleano.
func (v *Verifier) Verify(data, token []byte) bool {
	_, err := v.Check(data, token)
	return err == nil
}

// Describe lee hora y serial de un sello SIN validar firma ni cadena. Solo
// para diagnóstico; nunca usar como verificación.
func Describe(token []byte) (*Result, error) {
	ts, err := parseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	res := &Result{Time: ts.Time}
	if ts.SerialNumber != nil {
		res.Serial = ts.SerialNumber.String()
	}
	return res, nil
}
