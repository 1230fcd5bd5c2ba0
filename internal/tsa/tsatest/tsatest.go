// Package tsatest levanta una TSA RFC3161 en proceso para tests.
package tsatest

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/pem"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/digitorus/timestamp"
)

// Mode controla cómo responde el servidor.
type Mode int32

const (
	ModeOK   Mode = iota
	ModeFail      // 503
	ModeHang      // no responde hasta que el cliente cancele
)

// Server es una TSA de prueba con su propia CA.
type Server struct {
	URL string

	CA      *x509.Certificate
	TSACert *x509.Certificate

	srv    *httptest.Server
	key    *ecdsa.PrivateKey
	mode  atomic.Int32
	calls atomic.Int64

	stopOnce sync.Once
	stop     chan struct{}
}

// New arranca el servidor; se cierra con t.Cleanup.
func New(t testing.TB) *Server {
	t.Helper()
	ca, caKey := newCA(t, "hellocert test root")
	tsaCert, tsaKey := newLeaf(t, ca, caKey, "hellocert test tsa")

	s := &Server{CA: ca, TSACert: tsaCert, key: tsaKey, stop: make(chan struct{})}
	s.srv = httptest.NewServer(http.HandlerFunc(s.handle))
	s.URL = s.srv.URL
	t.Cleanup(s.Close)
	return s
}

func (s *Server) SetMode(m Mode) { s.mode.Store(int32(m)) }

// Calls retorna cuántas solicitudes recibió.
func (s *Server) Calls() int64 { return s.calls.Load() }

func (s *Server) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
	s.srv.Close()
}

// WriteTrust escribe la CA y el certificado de la TSA como PEM en dir.
func (s *Server) WriteTrust(t testing.TB, dir string) (caFile, untrustedFile string) {
	t.Helper()
	caFile = filepath.Join(dir, "cacert.pem")
	untrustedFile = filepath.Join(dir, "tsa.crt")
	writePEM(t, caFile, s.CA)
	writePEM(t, untrustedFile, s.TSACert)
	return caFile, untrustedFile
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.calls.Add(1)
	switch Mode(s.mode.Load()) {
	case ModeFail:
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	case ModeHang:
		select {
		case <-r.Context().Done():
		case <-s.stop:
		}
		return
	}

	if r.Header.Get("Content-Type") != "application/timestamp-query" {
		http.Error(w, "bad content type", http.StatusUnsupportedMediaType)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	req, err := timestamp.ParseRequest(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ts := timestamp.Timestamp{
		HashAlgorithm:     req.HashAlgorithm,
		HashedMessage:     req.HashedMessage,
		Time:              time.Now().UTC(),
		Nonce:             req.Nonce,
		Policy:            asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 99999, 1},
		Accuracy:          time.Second,
		AddTSACertificate: req.Certificates,
	}
	resp, err := ts.CreateResponse(s.TSACert, s.key)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/timestamp-reply")
	_, _ = w.Write(resp)
}

// NewCA genera una CA autofirmada independiente (útil para probar raíces ajenas).
func NewCA(t testing.TB) *x509.Certificate {
	c, _ := newCA(t, "unrelated root")
	return c
}

func newCA(t testing.TB, cn string) (*x509.Certificate, *ecdsa.PrivateKey) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("ca key: %v", err)
	}
	tpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: cn},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	der, err := x509.CreateCertificate(rand.Reader, tpl, tpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("ca cert: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parse ca: %v", err)
	}
	return cert, key
}

func newLeaf(t testing.TB, ca *x509.Certificate, caKey *ecdsa.PrivateKey, cn string) (*x509.Certificate, *ecdsa.PrivateKey) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("tsa key: %v", err)
	}
	tpl := &x509.Certificate{
		SerialNumber: big.NewInt(2),
		Subject:      pkix.Name{CommonName: cn},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageTimeStamping},
	}
	der, err := x509.CreateCertificate(rand.Reader, tpl, ca, &key.PublicKey, caKey)
	if err != nil {
		t.Fatalf("tsa cert: %v", err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parse tsa: %v", err)
	}
	return cert, key
}

func writePEM(t testing.TB, path string, c *x509.Certificate) {
	t.Helper()
	data := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: c.Raw})
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
