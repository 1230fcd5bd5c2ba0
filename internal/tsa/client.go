// Package tsa obtiene y verifica sellos de tiempo RFC3161.
package tsa

import (
	"bytes"
	"context"
	"crypto"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/digitorus/timestamp"
)

const (
	contentTypeQuery = "application/timestamp-query"
	contentTypeReply = "application/timestamp-reply"

	DefaultURL         = "https://freetsa.org/tsr"
	DefaultTimeout     = 30 * time.Second
	defaultMaxResponse = 1 << 20
)

var (
	// ErrUnavailable: la TSA no respondió o respondió con error HTTP.
	ErrUnavailable = errors.New("tsa: unavailable")
	// ErrTimeout: la TSA no respondió dentro del plazo.
	ErrTimeout = errors.New("tsa: timeout")
	// ErrRejected: la TSA respondió pero el sello no es utilizable.
	ErrRejected = errors.New("tsa: response rejected")
)

// ClientConfig configura el cliente.
type ClientConfig struct {
	URL              string
	Timeout          time.Duration
	MaxResponseBytes int64
	HTTPClient       *http.Client
}

// Client envía TimeStampReq (SHA-256, sin nonce, con certificado) a una TSA.
type Client struct {
	url      string
	timeout  time.Duration
	maxBytes int64
	http     *http.Client
}

func NewClient(cfg ClientConfig) *Client {
	c := &Client{
		url:      cfg.URL,
		timeout:  cfg.Timeout,
		maxBytes: cfg.MaxResponseBytes,
		http:     cfg.HTTPClient,
	}
	if c.url == "" {
		c.url = DefaultURL
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.maxBytes <= 0 {
		c.maxBytes = defaultMaxResponse
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	return c
}

// URL retorna el endpoint configurado.
func (c *Client) URL() string { return c.url }

// BuildRequest codifica el TimeStampReq DER para data.
func BuildRequest(data []byte) ([]byte, error) {
	digest := sha256.Sum256(data)
	req := &timestamp.Request{
		HashAlgorithm: crypto.SHA256,
		HashedMessage: digest[:],
		Certificates:  true,
	}
	der, err := req.Marshal()
	if err != nil {
		return nil, fmt.Errorf("marshal timestamp request: %w", err)
	}
	return der, nil
}

// Request sella data y retorna el TimeStampResp DER tal cual lo envió la TSA.
// Solo se comprueba que el sello esté concedido y cubra el digest de data.
func (c *Client) Request(ctx context.Context, data []byte) ([]byte, error) {
	query, err := BuildRequest(data)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(query))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", contentTypeQuery)
	req.Header.Set("Accept", contentTypeReply)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classify(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, classify(ctx, err)
	}
	if int64(len(body)) > c.maxBytes {
		return nil, fmt.Errorf("%w: response larger than %d bytes", ErrRejected, c.maxBytes)
	}

	if err := checkDigest(body, data); err != nil {
		return nil, err
	}
	return body, nil
}

func classify(ctx context.Context, err error) error {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		(errors.As(err, &ne) && ne.Timeout()) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

func checkDigest(token, data []byte) error {
	ts, err := parseToken(token)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRejected, err)
	}
	if ts.HashAlgorithm != crypto.SHA256 {
		return fmt.Errorf("%w: hash algorithm %v", ErrRejected, ts.HashAlgorithm)
	}
	digest := sha256.Sum256(data)
	if !bytes.Equal(ts.HashedMessage, digest[:]) {
		return fmt.Errorf("%w: digest mismatch", ErrRejected)
	}
	return nil
}

// parseToken acepta un TimeStampResp o un TimeStampToken suelto.
func parseToken(token []byte) (*timestamp.Timestamp, error) {
	ts, err := timestamp.ParseResponse(token)
	if err == nil {
		return ts, nil
	}
	if ts2, err2 := timestamp.Parse(token); err2 == nil {
		return ts2, nil
	}
	return nil, err
}
