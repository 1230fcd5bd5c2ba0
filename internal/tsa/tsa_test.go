package tsa_test

import (
	"context"
	"crypto/x509"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellocert/internal/tsa"
	"github.com/dropDatabas3/hellocert/internal/tsa/tsatest"
)

var block = []byte(strings.Repeat("B", 64))

func TestRequestAndVerify(t *testing.T) {
	srv := tsatest.New(t)
	c := tsa.NewClient(tsa.ClientConfig{URL: srv.URL, Timeout: 5 * time.Second})

	token, err := c.Request(context.Background(), block)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	v, err := tsa.NewVerifier([]*x509.Certificate{srv.CA}, nil)
	require.NoError(t, err)
	res, err := v.Check(block, token)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), res.Time, time.Minute)
	assert.NotEmpty(t, res.Serial)

	// la TSA asigna un serial propio a cada sello
	again, err := c.Request(context.Background(), block)
	require.NoError(t, err)
	res2, err := v.Check(block, again)
	require.NoError(t, err)
	assert.NotEqual(t, res.Serial, res2.Serial)
}

func TestVerifyFromFiles(t *testing.T) {
	srv := tsatest.New(t)
	caFile, tsaFile := srv.WriteTrust(t, t.TempDir())

	c := tsa.NewClient(tsa.ClientConfig{URL: srv.URL})
	token, err := c.Request(context.Background(), block)
	require.NoError(t, err)

	v, err := tsa.LoadVerifier(caFile, tsaFile)
	require.NoError(t, err)
	assert.True(t, v.Verify(block, token))
}

func TestVerifyRejects(t *testing.T) {
	srv := tsatest.New(t)
	c := tsa.NewClient(tsa.ClientConfig{URL: srv.URL})
	token, err := c.Request(context.Background(), block)
	require.NoError(t, err)

	v, err := tsa.NewVerifier([]*x509.Certificate{srv.CA}, nil)
	require.NoError(t, err)

	other := []byte(strings.Repeat("C", 64))
	_, err = v.Check(other, token)
	assert.ErrorIs(t, err, tsa.ErrDigestMismatch)

	_, err = v.Check(block, []byte("garbage"))
	assert.ErrorIs(t, err, tsa.ErrMalformedToken)

	foreign, err := tsa.NewVerifier([]*x509.Certificate{tsatest.NewCA(t)}, nil)
	require.NoError(t, err)
	_, err = foreign.Check(block, token)
	assert.ErrorIs(t, err, tsa.ErrUntrusted)

	tampered := append([]byte(nil), token...)
	tampered[len(tampered)-10] ^= 0x01
	assert.False(t, v.Verify(block, tampered))
}

func TestRequestUnavailable(t *testing.T) {
	srv := tsatest.New(t)
	srv.SetMode(tsatest.ModeFail)
	c := tsa.NewClient(tsa.ClientConfig{URL: srv.URL})

	_, err := c.Request(context.Background(), block)
	assert.ErrorIs(t, err, tsa.ErrUnavailable)
}

func TestRequestTimeout(t *testing.T) {
	srv := tsatest.New(t)
	srv.SetMode(tsatest.ModeHang)
	c := tsa.NewClient(tsa.ClientConfig{URL: srv.URL, Timeout: 100 * time.Millisecond})

	start := time.Now()
	_, err := c.Request(context.Background(), block)
	assert.ErrorIs(t, err, tsa.ErrTimeout)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestBuildRequestIsDeterministic(t *testing.T) {
	a, err := tsa.BuildRequest(block)
	require.NoError(t, err)
	b, err := tsa.BuildRequest(block)
	require.NoError(t, err)
	assert.Equal(t, a, b, "no nonce")
}
