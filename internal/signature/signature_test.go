package signature

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/hex"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPair(t *testing.T) (*Signer, *Verifier) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	s, err := NewSigner(key)
	require.NoError(t, err)
	v, err := NewVerifier(s.Public())
	require.NoError(t, err)
	return s, v
}

func TestSignVerifyRoundTrip(t *testing.T) {
	s, v := newPair(t)
	data := []byte(strings.Repeat("x", 64))

	sigHex, err := s.SignHex(data)
	require.NoError(t, err)
	assert.True(t, v.VerifyHex(data, sigHex))
	assert.True(t, v.VerifyHex(data, strings.ToUpper(sigHex)))
	assert.False(t, v.VerifyHex([]byte(strings.Repeat("y", 64)), sigHex))
}

func TestCheckDistinguishesMalformed(t *testing.T) {
	s, v := newPair(t)
	data := []byte("block")
	sig, err := s.Sign(data)
	require.NoError(t, err)

	assert.ErrorIs(t, v.CheckHex(data, "zz"), ErrMalformed)
	assert.ErrorIs(t, v.CheckHex(data, ""), ErrMalformed)
	assert.ErrorIs(t, v.Check(data, append(sig, 0x00)), ErrMalformed)
	assert.ErrorIs(t, v.Check(data, []byte{0x30, 0x00}), ErrMalformed)

	_, other := newPair(t)
	assert.ErrorIs(t, other.Check(data, sig), ErrMismatch)
	assert.NoError(t, v.CheckHex(data, hex.EncodeToString(sig)))
}

func TestRejectsNonP256(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	require.NoError(t, err)
	_, err = NewSigner(key)
	assert.Error(t, err)
}

func TestEnsureKeyGeneratesAndReloads(t *testing.T) {
	dir := t.TempDir()
	priv := filepath.Join(dir, "keys", "signing.pem")
	pub := filepath.Join(dir, "keys", "signing.pub.pem")

	_, _, err := EnsureKey(priv, pub, false)
	require.Error(t, err)

	k1, generated, err := EnsureKey(priv, pub, true)
	require.NoError(t, err)
	assert.True(t, generated)

	k2, generated, err := EnsureKey(priv, pub, true)
	require.NoError(t, err)
	assert.False(t, generated)
	assert.True(t, k1.Equal(k2))

	p, err := LoadPublicKey(pub)
	require.NoError(t, err)
	assert.True(t, k1.PublicKey.Equal(p))
}

func TestParsePrivateKeyPEMErrors(t *testing.T) {
	_, err := ParsePrivateKeyPEM([]byte("not pem"))
	assert.Error(t, err)
	_, err = ParsePrivateKeyPEM([]byte("-----BEGIN FOO-----\nAAAA\n-----END FOO-----\n"))
	assert.Error(t, err)
}
