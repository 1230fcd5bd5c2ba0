package main

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellocert/internal/certificate"
	"github.com/dropDatabas3/hellocert/internal/infoblock"
	"github.com/dropDatabas3/hellocert/internal/qr"
	"github.com/dropDatabas3/hellocert/internal/signature"
	"github.com/dropDatabas3/hellocert/internal/stego"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func fakeServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/creation", func(w http.ResponseWriter, r *http.Request) {
		if r.FormValue("identite") == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = io.WriteString(w, "ok!\r\n")
	})
	mux.HandleFunc("/fond", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("\x89PNG-fake"))
	})
	mux.HandleFunc("/verification", func(w http.ResponseWriter, r *http.Request) {
		f, _, err := r.FormFile("image")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		b, _ := io.ReadAll(f)
		if bytes.Equal(b, []byte("good")) {
			_, _ = io.WriteString(w, "Certified!\r\n")
			return
		}
		_, _ = io.WriteString(w, "Erroneous Certificate!\r\n")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestIssueFetchVerify(t *testing.T) {
	srv := fakeServer(t)
	dir := t.TempDir()

	out, err := run(t, "--url", srv.URL, "issue", "--identity", "Alice", "--title", "Security101")
	require.NoError(t, err)
	assert.Equal(t, "ok!\r\n", out)

	_, err = run(t, "--url", srv.URL, "issue", "--identity", "Alice")
	assert.Error(t, err)

	dst := filepath.Join(dir, "cert.png")
	_, err = run(t, "--url", srv.URL, "fetch", "-o", dst)
	require.NoError(t, err)
	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG-fake"), got)

	good := filepath.Join(dir, "good.png")
	require.NoError(t, os.WriteFile(good, []byte("good"), 0o644))
	out, err = run(t, "--url", srv.URL, "verify", good)
	require.NoError(t, err)
	assert.Equal(t, "Certified!\r\n", out)

	out, err = run(t, "--url", srv.URL, "verify", dst)
	assert.ErrorIs(t, err, errRejected)
	assert.Equal(t, "Erroneous Certificate!\r\n", out)
}

func TestKeysGenerate(t *testing.T) {
	dir := t.TempDir()
	priv := filepath.Join(dir, "k.pem")
	pub := filepath.Join(dir, "k.pub.pem")

	_, err := run(t, "keys", "generate", "--private", priv, "--public", pub)
	require.NoError(t, err)

	key, err := signature.LoadPrivateKey(priv)
	require.NoError(t, err)
	pubKey, err := signature.LoadPublicKey(pub)
	require.NoError(t, err)
	assert.True(t, key.PublicKey.Equal(pubKey))

	_, err = run(t, "keys", "generate", "--private", priv, "--public", pub)
	assert.ErrorContains(t, err, "ya existe")

	_, err = run(t, "keys", "generate", "--private", priv, "--public", pub, "--force")
	assert.NoError(t, err)
}

func TestInspect(t *testing.T) {
	canvas := image.NewNRGBA(image.Rect(0, 0, 1754, 1240))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	sym, err := qr.Encode("3045022100abcdef")
	require.NoError(t, err)
	draw.Draw(canvas, qr.Region(), sym, sym.Bounds().Min, draw.Src)

	block, err := infoblock.Encode("Alice", "Security101")
	require.NoError(t, err)
	stamped, err := stego.Embed(canvas, certificate.EncodePayload(block, []byte("not-a-token")))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, stamped))
	path := filepath.Join(t.TempDir(), "c.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	out, err := run(t, "inspect", path)
	require.NoError(t, err)
	assert.Contains(t, out, `info:       "AliceSecurity101"`)
	assert.Contains(t, out, "token:      11 bytes")
	assert.Contains(t, out, "timestamp:  error:")
	assert.Contains(t, out, "qr:         3045022100abcdef")
}
