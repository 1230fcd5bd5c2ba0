package stego

import (
	"bytes"
	"encoding/hex"
	"image"
	"image/png"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func carrier(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = byte(rng.Intn(256))
		img.Pix[i+1] = byte(rng.Intn(256))
		img.Pix[i+2] = byte(rng.Intn(256))
		img.Pix[i+3] = 255
	}
	return img
}

func payload(n int) string {
	b := make([]byte, n/2)
	rand.New(rand.NewSource(int64(n))).Read(b)
	return hex.EncodeToString(b)
}

func TestRoundTrip(t *testing.T) {
	src := carrier(200, 120)
	p := payload(1000)

	out, err := Embed(src, p)
	require.NoError(t, err)

	got, err := Extract(out, len(p))
	require.NoError(t, err)
	assert.Equal(t, p, got)

	framed, err := ExtractFramed(out)
	require.NoError(t, err)
	assert.Equal(t, p, framed)
}

func TestRoundTripThroughPNG(t *testing.T) {
	p := payload(512)
	out, err := Embed(carrier(64, 80), p)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, out))
	decoded, err := png.Decode(&buf)
	require.NoError(t, err)

	got, err := ExtractFramed(decoded)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestMismatchedLength(t *testing.T) {
	p := payload(300)
	out, err := Embed(carrier(100, 100), p)
	require.NoError(t, err)

	shorter, err := Extract(out, len(p)-2)
	require.NoError(t, err)
	assert.NotEqual(t, p, shorter)

	longer, err := Extract(out, len(p)+2)
	require.NoError(t, err)
	assert.NotEqual(t, p, longer)
}

func TestCapacity(t *testing.T) {
	src := carrier(16, 16) // 256 bits: 32 cabecera + 28 chars
	assert.Equal(t, 28, Capacity(src))

	_, err := Embed(src, payload(28))
	require.NoError(t, err)
	_, err = Embed(src, payload(30))
	assert.ErrorIs(t, err, ErrCapacity)
}

func TestEmbedOnlyTouchesRedLSB(t *testing.T) {
	src := carrier(40, 40)
	out, err := Embed(src, payload(100))
	require.NoError(t, err)

	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			a := src.RGBAAt(x, y)
			b := out.NRGBAAt(x, y)
			assert.Equal(t, a.R&^1, b.R&^1)
			assert.Equal(t, a.G, b.G)
			assert.Equal(t, a.B, b.B)
		}
	}
}

func TestExtractFramedWithoutPayload(t *testing.T) {
	blank := image.NewNRGBA(image.Rect(0, 0, 50, 50))
	for i := range blank.Pix {
		blank.Pix[i] = 0xFE
	}
	_, err := ExtractFramed(blank)
	assert.ErrorIs(t, err, ErrNoPayload)

	full := image.NewNRGBA(image.Rect(0, 0, 50, 50))
	for i := range full.Pix {
		full.Pix[i] = 0xFF
	}
	_, err = ExtractFramed(full)
	assert.ErrorIs(t, err, ErrNoPayload)
}

func TestEmbedRespectsNonZeroBounds(t *testing.T) {
	src := carrier(60, 60).SubImage(image.Rect(10, 10, 50, 50))
	p := payload(120)
	out, err := Embed(src, p)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 40, 40), out.Bounds())
	got, err := ExtractFramed(out)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestExtractFramedRejectsUpperCaseHex(t *testing.T) {
	out, err := Embed(carrier(40, 40), "00ab")
	require.NoError(t, err)

	// bit 0x20 del carácter 'a': "00ab" pasa a leerse "00Ab"
	bit := HeaderBits + 2*8 + 2
	i := out.PixOffset(bit%40, bit/40)
	out.Pix[i] ^= 1

	raw, err := Extract(out, 4)
	require.NoError(t, err)
	require.Equal(t, "00Ab", raw)

	_, err = ExtractFramed(out)
	assert.ErrorIs(t, err, ErrNoPayload)
}
