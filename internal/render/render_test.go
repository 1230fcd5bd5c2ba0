package render

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellocert/internal/qr"
)

func TestComposeCertificateLayout(t *testing.T) {
	c, err := NewComposer(Config{})
	require.NoError(t, err)

	sym, err := qr.Encode("3045022100abcdef")
	require.NoError(t, err)

	out, err := c.ComposeCertificate("Security101", "Alice", sym)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, DefaultWidth, DefaultHeight), out.Bounds())

	got, err := qr.Decode(out, qr.Region())
	require.NoError(t, err)
	assert.Equal(t, "3045022100abcdef", got)

	// Algún píxel oscuro en el centro: el texto quedó dibujado.
	dark := false
	for y := DefaultHeight/2 - 240; y < DefaultHeight/2+240 && !dark; y++ {
		for x := DefaultWidth/2 - 400; x < DefaultWidth/2+400; x++ {
			if out.RGBAAt(x, y).R < 64 {
				dark = true
				break
			}
		}
	}
	assert.True(t, dark)
}

func TestFitPreservesAspect(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 400, 100))
	dst := Fit(src, TextWidth, TextHeight)
	assert.Equal(t, 800, dst.Bounds().Dx())
	assert.Equal(t, 200, dst.Bounds().Dy())

	tall := image.NewRGBA(image.Rect(0, 0, 100, 960))
	dst = Fit(tall, TextWidth, TextHeight)
	assert.Equal(t, 50, dst.Bounds().Dx())
	assert.Equal(t, 480, dst.Bounds().Dy())
}

func TestRenderTextSubstitutes(t *testing.T) {
	c, err := NewComposer(Config{Lines: []string{"{title}", "{identity}"}, FontSize: 20})
	require.NoError(t, err)
	short, err := c.RenderText("A", "B")
	require.NoError(t, err)
	long, err := c.RenderText("A much longer credential title", "B")
	require.NoError(t, err)
	assert.Greater(t, long.Bounds().Dx(), short.Bounds().Dx())
}

func TestBackgroundTooSmall(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "bg.png")
	f, err := os.Create(p)
	require.NoError(t, err)
	small := image.NewRGBA(image.Rect(0, 0, 800, 600))
	small.Set(0, 0, color.White)
	require.NoError(t, png.Encode(f, small))
	require.NoError(t, f.Close())

	_, err = NewComposer(Config{BackgroundPath: p})
	assert.ErrorIs(t, err, ErrLayout)

	_, err = Compose(small, nil, nil)
	assert.ErrorIs(t, err, ErrLayout)
}

func TestBackgroundFromFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "bg.png")
	f, err := os.Create(p)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, DefaultBackground()))
	require.NoError(t, f.Close())

	c, err := NewComposer(Config{BackgroundPath: p})
	require.NoError(t, err)
	assert.Equal(t, DefaultWidth, c.Background().Bounds().Dx())
}
