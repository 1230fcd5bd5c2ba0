// Package render dibuja el texto del certificado y compone fondo, texto y QR.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/dropDatabas3/hellocert/internal/qr"
)

// Caja a la que se ajusta el bloque de texto.
const (
	TextWidth  = 800
	TextHeight = 480
)

// Fondo generado cuando no hay plantilla (A4 apaisado a 150 dpi).
const (
	DefaultWidth  = 1754
	DefaultHeight = 1240
)

// ErrLayout: el fondo no contiene la región del QR.
var ErrLayout = errors.New("render: background too small for layout")

// Config del compositor.
type Config struct {
	// BackgroundPath es la plantilla PNG/JPEG. Vacío = fondo generado.
	BackgroundPath string
	// FontSize en puntos a 72 dpi. Default 56.
	FontSize float64
	// Lines es el formato del bloque de texto; {title} e {identity} se reemplazan.
	Lines []string
}

// DefaultLines reproduce el texto histórico del certificado.
var DefaultLines = []string{"Certificat {title}", "délivré à", "{identity}"}

// Composer mantiene el fondo y la fuente cargados.
type Composer struct {
	background image.Image
	face       font.Face
	lines      []string
}

func NewComposer(cfg Config) (*Composer, error) {
	var bg image.Image
	if cfg.BackgroundPath == "" {
		bg = DefaultBackground()
	} else {
		img, err := loadImage(cfg.BackgroundPath)
		if err != nil {
			return nil, err
		}
		bg = img
	}
	if !qr.Region().In(bg.Bounds()) {
		return nil, fmt.Errorf("%w: %v does not contain %v", ErrLayout, bg.Bounds(), qr.Region())
	}

	size := cfg.FontSize
	if size <= 0 {
		size = 56
	}
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("font face: %w", err)
	}

	lines := cfg.Lines
	if len(lines) == 0 {
		lines = DefaultLines
	}
	return &Composer{background: bg, face: face, lines: lines}, nil
}

// Background retorna la plantilla en uso.
func (c *Composer) Background() image.Image { return c.background }

// RenderText dibuja el bloque de texto, centrado línea a línea, sobre fondo
// transparente.
func (c *Composer) RenderText(title, identity string) (*image.RGBA, error) {
	r := strings.NewReplacer("{title}", title, "{identity}", identity)
	lines := make([]string, len(c.lines))
	var maxW fixed.Int26_6
	for i, l := range c.lines {
		lines[i] = r.Replace(l)
		if w := font.MeasureString(c.face, lines[i]); w > maxW {
			maxW = w
		}
	}

	m := c.face.Metrics()
	lineH := m.Height.Ceil()
	pad := lineH / 4
	w := maxW.Ceil() + 2*pad
	h := lineH*len(lines) + 2*pad
	if w <= 0 || h <= 0 {
		return nil, errors.New("render: empty text block")
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	d := &font.Drawer{Dst: img, Src: image.NewUniform(color.Black), Face: c.face}
	for i, l := range lines {
		lw := font.MeasureString(c.face, l)
		x := fixed.I(w/2) - lw/2
		y := fixed.I(pad+i*lineH) + m.Ascent
		d.Dot = fixed.Point26_6{X: x, Y: y}
		d.DrawString(l)
	}
	return img, nil
}

// Fit escala src para que entre en w×h conservando la proporción.
func Fit(src image.Image, w, h int) *image.RGBA {
	sb := src.Bounds()
	sx := float64(w) / float64(sb.Dx())
	sy := float64(h) / float64(sb.Dy())
	s := sx
	if sy < s {
		s = sy
	}
	dw := max(1, int(float64(sb.Dx())*s))
	dh := max(1, int(float64(sb.Dy())*s))
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, sb, draw.Over, nil)
	return dst
}

// Compose copia background, superpone text centrado (ajustado a 800×480) y
// pega qrImg en la posición fija del QR.
func Compose(background, text, qrImg image.Image) (*image.RGBA, error) {
	bb := background.Bounds()
	if !qr.Region().In(image.Rect(0, 0, bb.Dx(), bb.Dy())) {
		return nil, fmt.Errorf("%w: %v", ErrLayout, bb)
	}
	out := image.NewRGBA(image.Rect(0, 0, bb.Dx(), bb.Dy()))
	draw.Draw(out, out.Bounds(), background, bb.Min, draw.Src)

	if text != nil {
		t := Fit(text, TextWidth, TextHeight)
		tb := t.Bounds()
		at := image.Pt((bb.Dx()-tb.Dx())/2, (bb.Dy()-tb.Dy())/2)
		draw.Draw(out, tb.Add(at), t, image.Point{}, draw.Over)
	}

	if qrImg != nil {
		q := qrImg
		if q.Bounds().Dx() != qr.Size || q.Bounds().Dy() != qr.Size {
			q = Fit(q, qr.Size, qr.Size)
		}
		draw.Draw(out, qr.Region(), q, q.Bounds().Min, draw.Src)
	}
	return out, nil
}

// ComposeCertificate dibuja el texto y compone sobre la plantilla cargada.
func (c *Composer) ComposeCertificate(title, identity string, qrImg image.Image) (*image.RGBA, error) {
	text, err := c.RenderText(title, identity)
	if err != nil {
		return nil, err
	}
	return Compose(c.background, text, qrImg)
}

// DefaultBackground genera un fondo blanco con marco doble.
func DefaultBackground() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, DefaultWidth, DefaultHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{R: 252, G: 250, B: 245, A: 255}), image.Point{}, draw.Src)

	frame := color.RGBA{R: 24, G: 48, B: 96, A: 255}
	border(img, img.Bounds().Inset(40), 8, frame)
	border(img, img.Bounds().Inset(60), 2, frame)
	return img
}

func border(img *image.RGBA, r image.Rectangle, width int, c color.Color) {
	u := image.NewUniform(c)
	draw.Draw(img, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+width), u, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(r.Min.X, r.Max.Y-width, r.Max.X, r.Max.Y), u, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(r.Min.X, r.Min.Y, r.Min.X+width, r.Max.Y), u, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(r.Max.X-width, r.Min.Y, r.Max.X, r.Max.Y), u, image.Point{}, draw.Src)
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open background %q: %w", path, err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode background %q: %w", path, err)
	}
	return img, nil
}
