// Package stego oculta un texto hex en el bit menos significativo del canal
// rojo de una imagen.
//
// Formato: cabecera de 32 bits big-endian con la cantidad de caracteres,
// seguida de 8 bits por carácter (MSB primero). Recorrido por filas desde
// la esquina superior izquierda, un bit por píxel.
package stego

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"
)

// HeaderBits es el tamaño de la cabecera de longitud.
const HeaderBits = 32

var (
	// ErrCapacity: la imagen no tiene píxeles suficientes para el payload.
	ErrCapacity = errors.New("stego: payload exceeds carrier capacity")
	// ErrNoPayload: la cabecera no describe un payload hex plausible.
	ErrNoPayload = errors.New("stego: no embedded payload")
)

// Capacity retorna cuántos caracteres caben en img (ya descontada la cabecera).
func Capacity(img image.Image) int {
	b := img.Bounds()
	bits := b.Dx()*b.Dy() - HeaderBits
	if bits < 0 {
		return 0
	}
	return bits / 8
}

// Embed retorna una copia NRGBA de carrier con payload oculto. carrier no se modifica.
func Embed(carrier image.Image, payload string) (*image.NRGBA, error) {
	if len(payload) > Capacity(carrier) || uint64(len(payload)) > 1<<32-1 {
		return nil, fmt.Errorf("%w: %d chars, capacity %d", ErrCapacity, len(payload), Capacity(carrier))
	}
	b := carrier.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), carrier, b.Min, draw.Src)

	c := cursor{img: out}
	n := uint32(len(payload))
	for i := HeaderBits - 1; i >= 0; i-- {
		c.write(byte(n>>uint(i)) & 1)
	}
	for i := 0; i < len(payload); i++ {
		ch := payload[i]
		for j := 7; j >= 0; j-- {
			c.write((ch >> uint(j)) & 1)
		}
	}
	return out, nil
}

// Extract lee n caracteres a continuación de la cabecera sin consultarla.
func Extract(img image.Image, n int) (string, error) {
	if n < 0 || n > Capacity(img) {
		return "", fmt.Errorf("%w: %d chars, capacity %d", ErrCapacity, n, Capacity(img))
	}
	c := cursor{img: img, pos: HeaderBits}
	return c.readChars(n), nil
}

// ReadLength lee la cabecera de longitud.
func ReadLength(img image.Image) (int, error) {
	if img.Bounds().Dx()*img.Bounds().Dy() < HeaderBits {
		return 0, ErrNoPayload
	}
	c := cursor{img: img}
	var n uint32
	for i := 0; i < HeaderBits; i++ {
		n = n<<1 | uint32(c.read())
	}
	return int(n), nil
}

// ExtractFramed lee la cabecera y el payload, y valida que sea hex en
// minúsculas de longitud par. Una mayúscula cuenta como payload alterado.
func ExtractFramed(img image.Image) (string, error) {
	n, err := ReadLength(img)
	if err != nil {
		return "", err
	}
	if n == 0 || n%2 != 0 || n > Capacity(img) {
		return "", fmt.Errorf("%w: header length %d", ErrNoPayload, n)
	}
	s, err := Extract(img, n)
	if err != nil {
		return "", err
	}
	if i := strings.IndexFunc(s, notLowerHex); i >= 0 {
		return "", fmt.Errorf("%w: byte %#x at %d is not lower-case hex", ErrNoPayload, s[i], i)
	}
	return s, nil
}

func notLowerHex(r rune) bool {
	return !('0' <= r && r <= '9' || 'a' <= r && r <= 'f')
}

// cursor recorre los píxeles en orden de filas.
type cursor struct {
	img image.Image
	pos int
}

func (c *cursor) point() (int, int) {
	b := c.img.Bounds()
	x := b.Min.X + c.pos%b.Dx()
	y := b.Min.Y + c.pos/b.Dx()
	c.pos++
	return x, y
}

func (c *cursor) write(bit byte) {
	dst := c.img.(*image.NRGBA)
	x, y := c.point()
	i := dst.PixOffset(x, y)
	dst.Pix[i] = dst.Pix[i]&^1 | bit
}

func (c *cursor) read() byte {
	x, y := c.point()
	if n, ok := c.img.(*image.NRGBA); ok {
		return n.Pix[n.PixOffset(x, y)] & 1
	}
	return color.NRGBAModel.Convert(c.img.At(x, y)).(color.NRGBA).R & 1
}

func (c *cursor) readChars(n int) string {
	buf := make([]byte, n)
	for i := range buf {
		var ch byte
		for j := 0; j < 8; j++ {
			ch = ch<<1 | c.read()
		}
		buf[i] = ch
	}
	return string(buf)
}
