// Package qr codifica la firma hex en un símbolo QR y la recupera desde la
// región fija del certificado.
package qr

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/makiuchi-d/gozxing"
	zxqr "github.com/makiuchi-d/gozxing/qrcode"
	"github.com/skip2/go-qrcode"
	xdraw "golang.org/x/image/draw"
)

// ErrDecode: no se encontró un símbolo legible en la región.
var ErrDecode = errors.New("qr: no readable symbol in region")

// margen blanco que se agrega alrededor del recorte antes de decodificar
const decodeMargin = 32

// Encode genera un símbolo de Size×Size px para el texto hex.
// Se codifica en mayúsculas para que entre en modo alfanumérico.
func Encode(hexText string) (image.Image, error) {
	if hexText == "" {
		return nil, errors.New("qr: empty payload")
	}
	code, err := qrcode.New(strings.ToUpper(hexText), qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("qr encode: %w", err)
	}
	return code.Image(Size), nil
}

// Decode recorta img a region y decodifica el símbolo. El texto se retorna en
// minúsculas.
func Decode(img image.Image, region image.Rectangle) (string, error) {
	r := region.Intersect(img.Bounds())
	if r.Empty() {
		return "", fmt.Errorf("%w: region %v outside image %v", ErrDecode, region, img.Bounds())
	}

	canvas := image.NewGray(image.Rect(0, 0, r.Dx()+2*decodeMargin, r.Dy()+2*decodeMargin))
	xdraw.Draw(canvas, canvas.Bounds(), &image.Uniform{C: color.White}, image.Point{}, xdraw.Src)
	xdraw.Draw(canvas, image.Rect(decodeMargin, decodeMargin, decodeMargin+r.Dx(), decodeMargin+r.Dy()), img, r.Min, xdraw.Src)

	bmp, err := gozxing.NewBinaryBitmapFromImage(canvas)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	res, err := zxqr.NewQRCodeReader().Decode(bmp, hints)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	text := strings.TrimSpace(res.GetText())
	if text == "" {
		return "", ErrDecode
	}
	return strings.ToLower(text), nil
}
