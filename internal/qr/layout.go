package qr

import "image"

// Posición fija del símbolo dentro del certificado.
const (
	OriginX = 1418
	OriginY = 934
	Size    = 210
)

// Region es el rectángulo del certificado que ocupa el QR.
func Region() image.Rectangle {
	return image.Rect(OriginX, OriginY, OriginX+Size, OriginY+Size)
}
