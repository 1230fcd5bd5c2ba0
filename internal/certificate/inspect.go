package certificate

import (
	"encoding/hex"
	"image"

	"github.com/dropDatabas3/hellocert/internal/infoblock"
	"github.com/dropDatabas3/hellocert/internal/qr"
	"github.com/dropDatabas3/hellocert/internal/stego"
	"github.com/dropDatabas3/hellocert/internal/tsa"
)

// Inspection es lo que se pudo leer de una imagen sin verificar nada. Cada
// parte que falla deja su error y no corta el resto.
type Inspection struct {
	Capacity     int
	PayloadChars int
	Block        *infoblock.Block
	TokenBytes   int
	Timestamp    *tsa.Result
	QRText       string

	PayloadErr   error
	TimestampErr error
	QRErr        error
}

// Inspect lee payload, sello y QR de img para diagnóstico offline. No
// valida firma ni cadena de la TSA: para eso está Verifier.
func Inspect(img image.Image) Inspection {
	in := Inspection{Capacity: stego.Capacity(img)}

	if token, err := in.readPayload(img); err != nil {
		in.PayloadErr = err
	} else {
		in.Timestamp, in.TimestampErr = tsa.Describe(token)
	}

	in.QRText, in.QRErr = qr.Decode(img, qr.Region())
	return in
}

func (in *Inspection) readPayload(img image.Image) ([]byte, error) {
	payload, err := stego.ExtractFramed(img)
	if err != nil {
		return nil, err
	}
	in.PayloadChars = len(payload)
	raw, err := hex.DecodeString(payload)
	if err != nil {
		return nil, err
	}
	block, token, err := SplitPayload(raw)
	if err != nil {
		return nil, err
	}
	in.Block = &block
	in.TokenBytes = len(token)
	return token, nil
}
