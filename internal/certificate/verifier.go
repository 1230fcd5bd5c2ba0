package certificate

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/png"
	"time"

	"github.com/dropDatabas3/hellocert/internal/infoblock"
	"github.com/dropDatabas3/hellocert/internal/observability/logger"
	"github.com/dropDatabas3/hellocert/internal/qr"
	"github.com/dropDatabas3/hellocert/internal/signature"
	"github.com/dropDatabas3/hellocert/internal/stego"
	"github.com/dropDatabas3/hellocert/internal/tsa"
)

// Límite de píxeles aceptados al decodificar imágenes subidas.
const maxPixels = 40_000_000

// SignatureChecker verifica una firma hex sobre data.
type SignatureChecker interface {
	CheckHex(data []byte, sigHex string) error
}

// TimestampChecker verifica que token selle data bajo la raíz fijada.
type TimestampChecker interface {
	Check(data, token []byte) (*tsa.Result, error)
}

// Reason es el motivo interno del veredicto.
type Reason string

const (
	ReasonOK                 Reason = "ok"
	ReasonUndecodable        Reason = "undecodable_image"
	ReasonNoStego            Reason = "no_stego_data"
	ReasonMalformedPayload   Reason = "malformed_payload"
	ReasonTimestampInvalid   Reason = "timestamp_invalid"
	ReasonQRUnreadable       Reason = "qr_unreadable"
	ReasonSignatureMalformed Reason = "signature_malformed"
	ReasonSignatureMismatch  Reason = "signature_mismatch"
)

// Verdict es el resultado de una verificación. Hacia afuera solo importa
// Valid; Reason, Stage y Err quedan para diagnóstico.
type Verdict struct {
	Valid       bool
	Reason      Reason
	Stage       Stage
	Err         error
	TimestampAt time.Time
}

func invalid(stage Stage, reason Reason, err error) Verdict {
	return Verdict{Reason: reason, Stage: stage, Err: err}
}

type VerifierConfig struct {
	Signatures SignatureChecker
	Timestamps TimestampChecker
	Observer   Observer
	ScratchDir string
}

// Verifier ejecuta LoadArtifact → ExtractStego → Split → VerifyTimestamp →
// ExtractSignatureFromQR → VerifySignature. Cualquier paso fallido corta la
// cadena con un veredicto inválido; nunca retorna error ni hace panic.
type Verifier struct {
	cfg VerifierConfig
}

func NewVerifier(cfg VerifierConfig) (*Verifier, error) {
	if cfg.Signatures == nil || cfg.Timestamps == nil {
		return nil, errors.New("certificate: verifier requires signature and timestamp checkers")
	}
	if cfg.Observer == nil {
		cfg.Observer = nopObserver{}
	}
	return &Verifier{cfg: cfg}, nil
}

// Verify valida la imagen subida por key.
func (v *Verifier) Verify(ctx context.Context, key string, upload []byte) (verdict Verdict) {
	log := logger.From(ctx).With(logger.Component("verifier"), logger.RequesterKey(key))
	c := &chain{v: v}
	defer func() {
		if r := recover(); r != nil {
			verdict = invalid(c.stage, ReasonUndecodable, fmt.Errorf("panic: %v", r))
		}
		v.cfg.Observer.ObserveVerify(verdict.Valid, string(verdict.Reason))
		if verdict.Valid {
			log.Info("certificate verified", logger.Valid(true))
			return
		}
		log.Info("certificate rejected",
			logger.Valid(false),
			logger.Reason(string(verdict.Reason)),
			logger.Stage(string(verdict.Stage)),
			logger.Err(verdict.Err))
	}()

	c.stage = StageLoad
	tmp, err := newScratch(v.cfg.ScratchDir)
	if err != nil {
		return invalid(StageLoad, ReasonUndecodable, err)
	}
	defer tmp.cleanup()

	c.tmp = tmp
	return c.run(upload)
}

// chain lleva el estado entre etapas de una verificación.
type chain struct {
	v     *Verifier
	tmp   *scratch
	stage Stage

	img   image.Image
	raw   []byte
	block infoblock.Block
	token []byte
	sig   string
	at    time.Time
}

func (c *chain) run(upload []byte) Verdict {
	steps := []struct {
		stage Stage
		fn    func() (Reason, error)
	}{
		{StageLoad, func() (Reason, error) { return c.load(upload) }},
		{StageExtractStego, c.extract},
		{StageSplit, c.split},
		{StageVerifyTimestamp, c.verifyTimestamp},
		{StageExtractQR, c.extractSignature},
		{StageVerifySignature, c.verifySignature},
	}
	for _, s := range steps {
		c.stage = s.stage
		start := time.Now()
		reason, err := s.fn()
		c.v.cfg.Observer.ObserveStage("verify", string(s.stage), time.Since(start).Seconds())
		if reason != ReasonOK {
			return invalid(s.stage, reason, err)
		}
	}
	return Verdict{Valid: true, Reason: ReasonOK, Stage: StageDone, TimestampAt: c.at}
}

func (c *chain) load(upload []byte) (Reason, error) {
	if err := c.tmp.write("upload.png", upload); err != nil {
		return ReasonUndecodable, err
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(upload))
	if err != nil {
		return ReasonUndecodable, err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > maxPixels {
		return ReasonUndecodable, fmt.Errorf("image %dx%d out of bounds", cfg.Width, cfg.Height)
	}
	img, err := png.Decode(bytes.NewReader(upload))
	if err != nil {
		return ReasonUndecodable, err
	}
	c.img = img
	return ReasonOK, nil
}

func (c *chain) extract() (Reason, error) {
	payload, err := stego.ExtractFramed(c.img)
	if err != nil {
		return ReasonNoStego, err
	}
	raw, err := hex.DecodeString(payload)
	if err != nil {
		return ReasonMalformedPayload, err
	}
	c.raw = raw
	return ReasonOK, nil
}

func (c *chain) split() (Reason, error) {
	block, token, err := SplitPayload(c.raw)
	if err != nil {
		return ReasonMalformedPayload, err
	}
	c.block = block
	c.token = token
	if err := c.tmp.write("info.bin", block.Bytes()); err != nil {
		return ReasonMalformedPayload, err
	}
	if err := c.tmp.write("token.tsr", c.token); err != nil {
		return ReasonMalformedPayload, err
	}
	return ReasonOK, nil
}

func (c *chain) verifyTimestamp() (Reason, error) {
	res, err := c.v.cfg.Timestamps.Check(c.block.Bytes(), c.token)
	if err != nil {
		return ReasonTimestampInvalid, err
	}
	if res == nil {
		return ReasonTimestampInvalid, errors.New("no positive confirmation from timestamp check")
	}
	c.at = res.Time
	return ReasonOK, nil
}

func (c *chain) extractSignature() (Reason, error) {
	sig, err := qr.Decode(c.img, qr.Region())
	if err != nil {
		return ReasonQRUnreadable, err
	}
	c.sig = sig
	if err := c.tmp.write("signature.hex", []byte(sig)); err != nil {
		return ReasonQRUnreadable, err
	}
	return ReasonOK, nil
}

// verifySignature usa el bloque recuperado del stego, no uno re-derivado.
func (c *chain) verifySignature() (Reason, error) {
	err := c.v.cfg.Signatures.CheckHex(c.block.Bytes(), c.sig)
	switch {
	case err == nil:
		return ReasonOK, nil
	case errors.Is(err, signature.ErrMalformed):
		return ReasonSignatureMalformed, err
	default:
		return ReasonSignatureMismatch, err
	}
}
