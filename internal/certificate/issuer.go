package certificate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/hellocert/internal/infoblock"
	"github.com/dropDatabas3/hellocert/internal/observability/logger"
	"github.com/dropDatabas3/hellocert/internal/qr"
	"github.com/dropDatabas3/hellocert/internal/stego"
	"github.com/dropDatabas3/hellocert/internal/store"
)

// Signer firma el bloque y retorna la firma en hex.
type Signer interface {
	SignHex(data []byte) (string, error)
}

// Timestamper obtiene un sello RFC3161 sobre data.
type Timestamper interface {
	Request(ctx context.Context, data []byte) ([]byte, error)
}

// Composer dibuja el certificado visible con el QR en su lugar.
type Composer interface {
	ComposeCertificate(title, identity string, qrImg image.Image) (*image.RGBA, error)
}

// Request son los datos declarados por el solicitante.
type Request struct {
	Identity string
	Title    string
}

// Artifact es el resultado de una emisión.
type Artifact struct {
	Key       string
	Block     infoblock.Block
	Signature string
	Token     []byte
	PNG       []byte
}

// IssuerConfig agrupa las dependencias del emisor.
type IssuerConfig struct {
	Signer      Signer
	Timestamper Timestamper
	Composer    Composer
	Store       store.ArtifactStore
	Locks       *store.KeyedMutex
	Observer    Observer

	ScratchDir    string
	SignTimeout   time.Duration
	RenderTimeout time.Duration
	StoreTimeout  time.Duration
}

// Issuer ejecuta BuildBlock → Sign → EncodeQR → ComposeImage →
// RequestTimestamp → EmbedStego → Persist, y borra los intermedios siempre.
type Issuer struct {
	cfg IssuerConfig
}

func NewIssuer(cfg IssuerConfig) (*Issuer, error) {
	if cfg.Signer == nil || cfg.Timestamper == nil || cfg.Composer == nil || cfg.Store == nil {
		return nil, errors.New("certificate: issuer requires signer, timestamper, composer and store")
	}
	if cfg.Locks == nil {
		cfg.Locks = store.NewKeyedMutex()
	}
	if cfg.Observer == nil {
		cfg.Observer = nopObserver{}
	}
	return &Issuer{cfg: cfg}, nil
}

// Issue emite el certificado de req para key. Ante cualquier falla no se
// persiste nada y el error es un *StageError.
func (i *Issuer) Issue(ctx context.Context, key string, req Request) (art *Artifact, err error) {
	log := logger.From(ctx).With(logger.Component("issuer"), logger.RequesterKey(key))
	defer func() {
		i.cfg.Observer.ObserveIssue(KindOf(err))
		if err != nil {
			log.Warn("certificate issuance failed", logger.Err(err), logger.String("kind", KindOf(err)))
		}
	}()

	var block infoblock.Block
	if err := i.step(log, StageBuildBlock, func() error {
		b, e := infoblock.Encode(req.Identity, req.Title)
		if e != nil {
			return stageErr(StageBuildBlock, ErrInvalidInput, e)
		}
		block = b
		return nil
	}); err != nil {
		return nil, err
	}

	unlock, err := i.cfg.Locks.Lock(ctx, key)
	if err != nil {
		return nil, stageErr(StageLock, ErrTimeout, err)
	}
	defer unlock()

	tmp, err := newScratch(i.cfg.ScratchDir)
	if err != nil {
		return nil, stageErr(StageBuildBlock, ErrPersistenceFailure, err)
	}
	defer tmp.cleanup()

	art = &Artifact{Key: key, Block: block}
	if err := tmp.write("info.bin", block.Bytes()); err != nil {
		return nil, stageErr(StageBuildBlock, ErrPersistenceFailure, err)
	}

	// Sign
	if err := i.step(log, StageSign, func() error {
		sig, e := bounded(ctx, i.cfg.SignTimeout, func() (string, error) {
			return i.cfg.Signer.SignHex(block.Bytes())
		})
		if e != nil {
			return stageErr(StageSign, ErrSigningFailure, e)
		}
		art.Signature = sig
		return tmp.write("signature.hex", []byte(sig))
	}); err != nil {
		return nil, asStage(StageSign, ErrSigningFailure, err)
	}

	// EncodeQR
	var symbol image.Image
	if err := i.step(log, StageEncodeQR, func() error {
		img, e := qr.Encode(art.Signature)
		if e != nil {
			return stageErr(StageEncodeQR, ErrRenderingFailure, e)
		}
		symbol = img
		return writePNG(tmp, "qr.png", img)
	}); err != nil {
		return nil, asStage(StageEncodeQR, ErrRenderingFailure, err)
	}

	// ComposeImage
	var composed *image.RGBA
	if err := i.step(log, StageCompose, func() error {
		img, e := bounded(ctx, i.cfg.RenderTimeout, func() (*image.RGBA, error) {
			return i.cfg.Composer.ComposeCertificate(req.Title, req.Identity, symbol)
		})
		if e != nil {
			return stageErr(StageCompose, ErrRenderingFailure, e)
		}
		composed = img
		return writePNG(tmp, "composed.png", img)
	}); err != nil {
		return nil, asStage(StageCompose, ErrRenderingFailure, err)
	}

	// RequestTimestamp
	if err := i.step(log, StageTimestamp, func() error {
		token, e := i.cfg.Timestamper.Request(ctx, block.Bytes())
		if e != nil {
			return stageErr(StageTimestamp, ErrTimestampUnavailable, e)
		}
		art.Token = token
		return tmp.write("response.tsr", token)
	}); err != nil {
		return nil, asStage(StageTimestamp, ErrTimestampUnavailable, err)
	}

	// EmbedStego
	if err := i.step(log, StageEmbed, func() error {
		payload := EncodePayload(block, art.Token)
		stamped, e := stego.Embed(composed, payload)
		if e != nil {
			return stageErr(StageEmbed, ErrRenderingFailure, e)
		}
		var buf bytes.Buffer
		if e := png.Encode(&buf, stamped); e != nil {
			return stageErr(StageEmbed, ErrRenderingFailure, e)
		}
		art.PNG = buf.Bytes()
		return nil
	}); err != nil {
		return nil, err
	}

	// Persist
	if err := i.step(log, StagePersist, func() error {
		pctx, cancel := withTimeout(ctx, i.cfg.StoreTimeout)
		defer cancel()
		if e := i.cfg.Store.Put(pctx, key, art.PNG); e != nil {
			return stageErr(StagePersist, ErrPersistenceFailure, e)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	log.Info("certificate issued", logger.Bytes(len(art.PNG)), logger.Int("token_bytes", len(art.Token)))
	return art, nil
}

// step cronometra una etapa y la registra en debug.
func (i *Issuer) step(log *zap.Logger, stage Stage, fn func() error) error {
	start := time.Now()
	err := fn()
	d := time.Since(start)
	i.cfg.Observer.ObserveStage("issue", string(stage), d.Seconds())
	log.Debug("issuance stage", logger.Stage(string(stage)), logger.Duration(d), zap.Bool("ok", err == nil))
	return err
}

// asStage envuelve errores de escritura de intermedios que no vienen tipados.
func asStage(stage Stage, kind, err error) error {
	var se *StageError
	if errors.As(err, &se) {
		return err
	}
	return stageErr(stage, kind, err)
}

func writePNG(tmp *scratch, name string, img image.Image) error {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return tmp.write(name, buf.Bytes())
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
