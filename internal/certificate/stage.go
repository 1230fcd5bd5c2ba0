package certificate

// Stage nombra cada paso de los pipelines.
type Stage string

// Emisión
const (
	StageBuildBlock Stage = "build_block"
	StageLock       Stage = "lock"
	StageSign       Stage = "sign"
	StageEncodeQR   Stage = "encode_qr"
	StageCompose    Stage = "compose_image"
	StageTimestamp  Stage = "request_timestamp"
	StageEmbed      Stage = "embed_stego"
	StagePersist    Stage = "persist"
)

// Verificación
const (
	StageLoad            Stage = "load_artifact"
	StageExtractStego    Stage = "extract_stego"
	StageSplit           Stage = "split_payload"
	StageVerifyTimestamp Stage = "verify_timestamp"
	StageExtractQR       Stage = "extract_signature"
	StageVerifySignature Stage = "verify_signature"
	StageDone            Stage = "done"
)

// Observer recibe eventos de los pipelines (métricas).
type Observer interface {
	ObserveStage(op string, stage string, seconds float64)
	ObserveIssue(result string)
	ObserveVerify(valid bool, reason string)
}

type nopObserver struct{}

func (nopObserver) ObserveStage(string, string, float64) {}
func (nopObserver) ObserveIssue(string)                  {}
func (nopObserver) ObserveVerify(bool, string)           {}
