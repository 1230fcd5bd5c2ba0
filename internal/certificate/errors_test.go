package certificate

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dropDatabas3/hellocert/internal/tsa"
)

func TestStageErrorMatchesKindAndCause(t *testing.T) {
	cause := fmt.Errorf("%w: status 503", tsa.ErrUnavailable)
	err := stageErr(StageTimestamp, ErrTimestampUnavailable, cause)

	assert.ErrorIs(t, err, ErrTimestampUnavailable)
	assert.ErrorIs(t, err, tsa.ErrUnavailable)
	assert.NotErrorIs(t, err, ErrTimeout)
	assert.Equal(t, "timestamp_unavailable", KindOf(err))
	assert.Contains(t, err.Error(), "request_timestamp")
}

func TestStageErrorDetectsTimeout(t *testing.T) {
	err := stageErr(StageCompose, ErrRenderingFailure, context.DeadlineExceeded)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, err, ErrRenderingFailure)
	assert.Equal(t, "timeout", KindOf(err))
}

func TestBounded(t *testing.T) {
	v, err := bounded(context.Background(), time.Second, func() (int, error) { return 7, nil })
	assert.NoError(t, err)
	assert.Equal(t, 7, v)

	release := make(chan struct{})
	defer close(release)
	_, err = bounded(context.Background(), 20*time.Millisecond, func() (int, error) {
		<-release
		return 0, nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	boom := errors.New("boom")
	_, err = bounded(context.Background(), 0, func() (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, "ok", KindOf(nil))
	assert.Equal(t, "internal", KindOf(errors.New("x")))
	assert.Equal(t, "persistence_failure", KindOf(stageErr(StagePersist, ErrPersistenceFailure, errors.New("disk"))))
}
