package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateKey(t *testing.T) {
	assert.NoError(t, ValidateKey("abc_DEF-123"))
	for _, k := range []string{"", "a/b", "..", "a b", "ñ"} {
		assert.ErrorIs(t, ValidateKey(k), ErrInvalidKey, k)
	}
}

func TestOpenUnknownAdapter(t *testing.T) {
	_, err := Open(context.Background(), AdapterConfig{Name: "nope"})
	assert.Error(t, err)
}
