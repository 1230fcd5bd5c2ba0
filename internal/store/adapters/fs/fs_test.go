package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellocert/internal/store"
	"github.com/dropDatabas3/hellocert/internal/store/storetest"
)

func TestConformance(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	storetest.Run(t, s)
}

func TestFileNaming(t *testing.T) {
	root := t.TempDir()
	s, err := store.Open(context.Background(), store.AdapterConfig{Name: "fs", FSRoot: filepath.Join(root, "certs")})
	require.NoError(t, err)

	require.NoError(t, s.Put(context.Background(), "abc", []byte("png")))
	_, err = os.Stat(filepath.Join(root, "certs", "abc_final.png"))
	assert.NoError(t, err)
}

func TestRootIsFile(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(f, nil, 0o644))
	_, err := New(f)
	assert.Error(t, err)
}
