package certificate

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// scratch es un directorio temporal por request para los intermedios.
// cleanup lo borra entero.
type scratch struct {
	dir string
}

func newScratch(root string) (*scratch, error) {
	if root == "" {
		root = filepath.Join(os.TempDir(), "hellocert")
	}
	if err := os.MkdirAll(root, 0o700); err != nil {
		return nil, fmt.Errorf("scratch root: %w", err)
	}
	dir := filepath.Join(root, uuid.NewString())
	if err := os.Mkdir(dir, 0o700); err != nil {
		return nil, fmt.Errorf("scratch dir: %w", err)
	}
	return &scratch{dir: dir}, nil
}

func (s *scratch) write(name string, data []byte) error {
	return os.WriteFile(filepath.Join(s.dir, name), data, 0o600)
}

func (s *scratch) cleanup() {
	_ = os.RemoveAll(s.dir)
}
