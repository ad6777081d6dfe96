package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage keeps objects as files below a root directory.
type LocalStorage struct {
	root string
}

func NewLocalStorage(root string) (*LocalStorage, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve root: %v", ErrStorage, err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("%w: could not initialize storage: %v", ErrStorage, err)
	}
	return &LocalStorage{root: abs}, nil
}

func (s *LocalStorage) Root() string {
	return s.root
}

// resolve maps key onto a path below root.
func (s *LocalStorage) resolve(key string) (string, error) {
	p := filepath.Join(s.root, filepath.FromSlash(key))
	if p == s.root || !strings.HasPrefix(p, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: key %q escapes storage root", ErrStorage, key)
	}
	return p, nil
}

// Store writes r to key, replacing any existing file. Empty content is refused.
func (s *LocalStorage) Store(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	dest, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return fmt.Errorf("%w: could not initialize storage: %v", ErrStorage, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".upload-*")
	if err != nil {
		return fmt.Errorf("%w: failed to store file: %v", ErrStorage, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	n, err := io.Copy(tmp, r)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("%w: failed to store file: %v", ErrStorage, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: failed to store empty file", ErrStorage)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("%w: failed to store file: %v", ErrStorage, err)
	}
	return nil
}

func (s *LocalStorage) Load(_ context.Context, key string) ([]byte, error) {
	p, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: could not read file: %s", ErrFileNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: could not read file %s: %v", ErrStorage, key, err)
	}
	return data, nil
}

// Delete removes key. A missing file is not an error.
func (s *LocalStorage) Delete(_ context.Context, key string) error {
	p, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(p); err != nil {
		return fmt.Errorf("%w: delete %s: %v", ErrStorage, key, err)
	}
	return nil
}

func (s *LocalStorage) DeleteDir(ctx context.Context, prefix string) error {
	return s.Delete(ctx, prefix)
}
