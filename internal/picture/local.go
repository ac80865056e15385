package picture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Local keeps pictures in a directory served under a URL prefix.
type Local struct {
	dir    string
	prefix string
}

func NewLocal(dir, prefix string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating uploads dir: %w", err)
	}

	return &Local{dir: dir, prefix: strings.TrimSuffix(prefix, "/")}, nil
}

func (l *Local) Dir() string {
	return l.dir
}

func (l *Local) Save(_ context.Context, up Upload) (string, error) {
	_, ext, err := Detect(up)
	if err != nil {
		return "", err
	}

	name := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(l.dir, name), up.Data, 0o644); err != nil {
		return "", fmt.Errorf("writing picture: %w", err)
	}

	return l.prefix + "/" + name, nil
}

func (l *Local) Open(_ context.Context, url string) (io.ReadCloser, error) {
	path, ok := l.path(url)
	if !ok {
		return nil, fmt.Errorf("picture %q is not stored locally", url)
	}

	return os.Open(path)
}

// Delete removes the picture. Missing files and foreign URLs are ignored.
func (l *Local) Delete(_ context.Context, url string) error {
	path, ok := l.path(url)
	if !ok {
		return nil
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing picture: %w", err)
	}

	return nil
}

func (l *Local) path(url string) (string, bool) {
	if !strings.HasPrefix(url, l.prefix+"/") {
		return "", false
	}

	name := filepath.Base(strings.TrimPrefix(url, l.prefix+"/"))
	if name == "." || name == "/" || name == ".." {
		return "", false
	}

	return filepath.Join(l.dir, name), true
}
