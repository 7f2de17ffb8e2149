package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/qorinti/ledger_backend/internal/core/ports/gateways"
)

// LocalStorage writes blobs under a directory that the HTTP server exposes at /files.
type LocalStorage struct {
	root    string
	baseURL string
}

var _ gateways.BlobStorage = (*LocalStorage)(nil)

// FilesRoute is where the HTTP server mounts the local blob directory.
const FilesRoute = "/files"

// NewLocalStorage creates root if needed. URLs are built as baseURL + FilesRoute + path.
func NewLocalStorage(root, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir %s: %w", root, err)
	}
	return &LocalStorage{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Put writes data atomically under path.
func (l *LocalStorage) Put(ctx context.Context, path, _ string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean := filepath.Clean("/" + path)
	if clean == "/" {
		return "", fmt.Errorf("invalid blob path %q", path)
	}
	target := filepath.Join(l.root, filepath.FromSlash(clean))

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create blob dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp blob: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close blob: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("move blob into place: %w", err)
	}
	return l.baseURL + FilesRoute + filepath.ToSlash(clean), nil
}
