// Package filestore abstracts access to already-uploaded document files. The
// pipeline never writes files; upload handling happens upstream.
package filestore

import (
	"errors"
	"io/fs"
	"os"
)

// ErrNotFound reports a path that does not exist in the store.
var ErrNotFound = errors.New("file not found")

// Store is the file collaborator contract consumed by the pipeline.
type Store interface {
	Exists(path string) bool
	ReadBytes(path string) ([]byte, error)
	ReadText(path string) (string, error)
}

// Local serves files from the local filesystem.
type Local struct{}

// NewLocal constructs a filesystem-backed store.
func NewLocal() *Local {
	return &Local{}
}

func (l *Local) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func (l *Local) ReadBytes(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

func (l *Local) ReadText(path string) (string, error) {
	data, err := l.ReadBytes(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
