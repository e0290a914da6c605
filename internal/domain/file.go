// Package domain contains the core types shared by the docqa controllers
// and the stub backend.
package domain

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// File is a client-side handle to a candidate document. Content is read
// only when the file is submitted.
type File struct {
	Name string // base name; the pending set is unique by Name
	Path string
	Size int64

	data []byte
}

// FileFromPath stats path and returns a handle for it.
func FileFromPath(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("%s is a directory", path)
	}
	return File{
		Name: filepath.Base(path),
		Path: path,
		Size: info.Size(),
	}, nil
}

// NewMemoryFile returns a handle whose content lives in memory.
func NewMemoryFile(name string, data []byte) File {
	return File{Name: name, Size: int64(len(data)), data: data}
}

// Open returns the file content.
func (f File) Open() (io.ReadCloser, error) {
	if f.data != nil {
		return io.NopCloser(bytes.NewReader(f.data)), nil
	}
	if f.Path == "" {
		return nil, fmt.Errorf("file %s has no content", f.Name)
	}
	return os.Open(f.Path)
}

// HasExtension reports whether the lowercased name ends with ext.
func (f File) HasExtension(ext string) bool {
	return strings.HasSuffix(strings.ToLower(f.Name), strings.ToLower(ext))
}
