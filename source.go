package inpdeck

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Source provides deck text to Load.
type Source interface {
	// Open returns the deck content and a name used in error messages.
	Open() (io.ReadCloser, string, error)
}

// --- File Source ---

type fileSource struct {
	path string
}

// File returns a Source that reads the deck at path when loaded.
func File(path string) Source {
	return &fileSource{path: path}
}

func (s *fileSource) Open() (io.ReadCloser, string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, s.path, fmt.Errorf("open deck: %w", err)
	}
	return f, s.path, nil
}

// --- FS Source ---

type fsSource struct {
	fsys fs.FS
	name string
}

// FS returns a Source that reads name from fsys, e.g. an embed.FS.
func FS(fsys fs.FS, name string) Source {
	return &fsSource{fsys: fsys, name: name}
}

func (s *fsSource) Open() (io.ReadCloser, string, error) {
	f, err := s.fsys.Open(s.name)
	if err != nil {
		return nil, s.name, fmt.Errorf("open deck: %w", err)
	}
	return f, s.name, nil
}

// --- Bytes and Reader Sources ---

type readerSource struct {
	name string
	open func() io.Reader
}

// Bytes returns a Source over in-memory deck text. It can be loaded any
// number of times.
func Bytes(name string, data []byte) Source {
	return &readerSource{name: name, open: func() io.Reader { return bytes.NewReader(data) }}
}

// String returns a Source over deck text held in a string.
func String(name, text string) Source {
	return &readerSource{name: name, open: func() io.Reader { return strings.NewReader(text) }}
}

// Reader returns a Source that streams from r. The Source can be loaded
// once; r is not closed.
func Reader(name string, r io.Reader) Source {
	return &readerSource{name: name, open: func() io.Reader { return r }}
}

func (s *readerSource) Open() (io.ReadCloser, string, error) {
	return io.NopCloser(s.open()), s.name, nil
}

// dialectForName guesses a dialect from a source name's extension.
func dialectForName(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".bdf", ".dat", ".nas":
		return DialectBDF
	}
	return DialectINP
}
