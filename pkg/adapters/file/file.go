package file

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
)

// LocalFile implements ports.File over a path on disk.
type LocalFile struct {
	path string
	size int64
	typ  string
}

// Open stats path and guesses its MIME type from the extension.
func Open(path string) (*LocalFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return &LocalFile{
		path: path,
		size: info.Size(),
		typ:  mime.TypeByExtension(filepath.Ext(path)),
	}, nil
}

func (f *LocalFile) Name() string { return filepath.Base(f.path) }
func (f *LocalFile) Type() string { return f.typ }
func (f *LocalFile) Size() int64  { return f.size }

func (f *LocalFile) Open() (io.ReadCloser, error) {
	return os.Open(f.path)
}
