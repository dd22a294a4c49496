package memory

import (
	"bytes"
	"io"
)

// File implements ports.File over an in-memory buffer.
type File struct {
	name string
	typ  string
	data []byte
}

// NewFile creates a file. typ may be empty to let consumers sniff the content.
func NewFile(name, typ string, data []byte) *File {
	return &File{name: name, typ: typ, data: data}
}

func (f *File) Name() string { return f.name }
func (f *File) Type() string { return f.typ }
func (f *File) Size() int64  { return int64(len(f.data)) }

// Open returns a reader over the file content.
func (f *File) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.data)), nil
}
