package fs

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/go-git/go-billy/v5"
)

// billyFile wraps a go-billy File and satisfies the File interface.
type billyFile struct {
	file billy.File
	fs   *BillyFS
}

// Close implements File.Close.
func (f *billyFile) Close() error {
	if err := f.file.Close(); err != nil {
		return fmt.Errorf("fs: close %q: %w", f.file.Name(), err)
	}
	return nil
}

// Name implements File.Name.
func (f *billyFile) Name() string {
	return f.file.Name()
}

// Read implements File.Read.
func (f *billyFile) Read(p []byte) (n int, err error) {
	n, err = f.file.Read(p)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return n, io.EOF
		}
		return n, fmt.Errorf("fs: read %q: %w", f.file.Name(), err)
	}
	return n, nil
}

// ReadAt implements File.ReadAt.
func (f *billyFile) ReadAt(p []byte, off int64) (n int, err error) {
	n, err = f.file.ReadAt(p, off)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return n, io.EOF
		}
		return n, fmt.Errorf("fs: readat %q off=%d: %w", f.file.Name(), off, err)
	}
	return n, nil
}

// Seek implements File.Seek.
func (f *billyFile) Seek(offset int64, whence int) (int64, error) {
	pos, err := f.file.Seek(offset, whence)
	if err != nil {
		return pos, fmt.Errorf("fs: seek %q off=%d whence=%d: %w", f.file.Name(), offset, whence, err)
	}
	return pos, nil
}

// Stat implements File.Stat.
func (f *billyFile) Stat() (fs.FileInfo, error) {
	info, err := f.fs.Stat(f.file.Name())
	if err != nil {
		return nil, fmt.Errorf("fs: stat %q: %w", f.file.Name(), err)
	}
	return info, nil
}

// Write implements File.Write.
func (f *billyFile) Write(p []byte) (n int, err error) {
	n, err = f.file.Write(p)
	if err != nil {
		return n, fmt.Errorf("fs: write %q: %w", f.file.Name(), err)
	}
	return n, nil
}
