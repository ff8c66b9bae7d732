package fs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

// BillyFS implements Filesystem using go-billy.
type BillyFS struct {
	fs billy.Filesystem
}

// NewFS creates a new BillyFS using the given go-billy filesystem.
func NewFS(fsys billy.Filesystem) *BillyFS {
	return &BillyFS{fs: fsys}
}

// NewInMemoryFS creates a new in-memory filesystem.
func NewInMemoryFS() *BillyFS {
	return &BillyFS{fs: memfs.New()}
}

// NewOSFS creates a new OS filesystem rooted at path.
func NewOSFS(path string) *BillyFS {
	return &BillyFS{fs: osfs.New(path)}
}

// Create implements Filesystem.Create.
//
//nolint:ireturn // API returns the File interface by design for flexibility.
func (b *BillyFS) Create(name string) (File, error) {
	f, err := b.fs.Create(name)
	if err != nil {
		return nil, fmt.Errorf("fs: create %q: %w", name, err)
	}
	return &billyFile{file: f, fs: b}, nil
}

// Exists implements Filesystem.Exists.
func (b *BillyFS) Exists(path string) (bool, error) {
	_, err := b.fs.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, fmt.Errorf("fs: stat %q: %w", path, err)
	}
}

// MkdirAll implements Filesystem.MkdirAll.
func (b *BillyFS) MkdirAll(path string, perm os.FileMode) error {
	if err := b.fs.MkdirAll(path, perm); err != nil {
		return fmt.Errorf("fs: mkdirall %q: %w", path, err)
	}
	return nil
}

// Open implements Filesystem.Open.
//
//nolint:ireturn // API returns the File interface by design for flexibility.
func (b *BillyFS) Open(name string) (File, error) {
	f, err := b.fs.Open(name)
	if err != nil {
		return nil, fmt.Errorf("fs: open %q: %w", name, err)
	}
	return &billyFile{file: f, fs: b}, nil
}

// OpenFile implements Filesystem.OpenFile.
//
//nolint:ireturn // API returns the File interface by design for flexibility.
func (b *BillyFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	f, err := b.fs.OpenFile(name, flag, perm)
	if err != nil {
		return nil, fmt.Errorf("fs: openfile %q: %w", name, err)
	}
	return &billyFile{file: f, fs: b}, nil
}

// ReadDir implements Filesystem.ReadDir.
func (b *BillyFS) ReadDir(dirname string) ([]os.FileInfo, error) {
	list, err := b.fs.ReadDir(dirname)
	if err != nil {
		return nil, fmt.Errorf("fs: readdir %q: %w", dirname, err)
	}
	return list, nil
}

// ReadFile implements Filesystem.ReadFile.
func (b *BillyFS) ReadFile(path string) ([]byte, error) {
	bts, err := util.ReadFile(b.fs, path)
	if err != nil {
		return nil, fmt.Errorf("fs: readfile %q: %w", path, err)
	}
	return bts, nil
}

// Remove implements Filesystem.Remove.
func (b *BillyFS) Remove(name string) error {
	if err := b.fs.Remove(name); err != nil {
		return fmt.Errorf("fs: remove %q: %w", name, err)
	}
	return nil
}

// RemoveAll implements Filesystem.RemoveAll. Removing a path that does not
// exist is a no-op, matching os.RemoveAll.
func (b *BillyFS) RemoveAll(path string) error {
	if err := util.RemoveAll(b.fs, path); err != nil {
		return fmt.Errorf("fs: removeall %q: %w", path, err)
	}
	return nil
}

// Stat implements Filesystem.Stat.
func (b *BillyFS) Stat(name string) (os.FileInfo, error) {
	info, err := b.fs.Stat(name)
	if err != nil {
		return nil, fmt.Errorf("fs: stat %q: %w", name, err)
	}
	return info, nil
}

// TempDir implements Filesystem.TempDir.
func (b *BillyFS) TempDir(dir, prefix string) (string, error) {
	name, err := util.TempDir(b.fs, dir, prefix)
	if err != nil {
		return "", fmt.Errorf("fs: tempdir dir=%q prefix=%q: %w", dir, prefix, err)
	}
	return name, nil
}

// Walk implements Filesystem.Walk.
func (b *BillyFS) Walk(root string, walkFn filepath.WalkFunc) error {
	if err := util.Walk(b.fs, root, walkFn); err != nil {
		return fmt.Errorf("fs: walk %q: %w", root, err)
	}
	return nil
}

// WriteFile implements Filesystem.WriteFile.
func (b *BillyFS) WriteFile(filename string, data []byte, perm os.FileMode) error {
	if err := util.WriteFile(b.fs, filename, data, perm); err != nil {
		return fmt.Errorf("fs: writefile %q: %w", filename, err)
	}
	return nil
}

// Raw returns the underlying go-billy filesystem.
//
//nolint:ireturn // returning the interface exposes the adapter target.
func (b *BillyFS) Raw() billy.Filesystem {
	return b.fs
}
