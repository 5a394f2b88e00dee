package store

import (
	"context"
	"io"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
)

// FilesystemMemory keeps files in memory. Contents live as long as the value.
type FilesystemMemory struct {
	mu sync.Mutex
	fs billy.Filesystem
}

func NewFilesystemMemory() *FilesystemMemory {
	return &FilesystemMemory{fs: memfs.New()}
}

// Write replaces the file at path with the contents of reader.
func (m *FilesystemMemory) Write(ctx context.Context, path string, reader io.Reader, size int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	file, err := m.fs.Create(path)
	if err != nil {
		return err
	}

	if _, err := io.Copy(file, contextReader{ctx: ctx, r: reader}); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func (m *FilesystemMemory) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fs.Open(path)
}

// Size returns the size of the file at path.
func (m *FilesystemMemory) Size(path string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	info, err := m.fs.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
