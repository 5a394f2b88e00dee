package store

import (
	"context"
	"io"
	"os"
	"path/filepath"
)

// FilesystemLocal stores files below a base directory.
type FilesystemLocal struct {
	basePath string
}

func NewFilesystemLocal(basePath string) *FilesystemLocal {
	return &FilesystemLocal{basePath: basePath}
}

// Write streams reader into path, creating parent directories. The copy
// stops when ctx is cancelled.
func (fs *FilesystemLocal) Write(ctx context.Context, path string, reader io.Reader, size int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fullPath := filepath.Join(fs.basePath, path)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return err
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return err
	}

	if _, err := io.Copy(file, contextReader{ctx: ctx, r: reader}); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func (fs *FilesystemLocal) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.Open(filepath.Join(fs.basePath, path))
}

// contextReader fails reads once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr contextReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(p)
}
