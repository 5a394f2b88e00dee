// Package store writes exported workbooks to a destination: a local
// directory, an in-memory filesystem or an S3 bucket.
package store

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/andys/ifsc_enricher/config"
)

const (
	SchemeS3     = "s3"
	SchemeMemory = "mem"
)

// Filesystem is a destination that files can be written to and read back from.
type Filesystem interface {
	Write(ctx context.Context, path string, reader io.Reader, size int64) error
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

var sharedMemory = NewFilesystemMemory()

// SharedMemory returns the in-memory filesystem behind mem:// locations. Its
// files live as long as the process.
func SharedMemory() *FilesystemMemory {
	return sharedMemory
}

// FromURL picks a filesystem for an output location and returns the path of
// the file within it. Supported forms are s3://bucket/key, mem://name and a
// plain file path. Every mem:// location resolves to SharedMemory.
func FromURL(raw string) (Filesystem, string, error) {
	if raw == "" {
		return nil, "", fmt.Errorf("empty output location")
	}
	if !strings.Contains(raw, "://") {
		return NewFilesystemLocal(filepath.Dir(raw)), filepath.Base(raw), nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, "", fmt.Errorf("invalid output location: %w", err)
	}
	key := strings.TrimPrefix(u.Path, "/")

	switch u.Scheme {
	case SchemeS3:
		if u.Host == "" || key == "" {
			return nil, "", fmt.Errorf("s3 output needs a bucket and a key: %s", raw)
		}
		fs, err := NewFilesystemS3(S3ConfigFromEnv(u.Host))
		if err != nil {
			return nil, "", err
		}
		return fs, key, nil
	case SchemeMemory:
		name := u.Host
		if key != "" {
			name = u.Host + "/" + key
		}
		if name == "" {
			return nil, "", fmt.Errorf("memory output needs a file name: %s", raw)
		}
		return sharedMemory, name, nil
	case "file":
		return NewFilesystemLocal(filepath.Dir(u.Path)), filepath.Base(u.Path), nil
	default:
		return nil, "", fmt.Errorf("unsupported output scheme: %s (supported: s3, mem, file)", u.Scheme)
	}
}

// S3ConfigFromEnv reads S3 settings for bucket from the environment.
func S3ConfigFromEnv(bucket string) S3Config {
	return S3Config{
		Endpoint:        os.Getenv("S3_ENDPOINT"),
		Region:          config.GetEnvOrDefault("S3_REGION", "us-east-1"),
		BucketName:      bucket,
		AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
	}
}
