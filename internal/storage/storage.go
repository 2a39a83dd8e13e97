package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/myflix-app/apiserver/config"
)

// ErrNotFound is returned by Get when the object does not exist.
var ErrNotFound = errors.New("storage: object not found")

// Object is an open object stream with its metadata.
type Object struct {
	io.ReadCloser
	ContentType string
	Size        int64
}

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (*Object, error)
	Bucket() string
	Close() error
}

// Storage wraps an ObjectStorage backend with a stable API.
type Storage struct {
	backend ObjectStorage
}

// NewStorage constructs a Storage wrapper for the provided backend.
func NewStorage(backend ObjectStorage) *Storage {
	return &Storage{backend: backend}
}

// Open builds the backend selected by cfg.AssetsBackend. It returns nil and
// no error when no backend is configured.
func Open(ctx context.Context, cfg config.Config) (*Storage, error) {
	switch cfg.AssetsBackend {
	case "":
		return nil, nil
	case "minio":
		client, err := NewMinioClient(cfg.Minio)
		if err != nil {
			return nil, err
		}
		return NewStorage(client), nil
	case "gcs":
		client, err := NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		return NewStorage(client), nil
	default:
		return nil, fmt.Errorf("unknown assets backend %q", cfg.AssetsBackend)
	}
}

// CleanKey normalizes an object key taken from a URL or a relative file
// path. It returns "" for keys that escape the bucket root.
func CleanKey(key string) string {
	key = strings.ReplaceAll(key, "\\", "/")
	for _, segment := range strings.Split(key, "/") {
		if segment == ".." {
			return ""
		}
	}
	cleaned := path.Clean("/" + key)
	if cleaned == "/" {
		return ""
	}
	return strings.TrimPrefix(cleaned, "/")
}

// EnsureBucket ensures the configured bucket exists.
func (s *Storage) EnsureBucket(ctx context.Context) error {
	return s.backend.EnsureBucket(ctx)
}

// Put uploads an object to the configured bucket.
func (s *Storage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	return s.backend.Put(ctx, key, r, size, contentType)
}

// Get opens an object in the configured bucket. The caller closes it.
func (s *Storage) Get(ctx context.Context, key string) (*Object, error) {
	return s.backend.Get(ctx, key)
}

// Bucket returns the configured bucket name.
func (s *Storage) Bucket() string {
	return s.backend.Bucket()
}

func (s *Storage) Close() error {
	return s.backend.Close()
}
