package receipt

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/zombor/receipt-pipeline/internal/scanning"
)

// Storage defines the interface for reading uploaded receipt objects
type Storage interface {
	// Exists returns an error when the object is missing or unreadable
	Exists(ctx context.Context, loc scanning.Location) error

	// Get downloads an object and returns its data and content type
	Get(ctx context.Context, loc scanning.Location) ([]byte, string, error)
}

// LocalStorage implements the Storage interface using the local filesystem.
// Buckets map to subdirectories of the base path.
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new LocalStorage instance
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	return &LocalStorage{
		basePath: basePath,
	}, nil
}

func (l *LocalStorage) path(loc scanning.Location) (string, error) {
	for _, segment := range strings.Split(loc.Bucket+"/"+loc.Key, "/") {
		if segment == ".." {
			return "", fmt.Errorf("path traversal detected in %s", loc)
		}
	}
	return filepath.Join(l.basePath, loc.Bucket, filepath.FromSlash(loc.Key)), nil
}

// Exists checks that the object is a readable regular file
func (l *LocalStorage) Exists(ctx context.Context, loc scanning.Location) error {
	path, err := l.path(loc)
	if err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("not a regular file: %s", loc)
	}
	return nil
}

// Get retrieves a file from local storage
func (l *LocalStorage) Get(ctx context.Context, loc scanning.Location) ([]byte, string, error) {
	path, err := l.path(loc)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("reading file: %w", err)
	}
	return data, http.DetectContentType(data), nil
}
