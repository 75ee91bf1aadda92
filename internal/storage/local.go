package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// LocalStorage reads quote documents from a directory. Lookups go through an
// os.Root, so no key can resolve outside the directory even through symlinks.
type LocalStorage struct {
	root   *os.Root
	logger *slog.Logger
}

// NewLocalStorage opens cfg.BasePath, creating it when missing.
func NewLocalStorage(cfg LocalConfig, logger *slog.Logger) (*LocalStorage, error) {
	if cfg.BasePath == "" {
		return nil, fmt.Errorf("local storage requires a base path")
	}
	if err := os.MkdirAll(cfg.BasePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	root, err := os.OpenRoot(cfg.BasePath)
	if err != nil {
		return nil, fmt.Errorf("open storage directory: %w", err)
	}

	logger.Info("Initialized local storage", "base_path", root.Name())
	return &LocalStorage{root: root, logger: logger}, nil
}

// Close releases the directory handle.
func (s *LocalStorage) Close() error {
	return s.root.Close()
}

// Get opens the file stored at key.
func (s *LocalStorage) Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, ObjectInfo{}, err
	}
	if err := validateKey(key); err != nil {
		return nil, ObjectInfo{}, &StorageError{Op: "get", Key: key, Err: err}
	}

	f, err := s.root.Open(filepath.FromSlash(key))
	if err != nil {
		return nil, ObjectInfo{}, &StorageError{Op: "get", Key: key, Err: fromFSError(err)}
	}

	info, err := s.objectInfo(f, key)
	if err != nil {
		f.Close()
		return nil, ObjectInfo{}, &StorageError{Op: "get", Key: key, Err: err}
	}
	return f, info, nil
}

// Stat returns the metadata of the file stored at key.
func (s *LocalStorage) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, err
	}
	if err := validateKey(key); err != nil {
		return ObjectInfo{}, &StorageError{Op: "stat", Key: key, Err: err}
	}

	fi, err := s.root.Stat(filepath.FromSlash(key))
	if err != nil {
		return ObjectInfo{}, &StorageError{Op: "stat", Key: key, Err: fromFSError(err)}
	}
	if fi.IsDir() {
		return ObjectInfo{}, &StorageError{Op: "stat", Key: key, Err: ErrNotFound}
	}
	return fileInfo(key, fi), nil
}

func (s *LocalStorage) objectInfo(f *os.File, key string) (ObjectInfo, error) {
	fi, err := f.Stat()
	if err != nil {
		return ObjectInfo{}, err
	}
	if fi.IsDir() {
		return ObjectInfo{}, ErrNotFound
	}
	return fileInfo(key, fi), nil
}

func fileInfo(key string, fi fs.FileInfo) ObjectInfo {
	return ObjectInfo{
		Key:          key,
		Size:         fi.Size(),
		ContentType:  DetectContentType("", key),
		LastModified: fi.ModTime(),
	}
}

// fromFSError maps filesystem errors onto the package sentinels.
func fromFSError(err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ErrNotFound
	case errors.Is(err, fs.ErrPermission):
		return ErrAccessDenied
	}
	return err
}

var _ Storage = (*LocalStorage)(nil)
