package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStorage implements Storage on the local filesystem. The directory is
// served under baseURL by the router's static handler.
type LocalStorage struct {
	basePath string
	baseURL  string
}

// NewLocalStorage creates basePath if needed. baseURL is the URL prefix the
// files are served under, e.g. "/uploads".
func NewLocalStorage(basePath, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &LocalStorage{
		basePath: basePath,
		baseURL:  "/" + strings.Trim(baseURL, "/"),
	}, nil
}

// resolve maps a key to a path inside basePath. Keys may not escape it.
func (s *LocalStorage) resolve(key string) (string, error) {
	if key == "" || !fs.ValidPath(key) {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.basePath, filepath.FromSlash(key)), nil
}

// Put writes a new file. The file is created with O_EXCL so an existing key
// is never overwritten. A partial file is removed when the copy fails.
func (s *LocalStorage) Put(ctx context.Context, key string, content io.Reader, opts PutOptions) (string, error) {
	fullPath, err := s.resolve(key)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", ErrUploadFailed(err)
	}

	file, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", ErrObjectExists(key)
		}
		return "", ErrUploadFailed(err)
	}

	if _, err := io.Copy(file, ctxReader{ctx: ctx, r: content}); err != nil {
		file.Close()
		os.Remove(fullPath)
		return "", ErrUploadFailed(err)
	}
	if err := file.Close(); err != nil {
		os.Remove(fullPath)
		return "", ErrUploadFailed(err)
	}

	return s.URL(key), nil
}

func (s *LocalStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	fullPath, err := s.resolve(key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrFileNotFound(key)
		}
		return nil, errBackend("failed to open file", err)
	}

	return file, nil
}

func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	fullPath, err := s.resolve(key)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errBackend("failed to delete file", err)
	}

	return nil
}

// URL joins the key onto the base URL with forward slashes on every OS.
func (s *LocalStorage) URL(key string) string {
	return path.Join(s.baseURL, key)
}

func (s *LocalStorage) Exists(ctx context.Context, key string) (bool, error) {
	fullPath, err := s.resolve(key)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, errBackend("failed to check file existence", err)
	}

	return true, nil
}

// ctxReader stops a copy once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
