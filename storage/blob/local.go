package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps files on the local filesystem under a base directory.
type LocalStore struct {
	baseDir string
}

var _ Store = (*LocalStore)(nil)

func NewLocalStore(baseDir string) *LocalStore {
	return &LocalStore{baseDir: filepath.Clean(baseDir)}
}

// FullPath resolves a store-relative path onto the filesystem.
func (s *LocalStore) FullPath(p string) (string, error) {
	cleaned, err := Clean(p)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.baseDir, filepath.FromSlash(cleaned)), nil
}

// RelativePath strips the base directory from a filesystem path.
func (s *LocalStore) RelativePath(full string) string {
	rel := strings.TrimPrefix(filepath.Clean(full), s.baseDir+string(filepath.Separator))
	return filepath.ToSlash(rel)
}

func (s *LocalStore) EnsureDir(ctx context.Context, dir string) error {
	full, err := s.FullPath(dir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(full, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return nil
}

func (s *LocalStore) Write(ctx context.Context, p string, r io.Reader) (int64, error) {
	full, err := s.FullPath(p)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}

	dst, err := os.Create(full)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	n, copyErr := io.Copy(dst, r)
	closeErr := dst.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		// Never leave a truncated file behind.
		_ = os.Remove(full)
		return 0, fmt.Errorf("failed to write file: %w", copyErr)
	}
	return n, nil
}

func (s *LocalStore) Delete(ctx context.Context, p string) error {
	full, err := s.FullPath(p)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *LocalStore) Exists(ctx context.Context, p string) (bool, error) {
	full, err := s.FullPath(p)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(full)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (s *LocalStore) List(ctx context.Context, prefix string) ([]string, error) {
	root, err := s.FullPath(prefix)
	if err != nil {
		return nil, err
	}
	var files []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if errors.Is(walkErr, fs.ErrNotExist) {
				return nil
			}
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, s.RelativePath(p))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
