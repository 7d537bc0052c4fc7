package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalSource serves a file from the local filesystem.
type LocalSource struct {
	path string
	cwd  func() (string, error)
}

func NewLocalSource(path string) *LocalSource {
	return &LocalSource{path: path, cwd: os.Getwd}
}

// Resolve returns the first existing candidate path. When none exists the first
// candidate is returned with ErrNotFound so callers can log where they looked.
func (s *LocalSource) Resolve() (string, error) {
	candidates := s.candidates()
	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	if len(candidates) == 0 {
		return "", ErrNotFound
	}
	return candidates[0], ErrNotFound
}

func (s *LocalSource) candidates() []string {
	configured := strings.TrimSpace(s.path)
	if configured == "" {
		return nil
	}
	if filepath.IsAbs(configured) {
		return []string{filepath.Clean(configured)}
	}

	base, err := s.cwd()
	if err != nil {
		base = "."
	}
	trimmed := strings.TrimPrefix(configured, "./")
	out := []string{filepath.Join(base, trimmed)}

	// A path naming "downloads" also matches the hidden ".downloads" directory.
	if strings.Contains(trimmed, "downloads") && !strings.HasPrefix(trimmed, ".") {
		out = append(out, filepath.Join(base, strings.Replace(trimmed, "downloads", ".downloads", 1)))
	}
	return out
}

func (s *LocalSource) Open(ctx context.Context) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.Resolve()
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, path)
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Object{
		Body:        f,
		Size:        info.Size(),
		ModTime:     info.ModTime(),
		ContentType: "application/zip",
	}, nil
}

func (s *LocalSource) Ping(context.Context) error {
	_, err := s.Resolve()
	return err
}
