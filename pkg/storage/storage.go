package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jarvis4everyone/subscription-backend/pkg/config"
	"github.com/jarvis4everyone/subscription-backend/pkg/logger"
)

// ErrNotFound is returned when the configured artifact does not exist.
var ErrNotFound = errors.New("object not found")

// Object is an opened artifact. Callers must close Body.
type Object struct {
	Body        io.ReadCloser
	Size        int64
	ModTime     time.Time
	ContentType string
}

// Source serves the single downloadable artifact.
type Source interface {
	Open(ctx context.Context) (*Object, error)
	Ping(ctx context.Context) error
}

// New selects the download source named in configuration.
func New(ctx context.Context, cfg config.DownloadConfig, logg *logger.Logger) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Source)) {
	case "", config.DownloadSourceLocal:
		return NewLocalSource(cfg.FilePath), nil
	case config.DownloadSourceMinio:
		return NewMinioSource(ctx, cfg, logg)
	default:
		return nil, fmt.Errorf("unsupported download source %q", cfg.Source)
	}
}
