package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"careermatch/internal/config"
	"careermatch/internal/errors"
)

// Sink names accepted by NewSink.
const (
	SinkLocal = "local"
	SinkS3    = "s3"
)

// Sink stores a rendered report and returns where it ended up.
type Sink interface {
	Save(ctx context.Context, name, contentType string, data []byte) (string, error)
}

// NewSink builds the sink selected by cfg.Sink.
func NewSink(ctx context.Context, cfg config.ReportsConfig) (Sink, error) {
	switch cfg.Sink {
	case "", SinkLocal:
		return NewLocalSink(cfg.Dir), nil
	case SinkS3:
		return NewS3Sink(ctx, cfg.S3)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("unknown report sink %q", cfg.Sink), nil)
	}
}

// LocalSink writes reports into a directory.
type LocalSink struct {
	dir string
}

// NewLocalSink returns a sink writing under dir. An empty dir means the
// working directory.
func NewLocalSink(dir string) *LocalSink {
	if dir == "" {
		dir = "."
	}
	return &LocalSink{dir: dir}
}

// Save writes data to dir/name, replacing any previous report.
func (s *LocalSink) Save(ctx context.Context, name, _ string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.dir, 0750); err != nil {
		return "", errors.NewIOError(errors.ErrCodeReportFailed, "failed to create report directory", err).
			WithContext("dir", s.dir)
	}

	path := filepath.Join(s.dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileWriteFailed, "failed to write report", err).
			WithContext("path", path)
	}
	return path, nil
}
