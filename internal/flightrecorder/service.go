// Package flightrecorder keeps a rolling execution trace in memory and writes it to disk when a request runs out
// of time, e.g. when a language model call stalls a plan request.
package flightrecorder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/trace"
	"sync/atomic"
	"time"

	"github.com/myrjola/liftcoach/internal/errors"
)

const (
	defaultMinAge   = 5 * time.Minute
	defaultMaxBytes = 64 * 1024 * 1024
	defaultCooldown = 30 * time.Minute
)

// Service writes the flight recorder buffer to TracesDirectory at most once per Cooldown.
type Service struct {
	logger          *slog.Logger
	recorder        *trace.FlightRecorder
	tracesDirectory string
	cooldown        time.Duration
	lastCapture     atomic.Int64
}

// Config configures the flight recorder. Zero values select the defaults.
type Config struct {
	MinAge          time.Duration
	MaxBytes        uint64
	Cooldown        time.Duration
	TracesDirectory string
}

// New creates the traces directory if needed. Recording starts with Start.
func New(cfg Config, logger *slog.Logger) (*Service, error) {
	if cfg.TracesDirectory == "" {
		return nil, errors.New("traces directory is required")
	}
	if err := os.MkdirAll(cfg.TracesDirectory, 0o700); err != nil { //nolint:mnd // owner only
		return nil, errors.Wrap(err, "create traces directory", slog.String("dir", cfg.TracesDirectory))
	}
	if cfg.MinAge == 0 {
		cfg.MinAge = defaultMinAge
	}
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = defaultMaxBytes
	}
	if cfg.Cooldown == 0 {
		cfg.Cooldown = defaultCooldown
	}
	return &Service{
		logger:          logger,
		recorder:        trace.NewFlightRecorder(trace.FlightRecorderConfig{MinAge: cfg.MinAge, MaxBytes: cfg.MaxBytes}),
		tracesDirectory: cfg.TracesDirectory,
		cooldown:        cfg.Cooldown,
		lastCapture:     atomic.Int64{},
	}, nil
}

// Start begins recording. It fails if another flight recorder is already active in the process.
func (s *Service) Start(ctx context.Context) error {
	if err := s.recorder.Start(); err != nil {
		return errors.Wrap(err, "start flight recorder")
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "flight recorder started",
		slog.String("dir", s.tracesDirectory), slog.Duration("cooldown", s.cooldown))
	return nil
}

// Stop ends recording.
func (s *Service) Stop(ctx context.Context) {
	s.recorder.Stop()
	s.logger.LogAttrs(ctx, slog.LevelInfo, "flight recorder stopped")
}

// Capture writes the recorded trace to a file named after reason and returns its path. Captures within the
// cooldown are skipped and return an empty path.
func (s *Service) Capture(ctx context.Context, reason string) (string, error) {
	now := time.Now()
	last := s.lastCapture.Load()
	if last != 0 && now.Sub(time.Unix(0, last)) < s.cooldown {
		s.logger.LogAttrs(ctx, slog.LevelDebug, "skipping trace capture due to cooldown",
			slog.Time("last_capture", time.Unix(0, last)))
		return "", nil
	}
	if !s.lastCapture.CompareAndSwap(last, now.UnixNano()) {
		return "", nil
	}

	path := filepath.Join(s.tracesDirectory, fmt.Sprintf("%s-%s.trace", reason, now.UTC().Format("20060102-150405")))
	file, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, "create trace file", slog.String("file", path))
	}
	written, err := s.recorder.WriteTo(file)
	if closeErr := file.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		return "", errors.Wrap(err, "write trace", slog.String("file", path))
	}
	s.logger.LogAttrs(ctx, slog.LevelWarn, "captured trace",
		slog.String("file", path), slog.String("reason", reason), slog.Int64("bytes", written))
	return path, nil
}
