package sensor

import (
	"context"
	"io"
	"log/slog"

	"github.com/ruvenwang/mindponics/internal/domain"
)

// Fallback reads from primary and switches to secondary when primary fails.
type Fallback struct {
	primary   domain.SensorSource
	secondary domain.SensorSource
	logger    *slog.Logger
}

// NewFallback chains two sources. A nil logger discards output.
func NewFallback(primary, secondary domain.SensorSource, logger *slog.Logger) *Fallback {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Fallback{primary: primary, secondary: secondary, logger: logger}
}

// Name implements domain.SensorSource.
func (f *Fallback) Name() string {
	return f.primary.Name() + "|" + f.secondary.Name()
}

// Read implements domain.SensorSource.
func (f *Fallback) Read(ctx context.Context) (domain.Reading, error) {
	r, err := f.primary.Read(ctx)
	if err == nil {
		return r, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	f.logger.Warn("sensor read failed, using fallback source",
		"primary", f.primary.Name(), "fallback", f.secondary.Name(), "error", err)
	return f.secondary.Read(ctx)
}
