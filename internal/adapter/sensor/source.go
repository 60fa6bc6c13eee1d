package sensor

import (
	"fmt"
	"log/slog"

	"github.com/ruvenwang/mindponics/internal/domain"
	"github.com/ruvenwang/mindponics/internal/infra/config"
)

// New builds the configured source. With cfg.Fallback set, static and file
// sources fall back to the simulator when they cannot be read.
func New(cfg config.SensorConfig, logger *slog.Logger) (domain.SensorSource, error) {
	var src domain.SensorSource
	switch cfg.Type {
	case "simulator", "":
		return NewSimulator(cfg.Seed), nil
	case "static":
		src = NewStatic(cfg.Values)
	case "file":
		src = NewFile(cfg.Path)
	default:
		return nil, domain.NewDomainError("sensor.New", domain.ErrInvalidInput, fmt.Sprintf("unknown sensor type %q", cfg.Type))
	}
	if cfg.Fallback {
		src = NewFallback(src, NewSimulator(cfg.Seed), logger)
	}
	return src, nil
}
