package sensor

import (
	"context"

	"github.com/ruvenwang/mindponics/internal/domain"
)

// Static always returns the same reading. Used for fixed installations
// without live probes and in tests.
type Static struct {
	reading domain.Reading
}

// NewStatic copies values into a static source.
func NewStatic(values map[string]float64) *Static {
	return &Static{reading: domain.Reading(values).Clone()}
}

// Name implements domain.SensorSource.
func (s *Static) Name() string { return "static" }

// Read implements domain.SensorSource. Callers get their own copy.
func (s *Static) Read(ctx context.Context) (domain.Reading, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.reading.Clone(), nil
}
