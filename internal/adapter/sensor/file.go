package sensor

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ruvenwang/mindponics/internal/domain"
)

// File reads the latest values from a JSON or YAML document written by an
// external data logger, re-reading it on every call. The document is either
// a flat map of parameter to value or has the values under "readings".
type File struct {
	path string
}

// NewFile creates a file-backed source.
func NewFile(path string) *File {
	return &File{path: path}
}

// Name implements domain.SensorSource.
func (f *File) Name() string { return "file:" + f.path }

type fileDocument struct {
	Readings map[string]float64 `yaml:"readings"`
}

// Read implements domain.SensorSource.
func (f *File) Read(ctx context.Context) (domain.Reading, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, domain.WrapOp("sensor.File.Read", fmt.Errorf("%w: %v", domain.ErrSensorRead, err))
	}

	var doc fileDocument
	if err := yaml.Unmarshal(data, &doc); err == nil && len(doc.Readings) > 0 {
		return domain.Reading(doc.Readings), nil
	}

	var flat map[string]float64
	if err := yaml.Unmarshal(data, &flat); err != nil {
		return nil, domain.WrapOp("sensor.File.Read", fmt.Errorf("%w: parse %s: %v", domain.ErrSensorRead, f.path, err))
	}
	if len(flat) == 0 {
		return nil, domain.WrapOp("sensor.File.Read", fmt.Errorf("%w: %s has no readings", domain.ErrSensorRead, f.path))
	}
	return domain.Reading(flat), nil
}
