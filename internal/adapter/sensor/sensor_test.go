package sensor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruvenwang/mindponics/internal/domain"
	"github.com/ruvenwang/mindponics/internal/infra/config"
)

func TestSimulatorRanges(t *testing.T) {
	sim := NewSimulator(42)
	for range 200 {
		r, err := sim.Read(context.Background())
		require.NoError(t, err)
		for _, b := range simulatedBands {
			v, ok := r[b.key]
			require.True(t, ok, "missing %s", b.key)
			assert.GreaterOrEqual(t, v, b.low, b.key)
			assert.LessOrEqual(t, v, b.high, b.key)
		}
		light := r[domain.ParamLightLevel]
		assert.GreaterOrEqual(t, light, 300.0)
		assert.LessOrEqual(t, light, 1000.0)
		assert.Equal(t, float64(int(light)), light, "light level is whole")
	}
}

func TestSimulatorSeedIsReproducible(t *testing.T) {
	a, _ := NewSimulator(7).Read(context.Background())
	b, _ := NewSimulator(7).Read(context.Background())
	assert.Equal(t, a, b)
}

func TestSimulatorRespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewSimulator(1).Read(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStaticReturnsCopies(t *testing.T) {
	values := map[string]float64{domain.ParamPH: 6.9}
	s := NewStatic(values)
	values[domain.ParamPH] = 1

	r, err := s.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6.9, r[domain.ParamPH])

	r[domain.ParamPH] = 3
	r2, _ := s.Read(context.Background())
	assert.Equal(t, 6.9, r2[domain.ParamPH])
}

func TestFileFormats(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
		want    domain.Reading
	}{
		{"flat json", `{"ph": 7.2, "ammonia": 0.3}`, domain.Reading{"ph": 7.2, "ammonia": 0.3}},
		{"nested yaml", "readings:\n  nitrate: 60\n  oxygen: 5.5\n", domain.Reading{"nitrate": 60, "oxygen": 5.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0600))
			got, err := NewFile(path).Read(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFileErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := NewFile(filepath.Join(dir, "missing.json")).Read(context.Background())
	assert.ErrorIs(t, err, domain.ErrSensorRead)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"ph": "acidic"}`), 0600))
	_, err = NewFile(bad).Read(context.Background())
	assert.ErrorIs(t, err, domain.ErrSensorRead)

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{}`), 0600))
	_, err = NewFile(empty).Read(context.Background())
	assert.ErrorIs(t, err, domain.ErrSensorRead)
}

type failingSource struct{}

func (failingSource) Read(context.Context) (domain.Reading, error) { return nil, errors.New("probe offline") }
func (failingSource) Name() string                                 { return "probe" }

func TestFallback(t *testing.T) {
	fb := NewFallback(failingSource{}, NewStatic(map[string]float64{"ph": 7}), nil)
	assert.Equal(t, "probe|static", fb.Name())

	r, err := fb.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7.0, r["ph"])

	ok := NewFallback(NewStatic(map[string]float64{"ph": 6.5}), failingSource{}, nil)
	r, err = ok.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6.5, r["ph"])
}

func TestNew(t *testing.T) {
	src, err := New(config.SensorConfig{Type: "simulator"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "simulator", src.Name())

	src, err = New(config.SensorConfig{Type: "file", Path: "/data/latest.json", Fallback: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, "file:/data/latest.json|simulator", src.Name())

	src, err = New(config.SensorConfig{Type: "static", Values: map[string]float64{"ph": 7}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "static", src.Name())

	_, err = New(config.SensorConfig{Type: "modbus"}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
