// Package sensor provides the reading sources behind the water and
// environment advisors.
package sensor

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/ruvenwang/mindponics/internal/domain"
)

// band is a simulated parameter range with its display precision.
type band struct {
	key      string
	low      float64
	high     float64
	decimals int
}

// simulatedBands mirrors realistic aquaponics values. Oxygen is reported
// under the raw sensor key; the water advisor maps it to dissolved_oxygen.
var simulatedBands = []band{
	{domain.ParamPH, 6.0, 8.0, 1},
	{domain.ParamAmmonia, 0.0, 1.0, 2},
	{domain.ParamNitrite, 0.0, 0.5, 2},
	{domain.ParamNitrate, 0.0, 200.0, 1},
	{domain.ParamTemperature, 18.0, 30.0, 1},
	{domain.ParamOxygen, 4.0, 8.0, 1},
	{domain.ParamHumidity, 40.0, 80.0, 1},
	{domain.ParamPhosphate, 5.0, 40.0, 1},
	{domain.ParamPotassium, 10.0, 50.0, 1},
}

// Simulator generates random but plausible readings.
type Simulator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulator returns a simulator. A zero seed draws from the runtime's
// random source; any other seed makes the sequence reproducible.
func NewSimulator(seed uint64) *Simulator {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Simulator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Name implements domain.SensorSource.
func (s *Simulator) Name() string { return "simulator" }

// Read implements domain.SensorSource. It only fails when ctx is done.
func (s *Simulator) Read(ctx context.Context) (domain.Reading, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	r := make(domain.Reading, len(simulatedBands)+1)
	for _, b := range simulatedBands {
		r[b.key] = round(b.low+s.rng.Float64()*(b.high-b.low), b.decimals)
	}
	r[domain.ParamLightLevel] = float64(300 + s.rng.IntN(701))
	return r, nil
}

func round(v float64, decimals int) float64 {
	p := math.Pow10(decimals)
	return math.Round(v*p) / p
}
