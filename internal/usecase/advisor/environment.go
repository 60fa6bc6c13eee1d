package advisor

import (
	"context"
	"log/slog"
	"math"
	"strings"

	"github.com/ruvenwang/mindponics/internal/domain"
)

// Ambient is one environment reading.
type Ambient struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	LightLevel  float64 `json:"light_level"`
}

// DefaultAmbient is returned when the sensor cannot be read.
var DefaultAmbient = Ambient{Temperature: 22.0, Humidity: 60.0, LightLevel: 500}

// ClimateOptimal is returned when no adjustment is needed.
const ClimateOptimal = "Environmental conditions are optimal. No adjustments needed."

// EnvironmentAdvisor reads ambient conditions and recommends climate control.
type EnvironmentAdvisor struct {
	source domain.SensorSource
	logger *slog.Logger
}

// NewEnvironmentAdvisor creates an environment advisor. A nil logger discards output.
func NewEnvironmentAdvisor(source domain.SensorSource, logger *slog.Logger) *EnvironmentAdvisor {
	if logger == nil {
		logger = discardLogger()
	}
	return &EnvironmentAdvisor{source: source, logger: logger}
}

// ReadAmbient returns current conditions, substituting defaults per field or
// entirely on sensor failure.
func (e *EnvironmentAdvisor) ReadAmbient(ctx context.Context) Ambient {
	if e.source == nil {
		return DefaultAmbient
	}
	r, err := e.source.Read(ctx)
	if err != nil {
		e.logger.Error("ambient read failed, using defaults",
			"source", e.source.Name(), "error", err)
		return DefaultAmbient
	}
	return Ambient{
		Temperature: r.Get(domain.ParamTemperature, DefaultAmbient.Temperature),
		Humidity:    r.Get(domain.ParamHumidity, DefaultAmbient.Humidity),
		LightLevel:  r.Get(domain.ParamLightLevel, DefaultAmbient.LightLevel),
	}
}

// ClimateRecommendations lists climate actions needed to move current
// conditions toward the targets, in rule order.
func ClimateRecommendations(curTemp, targetTemp, curHumidity, targetHumidity float64) []string {
	var recs []string

	tempDiff := curTemp - targetTemp
	if math.Abs(tempDiff) > 1.0 {
		if tempDiff > 0 {
			recs = append(recs, "Increase ventilation or cooling")
			if tempDiff > 3.0 {
				recs = append(recs, "Activate evaporative cooling system")
			}
		} else {
			recs = append(recs, "Activate heating system")
			if tempDiff < -3.0 {
				recs = append(recs, "Increase insulation or close vents")
			}
		}
	}

	humDiff := curHumidity - targetHumidity
	if math.Abs(humDiff) > 5.0 {
		if humDiff > 0 {
			recs = append(recs, "Increase ventilation to reduce humidity")
		} else {
			recs = append(recs, "Activate humidification system")
		}
	}

	if curTemp < targetTemp-2.0 && curHumidity > targetHumidity+5.0 {
		recs = append(recs, "Extend light cycle to boost temperature and reduce humidity")
	}
	return recs
}

// SuggestClimateControl renders ClimateRecommendations as one sentence.
func SuggestClimateControl(curTemp, targetTemp, curHumidity, targetHumidity float64) string {
	recs := ClimateRecommendations(curTemp, targetTemp, curHumidity, targetHumidity)
	if len(recs) == 0 {
		return ClimateOptimal
	}
	return "Recommendations: " + strings.Join(recs, "; ")
}
