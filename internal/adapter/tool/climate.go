package tool

import (
	"context"
	"log/slog"

	"github.com/ruvenwang/mindponics/internal/domain"
	"github.com/ruvenwang/mindponics/internal/usecase/advisor"
)

type climateParams struct {
	CurrentTemperature *float64 `json:"current_temperature"`
	TargetTemperature  float64  `json:"target_temperature"`
	CurrentHumidity    *float64 `json:"current_humidity"`
	TargetHumidity     float64  `json:"target_humidity"`
}

// ClimatePlan is the result of climate_control.
type ClimatePlan struct {
	Current         advisor.Ambient `json:"current"`
	Recommendations []string        `json:"recommendations"`
	Summary         string          `json:"summary"`
}

// NewEnvironmentTools returns ambient_conditions and climate_control.
func NewEnvironmentTools(adv *advisor.EnvironmentAdvisor, logger *slog.Logger) []domain.Tool {
	return []domain.Tool{
		NewFuncTool("ambient_conditions",
			"Read the current air temperature, humidity and light level.",
			emptySchema, logger,
			func(ctx context.Context, _ noParams) (any, error) {
				return adv.ReadAmbient(ctx), nil
			}),
		NewFuncTool("climate_control",
			"Recommend climate adjustments toward target temperature and humidity. Current values default to a sensor reading.",
			`{
				"type": "object",
				"properties": {
					"current_temperature": {"type": "number"},
					"target_temperature": {"type": "number"},
					"current_humidity": {"type": "number", "minimum": 0, "maximum": 100},
					"target_humidity": {"type": "number", "minimum": 0, "maximum": 100}
				},
				"required": ["target_temperature", "target_humidity"]
			}`, logger,
			func(ctx context.Context, p climateParams) (any, error) {
				cur := advisor.Ambient{LightLevel: advisor.DefaultAmbient.LightLevel}
				if p.CurrentTemperature == nil || p.CurrentHumidity == nil {
					cur = adv.ReadAmbient(ctx)
				}
				if p.CurrentTemperature != nil {
					cur.Temperature = *p.CurrentTemperature
				}
				if p.CurrentHumidity != nil {
					cur.Humidity = *p.CurrentHumidity
				}
				return ClimatePlan{
					Current:         cur,
					Recommendations: advisor.ClimateRecommendations(cur.Temperature, p.TargetTemperature, cur.Humidity, p.TargetHumidity),
					Summary:         advisor.SuggestClimateControl(cur.Temperature, p.TargetTemperature, cur.Humidity, p.TargetHumidity),
				}, nil
			}),
	}
}
