package tool

import (
	"context"
	"log/slog"

	"github.com/ruvenwang/mindponics/internal/domain"
	"github.com/ruvenwang/mindponics/internal/usecase/advisor"
)

type biofilterParams struct {
	FishLoadKg float64 `json:"fish_load_kg"`
}

type cycleParams struct {
	Ammonia float64 `json:"ammonia"`
	Nitrite float64 `json:"nitrite"`
	Nitrate float64 `json:"nitrate"`
}

// NewBacteriaTools returns biofilter_size and nitrification_cycle.
func NewBacteriaTools(logger *slog.Logger) []domain.Tool {
	return []domain.Tool{
		NewFuncTool("biofilter_size",
			"Size the biofilter for a fish load in kilograms.",
			`{
				"type": "object",
				"properties": {
					"fish_load_kg": {"type": "number"}
				},
				"required": ["fish_load_kg"]
			}`, logger,
			func(_ context.Context, p biofilterParams) (any, error) {
				return map[string]float64{
					"fish_load_kg":       p.FishLoadKg,
					"biofilter_volume_l": advisor.SizeBiofilter(p.FishLoadKg),
				}, nil
			}),
		NewFuncTool("nitrification_cycle",
			"Grade the nitrification cycle from ammonia, nitrite and nitrate in ppm.",
			`{
				"type": "object",
				"properties": {
					"ammonia": {"type": "number"},
					"nitrite": {"type": "number"},
					"nitrate": {"type": "number"}
				},
				"required": ["ammonia", "nitrite", "nitrate"]
			}`, logger,
			func(_ context.Context, p cycleParams) (any, error) {
				status := advisor.MonitorCycle(p.Ammonia, p.Nitrite, p.Nitrate)
				return struct {
					Status advisor.CycleStatus `json:"status"`
					Advice []string            `json:"advice"`
				}{status, advisor.CycleAdvice(status)}, nil
			}),
	}
}
