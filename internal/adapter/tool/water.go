package tool

import (
	"context"
	"log/slog"

	"github.com/ruvenwang/mindponics/internal/domain"
	"github.com/ruvenwang/mindponics/internal/usecase/advisor"
)

type waterParams struct {
	Parameters domain.Reading `json:"parameters"`
}

const waterParamsSchema = `{
	"type": "object",
	"properties": {
		"parameters": {
			"type": "object",
			"description": "Water readings keyed by parameter (ph, ammonia, nitrite, nitrate, temperature, dissolved_oxygen). Omit to read the sensor.",
			"additionalProperties": {"type": "number"}
		}
	}
}`

// NewWaterTools returns the water quality tools: water_parameters,
// water_diagnosis and corrective_actions.
func NewWaterTools(adv *advisor.WaterAdvisor, logger *slog.Logger) []domain.Tool {
	// resolve uses the caller's readings when given, the sensor otherwise.
	resolve := func(ctx context.Context, p waterParams) domain.Reading {
		if len(p.Parameters) > 0 {
			return p.Parameters
		}
		return adv.ReadParameters(ctx)
	}

	return []domain.Tool{
		NewFuncTool("water_parameters",
			"Read the current water quality parameters from the sensor.",
			emptySchema, logger,
			func(ctx context.Context, _ noParams) (any, error) {
				return adv.ReadParameters(ctx), nil
			}),
		NewFuncTool("water_diagnosis",
			"Diagnose water quality issues against the optimal ranges.",
			waterParamsSchema, logger,
			func(ctx context.Context, p waterParams) (any, error) {
				return advisor.Diagnose(resolve(ctx, p)), nil
			}),
		NewFuncTool("corrective_actions",
			"Suggest corrective actions for the current water quality.",
			waterParamsSchema, logger,
			func(ctx context.Context, p waterParams) (any, error) {
				params := resolve(ctx, p)
				return advisor.SuggestActions(params, advisor.Diagnose(params)), nil
			}),
	}
}
