package tool

import (
	"context"
	"log/slog"

	"github.com/ruvenwang/mindponics/internal/domain"
	"github.com/ruvenwang/mindponics/internal/usecase/advisor"
)

type fishSpeciesParams struct {
	Species   string `json:"species"`
	LifeStage string `json:"life_stage"`
}

type feedingParams struct {
	Species    string  `json:"species"`
	LifeStage  string  `json:"life_stage"`
	FishCount  int     `json:"fish_count"`
	AvgWeightG float64 `json:"avg_weight_g"`
}

type symptomParams struct {
	Symptoms string `json:"symptoms"`
}

const symptomSchema = `{
	"type": "object",
	"properties": {
		"symptoms": {"type": "string", "description": "Comma-separated observed symptoms"}
	},
	"required": ["symptoms"]
}`

// NewFishTools returns fish_species_info, feeding_calculator and
// fish_symptoms.
func NewFishTools(adv *advisor.FishAdvisor, logger *slog.Logger) []domain.Tool {
	return []domain.Tool{
		NewFuncTool("fish_species_info",
			"Look up a fish species adjusted for its life stage.",
			`{
				"type": "object",
				"properties": {
					"species": {"type": "string", "description": "Species name, e.g. tilapia"},
					"life_stage": {"type": "string", "description": "fingerling, juvenile or adult; other stages are unadjusted"}
				},
				"required": ["species"]
			}`, logger,
			func(_ context.Context, p fishSpeciesParams) (any, error) {
				return adv.SpeciesInfo(p.Species, stageOr(p.LifeStage, "adult"))
			}),
		NewFuncTool("feeding_calculator",
			"Calculate the daily feed ration for a tank of fish.",
			`{
				"type": "object",
				"properties": {
					"species": {"type": "string"},
					"life_stage": {"type": "string"},
					"fish_count": {"type": "integer", "minimum": 0},
					"avg_weight_g": {"type": "number", "minimum": 0}
				},
				"required": ["species", "fish_count", "avg_weight_g"]
			}`, logger,
			func(_ context.Context, p feedingParams) (any, error) {
				if err := ValidateAll(
					ValidateNonNegative("fish_count", float64(p.FishCount)),
					ValidateNonNegative("avg_weight_g", p.AvgWeightG),
				); err != nil {
					return nil, err
				}
				return adv.CalculateFeeding(p.Species, stageOr(p.LifeStage, "adult"), p.FishCount, p.AvgWeightG)
			}),
		NewFuncTool("fish_symptoms",
			"Match observed fish symptoms against known diseases.",
			symptomSchema, logger,
			func(_ context.Context, p symptomParams) (any, error) {
				return adv.CheckSymptoms(p.Symptoms), nil
			}),
	}
}

func stageOr(stage, def string) string {
	if stage == "" {
		return def
	}
	return stage
}
