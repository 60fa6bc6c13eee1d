package tool

import (
	"context"
	"log/slog"

	"github.com/ruvenwang/mindponics/internal/domain"
	"github.com/ruvenwang/mindponics/internal/usecase/advisor"
)

type plantSpeciesParams struct {
	Species     string `json:"species"`
	GrowthStage string `json:"growth_stage"`
}

type deficiencyParams struct {
	Symptoms  string  `json:"symptoms"`
	Nitrate   float64 `json:"nitrate"`
	Phosphate float64 `json:"phosphate"`
	Potassium float64 `json:"potassium"`
}

// NewPlantTools returns plant_species_info, nutrient_deficiency and
// plant_symptoms.
func NewPlantTools(adv *advisor.PlantAdvisor, logger *slog.Logger) []domain.Tool {
	return []domain.Tool{
		NewFuncTool("plant_species_info",
			"Look up a plant species adjusted for its growth stage.",
			`{
				"type": "object",
				"properties": {
					"species": {"type": "string", "description": "Species name, e.g. lettuce"},
					"growth_stage": {"type": "string", "description": "seedling, vegetative, flowering or fruiting"}
				},
				"required": ["species"]
			}`, logger,
			func(_ context.Context, p plantSpeciesParams) (any, error) {
				return adv.SpeciesInfo(p.Species, stageOr(p.GrowthStage, "vegetative"))
			}),
		NewFuncTool("nutrient_deficiency",
			"Identify nutrient deficiencies from symptoms and measured nitrate, phosphate and potassium in ppm.",
			`{
				"type": "object",
				"properties": {
					"symptoms": {"type": "string"},
					"nitrate": {"type": "number", "minimum": 0},
					"phosphate": {"type": "number", "minimum": 0},
					"potassium": {"type": "number", "minimum": 0}
				},
				"required": ["nitrate", "phosphate", "potassium"]
			}`, logger,
			func(_ context.Context, p deficiencyParams) (any, error) {
				return adv.IdentifyDeficiency(p.Symptoms, p.Nitrate, p.Phosphate, p.Potassium), nil
			}),
		NewFuncTool("plant_symptoms",
			"Match observed plant symptoms against known issues.",
			symptomSchema, logger,
			func(_ context.Context, p symptomParams) (any, error) {
				return adv.CheckSymptoms(p.Symptoms), nil
			}),
	}
}
