package multiagent

import (
	"context"

	"github.com/ruvenwang/mindponics/internal/domain"
	"github.com/ruvenwang/mindponics/internal/usecase/advisor"
)

// Plant defaults used when the request state does not name the crop.
const (
	defaultPlantSpecies = "lettuce"
	defaultPlantStage   = "vegetative"
)

var nutrientKeys = []string{domain.ParamNitrate, domain.ParamPhosphate, domain.ParamPotassium}

// PlantWorker analyses the crop and, when nitrate, phosphate and potassium
// are all known, checks them for deficiencies.
type PlantWorker struct {
	baseWorker
	advisor *advisor.PlantAdvisor
}

// NewPlantWorker creates the plant growth specialist.
func NewPlantWorker(adv *advisor.PlantAdvisor, deps WorkerDeps) *PlantWorker {
	return &PlantWorker{baseWorker: newBaseWorker(domain.SpecialtyPlant, deps), advisor: adv}
}

// Step implements Worker.
func (w *PlantWorker) Step(ctx context.Context, task Task) (*domain.Report, error) {
	inbox := w.drain(task, domain.PayloadNutrientLevels)
	levels, _ := readingFrom(inbox[domain.PayloadNutrientLevels])
	levels = levels.Clone()
	if levels == nil {
		levels = domain.Reading{}
	}
	// Measured values win; state fills the gaps.
	for _, key := range nutrientKeys {
		if _, ok := levels[key]; !ok && task.State.Has(key) {
			levels[key] = task.State.Float(key, 0)
		}
	}

	species := task.State.String(domain.StatePlantSpecies, defaultPlantSpecies)
	stage := task.State.String(domain.StatePlantStage, defaultPlantStage)
	info, err := w.advisor.SpeciesInfo(species, stage)
	if err != nil {
		w.logger.Info("plant species lookup failed", "request_id", task.RequestID, "species", species)
		return w.fail(task, err), nil
	}

	analysis := advisor.PlantAnalysis{Species: info}
	symptoms := task.State.String(domain.StatePlantSymptoms, "")
	if hasAll(levels, nutrientKeys) {
		d := w.advisor.IdentifyDeficiency(symptoms, levels[domain.ParamNitrate], levels[domain.ParamPhosphate], levels[domain.ParamPotassium])
		analysis.Deficiency = &d
	} else if symptoms != "" {
		s := w.advisor.CheckSymptoms(symptoms)
		analysis.Symptoms = &s
	}

	return w.finish(ctx, task, analysis.Summary(), map[string]any{
		"plant_health_analysis":      analysis,
		domain.PayloadNutrientLevels: levels,
	}), nil
}

func hasAll(r domain.Reading, keys []string) bool {
	for _, k := range keys {
		if _, ok := r[k]; !ok {
			return false
		}
	}
	return true
}
