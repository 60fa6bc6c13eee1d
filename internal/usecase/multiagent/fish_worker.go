package multiagent

import (
	"context"

	"github.com/ruvenwang/mindponics/internal/domain"
	"github.com/ruvenwang/mindponics/internal/usecase/advisor"
)

// Fish defaults used when the request state does not name the stock.
const (
	defaultFishSpecies    = "tilapia"
	defaultFishStage      = "adult"
	defaultFishCount      = 100
	defaultFishAvgWeightG = 200.0
)

// FishWorker analyses fish species, feeding and symptoms, and checks shared
// water parameters against the species' optimal ranges.
type FishWorker struct {
	baseWorker
	advisor *advisor.FishAdvisor
}

// NewFishWorker creates the fish health specialist.
func NewFishWorker(adv *advisor.FishAdvisor, deps WorkerDeps) *FishWorker {
	return &FishWorker{baseWorker: newBaseWorker(domain.SpecialtyFish, deps), advisor: adv}
}

// Step implements Worker.
func (w *FishWorker) Step(ctx context.Context, task Task) (*domain.Report, error) {
	inbox := w.drain(task, domain.PayloadWaterParameters)
	water, hasWater := readingFrom(inbox[domain.PayloadWaterParameters])

	species := task.State.String(domain.StateFishSpecies, defaultFishSpecies)
	stage := task.State.String(domain.StateFishLifeStage, defaultFishStage)
	count := int(task.State.Float(domain.StateFishCount, defaultFishCount))
	weight := task.State.Float(domain.StateFishAvgWeightG, defaultFishAvgWeightG)

	info, err := w.advisor.SpeciesInfo(species, stage)
	if err != nil {
		w.logger.Info("fish species lookup failed", "request_id", task.RequestID, "species", species)
		return w.fail(task, err), nil
	}
	feeding, err := w.advisor.CalculateFeeding(species, stage, count, weight)
	if err != nil {
		return w.fail(task, err), nil
	}

	analysis := advisor.FishAnalysis{Species: info, Feeding: feeding}
	if symptoms := task.State.String(domain.StateFishSymptoms, ""); symptoms != "" {
		report := w.advisor.CheckSymptoms(symptoms)
		analysis.Symptoms = &report
	}
	if hasWater {
		analysis.WaterNotes = w.advisor.AssessWater(info, water)
	}

	data := map[string]any{"fish_health_analysis": analysis}
	if hasWater {
		data[domain.PayloadWaterParameters] = water
	}
	return w.finish(ctx, task, analysis.Summary(), data), nil
}
