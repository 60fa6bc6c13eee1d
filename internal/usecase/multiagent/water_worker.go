package multiagent

import (
	"context"

	"github.com/ruvenwang/mindponics/internal/domain"
	"github.com/ruvenwang/mindponics/internal/usecase/advisor"
)

// WaterWorker reads and diagnoses water quality. It is the producer of the
// water and nutrient readings that fish, plant and bacteria workers consume.
type WaterWorker struct {
	baseWorker
	advisor *advisor.WaterAdvisor
}

// NewWaterWorker creates the water quality specialist.
func NewWaterWorker(adv *advisor.WaterAdvisor, deps WorkerDeps) *WaterWorker {
	return &WaterWorker{baseWorker: newBaseWorker(domain.SpecialtyWater, deps), advisor: adv}
}

// Step implements Worker.
func (w *WaterWorker) Step(ctx context.Context, task Task) (*domain.Report, error) {
	w.drain(task)

	water, nutrients := w.advisor.Snapshot(ctx)
	diagnosis := advisor.Diagnose(water)
	plan := advisor.SuggestActions(water, diagnosis)

	w.forward(task, map[string]any{
		domain.PayloadWaterParameters: water,
		domain.PayloadNutrientLevels:  nutrients,
	})
	w.logger.Debug("water diagnosed", "request_id", task.RequestID,
		"status", diagnosis.Status, "issues", len(diagnosis.Issues), "priority", plan.Priority)

	return w.finish(ctx, task, plan.Summary(), map[string]any{
		"water_parameters":   water,
		"diagnosis":          diagnosis,
		"corrective_actions": plan.Actions,
		"priority":           plan.Priority,
	}), nil
}
