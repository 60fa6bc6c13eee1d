package multiagent

import (
	"context"
	"fmt"

	"github.com/ruvenwang/mindponics/internal/domain"
	"github.com/ruvenwang/mindponics/internal/usecase/advisor"
)

// Targets are the climate set points of the grow room.
type Targets struct {
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
}

// EnvironmentWorker compares ambient conditions with the climate targets.
type EnvironmentWorker struct {
	baseWorker
	advisor *advisor.EnvironmentAdvisor
	targets Targets
}

// NewEnvironmentWorker creates the climate specialist. Request state may
// override the targets per request.
func NewEnvironmentWorker(adv *advisor.EnvironmentAdvisor, targets Targets, deps WorkerDeps) *EnvironmentWorker {
	return &EnvironmentWorker{baseWorker: newBaseWorker(domain.SpecialtyEnvironment, deps), advisor: adv, targets: targets}
}

// Step implements Worker.
func (w *EnvironmentWorker) Step(ctx context.Context, task Task) (*domain.Report, error) {
	w.drain(task)

	targets := Targets{
		Temperature: task.State.Float(domain.StateTargetTemp, w.targets.Temperature),
		Humidity:    task.State.Float(domain.StateTargetHumidity, w.targets.Humidity),
	}
	current := w.advisor.ReadAmbient(ctx)
	recs := advisor.SuggestClimateControl(current.Temperature, targets.Temperature, current.Humidity, targets.Humidity)

	summary := fmt.Sprintf("Current conditions: %.1f°C, %.1f%% humidity, light level %.0f. Targets: %.1f°C, %.1f%% humidity.\n%s",
		current.Temperature, current.Humidity, current.LightLevel, targets.Temperature, targets.Humidity, recs)

	return w.finish(ctx, task, summary, map[string]any{
		"current_conditions": current,
		"recommendations":    recs,
		"targets":            targets,
	}), nil
}
