package multiagent

import (
	"context"

	"github.com/ruvenwang/mindponics/internal/domain"
	"github.com/ruvenwang/mindponics/internal/usecase/advisor"
)

// BacteriaWorker sizes the biofilter for the fish load and grades the
// nitrification cycle from shared water parameters or state values.
type BacteriaWorker struct {
	baseWorker
}

// NewBacteriaWorker creates the biofilter specialist.
func NewBacteriaWorker(deps WorkerDeps) *BacteriaWorker {
	return &BacteriaWorker{baseWorker: newBaseWorker(domain.SpecialtyBacteria, deps)}
}

// Step implements Worker.
func (w *BacteriaWorker) Step(ctx context.Context, task Task) (*domain.Report, error) {
	inbox := w.drain(task, domain.PayloadWaterParameters)
	water, hasWater := readingFrom(inbox[domain.PayloadWaterParameters])

	var report advisor.BiofilterReport
	data := map[string]any{}

	if load, ok := fishLoad(task.State); ok {
		report.FishLoadKg = load
		report.BiofilterVolumeL = advisor.SizeBiofilter(load)
		report.Sized = true
		data["biofilter_volume_l"] = report.BiofilterVolumeL
	}

	var a, n, no3 float64
	hasCycle := false
	switch {
	case hasWater:
		a, n, no3 = water.Get(domain.ParamAmmonia, 0), water.Get(domain.ParamNitrite, 0), water.Get(domain.ParamNitrate, 0)
		hasCycle = true
	case task.State.Has(domain.StateAmmonia) || task.State.Has(domain.StateNitrite) || task.State.Has(domain.StateNitrate):
		a = task.State.Float(domain.StateAmmonia, 0)
		n = task.State.Float(domain.StateNitrite, 0)
		no3 = task.State.Float(domain.StateNitrate, 0)
		hasCycle = true
	}
	if hasCycle {
		report.CycleStatus = advisor.MonitorCycle(a, n, no3)
		report.Advice = advisor.CycleAdvice(report.CycleStatus)
		data["cycle_status"] = report.CycleStatus
	}
	data["biofilter"] = report

	return w.finish(ctx, task, report.Summary(), data), nil
}

// fishLoad prefers an explicit load and otherwise derives it from count and
// average weight.
func fishLoad(state domain.AgentState) (float64, bool) {
	if state.Has(domain.StateFishLoadKg) {
		return state.Float(domain.StateFishLoadKg, 0), true
	}
	if state.Has(domain.StateFishCount) || state.Has(domain.StateFishAvgWeightG) {
		count := state.Float(domain.StateFishCount, defaultFishCount)
		weight := state.Float(domain.StateFishAvgWeightG, defaultFishAvgWeightG)
		return count * weight / 1000, true
	}
	return 0, false
}
