package tool

import (
	"log/slog"

	"github.com/ruvenwang/mindponics/internal/domain"
	"github.com/ruvenwang/mindponics/internal/usecase/advisor"
)

// Advisors groups the advisors the built-in tools run on.
type Advisors struct {
	Water       *advisor.WaterAdvisor
	Fish        *advisor.FishAdvisor
	Plant       *advisor.PlantAdvisor
	Environment *advisor.EnvironmentAdvisor
}

// AdvisorTools returns every advisor tool in a stable order.
func AdvisorTools(a Advisors, logger *slog.Logger) []domain.Tool {
	var tools []domain.Tool
	tools = append(tools, NewWaterTools(a.Water, logger)...)
	tools = append(tools, NewFishTools(a.Fish, logger)...)
	tools = append(tools, NewPlantTools(a.Plant, logger)...)
	tools = append(tools, NewBacteriaTools(logger)...)
	tools = append(tools, NewEnvironmentTools(a.Environment, logger)...)
	return tools
}
