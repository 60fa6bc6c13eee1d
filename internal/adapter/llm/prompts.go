package llm

import (
	"encoding/json"
	"fmt"

	"github.com/ruvenwang/mindponics/internal/domain"
	"github.com/ruvenwang/mindponics/internal/usecase/multiagent"
)

var specialtyFocus = map[domain.Specialty]string{
	domain.SpecialtyWater:       "water quality: pH, ammonia, nitrite, nitrate, temperature and dissolved oxygen",
	domain.SpecialtyFish:        "fish health, disease symptoms, species requirements and feeding",
	domain.SpecialtyPlant:       "plant health, nutrient deficiencies and growth stage requirements",
	domain.SpecialtyBacteria:    "the nitrification cycle and biofilter sizing",
	domain.SpecialtyEnvironment: "air temperature, humidity and light in the grow room",
}

func orchestratorPrompt() string {
	return fmt.Sprintf(`You are %s, the coordinator of an aquaponics advisory team.
Decide which specialists must answer the user's question and call one
delegate_to_<specialty> tool for each of them. Call every tool that applies
and no others. Do not answer the question yourself.`, multiagent.OrchestratorName)
}

func synthesisPrompt() string {
	return fmt.Sprintf(`You are %s, the coordinator of an aquaponics advisory team.
Combine the specialist reports below into one clear answer for the grower.
Keep every concrete number and action. Flag conflicts between reports.
Do not invent measurements that are not in the reports.`, multiagent.OrchestratorName)
}

func personaPrompt(sp domain.Specialty) string {
	return fmt.Sprintf(`You are %s, an aquaponics specialist in %s.
Rewrite the findings below as a short, friendly answer to the grower's
question. Keep every number and recommended action exactly as given and
add nothing that is not supported by the findings.`, multiagent.AgentName(sp), specialtyFocus[sp])
}

// delegationTools returns one delegate_to_<specialty> tool per specialty.
func delegationTools() []domain.ToolSchema {
	tools := make([]domain.ToolSchema, 0, len(domain.AllSpecialties))
	for _, sp := range domain.AllSpecialties {
		desc := fmt.Sprintf("Ask %s (%s) about %s.", multiagent.AgentName(sp), multiagent.Title(sp), specialtyFocus[sp])
		tools = append(tools, domain.ToolSchema{
			Name:        delegatePrefix + string(sp),
			Description: desc,
			Parameters:  delegationParams,
		})
	}
	return tools
}

const delegatePrefix = "delegate_to_"

var delegationParams = json.RawMessage(`{
	"type": "object",
	"properties": {
		"reason": {"type": "string", "description": "Why this specialist is needed"}
	}
}`)
