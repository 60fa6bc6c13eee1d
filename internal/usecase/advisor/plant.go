package advisor

import (
	"fmt"
	"strings"

	"github.com/ruvenwang/mindponics/internal/domain"
)

// PlantInfo is a plant catalog entry adjusted for one life stage.
type PlantInfo struct {
	Species        string     `json:"species"`
	ScientificName string     `json:"scientific_name"`
	OptimalTemp    Range      `json:"optimal_temp"`
	OptimalPH      Range      `json:"optimal_ph"`
	LightHours     float64    `json:"light_hours"`
	NutrientNeeds  []Nutrient `json:"nutrient_needs"`
	NutrientAdjust float64    `json:"nutrient_adjust"`
}

// NutrientRange pairs a nutrient with its optimal concentration band in ppm.
type NutrientRange struct {
	Nutrient string
	Range    Range
}

// NutrientRanges is the optimal nutrient table, in evaluation order.
var NutrientRanges = []NutrientRange{
	{"nitrogen", Range{20, 50}},
	{"phosphorus", Range{10, 30}},
	{"potassium", Range{20, 40}},
}

// Deficiency is one finding from IdentifyDeficiency. Symptom findings carry
// Symptom; threshold findings carry Cause.
type Deficiency struct {
	Symptom   string `json:"symptom,omitempty"`
	Issue     string `json:"issue"`
	Cause     string `json:"cause,omitempty"`
	Treatment string `json:"treatment"`
}

// DeficiencyReport is the outcome of IdentifyDeficiency.
type DeficiencyReport struct {
	Status         string             `json:"status,omitempty"`
	Symptoms       string             `json:"symptoms,omitempty"`
	NutrientLevels map[string]float64 `json:"nutrient_levels,omitempty"`
	Deficiencies   []Deficiency       `json:"deficiencies,omitempty"`
	Recommendation string             `json:"recommendation"`
}

// StatusNoDeficiencies is reported when nothing was flagged.
const StatusNoDeficiencies = "No nutrient deficiencies detected"

// PlantAdvisor answers plant species, nutrient and disease questions.
type PlantAdvisor struct {
	catalog *Catalog
}

// NewPlantAdvisor creates a plant advisor over catalog.
func NewPlantAdvisor(catalog *Catalog) *PlantAdvisor {
	return &PlantAdvisor{catalog: catalog}
}

// SpeciesInfo returns the plant entry adjusted for lifeStage. Light hours are
// scaled by the stage multiplier and nutrient levels are annotated when the
// stage changes them. Unknown species is ErrNotFound.
func (p *PlantAdvisor) SpeciesInfo(species, lifeStage string) (PlantInfo, error) {
	rec, ok := p.catalog.PlantSpecies(species)
	if !ok {
		return PlantInfo{}, domain.NewSubSystemError("plant", "PlantAdvisor.SpeciesInfo", domain.ErrNotFound,
			fmt.Sprintf("Plant species '%s' not found in database", species))
	}

	info := PlantInfo{
		Species:        rec.Species,
		ScientificName: rec.ScientificName,
		OptimalTemp:    rec.OptimalTemp,
		OptimalPH:      rec.OptimalPH,
		LightHours:     rec.LightHours,
		NutrientNeeds:  append([]Nutrient(nil), rec.NutrientNeeds...),
		NutrientAdjust: 1.0,
	}
	if stage, ok := rec.Stage(lifeStage); ok {
		info.LightHours = rec.LightHours * stage.LightMultiplier
		info.NutrientAdjust = stage.NutrientAdjust
		if stage.NutrientAdjust != 1.0 {
			for i := range info.NutrientNeeds {
				info.NutrientNeeds[i].Level += " (adjusted)"
			}
		}
	}
	return info, nil
}

// IdentifyDeficiency combines symptom matches with threshold checks on
// measured nitrate, phosphate and potassium levels.
func (p *PlantAdvisor) IdentifyDeficiency(symptoms string, nitrate, phosphate, potassium float64) DeficiencyReport {
	var found []Deficiency
	for _, m := range matchSymptoms(p.catalog.PlantSymptoms, symptoms) {
		found = append(found, Deficiency{Symptom: m.Symptom, Issue: m.Label, Treatment: m.Treatment})
	}

	levels := map[string]float64{
		"nitrogen":   nitrate,
		"phosphorus": phosphate,
		"potassium":  potassium,
	}
	for _, nr := range NutrientRanges {
		level := levels[nr.Nutrient]
		name := strings.ToUpper(nr.Nutrient[:1]) + nr.Nutrient[1:]
		band := fmt.Sprintf("(%s-%s ppm)", formatPPM(nr.Range.Low), formatPPM(nr.Range.High))
		switch {
		case level < nr.Range.Low:
			found = append(found, Deficiency{
				Issue:     name + " deficiency",
				Cause:     fmt.Sprintf("Level (%s ppm) below optimal range %s", formatPPM(level), band),
				Treatment: fmt.Sprintf("Increase %s levels gradually", nr.Nutrient),
			})
		case level > nr.Range.High:
			found = append(found, Deficiency{
				Issue:     name + " excess",
				Cause:     fmt.Sprintf("Level (%s ppm) above optimal range %s", formatPPM(level), band),
				Treatment: fmt.Sprintf("Flush system and reduce %s inputs", nr.Nutrient),
			})
		}
	}

	if len(found) == 0 {
		return DeficiencyReport{
			Status:         StatusNoDeficiencies,
			Recommendation: "Maintain current nutrient regimen",
		}
	}
	return DeficiencyReport{
		Symptoms:       symptoms,
		NutrientLevels: levels,
		Deficiencies:   found,
		Recommendation: "Adjust nutrient solution and monitor plant response",
	}
}

// CheckSymptoms matches observed plant symptoms against the issue catalog.
func (p *PlantAdvisor) CheckSymptoms(symptoms string) SymptomReport {
	matches := matchSymptoms(p.catalog.PlantSymptoms, symptoms)
	if len(matches) == 0 {
		return SymptomReport{
			Status:         StatusNoMatches,
			Recommendation: "Monitor plants closely and check environmental conditions",
		}
	}
	return SymptomReport{
		Symptoms:       symptoms,
		Matches:        matches,
		Recommendation: "Implement treatments and observe plant response",
	}
}

// PlantAnalysis is the plant worker's combined result.
type PlantAnalysis struct {
	Species    PlantInfo         `json:"species"`
	Deficiency *DeficiencyReport `json:"deficiency,omitempty"`
	Symptoms   *SymptomReport    `json:"symptoms,omitempty"`
}

// Summary renders the analysis as short plain text.
func (a PlantAnalysis) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s): optimal %s-%s°C, pH %s-%s, %s h light.",
		a.Species.Species, a.Species.ScientificName,
		formatValue(a.Species.OptimalTemp.Low), formatValue(a.Species.OptimalTemp.High),
		formatValue(a.Species.OptimalPH.Low), formatValue(a.Species.OptimalPH.High),
		strings.TrimSuffix(fmt.Sprintf("%.1f", a.Species.LightHours), ".0"))
	needs := make([]string, 0, len(a.Species.NutrientNeeds))
	for _, n := range a.Species.NutrientNeeds {
		needs = append(needs, n.Element+": "+n.Level)
	}
	b.WriteString("\nNutrient needs: " + strings.Join(needs, ", ") + ".")
	if d := a.Deficiency; d != nil {
		if len(d.Deficiencies) == 0 {
			b.WriteString("\n" + d.Status + ".")
		}
		for _, f := range d.Deficiencies {
			line := "\n- " + f.Issue
			if f.Cause != "" {
				line += ": " + f.Cause
			}
			b.WriteString(line + ". " + f.Treatment + ".")
		}
		b.WriteString("\n" + d.Recommendation + ".")
	}
	if a.Symptoms != nil && len(a.Symptoms.Matches) > 0 {
		writeSymptoms(&b, *a.Symptoms)
	}
	return b.String()
}

// formatPPM prints whole ppm values without a decimal part.
func formatPPM(v float64) string {
	return strings.TrimSuffix(formatValue(v), ".0")
}
