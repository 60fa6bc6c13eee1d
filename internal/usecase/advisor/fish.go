package advisor

import (
	"fmt"
	"strings"

	"github.com/ruvenwang/mindponics/internal/domain"
)

// FishInfo is a fish catalog entry adjusted for one life stage.
type FishInfo struct {
	Species        string  `json:"species"`
	ScientificName string  `json:"scientific_name"`
	OptimalTemp    Range   `json:"optimal_temp"`
	OptimalPH      Range   `json:"optimal_ph"`
	FeedingRate    float64 `json:"feeding_rate"`
}

// FeedingPlan is the outcome of CalculateFeeding.
type FeedingPlan struct {
	Species        string  `json:"species"`
	LifeStage      string  `json:"life_stage"`
	TotalWeightKg  float64 `json:"total_weight_kg"`
	DailyFeedKg    float64 `json:"daily_feed_kg"`
	FeedingRate    float64 `json:"feeding_rate"`
	Recommendation string  `json:"recommendation"`
}

// FishAdvisor answers fish species, feeding and disease questions.
type FishAdvisor struct {
	catalog *Catalog
}

// NewFishAdvisor creates a fish advisor over catalog.
func NewFishAdvisor(catalog *Catalog) *FishAdvisor {
	return &FishAdvisor{catalog: catalog}
}

// SpeciesInfo returns the species entry adjusted for lifeStage. An unknown
// stage yields the unadjusted entry; an unknown species is ErrNotFound.
func (f *FishAdvisor) SpeciesInfo(species, lifeStage string) (FishInfo, error) {
	rec, ok := f.catalog.FishSpecies(species)
	if !ok {
		return FishInfo{}, domain.NewSubSystemError("fish", "FishAdvisor.SpeciesInfo", domain.ErrNotFound,
			fmt.Sprintf("Species '%s' not found in database", species))
	}

	info := FishInfo{
		Species:        rec.Species,
		ScientificName: rec.ScientificName,
		OptimalTemp:    rec.OptimalTemp,
		OptimalPH:      rec.OptimalPH,
		FeedingRate:    rec.FeedingRate,
	}
	if stage, ok := rec.Stage(lifeStage); ok {
		info.FeedingRate = rec.FeedingRate * stage.FeedMultiplier
		info.OptimalTemp = rec.OptimalTemp.Shift(stage.TempAdjustment)
	}
	return info, nil
}

// CalculateFeeding computes the daily feed ration for a tank.
func (f *FishAdvisor) CalculateFeeding(species, lifeStage string, fishCount int, avgWeightG float64) (FeedingPlan, error) {
	info, err := f.SpeciesInfo(species, lifeStage)
	if err != nil {
		return FeedingPlan{}, err
	}
	total := float64(fishCount) * avgWeightG / 1000
	daily := total * info.FeedingRate
	return FeedingPlan{
		Species:        species,
		LifeStage:      lifeStage,
		TotalWeightKg:  total,
		DailyFeedKg:    daily,
		FeedingRate:    info.FeedingRate,
		Recommendation: fmt.Sprintf("Feed %.3f kg per day in 2-3 meals", daily),
	}, nil
}

// CheckSymptoms matches observed fish symptoms against the disease catalog.
func (f *FishAdvisor) CheckSymptoms(symptoms string) SymptomReport {
	matches := matchSymptoms(f.catalog.FishSymptoms, symptoms)
	if len(matches) == 0 {
		return SymptomReport{
			Status:         StatusNoMatches,
			Recommendation: "Monitor fish closely and check water parameters",
		}
	}
	return SymptomReport{
		Symptoms:       symptoms,
		Matches:        matches,
		Recommendation: "Consult a fish health specialist for confirmation",
	}
}

// AssessWater compares shared water parameters with the stage-adjusted
// optimal ranges of the species.
func (f *FishAdvisor) AssessWater(info FishInfo, water domain.Reading) []string {
	var notes []string
	if t, ok := water[domain.ParamTemperature]; ok && !info.OptimalTemp.Contains(t) {
		notes = append(notes, fmt.Sprintf("Water temperature %s°C is outside the %s range (%s-%s°C)",
			formatValue(t), info.Species, formatValue(info.OptimalTemp.Low), formatValue(info.OptimalTemp.High)))
	}
	if ph, ok := water[domain.ParamPH]; ok && !info.OptimalPH.Contains(ph) {
		notes = append(notes, fmt.Sprintf("pH %s is outside the %s range (%s-%s)",
			formatValue(ph), info.Species, formatValue(info.OptimalPH.Low), formatValue(info.OptimalPH.High)))
	}
	return notes
}

// FishAnalysis is the fish worker's combined result.
type FishAnalysis struct {
	Species    FishInfo       `json:"species"`
	Feeding    FeedingPlan    `json:"feeding"`
	Symptoms   *SymptomReport `json:"symptoms,omitempty"`
	WaterNotes []string       `json:"water_notes,omitempty"`
}

// Summary renders the analysis as short plain text.
func (a FishAnalysis) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s), %s stage: optimal %s-%s°C, pH %s-%s.",
		a.Species.Species, a.Species.ScientificName, stageOrDefault(a.Feeding.LifeStage),
		formatValue(a.Species.OptimalTemp.Low), formatValue(a.Species.OptimalTemp.High),
		formatValue(a.Species.OptimalPH.Low), formatValue(a.Species.OptimalPH.High))
	fmt.Fprintf(&b, "\nBiomass %.1f kg. %s.", a.Feeding.TotalWeightKg, a.Feeding.Recommendation)
	for _, n := range a.WaterNotes {
		b.WriteString("\n- " + n)
	}
	if a.Symptoms != nil {
		writeSymptoms(&b, *a.Symptoms)
	}
	return b.String()
}

func stageOrDefault(s string) string {
	if s == "" {
		return "unspecified"
	}
	return s
}

func writeSymptoms(b *strings.Builder, r SymptomReport) {
	for _, m := range r.Matches {
		fmt.Fprintf(b, "\n- %s: %s. Treatment: %s", m.Symptom, m.Label, m.Treatment)
	}
	b.WriteString("\n" + r.Recommendation + ".")
}
