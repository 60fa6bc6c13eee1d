// Package advisor holds the deterministic decision logic for the five
// aquaponics specialties. Every function here is pure apart from the sensor
// reads done by ReadParameters and ReadAmbient.
package advisor

import (
	"io"
	"log/slog"
	"strings"
)

// Range is an inclusive optimal band. Values strictly outside it are violations.
type Range struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Contains reports whether v lies within the band.
func (r Range) Contains(v float64) bool { return v >= r.Low && v <= r.High }

// Shift returns the band moved by delta on both bounds.
func (r Range) Shift(delta float64) Range { return Range{Low: r.Low + delta, High: r.High + delta} }

// FishStage holds the life-stage multipliers for a fish species.
type FishStage struct {
	Name           string  `json:"name"`
	FeedMultiplier float64 `json:"feed_multiplier"`
	TempAdjustment float64 `json:"temp_adjustment"`
}

// FishRecord is one fish species catalog entry.
type FishRecord struct {
	Species        string      `json:"species"`
	ScientificName string      `json:"scientific_name"`
	OptimalTemp    Range       `json:"optimal_temp"`
	OptimalPH      Range       `json:"optimal_ph"`
	FeedingRate    float64     `json:"feeding_rate"`
	LifeStages     []FishStage `json:"life_stages"`
}

// Stage returns the named life stage, matched case-insensitively.
func (f *FishRecord) Stage(name string) (FishStage, bool) {
	for _, s := range f.LifeStages {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return FishStage{}, false
}

// Nutrient is one entry of a plant's nutrient-need table.
type Nutrient struct {
	Element string `json:"element"`
	Level   string `json:"level"`
}

// PlantStage holds the life-stage multipliers for a plant species.
type PlantStage struct {
	Name            string  `json:"name"`
	LightMultiplier float64 `json:"light_multiplier"`
	NutrientAdjust  float64 `json:"nutrient_adjust"`
}

// PlantRecord is one plant species catalog entry.
type PlantRecord struct {
	Species        string       `json:"species"`
	ScientificName string       `json:"scientific_name"`
	OptimalTemp    Range        `json:"optimal_temp"`
	OptimalPH      Range        `json:"optimal_ph"`
	LightHours     float64      `json:"light_hours"`
	NutrientNeeds  []Nutrient   `json:"nutrient_needs"`
	LifeStages     []PlantStage `json:"life_stages"`
}

// Stage returns the named life stage, matched case-insensitively.
func (p *PlantRecord) Stage(name string) (PlantStage, bool) {
	for _, s := range p.LifeStages {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return PlantStage{}, false
}

// SymptomRecord maps an observed symptom phrase to a label and treatment.
type SymptomRecord struct {
	Symptom   string `json:"symptom"`
	Label     string `json:"label"`
	Treatment string `json:"treatment"`
}

// Catalog is the read-only reference data shared by all advisors. It is
// built once and passed by pointer; nothing writes to it afterwards.
type Catalog struct {
	Fish          []FishRecord
	Plants        []PlantRecord
	FishSymptoms  []SymptomRecord
	PlantSymptoms []SymptomRecord
}

// FishSpecies looks up a fish record by case-insensitive common name.
func (c *Catalog) FishSpecies(name string) (*FishRecord, bool) {
	for i := range c.Fish {
		if strings.EqualFold(c.Fish[i].Species, name) {
			return &c.Fish[i], true
		}
	}
	return nil, false
}

// PlantSpecies looks up a plant record by case-insensitive common name.
func (c *Catalog) PlantSpecies(name string) (*PlantRecord, bool) {
	for i := range c.Plants {
		if strings.EqualFold(c.Plants[i].Species, name) {
			return &c.Plants[i], true
		}
	}
	return nil, false
}

// NewCatalog returns the built-in reference data.
func NewCatalog() *Catalog {
	return &Catalog{
		Fish: []FishRecord{
			{
				Species:        "tilapia",
				ScientificName: "Oreochromis niloticus",
				OptimalTemp:    Range{22, 30},
				OptimalPH:      Range{6.5, 8.5},
				FeedingRate:    0.02,
				LifeStages: []FishStage{
					{Name: "fry", FeedMultiplier: 1.5, TempAdjustment: 2},
					{Name: "juvenile", FeedMultiplier: 1.2, TempAdjustment: 1},
					{Name: "adult", FeedMultiplier: 1.0, TempAdjustment: 0},
				},
			},
			{
				Species:        "trout",
				ScientificName: "Oncorhynchus mykiss",
				OptimalTemp:    Range{10, 16},
				OptimalPH:      Range{6.5, 8.0},
				FeedingRate:    0.015,
				LifeStages: []FishStage{
					{Name: "fry", FeedMultiplier: 1.8, TempAdjustment: 2},
					{Name: "juvenile", FeedMultiplier: 1.3, TempAdjustment: 1},
					{Name: "adult", FeedMultiplier: 1.0, TempAdjustment: 0},
				},
			},
		},
		Plants: []PlantRecord{
			{
				Species:        "lettuce",
				ScientificName: "Lactuca sativa",
				OptimalTemp:    Range{15, 21},
				OptimalPH:      Range{6.0, 7.0},
				LightHours:     12,
				NutrientNeeds:  []Nutrient{{"N", "medium"}, {"P", "medium"}, {"K", "high"}},
				LifeStages: []PlantStage{
					{Name: "seedling", LightMultiplier: 1.2, NutrientAdjust: 0.7},
					{Name: "vegetative", LightMultiplier: 1.0, NutrientAdjust: 1.0},
					{Name: "maturity", LightMultiplier: 0.8, NutrientAdjust: 0.9},
				},
			},
			{
				Species:        "tomato",
				ScientificName: "Solanum lycopersicum",
				OptimalTemp:    Range{18, 26},
				OptimalPH:      Range{5.5, 6.8},
				LightHours:     14,
				NutrientNeeds:  []Nutrient{{"N", "high"}, {"P", "high"}, {"K", "very high"}},
				LifeStages: []PlantStage{
					{Name: "seedling", LightMultiplier: 1.1, NutrientAdjust: 0.6},
					{Name: "vegetative", LightMultiplier: 1.0, NutrientAdjust: 1.0},
					{Name: "flowering", LightMultiplier: 1.1, NutrientAdjust: 1.2},
					{Name: "fruiting", LightMultiplier: 1.0, NutrientAdjust: 1.3},
				},
			},
		},
		FishSymptoms: []SymptomRecord{
			{"white spots", "Ichthyophthirius multifiliis (Ich)", "Increase temperature to 30°C for 3 days, add salt (1-3 g/L)"},
			{"red sores", "Aeromonas infection", "Antibiotic treatment, improve water quality"},
			{"rapid gilling", "Low oxygen levels", "Increase aeration, reduce stocking density"},
		},
		PlantSymptoms: []SymptomRecord{
			{"yellow leaves", "Nitrogen deficiency", "Increase nitrogen levels, check pH (optimal 5.5-6.5 for nutrient uptake)"},
			{"purple leaves", "Phosphorus deficiency", "Increase phosphorus levels, ensure water temperature >18°C for uptake"},
			{"brown leaf edges", "Potassium deficiency or salt burn", "Flush system, adjust potassium levels, check EC"},
			{"white powdery spots", "Powdery mildew", "Improve air circulation, apply neem oil, reduce humidity"},
		},
	}
}

// discardLogger returns a no-op logger for advisors created without one.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
