package advisor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruvenwang/mindponics/internal/domain"
)

func TestPlantSpeciesInfo(t *testing.T) {
	p := NewPlantAdvisor(NewCatalog())

	t.Run("seedling scales light and annotates nutrients", func(t *testing.T) {
		info, err := p.SpeciesInfo("lettuce", "seedling")
		require.NoError(t, err)
		assert.InDelta(t, 14.4, info.LightHours, 1e-9)
		assert.Equal(t, 0.7, info.NutrientAdjust)
		assert.Equal(t, []Nutrient{{"N", "medium (adjusted)"}, {"P", "medium (adjusted)"}, {"K", "high (adjusted)"}}, info.NutrientNeeds)
	})

	t.Run("vegetative equals base entry", func(t *testing.T) {
		veg, err := p.SpeciesInfo("tomato", "vegetative")
		require.NoError(t, err)
		base, err := p.SpeciesInfo("tomato", "")
		require.NoError(t, err)
		assert.Equal(t, base, veg)
	})

	t.Run("catalog is not mutated", func(t *testing.T) {
		cat := NewCatalog()
		_, err := NewPlantAdvisor(cat).SpeciesInfo("tomato", "fruiting")
		require.NoError(t, err)
		rec, _ := cat.PlantSpecies("tomato")
		assert.Equal(t, "very high", rec.NutrientNeeds[2].Level)
		assert.Equal(t, 14.0, rec.LightHours)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := p.SpeciesInfo("basil", "seedling")
		require.ErrorIs(t, err, domain.ErrNotFound)
		assert.Contains(t, err.Error(), "Plant species 'basil' not found in database")
		assert.Equal(t, domain.CodePlantNotFound, domain.ErrorCodeOf(err))
	})
}

func TestIdentifyDeficiency(t *testing.T) {
	p := NewPlantAdvisor(NewCatalog())

	t.Run("nothing flagged", func(t *testing.T) {
		r := p.IdentifyDeficiency("", 30, 20, 30)
		assert.Equal(t, StatusNoDeficiencies, r.Status)
		assert.Equal(t, "Maintain current nutrient regimen", r.Recommendation)
		assert.Empty(t, r.Deficiencies)
	})

	t.Run("symptoms then thresholds", func(t *testing.T) {
		r := p.IdentifyDeficiency("yellow leaves", 10, 35, 30)
		require.Len(t, r.Deficiencies, 3)
		assert.Equal(t, "Nitrogen deficiency", r.Deficiencies[0].Issue)
		assert.Equal(t, "yellow leaves", r.Deficiencies[0].Symptom)

		assert.Equal(t, "Nitrogen deficiency", r.Deficiencies[1].Issue)
		assert.Equal(t, "Level (10 ppm) below optimal range (20-50 ppm)", r.Deficiencies[1].Cause)
		assert.Equal(t, "Increase nitrogen levels gradually", r.Deficiencies[1].Treatment)

		assert.Equal(t, "Phosphorus excess", r.Deficiencies[2].Issue)
		assert.Equal(t, "Flush system and reduce phosphorus inputs", r.Deficiencies[2].Treatment)
		assert.Equal(t, "Adjust nutrient solution and monitor plant response", r.Recommendation)
		assert.Equal(t, 35.0, r.NutrientLevels["phosphorus"])
	})

	t.Run("boundaries are inclusive", func(t *testing.T) {
		r := p.IdentifyDeficiency("", 20, 30, 40)
		assert.Equal(t, StatusNoDeficiencies, r.Status)
	})
}

func TestPlantCheckSymptoms(t *testing.T) {
	p := NewPlantAdvisor(NewCatalog())

	r := p.CheckSymptoms("leaves")
	require.Len(t, r.Matches, 2)
	assert.Equal(t, "yellow leaves", r.Matches[0].Symptom)
	assert.Equal(t, "purple leaves", r.Matches[1].Symptom)
	assert.Equal(t, "Implement treatments and observe plant response", r.Recommendation)

	r = p.CheckSymptoms("wilting")
	assert.Equal(t, StatusNoMatches, r.Status)
	assert.Equal(t, "Monitor plants closely and check environmental conditions", r.Recommendation)
}

func TestPlantAnalysisSummary(t *testing.T) {
	p := NewPlantAdvisor(NewCatalog())
	info, err := p.SpeciesInfo("lettuce", "vegetative")
	require.NoError(t, err)
	d := p.IdentifyDeficiency("", 10, 20, 30)
	s := PlantAnalysis{Species: info, Deficiency: &d}.Summary()
	assert.Contains(t, s, "Lactuca sativa")
	assert.Contains(t, s, "Nitrogen deficiency")
}
