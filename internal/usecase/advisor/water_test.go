package advisor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruvenwang/mindponics/internal/domain"
)

type stubSource struct {
	reading domain.Reading
	err     error
}

func (s stubSource) Read(context.Context) (domain.Reading, error) { return s.reading.Clone(), s.err }
func (s stubSource) Name() string                                 { return "stub" }

func optimalWater() domain.Reading {
	return domain.Reading{
		domain.ParamPH:              7.0,
		domain.ParamAmmonia:         0.1,
		domain.ParamNitrite:         0.05,
		domain.ParamNitrate:         40,
		domain.ParamTemperature:     24,
		domain.ParamDissolvedOxygen: 6.5,
	}
}

func findIssue(d Diagnosis, param string) (Issue, bool) {
	for _, is := range d.Issues {
		if is.Parameter == param {
			return is, true
		}
	}
	return Issue{}, false
}

func TestDiagnose_Optimal(t *testing.T) {
	d := Diagnose(optimalWater())
	assert.Equal(t, StatusOptimal, d.Status)
	assert.Empty(t, d.Issues)
}

func TestDiagnose_ToxicCompoundSortsFirst(t *testing.T) {
	params := optimalWater()
	params[domain.ParamAmmonia] = 1.5
	params[domain.ParamNitrite] = 0.6
	params[domain.ParamPH] = 8.0

	d := Diagnose(params)
	require.Equal(t, StatusIssuesDetected, d.Status)
	require.Len(t, d.Issues, 4)

	first := d.Issues[0]
	assert.Equal(t, "ammonia+nitrite", first.Parameter)
	assert.Equal(t, "Toxic ammonia and nitrite levels", first.Issue)
	assert.Equal(t, SeverityCritical, first.Severity)
	assert.Equal(t, 1, first.Priority)
	assert.Equal(t, "1.5/0.6", first.Value)

	// Critical issues all precede warnings.
	last := d.Issues[len(d.Issues)-1]
	assert.Equal(t, domain.ParamPH, last.Parameter)
	assert.Equal(t, SeverityWarning, last.Severity)
}

func TestDiagnose_OxygenTemperatureCompound(t *testing.T) {
	params := optimalWater()
	params[domain.ParamDissolvedOxygen] = 3.5
	params[domain.ParamTemperature] = 29

	d := Diagnose(params)
	is, ok := findIssue(d, "oxygen+temperature")
	require.True(t, ok)
	assert.Equal(t, "Low oxygen exacerbated by high temperature", is.Issue)
	assert.Equal(t, SeverityCritical, is.Severity)
	assert.Equal(t, 1, is.Priority)
	assert.Equal(t, "oxygen+temperature", d.Issues[0].Parameter)

	low, ok := findIssue(d, domain.ParamDissolvedOxygen)
	require.True(t, ok)
	assert.Equal(t, SeverityCritical, low.Severity)
}

func TestDiagnose_SeverityPolicy(t *testing.T) {
	tests := []struct {
		name  string
		param string
		value float64
		want  Severity
	}{
		{"low ph", domain.ParamPH, 6.0, SeverityWarning},
		{"high ph", domain.ParamPH, 7.8, SeverityWarning},
		{"high ammonia", domain.ParamAmmonia, 0.8, SeverityCritical},
		{"high nitrite", domain.ParamNitrite, 0.3, SeverityCritical},
		{"low nitrate", domain.ParamNitrate, 2, SeverityWarning},
		{"high nitrate", domain.ParamNitrate, 180, SeverityWarning},
		{"low temperature", domain.ParamTemperature, 15, SeverityWarning},
		{"high temperature", domain.ParamTemperature, 31, SeverityWarning},
		{"low oxygen", domain.ParamDissolvedOxygen, 4.5, SeverityCritical},
		{"high oxygen", domain.ParamDissolvedOxygen, 9, SeverityWarning},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := optimalWater()
			params[tt.param] = tt.value
			is, ok := findIssue(Diagnose(params), tt.param)
			require.True(t, ok)
			assert.Equal(t, tt.want, is.Severity)
			assert.Equal(t, defaultIssuePriority, is.EffectivePriority())
		})
	}
}

func TestDiagnose_AmmoniaBoundaryIsExclusive(t *testing.T) {
	for _, v := range []float64{0.4, 0.5} {
		params := optimalWater()
		params[domain.ParamAmmonia] = v
		_, ok := findIssue(Diagnose(params), domain.ParamAmmonia)
		assert.False(t, ok, "ammonia %.1f must not be flagged", v)
	}

	params := optimalWater()
	params[domain.ParamAmmonia] = 0.6
	is, ok := findIssue(Diagnose(params), domain.ParamAmmonia)
	require.True(t, ok)
	assert.Equal(t, SeverityCritical, is.Severity)
}

func TestDiagnose_Idempotent(t *testing.T) {
	params := optimalWater()
	params[domain.ParamAmmonia] = 2
	params[domain.ParamNitrite] = 0.7
	params[domain.ParamDissolvedOxygen] = 3
	params[domain.ParamTemperature] = 29

	assert.Equal(t, Diagnose(params), Diagnose(params))
}

func TestDiagnose_IgnoresUnknownAndMissingParameters(t *testing.T) {
	d := Diagnose(domain.Reading{domain.ParamHumidity: 99, domain.ParamPH: 9})
	require.Len(t, d.Issues, 1)
	assert.Equal(t, "High ph", d.Issues[0].Issue)
}

func TestSuggestActions_Optimal(t *testing.T) {
	params := optimalWater()
	plan := SuggestActions(params, Diagnose(params))
	assert.Equal(t, []string{"Maintain current water parameters"}, plan.Actions)
	assert.Equal(t, PriorityRoutine, plan.Priority)
}

func TestSuggestActions_CriticalAmmonia(t *testing.T) {
	params := optimalWater()
	params[domain.ParamAmmonia] = 0.8

	plan := SuggestActions(params, Diagnose(params))
	want := append(append([]string{}, ammoniaBundle...),
		"Reduce feeding by 50%",
		"Add beneficial bacteria supplement",
		"Retest water parameters after 24 hours",
	)
	assert.Equal(t, want, plan.Actions)
	assert.Equal(t, PriorityImmediate, plan.Priority)
}

func TestSuggestActions_DuplicatesAreKept(t *testing.T) {
	params := optimalWater()
	params[domain.ParamDissolvedOxygen] = 3
	params[domain.ParamTemperature] = 29

	plan := SuggestActions(params, Diagnose(params))
	count := 0
	for _, a := range plan.Actions {
		if a == "Increase aeration immediately" {
			count++
		}
	}
	// Compound issue and low dissolved_oxygen both add the oxygen bundle.
	assert.Equal(t, 2, count)
}

func TestSuggestActions_RawThresholds(t *testing.T) {
	tests := []struct {
		name  string
		param string
		value float64
		want  []string
	}{
		{"acidic", domain.ParamPH, 5.5, []string{"Add potassium bicarbonate to raise pH gradually"}},
		{"alkaline", domain.ParamPH, 8.5, []string{"Add phosphoric acid to lower pH gradually"}},
		{"nitrate", domain.ParamNitrate, 160, []string{"Perform 20% water change", "Increase plant density to consume more nitrates"}},
		{"hot", domain.ParamTemperature, 31, []string{"Install water chiller or shade system", "Increase aeration as warm water holds less oxygen"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := optimalWater()
			params[tt.param] = tt.value
			plan := SuggestActions(params, Diagnose(params))
			want := append(tt.want, "Retest water parameters after 24 hours")
			assert.Equal(t, want, plan.Actions)
			assert.Equal(t, PriorityRoutine, plan.Priority)
		})
	}
}

func TestReadParameters(t *testing.T) {
	t.Run("sensor failure falls back to defaults", func(t *testing.T) {
		w := NewWaterAdvisor(stubSource{err: errors.New("bus offline")}, nil)
		assert.Equal(t, SafeWaterDefaults(), w.ReadParameters(context.Background()))
	})

	t.Run("oxygen key maps to dissolved oxygen", func(t *testing.T) {
		w := NewWaterAdvisor(stubSource{reading: domain.Reading{domain.ParamOxygen: 4.2, domain.ParamPH: 6.8}}, nil)
		got := w.ReadParameters(context.Background())
		assert.Equal(t, 4.2, got[domain.ParamDissolvedOxygen])
		assert.Equal(t, 6.8, got[domain.ParamPH])
		assert.Equal(t, 22.0, got[domain.ParamTemperature])
		assert.NotContains(t, got, domain.ParamOxygen)
	})

	t.Run("nil source", func(t *testing.T) {
		assert.Equal(t, SafeWaterDefaults(), NewWaterAdvisor(nil, nil).ReadParameters(context.Background()))
	})
}

func TestActionPlanSummary(t *testing.T) {
	params := optimalWater()
	params[domain.ParamNitrate] = 160
	s := SuggestActions(params, Diagnose(params)).Summary()
	assert.Contains(t, s, "High nitrate")
	assert.Contains(t, s, "Perform 20% water change")
}

func TestSnapshot(t *testing.T) {
	w := NewWaterAdvisor(stubSource{reading: domain.Reading{
		domain.ParamNitrate:   12,
		domain.ParamPhosphate: 8,
		domain.ParamHumidity:  55,
	}}, nil)
	water, nutrients := w.Snapshot(context.Background())
	assert.Equal(t, 12.0, water[domain.ParamNitrate])
	assert.NotContains(t, water, domain.ParamHumidity)
	assert.Equal(t, domain.Reading{domain.ParamNitrate: 12, domain.ParamPhosphate: 8}, nutrients)

	water, nutrients = NewWaterAdvisor(stubSource{err: errors.New("offline")}, nil).Snapshot(context.Background())
	require.Equal(t, SafeWaterDefaults(), water)
	assert.Equal(t, domain.Reading{domain.ParamNitrate: 0}, nutrients)
}
