package advisor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ruvenwang/mindponics/internal/domain"
)

func TestClimateRecommendations(t *testing.T) {
	tests := []struct {
		name                   string
		curT, tgtT, curH, tgtH float64
		want                   []string
	}{
		{
			name: "hot with humidity exactly five below target",
			curT: 29, tgtT: 25, curH: 60, tgtH: 65,
			want: []string{"Increase ventilation or cooling", "Activate evaporative cooling system"},
		},
		{
			name: "slightly warm",
			curT: 27, tgtT: 25, curH: 65, tgtH: 65,
			want: []string{"Increase ventilation or cooling"},
		},
		{
			name: "cold and humid triggers light cycle",
			curT: 20, tgtT: 25, curH: 75, tgtH: 65,
			want: []string{
				"Activate heating system",
				"Increase insulation or close vents",
				"Increase ventilation to reduce humidity",
				"Extend light cycle to boost temperature and reduce humidity",
			},
		},
		{
			name: "dry",
			curT: 25, tgtT: 25, curH: 50, tgtH: 65,
			want: []string{"Activate humidification system"},
		},
		{
			name: "within tolerance",
			curT: 25.9, tgtT: 25, curH: 69, tgtH: 65,
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClimateRecommendations(tt.curT, tt.tgtT, tt.curH, tt.tgtH))
		})
	}
}

func TestSuggestClimateControl(t *testing.T) {
	assert.Equal(t, ClimateOptimal, SuggestClimateControl(25, 25, 65, 65))
	assert.Equal(t,
		"Recommendations: Increase ventilation or cooling; Activate evaporative cooling system",
		SuggestClimateControl(29, 25, 60, 65))
}

func TestReadAmbient(t *testing.T) {
	e := NewEnvironmentAdvisor(stubSource{err: errors.New("timeout")}, nil)
	assert.Equal(t, DefaultAmbient, e.ReadAmbient(context.Background()))

	e = NewEnvironmentAdvisor(stubSource{reading: domain.Reading{domain.ParamHumidity: 72}}, nil)
	got := e.ReadAmbient(context.Background())
	assert.Equal(t, Ambient{Temperature: 22, Humidity: 72, LightLevel: 500}, got)
}
