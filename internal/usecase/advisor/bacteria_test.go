package advisor

import (
	"strings"
	"testing"
)

func TestSizeBiofilter(t *testing.T) {
	tests := []struct {
		load float64
		want float64
	}{
		{10, 50},
		{0, 0},
		{2.5, 12.5},
		{-4, -20},
	}
	for _, tt := range tests {
		if got := SizeBiofilter(tt.load); got != tt.want {
			t.Errorf("SizeBiofilter(%v) = %v, want %v", tt.load, got, tt.want)
		}
	}
}

func TestMonitorCycle(t *testing.T) {
	tests := []struct {
		name                      string
		ammonia, nitrite, nitrate float64
		want                      CycleStatus
	}{
		{"ammonia alone is critical", 1.5, 0.1, 50, CycleCritical},
		{"nitrite critical", 0.1, 0.6, 50, CycleCritical},
		{"nitrate critical", 0.1, 0.1, 101, CycleCritical},
		{"ammonia warning", 0.6, 0.1, 50, CycleWarning},
		{"nitrite warning", 0.1, 0.3, 50, CycleWarning},
		{"nitrate warning", 0.1, 0.1, 90, CycleWarning},
		{"boundaries are exclusive", 0.5, 0.2, 80, CycleHealthy},
		{"upper boundaries are exclusive", 1.0, 0.5, 100, CycleWarning},
		{"healthy", 0.1, 0.05, 40, CycleHealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MonitorCycle(tt.ammonia, tt.nitrite, tt.nitrate); got != tt.want {
				t.Errorf("MonitorCycle(%v, %v, %v) = %q, want %q", tt.ammonia, tt.nitrite, tt.nitrate, got, tt.want)
			}
		})
	}
}

func TestCycleAdvice(t *testing.T) {
	for _, s := range []CycleStatus{CycleHealthy, CycleWarning, CycleCritical} {
		if len(CycleAdvice(s)) == 0 {
			t.Errorf("CycleAdvice(%q) is empty", s)
		}
	}
}

func TestBiofilterReportSummary(t *testing.T) {
	r := BiofilterReport{FishLoadKg: 20, BiofilterVolumeL: SizeBiofilter(20), Sized: true}
	if got, want := r.Summary(), "Fish load 20.0 kg needs a 100.0 L biofilter."; got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}

	r = BiofilterReport{CycleStatus: CycleWarning, Advice: CycleAdvice(CycleWarning)}
	if got := r.Summary(); !strings.HasPrefix(got, "Nitrification cycle is warning.\n- ") {
		t.Errorf("Summary() = %q", got)
	}

	if got := (BiofilterReport{}).Summary(); !strings.HasPrefix(got, "No fish load") {
		t.Errorf("empty Summary() = %q", got)
	}
}
