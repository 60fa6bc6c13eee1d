package advisor

import (
	"fmt"
	"strings"
)

// CycleStatus is the health tier of the nitrification cycle.
type CycleStatus string

const (
	CycleHealthy  CycleStatus = "healthy"
	CycleWarning  CycleStatus = "warning"
	CycleCritical CycleStatus = "critical"
)

// biofilterLitresPerKg is the media volume needed per kilogram of fish.
const biofilterLitresPerKg = 5.0

// SizeBiofilter returns the biofilter volume in litres for a fish load in
// kilograms. The load is not validated; negative input gives a negative size.
func SizeBiofilter(fishLoadKg float64) float64 {
	return fishLoadKg * biofilterLitresPerKg
}

// MonitorCycle classifies nitrogen compound levels. Each threshold is
// exclusive.
func MonitorCycle(ammonia, nitrite, nitrate float64) CycleStatus {
	switch {
	case ammonia > 1.0 || nitrite > 0.5 || nitrate > 100:
		return CycleCritical
	case ammonia > 0.5 || nitrite > 0.2 || nitrate > 80:
		return CycleWarning
	default:
		return CycleHealthy
	}
}

// CycleAdvice returns troubleshooting steps for a cycle status.
func CycleAdvice(status CycleStatus) []string {
	switch status {
	case CycleCritical:
		return []string{
			"Stop feeding until ammonia and nitrite fall",
			"Perform a partial water change to relieve toxicity",
			"Add nitrifying bacteria supplement to the biofilter",
			"Check biofilter media for clogging or die-off",
			"Notify the operator immediately",
		}
	case CycleWarning:
		return []string{
			"Reduce feeding while the biofilter catches up",
			"Verify biofilter size against the current fish load",
			"Retest ammonia, nitrite and nitrate within 24 hours",
		}
	default:
		return []string{"Nitrification cycle is stable; continue routine monitoring"}
	}
}

// BiofilterReport combines sizing and cycle checks for the bacteria worker.
type BiofilterReport struct {
	FishLoadKg       float64     `json:"fish_load_kg,omitempty"`
	BiofilterVolumeL float64     `json:"biofilter_volume_l,omitempty"`
	CycleStatus      CycleStatus `json:"cycle_status,omitempty"`
	Advice           []string    `json:"advice,omitempty"`
	Sized            bool        `json:"-"`
}

// Summary renders the report as short plain text.
func (r BiofilterReport) Summary() string {
	var b strings.Builder
	if r.Sized {
		fmt.Fprintf(&b, "Fish load %.1f kg needs a %.1f L biofilter.", r.FishLoadKg, r.BiofilterVolumeL)
	}
	if r.CycleStatus != "" {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Nitrification cycle is %s.", r.CycleStatus)
		for _, a := range r.Advice {
			b.WriteString("\n- " + a)
		}
	}
	if b.Len() == 0 {
		return "No fish load or water data available for biofilter analysis."
	}
	return b.String()
}
