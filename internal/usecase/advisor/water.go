package advisor

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/ruvenwang/mindponics/internal/domain"
)

// Severity of a diagnosed issue.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

func (s Severity) rank() int {
	if s == SeverityCritical {
		return 0
	}
	return 1
}

// Diagnosis status values.
const (
	StatusOptimal        = "optimal"
	StatusIssuesDetected = "issues_detected"
)

// Action plan priorities.
const (
	PriorityRoutine   = "routine"
	PriorityImmediate = "immediate"
)

// defaultIssuePriority applies to issues that carry no explicit priority.
const defaultIssuePriority = 2

// WaterRange pairs a parameter with its optimal band.
type WaterRange struct {
	Param string
	Range Range
}

// WaterRanges is the optimal band table, in evaluation order.
var WaterRanges = []WaterRange{
	{domain.ParamPH, Range{6.5, 7.5}},
	{domain.ParamAmmonia, Range{0.0, 0.5}},
	{domain.ParamNitrite, Range{0.0, 0.2}},
	{domain.ParamNitrate, Range{5.0, 150.0}},
	{domain.ParamTemperature, Range{18.0, 30.0}},
	{domain.ParamDissolvedOxygen, Range{5.0, 8.0}},
}

// safeWaterDefaults are used for any parameter the sensor did not deliver.
var safeWaterDefaults = domain.Reading{
	domain.ParamPH:              7.0,
	domain.ParamAmmonia:         0.0,
	domain.ParamNitrite:         0.0,
	domain.ParamNitrate:         0.0,
	domain.ParamTemperature:     22.0,
	domain.ParamDissolvedOxygen: 6.5,
}

// SafeWaterDefaults returns a fresh copy of the fallback water reading.
func SafeWaterDefaults() domain.Reading { return safeWaterDefaults.Clone() }

// Issue is one water-quality finding.
type Issue struct {
	Parameter string   `json:"parameter"`
	Value     string   `json:"value"`
	Issue     string   `json:"issue"`
	Severity  Severity `json:"severity"`
	Priority  int      `json:"priority,omitempty"`
}

// EffectivePriority is Priority, or the default when unset.
func (i Issue) EffectivePriority() int {
	if i.Priority == 0 {
		return defaultIssuePriority
	}
	return i.Priority
}

// Diagnosis is the outcome of Diagnose.
type Diagnosis struct {
	Parameters domain.Reading `json:"parameters"`
	Issues     []Issue        `json:"issues"`
	Status     string         `json:"status"`
}

// HasCritical reports whether any issue is critical.
func (d Diagnosis) HasCritical() bool {
	for _, is := range d.Issues {
		if is.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

// ActionPlan is the outcome of SuggestActions.
type ActionPlan struct {
	Diagnosis Diagnosis `json:"diagnosis"`
	Actions   []string  `json:"actions"`
	Priority  string    `json:"priority"`
}

// WaterAdvisor reads and evaluates water quality.
type WaterAdvisor struct {
	source domain.SensorSource
	logger *slog.Logger
}

// NewWaterAdvisor creates a water advisor. A nil logger discards output.
func NewWaterAdvisor(source domain.SensorSource, logger *slog.Logger) *WaterAdvisor {
	if logger == nil {
		logger = discardLogger()
	}
	return &WaterAdvisor{source: source, logger: logger}
}

// ReadParameters returns the current water reading. Missing values and
// sensor failures are replaced with safe defaults; it never fails.
func (w *WaterAdvisor) ReadParameters(ctx context.Context) domain.Reading {
	if w.source == nil {
		return SafeWaterDefaults()
	}
	raw, err := w.source.Read(ctx)
	if err != nil {
		w.logger.Error("water parameter read failed, using defaults",
			"source", w.source.Name(), "error", err)
		return SafeWaterDefaults()
	}
	return NormalizeWater(raw)
}

// Snapshot reads the sensor once and returns both the normalized water
// parameters and the nutrient levels shared with the plant worker. Nutrient
// levels always carry nitrate; phosphate and potassium only when measured.
func (w *WaterAdvisor) Snapshot(ctx context.Context) (water, nutrients domain.Reading) {
	if w.source == nil {
		water = SafeWaterDefaults()
		return water, domain.Reading{domain.ParamNitrate: water[domain.ParamNitrate]}
	}
	raw, err := w.source.Read(ctx)
	if err != nil {
		w.logger.Error("water parameter read failed, using defaults",
			"source", w.source.Name(), "error", err)
		water = SafeWaterDefaults()
		return water, domain.Reading{domain.ParamNitrate: water[domain.ParamNitrate]}
	}
	water = NormalizeWater(raw)
	nutrients = domain.Reading{domain.ParamNitrate: water[domain.ParamNitrate]}
	for _, key := range []string{domain.ParamPhosphate, domain.ParamPotassium} {
		if v, ok := raw[key]; ok {
			nutrients[key] = v
		}
	}
	return water, nutrients
}

// NormalizeWater projects a raw sensor reading onto the water parameter set,
// mapping the sensor's "oxygen" key to dissolved_oxygen and filling gaps
// with safe defaults.
func NormalizeWater(raw domain.Reading) domain.Reading {
	out := SafeWaterDefaults()
	for _, key := range []string{domain.ParamPH, domain.ParamAmmonia, domain.ParamNitrite, domain.ParamNitrate, domain.ParamTemperature} {
		if v, ok := raw[key]; ok {
			out[key] = v
		}
	}
	if v, ok := raw[domain.ParamOxygen]; ok {
		out[domain.ParamDissolvedOxygen] = v
	}
	if v, ok := raw[domain.ParamDissolvedOxygen]; ok {
		out[domain.ParamDissolvedOxygen] = v
	}
	return out
}

func criticalLow(param string) bool {
	switch param {
	case domain.ParamAmmonia, domain.ParamNitrite, domain.ParamDissolvedOxygen:
		return true
	}
	return false
}

func criticalHigh(param string) bool {
	return param == domain.ParamAmmonia || param == domain.ParamNitrite
}

// Diagnose flags every parameter outside its optimal band and applies the
// two compound rules. Issues are stably ordered by severity then priority.
func Diagnose(params domain.Reading) Diagnosis {
	var issues []Issue

	for _, wr := range WaterRanges {
		v, ok := params[wr.Param]
		if !ok {
			continue
		}
		switch {
		case v < wr.Range.Low:
			sev := SeverityWarning
			if criticalLow(wr.Param) {
				sev = SeverityCritical
			}
			issues = append(issues, Issue{Parameter: wr.Param, Value: formatValue(v), Issue: "Low " + wr.Param, Severity: sev})
		case v > wr.Range.High:
			sev := SeverityWarning
			if criticalHigh(wr.Param) {
				sev = SeverityCritical
			}
			issues = append(issues, Issue{Parameter: wr.Param, Value: formatValue(v), Issue: "High " + wr.Param, Severity: sev})
		}
	}

	ammonia, okA := params[domain.ParamAmmonia]
	nitrite, okN := params[domain.ParamNitrite]
	if okA && okN && ammonia > 1.0 && nitrite > 0.5 {
		issues = append(issues, Issue{
			Parameter: "ammonia+nitrite",
			Value:     formatValue(ammonia) + "/" + formatValue(nitrite),
			Issue:     "Toxic ammonia and nitrite levels",
			Severity:  SeverityCritical,
			Priority:  1,
		})
	}

	oxygen, okO := params[domain.ParamDissolvedOxygen]
	temp, okT := params[domain.ParamTemperature]
	if okO && okT && oxygen < 4.0 && temp > 28.0 {
		issues = append(issues, Issue{
			Parameter: "oxygen+temperature",
			Value:     formatValue(oxygen) + "/" + formatValue(temp),
			Issue:     "Low oxygen exacerbated by high temperature",
			Severity:  SeverityCritical,
			Priority:  1,
		})
	}

	sort.SliceStable(issues, func(i, j int) bool {
		ri, rj := issues[i].Severity.rank(), issues[j].Severity.rank()
		if ri != rj {
			return ri < rj
		}
		return issues[i].EffectivePriority() < issues[j].EffectivePriority()
	})

	status := StatusOptimal
	if len(issues) > 0 {
		status = StatusIssuesDetected
	}
	return Diagnosis{Parameters: params.Clone(), Issues: issues, Status: status}
}

var (
	ammoniaBundle = []string{
		"Perform immediate 25-50% water change",
		"Reduce feeding immediately",
		"Check biofilter function",
		"Add salt (1-3 ppt) to protect fish",
		"Increase aeration immediately",
		"Reduce stocking density if possible",
		"Add additional air stones or surface agitation",
	}
	oxygenBundle = []string{
		"Increase aeration immediately",
		"Reduce stocking density if possible",
		"Add additional air stones or surface agitation",
	}
)

// SuggestActions turns a diagnosis into an ordered action list. Bundles for
// critical issues come first, then raw threshold checks on params. Duplicate
// actions are kept.
func SuggestActions(params domain.Reading, diagnosis Diagnosis) ActionPlan {
	var actions []string

	for _, is := range diagnosis.Issues {
		if is.Severity != SeverityCritical {
			continue
		}
		switch {
		case strings.Contains(is.Parameter, "ammonia"):
			actions = append(actions, ammoniaBundle...)
		case strings.Contains(is.Parameter, "oxygen"):
			actions = append(actions, oxygenBundle...)
		}
	}

	if ph, ok := params[domain.ParamPH]; ok {
		if ph < 6.0 {
			actions = append(actions, "Add potassium bicarbonate to raise pH gradually")
		} else if ph > 8.0 {
			actions = append(actions, "Add phosphoric acid to lower pH gradually")
		}
	}
	if params.Get(domain.ParamAmmonia, 0) > 0.5 {
		actions = append(actions, "Reduce feeding by 50%", "Add beneficial bacteria supplement")
	}
	if params.Get(domain.ParamNitrate, 0) > 150 {
		actions = append(actions, "Perform 20% water change", "Increase plant density to consume more nitrates")
	}
	if params.Get(domain.ParamTemperature, 0) > 30.0 {
		actions = append(actions, "Install water chiller or shade system", "Increase aeration as warm water holds less oxygen")
	}

	if len(actions) == 0 {
		actions = append(actions, "Maintain current water parameters")
	} else {
		actions = append(actions, "Retest water parameters after 24 hours")
	}

	priority := PriorityRoutine
	if diagnosis.HasCritical() {
		priority = PriorityImmediate
	}
	return ActionPlan{Diagnosis: diagnosis, Actions: actions, Priority: priority}
}

// Summary renders the plan as short plain text.
func (p ActionPlan) Summary() string {
	var b strings.Builder
	if p.Diagnosis.Status == StatusOptimal {
		b.WriteString("Water quality is within optimal ranges.")
	} else {
		fmt.Fprintf(&b, "Water quality: %d issue(s) detected (%s priority).", len(p.Diagnosis.Issues), p.Priority)
		for _, is := range p.Diagnosis.Issues {
			fmt.Fprintf(&b, "\n- %s (%s = %s, %s)", is.Issue, is.Parameter, is.Value, is.Severity)
		}
	}
	b.WriteString("\nActions:")
	for _, a := range p.Actions {
		b.WriteString("\n- " + a)
	}
	return b.String()
}

// formatValue prints whole numbers with one decimal place so "2" reads "2.0".
func formatValue(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEIN") {
		s += ".0"
	}
	return s
}
