package domain

import (
	"context"
	"fmt"
	"maps"
	"strconv"
	"strings"
	"time"
)

// Specialty names one of the five specialist domains.
type Specialty string

const (
	SpecialtyWater       Specialty = "water"
	SpecialtyFish        Specialty = "fish"
	SpecialtyPlant       Specialty = "plant"
	SpecialtyBacteria    Specialty = "bacteria"
	SpecialtyEnvironment Specialty = "environment"
)

// AllSpecialties lists every specialty in canonical dispatch order.
var AllSpecialties = []Specialty{
	SpecialtyWater,
	SpecialtyFish,
	SpecialtyPlant,
	SpecialtyBacteria,
	SpecialtyEnvironment,
}

// ParseSpecialty resolves a case-insensitive specialty name.
func ParseSpecialty(s string) (Specialty, error) {
	sp := Specialty(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllSpecialties {
		if sp == known {
			return sp, nil
		}
	}
	return "", NewDomainError("ParseSpecialty", ErrInvalidInput, fmt.Sprintf("unknown specialty %q", s))
}

// Reading parameter keys.
const (
	ParamPH              = "ph"
	ParamAmmonia         = "ammonia"
	ParamNitrite         = "nitrite"
	ParamNitrate         = "nitrate"
	ParamTemperature     = "temperature"
	ParamOxygen          = "oxygen"
	ParamDissolvedOxygen = "dissolved_oxygen"
	ParamHumidity        = "humidity"
	ParamLightLevel      = "light_level"
	ParamPhosphate       = "phosphate"
	ParamPotassium       = "potassium"
)

// Reading is one snapshot of sensor values keyed by parameter name.
type Reading map[string]float64

// Get returns the value for key, or def when the key is absent.
func (r Reading) Get(key string, def float64) float64 {
	if v, ok := r[key]; ok {
		return v
	}
	return def
}

// Clone returns an independent copy.
func (r Reading) Clone() Reading {
	if r == nil {
		return nil
	}
	return maps.Clone(r)
}

// SensorSource produces readings. Implementations may fail; callers fall back
// to defaults rather than propagating the error.
type SensorSource interface {
	Read(ctx context.Context) (Reading, error)
	Name() string
}

// Mailbox payload keys shared between workers.
const (
	PayloadWaterParameters = "water_parameters"
	PayloadNutrientLevels  = "nutrient_levels"
	PayloadReport          = "report"
)

// Message is the unit of inter-worker communication.
type Message struct {
	ID        string         `json:"id"`
	Sender    string         `json:"sender"`
	Recipient string         `json:"recipient"`
	Payload   map[string]any `json:"payload"`
	SentAt    time.Time      `json:"sent_at"`
}

// AgentState carries per-request configuration such as species, life stage
// and observed symptoms. Workers only read it.
type AgentState map[string]any

// State keys understood by the workers.
const (
	StateFishSpecies    = "fish_species"
	StateFishLifeStage  = "fish_life_stage"
	StateFishCount      = "fish_count"
	StateFishAvgWeightG = "fish_avg_weight_g"
	StateFishSymptoms   = "fish_symptoms"
	StateFishLoadKg     = "fish_load_kg"
	StatePlantSpecies   = "plant_species"
	StatePlantStage     = "plant_stage"
	StatePlantSymptoms  = "plant_symptoms"
	StateTargetTemp     = "target_temperature"
	StateTargetHumidity = "target_humidity"
	StateAmmonia        = ParamAmmonia
	StateNitrite        = ParamNitrite
	StateNitrate        = ParamNitrate
)

// String returns the value for key as a string, or def.
func (s AgentState) String(key, def string) string {
	switch v := s[key].(type) {
	case string:
		if v != "" {
			return v
		}
	case fmt.Stringer:
		return v.String()
	}
	return def
}

// Float returns the value for key as a float64, or def. Strings are parsed.
func (s AgentState) Float(key string, def float64) float64 {
	switch v := s[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return def
}

// Has reports whether key is set.
func (s AgentState) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Merge returns a copy of s overlaid with other.
func (s AgentState) Merge(other AgentState) AgentState {
	out := make(AgentState, len(s)+len(other))
	maps.Copy(out, s)
	maps.Copy(out, other)
	return out
}

// Report is one worker's contribution to an advisory request.
type Report struct {
	RequestID   string         `json:"request_id"`
	Specialty   Specialty      `json:"specialty"`
	WorkerID    string         `json:"worker_id"`
	Summary     string         `json:"summary"`
	Data        map[string]any `json:"data,omitempty"`
	Unavailable bool           `json:"unavailable,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// UnavailableReport is the placeholder used when a worker misses the
// collection window.
func UnavailableReport(requestID string, sp Specialty, workerID string) *Report {
	return &Report{
		RequestID:   requestID,
		Specialty:   sp,
		WorkerID:    workerID,
		Summary:     fmt.Sprintf("The %s specialist is unavailable.", sp),
		Unavailable: true,
		Error:       ErrWorkerUnavailable.Error(),
	}
}

// Classifier maps a free-text query to the specialties that should answer it.
type Classifier interface {
	Classify(ctx context.Context, query string) ([]Specialty, error)
}

// Synthesizer merges worker reports into one answer.
type Synthesizer interface {
	Synthesize(ctx context.Context, query string, reports []*Report) (string, error)
}

// Narrator rewrites a worker's deterministic findings as prose.
type Narrator interface {
	Narrate(ctx context.Context, sp Specialty, query, findings string) (string, error)
}
