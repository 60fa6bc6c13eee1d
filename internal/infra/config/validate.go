package config

import (
	"fmt"
	"strings"
)

// ValidationError accumulates config validation errors.
type ValidationError struct {
	Errors []string
}

func (v *ValidationError) Error() string {
	return "config validation failed:\n  - " + strings.Join(v.Errors, "\n  - ")
}

// HasErrors reports whether any validation errors have been recorded.
func (v *ValidationError) HasErrors() bool {
	return len(v.Errors) > 0
}

// Add records a formatted validation error.
func (v *ValidationError) Add(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

// Validate checks cfg for structural correctness. It returns a *ValidationError
// when one or more problems are found, allowing callers to inspect all issues.
func Validate(cfg *Config) error {
	ve := &ValidationError{}
	validateLogger(cfg, ve)
	validateTracer(cfg, ve)
	validateSensor(cfg, ve)
	validateEnvironment(cfg, ve)
	validateRouter(cfg, ve)
	validateLLM(cfg, ve)
	validateHistory(cfg, ve)
	validateMonitor(cfg, ve)
	if ve.HasErrors() {
		return ve
	}
	return nil
}

var validLogFormats = map[string]bool{"": true, "text": true, "json": true}

func validateLogger(cfg *Config, ve *ValidationError) {
	if !validLogFormats[strings.ToLower(cfg.Logger.Format)] {
		ve.Add("logger.format %q is invalid (want: text, json)", cfg.Logger.Format)
	}
}

func validateTracer(cfg *Config, ve *ValidationError) {
	if !cfg.Tracer.Enabled {
		return
	}
	switch cfg.Tracer.Exporter {
	case "", "noop", "stdout", "file":
	default:
		ve.Add("tracer.exporter %q is invalid (want: noop, stdout, file)", cfg.Tracer.Exporter)
	}
	if cfg.Tracer.Exporter == "file" && cfg.Tracer.Endpoint == "" {
		ve.Add("tracer.endpoint is required for the file exporter")
	}
}

func validateSensor(cfg *Config, ve *ValidationError) {
	switch cfg.Sensor.Type {
	case "simulator":
	case "static":
		if len(cfg.Sensor.Values) == 0 {
			ve.Add("sensor.values must not be empty for the static sensor")
		}
	case "file":
		if cfg.Sensor.Path == "" {
			ve.Add("sensor.path is required for the file sensor")
		}
	default:
		ve.Add("sensor.type %q is invalid (want: simulator, static, file)", cfg.Sensor.Type)
	}
}

func validateEnvironment(cfg *Config, ve *ValidationError) {
	if h := cfg.Environment.TargetHumidity; h < 0 || h > 100 {
		ve.Add("environment.target_humidity must be within 0-100, got %v", h)
	}
}

var validSpecialties = map[string]bool{
	"water":       true,
	"fish":        true,
	"plant":       true,
	"bacteria":    true,
	"environment": true,
}

func validateRouter(cfg *Config, ve *ValidationError) {
	r := cfg.Router
	if r.CollectTimeout <= 0 {
		ve.Add("router.collect_timeout must be > 0")
	}
	if r.ProducerWait < 0 {
		ve.Add("router.producer_wait must be >= 0")
	}
	if r.ProducerWait > 0 && r.ProducerWait >= r.CollectTimeout {
		ve.Add("router.producer_wait (%s) must be shorter than router.collect_timeout (%s)", r.ProducerWait, r.CollectTimeout)
	}
	switch r.Classifier {
	case "keyword", "prefix", "llm":
	default:
		ve.Add("router.classifier %q is invalid (want: keyword, prefix, llm)", r.Classifier)
	}
	switch r.Synthesizer {
	case "join", "llm":
	default:
		ve.Add("router.synthesizer %q is invalid (want: join, llm)", r.Synthesizer)
	}
	if len(r.DefaultSpecialties) == 0 {
		ve.Add("router.default_specialties must not be empty")
	}
	for i, sp := range r.DefaultSpecialties {
		if !validSpecialties[strings.ToLower(sp)] {
			ve.Add("router.default_specialties[%d]: unknown specialty %q", i, sp)
		}
	}
	if r.RateLimit < 0 {
		ve.Add("router.rate_limit must be >= 0")
	}
	if r.RateLimit > 0 && r.Burst <= 0 {
		ve.Add("router.burst must be > 0 when rate_limit is set")
	}

	needsLLM := r.Classifier == "llm" || r.Synthesizer == "llm" || r.Narrate
	if needsLLM && len(cfg.LLM.Providers) == 0 {
		ve.Add("router: llm classifier, synthesizer or narration requires at least one llm provider")
	}
}

var validProviderTypes = map[string]bool{
	"openai":     true,
	"openrouter": true,
	"groq":       true,
	"ollama":     true,
}

func validateLLM(cfg *Config, ve *ValidationError) {
	if len(cfg.LLM.Providers) == 0 {
		return
	}
	if cfg.LLM.DefaultProvider == "" {
		ve.Add("llm.default_provider must not be empty")
	}

	seen := make(map[string]bool)
	foundDefault := false
	for i, p := range cfg.LLM.Providers {
		if p.Name == "" {
			ve.Add("llm.providers[%d].name must not be empty", i)
			continue
		}
		if seen[p.Name] {
			ve.Add("llm.providers[%d]: duplicate provider name %q", i, p.Name)
		}
		seen[p.Name] = true

		if p.Type != "" && !validProviderTypes[p.Type] {
			ve.Add("llm.providers[%d].type %q is invalid (want: openai, openrouter, groq, ollama)", i, p.Type)
		}
		if p.APIKey == "" && p.Type != "ollama" {
			ve.Add("llm.providers[%d] (%s): api_key is empty (set via MINDPONICS_LLM_PROVIDER_%s_API_KEY)",
				i, p.Name, strings.ToUpper(p.Name))
		}
		if p.Model == "" {
			ve.Add("llm.providers[%d] (%s): model is required", i, p.Name)
		}
		if p.Name == cfg.LLM.DefaultProvider {
			foundDefault = true
		}
	}

	if !foundDefault && cfg.LLM.DefaultProvider != "" {
		ve.Add("llm.default_provider %q does not match any configured provider", cfg.LLM.DefaultProvider)
	}
	if cb := cfg.LLM.CircuitBreaker; cb.Enabled && cb.MaxFailures == 0 {
		ve.Add("llm.circuit_breaker.max_failures must be > 0 when enabled")
	}
}

func validateHistory(cfg *Config, ve *ValidationError) {
	if cfg.History.Enabled && cfg.History.Path == "" {
		ve.Add("history.path is required when history is enabled")
	}
	if cfg.History.Limit < 0 {
		ve.Add("history.limit must be >= 0")
	}
}

func validateMonitor(cfg *Config, ve *ValidationError) {
	if cfg.Monitor.Schedule == "" {
		ve.Add("monitor.schedule is required")
	}
	if strings.TrimSpace(cfg.Monitor.Query) == "" {
		ve.Add("monitor.query must not be empty")
	}
}
