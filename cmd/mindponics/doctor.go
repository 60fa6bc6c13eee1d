package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ruvenwang/mindponics/internal/adapter/history"
	"github.com/ruvenwang/mindponics/internal/adapter/render"
	"github.com/ruvenwang/mindponics/internal/adapter/sensor"
	"github.com/ruvenwang/mindponics/internal/domain"
	"github.com/ruvenwang/mindponics/internal/infra/config"
	"github.com/ruvenwang/mindponics/internal/usecase/monitor"
)

// CheckStatus represents the result of a health check.
type CheckStatus string

const (
	StatusPass CheckStatus = "PASS"
	StatusWarn CheckStatus = "WARN"
	StatusFail CheckStatus = "FAIL"
)

// CheckResult holds the outcome of a single health check.
type CheckResult struct {
	Name    string
	Status  CheckStatus
	Message string
	Fix     string // optional fix suggestion
}

// Check is a named health check function.
type Check struct {
	Name string
	Fn   func(cfg *config.Config) CheckResult
}

var noConfig = CheckResult{Status: StatusFail, Message: "cannot check, config not loaded"}

// runDoctor executes all health checks and reports results.
func runDoctor(args cliArgs) error {
	cfgPath := configPath(args)
	cfg, cfgErr := config.Load(cfgPath)

	checks := []Check{
		{Name: "Config file", Fn: checkConfigFile(cfgPath, cfgErr)},
		{Name: "Sensor source", Fn: checkSensor},
		{Name: "Router", Fn: checkRouter},
		{Name: "LLM provider", Fn: checkLLMProvider},
		{Name: "LLM connectivity", Fn: checkLLMConnectivity},
		{Name: "History store", Fn: checkHistory},
		{Name: "Monitor schedule", Fn: checkMonitor},
	}

	out := render.New(os.Stdout, args.plain)
	out.Title("mindponics doctor")
	out.Println()

	var pass, warn, fail int
	for _, check := range checks {
		result := check.Fn(cfg)
		result.Name = check.Name
		out.Check(string(result.Status), result.Name, result.Message, result.Fix)

		switch result.Status {
		case StatusPass:
			pass++
		case StatusWarn:
			warn++
		case StatusFail:
			fail++
		}
	}

	out.Println()
	out.Println(strings.Repeat("-", 50))
	out.Println(fmt.Sprintf("Results: %d passed, %d warnings, %d failed", pass, warn, fail))

	if fail > 0 {
		out.Println("\nFix the FAIL issues above to ensure mindponics runs correctly.")
		return fmt.Errorf("%d check(s) failed", fail)
	}
	if warn > 0 {
		out.Println("\nmindponics should work, but consider addressing the warnings.")
	} else {
		out.Println("\nAll checks passed! mindponics is ready to run.")
	}
	return nil
}

// checkConfigFile reports whether the config file loaded. A missing file is
// a warning because the defaults still run.
func checkConfigFile(cfgPath string, cfgErr error) func(*config.Config) CheckResult {
	return func(_ *config.Config) CheckResult {
		if cfgErr != nil {
			return CheckResult{
				Status:  StatusFail,
				Message: fmt.Sprintf("config error: %v", cfgErr),
				Fix:     "Check " + cfgPath + " syntax and permissions (0600)",
			}
		}
		if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
			return CheckResult{
				Status:  StatusWarn,
				Message: fmt.Sprintf("no config file at %s, using defaults", cfgPath),
				Fix:     "Create config.yaml or pass --config",
			}
		}
		return CheckResult{
			Status:  StatusPass,
			Message: fmt.Sprintf("config loaded from %s", cfgPath),
		}
	}
}

// checkSensor takes one reading from the configured source.
func checkSensor(cfg *config.Config) CheckResult {
	if cfg == nil {
		return noConfig
	}
	src, err := sensor.New(cfg.Sensor, nil)
	if err != nil {
		return CheckResult{
			Status:  StatusFail,
			Message: err.Error(),
			Fix:     "Set sensor.type to simulator, static or file",
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	reading, err := src.Read(ctx)
	if err != nil {
		return CheckResult{
			Status:  StatusWarn,
			Message: fmt.Sprintf("%s read failed, advisors fall back to defaults: %v", src.Name(), err),
		}
	}
	var missing []string
	for _, key := range []string{domain.ParamPH, domain.ParamAmmonia, domain.ParamTemperature} {
		if _, ok := reading[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return CheckResult{
			Status:  StatusWarn,
			Message: fmt.Sprintf("%s reading lacks %s", src.Name(), strings.Join(missing, ", ")),
		}
	}
	return CheckResult{
		Status:  StatusPass,
		Message: fmt.Sprintf("%s returned %d values", src.Name(), len(reading)),
	}
}

// checkRouter verifies the router strategies and default specialties.
func checkRouter(cfg *config.Config) CheckResult {
	if cfg == nil {
		return noConfig
	}
	r := cfg.Router
	if _, err := parseSpecialties(r.DefaultSpecialties); err != nil {
		return CheckResult{Status: StatusFail, Message: err.Error()}
	}
	needsLLM := r.Classifier == "llm" || r.Synthesizer == "llm" || r.Narrate
	if needsLLM {
		if _, ok := cfg.LLM.Provider(); !ok {
			return CheckResult{
				Status:  StatusFail,
				Message: fmt.Sprintf("classifier=%s synthesizer=%s needs llm provider %q", r.Classifier, r.Synthesizer, cfg.LLM.DefaultProvider),
				Fix:     "Add the provider under llm.providers or switch router.classifier to prefix",
			}
		}
	}
	return CheckResult{
		Status:  StatusPass,
		Message: fmt.Sprintf("classifier=%s synthesizer=%s timeout=%s", r.Classifier, r.Synthesizer, r.CollectTimeout),
	}
}

// checkLLMProvider verifies the default provider exists and has a key.
func checkLLMProvider(cfg *config.Config) CheckResult {
	if cfg == nil {
		return noConfig
	}
	p, ok := cfg.LLM.Provider()
	if !ok {
		return CheckResult{
			Status:  StatusWarn,
			Message: "no llm provider configured, keyword routing only",
		}
	}
	if p.APIKey == "" && p.Type != "ollama" && p.Name != "ollama" {
		return CheckResult{
			Status:  StatusWarn,
			Message: fmt.Sprintf("provider %q has no API key", p.Name),
			Fix:     fmt.Sprintf("Set MINDPONICS_LLM_PROVIDER_%s_API_KEY", strings.ToUpper(p.Name)),
		}
	}
	return CheckResult{
		Status:  StatusPass,
		Message: fmt.Sprintf("%s (model %s)", p.Name, p.Model),
	}
}

// checkLLMConnectivity tests if the default provider is reachable.
func checkLLMConnectivity(cfg *config.Config) CheckResult {
	if cfg == nil {
		return noConfig
	}
	p, ok := cfg.LLM.Provider()
	if !ok {
		return CheckResult{Status: StatusWarn, Message: "skipped, no provider"}
	}
	endpoint := providerEndpoint(p)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return CheckResult{Status: StatusFail, Message: fmt.Sprintf("failed to create request: %v", err)}
	}
	resp, err := http.DefaultClient.Do(req)
	latency := time.Since(start)
	if err != nil {
		return CheckResult{
			Status:  StatusFail,
			Message: fmt.Sprintf("cannot reach %s: %v", endpoint, err),
			Fix:     "Check your internet connection and llm base_url",
		}
	}
	resp.Body.Close()

	return CheckResult{
		Status:  StatusPass,
		Message: fmt.Sprintf("%s reachable (latency: %dms)", p.Name, latency.Milliseconds()),
	}
}

// providerEndpoint returns the models listing URL of an OpenAI-compatible
// provider.
func providerEndpoint(p config.ProviderConfig) string {
	if p.BaseURL != "" {
		return strings.TrimRight(p.BaseURL, "/") + "/models"
	}
	switch p.Type {
	case "openrouter":
		return "https://openrouter.ai/api/v1/models"
	case "groq":
		return "https://api.groq.com/openai/v1/models"
	case "ollama":
		return "http://localhost:11434/v1/models"
	default:
		return "https://api.openai.com/v1/models"
	}
}

// checkHistory opens the history database and counts its rows.
func checkHistory(cfg *config.Config) CheckResult {
	if cfg == nil {
		return noConfig
	}
	if !cfg.History.Enabled {
		return CheckResult{Status: StatusWarn, Message: "history disabled, advisories are not recorded"}
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		dir, _ := filepath.Abs(filepath.Dir(cfg.History.Path))
		return CheckResult{
			Status:  StatusFail,
			Message: err.Error(),
			Fix:     fmt.Sprintf("Make sure %s is writable", dir),
		}
	}
	defer store.Close()

	n, err := store.Count(context.Background())
	if err != nil {
		return CheckResult{Status: StatusFail, Message: err.Error()}
	}
	return CheckResult{
		Status:  StatusPass,
		Message: fmt.Sprintf("%s (%d advisories)", cfg.History.Path, n),
	}
}

// checkMonitor validates the monitor schedule.
func checkMonitor(cfg *config.Config) CheckResult {
	if cfg == nil {
		return noConfig
	}
	sched, err := monitor.ParseSchedule(cfg.Monitor.Schedule)
	if err != nil {
		return CheckResult{
			Status:  StatusFail,
			Message: err.Error(),
			Fix:     `Use a cron expression such as "*/15 * * * *" or a duration such as "15m"`,
		}
	}
	next := sched.Next(time.Now())
	return CheckResult{
		Status:  StatusPass,
		Message: fmt.Sprintf("%q, next run in %s", cfg.Monitor.Schedule, time.Until(next).Round(time.Second)),
	}
}
