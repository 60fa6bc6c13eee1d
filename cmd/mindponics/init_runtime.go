package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ruvenwang/mindponics/internal/adapter/history"
	"github.com/ruvenwang/mindponics/internal/adapter/llm"
	"github.com/ruvenwang/mindponics/internal/adapter/sensor"
	"github.com/ruvenwang/mindponics/internal/adapter/tool"
	"github.com/ruvenwang/mindponics/internal/domain"
	"github.com/ruvenwang/mindponics/internal/infra/config"
	"github.com/ruvenwang/mindponics/internal/infra/logger"
	"github.com/ruvenwang/mindponics/internal/infra/tracer"
	"github.com/ruvenwang/mindponics/internal/usecase/advisor"
	"github.com/ruvenwang/mindponics/internal/usecase/eventbus"
	"github.com/ruvenwang/mindponics/internal/usecase/mailbox"
	"github.com/ruvenwang/mindponics/internal/usecase/multiagent"
)

// runtime holds every wired component of one CLI invocation.
type runtime struct {
	cfg          *config.Config
	log          *slog.Logger
	bus          *eventbus.Bus
	source       domain.SensorSource
	orchestrator *multiagent.Orchestrator
	tools        *tool.Registry
	history      *history.SQLiteStore // nil when disabled
	strategy     *llm.Strategy        // nil without an llm provider

	closers []func() error
}

// close releases resources in reverse order of acquisition.
func (rt *runtime) close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// loadConfig loads the config file and applies --set overrides to the
// system state.
func loadConfig(args cliArgs) (*config.Config, error) {
	cfg, err := config.Load(configPath(args))
	if err != nil {
		return nil, err
	}
	if cfg.System == nil {
		cfg.System = map[string]any{}
	}
	for k, v := range args.state {
		cfg.System[k] = v
	}
	return cfg, nil
}

// initRuntime wires config, logging, tracing, sensors, advisors, workers,
// the orchestrator, tools and history. Call close when done.
func initRuntime(ctx context.Context, cfg *config.Config) (*runtime, error) {
	rt := &runtime{cfg: cfg}
	fail := func(stage string, err error) (*runtime, error) {
		_ = rt.close()
		return nil, fmt.Errorf("%s: %w", stage, err)
	}

	// 1. Logger & tracer
	log, logCloser, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	rt.log = log
	rt.closers = append(rt.closers, logCloser)

	tracerShutdown, err := tracer.Setup(ctx, cfg.Tracer)
	if err != nil {
		return fail("tracer", err)
	}
	rt.closers = append(rt.closers, func() error { return tracerShutdown(context.Background()) })

	// 2. Event bus
	rt.bus = eventbus.New(logger.Component(log, "eventbus"))

	// 3. Sensor source and advisors
	rt.source, err = sensor.New(cfg.Sensor, logger.Component(log, "sensor"))
	if err != nil {
		return fail("sensor", err)
	}
	catalog := advisor.NewCatalog()
	advisors := tool.Advisors{
		Water:       advisor.NewWaterAdvisor(rt.source, logger.Component(log, "water")),
		Fish:        advisor.NewFishAdvisor(catalog),
		Plant:       advisor.NewPlantAdvisor(catalog),
		Environment: advisor.NewEnvironmentAdvisor(rt.source, logger.Component(log, "environment")),
	}

	// 4. Language model strategy
	rt.strategy, err = initStrategy(cfg, rt.bus, log)
	if err != nil {
		return fail("llm", err)
	}

	// 5. Workers and orchestrator
	office := mailbox.NewPostOffice(logger.Component(log, "mailbox"))
	workers, err := initWorkers(cfg, advisors, office, rt.strategy, log)
	if err != nil {
		return fail("workers", err)
	}
	classifier, synthesizer, err := initRouterStrategies(cfg.Router, rt.strategy, log)
	if err != nil {
		return fail("router", err)
	}
	defaults, err := parseSpecialties(cfg.Router.DefaultSpecialties)
	if err != nil {
		return fail("router", err)
	}
	rt.orchestrator = multiagent.NewOrchestrator(multiagent.OrchestratorDeps{
		Registry:    workers,
		Office:      office,
		Classifier:  classifier,
		Synthesizer: synthesizer,
		Bus:         rt.bus,
		Logger:      logger.Component(log, "router"),
		BaseState:   domain.AgentState(cfg.System),
		Config: multiagent.OrchestratorConfig{
			CollectTimeout:     cfg.Router.CollectTimeout,
			ProducerWait:       cfg.Router.EffectiveProducerWait(),
			ExpandDependencies: cfg.Router.ExpandDependencies,
			DefaultSpecialties: defaults,
			RateLimit:          cfg.Router.RateLimit,
			Burst:              cfg.Router.Burst,
		},
	})

	// 6. Tools
	rt.tools = tool.NewRegistry(logger.Component(log, "tool"), rt.bus)
	if err := rt.tools.RegisterAll(tool.AdvisorTools(advisors, logger.Component(log, "tool"))...); err != nil {
		return fail("tools", err)
	}
	delegate := tool.NewDelegateTool(rt.orchestrator.Broker(), workers, multiagent.OrchestratorName, logger.Component(log, "tool"))
	if err := rt.tools.Register(delegate); err != nil {
		return fail("tools", err)
	}

	// 7. History
	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return fail("history", err)
		}
		rt.history = store
		rt.closers = append(rt.closers, store.Close)
		rec := history.NewRecorder(store, rt.bus, logger.Component(log, "history"))
		rt.closers = append(rt.closers, func() error { rec.Stop(); return nil })
	}
	// The bus closes first so in-flight handlers finish before the store does.
	rt.closers = append(rt.closers, func() error { rt.bus.Close(); return nil })

	log.Debug("runtime ready",
		"sensor", rt.source.Name(),
		"workers", len(workers.List()),
		"tools", len(rt.tools.Names()),
		"llm", rt.strategy != nil,
		"history", rt.history != nil,
	)
	return rt, nil
}

// initStrategy builds the language model strategy when a provider is
// configured and some router feature needs it.
func initStrategy(cfg *config.Config, bus domain.EventBus, log *slog.Logger) (*llm.Strategy, error) {
	r := cfg.Router
	if r.Classifier != "llm" && r.Synthesizer != "llm" && !r.Narrate {
		return nil, nil
	}
	pcfg, ok := cfg.LLM.Provider()
	if !ok {
		return nil, fmt.Errorf("provider %q is not configured", cfg.LLM.DefaultProvider)
	}
	llmLog := logger.Component(log, "llm")
	var provider domain.LLMProvider = llm.NewOpenAIProvider(pcfg, llmLog)
	if cfg.LLM.CircuitBreaker.Enabled {
		provider = llm.NewCircuitBreakerProvider(provider, cfg.LLM.CircuitBreaker, llmLog)
	}
	return llm.NewStrategy(provider, llm.StrategyOptions{
		Model:  pcfg.Model,
		Bus:    bus,
		Logger: llmLog,
	}), nil
}

func initWorkers(cfg *config.Config, a tool.Advisors, office *mailbox.PostOffice, strategy *llm.Strategy, log *slog.Logger) (*multiagent.Registry, error) {
	deps := multiagent.WorkerDeps{Office: office, Logger: logger.Component(log, "worker")}
	if cfg.Router.Narrate && strategy != nil {
		deps.Narrator = strategy
	}
	targets := multiagent.Targets{
		Temperature: cfg.Environment.TargetTemperature,
		Humidity:    cfg.Environment.TargetHumidity,
	}

	reg := multiagent.NewRegistry(logger.Component(log, "registry"))
	for _, w := range []multiagent.Worker{
		multiagent.NewWaterWorker(a.Water, deps),
		multiagent.NewFishWorker(a.Fish, deps),
		multiagent.NewPlantWorker(a.Plant, deps),
		multiagent.NewBacteriaWorker(deps),
		multiagent.NewEnvironmentWorker(a.Environment, targets, deps),
	} {
		if err := reg.Register(w); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// initRouterStrategies picks the classifier and synthesizer named in the
// router config. An "@specialty" prefix always overrides classification.
func initRouterStrategies(r config.RouterConfig, strategy *llm.Strategy, log *slog.Logger) (domain.Classifier, domain.Synthesizer, error) {
	routerLog := logger.Component(log, "router")

	var classifier domain.Classifier
	switch r.Classifier {
	case "keyword":
		classifier = multiagent.NewKeywordClassifier()
	case "prefix", "":
		classifier = multiagent.NewPrefixClassifier(multiagent.NewKeywordClassifier(), routerLog)
	case "llm":
		if strategy == nil {
			return nil, nil, errors.New("llm classifier needs an llm provider")
		}
		classifier = multiagent.NewPrefixClassifier(strategy, routerLog)
	default:
		return nil, nil, fmt.Errorf("unknown classifier %q", r.Classifier)
	}

	var synthesizer domain.Synthesizer
	switch r.Synthesizer {
	case "join", "":
		synthesizer = multiagent.JoinSynthesizer{}
	case "llm":
		if strategy == nil {
			return nil, nil, errors.New("llm synthesizer needs an llm provider")
		}
		synthesizer = strategy
	default:
		return nil, nil, fmt.Errorf("unknown synthesizer %q", r.Synthesizer)
	}
	return classifier, synthesizer, nil
}

func parseSpecialties(names []string) ([]domain.Specialty, error) {
	out := make([]domain.Specialty, 0, len(names))
	for _, n := range names {
		sp, err := domain.ParseSpecialty(n)
		if err != nil {
			return nil, err
		}
		out = append(out, sp)
	}
	return out, nil
}
