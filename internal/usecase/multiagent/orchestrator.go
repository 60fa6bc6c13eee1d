package multiagent

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/ruvenwang/mindponics/internal/domain"
	"github.com/ruvenwang/mindponics/internal/infra/tracer"
	"github.com/ruvenwang/mindponics/internal/usecase/mailbox"
)

// producers publish readings other workers consume. They run first.
var producers = map[domain.Specialty]bool{
	domain.SpecialtyWater:       true,
	domain.SpecialtyEnvironment: true,
}

// waterConsumers need the water producer's readings.
var waterConsumers = map[domain.Specialty]bool{
	domain.SpecialtyFish:     true,
	domain.SpecialtyPlant:    true,
	domain.SpecialtyBacteria: true,
}

// Request is one advisory question.
type Request struct {
	Query string
	// State overlays the orchestrator's base state for this request.
	State domain.AgentState
	// Specialties bypasses classification when non-empty.
	Specialties []domain.Specialty
}

// Answer is the combined result of an advisory request.
type Answer struct {
	RequestID   string             `json:"request_id"`
	Query       string             `json:"query"`
	Specialties []domain.Specialty `json:"specialties"`
	Reports     []*domain.Report   `json:"reports"`
	Text        string             `json:"text"`
	Duration    time.Duration      `json:"duration"`
}

// Unavailable lists the specialties that produced no report in time.
func (a *Answer) Unavailable() []domain.Specialty {
	var out []domain.Specialty
	for _, r := range a.Reports {
		if r.Unavailable {
			out = append(out, r.Specialty)
		}
	}
	return out
}

// OrchestratorConfig tunes dispatch and collection.
type OrchestratorConfig struct {
	CollectTimeout     time.Duration
	ProducerWait       time.Duration // 0 means CollectTimeout/2
	ExpandDependencies bool
	DefaultSpecialties []domain.Specialty
	RateLimit          float64 // requests per second, 0 disables
	Burst              int
}

// OrchestratorDeps holds the collaborators of an Orchestrator.
type OrchestratorDeps struct {
	Registry    *Registry
	Broker      *Broker
	Office      *mailbox.PostOffice
	Classifier  domain.Classifier
	Synthesizer domain.Synthesizer // nil uses JoinSynthesizer
	Bus         domain.EventBus    // optional
	Logger      *slog.Logger
	BaseState   domain.AgentState
	Config      OrchestratorConfig
}

// Orchestrator routes a query to the specialists, collects their reports and
// merges them into one answer.
type Orchestrator struct {
	registry    *Registry
	broker      *Broker
	classifier  domain.Classifier
	synthesizer domain.Synthesizer
	bus         domain.EventBus
	logger      *slog.Logger
	baseState   domain.AgentState
	cfg         OrchestratorConfig
	limiter     *rate.Limiter
}

// NewOrchestrator creates an Orchestrator. When deps.Broker is nil one is
// built over deps.Office.
func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = discardLogger()
	}
	cfg := deps.Config
	if cfg.CollectTimeout <= 0 {
		cfg.CollectTimeout = 5 * time.Second
	}
	if cfg.ProducerWait <= 0 {
		cfg.ProducerWait = cfg.CollectTimeout / 2
	}
	if len(cfg.DefaultSpecialties) == 0 {
		cfg.DefaultSpecialties = domain.AllSpecialties
	}

	broker := deps.Broker
	if broker == nil {
		broker = NewBroker(deps.Registry, deps.Office, deps.Bus, logger, cfg.CollectTimeout)
	}
	synth := deps.Synthesizer
	if synth == nil {
		synth = JoinSynthesizer{}
	}
	classifier := deps.Classifier
	if classifier == nil {
		classifier = NewPrefixClassifier(NewKeywordClassifier(), logger)
	}

	o := &Orchestrator{
		registry:    deps.Registry,
		broker:      broker,
		classifier:  classifier,
		synthesizer: synth,
		bus:         deps.Bus,
		logger:      logger,
		baseState:   deps.BaseState,
		cfg:         cfg,
	}
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		o.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return o
}

// Registry returns the worker registry.
func (o *Orchestrator) Registry() *Registry { return o.registry }

// Broker returns the broker used for dispatch.
func (o *Orchestrator) Broker() *Broker { return o.broker }

// Ask answers req. It blocks until every dispatched worker reported, the
// collect window closed, or ctx is done. Cancellation returns ctx.Err();
// workers still running finish on their own and their mail is dropped.
func (o *Orchestrator) Ask(ctx context.Context, req Request) (*Answer, error) {
	if o.limiter != nil {
		if err := o.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, domain.NewSubSystemError("router", "Orchestrator.Ask", domain.ErrRateLimit, err.Error())
		}
	}

	start := time.Now()
	requestID := mailbox.NewID()
	ctx = domain.ContextWithRequestID(ctx, requestID)
	ctx, span := tracer.StartSpan(ctx, "router.ask",
		trace.WithAttributes(tracer.StringAttr("request_id", requestID)),
	)
	defer span.End()

	logger := o.logger.With("request_id", requestID)

	selected := req.Specialties
	if len(selected) == 0 {
		selected = o.classify(ctx, logger, req.Query)
	}
	if o.cfg.ExpandDependencies {
		selected = expand(selected)
	}
	selected = ordered(selected)
	span.SetAttributes(tracer.StringsAttr("specialties", specialtyStrings(selected)))

	o.emit(ctx, domain.EventAdvisoryStarted, requestID, domain.AdvisoryStartedPayload{
		RequestID:   requestID,
		Query:       req.Query,
		Specialties: selected,
	})
	logger.Info("advisory started", "specialties", selected)

	reports := make(map[domain.Specialty]*domain.Report, len(selected))
	var workers []Worker
	for _, sp := range selected {
		w, err := o.registry.Get(sp)
		if err != nil {
			logger.Warn("no worker registered", "specialty", string(sp))
			reports[sp] = o.unavailable(ctx, requestID, sp, WorkerID(sp), "no worker registered")
			continue
		}
		workers = append(workers, w)
	}

	x, err := o.broker.open(requestID, workers)
	if err != nil {
		tracer.RecordError(span, err)
		return nil, err
	}
	defer x.close()

	state := o.baseState.Merge(req.State)
	query := StripPrefix(req.Query)

	var first, second []Worker
	for _, w := range workers {
		if producers[w.Specialty()] {
			first = append(first, w)
		} else {
			second = append(second, w)
		}
	}
	var consumers []domain.Specialty
	for _, w := range second {
		consumers = append(consumers, w.Specialty())
	}

	// Workers run detached so a cancelled caller never leaves half-posted
	// reports behind; their mail is dropped once the exchange closes.
	workCtx := context.WithoutCancel(ctx)
	producersDone := o.launch(workCtx, x, first, query, state, consumers)

	var producerTimer <-chan time.Time
	if len(second) > 0 && len(first) > 0 {
		t := time.NewTimer(o.cfg.ProducerWait)
		defer t.Stop()
		producerTimer = t.C
	}
	launchConsumers := func() {
		producersDone = nil
		producerTimer = nil
		if second == nil {
			return
		}
		logger.Debug("dispatching consumers", "count", len(second))
		o.launch(workCtx, x, second, query, state, nil)
		second = nil
	}
	if len(first) == 0 {
		launchConsumers()
	}

	deadline := time.NewTimer(o.cfg.CollectTimeout)
	defer deadline.Stop()

collect:
	for len(reports) < len(selected) {
		select {
		case <-ctx.Done():
			logger.Info("advisory cancelled", "error", ctx.Err())
			tracer.RecordError(span, ctx.Err())
			return nil, ctx.Err()
		case <-producersDone:
			launchConsumers()
		case <-producerTimer:
			logger.Warn("producers still running, dispatching consumers", "wait", o.cfg.ProducerWait)
			launchConsumers()
		case <-x.reply.Ready():
			for _, r := range x.reports() {
				if !slices.Contains(selected, r.Specialty) {
					continue
				}
				if _, seen := reports[r.Specialty]; !seen {
					reports[r.Specialty] = r
				}
			}
		case <-deadline.C:
			break collect
		}
	}

	answer := &Answer{
		RequestID:   requestID,
		Query:       req.Query,
		Specialties: selected,
		Reports:     make([]*domain.Report, 0, len(selected)),
	}
	for _, sp := range selected {
		r, ok := reports[sp]
		if !ok {
			logger.Warn("worker missed the collect window", "specialty", string(sp), "timeout", o.cfg.CollectTimeout)
			r = o.unavailable(ctx, requestID, sp, WorkerID(sp), "collect timeout")
		}
		answer.Reports = append(answer.Reports, r)
	}

	text, err := o.synthesizer.Synthesize(ctx, query, answer.Reports)
	if err != nil {
		logger.Warn("synthesis failed, joining reports", "code", domain.ErrorCodeOf(err), "error", err)
		text, _ = JoinSynthesizer{}.Synthesize(ctx, query, answer.Reports)
	}
	answer.Text = text
	answer.Duration = time.Since(start)

	o.emit(ctx, domain.EventAdvisoryCompleted, requestID, domain.AdvisoryCompletedPayload{
		RequestID:   requestID,
		Query:       req.Query,
		Specialties: selected,
		Answer:      text,
		Unavailable: answer.Unavailable(),
		DurationMS:  answer.Duration.Milliseconds(),
	})
	span.SetAttributes(tracer.IntAttr("unavailable", len(answer.Unavailable())))
	tracer.SetOK(span)
	logger.Info("advisory completed",
		"reports", len(answer.Reports),
		"unavailable", len(answer.Unavailable()),
		"duration", answer.Duration,
	)
	return answer, nil
}

// classify runs the classifier and falls back to the default specialties on
// error or an empty result.
func (o *Orchestrator) classify(ctx context.Context, logger *slog.Logger, query string) []domain.Specialty {
	selected, err := o.classifier.Classify(ctx, query)
	if err != nil {
		logger.Warn("classification failed, using defaults", "code", domain.ErrorCodeOf(err), "error", err)
		return o.cfg.DefaultSpecialties
	}
	if len(selected) == 0 {
		logger.Debug("no specialty matched, using defaults")
		return o.cfg.DefaultSpecialties
	}
	return selected
}

// launch dispatches ws concurrently and returns a channel closed when all of
// them have finished. forward lists the consumer specialties the water
// producer shares its readings with.
func (o *Orchestrator) launch(ctx context.Context, x *exchange, ws []Worker, query string, state domain.AgentState, forward []domain.Specialty) <-chan struct{} {
	dones := make([]<-chan struct{}, 0, len(ws))
	for _, w := range ws {
		var peers []domain.Specialty
		if w.Specialty() == domain.SpecialtyWater {
			peers = forward
		}
		dones = append(dones, o.broker.Dispatch(ctx, w, x.task(w, query, state, peers)))
	}
	all := make(chan struct{})
	go func() {
		defer close(all)
		for _, d := range dones {
			<-d
		}
	}()
	return all
}

func (o *Orchestrator) unavailable(ctx context.Context, requestID string, sp domain.Specialty, workerID, reason string) *domain.Report {
	o.emit(ctx, domain.EventWorkerUnavailable, requestID, domain.WorkerPayload{
		Specialty: sp,
		WorkerID:  workerID,
		Reason:    reason,
	})
	return domain.UnavailableReport(requestID, sp, workerID)
}

func (o *Orchestrator) emit(ctx context.Context, t domain.EventType, requestID string, payload any) {
	if o.bus == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		o.logger.Warn("orchestrator: failed to marshal event", "type", t, "error", err)
		return
	}
	o.bus.Publish(ctx, domain.Event{Type: t, Timestamp: time.Now(), RequestID: requestID, Payload: data})
}

// expand adds the water producer when a consumer of its readings is selected.
func expand(sps []domain.Specialty) []domain.Specialty {
	if slices.Contains(sps, domain.SpecialtyWater) {
		return sps
	}
	for _, sp := range sps {
		if waterConsumers[sp] {
			return append(slices.Clone(sps), domain.SpecialtyWater)
		}
	}
	return sps
}

// ordered deduplicates sps and returns them in canonical order.
func ordered(sps []domain.Specialty) []domain.Specialty {
	set := make(map[domain.Specialty]bool, len(sps))
	for _, sp := range sps {
		set[sp] = true
	}
	return canonical(set)
}

func specialtyStrings(sps []domain.Specialty) []string {
	out := make([]string, len(sps))
	for i, sp := range sps {
		out[i] = string(sp)
	}
	return out
}
