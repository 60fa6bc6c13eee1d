// Package monitor runs a fixed advisory query on a cron or interval schedule.
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ruvenwang/mindponics/internal/domain"
	"github.com/ruvenwang/mindponics/internal/usecase/multiagent"
)

// Asker answers one advisory request. *multiagent.Orchestrator implements it.
type Asker interface {
	Ask(ctx context.Context, req multiagent.Request) (*multiagent.Answer, error)
}

// Config describes the monitored query.
type Config struct {
	Schedule string // cron expression "*/15 * * * *" or duration "15m"
	Query    string
	State    domain.AgentState
	Timeout  time.Duration // per cycle, default 1m
}

// Monitor fires Config.Query through an Asker on Config.Schedule. A cycle
// that is still running when the next one is due is skipped.
type Monitor struct {
	cfg      Config
	schedule cron.Schedule
	asker    Asker
	bus      domain.EventBus
	logger   *slog.Logger
	onAnswer func(*multiagent.Answer, error)

	mu      sync.Mutex
	cron    *cron.Cron
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
}

// Option customizes a Monitor.
type Option func(*Monitor)

// WithBus publishes monitor.fired after every cycle.
func WithBus(bus domain.EventBus) Option {
	return func(m *Monitor) { m.bus = bus }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Monitor) { m.logger = logger }
}

// OnAnswer registers a callback run after every cycle.
func OnAnswer(fn func(*multiagent.Answer, error)) Option {
	return func(m *Monitor) { m.onAnswer = fn }
}

// New validates cfg and creates a stopped Monitor.
func New(asker Asker, cfg Config, opts ...Option) (*Monitor, error) {
	if cfg.Query == "" {
		return nil, domain.NewSubSystemError("monitor", "monitor.New", domain.ErrInvalidInput, "query is required")
	}
	schedule, err := ParseSchedule(cfg.Schedule)
	if err != nil {
		return nil, domain.NewSubSystemError("monitor", "monitor.New", domain.ErrInvalidInput, err.Error())
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Minute
	}
	m := &Monitor{cfg: cfg, schedule: schedule, asker: asker}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.New(slog.DiscardHandler)
	}
	cronLog := cronLogger{m.logger}
	m.cron = cron.New(
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)
	m.cron.Schedule(schedule, cron.FuncJob(m.fire))
	return m, nil
}

// Start begins firing cycles. Cycles run under ctx until Stop.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return
	}
	m.ctx, m.cancel = context.WithCancel(ctx)
	m.cron.Start()
	m.started = true
	m.logger.Info("monitor started", "schedule", m.cfg.Schedule, "next", m.Next())
}

// Stop cancels the running cycle and waits for it to return.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return
	}
	m.cancel()
	m.started = false
	m.mu.Unlock()

	<-m.cron.Stop().Done()
	m.logger.Info("monitor stopped")
}

// Next returns the next time a cycle is due.
func (m *Monitor) Next() time.Time {
	return m.schedule.Next(time.Now())
}

// RunOnce runs one cycle now and publishes monitor.fired.
func (m *Monitor) RunOnce(ctx context.Context) (*multiagent.Answer, error) {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	start := time.Now()
	answer, err := m.asker.Ask(ctx, multiagent.Request{Query: m.cfg.Query, State: m.cfg.State})

	payload := domain.MonitorFiredPayload{Schedule: m.cfg.Schedule, Query: m.cfg.Query}
	if err != nil {
		payload.Error = err.Error()
		m.logger.Warn("monitor cycle failed", "error", err, "duration", time.Since(start))
	} else {
		payload.RequestID = answer.RequestID
		payload.Unavailable = answer.Unavailable()
		m.logger.Info("monitor cycle completed",
			"request_id", answer.RequestID,
			"unavailable", len(payload.Unavailable),
			"duration", time.Since(start),
		)
	}
	m.publish(ctx, payload)

	if m.onAnswer != nil {
		m.onAnswer(answer, err)
	}
	return answer, err
}

func (m *Monitor) fire() {
	m.mu.Lock()
	ctx := m.ctx
	m.mu.Unlock()
	if ctx == nil || ctx.Err() != nil {
		return
	}
	_, _ = m.RunOnce(ctx)
}

func (m *Monitor) publish(ctx context.Context, payload domain.MonitorFiredPayload) {
	if m.bus == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	m.bus.Publish(context.WithoutCancel(ctx), domain.Event{
		Type:      domain.EventMonitorFired,
		Timestamp: time.Now(),
		RequestID: payload.RequestID,
		Payload:   data,
	})
}

// ParseSchedule accepts a five-field cron expression, a descriptor such as
// "@hourly", or a positive Go duration.
func ParseSchedule(schedule string) (cron.Schedule, error) {
	if schedule == "" {
		return nil, fmt.Errorf("empty schedule")
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if sched, err := parser.Parse(schedule); err == nil {
		return sched, nil
	}
	d, err := time.ParseDuration(schedule)
	if err != nil {
		return nil, fmt.Errorf("not a valid cron expression or duration: %q", schedule)
	}
	if d <= 0 {
		return nil, fmt.Errorf("duration must be positive: %q", schedule)
	}
	return every(d), nil
}

// every fires at a fixed interval. Unlike cron.Every it keeps sub-second
// precision.
type every time.Duration

func (e every) Next(t time.Time) time.Time { return t.Add(time.Duration(e)) }

// cronLogger routes cron's internal logging to slog.
type cronLogger struct{ l *slog.Logger }

func (c cronLogger) Info(msg string, kv ...any) { c.l.Debug("cron: "+msg, kv...) }

func (c cronLogger) Error(err error, msg string, kv ...any) {
	c.l.Error("cron: "+msg, append(kv, "error", err)...)
}
