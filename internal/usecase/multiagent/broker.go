package multiagent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/ruvenwang/mindponics/internal/domain"
	"github.com/ruvenwang/mindponics/internal/infra/tracer"
	"github.com/ruvenwang/mindponics/internal/usecase/mailbox"
)

// DelegateRequest asks a single specialist for an answer.
type DelegateRequest struct {
	FromAgent string            `json:"from_agent"`
	Specialty string            `json:"specialty"`
	Query     string            `json:"query"`
	State     domain.AgentState `json:"state,omitempty"`
}

// DelegateResponse is the result of a delegation.
type DelegateResponse struct {
	FromAgent string           `json:"from_agent"`
	Specialty domain.Specialty `json:"specialty"`
	Content   string           `json:"content"`
	Data      map[string]any   `json:"data,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// Broker runs worker steps and owns the per-request mailboxes they use.
type Broker struct {
	registry *Registry
	office   *mailbox.PostOffice
	bus      domain.EventBus
	logger   *slog.Logger
	timeout  time.Duration
}

// NewBroker creates a Broker. timeout bounds a single Delegate call.
func NewBroker(registry *Registry, office *mailbox.PostOffice, bus domain.EventBus, logger *slog.Logger, timeout time.Duration) *Broker {
	if logger == nil {
		logger = discardLogger()
	}
	return &Broker{
		registry: registry,
		office:   office,
		bus:      bus,
		logger:   logger,
		timeout:  timeout,
	}
}

// exchange is the set of mailboxes serving one request: a reply mailbox
// for the router and an inbox per dispatched worker.
type exchange struct {
	office    *mailbox.PostOffice
	requestID string
	replyID   string
	reply     *mailbox.Mailbox
	inboxes   map[domain.Specialty]string
}

// open registers the reply mailbox and one inbox per worker.
func (b *Broker) open(requestID string, workers []Worker) (*exchange, error) {
	x := &exchange{
		office:    b.office,
		requestID: requestID,
		replyID:   "router/" + requestID,
		inboxes:   make(map[domain.Specialty]string, len(workers)),
	}
	reply, err := b.office.Register(x.replyID)
	if err != nil {
		return nil, err
	}
	x.reply = reply
	for _, w := range workers {
		id := w.ID() + "/" + requestID
		if _, err := b.office.Register(id); err != nil {
			x.close()
			return nil, err
		}
		x.inboxes[w.Specialty()] = id
	}
	return x, nil
}

// close unregisters every mailbox; mail still in flight is dropped.
func (x *exchange) close() {
	for _, id := range x.inboxes {
		x.office.Unregister(id)
	}
	x.office.Unregister(x.replyID)
}

// task builds the work order for w. peers are the specialties whose inboxes
// receive w's shared state.
func (x *exchange) task(w Worker, query string, state domain.AgentState, peers []domain.Specialty) Task {
	t := Task{
		RequestID: x.requestID,
		Query:     query,
		State:     state,
		Inbox:     x.inboxes[w.Specialty()],
		ReplyTo:   x.replyID,
	}
	for _, sp := range peers {
		if id, ok := x.inboxes[sp]; ok {
			t.Forward = append(t.Forward, id)
		}
	}
	return t
}

// reports drains the reply mailbox.
func (x *exchange) reports() []*domain.Report {
	var out []*domain.Report
	for _, msg := range x.reply.Receive() {
		if r, ok := msg.Payload[domain.PayloadReport].(*domain.Report); ok && r != nil {
			out = append(out, r)
		}
	}
	return out
}

// Dispatch runs w.Step on its own goroutine. The returned channel is closed
// once the step has finished and its report, or a failure report, has been
// posted. Panics and step errors never escape the goroutine.
func (b *Broker) Dispatch(ctx context.Context, w Worker, task Task) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		b.run(ctx, w, task)
	}()
	return done
}

func (b *Broker) run(ctx context.Context, w Worker, task Task) {
	ctx, span := tracer.StartSpan(ctx, "worker.step",
		trace.WithAttributes(
			tracer.StringAttr("specialty", string(w.Specialty())),
			tracer.StringAttr("request_id", task.RequestID),
		),
	)
	defer span.End()

	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("worker %s panicked: %v", w.ID(), rec)
			b.logger.Error("worker panicked", "worker", w.ID(), "request_id", task.RequestID, "panic", rec)
			tracer.RecordError(span, err)
			b.failed(ctx, w, task, err)
		}
	}()

	start := time.Now()
	report, err := w.Step(ctx, task)
	if err != nil {
		b.logger.Warn("worker step failed", "worker", w.ID(), "request_id", task.RequestID, "error", err)
		tracer.RecordError(span, err)
		b.failed(ctx, w, task, err)
		return
	}
	tracer.SetOK(span)

	reason := ""
	if report != nil {
		reason = report.Error
	}
	b.logger.Debug("worker reported", "worker", w.ID(), "request_id", task.RequestID, "duration", time.Since(start))
	b.emit(ctx, domain.EventWorkerReported, task.RequestID, domain.WorkerPayload{
		Specialty: w.Specialty(),
		WorkerID:  w.ID(),
		Reason:    reason,
	})
}

// failed posts a placeholder report so the collector need not wait for the
// deadline.
func (b *Broker) failed(ctx context.Context, w Worker, task Task, err error) {
	report := domain.UnavailableReport(task.RequestID, w.Specialty(), w.ID())
	report.Error = err.Error()
	if task.ReplyTo != "" {
		b.office.Post(w.ID(), task.ReplyTo, map[string]any{domain.PayloadReport: report})
	}
	b.emit(ctx, domain.EventWorkerUnavailable, task.RequestID, domain.WorkerPayload{
		Specialty: w.Specialty(),
		WorkerID:  w.ID(),
		Reason:    err.Error(),
	})
}

// Delegate runs one specialist on its own for req and waits for its report.
func (b *Broker) Delegate(ctx context.Context, req DelegateRequest) (*DelegateResponse, error) {
	sp, err := domain.ParseSpecialty(req.Specialty)
	if err != nil {
		return nil, fmt.Errorf("broker: %w", err)
	}
	w, err := b.registry.Get(sp)
	if err != nil {
		return nil, fmt.Errorf("broker: target specialist %q: %w", sp, err)
	}

	requestID := mailbox.NewID()
	x, err := b.open(requestID, []Worker{w})
	if err != nil {
		return nil, fmt.Errorf("broker: %w", err)
	}
	defer x.close()

	b.publishEvent(ctx, requestID, req)
	b.logger.Info("delegating",
		"from", req.FromAgent,
		"to", w.ID(),
		"request_id", requestID,
	)

	b.Dispatch(context.WithoutCancel(ctx), w, x.task(w, req.Query, req.State, nil))

	timeout := b.timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, domain.NewSubSystemError("router", "Broker.Delegate", domain.ErrTimeout,
				fmt.Sprintf("%s did not report within %s", w.ID(), timeout))
		case <-x.reply.Ready():
			for _, r := range x.reports() {
				if r.Specialty != sp {
					continue
				}
				return &DelegateResponse{
					FromAgent: r.WorkerID,
					Specialty: r.Specialty,
					Content:   r.Summary,
					Data:      r.Data,
					Error:     r.Error,
				}, nil
			}
		}
	}
}

func (b *Broker) publishEvent(ctx context.Context, requestID string, req DelegateRequest) {
	if b.bus == nil {
		return
	}
	payload, err := json.Marshal(req)
	if err != nil {
		b.logger.Warn("broker: failed to marshal delegation event", "error", err)
		return
	}
	b.bus.Publish(ctx, domain.Event{
		Type:      domain.EventAgentDelegated,
		Timestamp: time.Now(),
		RequestID: requestID,
		Payload:   payload,
	})
}

func (b *Broker) emit(ctx context.Context, t domain.EventType, requestID string, payload any) {
	if b.bus == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		b.logger.Warn("broker: failed to marshal event", "type", t, "error", err)
		return
	}
	b.bus.Publish(ctx, domain.Event{Type: t, Timestamp: time.Now(), RequestID: requestID, Payload: data})
}
