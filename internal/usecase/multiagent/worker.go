package multiagent

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ruvenwang/mindponics/internal/domain"
	"github.com/ruvenwang/mindponics/internal/usecase/mailbox"
)

// Worker is one specialist. Step runs a single advisory cycle for a request:
// drain the request inbox, compute, post the report to Task.ReplyTo and
// shared state to Task.Forward. The returned report is the one posted.
type Worker interface {
	ID() string
	Specialty() domain.Specialty
	Step(ctx context.Context, task Task) (*domain.Report, error)
}

// Task is the per-request work order handed to a worker.
type Task struct {
	RequestID string
	Query     string
	State     domain.AgentState
	Inbox     string   // this worker's mailbox for the request
	ReplyTo   string   // the router's reply mailbox
	Forward   []string // peer inboxes that receive shared state
}

// WorkerDeps holds the collaborators every worker shares.
type WorkerDeps struct {
	Office   *mailbox.PostOffice
	Narrator domain.Narrator // optional
	Logger   *slog.Logger
}

// baseWorker implements the mailbox side of the step protocol.
type baseWorker struct {
	id        string
	specialty domain.Specialty
	office    *mailbox.PostOffice
	narrator  domain.Narrator
	logger    *slog.Logger
}

func newBaseWorker(sp domain.Specialty, deps WorkerDeps) baseWorker {
	logger := deps.Logger
	if logger == nil {
		logger = discardLogger()
	}
	id := WorkerID(sp)
	return baseWorker{
		id:        id,
		specialty: sp,
		office:    deps.Office,
		narrator:  deps.Narrator,
		logger:    logger.With("worker", id, "specialty", string(sp)),
	}
}

func (b *baseWorker) ID() string                  { return b.id }
func (b *baseWorker) Specialty() domain.Specialty { return b.specialty }

// drain empties the task inbox and returns, for each wanted key, the last
// payload value received. Other keys are ignored.
func (b *baseWorker) drain(task Task, wanted ...string) map[string]any {
	out := make(map[string]any, len(wanted))
	if task.Inbox == "" {
		return out
	}
	mb, err := b.office.Mailbox(task.Inbox)
	if err != nil {
		return out
	}
	for _, msg := range mb.Receive() {
		for _, key := range wanted {
			if v, ok := msg.Payload[key]; ok {
				out[key] = v
			}
		}
	}
	return out
}

// forward posts payload to every peer inbox of the task.
func (b *baseWorker) forward(task Task, payload map[string]any) {
	for _, peer := range task.Forward {
		if _, ok := b.office.Post(b.id, peer, payload); !ok {
			b.logger.Debug("peer inbox gone, shared state dropped", "request_id", task.RequestID, "recipient", peer)
		}
	}
}

// finish narrates the summary when a narrator is set, then posts the report.
func (b *baseWorker) finish(ctx context.Context, task Task, summary string, data map[string]any) *domain.Report {
	if b.narrator != nil {
		text, err := b.narrator.Narrate(ctx, b.specialty, task.Query, summary)
		switch {
		case err != nil:
			b.logger.Warn("narration failed, using plain findings", "request_id", task.RequestID, "error", err)
		case text != "":
			summary = text
		}
	}
	report := &domain.Report{
		RequestID: task.RequestID,
		Specialty: b.specialty,
		WorkerID:  b.id,
		Summary:   summary,
		Data:      data,
	}
	b.post(task, report)
	return report
}

// fail posts a report carrying a lookup error as structured data.
func (b *baseWorker) fail(task Task, err error) *domain.Report {
	detail := errorDetail(err)
	report := &domain.Report{
		RequestID: task.RequestID,
		Specialty: b.specialty,
		WorkerID:  b.id,
		Summary:   detail,
		Data:      map[string]any{"error": detail},
		Error:     detail,
	}
	b.post(task, report)
	return report
}

func (b *baseWorker) post(task Task, report *domain.Report) {
	if task.ReplyTo == "" {
		return
	}
	if _, ok := b.office.Post(b.id, task.ReplyTo, map[string]any{domain.PayloadReport: report}); !ok {
		b.logger.Debug("reply mailbox gone, report dropped", "request_id", task.RequestID)
	}
}

// errorDetail prefers the human-readable detail of a DomainError.
func errorDetail(err error) string {
	var de *domain.DomainError
	if errors.As(err, &de) && de.Detail != "" {
		return de.Detail
	}
	return err.Error()
}

// readingFrom accepts the shapes a reading can take in a payload.
func readingFrom(v any) (domain.Reading, bool) {
	switch r := v.(type) {
	case domain.Reading:
		return r, r != nil
	case map[string]float64:
		return domain.Reading(r), r != nil
	case map[string]any:
		out := make(domain.Reading, len(r))
		for k, raw := range r {
			switch n := raw.(type) {
			case float64:
				out[k] = n
			case int:
				out[k] = float64(n)
			}
		}
		return out, len(out) > 0
	}
	return nil, false
}
