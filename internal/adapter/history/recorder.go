package history

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/ruvenwang/mindponics/internal/domain"
)

// Saver stores entries.
type Saver interface {
	Save(ctx context.Context, e Entry) error
}

// Recorder saves every advisory.completed event it sees.
type Recorder struct {
	store  Saver
	logger *slog.Logger
	unsub  func()
}

// NewRecorder subscribes a Recorder to bus. Call Stop to unsubscribe.
func NewRecorder(store Saver, bus domain.EventBus, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r := &Recorder{store: store, logger: logger}
	r.unsub = bus.Subscribe(domain.EventAdvisoryCompleted, r.handle)
	return r
}

// Stop unsubscribes the recorder. Events already delivered still save.
func (r *Recorder) Stop() {
	r.unsub()
}

func (r *Recorder) handle(ctx context.Context, event domain.Event) {
	var p domain.AdvisoryCompletedPayload
	if err := json.Unmarshal(event.Payload, &p); err != nil {
		r.logger.Warn("history: bad advisory payload", "request_id", event.RequestID, "error", err)
		return
	}
	if p.RequestID == "" {
		p.RequestID = event.RequestID
	}
	at := event.Timestamp
	if at.IsZero() {
		at = time.Now()
	}

	// The publisher's context may already be done by the time this runs.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := r.store.Save(ctx, EntryFromPayload(p, at)); err != nil {
		r.logger.Error("history: save failed", "request_id", p.RequestID, "error", err)
		return
	}
	r.logger.Debug("history: advisory saved", "request_id", p.RequestID)
}
