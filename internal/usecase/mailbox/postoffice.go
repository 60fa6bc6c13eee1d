package mailbox

import (
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/ruvenwang/mindponics/internal/domain"
)

// NewID returns a fresh, lexically sortable identifier.
func NewID() string {
	return ulid.Make().String()
}

// PostOffice is the directory of mailboxes. Lookups take a read lock; each
// mailbox serializes its own queue, so senders to different recipients never
// contend.
type PostOffice struct {
	mu     sync.RWMutex
	boxes  map[string]*Mailbox
	logger *slog.Logger
}

// NewPostOffice creates an empty directory. A nil logger discards output.
func NewPostOffice(logger *slog.Logger) *PostOffice {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &PostOffice{boxes: make(map[string]*Mailbox), logger: logger}
}

// Register creates the mailbox for id. Returns ErrDuplicate if it exists.
func (p *PostOffice) Register(id string) (*Mailbox, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.boxes[id]; exists {
		return nil, domain.NewSubSystemError("mailbox", "PostOffice.Register", domain.ErrDuplicate, id)
	}
	mb := New(id)
	p.boxes[id] = mb
	return mb, nil
}

// Unregister removes the mailbox for id; undelivered messages are discarded.
func (p *PostOffice) Unregister(id string) {
	p.mu.Lock()
	mb, ok := p.boxes[id]
	delete(p.boxes, id)
	p.mu.Unlock()

	if ok {
		if n := mb.Len(); n > 0 {
			p.logger.Debug("mailbox removed with pending mail", "recipient", mb.Owner(), "pending", n)
		}
	}
}

// Mailbox returns the mailbox for id, or ErrNotFound.
func (p *PostOffice) Mailbox(id string) (*Mailbox, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	mb, ok := p.boxes[id]
	if !ok {
		return nil, domain.NewSubSystemError("mailbox", "PostOffice.Mailbox", domain.ErrNotFound, id)
	}
	return mb, nil
}

// Recipients returns registered mailbox ids in sorted order.
func (p *PostOffice) Recipients() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Sorted(maps.Keys(p.boxes))
}

// Send delivers msg to its recipient. Mail for an unknown recipient is
// dropped and reported as false; this is how late replies to an abandoned
// request disappear.
func (p *PostOffice) Send(msg domain.Message) bool {
	p.mu.RLock()
	mb, ok := p.boxes[msg.Recipient]
	p.mu.RUnlock()

	if !ok {
		p.logger.Debug("dropping mail for unknown recipient",
			"recipient", msg.Recipient, "sender", msg.Sender, "message_id", msg.ID)
		return false
	}
	mb.Send(msg)
	return true
}

// Post builds a message with a new id and timestamp and sends it.
func (p *PostOffice) Post(sender, recipient string, payload map[string]any) (domain.Message, bool) {
	msg := domain.Message{
		ID:        NewID(),
		Sender:    sender,
		Recipient: recipient,
		Payload:   payload,
		SentAt:    time.Now(),
	}
	return msg, p.Send(msg)
}

// String is used in log output.
func (p *PostOffice) String() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return fmt.Sprintf("PostOffice(%d mailboxes)", len(p.boxes))
}
