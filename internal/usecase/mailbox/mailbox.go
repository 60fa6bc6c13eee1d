// Package mailbox implements the per-recipient message queues workers use to
// share intermediate state and post results back to the router.
package mailbox

import (
	"sync"

	"github.com/ruvenwang/mindponics/internal/domain"
)

// Mailbox is a FIFO queue owned by one recipient. Any number of senders may
// append concurrently; the owner drains everything at once.
type Mailbox struct {
	owner string

	mu    sync.Mutex
	queue []domain.Message
	ready chan struct{}
}

// New creates an empty mailbox for owner.
func New(owner string) *Mailbox {
	return &Mailbox{owner: owner, ready: make(chan struct{}, 1)}
}

// Owner returns the recipient id this mailbox belongs to.
func (m *Mailbox) Owner() string { return m.owner }

// Send appends msg. It never blocks on the receiver.
func (m *Mailbox) Send(msg domain.Message) {
	m.mu.Lock()
	m.queue = append(m.queue, msg)
	m.mu.Unlock()

	select {
	case m.ready <- struct{}{}:
	default:
	}
}

// Receive removes and returns every queued message in arrival order.
func (m *Mailbox) Receive() []domain.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.queue
	m.queue = nil
	return out
}

// Len returns the number of queued messages.
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Ready is signalled after a Send. The signal coalesces, so a receiver must
// drain with Receive after each wake-up.
func (m *Mailbox) Ready() <-chan struct{} { return m.ready }
