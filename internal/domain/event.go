package domain

import (
	"context"
	"encoding/json"
	"time"
)

// EventType identifies the kind of event being published.
type EventType string

const (
	EventAdvisoryStarted   EventType = "advisory.started"
	EventAdvisoryCompleted EventType = "advisory.completed"
	EventAgentDelegated    EventType = "agent.delegated"
	EventWorkerReported    EventType = "worker.reported"
	EventWorkerUnavailable EventType = "worker.unavailable"
	EventToolCallCompleted EventType = "tool.call.completed"
	EventLLMCallCompleted  EventType = "llm.call.completed"
	EventMonitorFired      EventType = "monitor.fired"
)

// Event is the envelope published on the event bus.
type Event struct {
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"request_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// EventHandler is a callback invoked when an event is received.
type EventHandler func(ctx context.Context, event Event)

// EventBus provides a publish/subscribe mechanism for domain events.
type EventBus interface {
	// Publish sends an event to all matching subscribers.
	Publish(ctx context.Context, event Event)
	// Subscribe registers a handler for a specific event type.
	// Returns an unsubscribe function.
	Subscribe(eventType EventType, handler EventHandler) func()
	// SubscribeAll registers a handler that receives every event.
	// Returns an unsubscribe function.
	SubscribeAll(handler EventHandler) func()
	// Close drains in-flight handlers and prevents new publishes.
	Close()
}

// AdvisoryCompletedPayload is the payload of EventAdvisoryCompleted.
type AdvisoryCompletedPayload struct {
	RequestID   string      `json:"request_id"`
	Query       string      `json:"query"`
	Specialties []Specialty `json:"specialties"`
	Answer      string      `json:"answer"`
	Unavailable []Specialty `json:"unavailable,omitempty"`
	DurationMS  int64       `json:"duration_ms"`
}

// AdvisoryStartedPayload is the payload of EventAdvisoryStarted.
type AdvisoryStartedPayload struct {
	RequestID   string      `json:"request_id"`
	Query       string      `json:"query"`
	Specialties []Specialty `json:"specialties"`
}

// WorkerPayload is the payload of EventWorkerReported and EventWorkerUnavailable.
type WorkerPayload struct {
	Specialty Specialty `json:"specialty"`
	WorkerID  string    `json:"worker_id"`
	Reason    string    `json:"reason,omitempty"`
}

// LLMCallPayload is the payload of EventLLMCallCompleted.
type LLMCallPayload struct {
	Purpose    string `json:"purpose"`
	Provider   string `json:"provider"`
	Model      string `json:"model,omitempty"`
	Tokens     int    `json:"tokens"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// MonitorFiredPayload is the payload of EventMonitorFired.
type MonitorFiredPayload struct {
	Schedule    string      `json:"schedule"`
	Query       string      `json:"query"`
	RequestID   string      `json:"request_id,omitempty"`
	Unavailable []Specialty `json:"unavailable,omitempty"`
	Error       string      `json:"error,omitempty"`
}
