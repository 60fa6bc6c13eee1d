package tool

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/ruvenwang/mindponics/internal/domain"
)

// ToolCallPayload is the payload of domain.EventToolCallCompleted.
type ToolCallPayload struct {
	Tool       string `json:"tool"`
	IsError    bool   `json:"is_error"`
	DurationMS int64  `json:"duration_ms"`
}

// Registry holds the named advisor tools.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]domain.Tool
	bus    domain.EventBus
	logger *slog.Logger
}

// NewRegistry creates an empty tool registry. Tools are wrapped with JSON
// Schema validation on Register. bus may be nil.
func NewRegistry(logger *slog.Logger, bus domain.EventBus) *Registry {
	if logger == nil {
		logger = nopLogger()
	}
	return &Registry{
		tools:  make(map[string]domain.Tool),
		bus:    bus,
		logger: logger,
	}
}

// Register adds a tool. A duplicate name is ErrDuplicate. When the schema
// does not compile the tool is registered unvalidated and a warning logged.
func (r *Registry) Register(t domain.Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := t.Name()
	if _, exists := r.tools[name]; exists {
		return domain.NewSubSystemError("tool", "Registry.Register", domain.ErrDuplicate, name)
	}

	wrapped, err := WithSchemaValidation(t)
	if err != nil {
		r.logger.Warn("schema validation disabled for tool", "tool", name, "error", err)
	} else {
		t = wrapped
	}
	r.tools[name] = t
	return nil
}

// RegisterAll registers every tool, stopping at the first error.
func (r *Registry) RegisterAll(tools ...domain.Tool) error {
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			return err
		}
	}
	return nil
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) (domain.Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tools[name]
	if !ok {
		return nil, domain.NewDomainError("Registry.Get", domain.ErrToolNotFound, name)
	}
	return t, nil
}

// Names returns the registered tool names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Schemas returns every tool schema, sorted by name.
func (r *Registry) Schemas() []domain.ToolSchema {
	names := r.Names()

	r.mu.RLock()
	defer r.mu.RUnlock()
	schemas := make([]domain.ToolSchema, 0, len(names))
	for _, name := range names {
		if t, ok := r.tools[name]; ok {
			schemas = append(schemas, t.Schema())
		}
	}
	return schemas
}

// Execute runs the named tool and publishes a tool.call.completed event.
func (r *Registry) Execute(ctx context.Context, name string, params json.RawMessage) (*domain.ToolResult, error) {
	t, err := r.Get(name)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := t.Execute(ctx, params)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("tool executed", "tool", name, "is_error", result.IsError, "duration", time.Since(start))

	if r.bus != nil {
		payload, _ := json.Marshal(ToolCallPayload{
			Tool:       name,
			IsError:    result.IsError,
			DurationMS: time.Since(start).Milliseconds(),
		})
		r.bus.Publish(ctx, domain.Event{
			Type:      domain.EventToolCallCompleted,
			Timestamp: time.Now(),
			Payload:   payload,
		})
	}
	return result, nil
}
