package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"github.com/ruvenwang/mindponics/internal/domain"
	"github.com/ruvenwang/mindponics/internal/usecase/multiagent"
)

// DelegateTool hands a question to a single specialist through the broker.
type DelegateTool struct {
	broker   *multiagent.Broker
	registry *multiagent.Registry
	from     string
	logger   *slog.Logger
}

// NewDelegateTool creates the delegate tool. from names the calling agent.
func NewDelegateTool(broker *multiagent.Broker, registry *multiagent.Registry, from string, logger *slog.Logger) *DelegateTool {
	if logger == nil {
		logger = nopLogger()
	}
	return &DelegateTool{broker: broker, registry: registry, from: from, logger: logger}
}

func (t *DelegateTool) Name() string        { return "delegate" }
func (t *DelegateTool) Description() string { return "Ask one specialist agent a question" }

func (t *DelegateTool) Schema() domain.ToolSchema {
	workers := t.registry.List()
	names := make([]string, 0, len(workers))
	enum := make([]string, 0, len(workers))
	for _, w := range workers {
		names = append(names, fmt.Sprintf("%s (%s)", w.Specialty, w.Name))
		enum = append(enum, string(w.Specialty))
	}
	list := "none"
	if len(names) > 0 {
		list = strings.Join(names, ", ")
	}
	enumJSON, _ := json.Marshal(enum)

	return domain.ToolSchema{
		Name:        t.Name(),
		Description: "Ask one specialist agent a question. Available specialists: " + list,
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"specialist": {
					"type": "string",
					"description": "The specialty to ask",
					"enum": ` + string(enumJSON) + `
				},
				"query": {
					"type": "string",
					"description": "The question for the specialist"
				},
				"state": {
					"type": "object",
					"description": "Optional context such as fish_species or plant_stage"
				}
			},
			"required": ["specialist", "query"]
		}`),
	}
}

type delegateParams struct {
	Specialist string            `json:"specialist"`
	Query      string            `json:"query"`
	State      domain.AgentState `json:"state"`
}

// Execute implements domain.Tool.
func (t *DelegateTool) Execute(ctx context.Context, params json.RawMessage) (*domain.ToolResult, error) {
	return Execute(ctx, t.Name(), t.logger, params, func(ctx context.Context, _ trace.Span, p delegateParams) (any, error) {
		if err := ValidateAll(RequireField("specialist", p.Specialist), RequireField("query", p.Query)); err != nil {
			return ErrResult("%v", err)
		}
		resp, err := t.broker.Delegate(ctx, multiagent.DelegateRequest{
			FromAgent: t.from,
			Specialty: p.Specialist,
			Query:     p.Query,
			State:     p.State,
		})
		if err != nil {
			return nil, fmt.Errorf("delegation failed: %w", err)
		}
		if resp.Error != "" {
			return errorData(errors.New(resp.Error)), nil
		}
		return resp, nil
	})
}
