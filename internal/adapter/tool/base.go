// Package tool exposes the advisor operations as named, schema-validated
// tools callable from the CLI and by language models.
package tool

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/ruvenwang/mindponics/internal/domain"
)

// nopLogger returns a logger that discards output.
func nopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Handler computes a tool result from decoded params.
type Handler[P any] func(ctx context.Context, p P) (any, error)

// FuncTool adapts a typed handler to domain.Tool through the Execute
// pipeline.
type FuncTool[P any] struct {
	name        string
	description string
	params      json.RawMessage
	handler     Handler[P]
	logger      *slog.Logger
}

// NewFuncTool creates a tool. params is the JSON Schema of P.
func NewFuncTool[P any](name, description, params string, logger *slog.Logger, handler Handler[P]) *FuncTool[P] {
	if logger == nil {
		logger = nopLogger()
	}
	return &FuncTool[P]{
		name:        name,
		description: description,
		params:      json.RawMessage(params),
		handler:     handler,
		logger:      logger,
	}
}

func (t *FuncTool[P]) Name() string        { return t.name }
func (t *FuncTool[P]) Description() string { return t.description }

func (t *FuncTool[P]) Schema() domain.ToolSchema {
	return domain.ToolSchema{Name: t.name, Description: t.description, Parameters: t.params}
}

// Execute implements domain.Tool.
func (t *FuncTool[P]) Execute(ctx context.Context, params json.RawMessage) (*domain.ToolResult, error) {
	return Execute(ctx, t.name, t.logger, params, func(ctx context.Context, _ trace.Span, p P) (any, error) {
		return t.handler(ctx, p)
	})
}

// noParams is the parameter type of tools that take none.
type noParams struct{}

const emptySchema = `{"type": "object", "properties": {}}`
