package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/ruvenwang/mindponics/internal/domain"
	"github.com/ruvenwang/mindponics/internal/infra/tracer"
)

// Execute is the pipeline every advisor tool runs through: parse params,
// start a "tool.<name>" span, run the handler, format the result.
//
// The handler may return:
//   - (any Go value, nil): marshalled as indented JSON
//   - (string, nil): plain text
//   - (*domain.ToolResult, nil): returned unchanged
//   - (nil, error): an error result; lookup misses become {"error": detail}
func Execute[P any](
	ctx context.Context,
	name string,
	logger *slog.Logger,
	rawParams json.RawMessage,
	handler func(ctx context.Context, span trace.Span, params P) (any, error),
) (*domain.ToolResult, error) {
	ctx, span := tracer.StartSpan(ctx, "tool."+name,
		trace.WithAttributes(tracer.StringAttr("tool.name", name)),
	)
	defer span.End()

	p, bad := ParseParams[P](rawParams)
	if bad != nil {
		tracer.RecordError(span, errors.New(bad.Content))
		return bad, nil
	}

	result, err := handler(ctx, span, p)
	if err != nil {
		tracer.RecordError(span, err)
		if errors.Is(err, domain.ErrNotFound) {
			return errorData(err), nil
		}
		logger.Warn("tool failed", "tool", name, "code", domain.ErrorCodeOf(err), "error", err)

		content := err.Error()
		retryable := classifyToolError(err)
		span.SetAttributes(tracer.BoolAttr("tool.retryable", retryable))
		if retryable {
			content += " (transient error, may succeed on retry)"
		}
		return &domain.ToolResult{IsError: true, IsRetryable: retryable, Content: content}, nil
	}
	return formatResult(span, result)
}

func formatResult(span trace.Span, result any) (*domain.ToolResult, error) {
	switch v := result.(type) {
	case *domain.ToolResult:
		if v.IsError {
			tracer.RecordError(span, errors.New(v.Content))
		} else {
			tracer.SetOK(span)
		}
		return v, nil
	case string:
		tracer.SetOK(span)
		return TextResult(v), nil
	}
	res, err := JSONResult(result)
	if err != nil {
		tracer.RecordError(span, err)
		return &domain.ToolResult{IsError: true, Content: fmt.Sprintf("failed to format response: %v", err)}, nil
	}
	tracer.SetOK(span)
	return res, nil
}

// errorData renders a lookup failure the way the advisors report it to
// callers: a JSON object with a single "error" field.
func errorData(err error) *domain.ToolResult {
	detail := err.Error()
	var de *domain.DomainError
	if errors.As(err, &de) && de.Detail != "" {
		detail = de.Detail
	}
	data, _ := json.Marshal(map[string]string{"error": detail})
	return &domain.ToolResult{IsError: true, Content: string(data)}
}

// ParseParams unmarshals rawParams into P. Empty params decode as "{}".
// On failure it returns an error ToolResult suitable for returning directly.
func ParseParams[P any](rawParams json.RawMessage) (P, *domain.ToolResult) {
	var p P
	if len(rawParams) == 0 {
		rawParams = json.RawMessage("{}")
	}
	if err := json.Unmarshal(rawParams, &p); err != nil {
		return p, &domain.ToolResult{IsError: true, Content: fmt.Sprintf("invalid params: %v", err)}
	}
	return p, nil
}

// ErrResult creates an error ToolResult for validation failures that should
// reach the caller without being logged.
func ErrResult(format string, args ...any) (*domain.ToolResult, error) {
	return &domain.ToolResult{IsError: true, Content: fmt.Sprintf(format, args...)}, nil
}

// JSONResult marshals v as indented JSON into a success ToolResult.
func JSONResult(v any) (*domain.ToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return &domain.ToolResult{Content: string(data)}, nil
}

// TextResult creates a plain text success ToolResult.
func TextResult(s string) *domain.ToolResult {
	return &domain.ToolResult{Content: s}
}
