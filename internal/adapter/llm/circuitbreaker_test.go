package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruvenwang/mindponics/internal/domain"
	"github.com/ruvenwang/mindponics/internal/infra/config"
)

// mockProvider answers Chat with chatFunc and counts calls.
type mockProvider struct {
	name     string
	calls    int
	chatFunc func(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error)
	lastReq  domain.ChatRequest
}

func (m *mockProvider) Chat(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	m.calls++
	m.lastReq = req
	if m.chatFunc == nil {
		return &domain.ChatResponse{Message: domain.ChatMessage{Content: "ok"}}, nil
	}
	return m.chatFunc(ctx, req)
}

func (m *mockProvider) Name() string { return m.name }

func failing(err error) func(context.Context, domain.ChatRequest) (*domain.ChatResponse, error) {
	return func(context.Context, domain.ChatRequest) (*domain.ChatResponse, error) { return nil, err }
}

func TestCircuitBreaker_PassesThrough(t *testing.T) {
	inner := &mockProvider{name: "openai"}
	cb := NewCircuitBreakerProvider(inner, config.CircuitBreakerConfig{}, nil)

	resp, err := cb.Chat(context.Background(), domain.ChatRequest{})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Message.Content)
	assert.Equal(t, "openai", cb.Name())
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestCircuitBreaker_OpensAfterFailures(t *testing.T) {
	inner := &mockProvider{name: "flaky", chatFunc: failing(errors.New("boom"))}
	cb := NewCircuitBreakerProvider(inner, config.CircuitBreakerConfig{
		MaxFailures: 3,
		Timeout:     time.Minute,
	}, nil)

	for range 3 {
		_, err := cb.Chat(context.Background(), domain.ChatRequest{})
		assert.EqualError(t, err, "boom")
	}
	assert.Equal(t, gobreaker.StateOpen, cb.State())

	_, err := cb.Chat(context.Background(), domain.ChatRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.ErrorIs(t, err, domain.ErrProviderError)
	assert.Equal(t, 3, inner.calls, "open circuit must not reach the provider")
}

func TestCircuitBreaker_HalfOpenRecovers(t *testing.T) {
	inner := &mockProvider{name: "flaky", chatFunc: failing(errors.New("boom"))}
	cb := NewCircuitBreakerProvider(inner, config.CircuitBreakerConfig{
		MaxFailures: 1,
		Timeout:     20 * time.Millisecond,
	}, nil)

	_, _ = cb.Chat(context.Background(), domain.ChatRequest{})
	require.Equal(t, gobreaker.StateOpen, cb.State())

	time.Sleep(40 * time.Millisecond)
	inner.chatFunc = nil
	_, err := cb.Chat(context.Background(), domain.ChatRequest{})
	require.NoError(t, err)
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}
