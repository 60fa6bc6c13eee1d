package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruvenwang/mindponics/internal/domain"
	"github.com/ruvenwang/mindponics/internal/usecase/multiagent"
)

type recordingBus struct {
	mu     sync.Mutex
	events []domain.Event
}

func (b *recordingBus) Publish(_ context.Context, e domain.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}
func (b *recordingBus) Subscribe(domain.EventType, domain.EventHandler) func() { return func() {} }
func (b *recordingBus) SubscribeAll(domain.EventHandler) func()                { return func() {} }
func (b *recordingBus) Close()                                                  {}

func replyWith(msg domain.ChatMessage) func(context.Context, domain.ChatRequest) (*domain.ChatResponse, error) {
	return func(context.Context, domain.ChatRequest) (*domain.ChatResponse, error) {
		return &domain.ChatResponse{Model: "m", Message: msg, Usage: domain.Usage{TotalTokens: 7}}, nil
	}
}

func calls(names ...string) domain.ChatMessage {
	msg := domain.ChatMessage{Role: domain.RoleAssistant}
	for _, n := range names {
		msg.ToolCalls = append(msg.ToolCalls, domain.ToolCall{ID: n, Name: n, Arguments: json.RawMessage(`{}`)})
	}
	return msg
}

func TestStrategy_ClassifyFromToolCalls(t *testing.T) {
	inner := &mockProvider{name: "fake", chatFunc: replyWith(calls(
		"delegate_to_plant", "delegate_to_water", "delegate_to_plant", "delegate_to_algae", "web_search",
	))}
	bus := &recordingBus{}
	s := NewStrategy(inner, StrategyOptions{Model: "small", Bus: bus})

	got, err := s.Classify(context.Background(), "my lettuce is yellow")
	require.NoError(t, err)
	assert.Equal(t, []domain.Specialty{domain.SpecialtyWater, domain.SpecialtyPlant}, got)

	assert.Equal(t, "small", inner.lastReq.Model)
	require.Len(t, inner.lastReq.Messages, 2)
	assert.Equal(t, domain.RoleSystem, inner.lastReq.Messages[0].Role)
	assert.Contains(t, inner.lastReq.Messages[0].Content, multiagent.OrchestratorName)
	assert.Equal(t, "my lettuce is yellow", inner.lastReq.Messages[1].Content)
	require.Len(t, inner.lastReq.Tools, 5)
	assert.Contains(t, inner.lastReq.Tools[3].Description, "BiofilterBuddy")

	require.Len(t, bus.events, 1)
	var p domain.LLMCallPayload
	require.NoError(t, json.Unmarshal(bus.events[0].Payload, &p))
	assert.Equal(t, "classify", p.Purpose)
	assert.Equal(t, "fake", p.Provider)
	assert.Equal(t, 7, p.Tokens)
	assert.Empty(t, p.Error)
}

func TestStrategy_ClassifyFallback(t *testing.T) {
	tests := []struct {
		name     string
		provider *mockProvider
	}{
		{"provider error", &mockProvider{name: "down", chatFunc: failing(errors.New("connection refused"))}},
		{"no tool calls", &mockProvider{name: "chatty", chatFunc: replyWith(domain.ChatMessage{Content: "Sure!"})}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStrategy(tt.provider, StrategyOptions{})
			got, err := s.Classify(context.Background(), "what should I feed my tilapia")
			require.NoError(t, err)
			assert.Equal(t, []domain.Specialty{domain.SpecialtyFish}, got)
		})
	}
}

func TestStrategy_ClassifyOverHTTP(t *testing.T) {
	server, last := fakeCompletions(t, func(w http.ResponseWriter, _ openaiRequest) {
		writeJSON(w, toolReply("delegate_to_bacteria"))
	})
	s := NewStrategy(newTestProvider(server.URL), StrategyOptions{})

	got, err := s.Classify(context.Background(), "is my biofilter cycled?")
	require.NoError(t, err)
	assert.Equal(t, []domain.Specialty{domain.SpecialtyBacteria}, got)
	assert.Len(t, last.Tools, 5)
}

func TestStrategy_Synthesize(t *testing.T) {
	reports := []*domain.Report{
		{Specialty: domain.SpecialtyWater, Summary: "pH 7.0 is fine."},
		{Specialty: domain.SpecialtyFish, Summary: "Feed 400 g/day."},
	}

	inner := &mockProvider{name: "fake", chatFunc: replyWith(domain.ChatMessage{Content: "  All good, feed 400 g/day.\n"})}
	s := NewStrategy(inner, StrategyOptions{})
	text, err := s.Synthesize(context.Background(), "status?", reports)
	require.NoError(t, err)
	assert.Equal(t, "All good, feed 400 g/day.", text)
	assert.Contains(t, inner.lastReq.Messages[1].Content, "### Water quality (HydroGuardian)\npH 7.0 is fine.")
	assert.Empty(t, inner.lastReq.Tools)

	joined, _ := multiagent.JoinSynthesizer{}.Synthesize(context.Background(), "status?", reports)
	for _, p := range []*mockProvider{
		{name: "down", chatFunc: failing(errors.New("boom"))},
		{name: "empty", chatFunc: replyWith(domain.ChatMessage{Content: " "})},
	} {
		text, err := NewStrategy(p, StrategyOptions{}).Synthesize(context.Background(), "status?", reports)
		require.NoError(t, err)
		assert.Equal(t, joined, text, p.name)
	}

	none := &mockProvider{name: "unused"}
	text, err = NewStrategy(none, StrategyOptions{}).Synthesize(context.Background(), "status?", nil)
	require.NoError(t, err)
	assert.Equal(t, multiagent.SummaryHeader, text)
	assert.Zero(t, none.calls)
}

func TestStrategy_Narrate(t *testing.T) {
	inner := &mockProvider{name: "fake", chatFunc: replyWith(domain.ChatMessage{Content: "Your water looks great!"})}
	s := NewStrategy(inner, StrategyOptions{})
	text, err := s.Narrate(context.Background(), domain.SpecialtyWater, "how is my water", "All parameters optimal.")
	require.NoError(t, err)
	assert.Equal(t, "Your water looks great!", text)
	assert.Contains(t, inner.lastReq.Messages[0].Content, "HydroGuardian")
	assert.Contains(t, inner.lastReq.Messages[1].Content, "All parameters optimal.")

	down := NewStrategy(&mockProvider{name: "down", chatFunc: failing(errors.New("boom"))}, StrategyOptions{})
	text, err = down.Narrate(context.Background(), domain.SpecialtyFish, "q", "Feed 400 g/day.")
	require.NoError(t, err)
	assert.Equal(t, "Feed 400 g/day.", text)
}

func TestStrategy_RecordsFailedCall(t *testing.T) {
	bus := &recordingBus{}
	s := NewStrategy(&mockProvider{name: "down", chatFunc: failing(errors.New("boom"))}, StrategyOptions{Bus: bus})
	_, _ = s.Narrate(context.Background(), domain.SpecialtyPlant, "q", "f")

	require.Len(t, bus.events, 1)
	assert.Equal(t, domain.EventLLMCallCompleted, bus.events[0].Type)
	var p domain.LLMCallPayload
	require.NoError(t, json.Unmarshal(bus.events[0].Payload, &p))
	assert.Equal(t, "narrate.plant", p.Purpose)
	assert.Equal(t, "boom", p.Error)
}
