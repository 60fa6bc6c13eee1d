package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruvenwang/mindponics/internal/domain"
	"github.com/ruvenwang/mindponics/internal/infra/config"
)

// fakeCompletions serves /chat/completions with handler and records the
// last decoded request.
func fakeCompletions(t *testing.T, handler func(w http.ResponseWriter, req openaiRequest)) (*httptest.Server, *openaiRequest) {
	t.Helper()
	var last openaiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&last); err != nil {
			t.Errorf("decode request: %v", err)
		}
		handler(w, last)
	}))
	t.Cleanup(server.Close)
	return server, &last
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func textReply(content string) openaiResponse {
	return openaiResponse{
		ID:      "chatcmpl-1",
		Model:   "test-model",
		Choices: []openaiChoice{{Message: openaiMessage{Role: domain.RoleAssistant, Content: content}, FinishReason: "stop"}},
		Usage:   openaiUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
		Created: 1700000000,
	}
}

func toolReply(names ...string) openaiResponse {
	resp := textReply("")
	for i, n := range names {
		resp.Choices[0].Message.ToolCalls = append(resp.Choices[0].Message.ToolCalls, openaiToolCall{
			ID:       "call_" + string(rune('a'+i)),
			Type:     "function",
			Function: openaiToolCallFunction{Name: n, Arguments: `{"reason":"needed"}`},
		})
	}
	resp.Choices[0].FinishReason = "tool_calls"
	return resp
}

func newTestProvider(url string) *OpenAIProvider {
	return NewOpenAIProvider(config.ProviderConfig{
		Name:    "test",
		BaseURL: url + "/",
		APIKey:  "test-key",
		Model:   "test-model",
	}, nil)
}

func TestOpenAIProvider_Chat(t *testing.T) {
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		writeJSON(w, textReply("Keep pH near 7."))
	}))
	defer server.Close()

	p := newTestProvider(server.URL)
	resp, err := p.Chat(context.Background(), domain.ChatRequest{
		Messages: []domain.ChatMessage{{Role: domain.RoleUser, Content: "pH?"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer test-key", auth)
	assert.Equal(t, "Keep pH near 7.", resp.Message.Content)
	assert.Equal(t, domain.RoleAssistant, resp.Message.Role)
	assert.Equal(t, 15, resp.Usage.TotalTokens)
	assert.Equal(t, int64(1700000000), resp.CreatedAt.Unix())
	assert.Equal(t, "test", p.Name())
}

func TestOpenAIProvider_RequestMapping(t *testing.T) {
	server, last := fakeCompletions(t, func(w http.ResponseWriter, _ openaiRequest) {
		writeJSON(w, toolReply("delegate_to_water"))
	})
	p := newTestProvider(server.URL)

	resp, err := p.Chat(context.Background(), domain.ChatRequest{
		Messages: []domain.ChatMessage{
			{Role: domain.RoleSystem, Content: "route"},
			{Role: domain.RoleAssistant, ToolCalls: []domain.ToolCall{{ID: "c1", Name: "x", Arguments: json.RawMessage(`{}`)}}},
			{Role: domain.RoleTool, Content: "done", ToolCalls: []domain.ToolCall{{ID: "c1"}}},
		},
		Tools:       delegationTools(),
		Temperature: 0.2,
		MaxTokens:   64,
	})
	require.NoError(t, err)

	assert.Equal(t, "test-model", last.Model, "provider model fills an empty request model")
	assert.Equal(t, 64, last.MaxTokens)
	require.NotNil(t, last.Temperature)
	assert.InDelta(t, 0.2, *last.Temperature, 1e-9)
	require.Len(t, last.Tools, len(domain.AllSpecialties))
	assert.Equal(t, "function", last.Tools[0].Type)
	assert.Equal(t, "delegate_to_water", last.Tools[0].Function.Name)
	require.Len(t, last.Messages, 3)
	assert.Equal(t, "x", last.Messages[1].ToolCalls[0].Function.Name)
	assert.Equal(t, "c1", last.Messages[2].ToolCallID)
	assert.Empty(t, last.Messages[2].ToolCalls)

	require.Len(t, resp.Message.ToolCalls, 1)
	assert.Equal(t, "delegate_to_water", resp.Message.ToolCalls[0].Name)
	assert.JSONEq(t, `{"reason":"needed"}`, string(resp.Message.ToolCalls[0].Arguments))
}

func TestOpenAIProvider_HTTPErrors(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusTooManyRequests, domain.ErrRateLimit},
		{http.StatusUnauthorized, domain.ErrAuthInvalid},
		{http.StatusForbidden, domain.ErrAuthInvalid},
		{http.StatusRequestEntityTooLarge, domain.ErrContextOverflow},
		{http.StatusBadGateway, domain.ErrProviderError},
		{http.StatusBadRequest, domain.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, `{"error":"nope"}`, tt.status)
			}))
			defer server.Close()

			_, err := newTestProvider(server.URL).Chat(context.Background(), domain.ChatRequest{})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.Contains(t, err.Error(), "nope")
		})
	}
}

func TestOpenAIProvider_BadResponses(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"malformed", `{"choices": [`, "unmarshal response"},
		{"no choices", `{"id": "x", "choices": []}`, "no choices"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestProvider(server.URL).Chat(context.Background(), domain.ChatRequest{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestOpenAIProvider_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, textReply("late"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestProvider(server.URL).Chat(ctx, domain.ChatRequest{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewOpenAIProvider_BaseURL(t *testing.T) {
	tests := []struct {
		cfg  config.ProviderConfig
		want string
	}{
		{config.ProviderConfig{Name: "main", Type: "groq"}, "https://api.groq.com/openai/v1"},
		{config.ProviderConfig{Name: "ollama"}, "http://localhost:11434/v1"},
		{config.ProviderConfig{Name: "custom"}, "https://api.openai.com/v1"},
		{config.ProviderConfig{Name: "local", BaseURL: "http://box:8080/v1/"}, "http://box:8080/v1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NewOpenAIProvider(tt.cfg, nil).baseURL, tt.cfg.Name)
	}
}

func TestNewHTTPClient_Defaults(t *testing.T) {
	c := NewHTTPClient(config.ProviderConfig{})
	assert.Equal(t, defaultConnTimeout+defaultRespTimeout, c.Timeout)
	tr, ok := c.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, defaultMaxIdleConns, tr.MaxIdleConns)
	assert.Equal(t, defaultRespTimeout, tr.ResponseHeaderTimeout)

	c = NewHTTPClient(config.ProviderConfig{Pool: config.PoolConfig{MaxConnsPerHost: 3}})
	assert.Equal(t, 3, c.Transport.(*http.Transport).MaxConnsPerHost)
}
