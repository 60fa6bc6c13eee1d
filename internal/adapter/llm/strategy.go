package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ruvenwang/mindponics/internal/domain"
	"github.com/ruvenwang/mindponics/internal/usecase/multiagent"
)

// StrategyOptions configures a Strategy. Zero fields take defaults.
type StrategyOptions struct {
	Model       string
	MaxTokens   int
	Temperature float64

	// Fallbacks used when the provider fails. Defaults are the keyword
	// classifier and the join synthesizer.
	Classifier  domain.Classifier
	Synthesizer domain.Synthesizer

	Bus    domain.EventBus // optional, receives llm.call.completed
	Logger *slog.Logger
}

// Strategy routes, merges and narrates through a language model. Every
// method degrades to a deterministic result when the provider fails.
type Strategy struct {
	provider    domain.LLMProvider
	opts        StrategyOptions
	classifier  domain.Classifier
	synthesizer domain.Synthesizer
	logger      *slog.Logger
}

// NewStrategy creates a Strategy over provider.
func NewStrategy(provider domain.LLMProvider, opts StrategyOptions) *Strategy {
	s := &Strategy{
		provider:    provider,
		opts:        opts,
		classifier:  opts.Classifier,
		synthesizer: opts.Synthesizer,
		logger:      opts.Logger,
	}
	if s.classifier == nil {
		s.classifier = multiagent.NewKeywordClassifier()
	}
	if s.synthesizer == nil {
		s.synthesizer = multiagent.JoinSynthesizer{}
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	return s
}

// Classify implements domain.Classifier. The model is offered one
// delegate_to_<specialty> tool per specialist and the tools it calls are
// the selection. A failed call or a reply without tool calls falls back to
// the configured classifier.
func (s *Strategy) Classify(ctx context.Context, query string) ([]domain.Specialty, error) {
	resp, err := s.chat(ctx, "classify", orchestratorPrompt(), query, delegationTools())
	if err != nil {
		s.logger.Warn("llm classification failed, using fallback", "error", err)
		return s.classifier.Classify(ctx, query)
	}

	picked := make(map[domain.Specialty]bool)
	for _, call := range resp.Message.ToolCalls {
		name, ok := strings.CutPrefix(call.Name, delegatePrefix)
		if !ok {
			s.logger.Debug("ignoring unknown tool call", "tool", call.Name)
			continue
		}
		sp, err := domain.ParseSpecialty(name)
		if err != nil {
			s.logger.Debug("ignoring unknown specialty", "tool", call.Name)
			continue
		}
		picked[sp] = true
	}
	if len(picked) == 0 {
		s.logger.Debug("llm selected no specialist, using fallback")
		return s.classifier.Classify(ctx, query)
	}

	out := make([]domain.Specialty, 0, len(picked))
	for _, sp := range domain.AllSpecialties {
		if picked[sp] {
			out = append(out, sp)
		}
	}
	return out, nil
}

// Synthesize implements domain.Synthesizer.
func (s *Strategy) Synthesize(ctx context.Context, query string, reports []*domain.Report) (string, error) {
	if len(reports) == 0 {
		return s.synthesizer.Synthesize(ctx, query, reports)
	}
	prompt := fmt.Sprintf("Question: %s\n\nSpecialist reports:\n\n%s", query, multiagent.JoinSections(reports))
	resp, err := s.chat(ctx, "synthesize", synthesisPrompt(), prompt, nil)
	if err == nil && strings.TrimSpace(resp.Message.Content) == "" {
		err = fmt.Errorf("%w: empty synthesis", domain.ErrProviderError)
	}
	if err != nil {
		s.logger.Warn("llm synthesis failed, using fallback", "error", err)
		return s.synthesizer.Synthesize(ctx, query, reports)
	}
	return strings.TrimSpace(resp.Message.Content), nil
}

// Narrate implements domain.Narrator. On failure the findings are returned
// unchanged.
func (s *Strategy) Narrate(ctx context.Context, sp domain.Specialty, query, findings string) (string, error) {
	prompt := fmt.Sprintf("Question: %s\n\nFindings:\n%s", query, findings)
	resp, err := s.chat(ctx, "narrate."+string(sp), personaPrompt(sp), prompt, nil)
	if err != nil {
		s.logger.Warn("llm narration failed, using findings", "specialty", sp, "error", err)
		return findings, nil
	}
	if text := strings.TrimSpace(resp.Message.Content); text != "" {
		return text, nil
	}
	return findings, nil
}

func (s *Strategy) chat(ctx context.Context, purpose, system, user string, tools []domain.ToolSchema) (*domain.ChatResponse, error) {
	start := time.Now()
	resp, err := s.provider.Chat(ctx, domain.ChatRequest{
		Model:    s.opts.Model,
		Messages: []domain.ChatMessage{
			{Role: domain.RoleSystem, Content: system, Timestamp: start},
			{Role: domain.RoleUser, Content: user, Timestamp: start},
		},
		Tools:       tools,
		MaxTokens:   s.opts.MaxTokens,
		Temperature: s.opts.Temperature,
	})

	payload := domain.LLMCallPayload{
		Purpose:    purpose,
		Provider:   s.provider.Name(),
		DurationMS: time.Since(start).Milliseconds(),
	}
	if err != nil {
		payload.Error = err.Error()
	} else {
		payload.Model = resp.Model
		payload.Tokens = resp.Usage.TotalTokens
	}
	s.publish(ctx, payload)
	return resp, err
}

func (s *Strategy) publish(ctx context.Context, payload domain.LLMCallPayload) {
	if s.opts.Bus == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	s.opts.Bus.Publish(ctx, domain.Event{
		Type:      domain.EventLLMCallCompleted,
		Timestamp: time.Now(),
		RequestID: domain.RequestIDFromContext(ctx),
		Payload:   data,
	})
}

var (
	_ domain.Classifier  = (*Strategy)(nil)
	_ domain.Synthesizer = (*Strategy)(nil)
	_ domain.Narrator    = (*Strategy)(nil)
)
