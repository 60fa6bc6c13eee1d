package render

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ruvenwang/mindponics/internal/domain"
	"github.com/ruvenwang/mindponics/internal/infra/config"
)

// FriendlyError is a user-facing error with recovery hints.
type FriendlyError struct {
	Title   string
	Message string
	Hints   []string
	Raw     string
}

type errorPattern struct {
	match   func(err error) bool
	produce func(err error) FriendlyError
}

var patterns = []errorPattern{
	// Sentinels first so errors.Is works through wrapping.
	{
		match: func(err error) bool {
			var ve *config.ValidationError
			return errors.As(err, &ve)
		},
		produce: func(err error) FriendlyError {
			var ve *config.ValidationError
			errors.As(err, &ve)
			return FriendlyError{
				Title:   "Invalid Configuration",
				Message: strings.Join(ve.Errors, "; "),
				Hints:   []string{"Run 'mindponics doctor' to check your setup"},
				Raw:     err.Error(),
			}
		},
	},
	{
		match: is(domain.ErrRateLimit),
		produce: constantError("Rate Limited", "Too many requests in a short time.",
			[]string{"Wait a moment before retrying", "Raise router.rate_limit or the provider plan"}),
	},
	{
		match: is(domain.ErrAuthInvalid),
		produce: constantError("Authentication Failed", "The language model provider rejected the API key.",
			[]string{"Check MINDPONICS_LLM_PROVIDER_<NAME>_API_KEY", "Verify the key hasn't expired"}),
	},
	{
		match: is(domain.ErrContextOverflow),
		produce: constantError("Request Too Large", "The prompt exceeded the model's context window.",
			[]string{"Ask a shorter question", "Narrow it with @water, @fish, @plant, @bacteria or @environment"}),
	},
	{
		match: is(domain.ErrProviderError),
		produce: constantError("Language Model Unavailable", "The provider failed or its circuit breaker is open.",
			[]string{"Retry in a minute", "Set router.classifier to prefix and router.synthesizer to join to work offline"}),
	},
	{
		match: is(domain.ErrToolNotFound),
		produce: constantError("Unknown Tool", "No tool has that name.",
			[]string{"Run 'mindponics tool' to list the available tools"}),
	},
	{
		match: is(domain.ErrHistoryStore),
		produce: constantError("History Unavailable", "The advisory history database could not be used.",
			[]string{"Check that history.path is writable", "Set history.enabled to false to skip recording"}),
	},
	{
		match: is(domain.ErrSensorRead),
		produce: constantError("Sensor Read Failed", "No reading could be taken from the configured source.",
			[]string{"Check sensor.path", "Enable sensor.fallback to use simulated readings"}),
	},
	{
		match: func(err error) bool {
			return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, domain.ErrTimeout)
		},
		produce: constantError("Request Timed Out", "The specialists took too long to answer.",
			[]string{"Increase router.collect_timeout", "Check the network if a language model is configured"}),
	},
	{
		match: is(domain.ErrInvalidInput),
		produce: func(err error) FriendlyError {
			return FriendlyError{
				Title:   "Invalid Input",
				Message: err.Error(),
				Hints:   []string{"Run 'mindponics help' for usage"},
				Raw:     err.Error(),
			}
		},
	},

	// External errors without a sentinel.
	{
		match: containsAny("connection refused", "dial tcp", "no such host"),
		produce: constantError("Connection Failed", "Could not reach the remote service.",
			[]string{"Check your internet connection", "Verify llm base_url in config"}),
	},
}

// Humanize converts a raw error into a FriendlyError with recovery hints.
func Humanize(err error) FriendlyError {
	if err == nil {
		return FriendlyError{Title: "Unknown Error", Raw: "nil"}
	}
	for _, p := range patterns {
		if p.match(err) {
			return p.produce(err)
		}
	}
	return FriendlyError{
		Title:   "Unexpected Error",
		Message: err.Error(),
		Hints:   []string{"Try again", "Set MINDPONICS_LOGGER_LEVEL=debug for more details"},
		Raw:     err.Error(),
	}
}

// Error prints err as a FriendlyError.
func (r *Renderer) Error(err error) {
	fe := Humanize(err)
	head := fe.Title
	if !r.plain {
		head = textError.Render(r.symbols.Error + " " + fe.Title)
	}
	fmt.Fprintln(r.out, head)
	if fe.Message != "" {
		fmt.Fprintf(r.out, "  %s\n", fe.Message)
	}
	if len(fe.Hints) > 0 {
		fmt.Fprintln(r.out, "  Suggestions:")
		for _, h := range fe.Hints {
			fmt.Fprintf(r.out, "    %s %s\n", r.symbols.Bullet, h)
		}
	}
}

func is(target error) func(error) bool {
	return func(err error) bool { return errors.Is(err, target) }
}

// containsAny matches when the lower-cased error text contains any substring.
func containsAny(substrs ...string) func(error) bool {
	return func(err error) bool {
		lower := strings.ToLower(err.Error())
		for _, s := range substrs {
			if strings.Contains(lower, s) {
				return true
			}
		}
		return false
	}
}

func constantError(title, message string, hints []string) func(error) FriendlyError {
	return func(err error) FriendlyError {
		return FriendlyError{Title: title, Message: message, Hints: hints, Raw: err.Error()}
	}
}
