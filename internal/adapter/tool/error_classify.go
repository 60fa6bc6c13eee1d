package tool

import (
	"strings"

	"github.com/ruvenwang/mindponics/internal/domain"
)

// retryablePatterns are lowercase substrings of transient error messages
// that arrive without a sentinel.
var retryablePatterns = []string{
	"connection refused",
	"connection reset",
	"deadline exceeded",
	"timeout",
	"temporarily unavailable",
	"try again",
}

// classifyToolError reports whether a tool call that failed with err may
// succeed on retry.
func classifyToolError(err error) bool {
	if err == nil {
		return false
	}
	if domain.IsRetryableError(err) {
		return true
	}
	lower := strings.ToLower(err.Error())
	for _, p := range retryablePatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
