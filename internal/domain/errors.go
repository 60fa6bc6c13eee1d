package domain

import (
	"errors"
	"fmt"
)

// Category sentinels. Use with NewSubSystemError for subsystem-specific errors.
var (
	ErrNotFound      = fmt.Errorf("not found")
	ErrDuplicate     = fmt.Errorf("duplicate")
	ErrTimeout       = fmt.Errorf("operation timed out")
	ErrInvalidInput  = fmt.Errorf("invalid input")
	ErrProviderError = fmt.Errorf("provider error")
)

// Sentinel errors for the domain layer.
var (
	ErrToolNotFound      = fmt.Errorf("tool not found")
	ErrRateLimit         = fmt.Errorf("rate limit exceeded")
	ErrAuthInvalid       = fmt.Errorf("authentication failed")
	ErrContextOverflow   = fmt.Errorf("context window exceeded")
	ErrSensorRead        = fmt.Errorf("sensor read failed")
	ErrWorkerUnavailable = fmt.Errorf("worker unavailable")
	ErrHistoryStore      = fmt.Errorf("history store failed")
)

// DomainError wraps a sentinel error with context.
type DomainError struct {
	Op        string // operation name (e.g., "FishAdvisor.SpeciesInfo")
	Err       error  // underlying sentinel or wrapped error
	Detail    string // human-readable detail
	SubSystem string // subsystem identifier (e.g., "fish", "plant"); used for ErrorCode dispatch
}

func (e *DomainError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *DomainError) Unwrap() error { return e.Err }

// NewDomainError creates a new DomainError.
func NewDomainError(op string, err error, detail string) *DomainError {
	return &DomainError{Op: op, Err: err, Detail: detail}
}

// NewSubSystemError creates a DomainError tagged with a subsystem for ErrorCode dispatch.
// Use this with category sentinels (ErrNotFound, ErrTimeout, etc.) so that ErrorCodeOf
// can map the combination of sentinel + subsystem to a specific ErrorCode.
func NewSubSystemError(subsystem, op string, err error, detail string) *DomainError {
	return &DomainError{Op: op, Err: err, Detail: detail, SubSystem: subsystem}
}

// WrapOp adds operation context to an error using fmt.Errorf wrapping.
// Returns nil if err is nil, enabling idiomatic use: return domain.WrapOp("op", err)
func WrapOp(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

// IsRetryableError reports whether err is a transient error that may succeed on retry.
func IsRetryableError(err error) bool {
	for _, sentinel := range []error{ErrTimeout, ErrProviderError, ErrRateLimit, ErrSensorRead, ErrWorkerUnavailable} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// ErrorCode is a machine-parseable error category for monitoring and alerting.
type ErrorCode string

const (
	CodeUnknown           ErrorCode = "UNKNOWN"
	CodeToolNotFound      ErrorCode = "TOOL_NOT_FOUND"
	CodeRateLimit         ErrorCode = "RATE_LIMIT"
	CodeAuthInvalid       ErrorCode = "AUTH_INVALID"
	CodeContextOverflow   ErrorCode = "CONTEXT_OVERFLOW"
	CodeSensorRead        ErrorCode = "SENSOR_READ"
	CodeWorkerUnavailable ErrorCode = "WORKER_UNAVAILABLE"
	CodeHistoryStore      ErrorCode = "HISTORY_STORE"

	// Subsystem-specific codes resolved through subSystemCodeMap.
	CodeSpeciesNotFound ErrorCode = "SPECIES_NOT_FOUND"
	CodePlantNotFound   ErrorCode = "PLANT_NOT_FOUND"
	CodeWorkerNotFound  ErrorCode = "WORKER_NOT_FOUND"
	CodeWorkerDuplicate ErrorCode = "WORKER_DUPLICATE"
	CodeMailboxNotFound ErrorCode = "MAILBOX_NOT_FOUND"
	CodeMailboxExists   ErrorCode = "MAILBOX_EXISTS"
	CodeCollectTimeout  ErrorCode = "COLLECT_TIMEOUT"
	CodeLLMProvider     ErrorCode = "LLM_PROVIDER"

	// Category error codes. Fallback codes when no subsystem-specific code matches.
	CodeNotFound      ErrorCode = "NOT_FOUND"
	CodeDuplicate     ErrorCode = "DUPLICATE"
	CodeTimeout       ErrorCode = "TIMEOUT"
	CodeInvalidInput  ErrorCode = "INVALID_INPUT"
	CodeProviderError ErrorCode = "PROVIDER_ERROR"
)

// errorCodeMap maps sentinel errors to their machine-parseable codes.
var errorCodeMap = map[error]ErrorCode{
	ErrNotFound:      CodeNotFound,
	ErrDuplicate:     CodeDuplicate,
	ErrTimeout:       CodeTimeout,
	ErrInvalidInput:  CodeInvalidInput,
	ErrProviderError: CodeProviderError,

	ErrToolNotFound:      CodeToolNotFound,
	ErrRateLimit:         CodeRateLimit,
	ErrAuthInvalid:       CodeAuthInvalid,
	ErrContextOverflow:   CodeContextOverflow,
	ErrSensorRead:        CodeSensorRead,
	ErrWorkerUnavailable: CodeWorkerUnavailable,
	ErrHistoryStore:      CodeHistoryStore,
}

// subSystemCodeMap maps (category sentinel, subsystem) pairs to specific ErrorCodes.
var subSystemCodeMap = map[error]map[string]ErrorCode{
	ErrNotFound: {
		"fish":    CodeSpeciesNotFound,
		"plant":   CodePlantNotFound,
		"worker":  CodeWorkerNotFound,
		"mailbox": CodeMailboxNotFound,
	},
	ErrDuplicate: {
		"worker":  CodeWorkerDuplicate,
		"mailbox": CodeMailboxExists,
	},
	ErrTimeout: {
		"router": CodeCollectTimeout,
	},
	ErrProviderError: {
		"llm": CodeLLMProvider,
	},
}

// ErrorCodeOf returns the machine-parseable error code for the given error.
// It unwraps DomainError and uses errors.Is to match sentinel errors.
// For DomainErrors with a SubSystem, it also checks the subSystemCodeMap
// to resolve category sentinels to specific codes.
// Returns CodeUnknown if no matching sentinel is found.
func ErrorCodeOf(err error) ErrorCode {
	if err == nil {
		return CodeUnknown
	}

	if code, ok := errorCodeMap[err]; ok {
		return code
	}

	var de *DomainError
	if errors.As(err, &de) {
		if code := de.Code(); code != CodeUnknown {
			return code
		}
	}

	for sentinel, code := range errorCodeMap {
		if errors.Is(err, sentinel) {
			return code
		}
	}

	return CodeUnknown
}

// Code returns the ErrorCode for this DomainError's underlying sentinel.
// If SubSystem is set, checks the subSystemCodeMap for a specific code.
func (e *DomainError) Code() ErrorCode {
	if e.SubSystem != "" {
		if subsysMap, ok := subSystemCodeMap[e.Err]; ok {
			if code, ok := subsysMap[e.SubSystem]; ok {
				return code
			}
		}
	}
	if code, ok := errorCodeMap[e.Err]; ok {
		return code
	}
	return CodeUnknown
}
