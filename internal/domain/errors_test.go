package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainErrorFormat(t *testing.T) {
	err := NewDomainError("Tool.Execute", ErrToolNotFound, "tool 'foo'")
	want := "Tool.Execute: tool 'foo': tool not found"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestDomainErrorFormatNoDetail(t *testing.T) {
	err := NewDomainError("Sensor.Read", ErrSensorRead, "")
	want := "Sensor.Read: sensor read failed"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestDomainErrorUnwrap(t *testing.T) {
	err := NewSubSystemError("fish", "FishAdvisor.SpeciesInfo", ErrNotFound, "Species 'koi' not found in database")
	if !errors.Is(err, ErrNotFound) {
		t.Error("errors.Is should match ErrNotFound")
	}
	var de *DomainError
	if !errors.As(err, &de) {
		t.Fatal("errors.As should match *DomainError")
	}
	if de.SubSystem != "fish" {
		t.Errorf("SubSystem = %q, want fish", de.SubSystem)
	}
}

func TestWrapOp(t *testing.T) {
	assert.NoError(t, WrapOp("op", nil))

	err := WrapOp("Orchestrator.Ask", ErrRateLimit)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimit)
	assert.Equal(t, "Orchestrator.Ask: rate limit exceeded", err.Error())
}

func TestIsRetryableError(t *testing.T) {
	assert.True(t, IsRetryableError(fmt.Errorf("chat: %w", ErrRateLimit)))
	assert.True(t, IsRetryableError(NewDomainError("Source.Read", ErrSensorRead, "")))
	assert.False(t, IsRetryableError(ErrNotFound))
	assert.False(t, IsRetryableError(ErrContextOverflow))
	assert.False(t, IsRetryableError(nil))
}

func TestErrorCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"nil", nil, CodeUnknown},
		{"direct sentinel", ErrSensorRead, CodeSensorRead},
		{"wrapped sentinel", fmt.Errorf("ctx: %w", ErrWorkerUnavailable), CodeWorkerUnavailable},
		{"domain error", NewDomainError("Registry.Get", ErrToolNotFound, "x"), CodeToolNotFound},
		{"fish subsystem", NewSubSystemError("fish", "op", ErrNotFound, ""), CodeSpeciesNotFound},
		{"plant subsystem", NewSubSystemError("plant", "op", ErrNotFound, ""), CodePlantNotFound},
		{"worker duplicate", NewSubSystemError("worker", "op", ErrDuplicate, ""), CodeWorkerDuplicate},
		{"unmapped subsystem falls back", NewSubSystemError("other", "op", ErrNotFound, ""), CodeNotFound},
		{"wrapped subsystem", fmt.Errorf("x: %w", NewSubSystemError("router", "op", ErrTimeout, "")), CodeCollectTimeout},
		{"unknown", fmt.Errorf("random"), CodeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorCodeOf(tt.err))
		})
	}
}

func TestDomainError_CodeUnknownSentinel(t *testing.T) {
	err := NewDomainError("Op", fmt.Errorf("custom"), "detail")
	assert.Equal(t, CodeUnknown, err.Code())
}
