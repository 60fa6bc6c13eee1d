package domain

import (
	"context"
	"testing"
)

func TestRequestIDContext(t *testing.T) {
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Errorf("empty context: got %q", got)
	}
	ctx := ContextWithRequestID(context.Background(), "01HX")
	if got := RequestIDFromContext(ctx); got != "01HX" {
		t.Errorf("got %q, want 01HX", got)
	}
}
