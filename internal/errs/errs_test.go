package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind Kind
	}{
		{"not found", NotFound("project not found"), KindNotFound},
		{"forbidden", Forbidden("not the owner"), KindForbidden},
		{"conflict", Conflict("duplicate"), KindConflict},
		{"validation", Validation("bad input"), KindValidation},
		{"upstream", Upstream("store failed", errors.New("timeout")), KindUpstream},
		{"untyped", errors.New("boom"), KindUnknown},
		{"nil", nil, KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.kind {
				t.Errorf("KindOf() = %v, expected %v", got, tt.kind)
			}
		})
	}
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("while approving: %w", Conflict("already approved"))
	if KindOf(err) != KindConflict {
		t.Errorf("Expected wrapped error to keep its kind")
	}
}

func TestMessageOf(t *testing.T) {
	if got := MessageOf(NotFound("project not found")); got != "project not found" {
		t.Errorf("MessageOf() = %q", got)
	}

	// Untyped errors must not leak internals to clients.
	if got := MessageOf(errors.New("dial tcp: connection refused")); got != "internal server error" {
		t.Errorf("MessageOf() = %q", got)
	}
}

func TestUpstreamKeepsCauseOutOfMessage(t *testing.T) {
	cause := errors.New("dial tcp 10.0.0.1: i/o timeout")
	err := Upstream("failed to list projects", cause)

	if MessageOf(err) != "failed to list projects" {
		t.Errorf("Client message must not include the cause, got %q", MessageOf(err))
	}
	if !errors.Is(err, cause) {
		t.Error("Cause must stay reachable for logs via errors.Is")
	}
}
