package core

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestAdapterErrorCarriesOpAndCause(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("dial tcp: connection refused")
	err := NewAdapterError("remove_participant", cause)

	if err.Type != ErrAdapter {
		t.Fatalf("type = %q, want %q", err.Type, ErrAdapter)
	}
	if err.Op != "remove_participant" {
		t.Fatalf("op = %q", err.Op)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected errors.Is to find the cause")
	}
	if !strings.Contains(err.Error(), "remove_participant") {
		t.Fatalf("Error() = %q, want op included", err.Error())
	}
}

func TestErrorsAsRecoversCanonicalError(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("say failed: %w", NewNoActiveAgentError("room-9"))

	var coreErr *Error
	if !errors.As(wrapped, &coreErr) {
		t.Fatalf("errors.As failed")
	}
	if coreErr.Type != ErrNoActiveAgent {
		t.Fatalf("type = %q", coreErr.Type)
	}
	if !strings.Contains(coreErr.Message, "room-9") {
		t.Fatalf("message = %q", coreErr.Message)
	}
}

func TestConfigDegradedNamesDependency(t *testing.T) {
	t.Parallel()

	err := NewConfigDegradedError("summarization")
	if err.Type != ErrConfigDegraded {
		t.Fatalf("type = %q", err.Type)
	}
	if err.Param != "summarization" {
		t.Fatalf("param = %q", err.Param)
	}
}
