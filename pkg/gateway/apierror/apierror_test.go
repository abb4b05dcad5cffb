package apierror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/warmline/warmline/pkg/core"
)

func TestFromErrorNil(t *testing.T) {
	coreErr, status := FromError(nil, "req_1")
	if coreErr != nil || status != http.StatusOK {
		t.Fatalf("FromError(nil) = %v, %d", coreErr, status)
	}
}

func TestFromErrorContext(t *testing.T) {
	coreErr, status := FromError(context.DeadlineExceeded, "req_1")
	if status != http.StatusGatewayTimeout || coreErr.Type != core.ErrAPI {
		t.Fatalf("deadline: %v, %d", coreErr, status)
	}

	coreErr, status = FromError(fmt.Errorf("wrapped: %w", context.Canceled), "req_1")
	if status != http.StatusRequestTimeout || coreErr.Code != "cancelled" {
		t.Fatalf("canceled: %v, %d", coreErr, status)
	}
}

func TestFromErrorSanitizesAdapterError(t *testing.T) {
	cause := errors.New("dial tcp 10.0.0.9:443: connection refused")
	coreErr, status := FromError(core.NewAdapterError("remove_participant", cause), "req_9")

	if status != http.StatusBadGateway {
		t.Fatalf("status = %d", status)
	}
	if coreErr.Message != "room service request failed" {
		t.Fatalf("message %q leaks transport detail", coreErr.Message)
	}
	if coreErr.Op != "remove_participant" {
		t.Fatalf("op = %q", coreErr.Op)
	}
	if coreErr.RequestID != "req_9" {
		t.Fatalf("request id = %q", coreErr.RequestID)
	}
}

func TestFromErrorSanitizesInitFailure(t *testing.T) {
	coreErr, status := FromError(core.NewInitFailureError("room-1", errors.New("token signing key corrupt")), "req_2")
	if status != http.StatusBadGateway || coreErr.Message != "agent failed to start" {
		t.Fatalf("got %v, %d", coreErr, status)
	}
}

func TestFromErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{core.NewInvalidRequestError("bad"), http.StatusBadRequest},
		{core.NewAuthenticationError("missing key"), http.StatusUnauthorized},
		{core.NewNotFoundError("no such record"), http.StatusNotFound},
		{core.NewNoActiveAgentError("room-1"), http.StatusNotFound},
		{core.NewConfigDegradedError("summarization"), http.StatusServiceUnavailable},
		{errors.New("mystery"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		_, status := FromError(tc.err, "req")
		if status != tc.status {
			t.Errorf("FromError(%v) status = %d, want %d", tc.err, status, tc.status)
		}
	}
}

func TestFromErrorUnknownHidesDetails(t *testing.T) {
	coreErr, _ := FromError(errors.New("pq: password authentication failed"), "req")
	if coreErr.Message != "internal error" {
		t.Fatalf("message = %q", coreErr.Message)
	}
}
