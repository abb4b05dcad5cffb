package apierror

import (
	"context"
	"errors"
	"net/http"

	"github.com/warmline/warmline/pkg/core"
)

type Envelope struct {
	Error *core.Error `json:"error"`
}

func FromError(err error, requestID string) (*core.Error, int) {
	if err == nil {
		return nil, http.StatusOK
	}

	// Context timeouts/cancellation.
	if errors.Is(err, context.DeadlineExceeded) {
		return &core.Error{
			Type:      core.ErrAPI,
			Message:   "request timeout",
			RequestID: requestID,
		}, http.StatusGatewayTimeout
	}
	if errors.Is(err, context.Canceled) {
		return &core.Error{
			Type:      core.ErrAPI,
			Message:   "request cancelled",
			Code:      "cancelled",
			RequestID: requestID,
		}, http.StatusRequestTimeout
	}

	// Already canonical.
	var coreErr *core.Error
	if errors.As(err, &coreErr) && coreErr != nil {
		out := *coreErr
		out.RequestID = requestID
		// Transport and initialization details stay server-side; the
		// caller only learns that the operation failed.
		switch out.Type {
		case core.ErrAdapter:
			out.Message = "room service request failed"
		case core.ErrInitFailure:
			out.Message = "agent failed to start"
		}
		return &out, statusFromType(coreErr.Type)
	}

	// Unknown errors: treat as internal API error (do not leak details by default).
	return &core.Error{
		Type:      core.ErrAPI,
		Message:   "internal error",
		RequestID: requestID,
	}, http.StatusInternalServerError
}

func statusFromType(t core.ErrorType) int {
	switch t {
	case core.ErrInvalidRequest:
		return http.StatusBadRequest
	case core.ErrAuthentication:
		return http.StatusUnauthorized
	case core.ErrNotFound, core.ErrNoActiveAgent:
		return http.StatusNotFound
	case core.ErrConfigDegraded:
		return http.StatusServiceUnavailable
	case core.ErrAdapter, core.ErrInitFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
