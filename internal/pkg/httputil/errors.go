package httputil

import (
	"context"
	"errors"
	"net/http"

	"github.com/tracepoint-io/tracepoint/internal/pkg/ctxlog"
	"github.com/tracepoint-io/tracepoint/internal/pkg/postgres"
)

// ErrorMapping defines how a domain error maps to an HTTP response.
type ErrorMapping struct {
	Error   error
	Status  int
	Code    string
	Message string // if empty, uses err.Error()
}

// HandleError maps a domain error to an HTTP response using provided mappings.
// Database unavailability always maps to 503; anything unmapped is logged and
// returned as an opaque 500 so internal details never reach the caller.
func HandleError(ctx context.Context, w http.ResponseWriter, err error, mappings []ErrorMapping) {
	for _, m := range mappings {
		if errors.Is(err, m.Error) {
			msg := m.Message
			if msg == "" {
				msg = err.Error()
			}
			Error(w, m.Status, m.Code, msg)
			return
		}
	}

	if errors.Is(err, postgres.ErrUnavailable) {
		ctxlog.FromContext(ctx).Error("database unavailable", "error", err)
		Error(w, http.StatusServiceUnavailable, CodeServiceUnavailable,
			"Database temporarily unavailable. Please try again.")
		return
	}

	ctxlog.FromContext(ctx).Error("internal error", "error", err)
	Error(w, http.StatusInternalServerError, CodeInternalError, "Internal server error")
}
