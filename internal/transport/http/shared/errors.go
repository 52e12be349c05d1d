package shared

import (
	"errors"
	"log/slog"
	"net/http"

	"staffeval/internal/domain/records"
	"staffeval/internal/domain/reports"
	"staffeval/internal/domain/session"
	"staffeval/internal/transport/http/api"
	"staffeval/internal/transport/http/middleware"
)

type failure struct {
	status  int
	code    string
	message string
}

var knownFailures = []struct {
	err error
	failure
}{
	{records.ErrNotConfirmed, failure{http.StatusPreconditionRequired, "confirmation_required", "confirmation required"}},
	{records.ErrNotFound, failure{http.StatusNotFound, "not_found", "record not found"}},
	{records.ErrInvalidBundle, failure{http.StatusBadRequest, "invalid_bundle", "invalid backup bundle"}},
	{session.ErrNoRecord, failure{http.StatusNotFound, "no_record", "no record for the selected staff"}},
	{session.ErrInvalidTransition, failure{http.StatusConflict, "invalid_transition", "operation not allowed in the current mode"}},
	{session.ErrUnknownCategory, failure{http.StatusBadRequest, "unknown_category", "unknown category"}},
	{session.ErrPrintUnavailable, failure{http.StatusServiceUnavailable, "print_unavailable", "printing is not configured"}},
	{reports.ErrNothingToPrint, failure{http.StatusUnprocessableEntity, "nothing_to_print", "nothing to print"}},
}

// FailError maps a domain error onto the response envelope. Unknown errors
// are logged and reported as a failed operation named by op.
func FailError(w http.ResponseWriter, r *http.Request, op string, err error) {
	reqID := middleware.GetRequestID(r.Context())
	for _, known := range knownFailures {
		if errors.Is(err, known.err) {
			api.Fail(w, known.status, known.code, known.message, reqID)
			return
		}
	}
	slog.Warn(op+" failed", "err", err, "requestId", reqID)
	api.Fail(w, http.StatusInternalServerError, op+"_failed", "operation failed", reqID)
}

// NotApplied reports a mutation the session refused to apply.
func NotApplied(w http.ResponseWriter, r *http.Request, message string) {
	api.Fail(w, http.StatusUnprocessableEntity, "not_applied", message, middleware.GetRequestID(r.Context()))
}
