package httpx

import (
	"context"
	"encoding/json"
	"maps"
	"net/http"
	"strings"
	"unicode"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/orderdesk/api/internal/platform/requestctx"
)

const (
	maxCodeLength    = 80
	maxMessageLength = 512
	maxIDLength      = 80
)

// Error is the JSON error envelope every handler returns on failure. Values
// are immutable once built; WithDetails returns a copy.
type Error struct {
	code    string
	message string
	status  int
	details map[string]any
}

// NewError builds an error envelope. Out-of-range statuses collapse to 500.
func NewError(code, message string, status int) Error {
	if status < http.StatusContinue || status > 599 {
		status = http.StatusInternalServerError
	}
	return Error{
		code:    clean(code, maxCodeLength),
		message: clean(message, maxMessageLength),
		status:  status,
	}
}

// WithDetails returns a copy carrying extra top-level response fields, such
// as the offending field name on validation failures.
func (e Error) WithDetails(details map[string]any) Error {
	if len(details) == 0 {
		return e
	}
	e.details = maps.Clone(details)
	return e
}

// WriteError renders the envelope as JSON. Request and trace identifiers are
// taken from the context so handlers never thread them explicitly.
func WriteError(ctx context.Context, w http.ResponseWriter, err Error) {
	status := err.status
	if status == 0 {
		status = http.StatusInternalServerError
	}

	body := make(map[string]any, len(err.details)+5)
	maps.Copy(body, err.details)
	body["error"] = err.code
	body["message"] = err.message
	body["status"] = status
	if id := clean(middleware.GetReqID(ctx), maxIDLength); id != "" {
		body["request_id"] = id
	}
	if id := clean(requestctx.TraceID(ctx), maxIDLength); id != "" {
		body["trace_id"] = id
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// clean strips control characters and truncates, keeping log and response
// lines single-line even when messages embed user input.
func clean(value string, limit int) string {
	value = strings.TrimSpace(strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, value))
	if len(value) > limit {
		value = value[:limit]
	}
	return value
}
