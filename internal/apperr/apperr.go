// Package apperr defines the error taxonomy shared by the conversation,
// message and moderation services. Callers match with errors.Is; wrapped
// errors keep the sentinel as their cause.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidParticipants is returned when a user tries to talk to themselves
	// or addresses a message to someone outside the conversation.
	ErrInvalidParticipants = errors.New("invalid participants")
	// ErrForbidden covers non-participants and callers without reviewer rights.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound is returned when a conversation, report, user or product id does not resolve.
	ErrNotFound = errors.New("not found")
	// ErrInvalidReason is returned for report reasons outside the known set.
	ErrInvalidReason = errors.New("invalid report reason")
	// ErrInvalidAction is returned for enforcement actions outside the known set.
	ErrInvalidAction = errors.New("invalid moderation action")
	// ErrInvalidInput covers other user-correctable validation failures.
	ErrInvalidInput = errors.New("invalid input")
	// ErrAlreadyProcessed is returned when resolving a report that left pending.
	ErrAlreadyProcessed = errors.New("report already processed")
	// ErrStoreConflict signals a uniqueness violation. Only the conversation
	// registry recovers from it; it is never surfaced to API callers.
	ErrStoreConflict = errors.New("store uniqueness conflict")
	// ErrUnavailable signals that the backing store could not be reached.
	ErrUnavailable = errors.New("store unavailable")
)

// HTTPStatus maps an error from the core onto a response status code.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidParticipants),
		errors.Is(err, ErrInvalidReason),
		errors.Is(err, ErrInvalidAction),
		errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyProcessed):
		return http.StatusConflict
	case errors.Is(err, ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// public lists the sentinels whose text may reach an end user, in match order.
var public = []error{
	ErrInvalidParticipants,
	ErrInvalidReason,
	ErrInvalidAction,
	ErrInvalidInput,
	ErrForbidden,
	ErrNotFound,
	ErrAlreadyProcessed,
}

// detailError pairs a sentinel with caller-facing detail. Wrapping it further
// keeps the detail reachable through errors.As.
type detailError struct {
	kind   error
	detail string
}

func (e *detailError) Error() string { return e.kind.Error() + ": " + e.detail }
func (e *detailError) Unwrap() error { return e.kind }

// Newf builds an error matching kind whose formatted detail is shown to the
// caller verbatim. Use it only for text the user can act on.
func Newf(kind error, format string, args ...any) error {
	return &detailError{kind: kind, detail: fmt.Sprintf(format, args...)}
}

// PublicMessage returns the text safe to show an end user. Internal failures
// collapse to a generic message; everything else is reduced to the sentinel
// text plus any detail built with Newf, so wrap context never leaks.
func PublicMessage(err error) string {
	switch HTTPStatus(err) {
	case http.StatusInternalServerError:
		return "internal error"
	case http.StatusServiceUnavailable:
		return "service temporarily unavailable, retry later"
	}
	var d *detailError
	if errors.As(err, &d) {
		return d.Error()
	}
	for _, s := range public {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}
