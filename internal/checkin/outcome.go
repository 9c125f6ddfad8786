package checkin

import "github.com/iliyamo/event-checkin/internal/model"

// OutcomeKind classifies the result of a check-in operation.  Every request
// ends in exactly one kind; none of them is raised as a panic or a bare
// error, so callers can render each distinctly.
type OutcomeKind string

const (
	OutcomeCheckedIn         OutcomeKind = "checked_in"
	OutcomeAlreadyCheckedIn  OutcomeKind = "already_checked_in"
	OutcomeAlreadyCheckedOut OutcomeKind = "already_checked_out"
	OutcomeCheckedOut        OutcomeKind = "checked_out"
	OutcomeNotCheckedInYet   OutcomeKind = "not_checked_in_yet"
	OutcomeMarkedNoShow      OutcomeKind = "marked_no_show"
	OutcomeCancelled         OutcomeKind = "cancelled"
	OutcomeAlreadyCancelled  OutcomeKind = "already_cancelled"
	OutcomeIneligible        OutcomeKind = "ineligible"
	OutcomeEventMismatch     OutcomeKind = "event_mismatch"
	OutcomeMalformed         OutcomeKind = "malformed"
	OutcomeChecksumMismatch  OutcomeKind = "checksum_mismatch"
	OutcomeNotFound          OutcomeKind = "not_found"
	OutcomeSuppressed        OutcomeKind = "suppressed"
	OutcomeStoreUnavailable  OutcomeKind = "store_unavailable"
)

var messages = map[OutcomeKind]string{
	OutcomeCheckedIn:         "checked in",
	OutcomeAlreadyCheckedIn:  "already checked in",
	OutcomeAlreadyCheckedOut: "already checked out",
	OutcomeCheckedOut:        "checked out",
	OutcomeNotCheckedInYet:   "not checked in yet",
	OutcomeMarkedNoShow:      "marked as no-show",
	OutcomeCancelled:         "registration cancelled",
	OutcomeAlreadyCancelled:  "registration already cancelled",
	OutcomeIneligible:        "not allowed in the current state",
	OutcomeEventMismatch:     "wrong event",
	OutcomeMalformed:         "unreadable code",
	OutcomeChecksumMismatch:  "invalid credential",
	OutcomeNotFound:          "unknown participant",
	OutcomeSuppressed:        "duplicate scan ignored",
	OutcomeStoreUnavailable:  "try again",
}

// Outcome is the typed result of every orchestrator operation.
type Outcome struct {
	Kind   OutcomeKind
	Method model.Method

	// Participant is set whenever the reference resolved.
	Participant *model.Participant
	// Record is the check-in state after the operation, when known.
	Record *model.CheckinRecord
	// EventRef is the event the credential or participant belongs to.  For
	// OutcomeEventMismatch it differs from the station's event.
	EventRef string
	// Reason refines OutcomeIneligible.
	Reason string
	// Err carries the cause of OutcomeStoreUnavailable for logs.
	Err error
}

// Message returns the short operator-facing text for the outcome.
func (o Outcome) Message() string {
	if o.Reason != "" {
		return messages[o.Kind] + ": " + o.Reason
	}
	return messages[o.Kind]
}

// Changed reports whether the operation moved the record to a new state.
func (o Outcome) Changed() bool {
	switch o.Kind {
	case OutcomeCheckedIn, OutcomeCheckedOut, OutcomeMarkedNoShow, OutcomeCancelled:
		return true
	}
	return false
}

// Informational reports whether the outcome is a calm "nothing to do"
// answer rather than a failure.
func (o Outcome) Informational() bool {
	switch o.Kind {
	case OutcomeAlreadyCheckedIn, OutcomeAlreadyCheckedOut, OutcomeAlreadyCancelled, OutcomeSuppressed:
		return true
	}
	return false
}

// Retryable reports whether repeating the request may succeed.  Only store
// trouble qualifies; decoding and verification are deterministic.
func (o Outcome) Retryable() bool { return o.Kind == OutcomeStoreUnavailable }
