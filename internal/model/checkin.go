package model

import "time"

// Status is the attendance state of one participant for one event.  It is
// stored verbatim in checkin_records.status.
type Status string

const (
    StatusNotCheckedIn Status = "not_checked_in"
    StatusCheckedIn    Status = "checked_in"
    StatusCheckedOut   Status = "checked_out"
    StatusNoShow       Status = "no_show"
    StatusCancelled    Status = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
    switch s {
    case StatusNotCheckedIn, StatusCheckedIn, StatusCheckedOut, StatusNoShow, StatusCancelled:
        return true
    }
    return false
}

// Attended reports whether the participant has passed the entry point at
// some point, i.e. whether checked_in_at must be set.
func (s Status) Attended() bool {
    return s == StatusCheckedIn || s == StatusCheckedOut
}

// Method records how a participant was checked in.
type Method string

const (
    MethodScan   Method = "scan"
    MethodManual Method = "manual"
)

// Valid reports whether m is a known check-in method.
func (m Method) Valid() bool { return m == MethodScan || m == MethodManual }

// Flag names one of the side flags of a check-in record.  Flags are not
// part of the state machine and may be toggled in any status.
type Flag string

const (
    FlagBadgePrinted      Flag = "badge_printed"
    FlagMaterialsProvided Flag = "materials_provided"
)

// CheckinRecord mirrors one row of the `checkin_records` table.  There is at
// most one row per (participant, event).  A participant without a row is
// considered not_checked_in; the store adapter returns a zero record with
// that status instead of an error.
//
// Fields:
//  ParticipantRef    – opaque participant identifier (immutable).
//  EventRef          – opaque event identifier (immutable).
//  Status            – current state in the check-in state machine.
//  Method            – scan or manual; empty until the first check-in.
//  CheckedInAt       – set exactly once, on the transition into checked_in.
//  CheckedOutAt      – set at most once, on the transition into checked_out.
//  BadgePrinted      – side flag.
//  MaterialsProvided – side flag.
//  UpdatedAt         – last modification; zero for rows that do not exist yet.
type CheckinRecord struct {
    ParticipantRef    string     // checkin_records.participant_ref
    EventRef          string     // checkin_records.event_ref
    Status            Status     // checkin_records.status
    Method            Method     // checkin_records.method (nullable)
    CheckedInAt       *time.Time // checkin_records.checked_in_at (nullable)
    CheckedOutAt      *time.Time // checkin_records.checked_out_at (nullable)
    BadgePrinted      bool       // checkin_records.badge_printed
    MaterialsProvided bool       // checkin_records.materials_provided
    UpdatedAt         time.Time  // checkin_records.updated_at
}

// Transition describes a single conditional state change.  The store applies
// it atomically: the row moves to To only if its current status is one of
// From.  Method is written when To is checked_in; At becomes checked_in_at or
// checked_out_at depending on To.
type Transition struct {
    ParticipantRef string
    EventRef       string
    From           []Status
    To             Status
    Method         Method
    At             time.Time
}
