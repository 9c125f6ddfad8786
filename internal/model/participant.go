package model

import "time"

// Participant is the slice of the roster this service reads.  The roster
// itself (registration forms, categories, contact data) is owned by the back
// office; only the credential marker columns are written here.
type Participant struct {
    Ref                string     // participants.id
    EventRef           string     // participants.event_id
    DisplayName        string     // participants.display_name
    Category           string     // participants.category (e.g. attendee, speaker, sponsor)
    CredentialChecksum string     // participants.credential_checksum; empty until issued
    CredentialIssuedAt *time.Time // participants.credential_issued_at (nullable)
}

// HasCredential reports whether bulk issuance has already covered p.
func (p Participant) HasCredential() bool { return p.CredentialChecksum != "" }

// Event is the read-only view of an event record.
type Event struct {
    Ref    string     // events.id
    Name   string     // events.name
    EndsAt *time.Time // events.ends_at (nullable while the schedule is open)
}

// Ended reports whether the event is over at instant now.  Events without an
// end time never count as ended.
func (e Event) Ended(now time.Time) bool {
    return e.EndsAt != nil && !now.Before(*e.EndsAt)
}
