// Package queue defines the messages published on the broker and the
// consumer that appends them to the check-in audit log.
package queue

// Queue names.  Both queues are durable.
const (
    TransitionQueue = "checkin.transitions"
    RejectionQueue  = "checkin.rejections"
)

// TransitionEvent is published after a check-in record changes state.  It
// contains enough information for downstream consumers (audit log, badge
// printers, dashboards) to act without querying the primary database.
type TransitionEvent struct {
    ID             string `json:"id"`
    ParticipantRef string `json:"participant_ref"`
    EventRef       string `json:"event_ref"`
    DisplayName    string `json:"display_name,omitempty"`
    Category       string `json:"category,omitempty"`
    To             string `json:"to"`
    Method         string `json:"method,omitempty"`
    Station        string `json:"station,omitempty"`
    OccurredAt     string `json:"occurred_at"`
}

// RejectionEvent is published when a scanned credential fails integrity
// verification.  The refs are the ones the credential claims and must not
// be trusted.
type RejectionEvent struct {
    ID                    string `json:"id"`
    StationEventRef       string `json:"station_event_ref"`
    ClaimedParticipantRef string `json:"claimed_participant_ref"`
    ClaimedEventRef       string `json:"claimed_event_ref"`
    Reason                string `json:"reason"`
    Station               string `json:"station,omitempty"`
    OccurredAt            string `json:"occurred_at"`
}
