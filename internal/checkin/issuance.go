package checkin

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/event-checkin/internal/credential"
)

// ErrNotIssued is returned by CredentialFor for participants that bulk
// issuance has not covered yet.
var ErrNotIssued = errors.New("credential not issued")

// Issuer issues credentials for the roster of an event.
type Issuer struct {
	roster   Roster
	verifier *credential.Verifier
	log      logrus.FieldLogger
	now      func() time.Time
}

// NewIssuer shares the verifier (and so the secret) with the Service.
func NewIssuer(roster Roster, verifier *credential.Verifier, log logrus.FieldLogger, clock func() time.Time) *Issuer {
	if clock == nil {
		clock = time.Now
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Issuer{roster: roster, verifier: verifier, log: log, now: clock}
}

// IssueForEvent stores a checksum for every participant of eventRef that
// has none and returns how many were newly issued.  Re-running it is a
// no-op for participants already covered, including ones issued
// concurrently by another process.
func (i *Issuer) IssueForEvent(ctx context.Context, eventRef string) (int, error) {
	if eventRef == "" {
		return 0, ErrInvalidRef
	}
	if _, err := i.roster.Event(ctx, eventRef); err != nil {
		return 0, err
	}
	participants, err := i.roster.ListParticipants(ctx, eventRef)
	if err != nil {
		return 0, err
	}
	issued := 0
	at := i.now().UTC()
	for _, p := range participants {
		if p.HasCredential() {
			continue
		}
		ok, err := i.roster.MarkCredentialIssued(ctx, p.Ref, i.verifier.Sign(p.Ref, eventRef), at)
		if err != nil {
			return issued, err
		}
		if ok {
			issued++
		}
	}
	i.log.WithFields(logrus.Fields{"event": eventRef, "issued": issued, "roster": len(participants)}).
		Info("credentials issued")
	return issued, nil
}

// CredentialFor returns the scannable text of an issued participant.
func (i *Issuer) CredentialFor(ctx context.Context, participantRef string) (string, error) {
	if participantRef == "" {
		return "", ErrInvalidRef
	}
	p, err := i.roster.ResolveParticipant(ctx, participantRef)
	if err != nil {
		return "", err
	}
	if !p.HasCredential() {
		return "", ErrNotIssued
	}
	return credential.Encode(credential.Credential{
		ParticipantRef: p.Ref,
		EventRef:       p.EventRef,
		Checksum:       p.CredentialChecksum,
	}), nil
}
