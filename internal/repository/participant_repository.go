package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/event-checkin/internal/model"
)

// ParticipantRepo reads the event roster owned by the back office.  The only
// columns it writes are the credential marker (credential_checksum,
// credential_issued_at), and only through MarkCredentialIssued.
type ParticipantRepo struct {
	db *sql.DB
}

// NewParticipantRepo returns a ParticipantRepo bound to db.
func NewParticipantRepo(db *sql.DB) *ParticipantRepo { return &ParticipantRepo{db: db} }

const participantColumns = `id, event_id, display_name, category, credential_checksum, credential_issued_at`

// ResolveParticipant fetches a participant by reference.  It returns
// ErrParticipantNotFound when the reference does not resolve, which is also
// how revoked credentials (deleted participants) surface.
func (r *ParticipantRepo) ResolveParticipant(ctx context.Context, participantRef string) (model.Participant, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+participantColumns+` FROM participants WHERE id = ? LIMIT 1`, participantRef)
	p, err := scanParticipant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Participant{}, ErrParticipantNotFound
	}
	if err != nil {
		return model.Participant{}, unavailable("resolve participant", err)
	}
	return p, nil
}

// ListParticipants returns the whole roster of an event ordered by id.
func (r *ParticipantRepo) ListParticipants(ctx context.Context, eventRef string) ([]model.Participant, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+participantColumns+` FROM participants WHERE event_id = ? ORDER BY id`, eventRef)
	if err != nil {
		return nil, unavailable("list participants", err)
	}
	defer rows.Close()
	var out []model.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, unavailable("scan participant", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list participants", err)
	}
	return out, nil
}

// ExpectedCount returns the roster size of an event, the denominator of the
// attendance rates.
func (r *ParticipantRepo) ExpectedCount(ctx context.Context, eventRef string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM participants WHERE event_id = ?`, eventRef).Scan(&n); err != nil {
		return 0, unavailable("count participants", err)
	}
	return n, nil
}

// MarkCredentialIssued stores the credential marker unless one is already
// present.  It returns false when another issuance run got there first, so
// re-running bulk issuance never overwrites a checksum.
func (r *ParticipantRepo) MarkCredentialIssued(ctx context.Context, participantRef, checksum string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE participants SET credential_checksum = ?, credential_issued_at = ?
		 WHERE id = ? AND credential_checksum IS NULL`,
		checksum, at.UTC(), participantRef)
	if err != nil {
		return false, unavailable("mark credential", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, unavailable("mark credential", err)
	}
	return n == 1, nil
}

// Event fetches the read-only event view.
func (r *ParticipantRepo) Event(ctx context.Context, eventRef string) (model.Event, error) {
	var (
		e      model.Event
		endsAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, ends_at FROM events WHERE id = ? LIMIT 1`, eventRef).Scan(&e.Ref, &e.Name, &endsAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, ErrEventNotFound
	}
	if err != nil {
		return model.Event{}, unavailable("get event", err)
	}
	if endsAt.Valid {
		t := endsAt.Time.UTC()
		e.EndsAt = &t
	}
	return e, nil
}

func scanParticipant(s rowScanner) (model.Participant, error) {
	var (
		p        model.Participant
		checksum sql.NullString
		issuedAt sql.NullTime
	)
	if err := s.Scan(&p.Ref, &p.EventRef, &p.DisplayName, &p.Category, &checksum, &issuedAt); err != nil {
		return model.Participant{}, err
	}
	p.CredentialChecksum = checksum.String
	if issuedAt.Valid {
		t := issuedAt.Time.UTC()
		p.CredentialIssuedAt = &t
	}
	return p, nil
}
