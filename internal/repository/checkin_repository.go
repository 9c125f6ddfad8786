package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/event-checkin/internal/model"
)

// CheckinRepo is the only component that touches checkin_records.  Every
// state change goes through Transition, a single conditional UPDATE whose
// affected-row count tells the caller whether it won.  Two stations racing
// on the same participant therefore cannot both succeed, whatever the
// interleaving.
//
// A participant without a row is not_checked_in.  Transition and SetFlag
// insert that row on demand with an insert-if-absent statement before
// applying their guarded update.
type CheckinRepo struct {
	db      *sql.DB
	dialect Dialect
}

// NewCheckinRepo returns a CheckinRepo bound to db using the given dialect.
func NewCheckinRepo(db *sql.DB, dialect Dialect) *CheckinRepo {
	return &CheckinRepo{db: db, dialect: dialect}
}

// DB exposes the underlying handle for readiness checks.
func (r *CheckinRepo) DB() *sql.DB { return r.db }

const checkinColumns = `participant_ref, event_ref, status, method, checked_in_at, checked_out_at,
	badge_printed, materials_provided, updated_at`

// Get returns the record for (participantRef, eventRef).  A missing row is
// reported as a zero record with status not_checked_in, not as an error.
func (r *CheckinRepo) Get(ctx context.Context, participantRef, eventRef string) (model.CheckinRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+checkinColumns+` FROM checkin_records WHERE participant_ref = ? AND event_ref = ? LIMIT 1`,
		participantRef, eventRef)
	rec, err := scanCheckin(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.CheckinRecord{
			ParticipantRef: participantRef,
			EventRef:       eventRef,
			Status:         model.StatusNotCheckedIn,
		}, nil
	}
	if err != nil {
		return model.CheckinRecord{}, unavailable("get checkin", err)
	}
	return rec, nil
}

// ListByEvent returns every materialized record of an event.  Participants
// that were never touched have no row and are not returned.
func (r *CheckinRepo) ListByEvent(ctx context.Context, eventRef string) ([]model.CheckinRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+checkinColumns+` FROM checkin_records WHERE event_ref = ? ORDER BY participant_ref`,
		eventRef)
	if err != nil {
		return nil, unavailable("list checkins", err)
	}
	defer rows.Close()
	var out []model.CheckinRecord
	for rows.Next() {
		rec, err := scanCheckin(rows)
		if err != nil {
			return nil, unavailable("scan checkin", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list checkins", err)
	}
	return out, nil
}

// Transition applies t as one conditional update.  It returns true when the
// row moved from one of t.From to t.To, and false when the guard did not
// hold (someone else got there first, or the state does not allow it).  The
// caller reads the record afterwards to learn which.
func (r *CheckinRepo) Transition(ctx context.Context, t model.Transition) (bool, error) {
	if len(t.From) == 0 || !t.To.Valid() {
		return false, errors.New("transition: invalid guard")
	}
	at := t.At.UTC()
	if err := r.ensureRow(ctx, t.ParticipantRef, t.EventRef, at); err != nil {
		return false, err
	}

	set := []string{"status = ?", "updated_at = ?"}
	args := []interface{}{string(t.To), at}
	switch t.To {
	case model.StatusCheckedIn:
		set = append(set, "method = ?", "checked_in_at = ?")
		args = append(args, string(t.Method), at)
	case model.StatusCheckedOut:
		set = append(set, "checked_out_at = ?")
		args = append(args, at)
	case model.StatusCancelled:
		// checked_in_at is set iff the participant is checked in or out
		set = append(set, "checked_in_at = NULL", "checked_out_at = NULL")
	}
	args = append(args, t.ParticipantRef, t.EventRef)
	for _, s := range t.From {
		args = append(args, string(s))
	}

	q := `UPDATE checkin_records SET ` + strings.Join(set, ", ") +
		` WHERE participant_ref = ? AND event_ref = ? AND status IN (` + placeholders(len(t.From)) + `)`
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return false, unavailable("transition", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, unavailable("transition", err)
	}
	return n == 1, nil
}

// SetFlag sets one of the side flags.  Flags are independent of the status
// and can be written in any state.
func (r *CheckinRepo) SetFlag(ctx context.Context, participantRef, eventRef string, flag model.Flag, value bool, at time.Time) error {
	var col string
	switch flag {
	case model.FlagBadgePrinted:
		col = "badge_printed"
	case model.FlagMaterialsProvided:
		col = "materials_provided"
	default:
		return errors.New("set flag: unknown flag " + string(flag))
	}
	at = at.UTC()
	if err := r.ensureRow(ctx, participantRef, eventRef, at); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE checkin_records SET `+col+` = ?, updated_at = ? WHERE participant_ref = ? AND event_ref = ?`,
		value, at, participantRef, eventRef)
	if err != nil {
		return unavailable("set flag", err)
	}
	return nil
}

// MarkNoShows materializes rows for every given participant and moves all
// not_checked_in rows of the event to no_show in one statement.  It returns
// how many rows changed.  The work runs in a transaction so a failure leaves
// no half-marked event behind.
func (r *CheckinRepo) MarkNoShows(ctx context.Context, eventRef string, participantRefs []string, at time.Time) (int64, error) {
	at = at.UTC()
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, unavailable("mark no-shows", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const batch = 200
	for start := 0; start < len(participantRefs); start += batch {
		end := start + batch
		if end > len(participantRefs) {
			end = len(participantRefs)
		}
		chunk := participantRefs[start:end]
		q := r.dialect.insertIgnore() + ` checkin_records (participant_ref, event_ref, status, updated_at) VALUES `
		args := make([]interface{}, 0, len(chunk)*4)
		for i, ref := range chunk {
			if i > 0 {
				q += ","
			}
			q += "(?, ?, ?, ?)"
			args = append(args, ref, eventRef, string(model.StatusNotCheckedIn), at)
		}
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return 0, unavailable("mark no-shows", err)
		}
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE checkin_records SET status = ?, updated_at = ? WHERE event_ref = ? AND status = ?`,
		string(model.StatusNoShow), at, eventRef, string(model.StatusNotCheckedIn))
	if err != nil {
		return 0, unavailable("mark no-shows", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, unavailable("mark no-shows", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, unavailable("mark no-shows", err)
	}
	committed = true
	return n, nil
}

// ensureRow inserts a not_checked_in row unless one exists.  Concurrent
// callers are safe: the unique key on (participant_ref, event_ref) makes all
// but one insert a no-op.
func (r *CheckinRepo) ensureRow(ctx context.Context, participantRef, eventRef string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		r.dialect.insertIgnore()+` checkin_records (participant_ref, event_ref, status, updated_at) VALUES (?, ?, ?, ?)`,
		participantRef, eventRef, string(model.StatusNotCheckedIn), at)
	if err != nil && !r.dialect.isDuplicateKey(err) {
		return unavailable("ensure checkin row", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCheckin(s rowScanner) (model.CheckinRecord, error) {
	var (
		rec    model.CheckinRecord
		status string
		method sql.NullString
		inAt   sql.NullTime
		outAt  sql.NullTime
	)
	if err := s.Scan(&rec.ParticipantRef, &rec.EventRef, &status, &method, &inAt, &outAt,
		&rec.BadgePrinted, &rec.MaterialsProvided, &rec.UpdatedAt); err != nil {
		return model.CheckinRecord{}, err
	}
	rec.Status = model.Status(status)
	rec.Method = model.Method(method.String)
	if inAt.Valid {
		t := inAt.Time.UTC()
		rec.CheckedInAt = &t
	}
	if outAt.Valid {
		t := outAt.Time.UTC()
		rec.CheckedOutAt = &t
	}
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	return rec, nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
