package repository

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-checkin/internal/database"
)

var t0 = time.Date(2026, 6, 12, 8, 30, 0, 0, time.UTC)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seedEvent(t *testing.T, db *sql.DB, id string, endsAt *time.Time) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO events (id, name, ends_at) VALUES (?, ?, ?)`, id, "Event "+id, endsAt)
	require.NoError(t, err)
}

func seedParticipant(t *testing.T, db *sql.DB, id, eventID, category string) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO participants (id, event_id, display_name, category) VALUES (?, ?, ?, ?)`,
		id, eventID, "Name "+id, category)
	require.NoError(t, err)
}
