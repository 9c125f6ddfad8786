package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-checkin/internal/database"
)

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"migrate", "issue", "credential", "stats", "noshow", "station", "operator"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestInvalidFormat(t *testing.T) {
	_, err := run(t, "", "--format", "yaml", "migrate")
	assert.ErrorContains(t, err, "invalid format")
}

// setupEnv points the CLI at a seeded SQLite file.
func setupEnv(t *testing.T) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "checkin.db")
	t.Setenv("APP_ENV", "test")
	t.Setenv("JWT_SECRET", "cli-test")
	t.Setenv("ACCESS_TOKEN_TTL_MIN", "60")
	t.Setenv("BCRYPT_COST", "4")
	t.Setenv("CHECKIN_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", path)

	db, err := database.OpenSQLite(path)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(`INSERT INTO events (id, name) VALUES ('fair', 'Book Fair')`)
	require.NoError(t, err)
	for _, p := range []string{"ann", "bob", "cid"} {
		_, err = db.Exec(`INSERT INTO participants (id, event_id, display_name, category) VALUES (?, 'fair', ?, 'attendee')`, p, strings.ToUpper(p))
		require.NoError(t, err)
	}
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestIssueAndStation(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "", "issue", "--event", "fair")
	require.NoError(t, err)
	assert.Equal(t, "issued 3 credential(s) for event fair\n", out)

	out, err = run(t, "", "issue", "--event", "fair")
	require.NoError(t, err)
	assert.Contains(t, out, "issued 0 credential(s)")

	code, err := run(t, "", "credential", "--participant", "ann")
	require.NoError(t, err)
	code = strings.TrimSpace(code)
	assert.True(t, strings.HasPrefix(code, "EC1."), code)

	out, err = run(t, code+"\n"+code+"\n\nnot-a-code\n", "--format", "json", "station", "--event", "fair", "--id", "desk-1")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)

	var got []scanLine
	for _, l := range lines {
		var s scanLine
		require.NoError(t, json.Unmarshal([]byte(l), &s))
		got = append(got, s)
	}
	assert.Equal(t, "checked_in", string(got[0].Outcome))
	assert.Equal(t, "ann", got[0].Participant)
	assert.Equal(t, "suppressed", string(got[1].Outcome))
	assert.Equal(t, "malformed", string(got[2].Outcome))

	out, err = run(t, code+"\n", "station", "--event", "fair", "--id", "desk-2")
	require.NoError(t, err)
	assert.Contains(t, out, "already_checked_in")
}

func TestStatsAndNoShow(t *testing.T) {
	setupEnv(t)
	_, err := run(t, "", "issue", "--event", "fair")
	require.NoError(t, err)
	code, err := run(t, "", "credential", "--participant", "bob")
	require.NoError(t, err)
	_, err = run(t, code, "station", "--event", "fair", "--id", "desk-1")
	require.NoError(t, err)

	_, err = run(t, "", "noshow", "--event", "fair")
	assert.ErrorContains(t, err, "event has not ended")

	out, err := run(t, "", "noshow", "--event", "fair", "--override")
	require.NoError(t, err)
	assert.Equal(t, "marked 2 participant(s) as no-show\n", out)

	out, err = run(t, "", "--format", "json", "stats", "--event", "fair")
	require.NoError(t, err)
	var st struct {
		Total       int `json:"total"`
		CheckedIn   int `json:"checkedIn"`
		NoShow      int `json:"noShow"`
		CheckinRate int `json:"checkinRate"`
		NoShowRate  int `json:"noShowRate"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, 3, st.Total)
	assert.Equal(t, 1, st.CheckedIn)
	assert.Equal(t, 2, st.NoShow)
	assert.Equal(t, 33, st.CheckinRate)
	assert.Equal(t, 67, st.NoShowRate)

	out, err = run(t, "", "stats", "--event", "fair")
	require.NoError(t, err)
	assert.Contains(t, out, "check-in rate 33%")
}

func TestOperatorAdd(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "correct-horse\n", "operator", "add", "--email", "Desk@Example.com", "--role", "staff")
	require.NoError(t, err)
	assert.Contains(t, out, "created operator 1")

	_, err = run(t, "correct-horse\n", "operator", "add", "--email", "desk@example.com")
	assert.Error(t, err, "duplicate email")

	_, err = run(t, "short\n", "operator", "add", "--email", "x@example.com")
	assert.ErrorContains(t, err, "at least 8")

	_, err = run(t, "correct-horse\n", "operator", "add", "--email", "y@example.com", "--role", "root")
	assert.ErrorContains(t, err, "invalid role")
}
