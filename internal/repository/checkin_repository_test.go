package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-checkin/internal/model"
)

func checkIn(p, e string, m model.Method, at time.Time) model.Transition {
	return model.Transition{
		ParticipantRef: p,
		EventRef:       e,
		From:           []model.Status{model.StatusNotCheckedIn},
		To:             model.StatusCheckedIn,
		Method:         m,
		At:             at,
	}
}

func TestCheckinRepo_GetMissingRowIsNotCheckedIn(t *testing.T) {
	repo := NewCheckinRepo(openTestDB(t), DialectSQLite)

	rec, err := repo.Get(context.Background(), "p1", "e1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusNotCheckedIn, rec.Status)
	assert.Nil(t, rec.CheckedInAt)
	assert.Equal(t, "p1", rec.ParticipantRef)
}

func TestCheckinRepo_TransitionCheckInOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewCheckinRepo(openTestDB(t), DialectSQLite)

	ok, err := repo.Transition(ctx, checkIn("p1", "e1", model.MethodScan, t0))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Transition(ctx, checkIn("p1", "e1", model.MethodManual, t0.Add(time.Minute)))
	require.NoError(t, err)
	assert.False(t, ok, "second check-in must not win the guard")

	rec, err := repo.Get(ctx, "p1", "e1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCheckedIn, rec.Status)
	assert.Equal(t, model.MethodScan, rec.Method)
	require.NotNil(t, rec.CheckedInAt)
	assert.True(t, rec.CheckedInAt.Equal(t0), "checked_in_at keeps the first value")
	assert.Nil(t, rec.CheckedOutAt)
}

func TestCheckinRepo_CheckOutRequiresCheckIn(t *testing.T) {
	ctx := context.Background()
	repo := NewCheckinRepo(openTestDB(t), DialectSQLite)
	out := model.Transition{
		ParticipantRef: "p1", EventRef: "e1",
		From: []model.Status{model.StatusCheckedIn}, To: model.StatusCheckedOut, At: t0.Add(time.Hour),
	}

	ok, err := repo.Transition(ctx, out)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.Transition(ctx, checkIn("p1", "e1", model.MethodScan, t0))
	require.NoError(t, err)
	ok, err = repo.Transition(ctx, out)
	require.NoError(t, err)
	assert.True(t, ok)

	rec, err := repo.Get(ctx, "p1", "e1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCheckedOut, rec.Status)
	require.NotNil(t, rec.CheckedOutAt)
	assert.True(t, rec.CheckedOutAt.Equal(t0.Add(time.Hour)))
	require.NotNil(t, rec.CheckedInAt)
}

func TestCheckinRepo_CancelClearsTimestamps(t *testing.T) {
	ctx := context.Background()
	repo := NewCheckinRepo(openTestDB(t), DialectSQLite)
	_, err := repo.Transition(ctx, checkIn("p1", "e1", model.MethodScan, t0))
	require.NoError(t, err)

	ok, err := repo.Transition(ctx, model.Transition{
		ParticipantRef: "p1", EventRef: "e1",
		From: []model.Status{model.StatusNotCheckedIn, model.StatusCheckedIn, model.StatusCheckedOut},
		To:   model.StatusCancelled, At: t0.Add(time.Minute),
	})
	require.NoError(t, err)
	assert.True(t, ok)

	rec, err := repo.Get(ctx, "p1", "e1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, rec.Status)
	assert.Nil(t, rec.CheckedInAt)
	assert.Nil(t, rec.CheckedOutAt)
}

func TestCheckinRepo_RejectsEmptyGuard(t *testing.T) {
	repo := NewCheckinRepo(openTestDB(t), DialectSQLite)
	_, err := repo.Transition(context.Background(), model.Transition{ParticipantRef: "p", EventRef: "e", To: model.StatusNoShow})
	assert.Error(t, err)
}

func TestCheckinRepo_ConcurrentCheckInsHaveOneWinner(t *testing.T) {
	ctx := context.Background()
	repo := NewCheckinRepo(openTestDB(t), DialectSQLite)

	const stations = 16
	var wins atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < stations; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			ok, err := repo.Transition(ctx, checkIn("p1", "e1", model.MethodScan, t0.Add(time.Duration(i)*time.Millisecond)))
			assert.NoError(t, err)
			if ok {
				wins.Add(1)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	recs, err := repo.ListByEvent(ctx, "e1")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, model.StatusCheckedIn, recs[0].Status)
}

func TestCheckinRepo_SetFlagIndependentOfStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewCheckinRepo(openTestDB(t), DialectSQLite)

	require.NoError(t, repo.SetFlag(ctx, "p1", "e1", model.FlagBadgePrinted, true, t0))
	rec, err := repo.Get(ctx, "p1", "e1")
	require.NoError(t, err)
	assert.True(t, rec.BadgePrinted)
	assert.False(t, rec.MaterialsProvided)
	assert.Equal(t, model.StatusNotCheckedIn, rec.Status)

	require.NoError(t, repo.SetFlag(ctx, "p1", "e1", model.FlagMaterialsProvided, true, t0))
	require.NoError(t, repo.SetFlag(ctx, "p1", "e1", model.FlagBadgePrinted, false, t0))
	rec, err = repo.Get(ctx, "p1", "e1")
	require.NoError(t, err)
	assert.False(t, rec.BadgePrinted)
	assert.True(t, rec.MaterialsProvided)

	assert.Error(t, repo.SetFlag(ctx, "p1", "e1", model.Flag("vip"), true, t0))
}

func TestCheckinRepo_MarkNoShows(t *testing.T) {
	ctx := context.Background()
	repo := NewCheckinRepo(openTestDB(t), DialectSQLite)
	_, err := repo.Transition(ctx, checkIn("p1", "e1", model.MethodScan, t0))
	require.NoError(t, err)

	n, err := repo.MarkNoShows(ctx, "e1", []string{"p1", "p2", "p3"}, t0.Add(8*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	recs, err := repo.ListByEvent(ctx, "e1")
	require.NoError(t, err)
	got := map[string]model.Status{}
	for _, r := range recs {
		got[r.ParticipantRef] = r.Status
	}
	assert.Equal(t, map[string]model.Status{
		"p1": model.StatusCheckedIn,
		"p2": model.StatusNoShow,
		"p3": model.StatusNoShow,
	}, got)

	// second run changes nothing
	n, err = repo.MarkNoShows(ctx, "e1", []string{"p1", "p2", "p3"}, t0.Add(9*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCheckinRepo_StoreErrorsAreUnavailable(t *testing.T) {
	db := openTestDB(t)
	repo := NewCheckinRepo(db, DialectSQLite)
	require.NoError(t, db.Close())

	_, err := repo.Get(context.Background(), "p1", "e1")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	_, err = repo.Transition(context.Background(), checkIn("p1", "e1", model.MethodScan, t0))
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}
