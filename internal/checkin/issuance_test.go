package checkin_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-checkin/internal/checkin"
	"github.com/iliyamo/event-checkin/internal/credential"
	"github.com/iliyamo/event-checkin/internal/repository"
)

func TestIssueForEventIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.addParticipants("E", "A", "B", "C")
	f.addParticipants("E2", "X")
	ctx := context.Background()

	_, err := f.issuer.CredentialFor(ctx, "A")
	assert.ErrorIs(t, err, checkin.ErrNotIssued)

	n, err := f.issuer.IssueForEvent(ctx, "E")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	first, err := f.issuer.CredentialFor(ctx, "A")
	require.NoError(t, err)

	n, err = f.issuer.IssueForEvent(ctx, "E")
	require.NoError(t, err)
	assert.Zero(t, n)

	again, err := f.issuer.CredentialFor(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, first, again)

	_, err = f.issuer.CredentialFor(ctx, "X")
	assert.ErrorIs(t, err, checkin.ErrNotIssued, "other events are untouched")

	f.addParticipants("E", "D")
	n, err = f.issuer.IssueForEvent(ctx, "E")
	require.NoError(t, err)
	assert.Equal(t, 1, n, "late registrations are picked up")
}

func TestIssuedCredentialVerifies(t *testing.T) {
	f := newFixture(t)
	f.addParticipants("E", "P")
	text := f.credentialFor(t, "P")

	c, err := credential.Decode(text)
	require.NoError(t, err)
	p, e, err := f.verifier.Verify(c)
	require.NoError(t, err)
	assert.Equal(t, "P", p)
	assert.Equal(t, "E", e)
}

func TestIssueForUnknownEvent(t *testing.T) {
	f := newFixture(t)
	_, err := f.issuer.IssueForEvent(context.Background(), "nope")
	assert.ErrorIs(t, err, repository.ErrEventNotFound)

	_, err = f.issuer.IssueForEvent(context.Background(), "")
	assert.ErrorIs(t, err, checkin.ErrInvalidRef)
}
