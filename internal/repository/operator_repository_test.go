package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-checkin/internal/utils"
)

func TestOperatorRepo_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewOperatorRepo(openTestDB(t), DialectSQLite)

	id, err := repo.Create(ctx, "  Desk@Example.org ", "pw", "STAFF", 4)
	require.NoError(t, err)
	assert.NotZero(t, id)

	o, err := repo.GetByEmail(ctx, "desk@example.org")
	require.NoError(t, err)
	assert.Equal(t, id, o.ID)
	assert.Equal(t, "STAFF", o.Role)
	assert.True(t, o.IsActive)
	assert.True(t, utils.VerifyPassword(o.PasswordHash, "pw"))

	byID, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, o.Email, byID.Email)

	_, err = repo.Create(ctx, "desk@example.org", "pw2", "ADMIN", 4)
	assert.ErrorIs(t, err, ErrEmailExists)

	_, err = repo.GetByEmail(ctx, "ghost@example.org")
	assert.ErrorIs(t, err, ErrOperatorNotFound)
}
