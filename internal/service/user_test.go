package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newUserFixture(t *testing.T) (*UserService, *fakeRepo) {
	t.Helper()
	repo := newFakeRepo()
	return &UserService{Repo: repo, Logger: zap.NewNop()}, repo
}

func TestUserCreateAndLookup(t *testing.T) {
	svc, _ := newUserFixture(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, "ext-1", "alice", "", decimal.NewFromInt(100))
	require.NoError(t, err)
	require.NotZero(t, user.ID)

	byID, err := svc.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	byExternal, err := svc.GetByExternalID(ctx, "ext-1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byExternal.ID)

	_, err = svc.Get(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserCreditAndDebit(t *testing.T) {
	svc, _ := newUserFixture(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, "ext-1", "alice", "", decimal.NewFromInt(50))
	require.NoError(t, err)

	require.NoError(t, svc.Credit(ctx, user.ID, decimal.NewFromInt(25)))
	require.NoError(t, svc.Debit(ctx, user.ID, decimal.NewFromInt(60)))

	refreshed, err := svc.Get(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, refreshed.CoinsBalance.Equal(decimal.NewFromInt(15)))

	err = svc.Debit(ctx, user.ID, decimal.NewFromInt(100))
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	err = svc.Debit(ctx, 999, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrNotFound)
}
