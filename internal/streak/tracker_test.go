package streak

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"updown/internal/models"
)

func TestAdvanceFirstRound(t *testing.T) {
	got := Advance(nil, nil, 10, map[string]bool{"BTC": true, "ETH": false}, 8)

	assert.Equal(t, map[string]int{"BTC": 1, "ETH": 0}, got.AssetStreaks)
	assert.Equal(t, 0, got.ChoicesStreak)
}

func TestAdvanceFirstRoundAllCorrect(t *testing.T) {
	got := Advance(nil, nil, 10, map[string]bool{"BTC": true, "ETH": true}, 8)

	assert.Equal(t, map[string]int{"BTC": 1, "ETH": 1}, got.AssetStreaks)
	assert.Equal(t, 1, got.ChoicesStreak)
}

func TestAdvanceContinuesStreaks(t *testing.T) {
	prev := &models.StreakState{ChoicesStreak: 3, CurrentSequence: 10}
	prevAssets := map[string]int{"BTC": 4, "ETH": 2, "SOL": 7}

	got := Advance(prev, prevAssets, 11, map[string]bool{"BTC": true, "ETH": true}, 8)

	assert.Equal(t, 5, got.AssetStreaks["BTC"])
	assert.Equal(t, 3, got.AssetStreaks["ETH"])
	// SOL was not played this round, its counter carries over untouched.
	assert.Equal(t, 7, got.AssetStreaks["SOL"])
	assert.Equal(t, 4, got.ChoicesStreak)
}

func TestAdvanceIncorrectResetsAssetAndChoices(t *testing.T) {
	prev := &models.StreakState{ChoicesStreak: 5, CurrentSequence: 20}
	prevAssets := map[string]int{"BTC": 9, "ETH": 3}

	got := Advance(prev, prevAssets, 21, map[string]bool{"BTC": true, "ETH": false}, 8)

	assert.Equal(t, 10, got.AssetStreaks["BTC"])
	assert.Equal(t, 0, got.AssetStreaks["ETH"])
	assert.Equal(t, 0, got.ChoicesStreak)
}

func TestAdvanceGapWithinThresholdKeepsStreaks(t *testing.T) {
	prev := &models.StreakState{ChoicesStreak: 2, CurrentSequence: 100}
	prevAssets := map[string]int{"BTC": 2}

	got := Advance(prev, prevAssets, 108, map[string]bool{"BTC": true}, 8)

	assert.Equal(t, 3, got.AssetStreaks["BTC"])
	assert.Equal(t, 3, got.ChoicesStreak)
}

func TestAdvanceGapBeyondThresholdReseeds(t *testing.T) {
	prev := &models.StreakState{ChoicesStreak: 6, CurrentSequence: 100}
	prevAssets := map[string]int{"BTC": 6, "ETH": 4}

	got := Advance(prev, prevAssets, 109, map[string]bool{"BTC": true}, 8)

	assert.Equal(t, map[string]int{"BTC": 1}, got.AssetStreaks)
	assert.Equal(t, 1, got.ChoicesStreak)
}

type memStreakStore struct {
	byUser map[uint64]*models.StreakState
	nextID uint64
}

func newMemStreakStore() *memStreakStore {
	return &memStreakStore{byUser: map[uint64]*models.StreakState{}}
}

func (m *memStreakStore) GetStreakForUser(_ context.Context, userID uint64) (*models.StreakState, error) {
	state, ok := m.byUser[userID]
	if !ok {
		return nil, nil
	}
	cp := *state
	return &cp, nil
}

func (m *memStreakStore) SaveStreak(_ context.Context, state *models.StreakState) error {
	if state.ID == 0 {
		m.nextID++
		state.ID = m.nextID
	}
	cp := *state
	m.byUser[state.UserID] = &cp
	return nil
}

func TestServiceApplyCreatesAndUpdates(t *testing.T) {
	store := newMemStreakStore()
	svc := &Service{Store: store, MaxInactivityRounds: 8}
	ctx := context.Background()

	first, err := svc.Apply(ctx, 7, 50, map[string]bool{"BTC": true, "ETH": true})
	require.NoError(t, err)
	assert.Equal(t, 1, first.ChoicesStreak)
	assert.Equal(t, map[string]int{"BTC": 1, "ETH": 1}, first.AssetStreaks)

	second, err := svc.Apply(ctx, 7, 51, map[string]bool{"BTC": true, "ETH": false})
	require.NoError(t, err)
	assert.Equal(t, 0, second.ChoicesStreak)
	assert.Equal(t, 2, second.AssetStreaks["BTC"])
	assert.Equal(t, 0, second.AssetStreaks["ETH"])

	saved, err := svc.GetForUser(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, int64(51), saved.CurrentSequence)

	streaks, err := saved.AssetStreakMap()
	require.NoError(t, err)
	assert.Equal(t, 2, streaks["BTC"])
}

func TestServiceApplyDefaultsMaxGap(t *testing.T) {
	store := newMemStreakStore()
	svc := &Service{Store: store}
	ctx := context.Background()

	_, err := svc.Apply(ctx, 3, 10, map[string]bool{"BTC": true})
	require.NoError(t, err)

	// Gap of exactly DefaultMaxInactivityRounds keeps the streak alive.
	got, err := svc.Apply(ctx, 3, 10+DefaultMaxInactivityRounds, map[string]bool{"BTC": true})
	require.NoError(t, err)
	assert.Equal(t, 2, got.AssetStreaks["BTC"])
}
