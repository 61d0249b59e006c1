// Package streak maintains per-user consecutive-success counters that feed
// the reward multiplier.
package streak

import (
	"context"
	"fmt"

	"updown/internal/models"
)

const DefaultMaxInactivityRounds = 8

// Store is the slice of the repository the tracker needs.
type Store interface {
	GetStreakForUser(ctx context.Context, userID uint64) (*models.StreakState, error)
	SaveStreak(ctx context.Context, state *models.StreakState) error
}

// State is the advanced streak snapshot consumed by reward calculation.
type State struct {
	AssetStreaks  map[string]int
	ChoicesStreak int
}

// Advance applies one settled round to the previous state. sequence is the
// round ordinal; results maps each played asset to its correctness. A gap
// larger than maxGap treats the old streak as broken and reseeds.
func Advance(prev *models.StreakState, prevAssets map[string]int, sequence int64, results map[string]bool, maxGap int64) State {
	allCorrect := true
	for _, correct := range results {
		if !correct {
			allCorrect = false
			break
		}
	}

	stale := prev == nil ||
		(prev.CurrentSequence != sequence && sequence-prev.CurrentSequence > maxGap)

	assetStreaks := map[string]int{}
	if !stale {
		for assetID, count := range prevAssets {
			assetStreaks[assetID] = count
		}
	}
	for assetID, correct := range results {
		if correct {
			assetStreaks[assetID]++
		} else {
			assetStreaks[assetID] = 0
		}
	}

	choicesStreak := 0
	if allCorrect {
		choicesStreak = 1
		if !stale {
			choicesStreak = prev.ChoicesStreak + 1
		}
	}

	return State{AssetStreaks: assetStreaks, ChoicesStreak: choicesStreak}
}

// Service persists streak transitions. Apply must run inside the same
// transaction that settles the submission; it reaches the active transaction
// through the context.
type Service struct {
	Store               Store
	MaxInactivityRounds int64
}

func (s *Service) Apply(ctx context.Context, userID uint64, sequence int64, results map[string]bool) (State, error) {
	maxGap := s.MaxInactivityRounds
	if maxGap <= 0 {
		maxGap = DefaultMaxInactivityRounds
	}

	prev, err := s.Store.GetStreakForUser(ctx, userID)
	if err != nil {
		return State{}, fmt.Errorf("load streak: %w", err)
	}

	var prevAssets map[string]int
	if prev != nil {
		prevAssets, err = prev.AssetStreakMap()
		if err != nil {
			return State{}, fmt.Errorf("decode asset streaks: %w", err)
		}
	}

	next := Advance(prev, prevAssets, sequence, results, maxGap)

	encoded, err := models.EncodeAssetStreaks(next.AssetStreaks)
	if err != nil {
		return State{}, fmt.Errorf("encode asset streaks: %w", err)
	}

	state := &models.StreakState{
		UserID:          userID,
		AssetStreaks:    encoded,
		ChoicesStreak:   next.ChoicesStreak,
		CurrentSequence: sequence,
	}
	if prev != nil {
		state.ID = prev.ID
		state.CreatedAt = prev.CreatedAt
	}

	if err := s.Store.SaveStreak(ctx, state); err != nil {
		return State{}, fmt.Errorf("save streak: %w", err)
	}
	return next, nil
}

func (s *Service) GetForUser(ctx context.Context, userID uint64) (*models.StreakState, error) {
	return s.Store.GetStreakForUser(ctx, userID)
}
