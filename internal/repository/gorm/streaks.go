package gormrepository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"updown/internal/models"
)

// GetStreakForUser returns nil, nil when the user has never been settled.
func (s *Store) GetStreakForUser(ctx context.Context, userID uint64) (*models.StreakState, error) {
	var state models.StreakState
	err := s.dbc(ctx).First(&state, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *Store) SaveStreak(ctx context.Context, state *models.StreakState) error {
	return s.dbc(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"asset_streaks",
			"choices_streak",
			"current_sequence",
			"updated_at",
		}),
	}).Create(state).Error
}
