package gormrepository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"updown/internal/models"
)

// The settlement marker lives in a single well-known row.
const gameStateID = 1

// GetLastProcessedRound returns 0 when the engine has never completed a
// round, which makes the first cycle start from the configured epoch.
func (s *Store) GetLastProcessedRound(ctx context.Context) (int64, error) {
	var state models.GameState
	err := s.dbc(ctx).First(&state, "id = ?", gameStateID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return state.LastProcessedRound, nil
}

func (s *Store) SetLastProcessedRound(ctx context.Context, round int64) error {
	state := models.GameState{ID: gameStateID, LastProcessedRound: round}
	return s.dbc(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_processed_round", "updated_at"}),
	}).Create(&state).Error
}
