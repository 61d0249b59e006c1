package db

import (
	"updown/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.User{},
		&models.PriceSnapshot{},
		&models.Submission{},
		&models.StreakState{},
		&models.Tournament{},
		&models.TournamentParticipation{},
		&models.Battle{},
		&models.GameState{},
	)
}
