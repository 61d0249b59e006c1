package models

import "time"

// GameState is a single-row marker table. LastProcessedRound is the last round
// whose submissions were fully drained by the settlement cycle; it advances
// only per fully processed round.
type GameState struct {
	ID                 uint64 `gorm:"primaryKey"`
	LastProcessedRound int64  `gorm:"not null;default:0"`

	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (GameState) TableName() string {
	return "game_state"
}
