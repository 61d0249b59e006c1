package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tournament is a multi-day competition; StartDay/EndDay are UTC day numbers
// (unix time / 86400).
type Tournament struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement"`
	Title       string `gorm:"type:varchar(200);not null"`
	Description string `gorm:"type:text"`
	DisplayID   int64  `gorm:"not null;uniqueIndex"`

	EntryPrice      decimal.Decimal `gorm:"type:numeric(30,10);not null"`
	StaticPrizePool decimal.Decimal `gorm:"type:numeric(30,10);not null"`

	ParticipantsCount int64 `gorm:"not null;default:0"`

	StartDay int64 `gorm:"not null;index:idx_tournaments_days,priority:1"`
	EndDay   int64 `gorm:"not null;index:idx_tournaments_days,priority:2"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (Tournament) TableName() string {
	return "tournaments"
}

// TournamentParticipation accumulates a user's points within one tournament.
// Points are only ever added to once settlement contributes; the row ID is the
// leaderboard tie-break identifier.
type TournamentParticipation struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	TournamentID uint64 `gorm:"not null;uniqueIndex:idx_participations_tournament_user,priority:1"`
	UserID       uint64 `gorm:"not null;uniqueIndex:idx_participations_tournament_user,priority:2;index"`

	Points decimal.Decimal `gorm:"type:numeric(30,10);not null;default:0"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (TournamentParticipation) TableName() string {
	return "tournament_participations"
}
