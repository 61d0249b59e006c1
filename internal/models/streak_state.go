package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// StreakState holds per-user consecutive-correct counters. It is created
// lazily at a user's first settlement and mutated only inside the transaction
// that settles that user's submission.
type StreakState struct {
	ID     uint64 `gorm:"primaryKey;autoIncrement"`
	UserID uint64 `gorm:"not null;uniqueIndex"`

	AssetStreaks datatypes.JSON `gorm:"type:jsonb"`
	// ChoicesStreak counts consecutive all-correct rounds with no gaps.
	ChoicesStreak int `gorm:"not null;default:0"`
	// CurrentSequence is the round ordinal of the last settled submission,
	// used to detect participation gaps.
	CurrentSequence int64 `gorm:"not null"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (StreakState) TableName() string {
	return "streak_states"
}

func (s *StreakState) AssetStreakMap() (map[string]int, error) {
	streaks := map[string]int{}
	if len(s.AssetStreaks) == 0 {
		return streaks, nil
	}
	if err := json.Unmarshal(s.AssetStreaks, &streaks); err != nil {
		return nil, err
	}
	return streaks, nil
}

func EncodeAssetStreaks(streaks map[string]int) (datatypes.JSON, error) {
	raw, err := json.Marshal(streaks)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
