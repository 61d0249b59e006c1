package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// BattlePlayer is one participant's standing inside a battle. Points stay at
// zero until the battle settles; winners then record their net prize share.
type BattlePlayer struct {
	UserID uint64          `json:"user_id"`
	Points decimal.Decimal `json:"points"`
}

// Battle is a head-to-head wager tied to one round. Players join before the
// round opens; the battle settles only after the round itself has settled.
type Battle struct {
	ID      string `gorm:"type:varchar(36);primaryKey"`
	OwnerID uint64 `gorm:"not null;uniqueIndex:idx_battles_owner_round,priority:1"`
	Round   int64  `gorm:"not null;uniqueIndex:idx_battles_owner_round,priority:2;index:idx_battles_round_settled,priority:1"`

	EntryPrice decimal.Decimal `gorm:"type:numeric(30,10);not null"`
	PrizePool  decimal.Decimal `gorm:"type:numeric(30,10);not null"`

	Players datatypes.JSON `gorm:"type:jsonb;not null"`
	Settled bool           `gorm:"not null;default:false;index:idx_battles_round_settled,priority:2"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Battle) TableName() string {
	return "battles"
}

func (b *Battle) PlayerList() ([]BattlePlayer, error) {
	var players []BattlePlayer
	if len(b.Players) == 0 {
		return players, nil
	}
	if err := json.Unmarshal(b.Players, &players); err != nil {
		return nil, err
	}
	return players, nil
}

func EncodePlayers(players []BattlePlayer) (datatypes.JSON, error) {
	raw, err := json.Marshal(players)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
